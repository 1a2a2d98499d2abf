package normalize

import (
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// CostPrecision is the number of decimal places costs are rounded to.
const CostPrecision = 6

type accumulator struct {
	detail     domain.ResourceDetail
	typeStrong bool
	tags       map[string]string
	specs      map[string]string
}

// Normalize merges raw records sharing a canonical key into one ResourceDetail each.
// Costs are summed, tags are unioned by key and status is promoted to terminated when any
// contributing record is terminated. Conflicting scalar fields resolve to the
// lexicographically smallest non-empty value and conflicting tag values to the greatest,
// so the result does not depend on input order. Records without an identifier are dropped.
func Normalize(records []RawResource) []domain.ResourceDetail {
	byKey := make(map[string]*accumulator)

	for _, raw := range records {
		key := CanonicalKey(raw.ID)
		if key == "" {
			continue
		}

		acc, ok := byKey[key]
		if !ok {
			acc = &accumulator{
				detail: domain.ResourceDetail{
					ID:     key,
					Status: domain.ResourceStatusUnknown,
					Cost:   decimal.Zero,
				},
				tags:  make(map[string]string),
				specs: make(map[string]string),
			}
			byKey[key] = acc
		}
		acc.add(raw)
	}

	result := make([]domain.ResourceDetail, 0, len(byKey))
	for _, acc := range byKey {
		result = append(result, acc.build())
	}

	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Cost.Cmp(result[j].Cost); c != 0 {
			return c > 0
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (a *accumulator) add(raw RawResource) {
	d := &a.detail

	cost := raw.Cost.Round(CostPrecision)
	d.Cost = d.Cost.Add(cost)
	if raw.CostEstimated && !cost.IsZero() {
		d.CostEstimated = true
	}

	if arnService(raw.ID) != "" {
		d.ARN = pick(d.ARN, strings.TrimSpace(raw.ID))
	}
	d.Name = pick(d.Name, raw.Name)
	d.Service = pick(d.Service, raw.Service)
	region := raw.Region
	if region == "" {
		region = arnRegion(raw.ID)
	}
	d.Region = pick(d.Region, region)
	d.Owner = pick(d.Owner, raw.Owner)
	d.Project = pick(d.Project, raw.Project)
	d.CreatedDate = pick(d.CreatedDate, raw.CreatedDate)

	if statusRank(raw.Status) > statusRank(d.Status) {
		d.Status = raw.Status
	}

	kind, strong := ResourceType(raw)
	switch {
	case d.Type == "":
		d.Type, a.typeStrong = kind, strong
	case strong && !a.typeStrong:
		d.Type, a.typeStrong = kind, true
	case strong == a.typeStrong:
		d.Type = pick(d.Type, kind)
	}

	for _, t := range raw.Tags {
		if t.Key == "" {
			continue
		}
		if cur, ok := a.tags[t.Key]; !ok || t.Value > cur {
			a.tags[t.Key] = t.Value
		}
	}
	for k, v := range raw.Specifications {
		if cur, ok := a.specs[k]; !ok || v > cur {
			a.specs[k] = v
		}
	}
}

func (a *accumulator) build() domain.ResourceDetail {
	d := a.detail
	d.Cost = d.Cost.Round(CostPrecision)

	keys := slices.Sorted(maps.Keys(a.tags))
	d.Tags = make([]domain.Tag, 0, len(keys))
	for _, k := range keys {
		d.Tags = append(d.Tags, domain.Tag{Key: k, Value: a.tags[k]})
	}

	if d.Name == "" {
		d.Name = a.tags["Name"]
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	if d.Owner == "" {
		d.Owner = firstTag(a.tags, OwnerTagKeys)
	}
	if d.Project == "" {
		d.Project = firstTag(a.tags, ProjectTagKeys)
	}
	if len(a.specs) > 0 {
		d.Specifications = maps.Clone(a.specs)
	}
	return d
}

// pick returns the smaller non-empty of two values.
func pick(cur, next string) string {
	next = strings.TrimSpace(next)
	switch {
	case next == "":
		return cur
	case cur == "" || next < cur:
		return next
	default:
		return cur
	}
}

func firstTag(tags map[string]string, keys []string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}
