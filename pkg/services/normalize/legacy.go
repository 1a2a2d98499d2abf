package normalize

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Field-name fallback chains of the loose record shape, in priority order.
var (
	legacyIDFields      = []string{"id", "resource_id", "resourceId", "ResourceId", "ResourceARN", "arn", "Name"}
	legacyNameFields    = []string{"name", "resource_name", "resourceName"}
	legacyCostFields    = []string{"total_cost", "cost", "amount", "monthly_cost", "UnblendedCost"}
	legacyTypeFields    = []string{"type", "resource_type", "resourceType", "ResourceType"}
	legacyServiceFields = []string{"service", "service_name", "serviceName", "Service"}
	legacyRegionFields  = []string{"region", "Region", "location"}
	legacyStatusFields  = []string{"status", "state", "State"}
	legacyCreatedFields = []string{"createdDate", "created_date", "creation_date", "LaunchTime"}
	legacyOwnerFields   = []string{"owner", "Owner"}
	legacyProjectFields = []string{"project", "Project"}
	legacyTagFields     = []string{"tags", "Tags"}
)

// DecodeLegacy parses a JSON array of loosely shaped resource records.
func DecodeLegacy(data []byte) ([]RawResource, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []map[string]interface{}
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode resource records: %w", err)
	}

	result := make([]RawResource, 0, len(records))
	for i, rec := range records {
		raw, err := FromLegacy(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		result = append(result, raw)
	}
	return result, nil
}

// FromLegacy adapts one loosely shaped record. The first non-empty field of each fallback
// chain wins; for cost, the first non-zero amount.
func FromLegacy(rec map[string]interface{}) (RawResource, error) {
	raw := RawResource{
		Version:     SchemaVersion,
		Source:      SourceLegacy,
		ID:          stringField(rec, legacyIDFields),
		Name:        stringField(rec, legacyNameFields),
		Type:        stringField(rec, legacyTypeFields),
		Service:     stringField(rec, legacyServiceFields),
		Region:      stringField(rec, legacyRegionFields),
		Owner:       stringField(rec, legacyOwnerFields),
		Project:     stringField(rec, legacyProjectFields),
		CreatedDate: dateField(rec, legacyCreatedFields),
		Status:      ParseStatus(stringField(rec, legacyStatusFields)),
		Cost:        decimal.Zero,
	}

	for _, f := range legacyCostFields {
		v, ok := rec[f]
		if !ok || v == nil {
			continue
		}
		cost, err := parseCost(v)
		if err != nil {
			return RawResource{}, fmt.Errorf("field %s: %w", f, err)
		}
		// Empty and zero amounts fall through to the next field.
		if cost.IsZero() {
			continue
		}
		raw.Cost = cost
		break
	}

	for _, f := range legacyTagFields {
		if v, ok := rec[f]; ok && v != nil {
			raw.Tags = parseTags(v)
			break
		}
	}
	return raw, nil
}

func stringField(rec map[string]interface{}, fields []string) string {
	for _, f := range fields {
		switch v := rec[f].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func dateField(rec map[string]interface{}, fields []string) string {
	s := stringField(rec, fields)
	if s == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return formatDate(t)
	}
	if len(s) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, s[:len(dateLayout)]); err == nil {
			return formatDate(t)
		}
	}
	return s
}

func parseCost(v interface{}) (decimal.Decimal, error) {
	switch c := v.(type) {
	case json.Number:
		return decimal.NewFromString(c.String())
	case string:
		if strings.TrimSpace(c) == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(strings.TrimSpace(c))
	case float64:
		return decimal.NewFromFloat(c), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported cost value %v", v)
	}
}

// parseTags accepts [{key,value}], [{Key,Value}] and {"key": "value"} shapes.
func parseTags(v interface{}) []domain.Tag {
	var tags []domain.Tag
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			key := stringField(m, []string{"key", "Key"})
			if key == "" {
				continue
			}
			tags = append(tags, domain.Tag{Key: key, Value: stringField(m, []string{"value", "Value"})})
		}
	case map[string]interface{}:
		for k, val := range t {
			s, _ := val.(string)
			tags = append(tags, domain.Tag{Key: k, Value: s})
		}
	}
	return tags
}
