package normalize

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// CanonicalKey returns the identifier used to merge records of the same resource.
//
// ARNs carry the resource id last, so the key is the last "/" or ":" segment of the
// ARN resource part (arn:aws:ec2:...:instance/i-abc -> i-abc). Bare identifiers carry it
// first with sub-paths trailing, so the key is the first segment (i-abc/extra -> i-abc).
func CanonicalKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	if parsed, err := arn.Parse(id); err == nil {
		if segs := segments(parsed.Resource); len(segs) > 0 {
			return segs[len(segs)-1]
		}
		return id
	}

	if segs := segments(id); len(segs) > 0 {
		return segs[0]
	}
	return id
}

// resourceKind returns "service:resource-type" for an ARN, or "" for bare identifiers.
func resourceKind(id string) string {
	parsed, err := arn.Parse(strings.TrimSpace(id))
	if err != nil {
		return ""
	}
	segs := segments(parsed.Resource)
	if len(segs) < 2 {
		return parsed.Service
	}
	return parsed.Service + ":" + segs[0]
}

func arnService(id string) string {
	parsed, err := arn.Parse(strings.TrimSpace(id))
	if err != nil {
		return ""
	}
	return parsed.Service
}

func arnRegion(id string) string {
	parsed, err := arn.Parse(strings.TrimSpace(id))
	if err != nil {
		return ""
	}
	return parsed.Region
}

func segments(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ':'
	})
}
