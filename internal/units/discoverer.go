package units

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultPrecision is the rounding precision applied to normalized values.
const DefaultPrecision = 4

// Rule converts values carrying one source unit into the canonical unit for
// an attribute. Rules are immutable once discovered.
type Rule struct {
	AttributeID string  `json:"attributeId"`
	SourceUnit  string  `json:"sourceUnit"`
	TargetUnit  string  `json:"targetUnit"`
	Multiplier  float64 `json:"multiplier"`
	Offset      float64 `json:"offset"`
	Precision   int     `json:"precision"`
}

// Sample is one raw attribute observation.
type Sample struct {
	AttributeID string `json:"attributeId"`
	RawValue    string `json:"rawValue"`
}

var (
	numericLiteralRe = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	nonAlnumRunRe    = regexp.MustCompile(`[^a-z0-9]+`)
	bareNumberRe     = regexp.MustCompile(`^[-+]?\d*\.?\d+$`)
)

// CanonicalAttributeID lower-cases an attribute id, collapses non-alphanumeric
// runs to underscores, and trims leading/trailing underscores.
func CanonicalAttributeID(id string) string {
	lowered := strings.ToLower(strings.TrimSpace(id))
	collapsed := nonAlnumRunRe.ReplaceAllString(lowered, "_")
	return strings.Trim(collapsed, "_")
}

// ExtractNumber pulls the first numeric literal (optional sign and decimal,
// commas stripped) out of a raw value.
func ExtractNumber(raw string) (float64, bool) {
	stripped := strings.ReplaceAll(raw, ",", "")
	match := numericLiteralRe.FindString(stripped)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// IsBareNumber reports whether a trimmed value is nothing but a numeric
// literal (commas allowed as grouping).
func IsBareNumber(raw string) bool {
	stripped := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	return stripped != "" && bareNumberRe.MatchString(stripped)
}

// DiscoverRules inspects attribute samples and emits one conversion rule per
// (attribute, target unit, quantity) it can recognize. Samples without a
// numeric literal or a known unit token are skipped silently.
func DiscoverRules(samples []Sample) []Rule {
	seen := make(map[string]bool)
	var rules []Rule

	for _, sample := range samples {
		if _, ok := ExtractNumber(sample.RawValue); !ok {
			continue
		}

		attrID := CanonicalAttributeID(sample.AttributeID)
		if attrID == "" {
			continue
		}

		// First pattern to match a token in the raw string wins.
		for _, pattern := range patternTable {
			variant, ok := matchVariant(pattern, sample.RawValue)
			if !ok {
				continue
			}

			key := attrID + "|" + pattern.TargetUnit + "|" + variant.Token
			if !seen[key] {
				seen[key] = true
				rules = append(rules, Rule{
					AttributeID: attrID,
					SourceUnit:  variant.Token,
					TargetUnit:  pattern.TargetUnit,
					Multiplier:  variant.Multiplier,
					Offset:      variant.Offset,
					Precision:   DefaultPrecision,
				})
			}
			break
		}
	}

	return rules
}

func matchVariant(pattern unitPattern, raw string) (unitVariant, bool) {
	for _, variant := range pattern.Variants {
		if variant.re.MatchString(raw) {
			return variant, true
		}
	}
	return unitVariant{}, false
}
