package units

import (
	"math"
	"strings"
)

// NormalizeValue converts one raw value to its canonical numeric form using
// the first applicable rule. A rule applies when its attribute id matches and
// its lower-cased source unit appears as a substring of the lower-cased raw
// value. Containment, not tokenization: this mirrors how the rules were
// discovered and is intentionally loose. No match returns nil, never an error.
func NormalizeValue(rules []Rule, attributeID, rawValue string) *float64 {
	numeric, ok := ExtractNumber(rawValue)
	if !ok {
		return nil
	}

	attrID := CanonicalAttributeID(attributeID)
	loweredRaw := strings.ToLower(rawValue)

	for _, rule := range rules {
		if CanonicalAttributeID(rule.AttributeID) != attrID {
			continue
		}
		if !strings.Contains(loweredRaw, strings.ToLower(rule.SourceUnit)) {
			continue
		}

		precision := rule.Precision
		if precision <= 0 {
			precision = DefaultPrecision
		}
		normalized := roundTo((numeric+rule.Offset)*rule.Multiplier, precision)
		return &normalized
	}

	return nil
}

func roundTo(value float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Round(value*factor) / factor
}
