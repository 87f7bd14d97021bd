// Package units discovers unit conversion rules from raw attribute samples
// and normalizes free-text values against them.
package units

import "regexp"

// unitVariant is one recognizable source unit within a quantity pattern.
type unitVariant struct {
	Token      string
	Multiplier float64
	Offset     float64
	re         *regexp.Regexp
}

// unitPattern groups the source units that convert into one canonical unit.
type unitPattern struct {
	Quantity   string
	TargetUnit string
	Variants   []unitVariant
}

// patternTable is the fixed, ordered set of recognized quantities. Order is
// semantically significant: ambiguous values matching multiple patterns
// resolve to the earliest-declared pattern, not the most specific one.
var patternTable = []unitPattern{
	{
		Quantity:   "length",
		TargetUnit: "mm",
		Variants: []unitVariant{
			{Token: "mm", Multiplier: 1},
			{Token: "cm", Multiplier: 10},
			{Token: "m", Multiplier: 1000},
			{Token: "in", Multiplier: 25.4},
			{Token: "ft", Multiplier: 304.8},
		},
	},
	{
		Quantity:   "pressure",
		TargetUnit: "psi",
		Variants: []unitVariant{
			{Token: "psi", Multiplier: 1},
			{Token: "bar", Multiplier: 14.5038},
			{Token: "pa", Multiplier: 0.000145038},
		},
	},
	{
		Quantity:   "temperature",
		TargetUnit: "celsius",
		Variants: []unitVariant{
			{Token: "°c", Multiplier: 1},
			{Token: "°f", Multiplier: 5.0 / 9.0, Offset: -32},
		},
	},
	{
		Quantity:   "flow",
		TargetUnit: "gpm",
		Variants: []unitVariant{
			{Token: "gpm", Multiplier: 1},
			{Token: "lpm", Multiplier: 0.264172},
		},
	},
	{
		Quantity:   "mass",
		TargetUnit: "kg",
		Variants: []unitVariant{
			{Token: "kg", Multiplier: 1},
			{Token: "lb", Multiplier: 0.453592},
		},
	},
}

func init() {
	for pi := range patternTable {
		for vi := range patternTable[pi].Variants {
			v := &patternTable[pi].Variants[vi]
			v.re = compileTokenPattern(v.Token)
		}
	}
}

// compileTokenPattern builds a matcher that finds the unit token as a
// standalone token in a raw value. Alphabetic tokens get letter boundaries so
// "m" does not fire inside "mm"; tokens starting with a symbol (the degree
// variants) match anywhere.
func compileTokenPattern(token string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(token)
	first := token[0]
	if (first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') {
		return regexp.MustCompile(`(?i)(^|[^a-z])` + quoted + `([^a-z]|$)`)
	}
	return regexp.MustCompile(`(?i)` + quoted)
}
