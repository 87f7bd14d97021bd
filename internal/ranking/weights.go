package ranking

import (
	"sort"
	"strings"
)

// Weights holds the blend coefficients for the five scoring dimensions.
// They are applied as-is; callers who want a true weighted average should
// supply values that sum to 1.
type Weights struct {
	Semantic      float64 `json:"semantic" yaml:"semantic"`
	FacetMatch    float64 `json:"facetMatch" yaml:"facet_match"`
	ReviewQuality float64 `json:"reviewQuality" yaml:"review_quality"`
	PriceFit      float64 `json:"priceFit" yaml:"price_fit"`
	BrandPriority float64 `json:"brandPriority" yaml:"brand_priority"`
}

// DefaultWeights returns the shop-wide blend used when no category
// override applies.
func DefaultWeights() Weights {
	return Weights{
		Semantic:      0.35,
		FacetMatch:    0.25,
		ReviewQuality: 0.15,
		PriceFit:      0.15,
		BrandPriority: 0.10,
	}
}

// WeightOverride is a partial weight set keyed by category. Nil fields
// leave the base value untouched.
type WeightOverride struct {
	Semantic      *float64 `json:"semantic,omitempty" yaml:"semantic,omitempty"`
	FacetMatch    *float64 `json:"facetMatch,omitempty" yaml:"facet_match,omitempty"`
	ReviewQuality *float64 `json:"reviewQuality,omitempty" yaml:"review_quality,omitempty"`
	PriceFit      *float64 `json:"priceFit,omitempty" yaml:"price_fit,omitempty"`
	BrandPriority *float64 `json:"brandPriority,omitempty" yaml:"brand_priority,omitempty"`
}

// OverrideTable maps a lowercase category name to its partial weight
// override.
type OverrideTable map[string]WeightOverride

// DefaultOverrides carries the built-in category adjustments. Technical
// categories lean harder on facet matching; commodity categories lean on
// price.
func DefaultOverrides() OverrideTable {
	return OverrideTable{
		"valves": {
			FacetMatch: ptr(0.35),
			Semantic:   ptr(0.25),
		},
		"fasteners": {
			PriceFit:   ptr(0.25),
			FacetMatch: ptr(0.30),
			Semantic:   ptr(0.20),
		},
		"pumps": {
			FacetMatch:    ptr(0.30),
			ReviewQuality: ptr(0.20),
		},
	}
}

// merge applies the non-nil fields of o on top of base.
func (o WeightOverride) merge(base Weights) Weights {
	out := base
	if o.Semantic != nil {
		out.Semantic = *o.Semantic
	}
	if o.FacetMatch != nil {
		out.FacetMatch = *o.FacetMatch
	}
	if o.ReviewQuality != nil {
		out.ReviewQuality = *o.ReviewQuality
	}
	if o.PriceFit != nil {
		out.PriceFit = *o.PriceFit
	}
	if o.BrandPriority != nil {
		out.BrandPriority = *o.BrandPriority
	}
	return out
}

// Resolve picks the weights for a product category. The first path
// segment is matched against the table, exact match first, then
// substring containment either way, falling back to base when nothing
// matches.
func (t OverrideTable) Resolve(base Weights, categoryPath []string) Weights {
	if len(t) == 0 || len(categoryPath) == 0 {
		return base
	}
	segment := strings.ToLower(strings.TrimSpace(categoryPath[0]))
	if segment == "" {
		return base
	}
	if o, ok := t[segment]; ok {
		return o.merge(base)
	}
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.Contains(segment, name) || strings.Contains(name, segment) {
			return t[name].merge(base)
		}
	}
	return base
}

func ptr(v float64) *float64 { return &v }
