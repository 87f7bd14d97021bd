package ranking

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
)

const (
	neutralScore = 0.5

	// 5 stars times ln(1000) reviews, the practical ceiling for the
	// review quality numerator.
	reviewQualityNormalizer = 35.0

	// Min-only preferences reach 1.0 over the 25% of the bound above it.
	minOnlyRampShare = 0.25

	priceBandFloor = 0.7
	priceBandSpan  = 0.3
)

// Reranker reorders candidate products by a weighted blend of five
// dimension scores. It is stateless apart from its override table and is
// safe for concurrent use.
type Reranker struct {
	overrides OverrideTable
	logger    *observability.Logger
}

// NewReranker builds a re-ranker with the built-in category overrides.
func NewReranker(logger *observability.Logger) *Reranker {
	return NewRerankerWithOverrides(DefaultOverrides(), logger)
}

// NewRerankerWithOverrides builds a re-ranker with a caller-supplied
// override table.
func NewRerankerWithOverrides(overrides OverrideTable, logger *observability.Logger) *Reranker {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Reranker{overrides: overrides, logger: logger}
}

// Rank scores every product against rctx and returns them in descending
// composite-score order. Ties keep their input order. Weights come from
// rctx shallow-overridden by the category table; zero-valued rctx weights
// fall back to the defaults first.
func (r *Reranker) Rank(products []Product, rctx RankContext) []ScoredProduct {
	base := rctx.Weights
	if base == (Weights{}) {
		base = DefaultWeights()
	}
	scored := make([]ScoredProduct, len(products))
	for i, p := range products {
		w := r.overrides.Resolve(base, p.CategoryPath)
		scored[i] = scoreProduct(p, rctx, w)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	r.logger.Debug().
		Int("candidates", len(products)).
		Str("query", rctx.Query).
		Msg("re-ranked products")
	return scored
}

// RankWithWeights scores with exactly the supplied weights for every
// product, bypassing the category override table.
func (r *Reranker) RankWithWeights(products []Product, rctx RankContext, weights Weights) []ScoredProduct {
	scored := make([]ScoredProduct, len(products))
	for i, p := range products {
		scored[i] = scoreProduct(p, rctx, weights)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

func scoreProduct(p Product, rctx RankContext, w Weights) ScoredProduct {
	b := Breakdown{
		Semantic:      semanticScore(p),
		FacetMatch:    facetMatchScore(p, rctx.Constraints),
		ReviewQuality: reviewQualityScore(p),
		PriceFit:      priceFitScore(p.Price, rctx.PriceRange),
		BrandPriority: brandPriorityScore(p.Vendor, rctx.PriorityBrands),
	}
	score := w.Semantic*b.Semantic +
		w.FacetMatch*b.FacetMatch +
		w.ReviewQuality*b.ReviewQuality +
		w.PriceFit*b.PriceFit +
		w.BrandPriority*b.BrandPriority
	return ScoredProduct{Product: p, Score: score, Breakdown: b}
}

func semanticScore(p Product) float64 {
	if p.SemanticScore == nil {
		return 0
	}
	return clamp01(*p.SemanticScore)
}

// facetMatchScore is the fraction of constraints the product satisfies.
// Price constraints check range containment, tag constraints check array
// membership, category constraints check path containment, and everything
// else is compared against the attribute map. A constraint whose value
// has an unsupported type simply does not match.
func facetMatchScore(p Product, constraints map[string]interface{}) float64 {
	if len(constraints) == 0 {
		return neutralScore
	}
	matched := 0
	for key, value := range constraints {
		if constraintMatches(p, key, value) {
			matched++
		}
	}
	return float64(matched) / float64(len(constraints))
}

func constraintMatches(p Product, key string, value interface{}) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	switch key {
	case "price":
		if p.Price == nil {
			return false
		}
		return priceConstraintMatches(*p.Price, value)
	case "tag", "tags":
		want, ok := asString(value)
		if !ok {
			return false
		}
		for _, tag := range p.Tags {
			if strings.EqualFold(strings.TrimSpace(tag), want) {
				return true
			}
		}
		return false
	case "category", "category_path":
		want, ok := asString(value)
		if !ok {
			return false
		}
		want = strings.ToLower(want)
		for _, segment := range p.CategoryPath {
			if strings.Contains(strings.ToLower(segment), want) {
				return true
			}
		}
		return false
	case "vendor", "brand":
		want, ok := asString(value)
		return ok && strings.EqualFold(strings.TrimSpace(p.Vendor), want)
	}

	// Nested attribute addressing ("attributes.material") and bare keys
	// both resolve into the attribute map.
	attrKey := strings.TrimPrefix(key, "attributes.")
	got, ok := p.Attributes[attrKey]
	if !ok {
		return false
	}
	want, ok := asString(value)
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(got), want)
}

// priceConstraintMatches accepts either a bare number (exact within a
// cent) or a {min,max} map for range containment.
func priceConstraintMatches(price float64, value interface{}) bool {
	if want, ok := asFloat(value); ok {
		return math.Abs(price-want) < 0.01
	}
	bounds, ok := value.(map[string]interface{})
	if !ok {
		return false
	}
	if min, ok := asFloat(bounds["min"]); ok && price < min {
		return false
	}
	if max, ok := asFloat(bounds["max"]); ok && price > max {
		return false
	}
	_, hasMin := asFloat(bounds["min"])
	_, hasMax := asFloat(bounds["max"])
	return hasMin || hasMax
}

func reviewQualityScore(p Product) float64 {
	rating := 0.0
	if p.Rating != nil {
		rating = *p.Rating
	}
	if rating == 0 && p.ReviewCount == 0 {
		return neutralScore
	}
	score := rating * math.Log(float64(p.ReviewCount)+1) / reviewQualityNormalizer
	return clamp01(score)
}

// priceFitScore maps a price onto [0,1] against the shopper's stated
// range. The pieces are chosen so prices inside the preferred band always
// beat prices outside it, and the score decays toward 0 as the price
// drifts further out.
func priceFitScore(price *float64, pr *PriceRange) float64 {
	if price == nil || pr == nil || (pr.Min == nil && pr.Max == nil) {
		return neutralScore
	}
	p := *price

	switch {
	case pr.Min != nil && pr.Max != nil:
		min, max := *pr.Min, *pr.Max
		if min == max {
			if p == min {
				return 1.0
			}
			mid := min
			if mid <= 0 {
				return 0
			}
			return clamp01(neutralScore - math.Abs(p-mid)/mid)
		}
		mid := (min + max) / 2
		if p < min {
			return clamp01(neutralScore - (min-p)/mid)
		}
		if p > max {
			return clamp01(neutralScore - (p-max)/mid)
		}
		halfRange := mid - min
		return 1.0 - neutralScore*math.Abs(p-mid)/halfRange

	case pr.Max != nil:
		max := *pr.Max
		if max <= 0 {
			return 0
		}
		if p <= max {
			return priceBandFloor + priceBandSpan*(p/max)
		}
		return clamp01(priceBandFloor * (1 - (p-max)/max))

	default:
		min := *pr.Min
		if min <= 0 {
			return neutralScore
		}
		if p < min {
			return clamp01(priceBandFloor * (p / min))
		}
		ramp := (p - min) / (minOnlyRampShare * min)
		if ramp > 1 {
			ramp = 1
		}
		return priceBandFloor + priceBandSpan*ramp
	}
}

func brandPriorityScore(vendor string, priorityBrands []string) float64 {
	if len(priorityBrands) == 0 {
		return neutralScore
	}
	vendor = strings.ToLower(strings.TrimSpace(vendor))
	if vendor == "" {
		return 0
	}
	for _, brand := range priorityBrands {
		brand = strings.ToLower(strings.TrimSpace(brand))
		if brand == "" {
			continue
		}
		if strings.Contains(vendor, brand) || strings.Contains(brand, vendor) {
			return 1.0
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
