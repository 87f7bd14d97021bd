// Package ranking scores and reorders candidate products along five
// weighted dimensions.
package ranking

// Product is the explicit product shape the re-ranker scores. Callers
// resolve their catalog rows into this struct once at the boundary; all
// fields besides ID are optional.
type Product struct {
	ID            string            `json:"id"`
	Title         string            `json:"title,omitempty"`
	Vendor        string            `json:"vendor,omitempty"`
	Price         *float64          `json:"price,omitempty"`
	Rating        *float64          `json:"rating,omitempty"`
	ReviewCount   int               `json:"reviewCount,omitempty"`
	CategoryPath  []string          `json:"categoryPath,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	SemanticScore *float64          `json:"semanticScore,omitempty"`
}

// PriceRange expresses a shopper's price preference. Either bound may be
// open.
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// RankContext carries the per-turn ranking inputs.
type RankContext struct {
	Query          string                 `json:"query,omitempty"`
	Constraints    map[string]interface{} `json:"constraints,omitempty"`
	Weights        Weights                `json:"weights,omitempty"`
	PriorityBrands []string               `json:"priorityBrands,omitempty"`
	PriceRange     *PriceRange            `json:"priceRange,omitempty"`
}

// Breakdown records the per-dimension scores behind a composite score.
type Breakdown struct {
	Semantic      float64 `json:"semantic"`
	FacetMatch    float64 `json:"facetMatch"`
	ReviewQuality float64 `json:"reviewQuality"`
	PriceFit      float64 `json:"priceFit"`
	BrandPriority float64 `json:"brandPriority"`
}

// ScoredProduct is a transient scoring result, computed per call and never
// persisted.
type ScoredProduct struct {
	Product   Product   `json:"product"`
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}
