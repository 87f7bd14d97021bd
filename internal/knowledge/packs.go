// Package knowledge assembles per-product knowledge packs from spec evidence
// and product summaries.
package knowledge

import (
	"sort"
	"strings"

	"github.com/ojieame12/concierge-clean-sub002/internal/units"
)

// EvidenceRow is one extracted spec-evidence snippet for a product. Rows come
// from an external extractor and are preserved verbatim in the pack.
type EvidenceRow struct {
	ProductID  string   `json:"productId"`
	SpecKey    string   `json:"specKey"`
	Snippet    string   `json:"snippet"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ProductSummary carries the catalog-side fields the pack builder reads.
type ProductSummary struct {
	ProductID   string   `json:"productId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	KeyFeatures []string `json:"keyFeatures,omitempty"`
	BestFor     []string `json:"bestFor,omitempty"`
}

// WhyReason is one ranked justification snippet.
type WhyReason struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Pack is the per-product knowledge bundle, one per product per ontology
// version. DerivedMetrics are always re-derived from the evidence, never
// stored independently.
type Pack struct {
	ProductID       string             `json:"productId"`
	OntologyVersion string             `json:"ontologyVersion"`
	NormalizedSpecs map[string]string  `json:"normalizedSpecs"`
	DerivedMetrics  map[string]float64 `json:"derivedMetrics"`
	WhyReasons      []WhyReason        `json:"whyReasons"`
	Evidence        []EvidenceRow      `json:"evidence"`
}

const (
	maxWhyReasons      = 3
	maxFallbackReasons = 2

	sourceSpecEvidence = "spec_evidence"
	sourceKeyFeature   = "key_feature"
	sourceBestFor      = "best_for"
)

// PackBuilder joins products with spec evidence and normalizes values using
// previously discovered unit rules.
type PackBuilder struct {
	rules []units.Rule
}

// NewPackBuilder creates a pack builder bound to a rule set.
func NewPackBuilder(rules []units.Rule) *PackBuilder {
	return &PackBuilder{rules: rules}
}

// BuildAll produces one pack per product, grouping evidence rows by product
// id. Products with zero evidence still produce a pack with empty fields.
func (b *PackBuilder) BuildAll(products []ProductSummary, evidence []EvidenceRow, ontologyVersion string) []Pack {
	byProduct := make(map[string][]EvidenceRow)
	for _, row := range evidence {
		byProduct[row.ProductID] = append(byProduct[row.ProductID], row)
	}

	packs := make([]Pack, 0, len(products))
	for _, product := range products {
		packs = append(packs, b.BuildPack(product, byProduct[product.ProductID], ontologyVersion))
	}
	return packs
}

// BuildPack assembles the knowledge pack for a single product.
func (b *PackBuilder) BuildPack(product ProductSummary, rows []EvidenceRow, ontologyVersion string) Pack {
	pack := Pack{
		ProductID:       product.ProductID,
		OntologyVersion: ontologyVersion,
		NormalizedSpecs: make(map[string]string),
		DerivedMetrics:  make(map[string]float64),
		Evidence:        rows,
	}

	for _, row := range rows {
		key := units.CanonicalAttributeID(row.SpecKey)
		if key == "" {
			continue
		}
		pack.NormalizedSpecs[key] = strings.TrimSpace(row.Snippet)
		if value := units.NormalizeValue(b.rules, row.SpecKey, row.Snippet); value != nil {
			pack.DerivedMetrics[key] = *value
		}
	}

	pack.WhyReasons = selectWhyReasons(rows, product)
	return pack
}

// selectWhyReasons takes the highest-confidence snippeted rows, falling back
// to key features and best-for entries when no evidence qualifies.
func selectWhyReasons(rows []EvidenceRow, product ProductSummary) []WhyReason {
	candidates := make([]EvidenceRow, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row.Snippet) != "" {
			candidates = append(candidates, row)
		}
	}

	// Missing confidence counts as zero; identical confidences keep row order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return confidenceOf(candidates[i]) > confidenceOf(candidates[j])
	})

	if len(candidates) > 0 {
		if len(candidates) > maxWhyReasons {
			candidates = candidates[:maxWhyReasons]
		}
		reasons := make([]WhyReason, len(candidates))
		for i, row := range candidates {
			reasons[i] = WhyReason{Text: strings.TrimSpace(row.Snippet), Source: sourceSpecEvidence}
		}
		return reasons
	}

	// Fallback walks keyFeatures then bestFor; source tags are positional.
	fallbackSources := [maxFallbackReasons]string{sourceKeyFeature, sourceBestFor}
	var reasons []WhyReason
	for _, text := range append(append([]string{}, product.KeyFeatures...), product.BestFor...) {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if len(reasons) == maxFallbackReasons {
			break
		}
		reasons = append(reasons, WhyReason{Text: text, Source: fallbackSources[len(reasons)]})
	}
	return reasons
}

func confidenceOf(row EvidenceRow) float64 {
	if row.Confidence == nil {
		return 0
	}
	return *row.Confidence
}
