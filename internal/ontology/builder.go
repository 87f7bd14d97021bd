// Package ontology aggregates raw facet and spec samples into typed
// attribute definitions and a shop-wide facet display order.
package ontology

import (
	"sort"
	"strings"
	"time"

	"github.com/ojieame12/concierge-clean-sub002/internal/units"
)

// AttributeType classifies an attribute's value domain.
type AttributeType string

const (
	TypeString AttributeType = "string"
	TypeNumber AttributeType = "number"
	TypeEnum   AttributeType = "enum"
)

// Attribute is one typed attribute definition. Rebuilt per generation,
// never mutated in place.
type Attribute struct {
	ID            string        `json:"id"`
	Label         string        `json:"label"`
	Type          AttributeType `json:"type"`
	AllowedValues []string      `json:"allowedValues,omitempty"`
	Synonyms      []string      `json:"synonyms,omitempty"`
}

// Definition is the aggregate ontology for one shop.
type Definition struct {
	Version              string              `json:"version"`
	GeneratedAt          string              `json:"generatedAt"`
	Attributes           []Attribute         `json:"attributes"`
	FacetOrderByCategory map[string][]string `json:"facetOrderByCategory"`
}

// Observation is one raw facet or spec sample feeding the builder.
type Observation struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
	Category  string `json:"category,omitempty"`
}

const (
	defaultMaxSamples    = 40
	defaultTopFacets     = 8
	maxAllowedValues     = 12
	maxSynonyms          = 8
	numericShareForTyped = 0.6
)

// Builder constructs ontology definitions from sample pools.
type Builder struct {
	maxSamples int
	topFacets  int
	now        func() time.Time
}

// NewBuilder creates a builder with default limits.
func NewBuilder() *Builder {
	return &Builder{
		maxSamples: defaultMaxSamples,
		topFacets:  defaultTopFacets,
		now:        time.Now,
	}
}

// NewBuilderWithLimits creates a builder with configured sample and facet
// limits. Non-positive limits keep the defaults.
func NewBuilderWithLimits(maxSamples, topFacets int) *Builder {
	b := NewBuilder()
	if maxSamples > 0 {
		b.maxSamples = maxSamples
	}
	if topFacets > 0 {
		b.topFacets = topFacets
	}
	return b
}

type attributePool struct {
	id      string
	label   string
	samples []string
	order   int
}

// Build merges facet and spec observations into a typed attribute set plus a
// facet display order. The facet ranking is computed once for the whole shop
// and copied onto every category currently known.
func (b *Builder) Build(facets []Observation, specs []Observation) *Definition {
	pools := make(map[string]*attributePool)
	facetFrequency := make(map[string]int)
	facetLabels := make(map[string]string)
	var facetFirstSeen []string
	categories := make(map[string]bool)

	absorb := func(obs Observation) *attributePool {
		id := units.CanonicalAttributeID(obs.Attribute)
		if id == "" {
			return nil
		}
		pool, ok := pools[id]
		if !ok {
			pool = &attributePool{id: id, label: strings.TrimSpace(obs.Attribute), order: len(pools)}
			pools[id] = pool
		}
		if len(pool.samples) < b.maxSamples && strings.TrimSpace(obs.Value) != "" {
			pool.samples = append(pool.samples, strings.TrimSpace(obs.Value))
		}
		return pool
	}

	for _, obs := range facets {
		pool := absorb(obs)
		if pool == nil {
			continue
		}
		if _, seen := facetFrequency[pool.id]; !seen {
			facetFirstSeen = append(facetFirstSeen, pool.id)
			facetLabels[pool.id] = pool.label
		}
		facetFrequency[pool.id]++
		if cat := strings.TrimSpace(obs.Category); cat != "" {
			categories[cat] = true
		}
	}

	for _, obs := range specs {
		absorb(obs)
	}

	attributes := make([]Attribute, 0, len(pools))
	for _, pool := range pools {
		attributes = append(attributes, classify(pool))
	}
	sort.Slice(attributes, func(i, j int) bool { return attributes[i].ID < attributes[j].ID })

	facetOrder := b.rankFacets(facetFrequency, facetLabels, facetFirstSeen)
	orderByCategory := make(map[string][]string, len(categories))
	for cat := range categories {
		ordered := make([]string, len(facetOrder))
		copy(ordered, facetOrder)
		orderByCategory[cat] = ordered
	}

	generated := b.now().UTC()
	return &Definition{
		Version:              generated.Format("20060102150405"),
		GeneratedAt:          generated.Format(time.RFC3339),
		Attributes:           attributes,
		FacetOrderByCategory: orderByCategory,
	}
}

// rankFacets orders facet names by total observation frequency across the
// shop and keeps the top entries. Ties keep first-seen order.
func (b *Builder) rankFacets(freq map[string]int, labels map[string]string, firstSeen []string) []string {
	ranked := make([]string, len(firstSeen))
	copy(ranked, firstSeen)
	sort.SliceStable(ranked, func(i, j int) bool {
		return freq[ranked[i]] > freq[ranked[j]]
	})
	if len(ranked) > b.topFacets {
		ranked = ranked[:b.topFacets]
	}
	names := make([]string, len(ranked))
	for i, id := range ranked {
		names[i] = labels[id]
	}
	return names
}

// classify infers the attribute type from its sample distribution.
func classify(pool *attributePool) Attribute {
	attr := Attribute{ID: pool.id, Label: pool.label, Type: TypeString}

	var nonEmpty, numeric int
	distinct := make(map[string]bool)
	var allowed []string
	for _, sample := range pool.samples {
		nonEmpty++
		if units.IsBareNumber(sample) {
			numeric++
		}
		lowered := strings.ToLower(sample)
		if !distinct[lowered] {
			distinct[lowered] = true
			allowed = append(allowed, sample)
		}
	}

	if nonEmpty == 0 {
		return attr
	}

	if float64(numeric)/float64(nonEmpty) > numericShareForTyped {
		attr.Type = TypeNumber
		return attr
	}

	enumLimit := nonEmpty / 2
	if enumLimit > maxAllowedValues {
		enumLimit = maxAllowedValues
	}
	if enumLimit < 3 {
		enumLimit = 3
	}

	if len(distinct) <= enumLimit {
		attr.Type = TypeEnum
		if len(allowed) > maxAllowedValues {
			allowed = allowed[:maxAllowedValues]
		}
		attr.AllowedValues = allowed
		for _, value := range allowed {
			if len(attr.Synonyms) >= maxSynonyms {
				break
			}
			attr.Synonyms = append(attr.Synonyms, strings.ToLower(value))
		}
	}

	return attr
}
