// Package engine provides the public in-process facade over the
// concierge core. A conversation orchestrator embeds one Engine and
// calls it directly; every method is a pure computation over its inputs
// and safe for concurrent use.
package engine

import (
	"context"

	"github.com/ojieame12/concierge-clean-sub002/internal/calc"
	"github.com/ojieame12/concierge-clean-sub002/internal/canon"
	"github.com/ojieame12/concierge-clean-sub002/internal/knowledge"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
	"github.com/ojieame12/concierge-clean-sub002/internal/ontology"
	"github.com/ojieame12/concierge-clean-sub002/internal/ranking"
	"github.com/ojieame12/concierge-clean-sub002/internal/units"
)

// Re-exported core types so embedders only import this package.
type (
	UnitSample       = units.Sample
	UnitRule         = units.Rule
	Observation      = ontology.Observation
	OntologyDef      = ontology.Definition
	ProductSummary   = knowledge.ProductSummary
	EvidenceRow      = knowledge.EvidenceRow
	KnowledgePack    = knowledge.Pack
	CanonShard       = canon.Shard
	RankedShard      = canon.RankedShard
	CalculatorResult = calc.Result
	Product          = ranking.Product
	PriceRange       = ranking.PriceRange
	RankContext      = ranking.RankContext
	ScoredProduct    = ranking.ScoredProduct
	RankingWeights   = ranking.Weights
)

// Engine bundles the concierge core components behind one handle.
type Engine struct {
	builder  *ontology.Builder
	ranker   *canon.Ranker
	registry *calc.Registry
	executor *calc.Executor
	reranker *ranking.Reranker
}

// Config holds engine construction options. The zero value is usable.
type Config struct {
	Logger *observability.Logger
}

// New creates an engine with all core components initialized.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.Nop()
	}

	registry := calc.NewRegistry()
	return &Engine{
		builder:  ontology.NewBuilder(),
		ranker:   canon.NewRanker(),
		registry: registry,
		executor: calc.NewExecutor(registry, logger),
		reranker: ranking.NewReranker(logger),
	}
}

// DiscoverUnitRules derives normalization rules from raw attribute
// samples. Rules must be discovered before NormalizeValue or BuildPacks
// can normalize anything.
func (e *Engine) DiscoverUnitRules(samples []UnitSample) []UnitRule {
	return units.DiscoverRules(samples)
}

// NormalizeValue applies discovered rules to one raw value. A nil result
// means no rule matched.
func (e *Engine) NormalizeValue(rules []UnitRule, attributeID, rawValue string) *float64 {
	return units.NormalizeValue(rules, attributeID, rawValue)
}

// BuildOntology derives a typed attribute ontology from facet and spec
// observations.
func (e *Engine) BuildOntology(facets, specs []Observation) *OntologyDef {
	return e.builder.Build(facets, specs)
}

// BuildPacks builds one knowledge pack per product from summaries and
// spec evidence, normalizing snippets with the supplied unit rules.
func (e *Engine) BuildPacks(rules []UnitRule, products []ProductSummary, evidence []EvidenceRow, ontologyVersion string) []KnowledgePack {
	return knowledge.NewPackBuilder(rules).BuildAll(products, evidence, ontologyVersion)
}

// RankShards orders canon shards by cosine similarity to the query
// embedding.
func (e *Engine) RankShards(shards []CanonShard, queryEmbedding []float32, maxResults int) []RankedShard {
	return e.ranker.Rank(shards, queryEmbedding, maxResults)
}

// RunCalculators detects calculator inputs in a user message and runs
// every calculator that fires.
func (e *Engine) RunCalculators(ctx context.Context, message string) []CalculatorResult {
	return e.executor.Run(ctx, message)
}

// RankProducts reorders candidate products by the weighted five-dimension
// blend.
func (e *Engine) RankProducts(products []Product, rctx RankContext) []ScoredProduct {
	return e.reranker.Rank(products, rctx)
}
