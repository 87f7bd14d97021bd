package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full pipeline: discover rules, build an ontology, build packs, rank
// shards, run a calculator, and re-rank products through one Engine.
func TestEngine_EndToEnd(t *testing.T) {
	e := New(Config{})
	ctx := context.Background()

	rules := e.DiscoverUnitRules([]UnitSample{
		{AttributeID: "max pressure", RawValue: "600 psi"},
		{AttributeID: "max pressure", RawValue: "40 bar"},
	})
	require.NotEmpty(t, rules)

	normalized := e.NormalizeValue(rules, "Max Pressure", "2 bar")
	require.NotNil(t, normalized)
	assert.InDelta(t, 29.0076, *normalized, 1e-4)

	def := e.BuildOntology(
		[]Observation{
			{Attribute: "Material", Value: "Brass", Category: "Valves"},
			{Attribute: "Material", Value: "Steel", Category: "Valves"},
		},
		[]Observation{
			{Attribute: "Max Pressure", Value: "600 psi"},
		},
	)
	require.NotNil(t, def)
	assert.NotEmpty(t, def.Version)

	packs := e.BuildPacks(rules,
		[]ProductSummary{{ProductID: "p1", Title: "Ball Valve", KeyFeatures: []string{"Lead-free"}}},
		[]EvidenceRow{{ProductID: "p1", SpecKey: "Max Pressure", Snippet: "rated to 600 psi"}},
		def.Version,
	)
	require.Len(t, packs, 1)
	assert.Equal(t, def.Version, packs[0].OntologyVersion)

	ranked := e.RankShards([]CanonShard{
		{Topic: "a", Assertions: []string{"x"}, Embedding: []float32{1, 0}},
		{Topic: "b", Assertions: []string{"y"}, Embedding: []float32{0, 1}},
	}, []float32{0, 1}, 0)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "b", ranked[0].Shard.Topic)

	results := e.RunCalculators(ctx, "Need Cv for 12 gpm at 8 psi")
	require.Len(t, results, 1)
	assert.Equal(t, "cv_from_flow", results[0].ID)

	price := 450.0
	max := 500.0
	scored := e.RankProducts(
		[]Product{{ID: "p1", Price: &price}},
		RankContext{PriceRange: &PriceRange{Max: &max}},
	)
	require.Len(t, scored, 1)
	assert.Greater(t, scored[0].Breakdown.PriceFit, 0.7)
}
