// Package integration provides integration tests for the concierge
// knowledge core, running the full pipeline against a real SQLite store.
package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojieame12/concierge-clean-sub002/internal/cache"
	"github.com/ojieame12/concierge-clean-sub002/internal/calc"
	"github.com/ojieame12/concierge-clean-sub002/internal/canon"
	"github.com/ojieame12/concierge-clean-sub002/internal/embedding"
	"github.com/ojieame12/concierge-clean-sub002/internal/knowledge"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
	"github.com/ojieame12/concierge-clean-sub002/internal/ontology"
	"github.com/ojieame12/concierge-clean-sub002/internal/ranking"
	"github.com/ojieame12/concierge-clean-sub002/internal/storage"
	"github.com/ojieame12/concierge-clean-sub002/internal/units"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, storage.Migrate(context.Background(), db))
	return db
}

func TestPipeline_SamplesToOntologyToPacks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db := openTestDB(t)

	shops := storage.NewShopRepository(db)
	samples := storage.NewSampleRepository(db)
	evidence := storage.NewEvidenceRepository(db)
	ontologies := storage.NewOntologyRepository(db)
	packs := storage.NewPackRepository(db)

	shop := &storage.Shop{
		ID:     uuid.New(),
		Domain: "valves.example.com",
		Name:   "Valve World",
	}
	require.NoError(t, shops.Create(ctx, shop))

	// Seed facet and spec samples the way a catalog sync would.
	category := "Valves > Ball Valves"
	var rows []*storage.AttributeSample
	for i := 0; i < 5; i++ {
		rows = append(rows,
			&storage.AttributeSample{
				ID:        uuid.New(),
				ShopID:    shop.ID,
				Kind:      storage.SampleKindFacet,
				Attribute: "Material",
				Value:     "Brass",
				Category:  &category,
			},
			&storage.AttributeSample{
				ID:        uuid.New(),
				ShopID:    shop.ID,
				Kind:      storage.SampleKindSpec,
				Attribute: "Max Pressure",
				Value:     "600 psi",
			},
		)
	}
	rows = append(rows, &storage.AttributeSample{
		ID:        uuid.New(),
		ShopID:    shop.ID,
		Kind:      storage.SampleKindSpec,
		Attribute: "Max Pressure",
		Value:     "40 bar",
	})
	require.NoError(t, samples.Insert(ctx, rows))

	productID := uuid.New()
	conf := 0.9
	require.NoError(t, evidence.Insert(ctx, []*storage.SpecEvidence{
		{
			ID:         uuid.New(),
			ShopID:     shop.ID,
			ProductID:  productID,
			SpecKey:    "Max Pressure",
			Snippet:    "Rated to 40 bar continuous service",
			Confidence: &conf,
		},
	}))

	// Build the ontology from the stored samples.
	facetRows, err := samples.ListByShop(ctx, shop.ID, storage.SampleKindFacet)
	require.NoError(t, err)
	specRows, err := samples.ListByShop(ctx, shop.ID, storage.SampleKindSpec)
	require.NoError(t, err)

	toObservations := func(in []*storage.AttributeSample) []ontology.Observation {
		out := make([]ontology.Observation, 0, len(in))
		for _, s := range in {
			obs := ontology.Observation{Attribute: s.Attribute, Value: s.Value}
			if s.Category != nil {
				obs.Category = *s.Category
			}
			out = append(out, obs)
		}
		return out
	}

	definition := ontology.NewBuilder().Build(toObservations(facetRows), toObservations(specRows))
	require.NotEmpty(t, definition.Version)
	require.NotEmpty(t, definition.Attributes)

	payload, err := json.Marshal(definition)
	require.NoError(t, err)
	require.NoError(t, ontologies.Save(ctx, &storage.OntologyRecord{
		ShopID:     shop.ID,
		Version:    definition.Version,
		Definition: payload,
	}))

	latest, err := ontologies.GetLatest(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, definition.Version, latest.Version)

	// Discover unit rules from the spec samples and build the pack.
	var unitSamples []units.Sample
	for _, s := range specRows {
		unitSamples = append(unitSamples, units.Sample{AttributeID: s.Attribute, RawValue: s.Value})
	}
	rules := units.DiscoverRules(unitSamples)
	require.NotEmpty(t, rules)

	evidenceRows, err := evidence.ListByShop(ctx, shop.ID)
	require.NoError(t, err)

	var packEvidence []knowledge.EvidenceRow
	for _, row := range evidenceRows {
		packEvidence = append(packEvidence, knowledge.EvidenceRow{
			ProductID:  row.ProductID.String(),
			SpecKey:    row.SpecKey,
			Snippet:    row.Snippet,
			Confidence: row.Confidence,
		})
	}

	builder := knowledge.NewPackBuilder(rules)
	built := builder.BuildAll([]knowledge.ProductSummary{
		{ProductID: productID.String(), Title: "Brass Ball Valve"},
	}, packEvidence, definition.Version)
	require.Len(t, built, 1)

	pack := built[0]
	assert.Equal(t, definition.Version, pack.OntologyVersion)
	// 40 bar converts into the canonical psi metric.
	assert.InDelta(t, 580.152, pack.DerivedMetrics["max_pressure"], 0.001)
	require.Len(t, pack.WhyReasons, 1)
	assert.Equal(t, "spec_evidence", pack.WhyReasons[0].Source)

	packPayload, err := json.Marshal(pack)
	require.NoError(t, err)
	require.NoError(t, packs.Upsert(ctx, &storage.PackRecord{
		ShopID:          shop.ID,
		ProductID:       productID,
		OntologyVersion: definition.Version,
		Pack:            packPayload,
	}))

	stored, err := packs.GetByProduct(ctx, shop.ID, productID)
	require.NoError(t, err)
	assert.Equal(t, storage.PackStatusBuilt, stored.Status)

	// A newer ontology version marks existing packs stale.
	require.NoError(t, packs.MarkStale(ctx, shop.ID, definition.Version+"1"))
	stored, err = packs.GetByProduct(ctx, shop.ID, productID)
	require.NoError(t, err)
	assert.Equal(t, storage.PackStatusStale, stored.Status)
}

func TestPipeline_CachedOntologyRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client := cache.NewMemoryClient(16)
	t.Cleanup(func() { _ = client.Close() })

	shopID := uuid.New().String()
	definition := ontology.NewBuilder().Build([]ontology.Observation{
		{Attribute: "Color", Value: "Red"},
		{Attribute: "Color", Value: "Blue"},
	}, nil)

	payload, err := json.Marshal(definition)
	require.NoError(t, err)

	key := cache.OntologyKey(shopID, definition.Version)
	require.NoError(t, client.Set(ctx, key, payload, time.Minute))

	cached, err := client.Get(ctx, key)
	require.NoError(t, err)

	var decoded ontology.Definition
	require.NoError(t, json.Unmarshal(cached, &decoded))
	assert.Equal(t, definition.Version, decoded.Version)

	require.NoError(t, client.DeleteByPrefix(ctx, cache.ShopKey(shopID, "ontology")))
	_, err = client.Get(ctx, key)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestPipeline_ShardsCalculatorsAndReranking(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db := openTestDB(t)
	logger := observability.Nop()

	shops := storage.NewShopRepository(db)
	shards := storage.NewShardRepository(db)

	shop := &storage.Shop{ID: uuid.New(), Domain: "pumps.example.com", Name: "Pump Depot"}
	require.NoError(t, shops.Create(ctx, shop))

	embedder := embedding.NewMockClient(64)
	topics := []string{
		"Sizing a centrifugal pump for irrigation",
		"Valve seat materials and chemical compatibility",
	}
	vectors, err := embedder.Embed(ctx, topics)
	require.NoError(t, err)

	for i, topic := range topics {
		require.NoError(t, shards.Create(ctx, &storage.ShardRecord{
			ShopID:     shop.ID,
			Topic:      topic,
			Assertions: []string{"assertion for " + topic},
			Embedding:  vectors[i],
		}))
	}

	storedShards, err := shards.ListByShop(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, storedShards, 2)

	candidates := make([]canon.Shard, 0, len(storedShards))
	for _, s := range storedShards {
		candidates = append(candidates, canon.Shard{
			Topic:      s.Topic,
			Assertions: s.Assertions,
			Embedding:  s.Embedding,
		})
	}

	query, err := embedder.EmbedSingle(ctx, "pump sizing for irrigation")
	require.NoError(t, err)

	ranked := canon.NewRanker().Rank(candidates, query, 0)
	require.NotEmpty(t, ranked)
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}

	// Calculators fire off the same conversational message.
	executor := calc.NewExecutor(calc.NewRegistry(), logger)
	results := executor.Run(ctx, "Need Cv for 12 gpm at 8 psi drop")
	require.Len(t, results, 1)
	assert.Equal(t, "cv_from_flow", results[0].ID)

	// And the re-ranker orders candidate products for the reply.
	price1, price2 := 120.0, 450.0
	budget := 200.0
	scored := ranking.NewReranker(logger).Rank([]ranking.Product{
		{ID: "p1", Title: "Compact Pump", Vendor: "FlowCo", Price: &price1},
		{ID: "p2", Title: "Industrial Pump", Vendor: "MegaFlow", Price: &price2},
	}, ranking.RankContext{
		Query:      "pump under 200",
		PriceRange: &ranking.PriceRange{Max: &budget},
	})
	require.Len(t, scored, 2)
	assert.Equal(t, "p1", scored[0].Product.ID)
}
