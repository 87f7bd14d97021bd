package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestShopRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewShopRepository(db)

	shop := &Shop{Domain: "acme.example.com", Name: "Acme Plumbing"}
	require.NoError(t, repo.Create(ctx, shop))
	require.NotEqual(t, uuid.Nil, shop.ID)

	got, err := repo.GetByDomain(ctx, "acme.example.com")
	require.NoError(t, err)
	assert.Equal(t, shop.ID, got.ID)
	assert.Equal(t, "Acme Plumbing", got.Name)

	_, err = repo.GetByDomain(ctx, "missing.example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewProductRepository(db)
	shopID := uuid.New()

	price := 249.99
	product := &CatalogProduct{
		ShopID:       shopID,
		ExternalID:   "sku-100",
		Title:        "Brass Ball Valve",
		Price:        &price,
		CategoryPath: []string{"Valves", "Ball Valves"},
		Tags:         []string{"lead-free"},
		Attributes:   json.RawMessage(`{"material":"brass"}`),
	}
	require.NoError(t, repo.Create(ctx, product))

	got, err := repo.GetByID(ctx, shopID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Brass Ball Valve", got.Title)
	assert.Equal(t, []string{"Valves", "Ball Valves"}, got.CategoryPath)
	assert.Equal(t, []string{"lead-free"}, got.Tags)
	require.NotNil(t, got.Price)
	assert.Equal(t, 249.99, *got.Price)

	listed, err := repo.ListByShop(ctx, shopID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// Shop scoping keeps other shops' rows invisible.
	_, err = repo.GetByID(ctx, uuid.New(), product.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSampleRepository_InsertAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewSampleRepository(db)
	shopID := uuid.New()

	category := "Valves"
	samples := []*AttributeSample{
		{ShopID: shopID, Kind: SampleKindFacet, Attribute: "Material", Value: "Brass", Category: &category},
		{ShopID: shopID, Kind: SampleKindSpec, Attribute: "Max Pressure", Value: "600 psi"},
	}
	require.NoError(t, repo.Insert(ctx, samples))

	facets, err := repo.ListByShop(ctx, shopID, SampleKindFacet)
	require.NoError(t, err)
	require.Len(t, facets, 1)
	assert.Equal(t, "Material", facets[0].Attribute)

	specs, err := repo.ListByShop(ctx, shopID, SampleKindSpec)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "600 psi", specs[0].Value)
}

func TestOntologyRepository_LatestByVersion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewOntologyRepository(db)
	shopID := uuid.New()

	for _, version := range []string{"20250101000000", "20250301000000"} {
		require.NoError(t, repo.Save(ctx, &OntologyRecord{
			ShopID:     shopID,
			Version:    version,
			Definition: json.RawMessage(`{"version":"` + version + `"}`),
		}))
	}

	latest, err := repo.GetLatest(ctx, shopID)
	require.NoError(t, err)
	assert.Equal(t, "20250301000000", latest.Version)

	byVersion, err := repo.GetByVersion(ctx, shopID, "20250101000000")
	require.NoError(t, err)
	assert.Equal(t, "20250101000000", byVersion.Version)
}

func TestPackRepository_UpsertAndMarkStale(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewPackRepository(db)
	shopID := uuid.New()
	productID := uuid.New()

	record := &PackRecord{
		ShopID:          shopID,
		ProductID:       productID,
		OntologyVersion: "20250101000000",
		Pack:            json.RawMessage(`{"productId":"p1"}`),
	}
	require.NoError(t, repo.Upsert(ctx, record))

	record.OntologyVersion = "20250301000000"
	record.Pack = json.RawMessage(`{"productId":"p1","v":2}`)
	require.NoError(t, repo.Upsert(ctx, record))

	got, err := repo.GetByProduct(ctx, shopID, productID)
	require.NoError(t, err)
	assert.Equal(t, "20250301000000", got.OntologyVersion)
	assert.Equal(t, PackStatusBuilt, got.Status)

	require.NoError(t, repo.MarkStale(ctx, shopID, "20250401000000"))
	got, err = repo.GetByProduct(ctx, shopID, productID)
	require.NoError(t, err)
	assert.Equal(t, PackStatusStale, got.Status)
}

func TestShardRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewShardRepository(db)
	shopID := uuid.New()

	citation := "install-guide-v2"
	require.NoError(t, repo.Create(ctx, &ShardRecord{
		ShopID:     shopID,
		Topic:      "winterization",
		Tags:       []string{"seasonal"},
		Assertions: []string{"Drain outdoor lines before first frost"},
		Citation:   &citation,
		Embedding:  []float32{0.1, 0.2, 0.3},
	}))

	shards, err := repo.ListByShop(ctx, shopID)
	require.NoError(t, err)
	require.Len(t, shards, 1)
	assert.Equal(t, "winterization", shards[0].Topic)
	assert.Equal(t, []string{"seasonal"}, shards[0].Tags)
	assert.Len(t, shards[0].Embedding, 3)
	require.NotNil(t, shards[0].Citation)
	assert.Equal(t, "install-guide-v2", *shards[0].Citation)
}
