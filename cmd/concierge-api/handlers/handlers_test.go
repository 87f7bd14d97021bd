package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ojieame12/concierge-clean-sub002/internal/canon"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
	"github.com/ojieame12/concierge-clean-sub002/internal/ranking"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCanonHandler_ConfiguredMaxResults(t *testing.T) {
	h := NewCanonHandler(observability.Nop(), canon.NewRanker(), nil, 1)

	rec := postJSON(t, h.Rank, RankShardsRequestDTO{
		Shards: []canon.Shard{
			{Topic: "pumps", Assertions: []string{"a"}, Embedding: []float32{1, 0}},
			{Topic: "valves", Assertions: []string{"b"}, Embedding: []float32{0, 1}},
		},
		QueryEmbedding: []float32{1, 0},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RankShardsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "pumps", resp.Results[0].Shard.Topic)
}

func TestCanonHandler_RequestMaxResultsWins(t *testing.T) {
	h := NewCanonHandler(observability.Nop(), canon.NewRanker(), nil, 1)

	rec := postJSON(t, h.Rank, RankShardsRequestDTO{
		Shards: []canon.Shard{
			{Topic: "pumps", Assertions: []string{"a"}, Embedding: []float32{1, 0}},
			{Topic: "valves", Assertions: []string{"b"}, Embedding: []float32{0, 1}},
		},
		QueryEmbedding: []float32{1, 0},
		MaxResults:     2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RankShardsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 2)
}

func TestRankHandler_ConfiguredBaseWeights(t *testing.T) {
	// A price-only blend must outrank semantic relevance.
	base := ranking.Weights{PriceFit: 1}
	h := NewRankHandler(observability.Nop(), ranking.NewReranker(observability.Nop()), base)

	cheap, expensive, budget, relevance := 100.0, 900.0, 200.0, 1.0
	rec := postJSON(t, h.Rank, RankProductsRequestDTO{
		Products: []ranking.Product{
			{ID: "relevant", Price: &expensive, SemanticScore: &relevance},
			{ID: "affordable", Price: &cheap},
		},
		PriceRange: &ranking.PriceRange{Max: &budget},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RankProductsResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "affordable", resp.Results[0].Product.ID)

	// With the default blend instead, semantic relevance wins.
	h = NewRankHandler(observability.Nop(), ranking.NewReranker(observability.Nop()), ranking.DefaultWeights())
	rec = postJSON(t, h.Rank, RankProductsRequestDTO{
		Products: []ranking.Product{
			{ID: "relevant", Price: &expensive, SemanticScore: &relevance},
			{ID: "affordable", Price: &cheap},
		},
		PriceRange: &ranking.PriceRange{Max: &budget},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "relevant", resp.Results[0].Product.ID)
}
