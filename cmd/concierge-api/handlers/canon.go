package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ojieame12/concierge-clean-sub002/internal/canon"
	"github.com/ojieame12/concierge-clean-sub002/internal/embedding"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
)

// CanonHandler handles canon shard ranking requests.
type CanonHandler struct {
	logger     *observability.Logger
	ranker     *canon.Ranker
	embedder   embedding.Embedder
	maxResults int
}

// NewCanonHandler creates a new canon handler. maxResults caps responses
// when the request does not ask for a specific count.
func NewCanonHandler(logger *observability.Logger, ranker *canon.Ranker, embedder embedding.Embedder, maxResults int) *CanonHandler {
	return &CanonHandler{
		logger:     logger,
		ranker:     ranker,
		embedder:   embedder,
		maxResults: maxResults,
	}
}

// RankShardsRequestDTO represents the ranking request. Callers supply a
// precomputed query embedding or a query string to embed server-side.
type RankShardsRequestDTO struct {
	Shards         []canon.Shard `json:"shards"`
	Query          string        `json:"query,omitempty"`
	QueryEmbedding []float32     `json:"queryEmbedding,omitempty"`
	MaxResults     int           `json:"maxResults,omitempty"`
}

// RankShardsResponseDTO represents the ranking response.
type RankShardsResponseDTO struct {
	Results []canon.RankedShard `json:"results"`
}

// Rank handles POST /canon/rank.
func (h *CanonHandler) Rank(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RankShardsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	queryEmbedding := req.QueryEmbedding
	if len(queryEmbedding) == 0 && req.Query != "" {
		if h.embedder == nil {
			writeError(w, http.StatusBadRequest, "queryEmbedding is required", "no embedding service configured")
			return
		}
		vec, err := h.embedder.EmbedSingle(ctx, req.Query)
		if err != nil {
			h.logger.Error().Err(err).Msg("embed query failed")
			writeError(w, http.StatusBadGateway, "embed query", err.Error())
			return
		}
		queryEmbedding = vec
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = h.maxResults
	}
	results := h.ranker.Rank(req.Shards, queryEmbedding, maxResults)

	h.logger.Debug().
		Int("candidates", len(req.Shards)).
		Int("results", len(results)).
		Msg("canon shards ranked")

	writeJSON(w, http.StatusOK, RankShardsResponseDTO{Results: results})
}
