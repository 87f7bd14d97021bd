package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
	"github.com/ojieame12/concierge-clean-sub002/internal/ranking"
)

// RankHandler handles product re-ranking requests.
type RankHandler struct {
	logger   *observability.Logger
	reranker *ranking.Reranker
	base     ranking.Weights
}

// NewRankHandler creates a new ranking handler. base supplies the weight
// blend for requests that carry no explicit weights; the category override
// table still applies on top of it.
func NewRankHandler(logger *observability.Logger, reranker *ranking.Reranker, base ranking.Weights) *RankHandler {
	return &RankHandler{logger: logger, reranker: reranker, base: base}
}

// RankProductsRequestDTO represents the re-ranking request.
type RankProductsRequestDTO struct {
	Products       []ranking.Product      `json:"products"`
	Query          string                 `json:"query,omitempty"`
	Constraints    map[string]interface{} `json:"constraints,omitempty"`
	Weights        *ranking.Weights       `json:"weights,omitempty"`
	PriorityBrands []string               `json:"priorityBrands,omitempty"`
	PriceRange     *ranking.PriceRange    `json:"priceRange,omitempty"`
}

// RankProductsResponseDTO represents the re-ranking response.
type RankProductsResponseDTO struct {
	Results []ranking.ScoredProduct `json:"results"`
}

// Rank handles POST /rank.
func (h *RankHandler) Rank(w http.ResponseWriter, r *http.Request) {
	var req RankProductsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	rctx := ranking.RankContext{
		Query:          req.Query,
		Constraints:    req.Constraints,
		Weights:        h.base,
		PriorityBrands: req.PriorityBrands,
		PriceRange:     req.PriceRange,
	}

	var results []ranking.ScoredProduct
	if req.Weights != nil {
		// Explicit weights bypass the category override table.
		results = h.reranker.RankWithWeights(req.Products, rctx, *req.Weights)
	} else {
		results = h.reranker.Rank(req.Products, rctx)
	}

	h.logger.Debug().
		Str("query", req.Query).
		Int("candidates", len(req.Products)).
		Msg("products re-ranked")

	writeJSON(w, http.StatusOK, RankProductsResponseDTO{Results: results})
}
