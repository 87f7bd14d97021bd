package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ojieame12/concierge-clean-sub002/internal/cache"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
	"github.com/ojieame12/concierge-clean-sub002/internal/ontology"
	"github.com/ojieame12/concierge-clean-sub002/internal/storage"
)

// OntologyHandler handles ontology build and fetch requests.
type OntologyHandler struct {
	logger   *observability.Logger
	builder  *ontology.Builder
	repo     *storage.OntologyRepository
	packs    *storage.PackRepository
	cache    cache.Client
	cacheTTL time.Duration
}

// NewOntologyHandler creates a new ontology handler. cacheClient may be
// nil to disable definition caching.
func NewOntologyHandler(logger *observability.Logger, builder *ontology.Builder, repo *storage.OntologyRepository, packs *storage.PackRepository, cacheClient cache.Client, cacheTTL time.Duration) *OntologyHandler {
	return &OntologyHandler{
		logger:   logger,
		builder:  builder,
		repo:     repo,
		packs:    packs,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
	}
}

// ObservationDTO represents one observed attribute value.
type ObservationDTO struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
	Category  string `json:"category,omitempty"`
}

// BuildOntologyRequestDTO represents the build request.
type BuildOntologyRequestDTO struct {
	ShopID       string           `json:"shopId"`
	FacetSamples []ObservationDTO `json:"facetSamples"`
	SpecSamples  []ObservationDTO `json:"specSamples"`
}

// Build handles POST /ontology/build.
func (h *OntologyHandler) Build(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BuildOntologyRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if req.ShopID == "" {
		writeError(w, http.StatusBadRequest, "shopId is required", "")
		return
	}
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shopId", err.Error())
		return
	}

	definition := h.builder.Build(toObservations(req.FacetSamples), toObservations(req.SpecSamples))

	if h.repo != nil {
		payload, err := json.Marshal(definition)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encode definition", err.Error())
			return
		}
		if err := h.repo.Save(ctx, &storage.OntologyRecord{
			ShopID:     shopID,
			Version:    definition.Version,
			Definition: payload,
		}); err != nil {
			h.logger.Error().Err(err).Str("shop_id", req.ShopID).Msg("persist ontology failed")
			writeError(w, http.StatusInternalServerError, "persist ontology", err.Error())
			return
		}
		if h.packs != nil {
			if err := h.packs.MarkStale(ctx, shopID, definition.Version); err != nil {
				h.logger.Warn().Err(err).Str("shop_id", req.ShopID).Msg("mark stale packs failed")
			}
		}
	}

	if h.cache != nil {
		if err := h.cache.DeleteByPrefix(ctx, cache.ShopKey(req.ShopID, "ontology")); err != nil {
			h.logger.Warn().Err(err).Str("shop_id", req.ShopID).Msg("invalidate cached ontology failed")
		}
	}

	h.logger.Info().
		Str("shop_id", req.ShopID).
		Str("version", definition.Version).
		Int("attributes", len(definition.Attributes)).
		Msg("ontology built")

	writeJSON(w, http.StatusOK, definition)
}

// Get handles GET /ontology/{shopID}.
func (h *OntologyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "ontology storage not configured", "")
		return
	}

	shopID, err := uuid.Parse(chi.URLParam(r, "shopID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shopID", err.Error())
		return
	}

	version := r.URL.Query().Get("version")
	cacheKey := cache.OntologyKey(shopID.String(), version)
	if version == "" {
		cacheKey = cache.ShopKey(shopID.String(), "ontology", "latest")
	}

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}

	var record *storage.OntologyRecord
	if version != "" {
		record, err = h.repo.GetByVersion(ctx, shopID, version)
	} else {
		record, err = h.repo.GetLatest(ctx, shopID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "ontology not found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load ontology", err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, record.Definition, h.cacheTTL); err != nil {
			h.logger.Warn().Err(err).Str("shop_id", shopID.String()).Msg("cache ontology failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(record.Definition)
}

func toObservations(dtos []ObservationDTO) []ontology.Observation {
	obs := make([]ontology.Observation, 0, len(dtos))
	for _, d := range dtos {
		obs = append(obs, ontology.Observation{
			Attribute: d.Attribute,
			Value:     d.Value,
			Category:  d.Category,
		})
	}
	return obs
}
