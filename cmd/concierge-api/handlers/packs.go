package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ojieame12/concierge-clean-sub002/internal/cache"
	"github.com/ojieame12/concierge-clean-sub002/internal/knowledge"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
	"github.com/ojieame12/concierge-clean-sub002/internal/storage"
	"github.com/ojieame12/concierge-clean-sub002/internal/units"
)

// PacksHandler handles knowledge pack build and fetch requests.
type PacksHandler struct {
	logger   *observability.Logger
	repo     *storage.PackRepository
	cache    cache.Client
	cacheTTL time.Duration
}

// NewPacksHandler creates a new packs handler. cacheClient may be nil to
// disable pack caching.
func NewPacksHandler(logger *observability.Logger, repo *storage.PackRepository, cacheClient cache.Client, cacheTTL time.Duration) *PacksHandler {
	return &PacksHandler{logger: logger, repo: repo, cache: cacheClient, cacheTTL: cacheTTL}
}

// BuildPacksRequestDTO represents the pack build request. Unit samples
// feed rule discovery; the discovered rules then normalize the evidence
// snippets into derived metrics.
type BuildPacksRequestDTO struct {
	ShopID          string                     `json:"shopId"`
	OntologyVersion string                     `json:"ontologyVersion"`
	UnitSamples     []units.Sample             `json:"unitSamples,omitempty"`
	Products        []knowledge.ProductSummary `json:"products"`
	Evidence        []knowledge.EvidenceRow    `json:"evidence,omitempty"`
}

// BuildPacksResponseDTO represents the pack build response.
type BuildPacksResponseDTO struct {
	OntologyVersion string           `json:"ontologyVersion"`
	Rules           []units.Rule     `json:"rules"`
	Packs           []knowledge.Pack `json:"packs"`
}

// Build handles POST /packs/build.
func (h *PacksHandler) Build(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BuildPacksRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "products are required", "")
		return
	}

	rules := units.DiscoverRules(req.UnitSamples)
	builder := knowledge.NewPackBuilder(rules)
	packs := builder.BuildAll(req.Products, req.Evidence, req.OntologyVersion)

	if h.repo != nil && req.ShopID != "" {
		shopID, err := uuid.Parse(req.ShopID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid shopId", err.Error())
			return
		}
		for _, pack := range packs {
			productID, err := uuid.Parse(pack.ProductID)
			if err != nil {
				// External product IDs that are not UUIDs stay unpersisted.
				continue
			}
			payload, err := json.Marshal(pack)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "encode pack", err.Error())
				return
			}
			if err := h.repo.Upsert(ctx, &storage.PackRecord{
				ShopID:          shopID,
				ProductID:       productID,
				OntologyVersion: req.OntologyVersion,
				Pack:            payload,
			}); err != nil {
				h.logger.Error().Err(err).Str("product_id", pack.ProductID).Msg("persist pack failed")
				writeError(w, http.StatusInternalServerError, "persist pack", err.Error())
				return
			}
			if h.cache != nil {
				if err := h.cache.Delete(ctx, cache.PackKey(req.ShopID, pack.ProductID)); err != nil {
					h.logger.Warn().Err(err).Str("product_id", pack.ProductID).Msg("invalidate cached pack failed")
				}
			}
		}
	}

	h.logger.Info().
		Str("shop_id", req.ShopID).
		Int("products", len(req.Products)).
		Int("rules", len(rules)).
		Int("packs", len(packs)).
		Msg("knowledge packs built")

	writeJSON(w, http.StatusOK, BuildPacksResponseDTO{
		OntologyVersion: req.OntologyVersion,
		Rules:           rules,
		Packs:           packs,
	})
}

// Get handles GET /packs/{shopID}/{productID}.
func (h *PacksHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "pack storage not configured", "")
		return
	}

	shopID, err := uuid.Parse(chi.URLParam(r, "shopID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid shopID", err.Error())
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid productID", err.Error())
		return
	}

	cacheKey := cache.PackKey(shopID.String(), productID.String())
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(cached)
			return
		}
	}

	record, err := h.repo.GetByProduct(ctx, shopID, productID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "pack not found", "")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "load pack", err.Error())
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, cacheKey, record.Pack, h.cacheTTL); err != nil {
			h.logger.Warn().Err(err).Str("product_id", productID.String()).Msg("cache pack failed")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(record.Pack)
}
