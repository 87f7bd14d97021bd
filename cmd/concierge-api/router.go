// Package main provides the concierge API server entrypoint.
package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ojieame12/concierge-clean-sub002/cmd/concierge-api/handlers"
	"github.com/ojieame12/concierge-clean-sub002/cmd/concierge-api/middleware"
	"github.com/ojieame12/concierge-clean-sub002/internal/cache"
	"github.com/ojieame12/concierge-clean-sub002/internal/calc"
	"github.com/ojieame12/concierge-clean-sub002/internal/canon"
	"github.com/ojieame12/concierge-clean-sub002/internal/config"
	"github.com/ojieame12/concierge-clean-sub002/internal/embedding"
	"github.com/ojieame12/concierge-clean-sub002/internal/observability"
	"github.com/ojieame12/concierge-clean-sub002/internal/ontology"
	"github.com/ojieame12/concierge-clean-sub002/internal/ranking"
	"github.com/ojieame12/concierge-clean-sub002/internal/storage"
)

// NewRouter creates the main API router with all routes configured. db
// may be nil, in which case persistence-backed endpoints degrade to
// stateless computation.
func NewRouter(logger *observability.Logger, cfg *config.Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"concierge-core"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	var ontologyRepo *storage.OntologyRepository
	var packRepo *storage.PackRepository
	if db != nil {
		ontologyRepo = storage.NewOntologyRepository(db)
		packRepo = storage.NewPackRepository(db)
	}

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
			cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
		} else {
			cacheClient = client
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	var embedder embedding.Embedder
	if cfg.Embedding.Endpoint != "" {
		client, err := embedding.NewClient(embedding.Config{
			Endpoint:  cfg.Embedding.Endpoint,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   cfg.Embedding.Timeout,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("embedding client unavailable, using mock")
			embedder = embedding.NewMockClient(cfg.Embedding.Dimension)
		} else {
			embedder = client
		}
	} else {
		embedder = embedding.NewMockClient(cfg.Embedding.Dimension)
	}

	registry := calc.NewRegistry()
	executor := calc.NewExecutor(registry, logger)

	builder := ontology.NewBuilderWithLimits(cfg.Ontology.MaxSamplesPerAttribute, cfg.Ontology.TopFacets)

	defaults := ranking.DefaultWeights()
	baseWeights := ranking.Weights{
		Semantic:      cfg.RankingWeight("semantic", defaults.Semantic),
		FacetMatch:    cfg.RankingWeight("facet_match", defaults.FacetMatch),
		ReviewQuality: cfg.RankingWeight("review_quality", defaults.ReviewQuality),
		PriceFit:      cfg.RankingWeight("price_fit", defaults.PriceFit),
		BrandPriority: cfg.RankingWeight("brand_priority", defaults.BrandPriority),
	}

	ontologyHandler := handlers.NewOntologyHandler(logger, builder, ontologyRepo, packRepo, cacheClient, cfg.Cache.TTL)
	packsHandler := handlers.NewPacksHandler(logger, packRepo, cacheClient, cfg.Cache.TTL)
	canonHandler := handlers.NewCanonHandler(logger, canon.NewRanker(), embedder, cfg.Canon.MaxResults)
	calcHandler := handlers.NewCalcHandler(logger, registry, executor)
	rankHandler := handlers.NewRankHandler(logger, ranking.NewReranker(logger), baseWeights)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ontology", func(r chi.Router) {
			r.Post("/build", ontologyHandler.Build)
			r.Get("/{shopID}", ontologyHandler.Get)
		})

		r.Route("/packs", func(r chi.Router) {
			r.Post("/build", packsHandler.Build)
			r.Get("/{shopID}/{productID}", packsHandler.Get)
		})

		r.Route("/canon", func(r chi.Router) {
			r.Post("/rank", canonHandler.Rank)
		})

		r.Route("/calculators", func(r chi.Router) {
			r.Get("/", calcHandler.List)
			r.Post("/run", calcHandler.Run)
		})

		r.Post("/rank", rankHandler.Rank)
	})

	return r
}
