package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/config"
	"github.com/dgallion1/brandgest/internal/llm"
	"github.com/dgallion1/brandgest/internal/pathstore"
	"github.com/dgallion1/brandgest/internal/pipeline"
)

// StrategyArchive is the read/delete side of the strategy archive.
type StrategyArchive interface {
	List(ctx context.Context, brandSlug string, limit int) ([]pathstore.StrategyRecord, error)
	Delete(ctx context.Context, brandSlug, jobID string) error
}

// Server is the HTTP API server for brandgest.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	archive      StrategyArchive
	stats        *llm.Stats
	log          *zap.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. archive and stats may be nil.
func NewServer(orch *pipeline.Orchestrator, archive StrategyArchive, stats *llm.Stats, log *zap.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		archive:      archive,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/catalog", s.handleCatalog)
		r.Post("/api/extract", s.handleExtract)

		r.Post("/api/strategy", s.handleStrategyUpload)
		r.Post("/api/strategy/form", s.handleStrategyForm)
		r.Get("/api/strategy/{jobID}", s.handleStrategyStatus)

		r.Get("/api/brands/{brand}/strategies", s.handleListStrategies)
		r.Delete("/api/brands/{brand}/strategies/{jobID}", s.handleDeleteStrategy)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
