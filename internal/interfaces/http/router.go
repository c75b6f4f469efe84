package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/mfa-engine/internal/infrastructure/auth/keycloak"
	"github.com/turtacn/mfa-engine/internal/interfaces/http/handlers"
	"github.com/turtacn/mfa-engine/internal/interfaces/http/middleware"
	"github.com/turtacn/mfa-engine/internal/platform/logging"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	AnalysisHandler *handlers.AnalysisHandler
	HealthHandler   *handlers.HealthHandler

	// Middleware
	AuthMiddleware      *keycloak.AuthMiddleware
	CORSMiddleware      *middleware.CORSMiddleware
	LoggingMiddleware   func(http.Handler) http.Handler
	RateLimitMiddleware func(http.Handler) http.Handler

	// Infrastructure
	Logger logging.Logger
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
// It wires global middleware, public health endpoints, and the authenticated
// API v1 analysis group into a single http.Handler suitable for use with
// http.Server.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORSMiddleware != nil {
		r.Use(cfg.CORSMiddleware.Handler)
	}
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware)
	}
	if cfg.RateLimitMiddleware != nil {
		r.Use(cfg.RateLimitMiddleware)
	}

	// --- Public health endpoints (no auth) ---
	r.Group(func(pub chi.Router) {
		if cfg.HealthHandler != nil {
			pub.Get("/healthz", cfg.HealthHandler.Liveness)
			pub.Get("/readyz", cfg.HealthHandler.Readiness)
			pub.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		}
	})

	// --- API v1 (authenticated) ---
	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Handler)
		}

		registerAnalysisRoutes(api, cfg.AnalysisHandler)
	})

	return r
}

// registerAnalysisRoutes mounts the metabolic flux analysis operations under
// /analysis. Every operation takes its full central system and run
// parameters in the POST body rather than operating on server-side state.
func registerAnalysisRoutes(r chi.Router, h *handlers.AnalysisHandler) {
	if h == nil {
		return
	}
	r.Route("/analysis", func(ar chi.Router) {
		ar.Post("/load-central-system", h.LoadCentralSystem)
		ar.Post("/run-fba", h.RunFBA)
		ar.Post("/find-tight-bounds", h.FindTightBounds)
		ar.Post("/run-media-experiments", h.RunMediaExperiments)
		ar.Post("/run-deletion-experiments", h.RunDeletionExperiments)
		ar.Post("/gap-fill", h.GapFill)
		ar.Post("/gap-generate", h.GapGenerate)
		ar.Post("/milp-recursive", h.MILPRecursive)
	})
}
