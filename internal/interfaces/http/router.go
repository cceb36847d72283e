// Package http serves the query pipeline over HTTP.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/Musaid-NLQ/internal/interfaces/http/handlers"
	"github.com/turtacn/Musaid-NLQ/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree. Nil entries are skipped.
type RouterConfig struct {
	// Handlers
	QueryHandler  *handlers.QueryHandler
	HealthHandler *handlers.HealthHandler

	// Middleware
	LoggingMiddleware *middleware.LoggingMiddleware
	CORS              *middleware.CORSConfig
	Caller            *middleware.CallerConfig
	RateLimiter       *middleware.TokenBucketLimiter

	// Infrastructure
	Logger           logging.Logger
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter constructs the route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.LoggingMiddleware != nil {
		r.Use(cfg.LoggingMiddleware.Handler)
	}
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		callerCfg := middleware.CallerConfig{}
		if cfg.Caller != nil {
			callerCfg = *cfg.Caller
		}
		api.Use(middleware.NewCallerMiddleware(callerCfg, cfg.Logger))
		if cfg.RateLimiter != nil {
			api.Use(middleware.RateLimit(cfg.RateLimiter))
		}
		registerQueryRoutes(api, cfg.QueryHandler)
	})

	return r
}

// registerQueryRoutes mounts the pipeline and session endpoints.
func registerQueryRoutes(r chi.Router, h *handlers.QueryHandler) {
	if h == nil {
		return
	}
	r.Post("/classify", h.Classify)

	r.Route("/query", func(qr chi.Router) {
		qr.Post("/", h.Process)
		qr.Post("/analyze", h.Analyze)
		qr.Post("/explain", h.Explain)
		qr.Get("/suggestions", h.Suggestions)
	})

	r.Post("/clarifications/{id}/resolve", h.ResolveClarification)

	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", h.CreateSession)
		sr.Get("/{id}/context", h.SessionContext)
		sr.Delete("/{id}", h.EndSession)
	})
}

//Personal.AI order the ending
