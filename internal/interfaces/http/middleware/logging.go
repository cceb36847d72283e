// Package middleware holds the HTTP middleware of the query API.
package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/prometheus"
)

// LoggingConfig holds configuration for the request logging middleware.
type LoggingConfig struct {
	// SkipPaths are not logged (health checks, scrapes).
	SkipPaths []string

	// SlowThreshold is the duration above which a request is logged as slow.
	SlowThreshold time.Duration
}

// DefaultLoggingConfig skips the health and scrape endpoints and flags
// requests slower than the generative timeout budget.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:     []string{"/healthz", "/readyz", "/metrics"},
		SlowThreshold: 5 * time.Second,
	}
}

// LoggingMiddleware logs every request and records the HTTP metrics.
type LoggingMiddleware struct {
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	skip    map[string]bool
	slow    time.Duration
}

// NewLoggingMiddleware builds the middleware. metrics may be nil.
func NewLoggingMiddleware(logger logging.Logger, metrics *prometheus.AppMetrics, cfg LoggingConfig) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	return &LoggingMiddleware{
		logger:  logger.Named("http"),
		metrics: metrics,
		skip:    skip,
		slow:    cfg.SlowThreshold,
	}
}

// Handler wraps next.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.metrics.RecordHTTPRequest(r.Method, routePattern(r), status, duration)

		if m.skip[r.URL.Path] {
			return
		}
		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", status),
			logging.Duration("duration", duration),
			logging.Int("bytes", ww.BytesWritten()),
			logging.String("remote_addr", r.RemoteAddr),
			logging.String("request_id", chimw.GetReqID(r.Context())),
		}
		if c, ok := CallerFromContext(r.Context()); ok && c.CompanyID != "" {
			fields = append(fields, logging.String("company_id", c.CompanyID))
		}

		switch {
		case status >= 500:
			m.logger.Error("HTTP request completed with server error", fields...)
		case status >= 400:
			m.logger.Warn("HTTP request completed with client error", fields...)
		case m.slow > 0 && duration >= m.slow:
			m.logger.Warn("HTTP request completed (slow)", fields...)
		default:
			m.logger.Info("HTTP request completed", fields...)
		}
	})
}

// routePattern is the matched chi pattern, so path parameters do not blow
// up the metric label cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

//Personal.AI order the ending
