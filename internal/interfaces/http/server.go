package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
)

// Server wraps http.Server with the configured timeouts.
type Server struct {
	httpServer      *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration
}

// NewServer binds handler to cfg.Addr().
func NewServer(cfg config.ServerConfig, handler http.Handler, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       2 * cfg.ReadTimeout,
		},
		logger:          logger.Named("server"),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start blocks serving until Shutdown. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if d := s.shutdownTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	s.logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Handler returns the served handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

//Personal.AI order the ending
