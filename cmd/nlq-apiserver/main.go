// API server entry point for the Arabic NL query service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/bootstrap"
	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/Musaid-NLQ/internal/interfaces/http"
	"github.com/turtacn/Musaid-NLQ/internal/interfaces/http/handlers"
	"github.com/turtacn/Musaid-NLQ/internal/interfaces/http/middleware"
)

const (
	defaultConfigPath = "configs/config.yaml"
	rateLimitIdle     = 10 * time.Minute
)

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	requireCompany := flag.Bool("require-company", false, "reject API calls without the X-Company-ID header")
	flag.Parse()

	cfg, watch, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	defer logger.Sync()

	if err := run(cfg, logger, watch, *configPath, *requireCompany); err != nil {
		logger.Error("API server exited with error", logging.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// loadConfig reads the file when it exists and falls back to environment
// variables and defaults otherwise. watch reports whether the file exists.
func loadConfig(path string) (cfg *config.Config, watch bool, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		cfg, err = config.LoadFromEnv()
		return cfg, false, err
	}
	cfg, err = config.Load(path)
	return cfg, true, err
}

func run(cfg *config.Config, logger logging.Logger, watch bool, configPath string, requireCompany bool) error {
	logger.Info("starting NLQ API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
		logging.String("generative", cfg.Generative.Provider))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, cfg, logger, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if watch {
		config.Watch(configPath, rt.Reload, func(err error) {
			logger.Warn("config reload rejected", logging.Err(err))
		})
	}

	checkers := make([]handlers.HealthChecker, 0, len(rt.Checks))
	for _, c := range rt.Checks {
		checkers = append(checkers, handlers.NewChecker(c.Name, c.Check))
	}

	limiter := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, rateLimitIdle)
	defer limiter.Stop()

	routerCfg := httpserver.RouterConfig{
		QueryHandler:      handlers.NewQueryHandler(rt.Service, rt.Sessions, rt.Classifier, logger),
		HealthHandler:     handlers.NewHealthHandler(version, checkers...),
		LoggingMiddleware: middleware.NewLoggingMiddleware(logger, rt.Metrics, middleware.DefaultLoggingConfig()),
		Caller:            &middleware.CallerConfig{RequireCompany: requireCompany},
		RateLimiter:       limiter,
		Logger:            logger,
		MetricsCollector:  rt.Collector,
		MetricsPath:       cfg.Metrics.Path,
	}
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		cors := middleware.DefaultCORSConfig(cfg.Server.CORSAllowedOrigins...)
		routerCfg.CORS = &cors
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return srv.Shutdown(context.Background())
}

//Personal.AI order the ending
