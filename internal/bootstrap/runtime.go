// Package bootstrap wires the query pipeline and its optional infrastructure
// from a loaded configuration. Both the API server and the CLI build their
// runtime here so the two entry points answer queries identically.
package bootstrap

import (
	"context"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/application/conversation"
	"github.com/turtacn/Musaid-NLQ/internal/application/numerical"
	"github.com/turtacn/Musaid-NLQ/internal/application/query"
	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/database/postgres"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/database/redis"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/clarification"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/classifier"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/generative"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/morphology"
	"github.com/turtacn/Musaid-NLQ/internal/intelligence/semantic"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

const topicSetupTimeout = 15 * time.Second

// HealthCheck is a named dependency check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Runtime holds the assembled pipeline. Close releases every connection it
// opened, in reverse order.
type Runtime struct {
	Config     *config.Config
	Logger     logging.Logger
	Service    query.Service
	Sessions   *conversation.Manager
	Classifier classifier.Classifier
	Clarifier  *clarification.Engine
	Generative generative.Backend

	// Collector is nil when metrics are disabled.
	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics
	Checks    []HealthCheck

	closers []func() error
}

// Options adjusts Build for the calling entry point.
type Options struct {
	// SkipMetrics leaves the collector unset even when metrics are enabled.
	// One-shot CLI commands have no endpoint to expose them on.
	SkipMetrics bool
	// DataStore replaces the configured store.
	DataStore numerical.DataStore
}

// Build connects the enabled dependencies and assembles the query service.
// On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logger logging.Logger, opts Options) (_ *Runtime, err error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeInvalidParam, "configuration is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rt := &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = rt.Close()
		}
	}()

	if cfg.Metrics.Enabled && !opts.SkipMetrics {
		rt.Collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return nil, err
		}
		rt.Metrics = prometheus.NewAppMetrics(rt.Collector)
	}

	cache, err := rt.buildCache(cfg.Redis)
	if err != nil {
		return nil, err
	}
	store := opts.DataStore
	if store == nil {
		if store, err = rt.buildStore(cfg, cache); err != nil {
			return nil, err
		}
	}
	publisher, err := rt.buildPublisher(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}

	rt.Generative, err = generative.NewBackend(ctx, cfg.Generative, logger)
	if err != nil {
		return nil, err
	}

	managerOpts := []conversation.ManagerOption{
		conversation.WithActiveSessionObserver(rt.Metrics.SetActiveSessions),
	}
	if cache != nil {
		managerOpts = append(managerOpts, conversation.WithSnapshotStore(conversation.NewCacheSnapshotStore(cache, cfg.Redis.SessionTTL)))
	}
	rt.Sessions = conversation.NewManager(sessionSettings(cfg.Conversation), logger, managerOpts...)
	rt.closers = append(rt.closers, func() error { rt.Sessions.Close(); return nil })

	dict := semantic.NewDictionary()
	rt.Classifier = classifier.NewRuleBasedClassifier(dict, morphology.NewAnalyzer(nil))
	rt.Clarifier = clarification.NewEngine(cfg.Clarification.Threshold, logger,
		clarification.WithPendingTTL(cfg.Clarification.PendingTTL))

	handler := numerical.NewHandler(store, logger,
		numerical.WithCurrency(cfg.Numerical.CurrencySuffix),
		numerical.WithCurrencyDecimals(cfg.Numerical.CurrencyDecimals),
		numerical.WithListLimit(cfg.Numerical.ListLimit),
	)

	rt.Service, err = query.NewService(query.Dependencies{
		Classifier: rt.Classifier,
		Dictionary: dict,
		Clarifier:  rt.Clarifier,
		Numerical:  handler,
		Sessions:   rt.Sessions,
		Generative: rt.Generative,
		Publisher:  publisher,
		Metrics:    rt.Metrics,
		Logger:     logger,
	}, query.Config{
		Model:                cfg.Generative.Model,
		Temperature:          cfg.Generative.Temperature,
		StatisticalThreshold: cfg.Numerical.StatisticalThreshold,
		GenerativeTimeout:    cfg.Generative.Timeout,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("query pipeline ready",
		logging.String("generative", rt.Generative.Name()),
		logging.Bool("postgres", cfg.Database.Postgres.Enabled && opts.DataStore == nil),
		logging.Bool("redis", cache != nil),
		logging.Bool("kafka", publisher != nil),
		logging.Bool("metrics", rt.Collector != nil),
	)
	return rt, nil
}

func (rt *Runtime) buildCache(cfg config.RedisConfig) (redis.Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := redis.NewClient(redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, client.Close)
	rt.Checks = append(rt.Checks, HealthCheck{Name: "redis", Check: client.Ping})
	return redis.NewRedisCache(client, rt.Logger, redis.WithPrefix(cfg.KeyPrefix)), nil
}

// buildStore returns the PostgreSQL store, wrapped with the Redis result
// cache when one is available, or an empty in-memory store.
func (rt *Runtime) buildStore(cfg *config.Config, cache redis.Cache) (numerical.DataStore, error) {
	pg := cfg.Database.Postgres
	if !pg.Enabled {
		rt.Logger.Warn("postgres disabled, numerical queries run against an empty in-memory store")
		return numerical.NewMemoryStore(), nil
	}
	conn, err := postgres.NewConnection(pg, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, conn.Close)
	rt.Checks = append(rt.Checks, HealthCheck{Name: "postgres", Check: conn.HealthCheck})

	var store numerical.DataStore = postgres.NewDataStore(conn.DB(), numerical.Schema(numerical.DefaultStrategies()), pg.QueryTimeout, rt.Logger)
	if cache != nil {
		store = numerical.NewCachedStore(store, cache, cfg.Numerical.CacheTTL)
	}
	return store, nil
}

// buildPublisher creates the turn topic when missing and returns the event
// publisher. A topic setup failure is logged and publishing still starts:
// brokers with auto-creation accept the first write anyway.
func (rt *Runtime) buildPublisher(ctx context.Context, cfg config.KafkaConfig) (query.TurnPublisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	sec := KafkaSecurity(cfg)

	setupCtx, cancel := context.WithTimeout(ctx, topicSetupTimeout)
	defer cancel()
	if tm, err := kafka.NewTopicManager(setupCtx, cfg.Brokers, sec, rt.Logger); err != nil {
		rt.Logger.Warn("kafka topic manager unavailable", logging.Err(err))
	} else {
		if err := tm.EnsureTopics(setupCtx, kafka.DefaultTopics(cfg.TurnTopic)); err != nil {
			rt.Logger.Warn("kafka topic setup failed", logging.String("topic", cfg.TurnTopic), logging.Err(err))
		}
		_ = tm.Close()
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:          cfg.Brokers,
		Acks:             "all",
		MaxRetries:       3,
		BatchTimeout:     cfg.BatchTimeout,
		CompressionCodec: cfg.Compression,
		WriteTimeout:     cfg.WriteTimeout,
		Security:         sec,
	}, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, producer.Close)
	return query.NewEventPublisher(producer, cfg.TurnTopic), nil
}

// KafkaSecurity extracts the Kafka SASL/TLS settings.
func KafkaSecurity(cfg config.KafkaConfig) kafka.SecurityConfig {
	return kafka.SecurityConfig{
		SASLMechanism: cfg.SASLMechanism,
		SASLUsername:  cfg.SASLUsername,
		SASLPassword:  cfg.SASLPassword,
		TLSCertPath:   cfg.TLSCertPath,
	}
}

func sessionSettings(c config.ConversationConfig) conversation.Settings {
	return conversation.Settings{
		CleanupInterval:    c.CleanupInterval,
		EntityRetention:    c.EntityRetention,
		ActiveWindow:       c.ActiveWindow,
		MaxTurns:           c.MaxTurns,
		RelevantTurns:      c.RelevantTurns,
		RelevantReferences: c.RelevantReferences,
	}
}

// Reload applies the settings that can change without a restart and logs
// the ones that cannot.
func (rt *Runtime) Reload(next *config.Config) {
	if next.Clarification.Threshold != rt.Clarifier.Threshold() {
		rt.Logger.Info("clarification threshold updated",
			logging.Float64("from", rt.Clarifier.Threshold()),
			logging.Float64("to", next.Clarification.Threshold))
		rt.Clarifier.SetThreshold(next.Clarification.Threshold)
	}
	if next.Generative != rt.Config.Generative {
		rt.Logger.Warn("generative settings changed, restart to apply", logging.String("provider", next.Generative.Provider))
	}
	if next.Database.Postgres != rt.Config.Database.Postgres || next.Redis != rt.Config.Redis {
		rt.Logger.Warn("storage settings changed, restart to apply")
	}
}

// Close releases every opened dependency.
func (rt *Runtime) Close() error {
	var first error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.Logger.Warn("dependency close failed", logging.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	rt.closers = nil
	return first
}

//Personal.AI order the ending
