package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 60 * time.Second
	DefaultServerShutdownTimeout = 30 * time.Second
	DefaultRateLimitRPS          = 5.0
	DefaultRateLimitBurst        = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPostgresPort            = 5432
	DefaultPostgresSSLMode         = "disable"
	DefaultPostgresMaxOpenConns    = 10
	DefaultPostgresMaxIdleConns    = 5
	DefaultPostgresConnMaxLifetime = 30 * time.Minute
	DefaultPostgresQueryTimeout    = 5 * time.Second

	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisPoolSize   = 10
	DefaultRedisKeyPrefix  = "nlq:"
	DefaultRedisSessionTTL = 24 * time.Hour

	DefaultKafkaTurnTopic    = "nlq.turn.completed"
	DefaultKafkaBatchTimeout = time.Second
	DefaultKafkaWriteTimeout = 10 * time.Second
	DefaultKafkaGroupID      = "nlq-events-tail"

	DefaultGenerativeProvider    = ProviderNone
	DefaultGenerativeModel       = "gemini-2.0-flash"
	DefaultGenerativeTemperature = 0.3
	DefaultGenerativeMaxTokens   = 1024
	DefaultGenerativeTimeout     = 30 * time.Second

	DefaultCleanupInterval    = 30 * time.Minute
	DefaultEntityRetention    = time.Hour
	DefaultActiveWindow       = 30 * time.Minute
	DefaultMaxTurns           = 20
	DefaultRelevantTurns      = 5
	DefaultRelevantReferences = 10

	DefaultClarificationThreshold = 0.2
	DefaultClarificationTTL       = 30 * time.Minute

	DefaultCurrencySuffix       = "د.ك"
	DefaultCurrencyDecimals     = 3
	DefaultStatisticalThreshold = 0.7
	DefaultListLimit            = 10
	DefaultNumericalCacheTTL    = 5 * time.Minute

	DefaultMetricsNamespace = "nlq"
	DefaultMetricsPath      = "/metrics"
)

// NewDefaultConfig returns a Config populated only with defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.RateLimitRPS == 0 {
		cfg.Server.RateLimitRPS = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = DefaultRateLimitBurst
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	pg := &cfg.Database.Postgres
	if pg.Port == 0 {
		pg.Port = DefaultPostgresPort
	}
	if pg.SSLMode == "" {
		pg.SSLMode = DefaultPostgresSSLMode
	}
	if pg.MaxOpenConns == 0 {
		pg.MaxOpenConns = DefaultPostgresMaxOpenConns
	}
	if pg.MaxIdleConns == 0 {
		pg.MaxIdleConns = DefaultPostgresMaxIdleConns
	}
	if pg.ConnMaxLifetime == 0 {
		pg.ConnMaxLifetime = DefaultPostgresConnMaxLifetime
	}
	if pg.QueryTimeout == 0 {
		pg.QueryTimeout = DefaultPostgresQueryTimeout
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.SessionTTL == 0 {
		cfg.Redis.SessionTTL = DefaultRedisSessionTTL
	}

	if cfg.Kafka.TurnTopic == "" {
		cfg.Kafka.TurnTopic = DefaultKafkaTurnTopic
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = DefaultKafkaWriteTimeout
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}

	if cfg.Generative.Provider == "" {
		cfg.Generative.Provider = DefaultGenerativeProvider
	}
	if cfg.Generative.Model == "" {
		cfg.Generative.Model = DefaultGenerativeModel
	}
	if cfg.Generative.Temperature == 0 {
		cfg.Generative.Temperature = DefaultGenerativeTemperature
	}
	if cfg.Generative.MaxTokens == 0 {
		cfg.Generative.MaxTokens = DefaultGenerativeMaxTokens
	}
	if cfg.Generative.Timeout == 0 {
		cfg.Generative.Timeout = DefaultGenerativeTimeout
	}

	conv := &cfg.Conversation
	if conv.CleanupInterval == 0 {
		conv.CleanupInterval = DefaultCleanupInterval
	}
	if conv.EntityRetention == 0 {
		conv.EntityRetention = DefaultEntityRetention
	}
	if conv.ActiveWindow == 0 {
		conv.ActiveWindow = DefaultActiveWindow
	}
	if conv.MaxTurns == 0 {
		conv.MaxTurns = DefaultMaxTurns
	}
	if conv.RelevantTurns == 0 {
		conv.RelevantTurns = DefaultRelevantTurns
	}
	if conv.RelevantReferences == 0 {
		conv.RelevantReferences = DefaultRelevantReferences
	}

	if cfg.Clarification.Threshold == 0 {
		cfg.Clarification.Threshold = DefaultClarificationThreshold
	}
	if cfg.Clarification.PendingTTL == 0 {
		cfg.Clarification.PendingTTL = DefaultClarificationTTL
	}

	if cfg.Numerical.CurrencySuffix == "" {
		cfg.Numerical.CurrencySuffix = DefaultCurrencySuffix
	}
	if cfg.Numerical.CurrencyDecimals == 0 {
		cfg.Numerical.CurrencyDecimals = DefaultCurrencyDecimals
	}
	if cfg.Numerical.StatisticalThreshold == 0 {
		cfg.Numerical.StatisticalThreshold = DefaultStatisticalThreshold
	}
	if cfg.Numerical.ListLimit == 0 {
		cfg.Numerical.ListLimit = DefaultListLimit
	}
	if cfg.Numerical.CacheTTL == 0 {
		cfg.Numerical.CacheTTL = DefaultNumericalCacheTTL
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// registerKeys makes every leaf key known to viper so that NLQ_* environment
// variables are honoured by Unmarshal even without a config file.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.host", "server.port", "server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
		"server.cors_allowed_origins", "server.rate_limit_rps", "server.rate_limit_burst",
		"log.level", "log.format", "log.development",
		"database.postgres.enabled", "database.postgres.host", "database.postgres.port",
		"database.postgres.user", "database.postgres.password", "database.postgres.dbname",
		"database.postgres.sslmode", "database.postgres.max_open_conns", "database.postgres.max_idle_conns",
		"database.postgres.conn_max_lifetime", "database.postgres.query_timeout",
		"redis.enabled", "redis.addr", "redis.password", "redis.db", "redis.pool_size",
		"redis.key_prefix", "redis.session_ttl",
		"kafka.enabled", "kafka.brokers", "kafka.turn_topic", "kafka.batch_timeout",
		"kafka.write_timeout", "kafka.compression", "kafka.group_id", "kafka.sasl_mechanism",
		"kafka.sasl_username", "kafka.sasl_password", "kafka.tls_cert_path",
		"generative.provider", "generative.model", "generative.api_key", "generative.base_url",
		"generative.temperature", "generative.max_tokens", "generative.timeout",
		"conversation.cleanup_interval", "conversation.entity_retention", "conversation.active_window",
		"conversation.max_turns", "conversation.relevant_turns", "conversation.relevant_references",
		"clarification.threshold", "clarification.pending_ttl",
		"numerical.currency_suffix", "numerical.currency_decimals", "numerical.statistical_threshold",
		"numerical.list_limit", "numerical.cache_ttl",
		"metrics.enabled", "metrics.namespace", "metrics.path",
	} {
		_ = v.BindEnv(key)
	}
}

//Personal.AI order the ending
