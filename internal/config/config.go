// Package config defines the configuration tree of the NLQ service and its
// validation rules. Values come from a YAML file, NLQ_* environment variables
// and the defaults in defaults.go, in that order of precedence (env wins).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
)

// Config is the root configuration object.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           logging.LogConfig   `mapstructure:"log"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Generative    GenerativeConfig    `mapstructure:"generative"`
	Conversation  ConversationConfig  `mapstructure:"conversation"`
	Clarification ClarificationConfig `mapstructure:"clarification"`
	Numerical     NumericalConfig     `mapstructure:"numerical"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	RateLimitRPS       float64  `mapstructure:"rate_limit_rps"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig groups relational store settings.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig configures the data store backing numerical queries.
// When Enabled is false the service runs against an empty in-memory store.
type PostgresConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

// RedisConfig configures session snapshot persistence.
type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	PoolSize   int           `mapstructure:"pool_size"`
	KeyPrefix  string        `mapstructure:"key_prefix"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// KafkaConfig configures the turn-completed event stream.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	TurnTopic    string        `mapstructure:"turn_topic"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Compression  string        `mapstructure:"compression"`

	// GroupID is the consumer group of the events tail command.
	GroupID       string `mapstructure:"group_id"`
	SASLMechanism string `mapstructure:"sasl_mechanism"`
	SASLUsername  string `mapstructure:"sasl_username"`
	SASLPassword  string `mapstructure:"sasl_password"`
	TLSCertPath   string `mapstructure:"tls_cert_path"`
}

// GenerativeConfig selects and configures the generative backend.
type GenerativeConfig struct {
	// Provider is one of gemini, openai, ollama, none.
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ConversationConfig configures the context store retention rules.
type ConversationConfig struct {
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
	EntityRetention    time.Duration `mapstructure:"entity_retention"`
	ActiveWindow       time.Duration `mapstructure:"active_window"`
	MaxTurns           int           `mapstructure:"max_turns"`
	RelevantTurns      int           `mapstructure:"relevant_turns"`
	RelevantReferences int           `mapstructure:"relevant_references"`
}

// ClarificationConfig configures the ambiguity engine.
type ClarificationConfig struct {
	Threshold  float64       `mapstructure:"threshold"`
	PendingTTL time.Duration `mapstructure:"pending_ttl"`
}

// NumericalConfig configures the numerical query handler.
type NumericalConfig struct {
	CurrencySuffix       string  `mapstructure:"currency_suffix"`
	CurrencyDecimals     int     `mapstructure:"currency_decimals"`
	StatisticalThreshold float64 `mapstructure:"statistical_threshold"`
	ListLimit            int     `mapstructure:"list_limit"`

	// CacheTTL bounds how long Redis keeps count and sum results. Only used
	// when both PostgreSQL and Redis are enabled.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

var validProviders = map[string]bool{
	ProviderGemini: true,
	ProviderOpenAI: true,
	ProviderOllama: true,
	ProviderNone:   true,
}

// Generative providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderNone   = "none"
)

// Validate checks cross-field constraints after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Postgres.Enabled {
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return fmt.Errorf("config: database.postgres.host and dbname are required when enabled")
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when enabled")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers is required when enabled")
		}
		if c.Kafka.TurnTopic == "" {
			return fmt.Errorf("config: kafka.turn_topic is required when enabled")
		}
	}
	provider := strings.ToLower(c.Generative.Provider)
	if !validProviders[provider] {
		return fmt.Errorf("config: generative.provider %q must be one of gemini, openai, ollama, none", c.Generative.Provider)
	}
	if provider == ProviderGemini && c.Generative.APIKey == "" {
		return fmt.Errorf("config: generative.api_key is required for provider gemini")
	}
	if provider == ProviderOpenAI && c.Generative.BaseURL == "" {
		return fmt.Errorf("config: generative.base_url is required for provider openai")
	}
	if c.Generative.Temperature < 0 || c.Generative.Temperature > 2 {
		return fmt.Errorf("config: generative.temperature must be in [0,2]")
	}
	if c.Clarification.Threshold < 0 || c.Clarification.Threshold > 1 {
		return fmt.Errorf("config: clarification.threshold must be in [0,1]")
	}
	if c.Numerical.StatisticalThreshold < 0 || c.Numerical.StatisticalThreshold > 1 {
		return fmt.Errorf("config: numerical.statistical_threshold must be in [0,1]")
	}
	if c.Conversation.MaxTurns <= 0 {
		return fmt.Errorf("config: conversation.max_turns must be positive")
	}
	if c.Conversation.ActiveWindow > c.Conversation.EntityRetention {
		return fmt.Errorf("config: conversation.active_window must not exceed entity_retention")
	}
	return nil
}

//Personal.AI order the ending
