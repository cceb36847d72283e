// Package generative talks to the external large-language-model backends used
// when local rules cannot answer a query.
package generative

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message sent to a backend.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Backend completes a chat. Implementations do not retry; errors carry the
// backend's message.
type Backend interface {
	// Complete returns the assistant reply. An empty model uses the
	// backend default.
	Complete(ctx context.Context, messages []Message, model string, temperature float64) (string, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

const DefaultTimeout = 30 * time.Second

// NewBackend builds the backend selected by cfg.Provider.
func NewBackend(ctx context.Context, cfg config.GenerativeConfig, logger logging.Logger) (Backend, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderGemini:
		b, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.Model, logger, WithTimeout(timeout), WithMaxTokens(cfg.MaxTokens), WithBaseURL(cfg.BaseURL))
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.ProviderOpenAI:
		b, err := NewOpenAICompatibleBackend(ctx, cfg.BaseURL, cfg.APIKey, cfg.Model, logger, WithTimeout(timeout), WithMaxTokens(cfg.MaxTokens))
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.ProviderOllama:
		b, err := NewOllamaBackend(ctx, cfg.BaseURL, cfg.Model, logger, WithTimeout(timeout), WithMaxTokens(cfg.MaxTokens))
		if err != nil {
			return nil, err
		}
		return b, nil
	case config.ProviderNone, "":
		return Disabled{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidParam, "unknown generative provider").WithDetail("provider=" + cfg.Provider)
}

// Option tunes a backend.
type Option func(*options)

type options struct {
	timeout   time.Duration
	maxTokens int
	baseURL   string
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithBaseURL overrides the Gemini API endpoint.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

func applyOptions(opts []Option) options {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Disabled is the backend used when no provider is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, []Message, string, float64) (string, error) {
	return "", errors.New(errors.ErrCodeGenerativeUnavailable, "generative backend disabled")
}

func (Disabled) Name() string { return config.ProviderNone }

//Personal.AI order the ending
