package generative

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// DefaultOllamaBaseURL is the local Ollama daemon.
const DefaultOllamaBaseURL = "http://localhost:11434"

// chatGenerator is the part of an eino chat model the backend calls.
type chatGenerator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ChatModelBackend adapts an eino chat model (OpenAI-compatible endpoints,
// Ollama) to Backend.
type ChatModelBackend struct {
	provider string
	model    string
	chat     chatGenerator
	opts     options
	logger   logging.Logger
}

// NewOpenAICompatibleBackend targets a /v1/chat/completions endpoint (OpenAI,
// LM Studio, vLLM). baseURL is accepted with or without the "/v1" suffix.
func NewOpenAICompatibleBackend(ctx context.Context, baseURL, apiKey, modelName string, logger logging.Logger, opts ...Option) (*ChatModelBackend, error) {
	o := applyOptions(opts)
	cfg := &openai.ChatModelConfig{
		BaseURL: openAIBaseURL(baseURL),
		APIKey:  apiKey,
		Model:   modelName,
		Timeout: o.timeout,
	}
	if o.maxTokens > 0 {
		n := o.maxTokens
		cfg.MaxTokens = &n
	}
	cm, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "failed to create OpenAI-compatible chat model")
	}
	return newChatModelBackend(config.ProviderOpenAI, cm, modelName, logger, o), nil
}

// NewOllamaBackend targets Ollama's native chat API.
func NewOllamaBackend(ctx context.Context, baseURL, modelName string, logger logging.Logger, opts ...Option) (*ChatModelBackend, error) {
	o := applyOptions(opts)
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   modelName,
		Timeout: o.timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "failed to create Ollama chat model")
	}
	return newChatModelBackend(config.ProviderOllama, cm, modelName, logger, o), nil
}

func newChatModelBackend(provider string, chat chatGenerator, modelName string, logger logging.Logger, o options) *ChatModelBackend {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ChatModelBackend{
		provider: provider,
		model:    modelName,
		chat:     chat,
		opts:     o,
		logger:   logger.Named(provider),
	}
}

func (b *ChatModelBackend) Name() string { return b.provider }

func (b *ChatModelBackend) Complete(ctx context.Context, messages []Message, modelName string, temperature float64) (string, error) {
	if modelName == "" {
		modelName = b.model
	}
	input := make([]*schema.Message, 0, len(messages))
	for _, m := range messages {
		input = append(input, &schema.Message{Role: schemaRole(m.Role), Content: m.Content})
	}

	callOpts := []model.Option{model.WithTemperature(float32(temperature))}
	if modelName != "" {
		callOpts = append(callOpts, model.WithModel(modelName))
	}
	if b.opts.maxTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(b.opts.maxTokens))
	}

	start := time.Now()
	out, err := b.chat.Generate(ctx, input, callOpts...)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeGenerativeUnavailable, "chat request failed")
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", errors.New(errors.ErrCodeGenerativeResponse, "chat backend returned an empty reply")
	}
	b.logger.Debug("chat completion", logging.String("model", modelName), logging.Duration("took", time.Since(start)))
	return strings.TrimSpace(out.Content), nil
}

func schemaRole(r Role) schema.RoleType {
	switch r {
	case RoleSystem:
		return schema.System
	case RoleAssistant:
		return schema.Assistant
	default:
		return schema.User
	}
}

// openAIBaseURL makes sure the base ends with /v1, which the client expects.
func openAIBaseURL(u string) string {
	u = strings.TrimRight(u, "/")
	if strings.HasSuffix(u, "/v1") {
		return u
	}
	return u + "/v1"
}

//Personal.AI order the ending
