package generative

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// contentGenerator is the slice of genai.Models the backend uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiBackend calls the Gemini API through the genai SDK. System messages
// become the system instruction; assistant messages use the model role.
type GeminiBackend struct {
	models contentGenerator
	model  string
	opts   options
	logger logging.Logger
}

// NewGeminiBackend creates a genai client for the Gemini API.
func NewGeminiBackend(ctx context.Context, apiKey, model string, logger logging.Logger, opts ...Option) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidParam, "gemini api key is required")
	}
	o := applyOptions(opts)
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeGenerativeUnavailable, "failed to create gemini client")
	}
	return newGeminiBackend(client.Models, model, logger, o), nil
}

func newGeminiBackend(models contentGenerator, model string, logger logging.Logger, o options) *GeminiBackend {
	if model == "" {
		model = DefaultGeminiModel
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GeminiBackend{models: models, model: model, opts: o, logger: logger.Named("gemini")}
}

func (b *GeminiBackend) Name() string { return config.ProviderGemini }

func (b *GeminiBackend) Complete(ctx context.Context, messages []Message, model string, temperature float64) (string, error) {
	if model == "" {
		model = b.model
	}
	ctx, cancel := context.WithTimeout(ctx, b.opts.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(float32(temperature))}
	if b.opts.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(b.opts.maxTokens)
	}
	var contents []*genai.Content
	var system []string
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}
	if len(contents) == 0 {
		return "", errors.New(errors.ErrCodeInvalidParam, "no user message to send")
	}

	start := time.Now()
	resp, err := b.models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeGenerativeUnavailable, "gemini request failed")
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New(errors.ErrCodeGenerativeResponse, "gemini returned no candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New(errors.ErrCodeGenerativeResponse, "gemini returned empty text")
	}
	b.logger.Debug("gemini completion", logging.String("model", model), logging.Duration("took", time.Since(start)))
	return text, nil
}

//Personal.AI order the ending
