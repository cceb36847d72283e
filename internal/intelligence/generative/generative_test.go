package generative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/turtacn/Musaid-NLQ/internal/config"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

// fakeChat records the input and options of the last Generate call.
type fakeChat struct {
	input []*schema.Message
	opts  *model.Options
	out   *schema.Message
	err   error
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.opts = model.GetCommonOptions(nil, opts...)
	return f.out, f.err
}

func TestChatModelBackend_Complete(t *testing.T) {
	fake := &fakeChat{out: &schema.Message{Role: schema.Assistant, Content: "  مرحبا  "}}
	b := newChatModelBackend(config.ProviderOpenAI, fake, "llama3", nil, applyOptions([]Option{WithMaxTokens(256)}))

	out, err := b.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "أنت مساعد"},
		{Role: RoleUser, Content: "مرحبا"},
		{Role: RoleAssistant, Content: "أهلا"},
	}, "", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", out)
	assert.Equal(t, config.ProviderOpenAI, b.Name())

	require.Len(t, fake.input, 3)
	assert.Equal(t, schema.System, fake.input[0].Role)
	assert.Equal(t, schema.User, fake.input[1].Role)
	assert.Equal(t, schema.Assistant, fake.input[2].Role)
	require.NotNil(t, fake.opts.Model)
	assert.Equal(t, "llama3", *fake.opts.Model)
	require.NotNil(t, fake.opts.Temperature)
	assert.InDelta(t, 0.3, *fake.opts.Temperature, 1e-6)
	require.NotNil(t, fake.opts.MaxTokens)
	assert.Equal(t, 256, *fake.opts.MaxTokens)

	_, err = b.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, "qwen2", 0)
	require.NoError(t, err)
	assert.Equal(t, "qwen2", *fake.opts.Model)
}

func TestChatModelBackend_Errors(t *testing.T) {
	ctx := context.Background()
	msgs := []Message{{Role: RoleUser, Content: "x"}}

	_, err := newChatModelBackend(config.ProviderOllama, &fakeChat{err: assert.AnError}, "m", nil, applyOptions(nil)).Complete(ctx, msgs, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeUnavailable))
	assert.ErrorIs(t, err, assert.AnError)

	_, err = newChatModelBackend(config.ProviderOllama, &fakeChat{}, "m", nil, applyOptions(nil)).Complete(ctx, msgs, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeResponse))

	_, err = newChatModelBackend(config.ProviderOllama, &fakeChat{out: &schema.Message{Content: " "}}, "m", nil, applyOptions(nil)).Complete(ctx, msgs, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeResponse))
}

func TestOpenAICompatibleBackend_Endpoint(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama3",
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "مرحبا"},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 2, "completion_tokens": 1, "total_tokens": 3},
		})
	}))
	defer server.Close()

	b, err := NewOpenAICompatibleBackend(context.Background(), server.URL, "secret", "llama3", nil)
	require.NoError(t, err)
	out, err := b.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "أنت مساعد"},
		{Role: RoleUser, Content: "مرحبا"},
	}, "", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", out)
	assert.Equal(t, "llama3", got.Model)
	assert.InDelta(t, 0.3, got.Temperature, 1e-6)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestOpenAICompatibleBackend_EndpointError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer server.Close()

	b, err := NewOpenAICompatibleBackend(context.Background(), server.URL+"/v1/", "", "m", nil)
	require.NoError(t, err)
	_, err = b.Complete(context.Background(), []Message{{Role: RoleUser, Content: "x"}}, "", 0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeUnavailable))
}

func TestOpenAIBaseURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"http://localhost:1234", "http://localhost:1234/v1"},
		{"http://localhost:1234/", "http://localhost:1234/v1"},
		{"http://localhost:1234/v1", "http://localhost:1234/v1"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, openAIBaseURL(tt.in), tt.in)
	}
}

type fakeModels struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	model    string
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.config = model, contents, cfg
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	c := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		c.Parts = append(c.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: c}}}
}

func TestGeminiBackend_Complete(t *testing.T) {
	fake := &fakeModels{resp: textResponse("الإجابة ", "هنا")}
	b := newGeminiBackend(fake, "", nil, applyOptions([]Option{WithMaxTokens(128)}))

	out, err := b.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "تعليمات"},
		{Role: RoleUser, Content: "سؤال"},
		{Role: RoleAssistant, Content: "جواب سابق"},
		{Role: RoleUser, Content: "سؤال ثان"},
	}, "", 0.4)
	require.NoError(t, err)
	assert.Equal(t, "الإجابة هنا", out)
	assert.Equal(t, DefaultGeminiModel, fake.model)

	require.Len(t, fake.contents, 3)
	assert.Equal(t, genai.RoleUser, fake.contents[0].Role)
	assert.Equal(t, genai.RoleModel, fake.contents[1].Role)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "تعليمات", fake.config.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.4, *fake.config.Temperature, 1e-6)
	assert.Equal(t, int32(128), fake.config.MaxOutputTokens)
}

func TestGeminiBackend_Errors(t *testing.T) {
	ctx := context.Background()
	msgs := []Message{{Role: RoleUser, Content: "x"}}

	_, err := newGeminiBackend(&fakeModels{err: assert.AnError}, "m", nil, applyOptions(nil)).Complete(ctx, msgs, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeUnavailable))
	assert.ErrorIs(t, err, assert.AnError)

	_, err = newGeminiBackend(&fakeModels{resp: &genai.GenerateContentResponse{}}, "m", nil, applyOptions(nil)).Complete(ctx, msgs, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeResponse))

	_, err = newGeminiBackend(&fakeModels{resp: textResponse("  ")}, "m", nil, applyOptions(nil)).Complete(ctx, msgs, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeResponse))

	_, err = newGeminiBackend(&fakeModels{}, "m", nil, applyOptions(nil)).Complete(ctx, []Message{{Role: RoleSystem, Content: "s"}}, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	b, err := NewBackend(ctx, config.GenerativeConfig{Provider: "none"}, nil)
	require.NoError(t, err)
	_, err = b.Complete(ctx, nil, "", 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeGenerativeUnavailable))

	b, err = NewBackend(ctx, config.GenerativeConfig{Provider: "OpenAI", BaseURL: "http://localhost:1234", Model: "m"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ChatModelBackend{}, b)
	assert.Equal(t, config.ProviderOpenAI, b.Name())

	b, err = NewBackend(ctx, config.GenerativeConfig{Provider: "ollama", Model: "llama3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOllama, b.Name())

	_, err = NewBackend(ctx, config.GenerativeConfig{Provider: "gemini"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = NewBackend(ctx, config.GenerativeConfig{Provider: "bard"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))
}

//Personal.AI order the ending
