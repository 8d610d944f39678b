package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/copycraft-api/internal/config"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/platform/logger"
	"github.com/phrazzld/copycraft-api/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu        sync.Mutex
	responses []*genai.GenerateContentResponse
	errs      []error
	calls     int
	models    []string
	configs   []*genai.GenerateContentConfig
	prompts   []string
}

func (f *fakeModels) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++
	f.models = append(f.models, model)
	f.configs = append(f.configs, cfg)
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompts = append(f.prompts, contents[0].Parts[0].Text)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var resp *genai.GenerateContentResponse
	var err error
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

type postOutput struct {
	Content  string   `json:"content" desc:"Post body."`
	Hashtags []string `json:"hashtags"`
	Score    int      `json:"score,omitempty"`
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{
		Provider:          config.ProviderGemini,
		GeminiAPIKey:      "test-api-key",
		ModelName:         "gemini-2.0-flash",
		MaxRetries:        2,
		RetryDelaySeconds: 1,
	}
}

func newTestInvoker(t *testing.T, models modelsAPI, cfg config.LLMConfig) *Invoker {
	t.Helper()
	log, _ := logger.NewTestLogger()
	inv, err := newInvoker(log, models, cfg, WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	return inv
}

func outputDescriptor() *schema.Descriptor {
	return schema.MustNew[postOutput]("PostOutput").Descriptor()
}

func TestNewInvoker_ConfigValidation(t *testing.T) {
	t.Parallel()

	log, _ := logger.NewTestLogger()
	tests := []struct {
		name    string
		mutate  func(*config.LLMConfig)
		wantErr error
	}{
		{name: "missing_api_key", mutate: func(c *config.LLMConfig) { c.GeminiAPIKey = "" }, wantErr: generation.ErrInvalidConfig},
		{name: "missing_model", mutate: func(c *config.LLMConfig) { c.ModelName = "" }, wantErr: generation.ErrInvalidConfig},
		{name: "negative_retries", mutate: func(c *config.LLMConfig) { c.MaxRetries = -1 }, wantErr: generation.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			tt.mutate(&cfg)
			inv, err := NewInvoker(context.Background(), log, cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, inv)
		})
	}

	t.Run("nil_logger", func(t *testing.T) {
		t.Parallel()
		inv, err := newInvoker(nil, &fakeModels{}, testConfig())
		assert.Error(t, err)
		assert.Nil(t, inv)
	})
}

func TestInvoke_Success(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse(`{"content":"Introducing...","hashtags":["#EcoFriendly","#Sustainability"]}`),
	}}
	inv := newTestInvoker(t, models, testConfig())

	reply, err := inv.Invoke(context.Background(), "Copy: bottle", outputDescriptor())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"content":  "Introducing...",
		"hashtags": []any{"#EcoFriendly", "#Sustainability"},
	}, reply)

	require.Equal(t, 1, models.calls)
	assert.Equal(t, "gemini-2.0-flash", models.models[0])
	assert.Equal(t, "Copy: bottle", models.prompts[0])

	cfg := models.configs[0]
	require.NotNil(t, cfg)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.ResponseSchema)
	assert.Equal(t, genai.TypeObject, cfg.ResponseSchema.Type)
	assert.Equal(t, []string{"content", "hashtags"}, cfg.ResponseSchema.Required)
	assert.Equal(t, []string{"content", "hashtags", "score"}, cfg.ResponseSchema.PropertyOrdering)
	assert.Equal(t, genai.TypeArray, cfg.ResponseSchema.Properties["hashtags"].Type)
	assert.Equal(t, genai.TypeString, cfg.ResponseSchema.Properties["hashtags"].Items.Type)
	assert.Equal(t, genai.TypeInteger, cfg.ResponseSchema.Properties["score"].Type)
	assert.Equal(t, "Post body.", cfg.ResponseSchema.Properties["content"].Description)
}

func TestInvoke_NumbersKeepIntegerForm(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []*genai.GenerateContentResponse{
		textResponse("```json\n{\"content\":\"c\",\"hashtags\":[],\"score\":7}\n```"),
	}}
	inv := newTestInvoker(t, models, testConfig())

	reply, err := inv.Invoke(context.Background(), "p", outputDescriptor())
	require.NoError(t, err)
	assert.Equal(t, json.Number("7"), reply.(map[string]any)["score"])
}

func TestInvoke_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	models := &fakeModels{
		errs: []error{
			genai.APIError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"},
			genai.APIError{Code: 503, Message: "unavailable", Status: "UNAVAILABLE"},
		},
		responses: []*genai.GenerateContentResponse{nil, nil, textResponse(`{"content":"ok","hashtags":[]}`)},
	}
	inv := newTestInvoker(t, models, testConfig())

	reply, err := inv.Invoke(context.Background(), "p", outputDescriptor())
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.(map[string]any)["content"])
	assert.Equal(t, 3, models.calls)
}

func TestInvoke_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	transient := genai.APIError{Code: 500, Message: "internal", Status: "INTERNAL"}
	models := &fakeModels{errs: []error{transient, transient, transient, transient}}
	inv := newTestInvoker(t, models, testConfig())

	_, err := inv.Invoke(context.Background(), "p", outputDescriptor())
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Contains(t, err.Error(), "exceeded maximum retry attempts (2)")
	assert.Equal(t, 3, models.calls, "one call plus two retries")
}

func TestInvoke_PermanentFailuresAreNotRetried(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		response *genai.GenerateContentResponse
		wantErr  error
	}{
		{
			name:    "bad_request",
			err:     genai.APIError{Code: 400, Message: "bad", Status: "INVALID_ARGUMENT"},
			wantErr: generation.ErrInvocationFailed,
		},
		{
			name:    "plain_transport_error",
			err:     errors.New("dial tcp: connection refused"),
			wantErr: generation.ErrInvocationFailed,
		},
		{
			name:    "nil_response",
			wantErr: generation.ErrInvalidResponse,
		},
		{
			name:     "no_candidates",
			response: &genai.GenerateContentResponse{},
			wantErr:  generation.ErrInvalidResponse,
		},
		{
			name: "safety_block",
			response: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonSafety,
			}}},
			wantErr: generation.ErrContentBlocked,
		},
		{
			name: "prompt_blocked",
			response: &genai.GenerateContentResponse{
				PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
			},
			wantErr: generation.ErrContentBlocked,
		},
		{
			name:     "not_json",
			response: textResponse("Sure! Here is your post."),
			wantErr:  generation.ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			models := &fakeModels{
				errs:      []error{tt.err},
				responses: []*genai.GenerateContentResponse{tt.response},
			}
			inv := newTestInvoker(t, models, testConfig())

			reply, err := inv.Invoke(context.Background(), "p", outputDescriptor())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, reply)
			assert.Equal(t, 1, models.calls)
		})
	}
}

func TestInvoke_EmptyPrompt(t *testing.T) {
	t.Parallel()

	models := &fakeModels{}
	inv := newTestInvoker(t, models, testConfig())

	_, err := inv.Invoke(context.Background(), "", outputDescriptor())
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.ErrorIs(t, err, generation.ErrInvocationFailed)
	assert.Zero(t, models.calls)
}

func TestInvoke_CancelledContext(t *testing.T) {
	t.Parallel()

	models := &fakeModels{}
	inv := newTestInvoker(t, models, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inv.Invoke(ctx, "p", outputDescriptor())
	assert.ErrorIs(t, err, generation.ErrInvocationFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, models.calls, "cancellation is not retried")
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, isTransient(genai.APIError{Code: 429}))
	assert.True(t, isTransient(&genai.APIError{Code: 502}))
	assert.True(t, isTransient(errors.Join(errors.New("wrapped"), genai.APIError{Code: 500})))
	assert.False(t, isTransient(genai.APIError{Code: 403}))
	assert.False(t, isTransient(errors.New("boom")))
}
