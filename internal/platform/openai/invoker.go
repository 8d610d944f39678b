package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/phrazzld/copycraft-api/internal/config"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
)

const finishReasonContentFilter = "content_filter"

var invalidSchemaName = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Invoker implements generation.Invoker using OpenAI chat completions.
type Invoker struct {
	logger *slog.Logger
	client openai.Client
	model  string
}

// NewInvoker creates an Invoker from LLM configuration. Extra request options
// are appended after the ones derived from cfg.
func NewInvoker(logger *slog.Logger, cfg config.LLMConfig, opts ...option.RequestOption) (*Invoker, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: openai API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries cannot be negative", generation.ErrInvalidConfig)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.OpenAIBaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	return &Invoker{
		logger: logger.With("provider", config.ProviderOpenAI, "model", cfg.ModelName),
		client: openai.NewClient(reqOpts...),
		model:  cfg.ModelName,
	}, nil
}

// Invoke implements generation.Invoker. Retries of rate limits and server
// errors are left to the SDK.
func (o *Invoker) Invoke(ctx context.Context, prompt string, output *schema.Descriptor) (any, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt cannot be empty", generation.ErrInvocationFailed)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}
	if output != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName(output),
					Schema: output.JSONSchema(),
				},
			},
		}
	}

	o.logger.DebugContext(ctx, "making OpenAI API call", "prompt_length", len(prompt))
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		err = classify(ctx, err)
		o.logger.WarnContext(ctx, "OpenAI API call failed", "error", err)
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", generation.ErrInvalidResponse)
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", generation.ErrContentBlocked, choice.Message.Refusal)
	}
	if choice.FinishReason == finishReasonContentFilter {
		return nil, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, choice.FinishReason)
	}

	o.logger.DebugContext(ctx, "OpenAI API call successful",
		"finish_reason", choice.FinishReason,
		"total_tokens", resp.Usage.TotalTokens)
	return generation.DecodeReply(choice.Message.Content)
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", generation.ErrInvocationFailed, ctx.Err())
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		code := apiErr.StatusCode
		if code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
		}
	}
	return fmt.Errorf("%w: %w", generation.ErrInvocationFailed, err)
}

func schemaName(d *schema.Descriptor) string {
	name := invalidSchemaName.ReplaceAllString(d.Title, "_")
	if name == "" {
		return "reply"
	}
	return name
}
