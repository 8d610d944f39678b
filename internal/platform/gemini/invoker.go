package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/phrazzld/copycraft-api/internal/config"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/schema"
	"google.golang.org/genai"
)

// modelsAPI is the part of *genai.Models the invoker uses.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Invoker implements the generation.Invoker interface using
// Google's Gemini API.
type Invoker struct {
	// logger is used for structured logging
	logger *slog.Logger

	// models issues GenerateContent calls
	models modelsAPI

	// model is the name of the Gemini model to use
	model string

	maxRetries int
	baseDelay  time.Duration
}

// Option customizes an Invoker.
type Option func(*Invoker)

// WithRetryDelay overrides the base backoff delay taken from configuration.
func WithRetryDelay(d time.Duration) Option {
	return func(inv *Invoker) { inv.baseDelay = d }
}

// NewInvoker creates a new Invoker backed by a Gemini API client.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name, and retry settings
//
// Returns:
//   - A properly initialized Invoker or an error if initialization fails
func NewInvoker(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig, opts ...Option) (*Invoker, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return newInvoker(logger, client.Models, cfg, opts...)
}

func newInvoker(logger *slog.Logger, models modelsAPI, cfg config.LLMConfig, opts ...Option) (*Invoker, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries cannot be negative", generation.ErrInvalidConfig)
	}

	inv := &Invoker{
		logger:     logger.With("provider", config.ProviderGemini, "model", cfg.ModelName),
		models:     models,
		model:      cfg.ModelName,
		maxRetries: cfg.MaxRetries,
		baseDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv, nil
}

// Invoke implements generation.Invoker. It makes up to maxRetries+1 calls,
// backing off exponentially with jitter between attempts. Only transient
// failures are retried.
func (g *Invoker) Invoke(ctx context.Context, prompt string, output *schema.Descriptor) (any, error) {
	if prompt == "" {
		return nil, fmt.Errorf("%w: %w", generation.ErrInvocationFailed, ErrEmptyPrompt)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(output),
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.DebugContext(ctx, "making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", g.maxRetries+1,
			"prompt_length", len(prompt))

		reply, err := g.call(ctx, prompt, cfg)
		if err == nil {
			g.logger.DebugContext(ctx, "Gemini API call successful", "attempt", attempt+1)
			return reply, nil
		}

		if !errors.Is(err, generation.ErrTransientFailure) || ctx.Err() != nil {
			g.logger.WarnContext(ctx, "Gemini API call failed", "attempt", attempt+1, "error", err)
			return nil, err
		}
		if attempt >= g.maxRetries {
			g.logger.WarnContext(ctx, "maximum retry attempts reached",
				"max_retries", g.maxRetries,
				"error", err)
			return nil, fmt.Errorf("exceeded maximum retry attempts (%d): %w", g.maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * [0.5, 1.0)
		backoff := float64(g.baseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))
		g.logger.InfoContext(ctx, "retrying Gemini API call after delay",
			"attempt", attempt+1,
			"delay", delay.String(),
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: cancelled during retry delay: %w", generation.ErrInvocationFailed, ctx.Err())
		}
	}
}

func (g *Invoker) call(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (any, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", generation.ErrInvocationFailed, ctx.Err())
		}
		if isTransient(err) {
			return nil, fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
		}
		return nil, fmt.Errorf("%w: %w", generation.ErrInvocationFailed, err)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}
	if blocked(resp.Candidates[0].FinishReason) {
		return nil, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, resp.Candidates[0].FinishReason)
	}
	if resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	return generation.DecodeReply(resp.Text())
}

func blocked(reason genai.FinishReason) bool {
	switch reason {
	case genai.FinishReasonSafety,
		genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent,
		genai.FinishReasonSPII:
		return true
	}
	return false
}

// isTransient reports whether err is a rate limit or server-side failure.
func isTransient(err error) bool {
	var code int
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	default:
		return false
	}
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= http.StatusInternalServerError
}
