// Package llm assembles the configured model provider and its collaborators
// (timeout, concurrency limit, reply cache) into one generation.Invoker.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/copycraft-api/internal/config"
	"github.com/phrazzld/copycraft-api/internal/generation"
	"github.com/phrazzld/copycraft-api/internal/platform/gemini"
	"github.com/phrazzld/copycraft-api/internal/platform/openai"
	"github.com/phrazzld/copycraft-api/internal/platform/sqlite"
)

// Stack is a composed invoker plus the resources it holds.
type Stack struct {
	Invoker generation.Invoker
	cache   *sqlite.ReplyCache
}

// New builds the provider named by cfg.LLM.Provider and composes it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	var base generation.Invoker
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		inv, err := gemini.NewInvoker(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini invoker: %w", err)
		}
		base = inv
	case config.ProviderOpenAI:
		inv, err := openai.NewInvoker(logger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI invoker: %w", err)
		}
		base = inv
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", generation.ErrInvalidConfig, cfg.LLM.Provider)
	}

	logger.InfoContext(ctx, "model provider configured",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.ModelName)
	return Compose(ctx, base, cfg, logger)
}

// Compose wraps base with the collaborators enabled in cfg. Cache hits skip
// the concurrency limit, and slot waiting does not count against the
// per-call timeout.
func Compose(ctx context.Context, base generation.Invoker, cfg *config.Config, logger *slog.Logger) (*Stack, error) {
	inv := generation.WithTimeout(base, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
	inv = generation.WithConcurrencyLimit(inv, cfg.LLM.MaxConcurrentCalls)

	stack := &Stack{}
	if cfg.Cache.Enabled {
		cache, err := sqlite.Open(ctx, cfg.Cache.Path, time.Duration(cfg.Cache.TTLMinutes)*time.Minute, logger,
			sqlite.WithScope(cfg.LLM.Provider, cfg.LLM.ModelName))
		if err != nil {
			return nil, fmt.Errorf("failed to open reply cache: %w", err)
		}
		if removed, err := cache.Purge(ctx); err != nil {
			logger.WarnContext(ctx, "failed to purge reply cache", "error", err)
		} else if removed > 0 {
			logger.InfoContext(ctx, "purged expired cache entries", "removed", removed)
		}
		stack.cache = cache
		inv = cache.Wrap(inv)
	}

	stack.Invoker = inv
	return stack, nil
}

// Close releases the reply cache, if one is open.
func (s *Stack) Close() error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Close()
}
