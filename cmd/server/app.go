package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/copycraft-api/internal/config"
	"github.com/phrazzld/copycraft-api/internal/marketing"
	"github.com/phrazzld/copycraft-api/internal/platform/llm"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// llm owns the composed invoker and the reply cache behind it
	llm   *llm.Stack
	suite *marketing.Suite
}

// newApplication wires the configured model provider into the flow suite.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	stack, err := llm.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create model invoker: %w", err)
	}

	suite, err := marketing.NewSuite(stack.Invoker)
	if err != nil {
		_ = stack.Close()
		return nil, fmt.Errorf("failed to create flow suite: %w", err)
	}

	return &application{
		config: cfg,
		logger: logger,
		llm:    stack,
		suite:  suite,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.llm == nil {
		return
	}
	if err := app.llm.Close(); err != nil {
		app.logger.Error("failed to close model invoker", "error", err)
	}
}
