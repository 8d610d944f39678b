// Package main implements the copycraft command, which runs the marketing
// flows from payload files and prints the results.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/copycraft-api/internal/config"
	"github.com/phrazzld/copycraft-api/internal/flow"
	"github.com/phrazzld/copycraft-api/internal/marketing"
	"github.com/phrazzld/copycraft-api/internal/platform/llm"
	"github.com/phrazzld/copycraft-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

// suiteOpener builds the flow suite for one command run. The returned
// function releases whatever the suite holds.
type suiteOpener func(ctx context.Context, configPath string) (*marketing.Suite, func() error, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(openSuite).ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(os.Stderr, err))
}

// exitCode reports err on w and returns the process exit status.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	var fe *flow.Error
	if errors.As(err, &fe) {
		fmt.Fprintf(w, "copycraft: %s: %v\n", flow.KindName(err), err)
	} else {
		fmt.Fprintf(w, "copycraft: %v\n", err)
	}
	return 1
}

func newRootCmd(open suiteOpener) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "copycraft",
		Short:         "Generate marketing copy with a language model",
		Long:          "Runs the ad copy, social media and SEO flows against the configured model provider.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default ./config.yaml if present)")

	openConfigured := func(ctx context.Context) (*marketing.Suite, func() error, error) {
		return open(ctx, configPath)
	}

	root.AddCommand(
		newFlowCmd("ad-copy", marketing.AdCopyFlowName, "Generate ad copy variations for a target audience", openConfigured),
		newFlowCmd("social", marketing.SocialMediaFlowName, "Turn marketing copy into a social media post", openConfigured),
		newFlowCmd("seo", marketing.SEOFlowName, "Suggest SEO keywords and page metadata", openConfigured),
		newAllCmd(openConfigured),
		newSchemaCmd(),
	)
	return root
}

// openSuite loads configuration and builds the provider stack. Logs go to
// stderr so stdout carries only results.
func openSuite(ctx context.Context, configPath string) (*marketing.Suite, func() error, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.SetupWithWriter(os.Stderr, cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	stack, err := llm.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model invoker: %w", err)
	}

	suite, err := marketing.NewSuite(stack.Invoker)
	if err != nil {
		_ = stack.Close()
		return nil, nil, fmt.Errorf("failed to create flow suite: %w", err)
	}
	return suite, stack.Close, nil
}
