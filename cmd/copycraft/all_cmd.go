package main

import (
	"fmt"
	"sync"

	"github.com/phrazzld/copycraft-api/internal/marketing"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// newAllCmd builds the command that runs every flow with a section in the
// payload file. Sections are keyed by flow name and run concurrently.
func newAllCmd(open opener) *cobra.Command {
	var (
		input  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run every flow that has a section in the payload file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			payload, err := readPayload(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			sections, ok := payload.(map[string]any)
			if !ok {
				return fmt.Errorf("%w: top level must be a mapping of flow name to payload", ErrInvalidPayload)
			}
			if err := checkSections(sections); err != nil {
				return err
			}

			suite, closeSuite, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeSuite() }()

			var (
				mu      sync.Mutex
				results = make(map[string]any, len(sections))
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			for _, info := range marketing.Flows() {
				section, ok := sections[info.Name]
				if !ok {
					continue
				}
				g.Go(func() error {
					result, err := suite.Run(ctx, info.Name, section)
					if err != nil {
						return err
					}
					mu.Lock()
					results[info.Name] = result
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), format, results)
		},
	}
	addPayloadFlags(cmd, &input, &format)
	return cmd
}

// checkSections rejects section names that are not flows.
func checkSections(sections map[string]any) error {
	if len(sections) == 0 {
		return fmt.Errorf("%w: no flow sections found", ErrInvalidPayload)
	}
	for name := range sections {
		if _, ok := marketing.FlowByName(name); !ok {
			return fmt.Errorf("%w: %q", marketing.ErrUnknownFlow, name)
		}
	}
	return nil
}
