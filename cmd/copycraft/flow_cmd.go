package main

import (
	"context"

	"github.com/phrazzld/copycraft-api/internal/marketing"
	"github.com/spf13/cobra"
)

type opener func(ctx context.Context) (*marketing.Suite, func() error, error)

// newFlowCmd builds the command that runs a single flow.
func newFlowCmd(use, flowName, short string, open opener) *cobra.Command {
	var (
		input  string
		format string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			payload, err := readPayload(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			suite, closeSuite, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = closeSuite() }()

			result, err := suite.Run(cmd.Context(), flowName, payload)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), format, result)
		},
	}
	addPayloadFlags(cmd, &input, &format)
	return cmd
}

func addPayloadFlags(cmd *cobra.Command, input, format *string) {
	cmd.Flags().StringVarP(input, "input", "i", "", "payload file in YAML or JSON, or - for stdin")
	cmd.Flags().StringVarP(format, "format", "f", formatJSON, "output format: json, markdown or html")
	_ = cmd.MarkFlagRequired("input")
}
