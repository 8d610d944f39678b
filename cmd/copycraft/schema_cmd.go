package main

import (
	"encoding/json"
	"fmt"

	"github.com/phrazzld/copycraft-api/internal/marketing"
	"github.com/spf13/cobra"
)

// flowAliases lets schema accept the subcommand names as well as flow names.
var flowAliases = map[string]string{
	"ad-copy": marketing.AdCopyFlowName,
	"social":  marketing.SocialMediaFlowName,
	"seo":     marketing.SEOFlowName,
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema FLOW",
		Short: "Print the input and output JSON schemas of a flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if alias, ok := flowAliases[name]; ok {
				name = alias
			}
			info, ok := marketing.FlowByName(name)
			if !ok {
				return fmt.Errorf("%w: %q", marketing.ErrUnknownFlow, args[0])
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"name":   info.Name,
				"input":  info.Input.JSONSchema(),
				"output": info.Output.JSONSchema(),
			})
		},
	}
}
