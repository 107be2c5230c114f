package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Execute runs the swaggerwrap CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command so tests can exercise the CLI easily.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swaggerwrap",
		Short: "Synthesize request routes from Swagger 2.0 documents",
		Long: "swaggerwrap loads a Swagger 2.0 document, synthesizes its route table with " +
			"parameter validation and stub controllers, and scaffolds Go controller code.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Config file path (YAML or JSON)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging output")

	for _, sub := range []*cobra.Command{cmd, newRoutesCmd(), newHandlersCmd(), newInitCmd()} {
		// Unknown flags and bad values become usage errors that carry the help text.
		sub.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
			return newUsageError(fmt.Sprintf("%v\n\n%s", err, c.UsageString()))
		})
		if sub != cmd {
			cmd.AddCommand(sub)
		}
	}

	return cmd
}
