package commands

import (
	"github.com/spf13/cobra"

	"github.com/comfyup/comfyup/cmd/comfyup/handlers"
)

// Init returns the command for interactively creating a run file.
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a run file",
		Long: `Interactively create a run file.

The wizard asks for the workload type and lease length, then the custom
nodes, models and GitHub extensions to install. URL models and report
sinks can be added to the generated file by hand.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", defaultConfigPath, "Output file path")

	return cmd
}
