package commands

import (
	"github.com/spf13/cobra"

	"github.com/comfyup/comfyup/cmd/comfyup/handlers"
)

// Resolve returns the command that shows which catalog entries a run file
// would install, without installing anything.
func Resolve(flags *logFlags) *cobra.Command {
	var (
		configPath string
		node       string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Match run file queries against a workload's catalog",
		Long: `Fetch the manager catalog of a running workload and show the entry
each node and model query resolves to. Nothing is installed.

Examples:
  comfyup resolve --node abc123 -c sdxl.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Resolve(cmd.Context(), configPath, node, flags.options())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to run file")
	cmd.Flags().StringVar(&node, "node", "", "Node name of the running workload")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}
