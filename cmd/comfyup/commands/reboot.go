package commands

import (
	"github.com/spf13/cobra"

	"github.com/comfyup/comfyup/cmd/comfyup/handlers"
)

// Reboot returns the command that runs the manager reboot cycle against a
// running workload.
func Reboot(flags *logFlags) *cobra.Command {
	var (
		node     string
		workload string
	)

	cmd := &cobra.Command{
		Use:   "reboot",
		Short: "Reboot the manager of a running workload",
		Long: `Request a manager reboot, wait for the service to go down and come
back, and wait until it is ready again.

Examples:
  comfyup reboot --node abc123`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Reboot(cmd.Context(), node, workload, flags.options())
		},
	}

	cmd.Flags().StringVar(&node, "node", "", "Node name of the running workload")
	cmd.Flags().StringVar(&workload, "workload", "", "Workload id, for the report only")
	_ = cmd.MarkFlagRequired("node")

	return cmd
}
