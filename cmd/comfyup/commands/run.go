package commands

import (
	"github.com/spf13/cobra"

	"github.com/comfyup/comfyup/cmd/comfyup/handlers"
)

// defaultConfigPath is used when --config is not given.
const defaultConfigPath = "comfyup.yaml"

// Run returns the command that leases and provisions a workload.
//
// Environment variables:
//
//	COMPUT3_API_KEY: Comput3 API key (required)
//	COMFY_USER_KEY: ComfyUI user key (defaults to the API key)
func Run(flags *logFlags) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch a workload and provision it",
		Long: `Launch a ComfyUI workload on Comput3 and provision it.

The run waits for the service to come up, installs the requested custom
nodes, models and GitHub extensions, reboots the manager and finally
installs models fetched by URL. A summary of every item is printed at
the end and the report is written to the configured sinks.

Examples:
  # Provision using comfyup.yaml in the current directory
  comfyup run

  # Provision using a specific run file
  comfyup run -c sdxl.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), configPath, flags.options())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to run file")

	return cmd
}
