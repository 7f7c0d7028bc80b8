package commands

import (
	"github.com/spf13/cobra"

	"github.com/comfyup/comfyup/cmd/comfyup/handlers"
)

// Report returns the command that prints a stored run report.
func Report(flags *logFlags) *cobra.Command {
	var (
		configPath string
		runID      string
	)

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Show a stored run report",
		Long: `Print the summary of a finished run.

The report is read from a local JSON file, or with --run from the S3
bucket configured in the run file.

Examples:
  comfyup report reports/last.json
  comfyup report --run 6f1c... -c sdxl.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			return handlers.ShowReport(cmd.Context(), handlers.ReportSource{
				Path:       path,
				RunID:      runID,
				ConfigPath: configPath,
			}, flags.options())
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run id to fetch from the configured S3 bucket")
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to run file holding the S3 settings")

	return cmd
}
