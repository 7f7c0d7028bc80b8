// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comfyup/comfyup/cmd/comfyup/handlers"
)

// Log formats accepted by --log-format.
const (
	logFormatConsole = "console"
	logFormatJSON    = "json"
)

// logFlags are the persistent logging flags shared by every command.
type logFlags struct {
	verbose bool
	format  string
}

func (f *logFlags) options() handlers.LogOptions {
	return handlers.LogOptions{Verbose: f.verbose, JSON: f.format == logFormatJSON}
}

// Root returns the root command for the comfyup CLI.
func Root() *cobra.Command {
	flags := &logFlags{}

	cmd := &cobra.Command{
		Use:           "comfyup",
		Short:         "Provision ComfyUI workloads on Comput3",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			switch flags.format {
			case logFormatConsole, logFormatJSON:
				return nil
			}
			return fmt.Errorf("invalid --log-format %q: want %s or %s", flags.format, logFormatConsole, logFormatJSON)
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug output")
	cmd.PersistentFlags().StringVar(&flags.format, "log-format", logFormatConsole, "Log format: console or json")

	// Core commands
	cmd.AddCommand(Run(flags))
	cmd.AddCommand(Resolve(flags))
	cmd.AddCommand(Reboot(flags))
	cmd.AddCommand(Init())
	cmd.AddCommand(Report(flags))

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
