package handlers

import (
	"context"
	"fmt"

	"github.com/comfyup/comfyup/internal/config"
)

// Factory function variables for init - can be replaced in tests.
var (
	fileExists       = config.FileExists
	confirmOverwrite = config.ConfirmOverwrite
	runWizard        = config.RunWizard
	writeConfig      = config.WriteYAML
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return fmt.Errorf("wizard canceled: %w", err)
		}
		if !ok {
			fmt.Fprintln(output, "Aborted; existing file kept.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg, err := result.ToConfig()
	if err != nil {
		return fmt.Errorf("invalid answers: %w", err)
	}

	if err := writeConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

func printWelcome() {
	fmt.Fprintln(output)
	fmt.Fprintln(output, "comfyup - ComfyUI on Comput3")
	fmt.Fprintln(output, "============================")
	fmt.Fprintln(output)
	fmt.Fprintln(output, "This wizard creates a run file for one provisioning run.")
	fmt.Fprintln(output)
}

func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Fprintln(output)
	fmt.Fprintln(output, "Run file saved!")
	fmt.Fprintln(output)
	fmt.Fprintf(output, "  File: %s\n", outputPath)
	fmt.Fprintln(output)

	fmt.Fprintln(output, "Run Summary")
	fmt.Fprintln(output, "-----------")
	fmt.Fprintf(output, "  Workload:     %s for %gh\n", cfg.Workload.Type, cfg.Workload.Hours)
	fmt.Fprintf(output, "  Nodes:        %d\n", len(cfg.Nodes))
	fmt.Fprintf(output, "  Models:       %d\n", len(cfg.Models))
	fmt.Fprintf(output, "  Extensions:   %d (+ model downloader)\n", len(cfg.GitHubNodes))
	if cfg.Report.Path != "" {
		fmt.Fprintf(output, "  Report:       %s\n", cfg.Report.Path)
	}
	fmt.Fprintln(output)

	fmt.Fprintln(output, "Next Steps")
	fmt.Fprintln(output, "----------")
	fmt.Fprintln(output, "  1. Set your Comput3 API key:")
	fmt.Fprintf(output, "     export %s=<your-key>\n", config.EnvAPIKey)
	fmt.Fprintln(output)
	fmt.Fprintln(output, "  2. Provision the workload:")
	fmt.Fprintf(output, "     comfyup run -c %s\n", outputPath)
	fmt.Fprintln(output)
}
