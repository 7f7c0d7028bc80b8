package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// WizardResult holds the user's choices from the wizard.
type WizardResult struct {
	WorkloadType string
	Hours        string
	Nodes        string
	Models       string
	GitHubNodes  string
	ReportPath   string
}

// RunWizard asks for the items of a run file.
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{
		WorkloadType: DefaultWorkloadType,
		Hours:        "1",
		ReportPath:   "comfyup-report.json",
	}

	form := huh.NewForm(
		// Workload
		huh.NewGroup(
			huh.NewInput().
				Title("Workload type").
				Description("GPU class leased from Comput3").
				Placeholder(DefaultWorkloadType).
				Value(&result.WorkloadType).
				Validate(validateWorkloadType),
			huh.NewInput().
				Title("Lease duration (hours)").
				Placeholder("1").
				Value(&result.Hours).
				Validate(validateHours),
		),

		// Catalog items
		huh.NewGroup(
			huh.NewText().
				Title("Custom nodes").
				Description("One catalog query per line (id, title or repository)").
				Value(&result.Nodes),
			huh.NewText().
				Title("Models").
				Description("One catalog query per line (filename or display name)").
				Value(&result.Models),
		),

		// Extensions
		huh.NewGroup(
			huh.NewText().
				Title("GitHub extensions").
				Description("One repository URL per line").
				Value(&result.GitHubNodes).
				Validate(validateURLLines),
		),

		// Report
		huh.NewGroup(
			huh.NewInput().
				Title("Report file (optional)").
				Description("JSON summary written at the end of the run. Leave empty to skip.").
				Value(&result.ReportPath),
		),
	)

	if err := form.RunWithContext(ctx); err != nil {
		return nil, fmt.Errorf("wizard canceled: %w", err)
	}

	return result, nil
}

// ToConfig converts the wizard result to a run file.
func (r *WizardResult) ToConfig() (*Config, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(r.Hours), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid hours %q: %w", r.Hours, err)
	}

	cfg := &Config{
		Workload: WorkloadConfig{
			Type:  r.WorkloadType,
			Hours: hours,
		},
		Nodes:       splitLines(r.Nodes),
		Models:      splitLines(r.Models),
		GitHubNodes: splitLines(r.GitHubNodes),
		Report:      ReportConfig{Path: strings.TrimSpace(r.ReportPath)},
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateWorkloadType(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("workload type is required")
	}
	return nil
}

func validateHours(s string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("hours must be a number")
	}
	if h <= 0 {
		return fmt.Errorf("hours must be positive")
	}
	return nil
}

func validateURLLines(s string) error {
	for _, line := range splitLines(s) {
		if err := validateURL(line); err != nil {
			return err
		}
	}
	return nil
}

// splitLines returns the trimmed, non-empty lines of s.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
