// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/metrics"
	"github.com/comfyup/comfyup/internal/orchestration"
	"github.com/comfyup/comfyup/internal/platform/comput3"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/report"
)

// LogOptions are the logging flags shared by every command.
type LogOptions struct {
	Verbose bool
	JSON    bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads and validates a run file.
	loadConfigFile = config.LoadFile

	// loadTimeouts reads the run budgets from the environment.
	loadTimeouts = config.LoadTimeouts

	// newLauncher creates the Comput3 client that leases workloads.
	newLauncher = func(apiKey string) provisioning.Launcher {
		return comput3.NewClient(apiKey)
	}

	// workloadFor builds the handle of an already running workload.
	workloadFor = comput3.WorkloadFor

	// newObserver creates the console observer.
	newObserver = func(opts LogOptions) provisioning.Observer {
		return provisioning.NewConsoleObserver(provisioning.ConsoleOptions{
			Verbose: opts.Verbose,
			JSON:    opts.JSON,
		})
	}

	// openSinks opens the report sinks of a run file.
	openSinks = report.Sinks

	// output receives summaries and tables.
	output io.Writer = os.Stdout
)

// Run leases a workload and provisions it as described by the run file.
//
// The summary is printed and the report written even when the run fails,
// so a partial run can be inspected. Report and metrics failures are
// logged as warnings and never change the result of the run.
func Run(ctx context.Context, configPath string, logOpts LogOptions) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	observer := newObserver(logOpts)
	rec := metrics.NewRecorder()
	o := orchestration.New(cfg, newLauncher(cfg.APIKey), observer,
		orchestration.WithTimeouts(loadTimeouts()),
		orchestration.WithMetrics(rec),
	)

	observer.Printf("Run %s: %d items on %s for %gh", o.RunID(), cfg.ItemCount(), cfg.Workload.Type, cfg.Workload.Hours)
	rep, runErr := o.Run(ctx)

	fmt.Fprint(output, renderSummary(rep))

	if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
		observer.Warnf("%v", err)
	}
	if err := writeReport(context.WithoutCancel(ctx), rep, cfg.Report, observer); err != nil {
		observer.Warnf("failed to write report: %v", err)
	}
	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", rep.RunID, runErr)
	}
	return nil
}

func writeReport(ctx context.Context, rep *report.Report, cfg config.ReportConfig, observer provisioning.Observer) error {
	sinks, err := openSinks(ctx, cfg)
	if err != nil {
		return err
	}
	return report.WriteAll(ctx, rep, sinks, observer)
}
