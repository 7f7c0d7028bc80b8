package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/orchestration"
)

// lookupEnv reads credentials for commands that have no run file.
var lookupEnv = os.LookupEnv

// Reboot runs the manager reboot cycle against a running workload.
// Credentials come from the environment; no run file is read.
func Reboot(ctx context.Context, node, workloadID string, logOpts LogOptions) error {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.ApplyEnv(lookupEnv)
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	observer := newObserver(logOpts)
	o := orchestration.New(cfg, orchestration.Attached(workloadFor(node, workloadID)), observer,
		orchestration.WithTimeouts(loadTimeouts()),
	)

	rep, err := o.RunReboot(ctx)
	if err != nil {
		return fmt.Errorf("reboot of %s failed: %w", node, err)
	}

	fmt.Fprintf(output, "Reboot of %s complete in %v\n", node, rep.Duration().Round(time.Millisecond))
	return nil
}
