package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/comfyup/comfyup/internal/platform/comput3"
	"github.com/comfyup/comfyup/internal/provisioning"
)

// launchPhase leases the workload and attaches a client to it.
type launchPhase struct{}

func newLaunchPhase() *launchPhase {
	return &launchPhase{}
}

func (p *launchPhase) Name() string {
	return "launch"
}

func (p *launchPhase) Provision(ctx *provisioning.Context) error {
	if ctx.Launcher == nil {
		return errors.New("no launcher configured")
	}
	w := ctx.Config.Workload
	ctx.Observer.Printf("[launch] Launching %s for %gh ...", w.Type, w.Hours)

	workload, err := ctx.Launcher.Launch(ctx, w.Type, w.Hours)
	if err != nil {
		return fmt.Errorf("failed to launch workload: %w", err)
	}
	ctx.Attach(workload)

	ctx.Observer.Printf("[launch] Workload %s on %s", workload.ID, workload.Node)
	ctx.Observer.Printf("[launch] API base: %s", workload.APIBase)
	return nil
}

// attachedLauncher hands out a workload that is already running.
type attachedLauncher struct {
	workload *comput3.Workload
}

// Attached returns a Launcher that does not lease anything and always
// returns w. It lets phases run against an existing workload.
func Attached(w *comput3.Workload) provisioning.Launcher {
	return &attachedLauncher{workload: w}
}

func (l *attachedLauncher) Launch(_ context.Context, _ string, _ float64) (*comput3.Workload, error) {
	return l.workload, nil
}
