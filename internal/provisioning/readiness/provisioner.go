package readiness

import (
	"time"

	"github.com/comfyup/comfyup/internal/provisioning"
)

// FromContext builds a Prober for the workload attached to pctx, polling
// at the run's readiness cadence.
func FromContext(pctx *provisioning.Context) *Prober {
	t := pctx.Timeouts
	return NewProber(pctx.Client, pctx.Observer, WithBackoff(t.ReadyPoll, t.ReadyPollMax, t.RetryMultiplier))
}

// Provisioner waits for a freshly launched workload to come up.
type Provisioner struct{}

// NewProvisioner creates a readiness Provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements provisioning.Phase.
func (p *Provisioner) Name() string {
	return "readiness"
}

// Provision implements provisioning.Phase. A workload that never becomes
// ready is only a warning; the install phases run against it anyway.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	start := time.Now()
	ready, err := FromContext(ctx).WaitReady(ctx, ctx.Timeouts.InitialBoot, ctx.Timeouts.Ready)
	ctx.Metrics.RecordWait("ready", time.Since(start), ready)
	if err != nil {
		return err
	}

	ctx.State.Ready = ready
	if !ready {
		ctx.Observer.Warnf("[ready] Proceeding with a workload that did not pass readiness")
	}
	return nil
}
