package reboot

import (
	"fmt"

	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/readiness"
)

// Provisioner runs the reboot cycle as a pipeline phase.
type Provisioner struct{}

// NewProvisioner creates a reboot Provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements provisioning.Phase.
func (p *Provisioner) Name() string {
	return "reboot"
}

// Provision implements provisioning.Phase.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	c := NewController(ctx.Client, readiness.FromContext(ctx), ctx.Observer, Options{
		Timeouts: ctx.Timeouts,
		Backoff:  ctx.Backoff,
		Metrics:  ctx.Metrics,
	})
	if err := c.Run(ctx); err != nil {
		return fmt.Errorf("reboot stopped in phase %s: %w", c.Phase(), err)
	}
	ctx.State.Rebooted = true
	return nil
}
