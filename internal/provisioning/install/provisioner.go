package install

import (
	"context"
	"errors"
	"time"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/catalog"
)

// Outcome classifies an install attempt.
func Outcome(res Result, err error) provisioning.Outcome {
	switch {
	case errors.Is(err, catalog.ErrNoMatch):
		return provisioning.OutcomeSkipped
	case err != nil, !res.Accepted:
		return provisioning.OutcomeFailed
	case !res.Done:
		return provisioning.OutcomeTimeout
	}
	return provisioning.OutcomeInstalled
}

// ItemResult converts an install attempt into a recorded item.
func ItemResult(kind provisioning.ItemKind, name string, res Result, err error, elapsed time.Duration) provisioning.ItemResult {
	detail := res.Detail
	if err != nil {
		detail = err.Error()
	}
	return provisioning.ItemResult{
		Kind:     kind,
		Name:     name,
		Outcome:  Outcome(res, err),
		Detail:   detail,
		Match:    res.Match,
		Score:    res.Score,
		Duration: elapsed,
	}
}

// Provisioner installs the requested nodes and models, the required
// extension and the requested GitHub extensions, in that order.
//
// A failing item is recorded and the next one is attempted. Only a
// cancelled context stops the phase.
type Provisioner struct{}

// NewProvisioner creates an install Provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements provisioning.Phase.
func (p *Provisioner) Name() string {
	return "install"
}

type step struct {
	phase string
	kind  provisioning.ItemKind
	name  string
	run   func(ctx context.Context) (Result, error)
}

// Provision implements provisioning.Phase.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	c := FromContext(ctx)
	cfg := ctx.Config

	var steps []step
	for _, q := range cfg.Nodes {
		steps = append(steps, step{"nodes", provisioning.KindNode, q, func(ctx context.Context) (Result, error) {
			return c.InstallNode(ctx, q)
		}})
	}
	for _, q := range cfg.Models {
		steps = append(steps, step{"models", provisioning.KindModel, q, func(ctx context.Context) (Result, error) {
			return c.InstallModel(ctx, q)
		}})
	}
	for _, u := range append([]string{config.RequiredExtensionURL}, cfg.GitHubNodes...) {
		steps = append(steps, step{"github-node", provisioning.KindExtension, u, func(ctx context.Context) (Result, error) {
			return c.InstallFromGit(ctx, u)
		}})
	}

	ctx.Observer.Printf("[install] nodes: %s", provisioning.JoinNames(cfg.Nodes))
	ctx.Observer.Printf("[install] models: %s", provisioning.JoinNames(cfg.Models))
	ctx.Observer.Printf("[install] github: %s", provisioning.JoinNames(cfg.GitHubNodes))

	for i, s := range steps {
		ctx.Observer.Progress(p.Name(), i+1, len(steps))
		start := time.Now()
		res, err := s.run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && !errors.Is(err, catalog.ErrNoMatch) {
			ctx.Observer.Warnf("[%s] %s: %v", s.phase, s.name, err)
		}
		ctx.RecordItem(s.phase, ItemResult(s.kind, s.name, res, err, time.Since(start)))
	}
	return nil
}
