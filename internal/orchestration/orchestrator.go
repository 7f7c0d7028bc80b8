package orchestration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/metrics"
	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/install"
	"github.com/comfyup/comfyup/internal/provisioning/readiness"
	"github.com/comfyup/comfyup/internal/provisioning/reboot"
	"github.com/comfyup/comfyup/internal/report"
)

// Orchestrator runs the provisioning workflow for one workload.
type Orchestrator struct {
	config   *config.Config
	launcher provisioning.Launcher
	observer provisioning.Observer

	runID         string
	timeouts      *config.Timeouts
	metrics       *metrics.Recorder
	clientOptions []comfy.Option
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRunID sets the run id. By default a random UUID is used.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithTimeouts replaces the timeouts loaded from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(o *Orchestrator) { o.timeouts = t }
}

// WithMetrics records run metrics into rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = rec }
}

// WithClientOptions applies opts to the workload client.
func WithClientOptions(opts ...comfy.Option) Option {
	return func(o *Orchestrator) { o.clientOptions = append(o.clientOptions, opts...) }
}

// New creates an Orchestrator.
func New(cfg *config.Config, launcher provisioning.Launcher, observer provisioning.Observer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		config:   cfg,
		launcher: launcher,
		observer: observer,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	return o
}

// RunID returns the id of the run.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// Phases returns the phases of a run in execution order.
func (o *Orchestrator) Phases() []provisioning.Phase {
	return []provisioning.Phase{
		newLaunchPhase(),
		readiness.NewProvisioner(),
		install.NewProvisioner(),
		reboot.NewProvisioner(),
		newURLModelPhase(),
	}
}

// Run executes every phase and returns the run report. The report is
// returned even when a phase fails; the error is the phase failure.
func (o *Orchestrator) Run(ctx context.Context) (*report.Report, error) {
	return o.run(ctx, o.Phases())
}

// RunReboot attaches to the workload and runs only the reboot cycle.
func (o *Orchestrator) RunReboot(ctx context.Context) (*report.Report, error) {
	return o.run(ctx, []provisioning.Phase{newLaunchPhase(), reboot.NewProvisioner()})
}

func (o *Orchestrator) run(ctx context.Context, phases []provisioning.Phase) (*report.Report, error) {
	pCtx := provisioning.NewContext(ctx, o.config, o.launcher, o.observer.WithFields(map[string]string{"run": o.runID}), o.runID)
	if o.timeouts != nil {
		pCtx.Timeouts = o.timeouts
	}
	pCtx.Metrics = o.metrics
	pCtx.ClientOptions = o.clientOptions

	err := provisioning.NewPipeline(phases...).Run(pCtx)
	return report.FromState(pCtx.State, err, time.Now()), err
}
