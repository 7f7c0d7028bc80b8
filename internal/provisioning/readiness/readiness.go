// Package readiness decides whether a ComfyUI workload is usable.
//
// The service is ready when the mandatory /queue endpoint answers 200 and at
// least one of the catalog listings does too. Manager builds differ in
// which listings they expose, so any one of them is enough.
package readiness

import (
	"context"
	"fmt"
	"time"

	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/util/poll"
)

// Probe paths, relative to the API base.
const (
	PathCustomNodeList    = "/customnode/getlist?mode=cache&skip_update=true"
	PathExternalModelList = "/externalmodel/getlist?mode=cache&skip_update=true"
	PathModelList         = "/model/getlist?mode=cache&skip_update=true"
)

// alternatives are the capability listings; one 200 among them suffices.
var alternatives = []string{PathCustomNodeList, PathExternalModelList, PathModelList}

// Getter issues GET requests against a workload. Implemented by comfy.Client.
type Getter interface {
	Get(ctx context.Context, url string) (*comfy.Response, error)
	APIURL(path string) string
}

// Prober polls a workload until it is ready.
type Prober struct {
	client      Getter
	observer    provisioning.Observer
	interval    time.Duration
	maxInterval time.Duration
	multiplier  float64
}

// Option configures a Prober.
type Option func(*Prober)

// WithBackoff overrides the poll cadence.
func WithBackoff(interval, maxInterval time.Duration, multiplier float64) Option {
	return func(p *Prober) {
		p.interval = interval
		p.maxInterval = maxInterval
		p.multiplier = multiplier
	}
}

// NewProber creates a Prober. Polls start at 1.5s and grow by 1.7x up to 10s.
func NewProber(client Getter, observer provisioning.Observer, opts ...Option) *Prober {
	p := &Prober{
		client:      client,
		observer:    observer,
		interval:    1500 * time.Millisecond,
		maxInterval: 10 * time.Second,
		multiplier:  1.7,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe is the outcome of one readiness check.
type Probe struct {
	Queue         int
	CustomNode    int
	ExternalModel int
	Model         int
}

// Ready reports whether the probe satisfies the any-of predicate.
func (p Probe) Ready() bool {
	return p.Queue == 200 && (p.CustomNode == 200 || p.ExternalModel == 200 || p.Model == 200)
}

func (p Probe) String() string {
	return fmt.Sprintf("queue=%d, customnode=%d, externalmodel=%d, model=%d",
		p.Queue, p.CustomNode, p.ExternalModel, p.Model)
}

// Check runs a single probe. Transport errors count as status 0.
func (p *Prober) Check(ctx context.Context) Probe {
	queue := p.status(ctx, comfy.PathQueue)
	codes := make([]int, len(alternatives))
	for i, path := range alternatives {
		codes[i] = p.status(ctx, path)
	}
	return Probe{
		Queue:         queue,
		CustomNode:    codes[0],
		ExternalModel: codes[1],
		Model:         codes[2],
	}
}

func (p *Prober) status(ctx context.Context, path string) int {
	resp, err := p.client.Get(ctx, p.client.APIURL(path))
	if err != nil {
		return 0
	}
	return resp.StatusCode
}

// WaitReady sleeps initialSleep unconditionally, then probes until the
// service is ready or timeout elapses.
//
// Running out of time is not an error: WaitReady returns (false, nil) and
// the caller decides whether a degraded start is acceptable. An error is
// returned only when ctx is cancelled.
func (p *Prober) WaitReady(ctx context.Context, initialSleep, timeout time.Duration) (bool, error) {
	if initialSleep > 0 {
		p.observer.Printf("[ready] Initial sleep %v to let the node boot ...", initialSleep)
		if err := poll.Sleep(ctx, initialSleep); err != nil {
			return false, err
		}
	}

	cfg := poll.Config{
		Interval:    p.interval,
		Multiplier:  p.multiplier,
		MaxInterval: p.maxInterval,
		Timeout:     timeout,
	}
	ready, err := poll.Until(ctx, cfg, func(ctx context.Context, attempt int) (bool, error) {
		probe := p.Check(ctx)
		if probe.Ready() {
			p.observer.Printf("[ready] API is up (%s)", probe)
			return true, nil
		}
		p.observer.Debugf("[ready] warming (attempt %d): %s", attempt, probe)
		return false, ctx.Err()
	})
	if err != nil {
		return false, err
	}
	if !ready {
		p.observer.Warnf("[ready] Timed out after %v waiting for ComfyUI Manager", timeout)
	}
	return ready, nil
}
