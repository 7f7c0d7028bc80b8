package install

import (
	"context"
	"fmt"
	"time"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/metrics"
	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/provisioning/catalog"
	"github.com/comfyup/comfyup/internal/util/poll"
	"github.com/comfyup/comfyup/internal/util/retry"
)

// Manager install endpoints, relative to the API base.
const (
	PathQueueInstall      = "/manager/queue/install"
	PathQueueInstallModel = "/manager/queue/install_model"
	PathGitInstall        = "/customnode/install/git_url"
)

// Options configures a Coordinator.
type Options struct {
	Timeouts *config.Timeouts
	Backoff  provisioning.BackoffFunc
	Metrics  *metrics.Recorder
}

// Coordinator runs queue installs against one workload.
type Coordinator struct {
	client   *comfy.Client
	catalog  *catalog.Fetcher
	observer provisioning.Observer
	timeouts *config.Timeouts
	backoff  provisioning.BackoffFunc
	metrics  *metrics.Recorder
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(client *comfy.Client, observer provisioning.Observer, opts Options) *Coordinator {
	if opts.Timeouts == nil {
		opts.Timeouts = config.LoadTimeouts()
	}
	if opts.Backoff == nil {
		opts.Backoff = provisioning.CadenceBackoff(opts.Timeouts)
	}
	return &Coordinator{
		client:   client,
		catalog:  catalog.NewFetcher(client, observer),
		observer: observer,
		timeouts: opts.Timeouts,
		backoff:  opts.Backoff,
		metrics:  opts.Metrics,
	}
}

// FromContext builds a Coordinator for the workload attached to pctx.
func FromContext(pctx *provisioning.Context) *Coordinator {
	return NewCoordinator(pctx.Client, pctx.Observer, Options{
		Timeouts: pctx.Timeouts,
		Backoff:  pctx.Backoff,
		Metrics:  pctx.Metrics,
	})
}

// Request is one queue install.
type Request struct {
	// Operation labels logs and metrics, e.g. "node" or "model".
	Operation string
	// Path is the enqueue endpoint relative to the API base.
	Path        string
	Body        []byte
	ContentType string
	// IdleTimeout bounds the wait for the queue to drain.
	IdleTimeout time.Duration
}

// queueOutcome separates an enqueue that was never accepted from a queue
// that did not drain in time.
type queueOutcome struct {
	accepted bool
	idle     bool
}

func (o queueOutcome) done() bool {
	return o.accepted && o.idle
}

func (o queueOutcome) detail() string {
	switch {
	case !o.accepted:
		return "enqueue not accepted after retries"
	case !o.idle:
		return "queue did not drain in time"
	}
	return ""
}

// InstallViaQueue runs the reset, enqueue, start, wait-idle protocol.
//
// It returns true only when the queue was seen idle before the timeout.
// Exhausted retries and drain timeouts return (false, nil). A status
// outside the transient set aborts with a *retry.StatusError.
func (c *Coordinator) InstallViaQueue(ctx context.Context, req Request) (bool, error) {
	out, err := c.installViaQueue(ctx, req)
	return out.done(), err
}

func (c *Coordinator) installViaQueue(ctx context.Context, req Request) (queueOutcome, error) {
	c.client.ResetQueue(ctx)

	contentType := req.ContentType
	if contentType == "" {
		contentType = comfy.ContentTypeText
	}
	url := c.client.APIURL(req.Path)

	accepted, err := retry.UntilAccepted(ctx, func(ctx context.Context) (int, string, error) {
		return comfy.Status(c.client.Post(ctx, url, req.Body, contentType))
	}, c.backoff(req.Operation+" enqueue", c.timeouts.EnqueueAttempts)...)
	if err != nil {
		return queueOutcome{}, fmt.Errorf("[%s] enqueue failed: %w", req.Operation, err)
	}
	if !accepted {
		c.observer.Warnf("[%s] enqueue failed after retries", req.Operation)
		return queueOutcome{}, nil
	}

	c.client.StartQueue(ctx)
	idle, err := c.WaitIdle(ctx, req.IdleTimeout)
	if err != nil {
		return queueOutcome{accepted: true}, err
	}
	return queueOutcome{accepted: true, idle: idle}, nil
}

// WaitIdle polls the queue status until nothing is processing and nothing
// is in progress. Unreadable snapshots count as busy. A timeout returns
// (false, nil).
func (c *Coordinator) WaitIdle(ctx context.Context, timeout time.Duration) (bool, error) {
	start := time.Now()
	idle, err := poll.Until(ctx, poll.Fixed(c.timeouts.QueuePoll, timeout), func(ctx context.Context, _ int) (bool, error) {
		state, err := c.client.QueueStatus(ctx)
		if err != nil {
			return false, ctx.Err()
		}
		return state.Idle(), nil
	})
	c.metrics.RecordWait("queue_idle", time.Since(start), idle)
	return idle, err
}

// Result describes one finished install.
type Result struct {
	// Match names the catalog entry or endpoint that was used.
	Match string
	// Score is the catalog match score, if any.
	Score int
	// Accepted is true when the manager took the install request.
	Accepted bool
	// Done is true when the install was accepted and the queue drained.
	Done bool
	// Detail explains a false Done.
	Detail string
}

func resultOf(match string, score int, out queueOutcome) Result {
	return Result{Match: match, Score: score, Accepted: out.accepted, Done: out.done(), Detail: out.detail()}
}
