package reboot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/metrics"
	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/util/poll"
	"github.com/comfyup/comfyup/internal/util/retry"
)

// Phase is the position of a reboot cycle.
type Phase int

// Reboot phases, in order.
const (
	NotStarted Phase = iota
	Requested
	ObservedDown
	ObservedUp
	Complete
)

func (p Phase) String() string {
	switch p {
	case NotStarted:
		return "not-started"
	case Requested:
		return "requested"
	case ObservedDown:
		return "observed-down"
	case ObservedUp:
		return "observed-up"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

const (
	maxDownWait  = 120 * time.Second
	minReadyWait = 180 * time.Second
	readySlack   = 60 * time.Second
)

// ErrAlreadyRun is returned when Run is called on a used Controller.
var ErrAlreadyRun = errors.New("reboot cycle already ran")

// ReadinessWaiter waits for the service to pass readiness. Implemented by
// readiness.Prober.
type ReadinessWaiter interface {
	WaitReady(ctx context.Context, initialSleep, timeout time.Duration) (bool, error)
}

// Options configures a Controller.
type Options struct {
	Timeouts *config.Timeouts
	Backoff  provisioning.BackoffFunc
	Metrics  *metrics.Recorder
}

// Controller runs one reboot cycle. It is not reusable.
type Controller struct {
	client   *comfy.Client
	ready    ReadinessWaiter
	observer provisioning.Observer
	timeouts *config.Timeouts
	backoff  provisioning.BackoffFunc
	metrics  *metrics.Recorder

	phase Phase
}

// NewController creates a Controller in the NotStarted phase.
func NewController(client *comfy.Client, ready ReadinessWaiter, observer provisioning.Observer, opts Options) *Controller {
	if opts.Timeouts == nil {
		opts.Timeouts = config.LoadTimeouts()
	}
	if opts.Backoff == nil {
		opts.Backoff = provisioning.CadenceBackoff(opts.Timeouts)
	}
	return &Controller{
		client:   client,
		ready:    ready,
		observer: observer,
		timeouts: opts.Timeouts,
		backoff:  opts.Backoff,
		metrics:  opts.Metrics,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Budgets splits the total reboot budget into the down-observation window,
// min(120s, total/3), and the readiness window, max(180s, total-60s).
func Budgets(total time.Duration) (down, up time.Duration) {
	down = min(maxDownWait, total/3)
	up = max(minReadyWait, total-readySlack)
	return down, up
}

// Run requests the reboot and follows the service down and back up.
//
// A request that is never accepted, or a service that never passes
// readiness again, is an error. Missing the downtime is only a warning.
func (c *Controller) Run(ctx context.Context) error {
	if c.phase != NotStarted {
		return fmt.Errorf("%w (phase %s)", ErrAlreadyRun, c.phase)
	}
	downBudget, upBudget := Budgets(c.timeouts.Reboot)

	c.observer.Printf("[reboot] Rebooting ComfyUI Manager ...")
	if err := c.request(ctx); err != nil {
		return err
	}
	c.advance(Requested)

	down, err := c.waitDown(ctx, downBudget)
	if err != nil {
		return err
	}
	if down {
		c.advance(ObservedDown)
	} else {
		c.observer.Warnf("[reboot] No downtime observed within %v; continuing", downBudget)
	}

	start := time.Now()
	ready, err := c.ready.WaitReady(ctx, 0, upBudget)
	c.metrics.RecordWait("reboot_up", time.Since(start), ready)
	if err != nil {
		return err
	}
	if !ready {
		return fmt.Errorf("service did not become ready within %v after reboot", upBudget)
	}
	c.advance(ObservedUp)

	if grace := c.timeouts.RebootGrace; grace > 0 {
		c.observer.Printf("[reboot] Waiting %v for post-boot initialization ...", grace)
		if err := poll.Sleep(ctx, grace); err != nil {
			return err
		}
	}
	c.advance(Complete)
	c.observer.Printf("[reboot] Reboot complete")
	return nil
}

// request asks the manager to restart. A gateway error counts as accepted
// because the proxy often answers one as soon as the backend goes away.
// Every other status is retried.
func (c *Controller) request(ctx context.Context) error {
	url := c.client.APIURL(comfy.PathManagerReboot)
	opts := append(c.backoff("reboot request", c.timeouts.RebootAttempts),
		retry.WithAccept(func(status int) bool {
			return status == 200 || retry.IsGateway(status)
		}),
		retry.WithRetryable(func(int) bool { return true }),
	)

	accepted, err := retry.UntilAccepted(ctx, func(ctx context.Context) (int, string, error) {
		return comfy.Status(c.client.Get(ctx, url))
	}, opts...)
	if err != nil {
		return fmt.Errorf("reboot request: %w", err)
	}
	if !accepted {
		return fmt.Errorf("reboot request not accepted after %d attempts", c.timeouts.RebootAttempts)
	}
	return nil
}

// waitDown polls /queue until it stops answering 200.
func (c *Controller) waitDown(ctx context.Context, budget time.Duration) (bool, error) {
	url := c.client.APIURL(comfy.PathQueue)
	cfg := poll.Config{
		Interval:    c.timeouts.RebootPoll,
		Multiplier:  1.4,
		MaxInterval: c.timeouts.RebootPollMax,
		Timeout:     budget,
	}

	start := time.Now()
	down, err := poll.Until(ctx, cfg, func(ctx context.Context, _ int) (bool, error) {
		resp, err := c.client.Get(ctx, url)
		if err != nil {
			return true, ctx.Err()
		}
		if resp.StatusCode != 200 {
			c.observer.Printf("[reboot] Service went down (status %d)", resp.StatusCode)
			return true, nil
		}
		return false, nil
	})
	c.metrics.RecordWait("reboot_down", time.Since(start), down)
	if err != nil {
		return false, err
	}
	return down, nil
}

func (c *Controller) advance(next Phase) {
	if next <= c.phase {
		return
	}
	c.observer.Debugf("[reboot] %s -> %s", c.phase, next)
	c.phase = next
}
