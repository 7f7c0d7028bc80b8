package provisioning

import (
	"context"
	"time"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/metrics"
	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/platform/comput3"
	"github.com/comfyup/comfyup/internal/util/retry"
)

// Launcher leases a workload. Implemented by comput3.Client.
type Launcher interface {
	Launch(ctx context.Context, workloadType string, hours float64) (*comput3.Workload, error)
}

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Launcher Launcher
	// Client talks to the launched workload. Nil until Attach.
	Client   *comfy.Client
	Observer Observer
	Timeouts *config.Timeouts
	Metrics  *metrics.Recorder

	// ClientOptions are applied to the workload client created by Attach.
	ClientOptions []comfy.Option
}

// NewContext creates a new provisioning context.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	launcher Launcher,
	observer Observer,
	runID string,
) *Context {
	return &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(runID),
		Launcher: launcher,
		Observer: observer,
		Timeouts: config.LoadTimeouts(),
	}
}

// Attach records the workload and builds the client for it.
func (c *Context) Attach(w *comput3.Workload) {
	c.State.Workload = w
	opts := append([]comfy.Option{comfy.WithMetrics(c.Metrics)}, c.ClientOptions...)
	c.Client = comfy.NewClient(
		comfy.Endpoints{APIBase: w.APIBase, RootBase: w.RootBase},
		comfy.Credentials{APIKey: c.Config.APIKey, UserKey: c.Config.UserKey},
		opts...,
	)
}

// BackoffFunc returns retry options for operation capped at attempts tries.
type BackoffFunc func(operation string, attempts int) []retry.Option

// CadenceBackoff returns a BackoffFunc following the retry cadence of t.
// Retries are neither logged nor counted.
func CadenceBackoff(t *config.Timeouts) BackoffFunc {
	return func(_ string, attempts int) []retry.Option {
		return []retry.Option{
			retry.WithMaxAttempts(attempts),
			retry.WithInitialDelay(t.RetryInitialDelay),
			retry.WithMaxDelay(t.RetryMaxDelay),
			retry.WithMultiplier(t.RetryMultiplier),
		}
	}
}

// Backoff returns retry options using the run's cadence, capped at
// attempts tries. Retries are logged and counted under operation.
func (c *Context) Backoff(operation string, attempts int) []retry.Option {
	return append(CadenceBackoff(c.Timeouts)(operation, attempts),
		retry.WithOnRetry(func(attempt, status int, delay time.Duration) {
			LogRetry(c.Observer, operation, attempt, status, delay)
			c.Metrics.RecordRetry(operation)
		}),
	)
}

// RecordItem stores result in the run state, reports it to the observer
// and counts it.
func (c *Context) RecordItem(phase string, result ItemResult) {
	c.State.Record(result)
	LogItem(c.Observer, phase, result)
	c.Metrics.RecordItem(string(result.Kind), string(result.Outcome))
}
