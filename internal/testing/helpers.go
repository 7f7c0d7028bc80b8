package testing

import (
	"context"
	"testing"
	"time"

	"github.com/comfyup/comfyup/internal/config"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// FastTimeouts returns timeouts scaled down so polling tests finish in
// milliseconds.
func FastTimeouts() *config.Timeouts {
	return &config.Timeouts{
		InitialBoot:     0,
		Ready:           500 * time.Millisecond,
		ReadyPoll:       time.Millisecond,
		ReadyPollMax:    5 * time.Millisecond,
		QueuePoll:       time.Millisecond,
		QueueIdle:       500 * time.Millisecond,
		ModelInstall:    500 * time.Millisecond,
		ModelConfirm:    50 * time.Millisecond,
		URLModelInstall: 500 * time.Millisecond,
		Reboot:          time.Second,
		RebootGrace:     0,
		RebootPoll:      time.Millisecond,
		RebootPollMax:   5 * time.Millisecond,
		Workflow:        500 * time.Millisecond,
		WorkflowPoll:    time.Millisecond,
		Drain:           500 * time.Millisecond,

		RetryInitialDelay: time.Millisecond,
		RetryMaxDelay:     5 * time.Millisecond,
		RetryMultiplier:   1.7,
		EnqueueAttempts:   6,
		RebootAttempts:    8,
		GitAttempts:       8,
	}
}
