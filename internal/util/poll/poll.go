package poll

import (
	"context"
	"time"
)

// Config controls the cadence and budget of a poll loop.
type Config struct {
	// Interval is the first sleep between checks.
	Interval time.Duration
	// Multiplier grows the interval after every sleep. Values <= 1 keep it fixed.
	Multiplier float64
	// MaxInterval caps the grown interval. Zero means no cap.
	MaxInterval time.Duration
	// Timeout bounds the whole loop, measured from the first check.
	Timeout time.Duration
}

// Fixed returns a Config that checks every interval until timeout.
func Fixed(interval, timeout time.Duration) Config {
	return Config{Interval: interval, Multiplier: 1, Timeout: timeout}
}

// Condition is checked once per iteration. Returning an error aborts the loop.
type Condition func(ctx context.Context, attempt int) (done bool, err error)

// Until checks cond until it reports done or cfg.Timeout elapses.
//
// A timeout is not an error: Until returns (false, nil) so the caller can
// decide whether the wait was essential. Errors come only from cond or from
// ctx being cancelled.
func Until(ctx context.Context, cfg Config, cond Condition) (bool, error) {
	deadline := time.Now().Add(cfg.Timeout)
	interval := cfg.Interval

	for attempt := 1; ; attempt++ {
		done, err := cond(ctx, attempt)
		if err != nil {
			return false, err
		}
		if done {
			return true, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		wait := interval
		if wait > remaining {
			wait = remaining
		}

		if err := Sleep(ctx, wait); err != nil {
			return false, err
		}

		if time.Now().After(deadline) {
			return false, nil
		}
		interval = cfg.next(interval)
	}
}

// Sleep blocks for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c Config) next(d time.Duration) time.Duration {
	if c.Multiplier > 1 {
		d = time.Duration(float64(d) * c.Multiplier)
	}
	if c.MaxInterval > 0 && d > c.MaxInterval {
		d = c.MaxInterval
	}
	return d
}
