package retry

import (
	"context"
	"fmt"
)

// transientCodes may succeed on a later attempt. 404 and 409 are included
// because the manager registers routes and resources lazily after boot.
var transientCodes = map[int]bool{
	404: true,
	409: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// maxBodyContext bounds the response body carried by a StatusError.
const maxBodyContext = 400

// IsTransient reports whether an HTTP status is worth retrying.
// Status 0 stands for a request that produced no response at all.
func IsTransient(status int) bool {
	return status == 0 || transientCodes[status]
}

// IsGateway reports whether status is a proxy gateway error (502, 503, 504).
func IsGateway(status int) bool {
	return status == 502 || status == 503 || status == 504
}

// StatusFunc performs one attempt and reports the HTTP status and body it saw.
// A transport failure is reported as status 0 with a non-nil error.
type StatusFunc func(ctx context.Context) (status int, body string, err error)

// StatusError is a hard protocol failure: a status outside the retryable set.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, truncate(e.Body, maxBodyContext))
}

// UntilAccepted calls op until its status is accepted, backing off between
// transient failures.
//
// It returns (true, nil) on acceptance, (false, nil) when the attempts run
// out, and (false, *StatusError) as soon as a non-retryable status is seen.
// Only context cancellation produces any other error.
func UntilAccepted(ctx context.Context, op StatusFunc, opts ...Option) (bool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	delay := cfg.InitialDelay
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		status, body, err := op(ctx)
		if err != nil {
			status = 0
		}

		if err == nil && cfg.Accept(status) {
			return true, nil
		}
		if err == nil && !cfg.Retryable(status) {
			return false, &StatusError{Status: status, Body: body}
		}

		if attempt < cfg.MaxRetries {
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt+1, status, delay)
			}
			if err := sleep(ctx, delay); err != nil {
				return false, fmt.Errorf("context cancelled after %d attempts: %w", attempt+1, err)
			}
			delay = cfg.next(delay)
		}
	}

	return false, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
