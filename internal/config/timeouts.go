package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds every wait budget and retry cadence of a run.
// These values can be customized via environment variables.
type Timeouts struct {
	InitialBoot     time.Duration // Unconditional sleep after launch
	Ready           time.Duration // Readiness budget after launch
	ReadyPoll       time.Duration // First readiness poll interval
	ReadyPollMax    time.Duration // Readiness poll interval cap
	QueuePoll       time.Duration // Queue status poll interval
	QueueIdle       time.Duration // Queue drain budget for node and extension installs
	ModelInstall    time.Duration // Queue drain budget for catalog model installs
	ModelConfirm    time.Duration // Wait for a model to show as installed
	URLModelInstall time.Duration // Queue drain budget for URL model installs
	Reboot          time.Duration // Total reboot cycle budget
	RebootGrace     time.Duration // Settle time after the service is back
	RebootPoll      time.Duration // First down-detection poll interval
	RebootPollMax   time.Duration // Down-detection poll interval cap
	Workflow        time.Duration // Downloader workflow tracking budget
	WorkflowPoll    time.Duration // History poll interval
	Drain           time.Duration // Queue drain budget after a workflow

	RetryInitialDelay time.Duration // First backoff delay
	RetryMaxDelay     time.Duration // Backoff cap
	RetryMultiplier   float64       // Backoff growth
	EnqueueAttempts   int           // Attempts for queue installs
	RebootAttempts    int           // Attempts for the reboot request
	GitAttempts       int           // Attempts for GitHub extension installs
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - COMFYUP_TIMEOUT_INITIAL_BOOT (default: 30s)
//   - COMFYUP_TIMEOUT_READY (default: 7m)
//   - COMFYUP_TIMEOUT_QUEUE_IDLE (default: 3m)
//   - COMFYUP_TIMEOUT_MODEL_INSTALL (default: 10m)
//   - COMFYUP_TIMEOUT_MODEL_CONFIRM (default: 60s)
//   - COMFYUP_TIMEOUT_URL_MODEL_INSTALL (default: 15m)
//   - COMFYUP_TIMEOUT_REBOOT (default: 15m)
//   - COMFYUP_TIMEOUT_REBOOT_GRACE (default: 30s)
//   - COMFYUP_TIMEOUT_WORKFLOW (default: 30m)
//   - COMFYUP_TIMEOUT_DRAIN (default: 5m)
//   - COMFYUP_POLL_QUEUE_INTERVAL (default: 1.5s)
//   - COMFYUP_RETRY_INITIAL_DELAY (default: 1.5s)
//   - COMFYUP_RETRY_MAX_DELAY (default: 10s)
//   - COMFYUP_RETRY_MULTIPLIER (default: 1.7)
//   - COMFYUP_RETRY_ENQUEUE_ATTEMPTS (default: 6)
//   - COMFYUP_RETRY_REBOOT_ATTEMPTS (default: 8)
//   - COMFYUP_RETRY_GIT_ATTEMPTS (default: 8)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		InitialBoot:     parseDuration("COMFYUP_TIMEOUT_INITIAL_BOOT", 30*time.Second),
		Ready:           parseDuration("COMFYUP_TIMEOUT_READY", 420*time.Second),
		ReadyPoll:       1500 * time.Millisecond,
		ReadyPollMax:    10 * time.Second,
		QueuePoll:       parseDuration("COMFYUP_POLL_QUEUE_INTERVAL", 1500*time.Millisecond),
		QueueIdle:       parseDuration("COMFYUP_TIMEOUT_QUEUE_IDLE", 180*time.Second),
		ModelInstall:    parseDuration("COMFYUP_TIMEOUT_MODEL_INSTALL", 600*time.Second),
		ModelConfirm:    parseDuration("COMFYUP_TIMEOUT_MODEL_CONFIRM", 60*time.Second),
		URLModelInstall: parseDuration("COMFYUP_TIMEOUT_URL_MODEL_INSTALL", 900*time.Second),
		Reboot:          parseDuration("COMFYUP_TIMEOUT_REBOOT", 900*time.Second),
		RebootGrace:     parseDuration("COMFYUP_TIMEOUT_REBOOT_GRACE", 30*time.Second),
		RebootPoll:      1200 * time.Millisecond,
		RebootPollMax:   4 * time.Second,
		Workflow:        parseDuration("COMFYUP_TIMEOUT_WORKFLOW", 1800*time.Second),
		WorkflowPoll:    1500 * time.Millisecond,
		Drain:           parseDuration("COMFYUP_TIMEOUT_DRAIN", 300*time.Second),

		RetryInitialDelay: parseDuration("COMFYUP_RETRY_INITIAL_DELAY", 1500*time.Millisecond),
		RetryMaxDelay:     parseDuration("COMFYUP_RETRY_MAX_DELAY", 10*time.Second),
		RetryMultiplier:   parseFloat("COMFYUP_RETRY_MULTIPLIER", 1.7),
		EnqueueAttempts:   parseInt("COMFYUP_RETRY_ENQUEUE_ATTEMPTS", 6),
		RebootAttempts:    parseInt("COMFYUP_RETRY_REBOOT_ATTEMPTS", 8),
		GitAttempts:       parseInt("COMFYUP_RETRY_GIT_ATTEMPTS", 8),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}

func parseFloat(envVar string, defaultVal float64) float64 {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 1 {
		return defaultVal
	}

	return f
}
