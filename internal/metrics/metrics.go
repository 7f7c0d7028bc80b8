// Package metrics records request, retry, item and phase metrics for a provisioning run.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry so that runs and tests never share state.
type Recorder struct {
	registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	retriesTotal  *prometheus.CounterVec
	itemsTotal    *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	waitDuration  *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with all collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comfyup",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Requests sent to the workload by method and status code",
			},
			[]string{"method", "code"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comfyup",
				Subsystem: "retry",
				Name:      "backoffs_total",
				Help:      "Backoff sleeps taken by operation",
			},
			[]string{"operation"},
		),

		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "comfyup",
				Subsystem: "install",
				Name:      "items_total",
				Help:      "Install items by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),

		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "comfyup",
				Subsystem: "run",
				Name:      "phase_duration_seconds",
				Help:      "Duration of each provisioning phase in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
			},
			[]string{"phase", "result"},
		),

		waitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "comfyup",
				Subsystem: "poll",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for remote conditions",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"wait", "satisfied"},
		),
	}

	r.registry.MustRegister(
		r.requestsTotal,
		r.retriesTotal,
		r.itemsTotal,
		r.phaseDuration,
		r.waitDuration,
	)
	return r
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordRequest counts one HTTP exchange. Code 0 marks a transport failure.
func (r *Recorder) RecordRequest(method string, code int) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// RecordRetry counts one backoff sleep for operation.
func (r *Recorder) RecordRetry(operation string) {
	if r == nil {
		return
	}
	r.retriesTotal.WithLabelValues(operation).Inc()
}

// RecordItem counts one install item outcome.
func (r *Recorder) RecordItem(kind, outcome string) {
	if r == nil {
		return
	}
	r.itemsTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordPhase observes a phase duration.
func (r *Recorder) RecordPhase(phase string, d time.Duration, err error) {
	if r == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	r.phaseDuration.WithLabelValues(phase, result).Observe(d.Seconds())
}

// RecordWait observes how long a poll loop waited and whether it was satisfied.
func (r *Recorder) RecordWait(wait string, d time.Duration, satisfied bool) {
	if r == nil {
		return
	}
	r.waitDuration.WithLabelValues(wait, strconv.FormatBool(satisfied)).Observe(d.Seconds())
}

// WriteTextfile writes the current metrics in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
