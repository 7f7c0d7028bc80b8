package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/comfyup/comfyup/internal/provisioning"
)

// Workload identifies the workload a run provisioned.
type Workload struct {
	ID       string `json:"id"`
	Node     string `json:"node"`
	APIBase  string `json:"api_base"`
	RootBase string `json:"root_base"`
}

// Report is the outcome of one run.
type Report struct {
	RunID      string                       `json:"run_id"`
	StartedAt  time.Time                    `json:"started_at"`
	FinishedAt time.Time                    `json:"finished_at"`
	Workload   *Workload                    `json:"workload,omitempty"`
	Ready      bool                         `json:"ready"`
	Rebooted   bool                         `json:"rebooted"`
	Items      []provisioning.ItemResult    `json:"items"`
	Counts     map[provisioning.Outcome]int `json:"counts"`
	// Error is the top-level failure that aborted the run, if any.
	Error string `json:"error,omitempty"`
}

// FromState builds a report from the final run state. runErr is the error
// that aborted the run, or nil.
func FromState(s *provisioning.State, runErr error, finishedAt time.Time) *Report {
	r := &Report{
		RunID:      s.RunID,
		StartedAt:  s.StartedAt,
		FinishedAt: finishedAt,
		Ready:      s.Ready,
		Rebooted:   s.Rebooted,
		Items:      append([]provisioning.ItemResult{}, s.Items...),
		Counts:     s.Counts(),
	}
	if w := s.Workload; w != nil {
		r.Workload = &Workload{ID: w.ID, Node: w.Node, APIBase: w.APIBase, RootBase: w.RootBase}
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	return r
}

// Succeeded reports whether the run finished without a top-level error.
// Individual items may still have failed.
func (r *Report) Succeeded() bool {
	return r.Error == ""
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Marshal encodes the report as indented JSON.
func (r *Report) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal decodes a report.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}

// ReadFile loads a report written by a FileSink.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return Unmarshal(data)
}
