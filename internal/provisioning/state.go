package provisioning

import (
	"time"

	"github.com/comfyup/comfyup/internal/platform/comput3"
)

// ItemKind classifies an install item.
type ItemKind string

// Item kinds, in the order a run processes them.
const (
	KindNode      ItemKind = "node"
	KindModel     ItemKind = "model"
	KindExtension ItemKind = "extension"
	KindURLModel  ItemKind = "url-model"
)

// Outcome is the final state of one install item.
type Outcome string

// Item outcomes.
const (
	// OutcomeInstalled means the install was accepted and the queue drained.
	OutcomeInstalled Outcome = "installed"
	// OutcomeTimeout means the install was accepted but the queue did not
	// drain within its budget. The remote install may still finish.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeSkipped means no catalog entry was accepted for the query.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the install hit a hard error.
	OutcomeFailed Outcome = "failed"
)

// ItemResult records one attempted install.
type ItemResult struct {
	Kind     ItemKind      `json:"kind"`
	Name     string        `json:"name"`
	Outcome  Outcome       `json:"outcome"`
	Detail   string        `json:"detail,omitempty"`
	Match    string        `json:"match,omitempty"`
	Score    int           `json:"score,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes.
type State struct {
	// RunID identifies this run in reports and workflow submissions.
	RunID string
	// StartedAt is when the run began.
	StartedAt time.Time

	// Workload is set by the launch phase and never changes afterwards.
	Workload *comput3.Workload
	// Ready is false when the service did not pass readiness after launch.
	Ready bool
	// Rebooted is set once the reboot cycle reached Complete.
	Rebooted bool

	// Items lists every attempted install in order.
	Items []ItemResult
}

// NewState creates an empty provisioning state.
func NewState(runID string) *State {
	return &State{
		RunID:     runID,
		StartedAt: time.Now(),
	}
}

// Record appends an item result.
func (s *State) Record(result ItemResult) {
	s.Items = append(s.Items, result)
}

// Counts tallies item outcomes.
func (s *State) Counts() map[Outcome]int {
	counts := make(map[Outcome]int, 4)
	for _, it := range s.Items {
		counts[it.Outcome]++
	}
	return counts
}

// Failed reports whether any item did not install.
func (s *State) Failed() bool {
	for _, it := range s.Items {
		if it.Outcome != OutcomeInstalled {
			return true
		}
	}
	return false
}
