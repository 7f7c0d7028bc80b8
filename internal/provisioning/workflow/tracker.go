package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/comfyup/comfyup/internal/config"
	"github.com/comfyup/comfyup/internal/metrics"
	"github.com/comfyup/comfyup/internal/platform/comfy"
	"github.com/comfyup/comfyup/internal/provisioning"
	"github.com/comfyup/comfyup/internal/util/jsondoc"
	"github.com/comfyup/comfyup/internal/util/poll"
)

// Workflow endpoints. PathPrompt is tried against the API base first and
// the root base second.
const (
	PathPrompt  = "/prompt"
	PathHistory = "/history/"
)

const heartbeatEvery = 10 * time.Second

// State is the inferred state of a prompt run.
type State int

// Run states.
const (
	Pending State = iota
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "pending"
}

// Run is a submitted prompt and its last inferred state.
type Run struct {
	ID    string
	State State
}

// Terminal reports whether the run finished, successfully or not.
func (r Run) Terminal() bool {
	return r.State != Pending
}

// QueueWaiter waits for the manager queue to drain. Implemented by
// install.Coordinator.
type QueueWaiter interface {
	WaitIdle(ctx context.Context, timeout time.Duration) (bool, error)
}

// Options configures a Tracker.
type Options struct {
	Timeouts *config.Timeouts
	Metrics  *metrics.Recorder
	// ClientID is sent with every submission. Defaults to comfyup-<uuid>.
	ClientID string
}

// Tracker submits prompts to one workload and tracks them.
type Tracker struct {
	client   *comfy.Client
	queue    QueueWaiter
	observer provisioning.Observer
	timeouts *config.Timeouts
	metrics  *metrics.Recorder
	clientID string
}

// NewTracker creates a Tracker.
func NewTracker(client *comfy.Client, queue QueueWaiter, observer provisioning.Observer, opts Options) *Tracker {
	if opts.Timeouts == nil {
		opts.Timeouts = config.LoadTimeouts()
	}
	if opts.ClientID == "" {
		opts.ClientID = NewClientID()
	}
	return &Tracker{
		client:   client,
		queue:    queue,
		observer: observer,
		timeouts: opts.Timeouts,
		metrics:  opts.Metrics,
		clientID: opts.ClientID,
	}
}

// NewClientID returns a fresh client id of the form comfyup-<uuid>.
func NewClientID() string {
	return "comfyup-" + uuid.NewString()
}

// ClientID returns the id sent with submissions.
func (t *Tracker) ClientID() string {
	return t.clientID
}

// Submit posts graph as a prompt and returns the run id.
//
// An accepted submission whose body carries no recognizable id returns an
// empty id and no error. Only a submission that no base accepted fails.
func (t *Tracker) Submit(ctx context.Context, graph map[string]any) (string, error) {
	payload := map[string]any{
		"prompt":    graph,
		"client_id": t.clientID,
	}

	var last string
	for _, endpoint := range []string{t.client.APIURL(PathPrompt), t.client.RootURL(PathPrompt)} {
		resp, err := t.client.PostJSON(ctx, endpoint, payload)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			last = err.Error()
			continue
		}
		if !resp.OK() {
			last = fmt.Sprintf("%d %s", resp.StatusCode, resp.Text())
			continue
		}

		doc, err := jsondoc.Parse(resp.Body)
		if err != nil {
			return "", nil
		}
		return ExtractPromptID(doc), nil
	}
	return "", fmt.Errorf("prompt submission failed: %s", last)
}

// ExtractPromptID finds the run id in a submission response. It checks
// prompt_id, promptId and id at the top level, then inside data.
func ExtractPromptID(doc jsondoc.Doc) string {
	if id := stringField(doc); id != "" {
		return id
	}
	if data, ok := doc.Object("data"); ok {
		return stringField(data)
	}
	return ""
}

func stringField(doc jsondoc.Doc) string {
	for _, k := range []string{"prompt_id", "promptId", "id"} {
		if v, ok := doc[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// History fetches the history record of a run. The record is either keyed
// by the id or returned bare. A nil record with status 200 means the body
// was not recognizable.
func (t *Tracker) History(ctx context.Context, id string) (int, jsondoc.Doc) {
	resp, err := t.client.Get(ctx, t.client.APIURL(PathHistory+id))
	if err != nil {
		return 0, nil
	}
	if !resp.OK() {
		return resp.StatusCode, nil
	}
	doc, err := jsondoc.Parse(resp.Body)
	if err != nil {
		return resp.StatusCode, nil
	}
	if rec, ok := doc.Object(id); ok {
		return resp.StatusCode, rec
	}
	if doc.Has("status") || doc.Has("outputs") {
		return resp.StatusCode, doc
	}
	return resp.StatusCode, nil
}

var (
	successWords = map[string]bool{"success": true, "complete": true, "completed": true, "done": true}
	errorWords   = map[string]bool{"error": true, "failed": true, "fail": true, "exception": true}
)

// InferTerminal reads the state of a history record. A record with
// outputs but no recognizable status counts as a success.
func InferTerminal(rec jsondoc.Doc) State {
	if rec == nil {
		return Pending
	}
	if status, ok := rec.Object("status"); ok {
		if status.Bool("completed") {
			return Success
		}
		word := jsondoc.Normalize(status.String("status", "status_str", "state"))
		if successWords[word] {
			return Success
		}
		if errorWords[word] || status.Bool("error") {
			return Error
		}
	}
	if !jsondoc.Falsy(rec["outputs"]) {
		return Success
	}
	return Pending
}

// Wait polls the history of id until a terminal state is inferred or
// timeout elapses. 404 and unreadable records are treated as pending.
// A timeout returns a Pending run and no error.
func (t *Tracker) Wait(ctx context.Context, id string, timeout time.Duration) (Run, error) {
	t.observer.Printf("[workflow] waiting for prompt %s to complete ...", id)
	run := Run{ID: id}

	start := time.Now()
	var lastNote time.Time
	done, err := poll.Until(ctx, poll.Fixed(t.timeouts.WorkflowPoll, timeout), func(ctx context.Context, _ int) (bool, error) {
		code, rec := t.History(ctx, id)
		if code == 200 && rec != nil {
			if run.State = InferTerminal(rec); run.Terminal() {
				return true, nil
			}
		}
		if time.Since(lastNote) > heartbeatEvery {
			if code == 200 {
				t.observer.Printf("[workflow] still pending")
			} else {
				t.observer.Printf("[workflow] polling history ... (code=%d)", code)
			}
			lastNote = time.Now()
		}
		return false, ctx.Err()
	})
	t.metrics.RecordWait("workflow", time.Since(start), done)
	if err != nil {
		return run, err
	}
	if !done {
		t.observer.Warnf("[workflow] timeout waiting for %s", id)
		return run, nil
	}
	t.observer.Printf("[workflow] %s -> %s", id, run.State)
	return run, nil
}
