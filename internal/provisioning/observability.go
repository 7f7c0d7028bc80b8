package provisioning

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the minimal logging surface used by components that only print.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Warnf reports a recoverable problem.
	Warnf(format string, v ...interface{})

	// Debugf reports detail shown only in verbose mode.
	Debugf(format string, v ...interface{})

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "nodes", "reboot")
	Message   string            // Human-readable message
	Item      string            // Item name if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventItemInstalled indicates an item was installed and the queue drained.
	EventItemInstalled EventType = "item.installed"
	// EventItemTimeout indicates the queue did not drain in time.
	EventItemTimeout EventType = "item.timeout"
	// EventItemSkipped indicates the item had no catalog match.
	EventItemSkipped EventType = "item.skipped"
	// EventItemFailed indicates the item failed with an error.
	EventItemFailed EventType = "item.failed"

	// EventRetry indicates a transient failure that will be retried.
	EventRetry EventType = "retry"

	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// ConsoleOptions configures a ConsoleObserver.
type ConsoleOptions struct {
	// Verbose enables debug output.
	Verbose bool
	// JSON emits one zerolog JSON object per line instead of console text.
	JSON bool
	// NoColor disables ANSI colours. Set automatically when the output is
	// not a terminal.
	NoColor bool
}

// ConsoleObserver implements Observer on top of zerolog.
type ConsoleObserver struct {
	logger        zerolog.Logger
	contextFields map[string]string
}

// NewConsoleObserver creates an observer writing to stderr.
func NewConsoleObserver(opts ConsoleOptions) *ConsoleObserver {
	if !isTerminal(os.Stderr) {
		opts.NoColor = true
	}
	return NewWriterObserver(os.Stderr, opts)
}

// NewWriterObserver creates an observer writing to w.
func NewWriterObserver(w io.Writer, opts ConsoleOptions) *ConsoleObserver {
	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	var out io.Writer = w
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.TimeOnly,
			NoColor:    opts.NoColor,
		}
	}

	return &ConsoleObserver{
		logger:        zerolog.New(out).Level(level).With().Timestamp().Logger(),
		contextFields: make(map[string]string),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.withContext(o.logger.Info()).Msgf(format, v...)
}

// Warnf implements Observer.
func (o *ConsoleObserver) Warnf(format string, v ...interface{}) {
	o.withContext(o.logger.Warn()).Msgf(format, v...)
}

// Debugf implements Observer.
func (o *ConsoleObserver) Debugf(format string, v ...interface{}) {
	o.withContext(o.logger.Debug()).Msgf(format, v...)
}

// Event implements Observer interface.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	var e *zerolog.Event
	switch event.Type {
	case EventPhaseFailed, EventItemFailed:
		e = o.logger.Error()
	case EventItemTimeout, EventItemSkipped:
		e = o.logger.Warn()
	case EventRetry, EventProgress:
		e = o.logger.Debug()
	default:
		e = o.logger.Info()
	}

	e = o.withContext(e).Str("event", string(event.Type))
	if event.Phase != "" {
		e = e.Str("phase", event.Phase)
	}
	if event.Item != "" {
		e = e.Str("item", event.Item)
	}
	for _, k := range sortedKeys(event.Fields) {
		e = e.Str(k, event.Fields[k])
	}
	e.Msg(event.Message)
}

// Progress implements Observer interface.
func (o *ConsoleObserver) Progress(phase string, current, total int) {
	if total == 0 {
		o.Printf("[%s] Progress: %d/%d", phase, current, total)
		return
	}
	percentage := (current * 100) / total
	o.Printf("[%s] Progress: %d/%d (%d%%)", phase, current, total, percentage)
}

// WithFields implements Observer interface.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	newFields := make(map[string]string, len(o.contextFields)+len(fields))
	for k, v := range o.contextFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &ConsoleObserver{
		logger:        o.logger,
		contextFields: newFields,
	}
}

func (o *ConsoleObserver) withContext(e *zerolog.Event) *zerolog.Event {
	for _, k := range sortedKeys(o.contextFields) {
		e = e.Str(k, o.contextFields[k])
	}
	return e
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogItem logs the outcome of one install item.
func LogItem(observer Observer, phase string, result ItemResult) {
	typ := EventItemInstalled
	switch result.Outcome {
	case OutcomeTimeout:
		typ = EventItemTimeout
	case OutcomeSkipped:
		typ = EventItemSkipped
	case OutcomeFailed:
		typ = EventItemFailed
	}

	msg := string(result.Outcome)
	if result.Detail != "" {
		msg = fmt.Sprintf("%s: %s", result.Outcome, result.Detail)
	}
	observer.Event(Event{
		Type:    typ,
		Phase:   phase,
		Item:    result.Name,
		Message: msg,
		Fields: map[string]string{
			"kind":     string(result.Kind),
			"duration": result.Duration.Round(time.Millisecond).String(),
		},
	})
}

// LogRetry logs a transient failure that is about to be retried.
func LogRetry(observer Observer, operation string, attempt, status int, delay time.Duration) {
	observer.Event(Event{
		Type:    EventRetry,
		Message: fmt.Sprintf("%s: status %d, retrying in %v", operation, status, delay.Round(time.Millisecond)),
		Fields: map[string]string{
			"attempt": fmt.Sprint(attempt),
		},
	})
}

// JoinNames renders a list of item names for log lines.
func JoinNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
