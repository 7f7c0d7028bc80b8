package testing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/comfyup/comfyup/internal/provisioning"
)

// Observer is a provisioning.Observer that records messages and events.
type Observer struct {
	mu     *sync.Mutex
	log    *observerLog
	fields map[string]string
}

type observerLog struct {
	messages []string
	warnings []string
	debug    []string
	events   []provisioning.Event
}

// NewObserver creates an empty recording observer.
func NewObserver() *Observer {
	return &Observer{
		mu:     &sync.Mutex{},
		log:    &observerLog{},
		fields: map[string]string{},
	}
}

// Printf implements provisioning.Observer.
func (o *Observer) Printf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log.messages = append(o.log.messages, fmt.Sprintf(format, v...))
}

// Warnf implements provisioning.Observer.
func (o *Observer) Warnf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log.warnings = append(o.log.warnings, fmt.Sprintf(format, v...))
}

// Debugf implements provisioning.Observer.
func (o *Observer) Debugf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log.debug = append(o.log.debug, fmt.Sprintf(format, v...))
}

// Event implements provisioning.Observer.
func (o *Observer) Event(event provisioning.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log.events = append(o.log.events, event)
}

// Progress implements provisioning.Observer.
func (o *Observer) Progress(phase string, current, total int) {
	o.Event(provisioning.Event{
		Type:    provisioning.EventProgress,
		Phase:   phase,
		Message: fmt.Sprintf("%d/%d", current, total),
	})
}

// WithFields returns an observer sharing this one's log.
func (o *Observer) WithFields(fields map[string]string) provisioning.Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	for k, v := range o.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Observer{mu: o.mu, log: o.log, fields: merged}
}

// Messages returns the recorded Printf lines.
func (o *Observer) Messages() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.log.messages...)
}

// Warnings returns the recorded Warnf lines.
func (o *Observer) Warnings() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.log.warnings...)
}

// Events returns the recorded events.
func (o *Observer) Events() []provisioning.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]provisioning.Event(nil), o.log.events...)
}

// EventsOf returns the recorded events of type typ.
func (o *Observer) EventsOf(typ provisioning.EventType) []provisioning.Event {
	var out []provisioning.Event
	for _, e := range o.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// HasWarning reports whether any warning contains substr.
func (o *Observer) HasWarning(substr string) bool {
	for _, w := range o.Warnings() {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
