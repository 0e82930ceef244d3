package events

import (
	"log/slog"
	"sync"

	"fiattoken/core/types"
)

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Renderable is implemented by events that can be flattened into the
// attribute form shared by logs, the audit store and clients.
type Renderable interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. logs, the audit
// store).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Render converts evt into its attribute form. Events that do not implement
// Renderable yield an attribute-less event of the same type.
func Render(evt Event) *types.Event {
	if evt == nil {
		return nil
	}
	if r, ok := evt.(Renderable); ok {
		if out := r.Event(); out != nil {
			return out
		}
	}
	return &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
}

// Recorder buffers emitted events until they are flushed or reset.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if evt == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns a snapshot of the buffered events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the event types in emission order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.EventType()
	}
	return out
}

// Reset drops all buffered events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Flush forwards the buffered events to dst in order and clears the buffer.
func (r *Recorder) Flush(dst Emitter) {
	r.mu.Lock()
	pending := r.events
	r.events = nil
	r.mu.Unlock()
	if dst == nil {
		return
	}
	for _, evt := range pending {
		dst.Emit(evt)
	}
}

type multiEmitter []Emitter

func (m multiEmitter) Emit(evt Event) {
	for _, e := range m {
		e.Emit(evt)
	}
}

// Multi fans events out to every non-nil emitter.
func Multi(emitters ...Emitter) Emitter {
	out := make(multiEmitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return NoopEmitter{}
	}
	return out
}

// LogEmitter writes each event as an EVENT_JSON log line.
type LogEmitter struct {
	Logger *slog.Logger
}

// Emit implements the Emitter interface.
func (l LogEmitter) Emit(evt Event) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rendered := Render(evt)
	if rendered == nil {
		return
	}
	line, err := rendered.LogLine()
	if err != nil {
		logger.Warn("render event", slog.String("type", rendered.Type), slog.Any("error", err))
		return
	}
	logger.Info(line, slog.String("event", rendered.Type))
}
