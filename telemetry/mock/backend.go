package mock

import (
	"sync"

	"github.com/poiesic/logsight/telemetry"
)

// RecordingBackend is a test double that captures every notification it
// receives. It is safe for concurrent use.
type RecordingBackend struct {
	mu      sync.Mutex
	started []telemetry.SpanSnapshot
	events  []RecordedEvent
	ended   []telemetry.SpanSnapshot

	// Optional injection points. When set, the corresponding method returns
	// the injected error after recording.
	SpanStartedErr error
	SpanEventErr   error
	SpanEndedErr   error
}

// RecordedEvent pairs an event with the span snapshot it arrived on.
type RecordedEvent struct {
	Span  telemetry.SpanSnapshot
	Event telemetry.Event
}

var _ telemetry.Backend = (*RecordingBackend)(nil)

// NewRecordingBackend creates a recording backend.
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{}
}

func (b *RecordingBackend) Name() string {
	return "recording"
}

func (b *RecordingBackend) SpanStarted(span telemetry.SpanSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = append(b.started, span)
	return b.SpanStartedErr
}

func (b *RecordingBackend) SpanEvent(span telemetry.SpanSnapshot, event telemetry.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, RecordedEvent{Span: span, Event: event})
	return b.SpanEventErr
}

func (b *RecordingBackend) SpanEnded(span telemetry.SpanSnapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ended = append(b.ended, span)
	return b.SpanEndedErr
}

// Started returns the snapshots received at span start.
func (b *RecordingBackend) Started() []telemetry.SpanSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]telemetry.SpanSnapshot, len(b.started))
	copy(out, b.started)
	return out
}

// Events returns the recorded events in arrival order.
func (b *RecordingBackend) Events() []RecordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedEvent, len(b.events))
	copy(out, b.events)
	return out
}

// Ended returns the final snapshots received at span end.
func (b *RecordingBackend) Ended() []telemetry.SpanSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]telemetry.SpanSnapshot, len(b.ended))
	copy(out, b.ended)
	return out
}

// Reset clears all recorded notifications.
func (b *RecordingBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = nil
	b.events = nil
	b.ended = nil
}

// PanicBackend is a test double that panics on every notification, for
// verifying that a misbehaving backend cannot disturb the operation being
// observed.
type PanicBackend struct{}

var _ telemetry.Backend = (*PanicBackend)(nil)

func (b *PanicBackend) Name() string {
	return "panicking"
}

func (b *PanicBackend) SpanStarted(span telemetry.SpanSnapshot) error {
	panic("span started")
}

func (b *PanicBackend) SpanEvent(span telemetry.SpanSnapshot, event telemetry.Event) error {
	panic("span event")
}

func (b *PanicBackend) SpanEnded(span telemetry.SpanSnapshot) error {
	panic("span ended")
}
