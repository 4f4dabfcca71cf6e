package telemetry

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is a named, timestamped annotation recorded on a span.
type Event struct {
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Time       time.Time      `json:"time"`
}

// SpanSnapshot is an immutable copy of a span's state, handed to backends.
// Backends never see the live span, so a misbehaving backend cannot mutate
// the operation it is observing.
type SpanSnapshot struct {
	Id         string         `json:"id"`
	Name       string         `json:"name"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end,omitzero"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Events     []Event        `json:"events,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Span is a timed, attributed record of one logical operation (one ingestion,
// one query). It is created by Hub.Begin and must be closed with End on every
// exit path, typically via defer.
type Span struct {
	hub   *Hub
	id    string
	name  string
	start time.Time

	mu     sync.Mutex
	attrs  map[string]any
	events []Event
	err    error
	end    time.Time
	ended  bool
}

func newSpan(hub *Hub, name string) *Span {
	return &Span{
		hub:   hub,
		id:    uuid.NewString(),
		name:  name,
		start: time.Now().UTC(),
		attrs: make(map[string]any),
	}
}

// Id returns the span's unique identifier.
func (s *Span) Id() string {
	return s.id
}

// Name returns the operation name the span was started with.
func (s *Span) Name() string {
	return s.name
}

// SetAttribute records a key/value attribute on the span.
func (s *Span) SetAttribute(key string, value any) {
	s.mu.Lock()
	s.attrs[key] = value
	s.mu.Unlock()
}

// AddEvent records a named event on the span and forwards it to all backends.
func (s *Span) AddEvent(name string, attributes map[string]any) {
	s.mu.Lock()
	event := Event{
		Name:       name,
		Attributes: maps.Clone(attributes),
		Time:       time.Now().UTC(),
	}
	s.events = append(s.events, event)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.dispatch(func(b Backend) error {
		return b.SpanEvent(snapshot, event)
	})
}

// RecordError marks the span as failed. A nil error is ignored.
func (s *Span) RecordError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// End closes the span and forwards the final snapshot to all backends.
// It is idempotent; only the first call is forwarded.
func (s *Span) End() {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.end = time.Now().UTC()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.dispatch(func(b Backend) error {
		return b.SpanEnded(snapshot)
	})
}

// snapshotLocked copies the span state. Callers must hold s.mu.
func (s *Span) snapshotLocked() SpanSnapshot {
	snapshot := SpanSnapshot{
		Id:         s.id,
		Name:       s.name,
		Start:      s.start,
		End:        s.end,
		Attributes: maps.Clone(s.attrs),
		Events:     slices.Clone(s.events),
	}
	if s.err != nil {
		snapshot.Error = s.err.Error()
	}
	return snapshot
}
