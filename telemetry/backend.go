package telemetry

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Backend receives span lifecycle notifications. Implementations observe
// operations but never influence them: any error they return is contained by
// the Hub. Implementations must be safe for concurrent use.
type Backend interface {
	// Name identifies the backend in delivery logs.
	Name() string

	// SpanStarted is called when a span is opened.
	SpanStarted(span SpanSnapshot) error

	// SpanEvent is called for each event added to a span.
	SpanEvent(span SpanSnapshot, event Event) error

	// SpanEnded is called once when a span is closed, with the final state.
	SpanEnded(span SpanSnapshot) error
}

// Delivery is the tagged result of one best-effort backend call: either
// delivered (Err == nil) or an ignored failure.
type Delivery struct {
	Backend string
	Err     error
}

// Delivered reports whether the call reached the backend without error.
func (d Delivery) Delivered() bool {
	return d.Err == nil
}

// SlogBackend forwards span activity to a slog logger. It is the always-on
// operational backend.
type SlogBackend struct {
	logger *slog.Logger
}

var _ Backend = (*SlogBackend)(nil)

// NewSlogBackend creates a backend logging to the given logger.
// A nil logger falls back to slog.Default().
func NewSlogBackend(logger *slog.Logger) *SlogBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogBackend{logger: logger.With("component", "trace")}
}

func (b *SlogBackend) Name() string {
	return "slog"
}

func (b *SlogBackend) SpanStarted(span SpanSnapshot) error {
	b.logger.Debug("span started", "span", span.Name, "span_id", span.Id)
	return nil
}

func (b *SlogBackend) SpanEvent(span SpanSnapshot, event Event) error {
	b.logger.Info("span event", "span", span.Name, "span_id", span.Id,
		"event", event.Name, "attributes", event.Attributes)
	return nil
}

func (b *SlogBackend) SpanEnded(span SpanSnapshot) error {
	duration := span.End.Sub(span.Start)
	if span.Error != "" {
		b.logger.Warn("span failed", "span", span.Name, "span_id", span.Id,
			"duration_ms", duration.Milliseconds(), "err", span.Error)
		return nil
	}
	b.logger.Info("span completed", "span", span.Name, "span_id", span.Id,
		"duration_ms", duration.Milliseconds())
	return nil
}

// TraceFileBackend appends completed spans as JSON lines to a file. It is an
// optional backend, enabled when a trace path is configured.
type TraceFileBackend struct {
	mu   sync.Mutex
	file *os.File
}

var _ Backend = (*TraceFileBackend)(nil)

// NewTraceFileBackend opens (or creates) the trace file in append mode.
func NewTraceFileBackend(path string) (*TraceFileBackend, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &TraceFileBackend{file: file}, nil
}

func (b *TraceFileBackend) Name() string {
	return "tracefile"
}

func (b *TraceFileBackend) SpanStarted(span SpanSnapshot) error {
	return nil
}

func (b *TraceFileBackend) SpanEvent(span SpanSnapshot, event Event) error {
	return nil
}

// SpanEnded writes the final span snapshot as one JSON line.
func (b *TraceFileBackend) SpanEnded(span SpanSnapshot) error {
	line, err := json.Marshal(span)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.file.Write(line); err != nil {
		return err
	}
	return nil
}

// Close flushes and closes the trace file.
func (b *TraceFileBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

// Timing is a small helper for recording step durations as span attributes.
//
//	stop := telemetry.Timing(span, "embed_ms")
//	... do work ...
//	stop()
func Timing(span *Span, key string) func() {
	start := time.Now()
	return func() {
		span.SetAttribute(key, time.Since(start).Milliseconds())
	}
}
