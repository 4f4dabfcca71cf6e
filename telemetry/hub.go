package telemetry

import (
	"fmt"
	"log/slog"
)

// Hub is the process-wide fan-out tracer. It starts spans and forwards their
// events to zero or more optional backends, isolating every backend failure:
// a backend that returns an error or panics is logged and skipped, and can
// never abort or alter the operation being observed.
//
// Backend handles are read-only after construction, so a Hub is safe for
// concurrent use without additional locking.
type Hub struct {
	backends []Backend
	logger   *slog.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithBackend attaches an optional trace backend. Nil backends are ignored,
// which lets callers pass the result of a capability-presence check directly.
func WithBackend(backend Backend) Option {
	return func(h *Hub) {
		if backend != nil {
			h.backends = append(h.backends, backend)
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger == nil {
			logger = slog.Default()
		}
		h.logger = logger
	}
}

// NewHub creates a hub. A hub with zero backends is valid and cheap: spans
// are still created and timed, and nothing is forwarded.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		logger: slog.Default().With("component", "telemetry"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Backends returns the number of attached backends.
func (h *Hub) Backends() int {
	return len(h.backends)
}

// Begin starts a span for one logical operation. The caller must close it
// with End on every exit path:
//
//	span := hub.Begin("ingest_log")
//	defer span.End()
func (h *Hub) Begin(name string) *Span {
	span := newSpan(h, name)

	snapshot := SpanSnapshot{
		Id:         span.id,
		Name:       span.name,
		Start:      span.start,
		Attributes: map[string]any{},
	}
	h.dispatch(func(b Backend) error {
		return b.SpanStarted(snapshot)
	})

	return span
}

// dispatch forwards one call to every backend, capturing each outcome as a
// best-effort Delivery. Failures are logged at Warn and discarded; ordering
// across backends is unspecified.
func (h *Hub) dispatch(call func(Backend) error) []Delivery {
	if len(h.backends) == 0 {
		return nil
	}

	deliveries := make([]Delivery, 0, len(h.backends))
	for _, backend := range h.backends {
		delivery := Delivery{Backend: backend.Name(), Err: guard(backend, call)}
		if !delivery.Delivered() {
			h.logger.Warn("trace backend delivery failed",
				"backend", delivery.Backend, "err", delivery.Err)
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries
}

// guard invokes one backend call, converting panics into errors.
func guard(backend Backend, call func(Backend) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return call(backend)
}
