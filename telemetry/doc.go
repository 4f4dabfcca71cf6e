// Package telemetry provides the process-wide fan-out tracer.
//
// A Hub starts a Span per logical operation (one ingestion, one query) and
// forwards span activity to zero or more optional Backend implementations.
// Backends are best-effort observers: every call into a backend is guarded,
// and a failing or panicking backend is logged and skipped. Primary pipeline
// logic completes identically whether zero, one, or many backends are active.
//
// Each guarded call produces a Delivery value tagging the outcome
// (delivered / ignored failure) instead of relying on silent suppression.
package telemetry
