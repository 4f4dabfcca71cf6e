// Package mock provides test double trace backends.
//
// RecordingBackend captures every span notification for assertions, and can
// be configured to return errors. PanicBackend panics on every call, which
// tests use to prove that backend failures stay contained.
package mock
