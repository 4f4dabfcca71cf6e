package mock

import (
	"context"
	"fmt"
)

// MockSynthesizer is a test double for ai.Synthesizer.
// It allows custom behavior injection via a function field.
type MockSynthesizer struct {
	// SynthesizeFunc is called by Synthesize if set.
	// If nil, uses default canned behavior.
	SynthesizeFunc func(ctx context.Context, query string, contexts []string) (string, error)

	callCount    int
	lastQuery    string
	lastContexts []string
}

// NewMockSynthesizer creates a mock synthesizer with default canned behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Synthesize records the call and returns a deterministic canned answer.
// With an empty context it mirrors the production behavior of reporting that
// no relevant logs were found.
func (m *MockSynthesizer) Synthesize(ctx context.Context, query string, contexts []string) (string, error) {
	m.callCount++
	m.lastQuery = query
	m.lastContexts = contexts

	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, query, contexts)
	}

	if len(contexts) == 0 {
		return "No relevant logs were found for this question.", nil
	}
	return fmt.Sprintf("Answer derived from %d log excerpt(s).", len(contexts)), nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesizer) CallCount() int {
	return m.callCount
}

// LastQuery returns the query passed to the most recent call.
func (m *MockSynthesizer) LastQuery() string {
	return m.lastQuery
}

// LastContexts returns the contexts passed to the most recent call.
func (m *MockSynthesizer) LastContexts() []string {
	return m.lastContexts
}

// Reset clears the call count and injected behavior.
func (m *MockSynthesizer) Reset() {
	m.callCount = 0
	m.lastQuery = ""
	m.lastContexts = nil
	m.SynthesizeFunc = nil
}
