// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Synthesizer,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run
// without external AI services and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedderWithDimensions(1536)
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//		return nil, errors.New("embedding service down")
//	}
package mock
