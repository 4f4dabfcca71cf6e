// Package ai provides abstractions for the AI services used in logsight.
//
// This package defines interfaces for text embedding and answer synthesis.
// It follows the dependency inversion principle, allowing the ingestion and
// query engines to depend on abstractions rather than concrete
// implementations.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Synthesizer: Generates natural-language answers from retrieved excerpts
//   - AIProvider: Aggregates AI services for convenient initialization
//
// The EmbeddingGateway type wraps an Embedder with the index dimensionality
// contract: every vector crossing the gateway is length-checked, and a
// mismatch fails hard with a DimensionError rather than being silently
// truncated or padded.
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// interface types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockSynthesizer) return concrete types to
// enable test assertions and behavior injection.
package ai
