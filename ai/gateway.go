package ai

import (
	"context"
	"log/slog"
)

// EmbeddingGateway wraps an Embedder and enforces the index dimensionality
// contract: every vector it returns has exactly the configured length. A
// vector of any other length is rejected with a DimensionError instead of
// being truncated or padded.
type EmbeddingGateway struct {
	embedder Embedder
	dims     int
	logger   *slog.Logger
}

// GatewayOption configures an EmbeddingGateway.
type GatewayOption func(*EmbeddingGateway)

// WithGatewayLogger sets a custom logger.
// Default is slog.Default().
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *EmbeddingGateway) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// NewEmbeddingGateway creates a gateway bound to the target index's declared
// dimensionality.
func NewEmbeddingGateway(embedder Embedder, dims int, opts ...GatewayOption) (*EmbeddingGateway, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if dims <= 0 {
		return nil, ErrInvalidDimensions
	}

	g := &EmbeddingGateway{
		embedder: embedder,
		dims:     dims,
		logger:   slog.Default().With("component", "embedding-gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Dimensions returns the vector length this gateway enforces.
func (g *EmbeddingGateway) Dimensions() int {
	return g.dims
}

// EmbedText generates an embedding for a single text and verifies its length.
func (g *EmbeddingGateway) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vector, err := g.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) != g.dims {
		g.logger.Error("embedding dimension mismatch", "expected", g.dims, "got", len(vector))
		return nil, &DimensionError{Want: g.dims, Got: len(vector)}
	}
	return vector, nil
}

// EmbedTexts generates embeddings for multiple texts and verifies every length.
func (g *EmbeddingGateway) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := g.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	for _, vector := range vectors {
		if len(vector) != g.dims {
			g.logger.Error("embedding dimension mismatch", "expected", g.dims, "got", len(vector))
			return nil, &DimensionError{Want: g.dims, Got: len(vector)}
		}
	}
	return vectors, nil
}
