package storage

import (
	"context"

	"github.com/poiesic/logsight/core"
)

// Filter restricts search results to a subset of the corpus.
// A zero Filter matches everything.
type Filter struct {
	// Filename, when non-empty, limits results to documents whose Filename
	// matches exactly.
	Filename string
}

// IsZero reports whether the filter matches all documents.
func (f Filter) IsZero() bool {
	return f.Filename == ""
}

// Field describes one stored document field, for schema inspection.
type Field struct {
	Name       string
	Type       string
	Searchable bool
}

// DocumentRepository provides operations for managing log documents.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// Upsert stores a document, replacing any existing document with the
	// same ID. The document must pass core.ValidateDocument against the
	// repository's configured vector dimensionality.
	Upsert(ctx context.Context, doc *core.Document) error

	// Get retrieves a single document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.Document, error)

	// Delete removes a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	Delete(ctx context.Context, id core.ID) error

	// Search finds documents whose vectors are most similar to the given
	// query vector. Returns up to topK results ordered by similarity score
	// (highest first), restricted by the filter.
	Search(ctx context.Context, vector []float32, topK int, filter Filter) ([]*core.ScoredDocument, error)

	// HybridSearch combines lexical matching on the query text with vector
	// similarity. Documents matched by both channels rank above documents
	// matched by one. Returns ErrUnsupportedMode if the repository has no
	// text index configured.
	HybridSearch(ctx context.Context, text string, vector []float32, topK int, filter Filter) ([]*core.ScoredDocument, error)

	// Count returns the total number of stored documents.
	Count(ctx context.Context) (int, error)

	// ForEach visits every stored document. Iteration stops at the first
	// error returned by fn, which is propagated to the caller.
	ForEach(ctx context.Context, fn func(doc *core.Document) error) error

	// Schema describes the stored document fields.
	Schema() []Field

	// Close closes the repository and releases resources.
	Close() error
}
