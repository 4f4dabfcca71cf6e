package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/blevesearch/bleve/v2"
	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/poiesic/logsight/core"
	"github.com/poiesic/logsight/storage"
)

// Score weights for hybrid search. Documents matched by both the lexical and
// vector channels rank above documents matched by one.
const (
	bothChannelsBoost = 1.5
	lexicalOnlyScore  = 1.2
)

// hybridCandidateFactor widens the per-channel candidate pool before merging,
// so a document ranked just below topK in one channel can still surface when
// the other channel confirms it.
const hybridCandidateFactor = 4

// hybridSimilarityFloor is the minimum cosine similarity for a document to
// count as a vector-channel hit during hybrid search. Below it, a document
// can still surface through the lexical channel.
const hybridSimilarityFloor = 0.60

// DocumentRepository implements storage.DocumentRepository for BadgerDB, with
// an optional Bleve text index providing the lexical channel of hybrid search.
type DocumentRepository struct {
	backend   *Backend
	dims      int
	textIndex bleve.Index
	logger    *slog.Logger
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// Option configures a DocumentRepository.
type Option func(*DocumentRepository) error

// WithTextIndex attaches a Bleve text index, enabling HybridSearch. The
// repository takes ownership and closes the index on Close.
func WithTextIndex(index bleve.Index) Option {
	return func(r *DocumentRepository) error {
		r.textIndex = index
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *DocumentRepository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewDocumentRepository creates a repository storing documents with vectors of
// the given dimensionality.
func NewDocumentRepository(backend *Backend, dims int, opts ...Option) (storage.DocumentRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend is required", storage.ErrUnavailable)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", storage.ErrInvalidQuery, dims)
	}

	r := &DocumentRepository{
		backend: backend,
		dims:    dims,
		logger:  slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Close releases the text index, if any. The backend is shared and closed by
// its owner.
func (r *DocumentRepository) Close() error {
	if r.textIndex == nil {
		return nil
	}
	return r.textIndex.Close()
}

// Upsert stores a document, replacing any existing document with the same ID.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *core.Document) error {
	if err := core.ValidateDocument(doc, r.dims); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	err := r.backend.WithTx(func(tx *badgerdb.Txn) error {
		key := makeDocumentKey(doc.Id)
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	if r.textIndex != nil {
		entry := textEntry{Content: doc.Content, Filename: doc.Filename}
		if err := r.textIndex.Index(string(doc.Id), entry); err != nil {
			return fmt.Errorf("%w: text index update: %w", storage.ErrUnavailable, err)
		}
	}

	return nil
}

// Get retrieves a single document by ID.
func (r *DocumentRepository) Get(ctx context.Context, id core.ID) (*core.Document, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var result *core.Document
	err := r.backend.WithTx(func(tx *badgerdb.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// Delete removes a document by ID.
func (r *DocumentRepository) Delete(ctx context.Context, id core.ID) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	err := r.backend.WithTx(func(tx *badgerdb.Txn) error {
		key := makeDocumentKey(id)
		doc, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	if r.textIndex != nil {
		if err := r.textIndex.Delete(string(id)); err != nil {
			return fmt.Errorf("%w: text index update: %w", storage.ErrUnavailable, err)
		}
	}

	return nil
}

// Search finds documents whose vectors are most similar to the query vector.
func (r *DocumentRepository) Search(ctx context.Context, vector []float32, topK int, filter storage.Filter) ([]*core.ScoredDocument, error) {
	if err := r.checkQuery(vector, topK); err != nil {
		return nil, err
	}

	results, err := r.scanSimilar(vector, filter, -1)
	if err != nil {
		return nil, err
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// HybridSearch combines lexical matching with vector similarity. Documents
// found by both channels score highest, lexical-only hits rank above weak
// vector hits, and vector-only hits keep their similarity score.
func (r *DocumentRepository) HybridSearch(ctx context.Context, text string, vector []float32, topK int, filter storage.Filter) ([]*core.ScoredDocument, error) {
	if r.textIndex == nil {
		return nil, fmt.Errorf("%w: hybrid search requires a text index", storage.ErrUnsupportedMode)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: query text is empty", storage.ErrInvalidQuery)
	}
	if err := r.checkQuery(vector, topK); err != nil {
		return nil, err
	}

	candidates := topK * hybridCandidateFactor

	// Lexical channel
	searchReq := bleve.NewSearchRequest(buildTextQuery(text, filter.Filename))
	searchReq.Size = candidates
	lexicalResult, err := r.textIndex.SearchInContext(ctx, searchReq)
	if err != nil {
		return nil, fmt.Errorf("%w: text search: %w", storage.ErrUnavailable, err)
	}

	lexicalSet := make(map[core.ID]bool, len(lexicalResult.Hits))
	for _, hit := range lexicalResult.Hits {
		lexicalSet[core.ID(hit.ID)] = true
	}

	// Vector channel
	vectorMatches, err := r.scanSimilar(vector, filter, hybridSimilarityFloor)
	if err != nil {
		return nil, err
	}
	if len(vectorMatches) > candidates {
		vectorMatches = vectorMatches[:candidates]
	}

	vectorScores := make(map[core.ID]float32, len(vectorMatches))
	results := make([]*core.ScoredDocument, 0, len(vectorMatches)+len(lexicalSet))

	for _, match := range vectorMatches {
		vectorScores[match.Document.Id] = match.Score
		score := match.Score
		if lexicalSet[match.Document.Id] {
			score = bothChannelsBoost * match.Score
		}
		results = append(results, &core.ScoredDocument{
			Document: match.Document,
			Score:    score,
		})
	}

	// Lexical-only hits need their documents fetched from the primary store.
	err = r.backend.WithTx(func(tx *badgerdb.Txn) error {
		for id := range lexicalSet {
			if _, seen := vectorScores[id]; seen {
				continue
			}
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc == nil {
				// Index is ahead of the store; skip the stale hit.
				r.logger.Warn("text index hit missing from store", "id", id)
				continue
			}
			results = append(results, &core.ScoredDocument{
				Document: doc,
				Score:    lexicalOnlyScore,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	sortByScore(results)
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Count returns the total number of stored documents.
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return count, nil
}

// ForEach visits every stored document in key order.
func (r *DocumentRepository) ForEach(ctx context.Context, fn func(doc *core.Document) error) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Schema describes the stored document fields.
func (r *DocumentRepository) Schema() []storage.Field {
	return []storage.Field{
		{Name: "id", Type: "keyword", Searchable: false},
		{Name: "content", Type: "text", Searchable: r.textIndex != nil},
		{Name: "filename", Type: "keyword", Searchable: true},
		{Name: "timestamp", Type: "datetime", Searchable: false},
		{Name: "content_vector", Type: fmt.Sprintf("vector(%d)", r.dims), Searchable: true},
	}
}

// checkQuery validates common search parameters.
func (r *DocumentRepository) checkQuery(vector []float32, topK int) error {
	if len(vector) != r.dims {
		return fmt.Errorf("%w: want %d dimensions, got %d", storage.ErrInvalidVector, r.dims, len(vector))
	}
	if topK <= 0 {
		return fmt.Errorf("%w: topK must be positive, got %d", storage.ErrInvalidQuery, topK)
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// scanSimilar iterates all documents, scoring each against the query vector.
// Results with similarity >= minScore are ordered by similarity descending
// and restricted by the filter.
func (r *DocumentRepository) scanSimilar(vector []float32, filter storage.Filter, minScore float32) ([]*core.ScoredDocument, error) {
	var results []*core.ScoredDocument

	err := r.backend.WithTx(func(tx *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if doc == nil || len(doc.Vector) == 0 {
				continue
			}
			if !filter.IsZero() && doc.Filename != filter.Filename {
				continue
			}

			similarity := cosineSimilarity(vector, doc.Vector)
			if similarity < minScore {
				continue
			}

			results = append(results, &core.ScoredDocument{
				Document: doc,
				Score:    similarity,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	sortByScore(results)
	return results, nil
}

// readDocument reads a document from the transaction.
// Returns nil without error when the key is absent.
func readDocument(tx *badgerdb.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badgerdb.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// sortByScore orders results by score descending.
func sortByScore(results []*core.ScoredDocument) {
	slices.SortFunc(results, func(a, b *core.ScoredDocument) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
}

// cosineSimilarity calculates the cosine similarity of two vectors.
func cosineSimilarity(a, b []float32) float32 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
