package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/logsight/core"
	"github.com/poiesic/logsight/storage"
)

const testDims = 3

func newTestRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository(testDims)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func makeDoc(filename, content string, vector []float32) *core.Document {
	return &core.Document{
		Id:        core.IDFromName(filename),
		Content:   content,
		Filename:  filename,
		Timestamp: time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC),
		Vector:    vector,
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := makeDoc("app.log", "ERROR connection refused", []float32{1, 0, 0})
	require.NoError(t, repo.Upsert(ctx, doc))

	got, err := repo.Get(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, doc.Id, got.Id)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.True(t, doc.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, doc.Vector, got.Vector)
}

func TestUpsertRejectsWrongDimensions(t *testing.T) {
	repo := newTestRepo(t)

	doc := makeDoc("app.log", "ERROR connection refused", []float32{1, 0})
	err := repo.Upsert(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrVectorLength)
}

func TestUpsertReplacesExisting(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := makeDoc("app.log", "first version", []float32{1, 0, 0})
	require.NoError(t, repo.Upsert(ctx, first))

	second := makeDoc("app.log", "second version", []float32{0, 1, 0})
	require.NoError(t, repo.Upsert(ctx, second))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.Get(ctx, first.Id)
	require.NoError(t, err)
	assert.Equal(t, "second version", got.Content)
	assert.Equal(t, []float32{0, 1, 0}, got.Vector)
}

func TestGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get(context.Background(), core.IDFromName("absent.log"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	doc := makeDoc("app.log", "to be removed", []float32{1, 0, 0})
	require.NoError(t, repo.Upsert(ctx, doc))
	require.NoError(t, repo.Delete(ctx, doc.Id))

	_, err := repo.Get(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = repo.Delete(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSearchRanksBySimilarity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeDoc("near.log", "close match", []float32{1, 0, 0})))
	require.NoError(t, repo.Upsert(ctx, makeDoc("mid.log", "partial match", []float32{0.7, 0.7, 0})))
	require.NoError(t, repo.Upsert(ctx, makeDoc("far.log", "unrelated", []float32{0, 0, 1})))

	results, err := repo.Search(ctx, []float32{1, 0, 0}, 10, storage.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "near.log", results[0].Document.Filename)
	assert.Equal(t, "mid.log", results[1].Document.Filename)
	assert.Equal(t, "far.log", results[2].Document.Filename)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestSearchRespectsTopK(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeDoc("a.log", "one", []float32{1, 0, 0})))
	require.NoError(t, repo.Upsert(ctx, makeDoc("b.log", "two", []float32{0, 1, 0})))
	require.NoError(t, repo.Upsert(ctx, makeDoc("c.log", "three", []float32{0, 0, 1})))

	results, err := repo.Search(ctx, []float32{1, 0, 0}, 2, storage.Filter{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchFilenameFilterIsExclusive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeDoc("a.log", "alpha", []float32{1, 0, 0})))
	require.NoError(t, repo.Upsert(ctx, makeDoc("b.log", "beta", []float32{1, 0, 0})))

	results, err := repo.Search(ctx, []float32{1, 0, 0}, 10, storage.Filter{Filename: "a.log"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.log", results[0].Document.Filename)
}

func TestSearchInvalidParameters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Search(ctx, []float32{1, 0}, 10, storage.Filter{})
	assert.ErrorIs(t, err, storage.ErrInvalidVector)

	_, err = repo.Search(ctx, []float32{1, 0, 0}, 0, storage.Filter{})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestHybridSearchWithoutTextIndex(t *testing.T) {
	repo, backend, err := NewMemoryVectorRepository(testDims)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	_, err = repo.HybridSearch(context.Background(), "timeout", []float32{1, 0, 0}, 4, storage.Filter{})
	assert.ErrorIs(t, err, storage.ErrUnsupportedMode)
}

func TestHybridSearchRanking(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// Matched by both channels: lexical "timeout" hit and near-identical vector.
	require.NoError(t, repo.Upsert(ctx,
		makeDoc("a.log", "Timeout connecting to upstream service", []float32{1, 0, 0})))
	// Vector-only: similar vector, no lexical match.
	require.NoError(t, repo.Upsert(ctx,
		makeDoc("b.log", "user login succeeded", []float32{0.95, 0.3, 0})))
	// Lexical-only: matching text, dissimilar vector.
	require.NoError(t, repo.Upsert(ctx,
		makeDoc("c.log", "request timeout in worker pool", []float32{0, 1, 0})))

	results, err := repo.HybridSearch(ctx, "timeout", []float32{1, 0, 0}, 3, storage.Filter{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.log", results[0].Document.Filename)
	assert.Equal(t, "c.log", results[1].Document.Filename)
	assert.Equal(t, "b.log", results[2].Document.Filename)

	// Both-channel hits outrank lexical-only, which outrank weaker vector hits.
	assert.InDelta(t, 1.5, float64(results[0].Score), 0.01)
	assert.InDelta(t, 1.2, float64(results[1].Score), 0.001)
	assert.Less(t, float64(results[2].Score), 1.0)
}

func TestHybridSearchHonorsFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx,
		makeDoc("a.log", "timeout in handler", []float32{1, 0, 0})))
	require.NoError(t, repo.Upsert(ctx,
		makeDoc("c.log", "request timeout in worker pool", []float32{0, 1, 0})))

	results, err := repo.HybridSearch(ctx, "timeout", []float32{1, 0, 0}, 10,
		storage.Filter{Filename: "c.log"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c.log", results[0].Document.Filename)
}

func TestHybridSearchEmptyQueryText(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.HybridSearch(context.Background(), "", []float32{1, 0, 0}, 4, storage.Filter{})
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestCountEmpty(t *testing.T) {
	repo := newTestRepo(t)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSchemaReportsTextSearchability(t *testing.T) {
	repo := newTestRepo(t)

	fields := repo.Schema()
	byName := make(map[string]storage.Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	require.Contains(t, byName, "content")
	assert.True(t, byName["content"].Searchable)
	require.Contains(t, byName, "content_vector")
	assert.Equal(t, "vector(3)", byName["content_vector"].Type)

	vectorOnly, backend, err := NewMemoryVectorRepository(testDims)
	require.NoError(t, err)
	t.Cleanup(func() {
		vectorOnly.Close()
		backend.Close()
	})

	for _, f := range vectorOnly.Schema() {
		if f.Name == "content" {
			assert.False(t, f.Searchable)
		}
	}
}

func TestForEachVisitsAllDocuments(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeDoc("a.log", "alpha", []float32{1, 0, 0})))
	require.NoError(t, repo.Upsert(ctx, makeDoc("b.log", "beta", []float32{0, 1, 0})))

	seen := map[string]bool{}
	err := repo.ForEach(ctx, func(doc *core.Document) error {
		seen[doc.Filename] = true
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"a.log": true, "b.log": true}, seen)
}

func TestForEachPropagatesError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeDoc("a.log", "alpha", []float32{1, 0, 0})))

	wantErr := storage.ErrInvalidQuery
	err := repo.ForEach(ctx, func(doc *core.Document) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, float64(cosineSimilarity([]float32{1, 0, 0}, []float32{2, 0, 0})), 1e-6)
	assert.InDelta(t, 0.0, float64(cosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0})), 1e-6)
	assert.InDelta(t, -1.0, float64(cosineSimilarity([]float32{1, 0, 0}, []float32{-1, 0, 0})), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0, 0}, []float32{1, 0, 0}))
}
