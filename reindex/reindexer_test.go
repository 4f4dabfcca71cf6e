package reindex

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/logsight/ai"
	aimock "github.com/poiesic/logsight/ai/mock"
	"github.com/poiesic/logsight/core"
	"github.com/poiesic/logsight/storage"
	"github.com/poiesic/logsight/storage/badger"
)

type reindexFixture struct {
	repo     storage.DocumentRepository
	embedder *aimock.MockEmbedder
	gateway  *ai.EmbeddingGateway
	output   bytes.Buffer
}

func newReindexFixture(t *testing.T) *reindexFixture {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository(aimock.DefaultDimensions)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := aimock.NewMockEmbedder()
	gateway, err := ai.NewEmbeddingGateway(embedder, aimock.DefaultDimensions)
	require.NoError(t, err)

	return &reindexFixture{
		repo:     repo,
		embedder: embedder,
		gateway:  gateway,
	}
}

func (f *reindexFixture) seed(t *testing.T, filename, content string) *core.Document {
	t.Helper()

	stale := make([]float32, aimock.DefaultDimensions)
	stale[0] = 0.5
	doc := &core.Document{
		Id:        core.IDFromName(filename),
		Content:   content,
		Filename:  filename,
		Timestamp: time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC),
		Vector:    stale,
	}
	require.NoError(t, f.repo.Upsert(context.Background(), doc))
	return doc
}

func fastConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 1,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func TestReindexerRefreshesVectors(t *testing.T) {
	f := newReindexFixture(t)
	ctx := context.Background()

	f.seed(t, "a.log", "timeout in handler")
	f.seed(t, "b.log", "connection refused")
	f.seed(t, "c.log", "request completed")

	fresh := make([]float32, aimock.DefaultDimensions)
	fresh[1] = 1
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = fresh
		}
		return vectors, nil
	}

	reindexer, err := NewReindexer(f.repo, f.gateway, fastConfig(), &f.output)
	require.NoError(t, err)
	require.NoError(t, reindexer.Run(ctx))

	for _, name := range []string{"a.log", "b.log", "c.log"} {
		got, err := f.repo.Get(ctx, core.IDFromName(name))
		require.NoError(t, err)
		assert.Equal(t, fresh, got.Vector, "vector for %s should be refreshed", name)
	}

	out := f.output.String()
	assert.Contains(t, out, "Starting reindexing of 3 documents")
	assert.Contains(t, out, "Reindexing complete. Processed 3 documents")
}

func TestReindexerEmptyStore(t *testing.T) {
	f := newReindexFixture(t)

	reindexer, err := NewReindexer(f.repo, f.gateway, fastConfig(), &f.output)
	require.NoError(t, err)
	require.NoError(t, reindexer.Run(context.Background()))

	assert.Contains(t, f.output.String(), "No documents found")
}

func TestReindexerProcessesInBatches(t *testing.T) {
	f := newReindexFixture(t)

	for _, name := range []string{"a.log", "b.log", "c.log", "d.log", "e.log"} {
		f.seed(t, name, "content of "+name)
	}

	var batchSizes []int
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batchSizes = append(batchSizes, len(texts))
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = make([]float32, aimock.DefaultDimensions)
		}
		return vectors, nil
	}

	config := fastConfig()
	config.BatchSize = 2
	reindexer, err := NewReindexer(f.repo, f.gateway, config, &f.output)
	require.NoError(t, err)
	require.NoError(t, reindexer.Run(context.Background()))

	assert.Equal(t, []int{2, 2, 1}, batchSizes)
}

func TestReindexerRetriesFailedBatch(t *testing.T) {
	f := newReindexFixture(t)
	f.seed(t, "a.log", "timeout in handler")

	calls := 0
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("embedding service unavailable")
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = make([]float32, aimock.DefaultDimensions)
		}
		return vectors, nil
	}

	reindexer, err := NewReindexer(f.repo, f.gateway, fastConfig(), &f.output)
	require.NoError(t, err)
	require.NoError(t, reindexer.Run(context.Background()))
	assert.Equal(t, 3, calls, "should succeed on third attempt")
}

func TestReindexerFailsAfterExhaustedRetries(t *testing.T) {
	f := newReindexFixture(t)
	f.seed(t, "a.log", "timeout in handler")

	remoteErr := errors.New("embedding service unavailable")
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, remoteErr
	}

	reindexer, err := NewReindexer(f.repo, f.gateway, fastConfig(), &f.output)
	require.NoError(t, err)

	err = reindexer.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, remoteErr)
}

func TestReindexerRejectsWrongDimensions(t *testing.T) {
	f := newReindexFixture(t)
	f.seed(t, "a.log", "timeout in handler")

	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 2, 3}}, nil
	}

	config := fastConfig()
	config.MaxRetries = 1
	reindexer, err := NewReindexer(f.repo, f.gateway, config, &f.output)
	require.NoError(t, err)

	err = reindexer.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ai.ErrDimensionMismatch)
}

func TestNewReindexerValidation(t *testing.T) {
	f := newReindexFixture(t)

	_, err := NewReindexer(nil, f.gateway, nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReindexer(f.repo, nil, nil, nil)
	assert.ErrorIs(t, err, ErrGatewayRequired)
}
