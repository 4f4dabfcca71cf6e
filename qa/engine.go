package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/logsight/ai"
	"github.com/poiesic/logsight/core"
	"github.com/poiesic/logsight/storage"
	"github.com/poiesic/logsight/telemetry"
)

// Mode selects the retrieval strategy for a question.
type Mode string

const (
	// ModeVector retrieves by vector similarity only.
	ModeVector Mode = "vector"

	// ModeHybrid blends lexical matching with vector similarity. Any hybrid
	// failure degrades the call to vector-only retrieval.
	ModeHybrid Mode = "hybrid"
)

const (
	// DefaultTopK is the number of documents retrieved when the request
	// doesn't specify one.
	DefaultTopK = 4

	// MaxTopK caps the number of retrieved documents per question.
	MaxTopK = 10

	// snippetLength is the number of characters of a source document shown
	// in a citation.
	snippetLength = 200
)

// Request is one question against the ingested logs.
type Request struct {
	// Query is the natural-language question.
	Query string

	// TopK is the number of documents to retrieve. Zero means DefaultTopK;
	// values are clamped to [1, MaxTopK].
	TopK int

	// FilenameFilter, when non-empty, restricts retrieval to one log file.
	FilenameFilter string

	// Mode selects the retrieval strategy. Empty means ModeHybrid.
	Mode Mode
}

// Source cites one document that informed an answer.
type Source struct {
	Filename string
	Snippet  string
}

// Response is a synthesized answer with its supporting sources.
type Response struct {
	Answer  string
	Sources []Source

	// Mode is the retrieval mode actually used, which differs from the
	// requested mode after a hybrid fallback.
	Mode Mode
}

// Engine answers questions over the ingested log corpus: it embeds the
// question, retrieves the most relevant documents, and synthesizes an answer
// grounded in them.
type Engine struct {
	repository  storage.DocumentRepository
	gateway     *ai.EmbeddingGateway
	synthesizer ai.Synthesizer
	hub         *telemetry.Hub
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithHub sets the telemetry hub used to trace questions.
// Default is a hub with no backends.
func WithHub(hub *telemetry.Hub) Option {
	return func(e *Engine) error {
		if hub != nil {
			e.hub = hub
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a question answering engine.
func NewEngine(
	repository storage.DocumentRepository,
	gateway *ai.EmbeddingGateway,
	synthesizer ai.Synthesizer,
	opts ...Option,
) (*Engine, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if gateway == nil {
		return nil, ErrGatewayRequired
	}
	if synthesizer == nil {
		return nil, ErrSynthesizerRequired
	}

	e := &Engine{
		repository:  repository,
		gateway:     gateway,
		synthesizer: synthesizer,
		hub:         telemetry.NewHub(),
		logger:      slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Answer resolves one question. An empty retrieval result still produces an
// answer; the synthesizer is told no matching excerpts were found.
func (e *Engine) Answer(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()
	span := e.hub.Begin("qa_query")
	defer span.End()

	if strings.TrimSpace(req.Query) == "" {
		span.RecordError(ErrEmptyQuery)
		return nil, ErrEmptyQuery
	}

	mode := req.Mode
	if mode == "" {
		mode = ModeHybrid
	}
	if mode != ModeVector && mode != ModeHybrid {
		err := fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
		span.RecordError(err)
		return nil, err
	}

	topK := clampTopK(req.TopK)
	filter := storage.Filter{Filename: req.FilenameFilter}

	span.SetAttribute("query", req.Query)
	span.SetAttribute("mode", string(mode))
	if req.FilenameFilter != "" {
		span.SetAttribute("filter.filename", req.FilenameFilter)
	}

	// Embed the question
	vector, err := e.gateway.EmbedText(ctx, req.Query)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	// Retrieve
	matches, usedMode, err := e.retrieve(ctx, mode, req.Query, vector, topK, filter)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("error retrieving documents", "mode", mode, "err", err)
		return nil, err
	}
	if usedMode != mode {
		span.SetAttribute("mode", string(usedMode))
	}

	contexts := make([]string, len(matches))
	sources := make([]Source, len(matches))
	filenames := make([]string, len(matches))
	for i, match := range matches {
		contexts[i] = match.Document.Content
		filenames[i] = match.Document.Filename
		sources[i] = Source{
			Filename: match.Document.Filename,
			Snippet:  makeSnippet(match.Document.Content),
		}
	}

	span.AddEvent("qa_sources", map[string]any{
		"count":     len(sources),
		"filenames": filenames,
	})

	// Synthesize
	answer, err := e.synthesizer.Synthesize(ctx, req.Query, contexts)
	if err != nil {
		wrapped := fmt.Errorf("%w: %w", ai.ErrSynthesis, err)
		span.RecordError(wrapped)
		e.logger.Error("error synthesizing answer", "err", err)
		return nil, wrapped
	}

	span.SetAttribute("latency_ms", time.Since(started).Milliseconds())
	e.logger.Info("answered query", "mode", usedMode,
		"sources", len(sources), "latency_ms", time.Since(started).Milliseconds())

	return &Response{
		Answer:  answer,
		Sources: sources,
		Mode:    usedMode,
	}, nil
}

// retrieve runs the requested retrieval mode. Hybrid failures of any kind
// degrade to vector-only search for this call; only the vector search error
// reaches the caller.
func (e *Engine) retrieve(ctx context.Context, mode Mode, text string, vector []float32, topK int, filter storage.Filter) ([]*core.ScoredDocument, Mode, error) {
	if mode == ModeHybrid {
		matches, err := e.repository.HybridSearch(ctx, text, vector, topK, filter)
		if err == nil {
			return matches, ModeHybrid, nil
		}
		if errors.Is(err, storage.ErrUnsupportedMode) {
			e.logger.Warn("hybrid search unsupported, falling back to vector search")
		} else {
			e.logger.Warn("hybrid search failed, falling back to vector search", "err", err)
		}
	}

	matches, err := e.repository.Search(ctx, vector, topK, filter)
	if err != nil {
		return nil, ModeVector, err
	}
	return matches, ModeVector, nil
}

// clampTopK applies the default and bounds to a requested result count.
func clampTopK(topK int) int {
	if topK == 0 {
		return DefaultTopK
	}
	if topK < 1 {
		return 1
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// makeSnippet flattens newlines and truncates content for a citation.
func makeSnippet(content string) string {
	flattened := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(content)
	runes := []rune(flattened)
	if len(runes) <= snippetLength {
		return flattened
	}
	return string(runes[:snippetLength])
}
