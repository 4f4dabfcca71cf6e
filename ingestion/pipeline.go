package ingestion

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/poiesic/logsight/ai"
	"github.com/poiesic/logsight/core"
	"github.com/poiesic/logsight/storage"
	"github.com/poiesic/logsight/telemetry"
)

// Pipeline turns raw log payloads into embedded, searchable documents.
// Each ingestion runs the fixed stage sequence decode, detect, embed, store;
// a failure in any stage surfaces as a StageError naming that stage.
type Pipeline struct {
	repository storage.DocumentRepository
	gateway    *ai.EmbeddingGateway
	hub        *telemetry.Hub
	detector   *Detector
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithHub sets the telemetry hub used to trace ingestions.
// Default is a hub with no backends.
func WithHub(hub *telemetry.Hub) Option {
	return func(p *Pipeline) error {
		if hub != nil {
			p.hub = hub
		}
		return nil
	}
}

// WithPatterns replaces the default incident patterns.
func WithPatterns(patterns ...string) Option {
	return func(p *Pipeline) error {
		detector, err := NewDetector(patterns...)
		if err != nil {
			return err
		}
		p.detector = detector
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.DocumentRepository,
	gateway *ai.EmbeddingGateway,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if gateway == nil {
		return nil, ErrGatewayRequired
	}

	detector, err := NewDetector()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		gateway:    gateway,
		hub:        telemetry.NewHub(),
		detector:   detector,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Result describes one completed ingestion.
type Result struct {
	// Document is the stored document, vector included.
	Document *core.Document

	// Matches holds per-pattern incident counts found in the content.
	Matches map[string]int

	// MatchCount is the total number of incident pattern occurrences.
	MatchCount int
}

// Ingest processes one log payload identified by name. The name may be a
// path; only its base component identifies the document, so re-ingesting the
// same filename replaces the previous version rather than accumulating
// duplicates.
func (p *Pipeline) Ingest(ctx context.Context, name string, data []byte) (*Result, error) {
	span := p.hub.Begin("ingest_log")
	defer span.End()

	filename := filepath.Base(name)
	span.SetAttribute("blob.name", filename)
	span.SetAttribute("blob.size_bytes", len(data))

	if name == "" || filename == "." || filename == string(filepath.Separator) {
		err := &StageError{Stage: StageDecode, Err: ErrEmptyName}
		span.RecordError(err)
		return nil, err
	}

	// Decode
	if !utf8.Valid(data) {
		err := &StageError{Stage: StageDecode, Err: ErrDecode}
		span.RecordError(err)
		p.logger.Error("rejecting undecodable payload", "filename", filename, "size", len(data))
		return nil, err
	}
	content := string(data)

	// Detect
	matches := p.detector.Scan(content)
	matchCount := 0
	for _, n := range matches {
		matchCount += n
	}

	// Embed
	stopEmbed := telemetry.Timing(span, "embed_ms")
	vector, err := p.gateway.EmbedText(ctx, content)
	stopEmbed()
	if err != nil {
		stageErr := &StageError{Stage: StageEmbed, Err: err}
		span.RecordError(stageErr)
		p.logger.Error("error embedding log content", "filename", filename, "err", err)
		return nil, stageErr
	}

	doc := &core.Document{
		Id:        core.IDFromName(filename),
		Content:   content,
		Filename:  filename,
		Timestamp: time.Now().UTC(),
		Vector:    vector,
	}

	// Store
	if err := p.repository.Upsert(ctx, doc); err != nil {
		stageErr := &StageError{Stage: StageStore, Err: err}
		span.RecordError(stageErr)
		p.logger.Error("error storing document", "filename", filename, "err", err)
		return nil, stageErr
	}

	span.AddEvent("IndexedToSearch", map[string]any{
		"filename":    filename,
		"match_count": matchCount,
	})
	p.logger.Info("ingested log", "filename", filename,
		"size", len(data), "matches", matchCount)

	return &Result{
		Document:   doc,
		Matches:    matches,
		MatchCount: matchCount,
	}, nil
}

// IngestFile reads a file from disk and ingests it under its base name.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Ingest(ctx, path, data)
}
