// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package logsight

import (
	"log/slog"
	"path/filepath"

	"github.com/poiesic/logsight/ai"
	"github.com/poiesic/logsight/ai/openai"
	"github.com/poiesic/logsight/ingestion"
	"github.com/poiesic/logsight/qa"
	"github.com/poiesic/logsight/storage"
	"github.com/poiesic/logsight/storage/badger"
	"github.com/poiesic/logsight/telemetry"
)

// Engine wires the storage backend, AI provider, embedding gateway, and
// telemetry hub into one handle, and builds ingestion pipelines and question
// answering engines on top of them.
type Engine struct {
	backend  *badger.Backend
	repo     storage.DocumentRepository
	provider ai.AIProvider
	gateway  *ai.EmbeddingGateway
	hub      *telemetry.Hub
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	hub           *telemetry.Hub
	textIndexPath string
	noTextIndex   bool
}

// WithAIConfig sets the AI service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithTelemetryHub sets the telemetry hub shared by pipelines and engines.
// Default is a hub with a single slog backend.
func WithTelemetryHub(hub *telemetry.Hub) EngineOption {
	return func(o *engineOptions) {
		if hub != nil {
			o.hub = hub
		}
	}
}

// WithTextIndexPath sets the location of the lexical text index.
// Default is a "text.bleve" directory inside the data path.
func WithTextIndexPath(path string) EngineOption {
	return func(o *engineOptions) {
		if path != "" {
			o.textIndexPath = path
		}
	}
}

// WithoutTextIndex disables the lexical text index. Hybrid retrieval then
// reports storage.ErrUnsupportedMode and callers fall back to vector search.
func WithoutTextIndex() EngineOption {
	return func(o *engineOptions) {
		o.noTextIndex = true
	}
}

// NewEngine opens the data directory and connects the AI services.
func NewEngine(filePath string, opts ...EngineOption) (*Engine, error) {
	// Apply options
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.hub == nil {
		options.hub = telemetry.NewHub(
			telemetry.WithBackend(telemetry.NewSlogBackend(slog.Default())),
		)
	}
	if options.textIndexPath == "" {
		options.textIndexPath = filepath.Join(filePath, "text.bleve")
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create document repository, with the lexical index unless disabled
	repoOpts := []badger.Option{}
	if !options.noTextIndex {
		textIndex, err := badger.OpenTextIndex(options.textIndexPath)
		if err != nil {
			backend.Close()
			return nil, err
		}
		repoOpts = append(repoOpts, badger.WithTextIndex(textIndex))
	}

	repo, err := badger.NewDocumentRepository(backend, options.aiConfig.Dimensions, repoOpts...)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	gateway, err := ai.NewEmbeddingGateway(provider.Embedder(), options.aiConfig.Dimensions)
	if err != nil {
		provider.Close()
		repo.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		repo:     repo,
		provider: provider,
		gateway:  gateway,
		hub:      options.hub,
		logger:   slog.Default(),
	}, nil
}

func (e *Engine) Close() error {
	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	// Close repository (releases the text index)
	if err := e.repo.Close(); err != nil {
		e.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Repository() storage.DocumentRepository {
	return e.repo
}

func (e *Engine) Gateway() *ai.EmbeddingGateway {
	return e.gateway
}

func (e *Engine) Hub() *telemetry.Hub {
	return e.hub
}

func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithHub(e.hub)}, opts...)
	return ingestion.NewPipeline(e.repo, e.gateway, opts...)
}

func (e *Engine) NewQAEngine(opts ...qa.Option) (*qa.Engine, error) {
	opts = append([]qa.Option{qa.WithHub(e.hub)}, opts...)
	return qa.NewEngine(e.repo, e.gateway, e.provider.Synthesizer(), opts...)
}
