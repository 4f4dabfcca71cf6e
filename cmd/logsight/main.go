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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	logsight "github.com/poiesic/logsight"
	"github.com/poiesic/logsight/ai"
	"github.com/poiesic/logsight/ingestion"
	"github.com/poiesic/logsight/qa"
	"github.com/poiesic/logsight/reindex"
	"github.com/poiesic/logsight/telemetry"
	"github.com/poiesic/logsight/watch"
)

func main() {
	// Optional .env in the working directory; real environment wins.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "logsight",
		Usage: "Retrieval-augmented question answering over log files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest one or more log files",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
				Flags:     append(engineFlags(), ingestFlags()...),
			},
			{
				Name:   "watch",
				Usage:  "Watch a directory and ingest log files as they appear",
				Action: watchCommand,
				Flags: append(engineFlags(), append(ingestFlags(),
					&cli.StringFlag{
						Name:     "dir",
						Usage:    "Directory to watch",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "sync-existing",
						Usage: "Also ingest files already present in the directory",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent ingestion workers",
					},
				)...),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question over the ingested logs",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of log documents to retrieve",
						Value:   qa.DefaultTopK,
					},
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Restrict retrieval to one log file",
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Retrieval mode (hybrid, vector)",
						Value: string(qa.ModeHybrid),
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all stored documents with the configured embedding model",
				Action: reindexCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:   "stats",
				Usage:  "Show document count and index schema",
				Action: statsCommand,
				Flags:  engineFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// engineFlags are shared by every command that opens the engine.
func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to the data directory",
			EnvVars: []string{"LOGSIGHT_DB"},
			Value:   "logsight-data",
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "OpenAI-compatible service host URL",
			EnvVars: []string{"LOGSIGHT_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"LOGSIGHT_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "chat-model",
			Usage:   "Chat model name used for answer synthesis",
			EnvVars: []string{"LOGSIGHT_CHAT_MODEL"},
		},
		&cli.IntFlag{
			Name:    "dimensions",
			Usage:   "Embedding vector dimensionality",
			EnvVars: []string{"LOGSIGHT_DIMENSIONS"},
		},
		&cli.StringFlag{
			Name:    "trace-file",
			Usage:   "Append span traces as JSON lines to this file",
			EnvVars: []string{"LOGSIGHT_TRACE_FILE"},
		},
		&cli.BoolFlag{
			Name:  "no-text-index",
			Usage: "Disable the lexical text index (vector-only retrieval)",
		},
	}
}

func ingestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "pattern",
			Usage: "Incident pattern to count (repeatable, default Exception/Timeout/ERROR)",
		},
	}
}

// openEngine builds the engine from flags. The returned cleanup closes the
// engine and any trace file backend.
func openEngine(c *cli.Context) (*logsight.Engine, func(), error) {
	var aiOpts []ai.ConfigOption
	if host := c.String("host"); host != "" {
		aiOpts = append(aiOpts, ai.WithHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("chat-model"); model != "" {
		aiOpts = append(aiOpts, ai.WithChatModel(model))
	}
	if dims := c.Int("dimensions"); dims > 0 {
		aiOpts = append(aiOpts, ai.WithDimensions(dims))
	}
	aiConfig := ai.NewConfig(aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	hubOpts := []telemetry.Option{
		telemetry.WithBackend(telemetry.NewSlogBackend(slog.Default())),
	}
	var traceBackend *telemetry.TraceFileBackend
	if path := c.String("trace-file"); path != "" {
		backend, err := telemetry.NewTraceFileBackend(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open trace file: %w", err)
		}
		traceBackend = backend
		hubOpts = append(hubOpts, telemetry.WithBackend(backend))
	}

	engineOpts := []logsight.EngineOption{
		logsight.WithAIConfig(aiConfig),
		logsight.WithTelemetryHub(telemetry.NewHub(hubOpts...)),
	}
	if c.Bool("no-text-index") {
		engineOpts = append(engineOpts, logsight.WithoutTextIndex())
	}

	engine, err := logsight.NewEngine(c.String("db"), engineOpts...)
	if err != nil {
		if traceBackend != nil {
			traceBackend.Close()
		}
		return nil, nil, fmt.Errorf("failed to open engine: %w", err)
	}

	cleanup := func() {
		if err := engine.Close(); err != nil {
			slog.Error("error closing engine", "err", err)
		}
		if traceBackend != nil {
			traceBackend.Close()
		}
	}
	return engine, cleanup, nil
}

func pipelineOptions(c *cli.Context) []ingestion.Option {
	var opts []ingestion.Option
	if patterns := c.StringSlice("pattern"); len(patterns) > 0 {
		opts = append(opts, ingestion.WithPatterns(patterns...))
	}
	return opts
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	engine, cleanup, err := openEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline, err := engine.NewIngestionPipeline(pipelineOptions(c)...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		result, err := pipeline.IngestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "ingested %s (%d incident matches)\n",
			result.Document.Filename, result.MatchCount)
	}

	count, err := engine.Repository().Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d documents in store\n", count)
	return nil
}

func watchCommand(c *cli.Context) error {
	engine, cleanup, err := openEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline, err := engine.NewIngestionPipeline(pipelineOptions(c)...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	var watchOpts []watch.Option
	if workers := c.Int("workers"); workers > 0 {
		watchOpts = append(watchOpts, watch.WithPoolSize(workers))
	}

	service, err := watch.NewService(pipeline, c.String("dir"), watchOpts...)
	if err != nil {
		return fmt.Errorf("failed to create watch service: %w", err)
	}
	defer service.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}
	if c.Bool("sync-existing") {
		service.SyncExisting()
	}

	fmt.Fprintf(os.Stderr, "watching %s, press Ctrl-C to stop\n", c.String("dir"))
	<-ctx.Done()
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	engine, cleanup, err := openEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	qaEngine, err := engine.NewQAEngine()
	if err != nil {
		return fmt.Errorf("failed to create QA engine: %w", err)
	}

	resp, err := qaEngine.Answer(context.Background(), qa.Request{
		Query:          question,
		TopK:           c.Int("top-k"),
		FilenameFilter: c.String("filename"),
		Mode:           qa.Mode(c.String("mode")),
	})
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	fmt.Println(resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range resp.Sources {
			fmt.Printf("  %s: %s\n", source.Filename, source.Snippet)
		}
	}
	return nil
}

func reindexCommand(c *cli.Context) error {
	engine, cleanup, err := openEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	reindexer, err := reindex.NewReindexer(engine.Repository(), engine.Gateway(), config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reindexer.Run(ctx); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, cleanup, err := openEngine(c)
	if err != nil {
		return err
	}
	defer cleanup()

	count, err := engine.Repository().Count(context.Background())
	if err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}

	fmt.Printf("documents: %d\n", count)
	fmt.Println("schema:")
	for _, field := range engine.Repository().Schema() {
		searchable := ""
		if field.Searchable {
			searchable = " (searchable)"
		}
		fmt.Printf("  %-16s %s%s\n", field.Name, field.Type, searchable)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
