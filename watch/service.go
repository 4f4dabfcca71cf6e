package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/logsight/ingestion"
)

const defaultDebounce = 400 * time.Millisecond

// Service watches a directory and ingests log files as they appear or change.
// Writes are debounced per file, so a log being appended in bursts is
// ingested once per quiet period rather than once per write.
type Service struct {
	pipeline   *ingestion.Pipeline
	dir        string
	extensions []string
	debounce   time.Duration
	pool       *ants.Pool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timers  map[string]*time.Timer
	started bool

	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithPoolSize sets the worker pool size for concurrent ingestion.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithDebounce sets the per-file quiet period before ingestion.
// Default is 400ms.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) error {
		if d > 0 {
			s.debounce = d
		}
		return nil
	}
}

// WithExtensions restricts watching to files with the given extensions.
// Default is all files.
func WithExtensions(extensions ...string) Option {
	return func(s *Service) error {
		s.extensions = extensions
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a watch service over the given directory.
func NewService(pipeline *ingestion.Pipeline, dir string, opts ...Option) (*Service, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if dir == "" {
		return nil, ErrEmptyDir
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Service{
		pipeline: pipeline,
		dir:      dir,
		debounce: defaultDebounce,
		pool:     pool,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.pool.Release()
			return nil, err
		}
	}

	return s, nil
}

// Start begins watching. It returns immediately; events are processed until
// ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		s.mu.Unlock()
		return err
	}
	s.watcher = watcher
	s.started = true
	s.mu.Unlock()

	s.logger.Info("watching directory", "dir", s.dir)
	go s.run(ctx)
	return nil
}

// SyncExisting ingests all matching files already present in the directory.
// Call after Start to pick up files that predate the watch.
func (s *Service) SyncExisting() {
	filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if s.matchExtension(path) {
			s.submit(path)
		}
		return nil
	})
}

func (s *Service) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				s.logger.Warn("watch error", "err", err)
			}
		}
	}
}

func (s *Service) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	if !s.matchExtension(ev.Name) {
		return
	}
	s.debounceIngest(ev.Name)
}

// debounceIngest (re)arms the per-file timer; the file is submitted for
// ingestion once no further writes arrive within the quiet period.
func (s *Service) debounceIngest(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[path]; ok {
		t.Stop()
	}
	s.timers[path] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, path)
		s.mu.Unlock()
		s.submit(path)
	})
}

// submit hands a file to the worker pool for ingestion. Failures are logged,
// never fatal to the watch loop.
func (s *Service) submit(path string) {
	err := s.pool.Submit(func() {
		if _, err := s.pipeline.IngestFile(context.Background(), path); err != nil {
			s.logger.Error("error ingesting watched file", "path", path, "err", err)
		}
	})
	if err != nil {
		s.logger.Error("error submitting ingestion job", "path", path, "err", err)
	}
}

func (s *Service) matchExtension(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range s.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Stop stops watching and releases the worker pool. Pending debounced files
// are dropped; in-flight ingestions run to completion.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started || s.watcher == nil {
		s.mu.Unlock()
		return
	}
	for path, t := range s.timers {
		t.Stop()
		delete(s.timers, path)
	}
	s.watcher.Close()
	s.watcher = nil
	s.started = false
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.done) })
	s.pool.Release()
}
