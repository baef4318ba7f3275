// Package inbox watches a directory and imports the EAD files dropped into
// it, one run at a time.
package inbox

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/eadimport/pkg/core"
)

// DefaultPattern selects the files imported from the inbox.
const DefaultPattern = "**/*.xml"

// Handler imports one file.
type Handler func(ctx context.Context, path string) (*core.Run, error)

// Config configures an inbox.
type Config struct {
	Dir      string
	Pattern  string        // doublestar pattern relative to Dir
	Debounce time.Duration // quiet time before a changed file is queued
	Scan     bool          // queue the matching files present at start
	Logger   *slog.Logger
	Events   chan<- core.JobEvent // optional job status feed
}

// Stats counts the jobs of an inbox.
type Stats struct {
	Active    bool   `json:"active"`
	Queued    int    `json:"queued"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Last      string `json:"last,omitempty"`
}

// Inbox is a lifecycle worker. Files are handled sequentially in the order
// they settle.
type Inbox struct {
	*worker.BaseWorker
	config  Config
	handle  Handler
	watcher *fsnotify.Watcher
	queue   chan string
	cancel  context.CancelFunc

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]time.Time
	stats   Stats
}

// New returns an inbox calling handle for every settled file.
func New(config Config, handle Handler) *Inbox {
	if config.Pattern == "" {
		config.Pattern = DefaultPattern
	}
	if config.Debounce <= 0 {
		config.Debounce = 200 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Inbox{
		BaseWorker: worker.NewBaseWorker("ead-inbox"),
		config:     config,
		handle:     handle,
		queue:      make(chan string, 64),
		pending:    make(map[string]*time.Timer),
		seen:       make(map[string]time.Time),
	}
}

func (w *Inbox) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("inbox already started (status: %s)", status)
	}
	if !doublestar.ValidatePattern(w.config.Pattern) {
		return fmt.Errorf("invalid inbox pattern %q", w.config.Pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := addTree(watcher, w.config.Dir); err != nil {
		_ = watcher.Close()
		return err
	}
	w.watcher = watcher

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.setActive(true)
	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *Inbox) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *Inbox) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"dir":               w.config.Dir,
			"pattern":           w.config.Pattern,
		}
	})
}

// Stats returns a copy of the counters.
func (w *Inbox) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Inbox) setActive(active bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.Active = active
}

// addTree watches dir and its subdirectories; fsnotify is not recursive.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Inbox) matches(path string) bool {
	rel, err := filepath.Rel(w.config.Dir, path)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(w.config.Pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

func (w *Inbox) scan(ctx context.Context) error {
	matches, err := doublestar.Glob(os.DirFS(w.config.Dir), w.config.Pattern)
	if err != nil {
		return fmt.Errorf("failed to scan inbox: %w", err)
	}
	for _, m := range matches {
		w.enqueue(ctx, filepath.Join(w.config.Dir, filepath.FromSlash(m)))
	}
	return nil
}

// settle restarts the quiet period of path.
func (w *Inbox) settle(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.config.Debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.enqueue(ctx, path)
	})
}

func (w *Inbox) enqueue(ctx context.Context, path string) {
	select {
	case w.queue <- path:
		w.mu.Lock()
		w.stats.Queued++
		w.mu.Unlock()
	case <-ctx.Done():
	}
}

func (w *Inbox) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// run is the event loop. A companion goroutine drains the queue.
func (w *Inbox) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("inbox panic: %v", recovered)
			if w.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.config.Logger.Error("inbox panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.config.Logger.Error("inbox panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.setActive(false)
	defer w.watcher.Close()
	defer w.stopTimers()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	done := make(chan struct{})
	lifecycle.Go(consumerCtx, func(ctx context.Context) error {
		defer close(done)
		w.consume(ctx)
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.config.Logger.Error("inbox consumer panic", "error", err)
	}))
	defer func() {
		stopConsumer()
		<-done
	}()

	if w.config.Scan {
		if err := w.scan(ctx); err != nil {
			w.config.Logger.Warn("inbox scan failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.onEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.config.Logger.Error("fsnotify error", "error", wErr)
		}
	}
}

func (w *Inbox) onEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if err := addTree(w.watcher, event.Name); err != nil {
			w.config.Logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
		}
		return
	}
	if !w.matches(event.Name) {
		return
	}
	w.config.Logger.Debug("inbox event", "name", event.Name, "op", event.Op.String())
	w.settle(ctx, event.Name)
}

func (w *Inbox) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.process(ctx, path)
		}
	}
}

// process runs one import unless the file did not change since it was last
// handled.
func (w *Inbox) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil {
		w.config.Logger.Debug("queued file vanished", "path", path)
		return
	}
	w.mu.Lock()
	last, done := w.seen[path]
	w.mu.Unlock()
	if done && last.Equal(info.ModTime()) {
		return
	}

	w.emit(ctx, core.JobEvent{Source: path, Status: core.JobStarted, Timestamp: time.Now()})
	run, err := w.handle(ctx, path)

	event := core.JobEvent{Source: path, Status: core.JobCompleted, Timestamp: time.Now()}
	if run != nil {
		event.RunID = run.ID
		event.Stats = run.Stats()
	}
	w.mu.Lock()
	w.seen[path] = info.ModTime()
	w.stats.Processed++
	w.stats.Last = path
	if err != nil {
		w.stats.Failed++
	}
	w.mu.Unlock()

	if err != nil {
		event.Status = core.JobFailed
		event.Err = err
		w.config.Logger.Error("inbox import failed", "path", path, "error", err)
	} else {
		w.config.Logger.Info("inbox import completed", "path", path)
	}
	w.emit(ctx, event)
}

func (w *Inbox) emit(ctx context.Context, e core.JobEvent) {
	if w.config.Events == nil {
		return
	}
	select {
	case w.config.Events <- e:
	case <-ctx.Done():
	}
}
