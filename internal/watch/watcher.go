// Package watch re-parses a tracefile every time it changes on disk.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjy-dev/lcov-parse/internal/logger"
	"github.com/zjy-dev/lcov-parse/internal/parser"
	"github.com/zjy-dev/lcov-parse/internal/report"
	"github.com/zjy-dev/lcov-parse/internal/state"
)

// Config contains watcher settings.
type Config struct {
	Debounce time.Duration // Delay before re-parsing (default: 500ms)
	// State, when set, skips content identical to the last parse and
	// keeps the counters across sessions.
	State state.Manager
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{Debounce: 500 * time.Millisecond}
}

// Summary contains stats from the watch session.
type Summary struct {
	Parses   int
	Failures int
	Skipped  int
	Duration time.Duration
}

// Handler receives the document of every successful parse, or the error of
// a failed one. Calls never overlap.
type Handler func(doc report.Document, err error)

// Watcher monitors one tracefile for changes.
type Watcher struct {
	path      string
	options   parser.Options
	config    *Config
	handler   Handler
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	cancel    context.CancelFunc
	ctx       context.Context
	done      chan struct{}
	wg        sync.WaitGroup
	startTime time.Time

	// runMu serializes process, and with it the handler and State.
	runMu sync.Mutex

	mu       sync.Mutex
	stopped  bool
	parses   int
	failures int
	skipped  int
}

// New creates a new Watcher for the tracefile at path.
// If config is nil, default configuration is used.
func New(path string, options parser.Options, config *Config, handler Handler) *Watcher {
	if config == nil {
		config = DefaultConfig()
	}
	w := &Watcher{
		path:    path,
		options: options,
		config:  config,
		handler: handler,
		done:    make(chan struct{}),
	}
	w.debouncer = NewDebouncer(config.Debounce, w.process)
	return w
}

// Start parses the tracefile once, then again after each change, until
// Stop is called or ctx is done.
// The parent directory is watched so that files replaced by rename are
// still seen.
func (w *Watcher) Start(ctx context.Context) error {
	absPath, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	w.path = absPath

	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		w.fsWatcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.startTime = time.Now()
	w.done = make(chan struct{})

	w.wg.Add(1)
	go w.processEvents()

	logger.Info("Watching %s", absPath)
	w.debouncer.Add(absPath)
	return nil
}

// Stop gracefully shuts down the watcher and returns a summary of the session.
func (w *Watcher) Stop() *Summary {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return w.summary()
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.done)
	if w.cancel != nil {
		w.cancel()
	}
	w.debouncer.CancelAll()
	w.wg.Wait()

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
	}
	return w.summary()
}

func (w *Watcher) summary() *Summary {
	w.mu.Lock()
	defer w.mu.Unlock()

	return &Summary{
		Parses:   w.parses,
		Failures: w.failures,
		Skipped:  w.skipped,
		Duration: time.Since(w.startTime),
	}
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	select {
	case <-w.done:
		return false
	default:
		return w.fsWatcher != nil
	}
}

// processEvents handles file system events from fsnotify.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.debouncer.Add(w.path)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// process re-parses the tracefile. It runs on the debouncer's timers, one
// call at a time.
func (w *Watcher) process(path string) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	w.runMu.Lock()
	defer w.runMu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		w.fail(fmt.Errorf("failed to read tracefile: %w", err))
		return
	}

	if st := w.config.State; st != nil && !st.Changed(content) {
		logger.Debug("Tracefile %s unchanged, skipping", path)
		w.mu.Lock()
		w.skipped++
		w.mu.Unlock()
		return
	}

	doc, err := parser.ParseReader(w.ctx, bytes.NewReader(content), w.options)
	if err != nil {
		w.fail(err)
		return
	}

	w.mu.Lock()
	w.parses++
	w.mu.Unlock()
	if st := w.config.State; st != nil {
		st.RecordParse(content, doc.TotalSummary())
		if err := st.Save(); err != nil {
			logger.Warn("Failed to save watch state: %v", err)
		}
	}

	total := doc.TotalSummary()
	logger.Info("Parsed %s: %d paths, lines %d/%d", path, len(doc.PathList()), total.Line.Hit, total.Line.Total)
	if w.handler != nil {
		w.handler(doc, nil)
	}
}

func (w *Watcher) fail(err error) {
	w.mu.Lock()
	w.failures++
	w.mu.Unlock()
	if st := w.config.State; st != nil {
		st.RecordFailure()
		if saveErr := st.Save(); saveErr != nil {
			logger.Warn("Failed to save watch state: %v", saveErr)
		}
	}

	logger.Warn("Failed to parse %s: %v", w.path, err)
	if w.handler != nil {
		w.handler(nil, err)
	}
}
