// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/srcindex/internal/config"
	"github.com/jeranaias/srcindex/internal/element"
	"github.com/jeranaias/srcindex/internal/extract"
	"github.com/jeranaias/srcindex/internal/index"
	"github.com/jeranaias/srcindex/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrStopped is delivered to debug submitters whose task was discarded
	// because the worker stopped before reaching it
	ErrStopped = errors.New("pipeline worker stopped")
)

// =============================================================================
// EVENTS
// =============================================================================

// Status is a reindex task outcome
type Status string

const (
	StatusStarted   Status = "Started"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Event reports a task state change on the notification channel.
type Event struct {
	TaskID   string
	Kind     TaskKind
	Project  string
	File     string
	Status   Status
	Error    string
	Duration time.Duration
}

// =============================================================================
// WORKER
// =============================================================================

// Worker is the single reindex worker for one workspace. Callers enqueue
// tasks from any goroutine and return immediately; the worker drains the
// queue in strict FIFO order, one task at a time.
type Worker struct {
	cfg *config.Config
	reg *extract.Registry

	// limiter throttles extractor invocations to bound disk/CPU load
	limiter *rate.Limiter

	mu      sync.Mutex
	queue   []*Task
	stopped bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	events  chan Event
	indexes chan *index.SourceIndex

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWorker creates a worker; call Start to begin draining the queue.
func NewWorker(cfg *config.Config, reg *extract.Registry) *Worker {
	limit := rate.Inf
	if cfg.Pipeline.ExtractionsPerSecond > 0 {
		limit = rate.Limit(cfg.Pipeline.ExtractionsPerSecond)
	}
	buffer := cfg.Pipeline.EventBuffer
	if buffer <= 0 {
		buffer = 100
	}
	return &Worker{
		cfg:     cfg,
		reg:     reg,
		limiter: rate.NewLimiter(limit, 1),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		events:  make(chan Event, buffer),
		indexes: make(chan *index.SourceIndex, buffer),
	}
}

// Start launches the worker goroutine
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.loop()
	})
}

// Stop stops the worker after the task in flight, if any, finishes.
// Queued tasks are discarded; a discarded debug task still delivers an
// ErrStopped result so its submitter does not block forever.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
	<-w.done

	w.mu.Lock()
	w.stopped = true
	queued := w.queue
	w.queue = nil
	w.mu.Unlock()

	for _, t := range queued {
		w.discard(t)
	}
}

// Enqueue appends a task to the queue. It never blocks on extraction work.
// Tasks enqueued after Stop are discarded immediately.
func (w *Worker) Enqueue(t *Task) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.discard(t)
		return
	}
	w.queue = append(w.queue, t)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// discard drops a task that will never run. Debug submitters block on their
// result channel, so they get an explicit error instead of silence.
func (w *Worker) discard(t *Task) {
	if t.Kind == TaskDebug && t.result != nil {
		t.result <- &DebugResult{Err: ErrStopped}
	}
}

// Pending returns the number of queued tasks
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Events returns the status notification channel. Notifications are dropped,
// with a log line, if nobody drains the channel.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Indexes returns the publish channel. Each freshly built SourceIndex is
// delivered here; the consumer marshals it onto whatever thread it needs.
func (w *Worker) Indexes() <-chan *index.SourceIndex {
	return w.indexes
}

// =============================================================================
// WORKER LOOP
// =============================================================================

// loop drains the queue one task at a time
func (w *Worker) loop() {
	defer close(w.done)

	for {
		t := w.pop()
		if t == nil {
			select {
			case <-w.stop:
				return
			case <-w.wake:
				continue
			}
		}

		select {
		case <-w.stop:
			w.discard(t)
			return
		default:
		}

		w.execute(t)
	}
}

// pop removes and returns the oldest queued task, or nil
func (w *Worker) pop() *Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil
	}
	t := w.queue[0]
	w.queue = w.queue[1:]
	return t
}

// execute runs one task. Panics from extractors are caught here so a broken
// extractor cannot take down the worker.
func (w *Worker) execute(t *Task) {
	start := time.Now()
	w.notify(Event{TaskID: t.ID, Kind: t.Kind, Project: t.Project, File: t.File, Status: StatusStarted})

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("extractor panic: %v", r)
			}
		}()

		switch t.Kind {
		case TaskReindexFile:
			err = w.reindexFile(t)
		case TaskReindexAll:
			err = w.reindexAll(t)
		case TaskDebug:
			err = w.debugExtract(t)
		default:
			err = fmt.Errorf("unknown task kind: %s", t.Kind)
		}
	}()

	ev := Event{
		TaskID:   t.ID,
		Kind:     t.Kind,
		Project:  t.Project,
		File:     t.File,
		Status:   StatusCompleted,
		Duration: time.Since(start),
	}
	if err != nil {
		ev.Status = StatusFailed
		ev.Error = err.Error()
	}
	w.notify(ev)
}

// =============================================================================
// INCREMENTAL REINDEX
// =============================================================================

// reindexFile re-extracts a single file when it is stale (or forced), then
// rebuilds and publishes its index from the store.
func (w *Worker) reindexFile(t *Task) error {
	info, err := os.Stat(t.File)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", t.File, err)
	}

	if t.Force || w.stale(t.Store, t.File, info.ModTime()) {
		suffix := filepath.Ext(t.File)
		if ex, ok := w.reg.Lookup(suffix); ok {
			els, err := w.runExtractor(ex, t.File)
			if err != nil {
				return fmt.Errorf("extraction of %s failed: %w", t.File, err)
			}
			if err := t.Store.WriteFile(t.File, els); err != nil {
				return fmt.Errorf("failed to persist %s: %w", t.File, err)
			}
		}
		// No extractor for the suffix: nothing to extract, and the
		// publish step below finds the file unrecognized
	}

	return w.publish(t.Store, t.File)
}

// stale reports whether the file on disk is newer than its last extraction
func (w *Worker) stale(st *store.Store, file string, modTime time.Time) bool {
	last, ok := st.LastIndexed(file)
	if !ok {
		return true
	}
	return modTime.After(last)
}

// runExtractor reads the file and invokes the extractor under the limiter
func (w *Worker) runExtractor(ex extract.Extractor, file string) ([]element.Element, error) {
	if err := w.limiter.Wait(context.Background()); err != nil {
		return nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ex.Extract(file, src)
}

// publish rebuilds the file's index from the store and hands it to the
// publish channel. A file the store does not recognize at all publishes
// nothing and raises no error.
func (w *Worker) publish(st *store.Store, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("cannot read %s for line table: %w", file, err)
	}
	lt, err := index.NewLineTable(f)
	f.Close()
	if err != nil {
		return err
	}

	b := index.NewBuilder(file, lt)
	known, err := st.Visit(file, b)
	if err != nil {
		return err
	}
	if !known {
		return nil
	}

	si, err := b.Build()
	if err != nil {
		return err
	}

	select {
	case w.indexes <- si:
	default:
		log.Printf("pipeline: publish channel full, dropped index for %s", file)
	}
	return nil
}

// =============================================================================
// FULL REINDEX
// =============================================================================

// reindexAll clears the project store and re-extracts every source file
// under the root, one suffix group at a time. A failing group is reported
// and skipped; the remaining groups still run.
func (w *Worker) reindexAll(t *Task) error {
	if err := t.Store.Clear(); err != nil {
		return err
	}

	groups, err := w.collect(t.Project)
	if err != nil {
		return err
	}

	suffixes := make([]string, 0, len(groups))
	for s := range groups {
		suffixes = append(suffixes, s)
	}
	sort.Strings(suffixes)

	var failed []string
	for _, suffix := range suffixes {
		ex, ok := w.reg.Lookup(suffix)
		if !ok {
			continue
		}
		if err := w.extractGroup(t.Store, ex, groups[suffix]); err != nil {
			log.Printf("pipeline: suffix group %s failed in %s: %v", suffix, t.Project, err)
			failed = append(failed, suffix)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("extraction failed for suffix groups: %v", failed)
	}
	return nil
}

// collect walks the project root and groups extractable files by suffix
func (w *Worker) collect(root string) (map[string][]string, error) {
	groups := make(map[string][]string)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if info.IsDir() {
			if path != root && w.cfg.ShouldIgnore(filepath.Base(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.cfg.ShouldIgnore(filepath.Base(path)) {
			return nil
		}
		if info.Size() > w.cfg.Index.MaxFileSize {
			return nil
		}
		suffix := filepath.Ext(path)
		if _, ok := w.reg.Lookup(suffix); !ok {
			return nil
		}
		groups[suffix] = append(groups[suffix], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return groups, nil
}

// extractGroup runs one suffix group. Panics are contained to the group;
// per-file errors are logged and the rest of the group continues.
func (w *Worker) extractGroup(st *store.Store, ex extract.Extractor, files []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()

	for _, file := range files {
		els, exErr := w.runExtractor(ex, file)
		if exErr != nil {
			log.Printf("pipeline: extraction of %s failed: %v", file, exErr)
			continue
		}
		if wErr := st.WriteFile(file, els); wErr != nil {
			return wErr
		}
	}
	return nil
}

// =============================================================================
// DEBUG EXTRACTION
// =============================================================================

// debugExtract runs the extractor once and builds an index directly from its
// output, bypassing both the staleness check and the store.
func (w *Worker) debugExtract(t *Task) (err error) {
	res := &DebugResult{}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("extractor panic: %v", r)
		}
		err = res.Err
		t.result <- res
	}()

	src, err := os.ReadFile(t.File)
	if err != nil {
		res.Err = err
		return err
	}

	ex, ok := w.reg.Lookup(filepath.Ext(t.File))
	if !ok {
		res.Err = fmt.Errorf("no extractor registered for %s", filepath.Ext(t.File))
		return res.Err
	}

	els, err := ex.Extract(t.File, src)
	if err != nil {
		res.Err = err
		return err
	}
	res.Elements = els

	lt, err := index.NewLineTable(bytes.NewReader(src))
	if err != nil {
		res.Err = err
		return err
	}
	b := index.NewBuilder(t.File, lt)
	for _, el := range els {
		if err := b.Add(el); err != nil {
			res.Err = err
			return err
		}
	}
	res.Index, res.Err = b.Build()
	return res.Err
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// notify sends a status event without blocking the worker
func (w *Worker) notify(ev Event) {
	select {
	case w.events <- ev:
	default:
		log.Printf("pipeline: event channel full, dropped %s notification for task %s", ev.Status, ev.TaskID)
	}
}
