// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// FILE WATCHER
// =============================================================================

// Watcher feeds file-save events into the reindex queue for one project
// root. Changes are debounced so a burst of writes to the same file costs
// one reindex task, and deletions are left to the host: a vanished file
// simply stops producing events.
type Watcher struct {
	ws   *Workspace
	root string

	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time // file path -> last change time

	ctx    context.Context
	cancel context.CancelFunc
}

// Watch starts watching a project root and returns the running watcher.
func (ws *Workspace) Watch(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		ws:       ws,
		root:     root,
		watcher:  fsw,
		debounce: ws.cfg.WatchDebounce(),
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := w.addRecursive(root); err != nil {
		cancel()
		fsw.Close()
		return nil, err
	}

	go w.processEvents()
	go w.processPending()

	ws.mu.Lock()
	ws.watchers = append(ws.watchers, w)
	ws.mu.Unlock()

	return w, nil
}

// addRecursive adds a directory and its subdirectories to the watch list
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.root && w.ws.cfg.ShouldIgnore(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return nil // Non-fatal, continue
		}
		return nil
	})
}

// processEvents turns fsnotify events into pending reindexes
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.handleChange(event.Name)
			}

			// New directories need to be added to the watch list
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(event.Name)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}

// handleChange records a change for a file we have an extractor for
func (w *Watcher) handleChange(path string) {
	if _, ok := w.ws.reg.Lookup(filepath.Ext(path)); !ok {
		return
	}
	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processPending flushes debounced changes into the reindex queue
func (w *Watcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var quiet []string
			for path, changed := range w.pending {
				if now.Sub(changed) >= w.debounce {
					quiet = append(quiet, path)
					delete(w.pending, path)
				}
			}
			w.mu.Unlock()

			for _, path := range quiet {
				if err := w.ws.QueueReindex(w.root, path, false); err != nil {
					log.Printf("watcher: failed to queue reindex for %s: %v", path, err)
				}
			}
		}
	}
}

// Close stops the watcher goroutines and releases the fsnotify handle
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}
