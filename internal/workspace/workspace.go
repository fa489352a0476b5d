// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"errors"
	"log"
	"sync"

	"github.com/jeranaias/srcindex/internal/config"
	"github.com/jeranaias/srcindex/internal/extract"
	"github.com/jeranaias/srcindex/internal/index"
	"github.com/jeranaias/srcindex/internal/pipeline"
	"github.com/jeranaias/srcindex/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed = errors.New("workspace is closed")
)

// =============================================================================
// WORKSPACE
// =============================================================================

// Workspace is the top-level owner of the reindex machinery.
type Workspace struct {
	cfg    *config.Config
	reg    *extract.Registry
	worker *pipeline.Worker

	mu       sync.Mutex
	projects map[string]*store.Store
	watchers []*Watcher
	closed   bool
}

// New creates a workspace and starts its pipeline worker.
func New(cfg *config.Config, reg *extract.Registry) *Workspace {
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = extract.DefaultRegistry()
	}

	ws := &Workspace{
		cfg:      cfg,
		reg:      reg,
		worker:   pipeline.NewWorker(cfg, reg),
		projects: make(map[string]*store.Store),
	}
	ws.worker.Start()
	return ws
}

// Config returns the workspace configuration
func (ws *Workspace) Config() *config.Config {
	return ws.cfg
}

// Registry returns the extractor registry
func (ws *Workspace) Registry() *extract.Registry {
	return ws.reg
}

// Indexes returns the publish channel of freshly built source indexes.
// The consumer marshals delivery onto whatever thread it requires.
func (ws *Workspace) Indexes() <-chan *index.SourceIndex {
	return ws.worker.Indexes()
}

// Events returns the reindex status notification channel
func (ws *Workspace) Events() <-chan pipeline.Event {
	return ws.worker.Events()
}

// Close stops the watcher goroutines and the worker, then closes every
// project store.
func (ws *Workspace) Close() error {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return nil
	}
	ws.closed = true
	watchers := ws.watchers
	ws.mu.Unlock()

	for _, w := range watchers {
		w.Close()
	}
	ws.worker.Stop()

	ws.mu.Lock()
	defer ws.mu.Unlock()
	var firstErr error
	for root, st := range ws.projects {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(ws.projects, root)
	}
	return firstErr
}

// =============================================================================
// PROJECT REGISTRY
// =============================================================================

// storeFor returns the element store for a project root, opening it on
// first use. A store that had to be recreated after corruption starts
// empty, so a full reindex is queued for the project before anything else.
func (ws *Workspace) storeFor(root string) (*store.Store, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.closed {
		return nil, ErrClosed
	}
	if st, ok := ws.projects[root]; ok {
		return st, nil
	}

	st, recovered, err := store.Open(ws.cfg.StorePath(root), root)
	if err != nil {
		return nil, err
	}
	ws.projects[root] = st

	if recovered {
		log.Printf("workspace: store for %s was recreated, scheduling full reindex", root)
		ws.worker.Enqueue(pipeline.NewFullTask(root, st))
	}
	return st, nil
}

// =============================================================================
// REINDEX API
// =============================================================================

// QueueReindexAll enqueues a full reindex of a project. It returns as soon
// as the task is queued.
func (ws *Workspace) QueueReindexAll(root string) error {
	st, err := ws.storeFor(root)
	if err != nil {
		return err
	}
	ws.worker.Enqueue(pipeline.NewFullTask(root, st))
	return nil
}

// QueueReindex enqueues an incremental reindex of one file. force bypasses
// the staleness check. Tasks for the same file execute in submission order,
// so a forced reindex queued after a non-forced one is never skipped by the
// earlier task's staleness result.
func (ws *Workspace) QueueReindex(root, file string, force bool) error {
	st, err := ws.storeFor(root)
	if err != nil {
		return err
	}
	ws.worker.Enqueue(pipeline.NewFileTask(root, file, force, st))
	return nil
}

// DebugReindex extracts one file without persisting anything and returns
// what the extractor produced together with an index built straight from
// it. It waits for the (serialized) task to run.
func (ws *Workspace) DebugReindex(root, file string) (*pipeline.DebugResult, error) {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return nil, ErrClosed
	}
	ws.mu.Unlock()

	t := pipeline.NewDebugTask(root, file)
	ws.worker.Enqueue(t)
	res := <-t.Result()
	return res, res.Err
}
