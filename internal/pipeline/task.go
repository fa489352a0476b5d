// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/srcindex/internal/element"
	"github.com/jeranaias/srcindex/internal/index"
	"github.com/jeranaias/srcindex/internal/store"
)

// =============================================================================
// TASK KINDS
// =============================================================================

// TaskKind identifies a reindex task variant
type TaskKind string

const (
	// TaskReindexFile re-extracts (subject to staleness) and republishes
	// the index for one file
	TaskReindexFile TaskKind = "ReindexFile"

	// TaskReindexAll clears a project's store and re-extracts every
	// source file under its root
	TaskReindexAll TaskKind = "ReindexAll"

	// TaskDebug extracts one file without touching the store
	TaskDebug TaskKind = "Debug"
)

// =============================================================================
// TASK
// =============================================================================

// Task is one unit of pipeline work. Tasks are created on demand, queued,
// executed exactly once by the single worker, then discarded.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Kind selects the task variant
	Kind TaskKind

	// Project is the project root this task belongs to
	Project string

	// File is the target file for ReindexFile and Debug tasks
	File string

	// Force bypasses the staleness check for ReindexFile tasks
	Force bool

	// Store is the project's element store, resolved at enqueue time
	Store *store.Store

	// SubmittedAt records queue entry for ordering diagnostics
	SubmittedAt time.Time

	// result receives the outcome of a Debug task
	result chan *DebugResult
}

// DebugResult is what a Debug task hands back to its submitter.
type DebugResult struct {
	Elements []element.Element
	Index    *index.SourceIndex
	Err      error
}

// NewFileTask creates an incremental reindex task for one file
func NewFileTask(project, file string, force bool, st *store.Store) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Kind:        TaskReindexFile,
		Project:     project,
		File:        file,
		Force:       force,
		Store:       st,
		SubmittedAt: time.Now(),
	}
}

// NewFullTask creates a full-project reindex task
func NewFullTask(project string, st *store.Store) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Kind:        TaskReindexAll,
		Project:     project,
		Store:       st,
		SubmittedAt: time.Now(),
	}
}

// NewDebugTask creates a one-off extraction task that bypasses persistence.
// The result arrives on Result().
func NewDebugTask(project, file string) *Task {
	return &Task{
		ID:          uuid.New().String(),
		Kind:        TaskDebug,
		Project:     project,
		File:        file,
		SubmittedAt: time.Now(),
		result:      make(chan *DebugResult, 1),
	}
}

// Result returns the channel a Debug task's outcome is delivered on.
// It is nil for other task kinds.
func (t *Task) Result() <-chan *DebugResult {
	return t.result
}
