// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pipeline runs the serialized reindex worker.
//
// One Worker drains one FIFO task queue. Enqueue never blocks and returns
// immediately; the worker executes exactly one task at a time in strict
// submission order, which is the property that keeps concurrent reindex
// requests from racing on a project's persisted store.
//
// Tasks are explicit variants (reindex one file, reindex a whole project,
// debug-extract without persisting), not closures. Extractor failures are
// caught and reported per task; they never take down the worker or the
// queue. Tasks are not cancellable once dequeued, and an individual
// extraction has no timeout: a hung extractor stalls the queue for its
// workspace. That risk is accepted and documented here rather than hidden.
package pipeline
