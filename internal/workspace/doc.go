// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workspace ties the index core together for a host editor.
//
// A Workspace owns the configuration, the extractor registry, one pipeline
// worker, and an explicit registry of project element stores keyed by
// project root. There is no ambient per-root state anywhere; everything
// hangs off the Workspace instance.
package workspace
