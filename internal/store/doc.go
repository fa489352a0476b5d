// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists extracted elements per project in SQLite.
//
// One store backs one project root. The reindex pipeline is the only writer;
// readers get elements back through Visit, which replays a file's elements
// into an index builder sink in their original extraction order.
//
// A database that cannot be opened or migrated is deleted and recreated
// empty rather than treated as a fatal error; Open reports this so the owner
// can schedule a full reindex.
package store
