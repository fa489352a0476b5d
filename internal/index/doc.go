// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index builds and queries per-file source indexes.
//
// A SourceIndex turns the flat element stream an extractor produces into a
// structure that answers three query classes:
//
//   - ElementAt(row, col): the element at an exact text location
//   - ElementsOnRow(row): every element starting on a physical line
//   - Encloser(offset): the innermost non-value definition containing an offset
//
// Indexes are built in one pass by a Builder from a LineTable plus an element
// stream, are immutable once built, and are replaced wholesale on reindex.
package index
