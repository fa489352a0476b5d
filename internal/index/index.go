// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"sort"

	"github.com/jeranaias/srcindex/internal/element"
)

// =============================================================================
// ROW TABLE
// =============================================================================

// rowEntry associates an element with its starting column on a row
type rowEntry struct {
	col int
	el  element.Element
}

// rowTable is the column-ordered element table for one physical line.
// At most one element is recorded per starting column; on a collision the
// later element in the input stream wins.
type rowTable struct {
	entries []rowEntry // sorted by col, ascending
}

// at returns the element covering col, if any. Elements are stored by start
// column only, so the candidate with the greatest start column <= col is
// accepted only when col still lies within [start, start+length).
func (rt *rowTable) at(col int) (element.Element, bool) {
	i := sort.Search(len(rt.entries), func(i int) bool {
		return rt.entries[i].col > col
	})
	if i == 0 {
		return nil, false
	}
	e := rt.entries[i-1]
	if col >= e.col && col < e.col+e.el.Length() {
		return e.el, true
	}
	return nil, false
}

// all returns the row's elements in increasing column order
func (rt *rowTable) all() []element.Element {
	out := make([]element.Element, len(rt.entries))
	for i, e := range rt.entries {
		out[i] = e.el
	}
	return out
}

// =============================================================================
// SOURCE INDEX
// =============================================================================

// SourceIndex is the immutable per-file query structure. It is safe for
// concurrent reads once built and is replaced, never mutated, on reindex.
type SourceIndex struct {
	// Path identifies the file the index was built from
	Path string

	rows       []rowTable
	enclosures EnclosureTable

	// Dropped counts elements discarded during the build because their
	// offsets could not be mapped to a row
	Dropped int
}

// RowCount returns the number of physical lines covered by the index
func (si *SourceIndex) RowCount() int {
	return len(si.rows)
}

// ElementAt returns the element covering the location (row, col).
// Out-of-range rows and uncovered columns yield (nil, false).
func (si *SourceIndex) ElementAt(row, col int) (element.Element, bool) {
	if row < 0 || row >= len(si.rows) {
		return nil, false
	}
	return si.rows[row].at(col)
}

// ElementsOnRow returns every element starting on row in increasing column
// order. The slice is a snapshot taken at build time; callers may not rely
// on it tracking later reindexes.
func (si *SourceIndex) ElementsOnRow(row int) []element.Element {
	if row < 0 || row >= len(si.rows) {
		return nil
	}
	return si.rows[row].all()
}

// Encloser returns the innermost non-value definition whose body range
// contains offset.
func (si *SourceIndex) Encloser(offset int) (*element.Definition, bool) {
	return si.enclosures.Encloser(offset)
}
