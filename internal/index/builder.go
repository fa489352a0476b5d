// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"errors"
	"log"
	"sort"

	"github.com/jeranaias/srcindex/internal/element"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBuilt is returned when a single-use builder is touched after Build
	ErrBuilt = errors.New("index builder already consumed")
)

// =============================================================================
// BUILDER
// =============================================================================

// Builder consumes one element stream and produces an immutable SourceIndex.
//
// It is push-style: elements arrive one at a time in the extractor's own
// iteration order via Add. The builder is single-use; after Build it rejects
// further elements.
type Builder struct {
	path  string
	lines *LineTable

	// rows accumulates column->element per row; converted to sorted
	// tables at Build. A later insert at an occupied column replaces the
	// earlier element.
	rows []map[int]element.Element

	// enclosures accumulates non-value definitions keyed by start offset
	enclosures map[int]*element.Definition

	dropped int
	built   bool
}

// NewBuilder creates a builder for one file over an already constructed
// line table.
func NewBuilder(path string, lines *LineTable) *Builder {
	return &Builder{
		path:       path,
		lines:      lines,
		rows:       make([]map[int]element.Element, lines.RowCount()),
		enclosures: make(map[int]*element.Definition),
	}
}

// Add records one element.
//
// An element whose offset cannot be mapped to a row is dropped with a
// diagnostic; a single malformed element must not prevent the rest of the
// file from being indexed. Definitions with an unusable body range stay
// point-queryable but are excluded from the enclosure table.
func (b *Builder) Add(el element.Element) error {
	if b.built {
		return ErrBuilt
	}

	row, rowStart, ok := b.lines.RowFor(el.Offset())
	if !ok {
		b.dropped++
		log.Printf("index: dropping unmappable element at offset %d in %s", el.Offset(), b.path)
		return nil
	}

	col := el.Offset() - rowStart
	if b.rows[row] == nil {
		b.rows[row] = make(map[int]element.Element)
	}
	b.rows[row][col] = el

	if def, isDef := el.(*element.Definition); isDef && def.Kind != element.KindValue {
		if !def.HasBody() {
			// Still point-queryable through its row, just not enclosable
			log.Printf("index: definition %q at offset %d in %s has no usable body range, not enclosable", def.Name, def.Start, b.path)
			return nil
		}
		b.enclosures[def.Start] = def
	}
	return nil
}

// Build finalizes the index. The builder cannot be reused afterwards.
func (b *Builder) Build() (*SourceIndex, error) {
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true

	si := &SourceIndex{
		Path:    b.path,
		rows:    make([]rowTable, len(b.rows)),
		Dropped: b.dropped,
	}

	for row, cols := range b.rows {
		if len(cols) == 0 {
			continue
		}
		entries := make([]rowEntry, 0, len(cols))
		for col, el := range cols {
			entries = append(entries, rowEntry{col: col, el: el})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].col < entries[j].col
		})
		si.rows[row].entries = entries
	}

	offsets := make([]int, 0, len(b.enclosures))
	for off := range b.enclosures {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	si.enclosures.offsets = offsets
	si.enclosures.defs = make([]*element.Definition, len(offsets))
	for i, off := range offsets {
		si.enclosures.defs[i] = b.enclosures[off]
	}

	return si, nil
}
