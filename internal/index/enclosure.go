// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"sort"

	"github.com/jeranaias/srcindex/internal/element"
)

// =============================================================================
// ENCLOSURE TABLE
// =============================================================================

// EnclosureTable is an ordered association from definition start offset to
// definition, spanning the whole file. It holds only container-like
// definitions: values cannot enclose other code and are excluded to keep the
// nesting search cheap.
type EnclosureTable struct {
	// offsets is sorted ascending and parallel to defs
	offsets []int
	defs    []*element.Definition
}

// Len returns the number of recorded definitions
func (et *EnclosureTable) Len() int {
	return len(et.offsets)
}

// Encloser finds the innermost definition whose [Start, BodyEnd] range
// contains offset.
//
// The nearest key <= offset alone is not sufficient: two sibling definitions
// can be adjacent with gaps, and a shallow definition can sit between a
// candidate key and the true offset without containing it. When the nearest
// candidate does not contain offset, the search walks to the next-lower key
// until a containing definition is found or the table is exhausted.
func (et *EnclosureTable) Encloser(offset int) (*element.Definition, bool) {
	i := sort.Search(len(et.offsets), func(i int) bool {
		return et.offsets[i] > offset
	})

	for i > 0 {
		i--
		if d := et.defs[i]; d.Contains(offset) {
			return d, true
		}
	}
	return nil, false
}
