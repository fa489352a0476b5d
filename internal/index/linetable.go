// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"io"
	"sort"
)

// =============================================================================
// LINE TABLE
// =============================================================================

// readChunkSize is the buffer size used when streaming source text
const readChunkSize = 1024

// LineTable maps byte offsets to row numbers for one file.
//
// A new row begins at the offset immediately following a '\n'. A preceding
// '\r' belongs to the terminator, so "\r\n" opens a single row, not two.
type LineTable struct {
	// starts holds the byte offset of each row start, ascending; starts[0]
	// is always 0, so even an empty file has one row
	starts []int

	// size is the total number of bytes read
	size int
}

// NewLineTable builds a line table by streaming r in fixed-size chunks
// exactly once. It never backtracks and never loads the whole file.
func NewLineTable(r io.Reader) (*LineTable, error) {
	lt := &LineTable{starts: []int{0}}

	buf := make([]byte, readChunkSize)
	offset := 0
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			if buf[i] == '\n' {
				lt.starts = append(lt.starts, offset+i+1)
			}
		}
		offset += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	lt.size = offset
	return lt, nil
}

// RowCount returns the number of rows in the file. A file that does not end
// in a terminator still has its last partial line counted.
func (lt *LineTable) RowCount() int {
	return len(lt.starts)
}

// Size returns the total number of bytes streamed
func (lt *LineTable) Size() int {
	return lt.size
}

// RowFor returns the row containing offset and that row's start offset.
// ok is false when the offset cannot be mapped to any row.
func (lt *LineTable) RowFor(offset int) (row, rowStart int, ok bool) {
	if offset < 0 || offset > lt.size {
		return 0, 0, false
	}

	// Greatest recorded row start <= offset
	i := sort.Search(len(lt.starts), func(i int) bool {
		return lt.starts[i] > offset
	})
	if i == 0 {
		return 0, 0, false
	}
	return i - 1, lt.starts[i-1], true
}
