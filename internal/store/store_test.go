// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/srcindex/internal/element"
	"github.com/jeranaias/srcindex/internal/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, recovered, err := store.Open(filepath.Join(t.TempDir(), "index.db"), "/proj")
	require.NoError(t, err)
	require.False(t, recovered)
	t.Cleanup(func() { s.Close() })
	return s
}

// captureSink collects replayed elements in arrival order
type captureSink struct {
	els []element.Element
}

func (c *captureSink) Add(el element.Element) error {
	c.els = append(c.els, el)
	return nil
}

// =============================================================================
// ROUND TRIP TESTS
// =============================================================================

func TestStore_RoundTrip(t *testing.T) {
	s := openStore(t)

	owner := &element.Definition{
		Kind: element.KindType, Name: "Foo",
		Start: 0, Len: 9, BodyStart: 10, BodyEnd: 44,
	}
	method := &element.Definition{
		Kind: element.KindFunc, Name: "bar",
		Start: 14, Len: 7, BodyStart: 39, BodyEnd: 43,
		Owner: owner,
	}
	ref := &element.Reference{Target: owner, Start: 50, Len: 3}

	err := s.WriteFile("a.scala", []element.Element{owner, method, ref})
	require.NoError(t, err)

	var sink captureSink
	known, err := s.Visit("a.scala", &sink)
	require.NoError(t, err)
	require.True(t, known)
	require.Len(t, sink.els, 3)

	// Original extraction order is preserved
	gotOwner, ok := sink.els[0].(*element.Definition)
	require.True(t, ok)
	require.Equal(t, "Foo", gotOwner.Name)
	require.Equal(t, element.KindType, gotOwner.Kind)
	require.Equal(t, owner.Start, gotOwner.Start)
	require.Equal(t, owner.Len, gotOwner.Len)
	require.Equal(t, owner.BodyStart, gotOwner.BodyStart)
	require.Equal(t, owner.BodyEnd, gotOwner.BodyEnd)

	// Ownership and reference targets survive by start offset
	gotMethod, ok := sink.els[1].(*element.Definition)
	require.True(t, ok)
	require.Same(t, gotOwner, gotMethod.Owner)

	gotRef, ok := sink.els[2].(*element.Reference)
	require.True(t, ok)
	require.Same(t, gotOwner, gotRef.Target)
	require.Equal(t, 50, gotRef.Start)
	require.Equal(t, 3, gotRef.Len)
}

func TestStore_WriteFileReplaces(t *testing.T) {
	s := openStore(t)

	first := &element.Definition{Kind: element.KindValue, Name: "old", Start: 0, Len: 3, BodyStart: 0, BodyEnd: 2}
	require.NoError(t, s.WriteFile("f.py", []element.Element{first}))

	second := &element.Definition{Kind: element.KindValue, Name: "new", Start: 5, Len: 3, BodyStart: 5, BodyEnd: 7}
	require.NoError(t, s.WriteFile("f.py", []element.Element{second}))

	var sink captureSink
	known, err := s.Visit("f.py", &sink)
	require.NoError(t, err)
	require.True(t, known)
	require.Len(t, sink.els, 1)
	require.Equal(t, "new", sink.els[0].(*element.Definition).Name)
}

func TestStore_VisitUnknownFile(t *testing.T) {
	s := openStore(t)

	var sink captureSink
	known, err := s.Visit("never-indexed.go", &sink)
	require.NoError(t, err)
	require.False(t, known)
	require.Empty(t, sink.els)
}

func TestStore_VisitEmptyFile(t *testing.T) {
	s := openStore(t)

	// A file the extractor found nothing in is still a known file
	require.NoError(t, s.WriteFile("empty.go", nil))

	var sink captureSink
	known, err := s.Visit("empty.go", &sink)
	require.NoError(t, err)
	require.True(t, known)
	require.Empty(t, sink.els)
}

// =============================================================================
// STALENESS BOOKKEEPING TESTS
// =============================================================================

func TestStore_LastIndexed(t *testing.T) {
	s := openStore(t)

	_, ok := s.LastIndexed("f.go")
	require.False(t, ok)

	before := time.Now()
	require.NoError(t, s.WriteFile("f.go", nil))

	indexed, ok := s.LastIndexed("f.go")
	require.True(t, ok)
	require.False(t, indexed.Before(before))
}

func TestStore_Clear(t *testing.T) {
	s := openStore(t)

	d := &element.Definition{Kind: element.KindFunc, Name: "f", Start: 0, Len: 6, BodyStart: 7, BodyEnd: 9}
	require.NoError(t, s.WriteFile("a.go", []element.Element{d}))
	require.NoError(t, s.Clear())

	var sink captureSink
	known, err := s.Visit("a.go", &sink)
	require.NoError(t, err)
	require.False(t, known)

	_, ok := s.LastIndexed("a.go")
	require.False(t, ok)
}

// =============================================================================
// RECOVERY TESTS
// =============================================================================

func TestStore_OpenRecoversCorruptDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")

	// Not a SQLite database at all
	require.NoError(t, os.WriteFile(path, []byte("this is not a database"), 0644))

	s, recovered, err := store.Open(path, "/proj")
	require.NoError(t, err)
	require.True(t, recovered)
	defer s.Close()

	// The recreated store is empty but fully usable
	var sink captureSink
	known, err := s.Visit("a.go", &sink)
	require.NoError(t, err)
	require.False(t, known)

	d := &element.Definition{Kind: element.KindFunc, Name: "f", Start: 0, Len: 6, BodyStart: 7, BodyEnd: 9}
	require.NoError(t, s.WriteFile("a.go", []element.Element{d}))
}

func TestStore_ClosedOperationsFail(t *testing.T) {
	s, _, err := store.Open(filepath.Join(t.TempDir(), "index.db"), "/proj")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Clear(), store.ErrClosed)
	require.ErrorIs(t, s.WriteFile("f.go", nil), store.ErrClosed)
	_, err = s.Visit("f.go", nil)
	require.ErrorIs(t, err, store.ErrClosed)
	_, ok := s.LastIndexed("f.go")
	require.False(t, ok)
}
