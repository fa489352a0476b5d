// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/srcindex/internal/element"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
	ErrClosed        = errors.New("store is closed")
)

// =============================================================================
// SINK
// =============================================================================

// Sink receives elements replayed from the store. index.Builder satisfies it.
type Sink interface {
	Add(el element.Element) error
}

// =============================================================================
// STORE
// =============================================================================

// Store is the persistent element store for one project root.
// All writes happen on the pipeline worker for the owning workspace.
type Store struct {
	db   *sql.DB
	path string
	root string
}

// Open opens (or creates) the store database at path for the given project
// root. A database that fails to open or migrate is deleted and recreated
// empty; recovered reports that this happened so the caller can queue a full
// reindex.
func Open(path, root string) (s *Store, recovered bool, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := open(path, root)
	if err == nil {
		return &Store{db: db, path: path, root: root}, false, nil
	}

	// Corrupt or unreadable store: delete and start empty
	log.Printf("store: %s unusable (%v), recreating empty", path, err)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		os.Remove(p)
	}

	db, err = open(path, root)
	if err != nil {
		return nil, false, fmt.Errorf("failed to recreate store: %w", err)
	}
	return &Store{db: db, path: path, root: root}, true, nil
}

// open opens the database and applies pragmas and schema
func open(path, root string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(initMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}
	if _, err := db.Exec("UPDATE metadata SET value = ? WHERE key = 'root_path'", root); err != nil {
		db.Close()
		return nil, err
	}

	// A quick integrity read catches databases that open but cannot serve
	var version string
	if err := db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	return db, nil
}

// Close closes the store and releases resources
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Clear removes every file and element from the store
func (s *Store) Clear() error {
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.Exec("DELETE FROM elements"); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if _, err := s.db.Exec("DELETE FROM files"); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// WriteFile replaces the stored elements for one file in a single
// transaction and records the extraction time for staleness checks.
func (s *Store) WriteFile(path string, els []element.Element) error {
	if s.db == nil {
		return ErrClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	// Replace any previous extraction of this file
	var fileID int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&fileID)
	switch {
	case err == nil:
		if _, err := tx.Exec("DELETE FROM elements WHERE file_id = ?", fileID); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE files SET indexed_at = ? WHERE id = ?",
			time.Now().UnixNano(), fileID); err != nil {
			return err
		}
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec("INSERT INTO files (path, indexed_at) VALUES (?, ?)",
			path, time.Now().UnixNano())
		if err != nil {
			return err
		}
		if fileID, err = res.LastInsertId(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	for _, el := range els {
		switch e := el.(type) {
		case *element.Definition:
			ownerStart := sql.NullInt64{}
			if e.Owner != nil {
				ownerStart = sql.NullInt64{Int64: int64(e.Owner.Start), Valid: true}
			}
			_, err = tx.Exec(`
				INSERT INTO elements (file_id, is_ref, kind, name, start, length, body_start, body_end, owner_start)
				VALUES (?, 0, ?, ?, ?, ?, ?, ?, ?)
			`, fileID, e.Kind.String(), e.Name, e.Start, e.Len, e.BodyStart, e.BodyEnd, ownerStart)
		case *element.Reference:
			targetStart := sql.NullInt64{}
			if e.Target != nil {
				targetStart = sql.NullInt64{Int64: int64(e.Target.Start), Valid: true}
			}
			_, err = tx.Exec(`
				INSERT INTO elements (file_id, is_ref, start, length, body_start, body_end, target_start)
				VALUES (?, 1, ?, ?, 0, -1, ?)
			`, fileID, e.Start, e.Len, targetStart)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// LastIndexed returns when the file was last extracted. ok is false when the
// store has never seen the file.
func (s *Store) LastIndexed(path string) (time.Time, bool) {
	if s.db == nil {
		return time.Time{}, false
	}
	var indexedAt int64
	err := s.db.QueryRow("SELECT indexed_at FROM files WHERE path = ?", path).Scan(&indexedAt)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, indexedAt), true
}

// storedElement is one elements-table row during reconstruction
type storedElement struct {
	isRef       bool
	kind        string
	name        string
	start       int
	length      int
	bodyStart   int
	bodyEnd     int
	ownerStart  sql.NullInt64
	targetStart sql.NullInt64
}

// Visit replays the stored elements for path into sink in their original
// extraction order, relinking owner and reference targets by definition
// start offset. It returns false when the store does not recognize the file
// at all; a recognized file with zero elements still returns true.
func (s *Store) Visit(path string, sink Sink) (bool, error) {
	if s.db == nil {
		return false, ErrClosed
	}

	var fileID int64
	err := s.db.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	rows, err := s.db.Query(`
		SELECT is_ref, kind, name, start, length, body_start, body_end, owner_start, target_start
		FROM elements WHERE file_id = ? ORDER BY id
	`, fileID)
	if err != nil {
		return true, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var stored []storedElement
	for rows.Next() {
		var se storedElement
		var kind, name sql.NullString
		if err := rows.Scan(&se.isRef, &kind, &name, &se.start, &se.length,
			&se.bodyStart, &se.bodyEnd, &se.ownerStart, &se.targetStart); err != nil {
			return true, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		se.kind = kind.String
		se.name = name.String
		stored = append(stored, se)
	}
	if err := rows.Err(); err != nil {
		return true, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	// First pass: materialize definitions keyed by start offset
	defs := make(map[int]*element.Definition)
	for _, se := range stored {
		if se.isRef {
			continue
		}
		defs[se.start] = &element.Definition{
			Kind:      element.Kind(se.kind),
			Name:      se.name,
			Start:     se.start,
			Len:       se.length,
			BodyStart: se.bodyStart,
			BodyEnd:   se.bodyEnd,
		}
	}

	// Second pass: relink owners, then feed in original order
	for _, se := range stored {
		if se.isRef || !se.ownerStart.Valid {
			continue
		}
		if owner, ok := defs[int(se.ownerStart.Int64)]; ok {
			defs[se.start].Owner = owner
		}
	}

	for _, se := range stored {
		var el element.Element
		if se.isRef {
			ref := &element.Reference{Start: se.start, Len: se.length}
			if se.targetStart.Valid {
				ref.Target = defs[int(se.targetStart.Int64)]
			}
			el = ref
		} else {
			el = defs[se.start]
		}
		if err := sink.Add(el); err != nil {
			return true, err
		}
	}

	return true, nil
}
