// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the per-project element store
const schema = `
-- Metadata table for schema version and store state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Files table: one row per extracted file, with staleness bookkeeping
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    indexed_at INTEGER NOT NULL -- Unix nanoseconds of the extraction
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);

-- Elements table: definitions and references in extraction order (rowid)
CREATE TABLE IF NOT EXISTS elements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL,
    is_ref INTEGER NOT NULL,    -- 0 = definition, 1 = reference
    kind TEXT,                  -- Module, Type, Func, Value (definitions)
    name TEXT,
    start INTEGER NOT NULL,
    length INTEGER NOT NULL,
    body_start INTEGER NOT NULL,
    body_end INTEGER NOT NULL,
    owner_start INTEGER,        -- start offset of the owning definition
    target_start INTEGER,       -- start offset of the referenced definition
    FOREIGN KEY(file_id) REFERENCES files(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_elements_file_id ON elements(file_id);
`

// initMetadata seeds the metadata table on first open
const initMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
INSERT OR IGNORE INTO metadata (key, value) VALUES ('root_path', '');
`
