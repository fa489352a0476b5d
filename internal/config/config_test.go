// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/srcindex/internal/config"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := config.Default()

	require.NotEmpty(t, cfg.Index.DatabaseDir)
	require.Equal(t, int64(10*1024*1024), cfg.Index.MaxFileSize)
	require.True(t, cfg.Watch.Enabled)
	require.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
	require.Equal(t, 100, cfg.Pipeline.EventBuffer)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[index]
database_dir = "/tmp/idx"
max_file_size = 1024

[watch]
enabled = false
debounce_ms = 250

[pipeline]
extractions_per_second = 50.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/idx", cfg.Index.DatabaseDir)
	require.Equal(t, int64(1024), cfg.Index.MaxFileSize)
	require.False(t, cfg.Watch.Enabled)
	require.Equal(t, 250*time.Millisecond, cfg.WatchDebounce())
	require.Equal(t, 50.0, cfg.Pipeline.ExtractionsPerSecond)

	// Unset fields keep their defaults
	require.Equal(t, 100, cfg.Pipeline.EventBuffer)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"index": {"max_file_size": 2048}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(2048), cfg.Index.MaxFileSize)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, config.Default().Index.MaxFileSize, cfg.Index.MaxFileSize)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[index\nbroken"), 0644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestShouldIgnore(t *testing.T) {
	cfg := config.Default()

	require.True(t, cfg.ShouldIgnore(".git"))
	require.True(t, cfg.ShouldIgnore("node_modules"))
	require.True(t, cfg.ShouldIgnore("lib.so"))
	require.False(t, cfg.ShouldIgnore("main.go"))
	require.False(t, cfg.ShouldIgnore("src"))
}

func TestStorePath(t *testing.T) {
	cfg := config.Default()
	cfg.Index.DatabaseDir = "/data"

	// Roots flatten into distinct store files
	a := cfg.StorePath("/home/alice/proj")
	b := cfg.StorePath("/home/bob/proj")
	require.NotEqual(t, a, b)
	require.Equal(t, "/data", filepath.Dir(a))
	require.Equal(t, "home_alice_proj.db", filepath.Base(a))

	require.Equal(t, "root.db", filepath.Base(cfg.StorePath("/")))
}
