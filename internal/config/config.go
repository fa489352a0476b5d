// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config holds the complete srcindex configuration.
type Config struct {
	// Index configuration
	Index IndexConfig `toml:"index" json:"index"`

	// Watch configuration
	Watch WatchConfig `toml:"watch" json:"watch"`

	// Pipeline configuration
	Pipeline PipelineConfig `toml:"pipeline" json:"pipeline"`
}

// IndexConfig controls what gets indexed and where element stores live.
type IndexConfig struct {
	// DatabaseDir is where per-project element stores are kept
	// (default: ~/.srcindex)
	DatabaseDir string `toml:"database_dir" json:"database_dir"`

	// MaxFileSize is the maximum source file size to extract, in bytes
	MaxFileSize int64 `toml:"max_file_size" json:"max_file_size"`

	// IgnorePatterns are glob patterns matched against path base names
	IgnorePatterns []string `toml:"ignore_patterns" json:"ignore_patterns"`
}

// WatchConfig controls the file-change feed.
type WatchConfig struct {
	// Enabled turns the fsnotify watcher on
	Enabled bool `toml:"enabled" json:"enabled"`

	// DebounceMs is how long a file must stay quiet before it is reindexed
	DebounceMs int `toml:"debounce_ms" json:"debounce_ms"`
}

// PipelineConfig controls the reindex worker.
type PipelineConfig struct {
	// ExtractionsPerSecond throttles extractor invocations (0 = unlimited)
	ExtractionsPerSecond float64 `toml:"extractions_per_second" json:"extractions_per_second"`

	// EventBuffer is the capacity of the status notification channel
	EventBuffer int `toml:"event_buffer" json:"event_buffer"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Index: IndexConfig{
			DatabaseDir: filepath.Join(home, ".srcindex"),
			MaxFileSize: 10 * 1024 * 1024, // 10MB
			IgnorePatterns: []string{
				".git", ".svn", ".hg",
				"node_modules", "__pycache__", ".venv", "venv",
				"vendor", "target", "dist", "build",
				".idea", ".vscode",
				"*.exe", "*.dll", "*.so", "*.dylib",
				"*.zip", "*.tar", "*.gz",
			},
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 500,
		},
		Pipeline: PipelineConfig{
			ExtractionsPerSecond: 0,
			EventBuffer:          100,
		},
	}
}

// WatchDebounce returns the debounce duration
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads a TOML or JSON configuration file over the defaults. A missing
// file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
		return cfg, nil
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return cfg, nil
}

// ShouldIgnore checks a path base name against the ignore patterns
func (c *Config) ShouldIgnore(name string) bool {
	for _, pattern := range c.Index.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// StorePath returns the element store location for a project root. Roots
// are flattened into file names so unrelated projects never share a store.
func (c *Config) StorePath(root string) string {
	flat := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(root)
	flat = strings.Trim(flat, "_")
	if flat == "" {
		flat = "root"
	}
	return filepath.Join(c.Index.DatabaseDir, flat+".db")
}
