// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"sort"
	"sync"

	"github.com/jeranaias/srcindex/internal/element"
)

// =============================================================================
// EXTRACTOR INTERFACE
// =============================================================================

// Extractor processes one source file and produces its element stream.
type Extractor interface {
	// Extract parses src (the content of path) and returns the extracted
	// elements in the extractor's own iteration order
	Extract(path string, src []byte) ([]element.Element, error)
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry maps file suffixes (".go", ".py") to extractors. It replaces
// suffix-dispatched plugin discovery with an explicit capability lookup.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// DefaultRegistry returns a registry with the built-in extractors registered
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(".go", &GoExtractor{})
	r.Register(".py", &PythonExtractor{})
	return r
}

// Register binds an extractor to a file suffix, replacing any previous one
func (r *Registry) Register(suffix string, ex Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[suffix] = ex
}

// Lookup resolves the extractor for a suffix. ok is false when no
// intelligence is available for the file type.
func (r *Registry) Lookup(suffix string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.extractors[suffix]
	return ex, ok
}

// Suffixes returns the registered suffixes in sorted order
func (r *Registry) Suffixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.extractors))
	for s := range r.extractors {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
