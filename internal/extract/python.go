// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"regexp"
	"strings"

	"github.com/jeranaias/srcindex/internal/element"
)

// =============================================================================
// PYTHON EXTRACTOR
// =============================================================================

// PythonExtractor extracts elements from Python source using regex and
// indentation-based body detection. It produces definitions only; reference
// resolution needs real scope analysis and is left to richer extractors.
type PythonExtractor struct{}

var (
	pyClassPattern = regexp.MustCompile(`^(\s*)class\s+(\w+)`)
	pyFuncPattern  = regexp.MustCompile(`^(\s*)def\s+(\w+)\s*\(`)
	pyValuePattern = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=[^=]`)
)

// pyScope is one entry of the open-definition stack during the line scan
type pyScope struct {
	indent int
	def    *element.Definition
}

// Extract implements Extractor for Python files
func (p *PythonExtractor) Extract(path string, src []byte) ([]element.Element, error) {
	lines := strings.Split(string(src), "\n")

	// Line start offsets, so name matches can be anchored in the file
	starts := make([]int, len(lines))
	off := 0
	for i, line := range lines {
		starts[i] = off
		off += len(line) + 1
	}

	var els []element.Element
	var stack []pyScope

	lineEnd := func(i int) int {
		end := starts[i] + len(lines[i]) - 1
		if end < starts[i] {
			end = starts[i]
		}
		return end
	}

	for i, line := range lines {
		var indent int
		var name string
		var kind element.Kind

		if m := pyClassPattern.FindStringSubmatch(line); m != nil {
			indent, name, kind = len(m[1]), m[2], element.KindType
		} else if m := pyFuncPattern.FindStringSubmatch(line); m != nil {
			indent, name, kind = len(m[1]), m[2], element.KindFunc
		} else if m := pyValuePattern.FindStringSubmatch(line); m != nil {
			indent, name, kind = 0, m[1], element.KindValue
		} else {
			continue
		}

		// Pop scopes this line has dedented out of
		for len(stack) > 0 && indent <= stack[len(stack)-1].indent {
			stack = stack[:len(stack)-1]
		}

		// Definitions start at the declaration keyword and span through
		// the end of the name
		nameEnd := strings.Index(line, name) + len(name)
		def := &element.Definition{
			Kind:  kind,
			Name:  name,
			Start: starts[i] + indent,
			Len:   nameEnd - indent,
		}
		if len(stack) > 0 {
			def.Owner = stack[len(stack)-1].def
		}

		if kind == element.KindValue {
			def.BodyStart = def.Start
			def.BodyEnd = lineEnd(i)
			els = append(els, def)
			continue
		}

		// Body runs until the first non-blank line at or below this indent
		end := i
		for j := i + 1; j < len(lines); j++ {
			trimmed := strings.TrimSpace(lines[j])
			if trimmed == "" {
				continue
			}
			if len(lines[j])-len(strings.TrimLeft(lines[j], " \t")) <= indent {
				break
			}
			end = j
		}
		def.BodyStart = def.Start
		def.BodyEnd = lineEnd(end)

		els = append(els, def)
		stack = append(stack, pyScope{indent: indent, def: def})
	}

	return els, nil
}
