// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/srcindex/internal/element"
	"github.com/jeranaias/srcindex/internal/extract"
)

// =============================================================================
// GO EXTRACTOR TESTS
// =============================================================================

const goSrc = `package demo

const answer = 42

type Widget struct{ id int }

func (w *Widget) ID() int { return w.id }

func total() int { return answer }
`

// findDef returns the single definition with the given name
func findDef(t *testing.T, els []element.Element, name string) *element.Definition {
	t.Helper()
	var found *element.Definition
	for _, el := range els {
		if def, ok := el.(*element.Definition); ok && def.Name == name {
			require.Nil(t, found, "duplicate definition %q", name)
			found = def
		}
	}
	require.NotNil(t, found, "definition %q not extracted", name)
	return found
}

func TestGoExtractor_Definitions(t *testing.T) {
	ex := &extract.GoExtractor{}
	els, err := ex.Extract("demo.go", []byte(goSrc))
	require.NoError(t, err)

	// Package clause spans the whole file
	pkg := findDef(t, els, "demo")
	require.Equal(t, element.KindModule, pkg.Kind)
	require.Equal(t, 0, pkg.Start)
	require.Equal(t, len("package demo"), pkg.Len)
	require.Equal(t, len(goSrc)-1, pkg.BodyEnd)

	// Type declaration starts at the keyword, not the name
	widget := findDef(t, els, "Widget")
	require.Equal(t, element.KindType, widget.Kind)
	require.Equal(t, strings.Index(goSrc, "type Widget"), widget.Start)
	require.Equal(t, len("type Widget"), widget.Len)
	require.Equal(t, strings.Index(goSrc, "struct"), widget.BodyStart)
	require.Same(t, pkg, widget.Owner)

	// Method header spans from func through the name; the receiver type
	// makes Widget its owner
	id := findDef(t, els, "ID")
	require.Equal(t, element.KindFunc, id.Kind)
	require.Equal(t, strings.Index(goSrc, "func (w"), id.Start)
	require.Equal(t, len("func (w *Widget) ID"), id.Len)
	require.Same(t, widget, id.Owner)
	require.True(t, id.HasBody())
	require.Equal(t, strings.Index(goSrc, "{ return w.id }"), id.BodyStart)

	// Plain function is owned by the package
	total := findDef(t, els, "total")
	require.Equal(t, strings.Index(goSrc, "func total"), total.Start)
	require.Equal(t, len("func total"), total.Len)
	require.Same(t, pkg, total.Owner)

	answer := findDef(t, els, "answer")
	require.Equal(t, element.KindValue, answer.Kind)
	require.Equal(t, strings.Index(goSrc, "answer"), answer.Start)
	require.Equal(t, len("answer"), answer.Len)
}

func TestGoExtractor_References(t *testing.T) {
	ex := &extract.GoExtractor{}
	els, err := ex.Extract("demo.go", []byte(goSrc))
	require.NoError(t, err)

	answer := findDef(t, els, "answer")
	widget := findDef(t, els, "Widget")

	var refs []*element.Reference
	for _, el := range els {
		if ref, ok := el.(*element.Reference); ok {
			refs = append(refs, ref)
		}
	}
	require.NotEmpty(t, refs)

	// The use of answer inside total points back at the const
	var answerRef *element.Reference
	for _, ref := range refs {
		if ref.Target == answer {
			answerRef = ref
		}
	}
	require.NotNil(t, answerRef)
	require.Equal(t, strings.Index(goSrc, "return answer")+len("return "), answerRef.Start)
	require.Equal(t, len("answer"), answerRef.Len)

	// Defining occurrences never show up as references
	for _, ref := range refs {
		require.NotEqual(t, answer.Start, ref.Start)
		require.NotEqual(t, widget.Start+len("type "), ref.Start)
	}
}

func TestGoExtractor_MultiNameValueSpec(t *testing.T) {
	src := `package demo

var alpha, beta = 1, 2

func sum() int { return alpha + beta }
`
	ex := &extract.GoExtractor{}
	els, err := ex.Extract("demo.go", []byte(src))
	require.NoError(t, err)

	alpha := findDef(t, els, "alpha")
	beta := findDef(t, els, "beta")

	// Each declared name resolves its own references; a use of alpha
	// must not land on beta just because both share a declaration
	targets := make(map[int]string)
	for _, el := range els {
		if ref, ok := el.(*element.Reference); ok {
			require.NotNil(t, ref.Target)
			targets[ref.Start] = ref.Target.Name
		}
	}
	require.Equal(t, "alpha", targets[strings.Index(src, "alpha + beta")])
	require.Equal(t, "beta", targets[strings.Index(src, "beta }")])

	require.NotEqual(t, alpha.Start, beta.Start)
}

func TestGoExtractor_BodylessFunc(t *testing.T) {
	src := "package asm\n\nfunc add(a, b int) int\n"
	ex := &extract.GoExtractor{}
	els, err := ex.Extract("asm.go", []byte(src))
	require.NoError(t, err)

	add := findDef(t, els, "add")
	require.False(t, add.HasBody())
}

func TestGoExtractor_ParseError(t *testing.T) {
	ex := &extract.GoExtractor{}
	_, err := ex.Extract("bad.go", []byte("package {{{"))
	require.Error(t, err)
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_Lookup(t *testing.T) {
	reg := extract.DefaultRegistry()

	_, ok := reg.Lookup(".go")
	require.True(t, ok)
	_, ok = reg.Lookup(".py")
	require.True(t, ok)
	_, ok = reg.Lookup(".xyz")
	require.False(t, ok)

	require.Equal(t, []string{".go", ".py"}, reg.Suffixes())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := extract.NewRegistry()
	first := &extract.GoExtractor{}
	second := &extract.PythonExtractor{}

	reg.Register(".x", first)
	reg.Register(".x", second)

	ex, ok := reg.Lookup(".x")
	require.True(t, ok)
	require.Same(t, extract.Extractor(second), ex)
}
