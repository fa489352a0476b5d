// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package element defines the extracted code elements the index is built from.
package element

// =============================================================================
// ELEMENT KINDS
// =============================================================================

// Kind classifies a definition
type Kind string

const (
	KindModule Kind = "Module"
	KindType   Kind = "Type"
	KindFunc   Kind = "Func"
	KindValue  Kind = "Value"
)

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the kind is valid
func (k Kind) IsValid() bool {
	switch k {
	case KindModule, KindType, KindFunc, KindValue:
		return true
	}
	return false
}

// =============================================================================
// ELEMENT INTERFACE
// =============================================================================

// Element is anything an extractor produces: a definition or a reference.
// Offset and Length locate the element's own text in the source file.
type Element interface {
	// Offset is the byte offset of the element's first character
	Offset() int

	// Length is the element's span in bytes; must be > 0 for the element
	// to be point-queryable
	Length() int
}

// =============================================================================
// DEFINITION
// =============================================================================

// Definition is an element that introduces a named entity.
//
// BodyStart/BodyEnd delimit the definition's body when the extractor knows
// it; a definition with BodyEnd < BodyStart has no known body and cannot
// enclose other code.
type Definition struct {
	Kind Kind
	Name string

	// Start is the byte offset where the declaration begins
	Start int
	// Len is the span from Start through the end of the declared name,
	// so a point query anywhere on the header resolves to the definition
	Len int

	// BodyStart and BodyEnd delimit the body range (inclusive)
	BodyStart int
	BodyEnd   int

	// Owner is the lexically enclosing definition, nil at top level
	Owner *Definition
}

// Offset implements Element
func (d *Definition) Offset() int { return d.Start }

// Length implements Element
func (d *Definition) Length() int { return d.Len }

// HasBody reports whether the definition carries a usable body range
func (d *Definition) HasBody() bool {
	return d.BodyEnd >= d.BodyStart && d.BodyStart >= d.Start
}

// Contains reports whether offset falls within [Start, BodyEnd]
func (d *Definition) Contains(offset int) bool {
	return offset >= d.Start && offset <= d.BodyEnd
}

// =============================================================================
// REFERENCE
// =============================================================================

// Reference is an element that points at a previously extracted definition.
type Reference struct {
	// Target is the definition this reference resolves to
	Target *Definition

	// Start is the byte offset of the referencing text
	Start int
	// Len is the length of the referencing text in bytes
	Len int
}

// Offset implements Element
func (r *Reference) Offset() int { return r.Start }

// Length implements Element
func (r *Reference) Length() int { return r.Len }
