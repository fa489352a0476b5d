// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/jeranaias/srcindex/internal/element"
)

// =============================================================================
// GO EXTRACTOR
// =============================================================================

// GoExtractor extracts elements from Go source using go/ast.
//
// Definitions start at the declaration keyword and span through the end of
// the declared name, so a point query anywhere on the header resolves to
// the definition. Same-file references are recovered from the parser's
// object resolution.
type GoExtractor struct{}

// Extract implements Extractor for Go files
func (g *GoExtractor) Extract(path string, src []byte) ([]element.Element, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, src, 0)
	if err != nil {
		return nil, err
	}

	offset := func(p token.Pos) int {
		return fset.Position(p).Offset
	}

	var els []element.Element

	// The package clause is the module definition; its body spans the
	// whole file so every declaration is enclosed by it.
	var module *element.Definition
	if f.Name != nil {
		module = &element.Definition{
			Kind:      element.KindModule,
			Name:      f.Name.Name,
			Start:     offset(f.Package),
			Len:       offset(f.Name.End()) - offset(f.Package),
			BodyStart: offset(f.Package),
			BodyEnd:   len(src) - 1,
		}
		els = append(els, module)
	}

	// decls maps each declared name's resolution object to its definition.
	// Keying by the name object, not the declaration node, keeps the names
	// of a multi-name spec distinct. namePos marks the defining occurrences
	// themselves.
	decls := make(map[*ast.Object]*element.Definition)
	namePos := make(map[int]bool)
	types := make(map[string]*element.Definition)

	for _, decl := range f.Decls {
		switch node := decl.(type) {
		case *ast.FuncDecl:
			start := offset(node.Pos())
			def := &element.Definition{
				Kind:  element.KindFunc,
				Name:  node.Name.Name,
				Start: start,
				Len:   offset(node.Name.End()) - start,
				Owner: module,
			}
			if node.Body != nil {
				def.BodyStart = offset(node.Body.Pos())
				def.BodyEnd = offset(node.Body.End()) - 1
			} else {
				// Bodyless declaration (assembly stub); cannot enclose
				def.BodyStart = def.Start
				def.BodyEnd = def.Start - 1
			}
			if node.Recv != nil && len(node.Recv.List) > 0 {
				if owner, ok := types[receiverTypeName(node.Recv.List[0].Type)]; ok {
					def.Owner = owner
				}
			}
			els = append(els, def)
			if node.Name.Obj != nil {
				decls[node.Name.Obj] = def
			}
			namePos[offset(node.Name.Pos())] = true

		case *ast.GenDecl:
			// A single unparenthesized spec starts at the keyword;
			// grouped specs start at their own position
			declStart := func(spec ast.Spec) int {
				if node.Lparen == token.NoPos && len(node.Specs) == 1 {
					return offset(node.Pos())
				}
				return offset(spec.Pos())
			}

			for _, spec := range node.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					start := declStart(s)
					def := &element.Definition{
						Kind:      element.KindType,
						Name:      s.Name.Name,
						Start:     start,
						Len:       offset(s.Name.End()) - start,
						BodyStart: offset(s.Type.Pos()),
						BodyEnd:   offset(s.Type.End()) - 1,
						Owner:     module,
					}
					els = append(els, def)
					if s.Name.Obj != nil {
						decls[s.Name.Obj] = def
					}
					types[s.Name.Name] = def
					namePos[offset(s.Name.Pos())] = true

				case *ast.ValueSpec:
					for _, name := range s.Names {
						def := &element.Definition{
							Kind:      element.KindValue,
							Name:      name.Name,
							Start:     offset(name.Pos()),
							Len:       len(name.Name),
							BodyStart: offset(name.Pos()),
							BodyEnd:   offset(s.End()) - 1,
							Owner:     module,
						}
						els = append(els, def)
						if name.Obj != nil {
							decls[name.Obj] = def
						}
						namePos[offset(name.Pos())] = true
					}
				}
			}
		}
	}

	// Same-file references via parser object resolution
	ast.Inspect(f, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok || id.Obj == nil {
			return true
		}
		def, ok := decls[id.Obj]
		if !ok {
			return true
		}
		if namePos[offset(id.Pos())] {
			// The defining occurrence itself
			return true
		}
		els = append(els, &element.Reference{
			Target: def,
			Start:  offset(id.Pos()),
			Len:    len(id.Name),
		})
		return true
	})

	return els, nil
}

// receiverTypeName unwraps a method receiver expression to its type name
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}
