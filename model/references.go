package model

import (
	"go/ast"
	"go/token"
	"go/types"
)

// occurrence is one appearance of a symbol in source, with enough
// geometry to rewrite it in place.
type occurrence struct {
	file   *trackedFile
	offset int
	length int
	line   int
}

// References reports every definition and use of the symbol across the
// whole project, sorted ascending by (file, line, offset). File paths
// are relative to the project root.
func (m *Model) References(sym *Symbol) ([]Reference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	occs, err := m.occurrencesOf(sym)
	if err != nil {
		return nil, err
	}
	refs := make([]Reference, 0, len(occs))
	for _, o := range occs {
		refs = append(refs, Reference{
			File:   m.rel(o.file.path),
			Line:   o.line,
			Offset: o.offset,
		})
	}
	sortRefs(refs)
	return refs, nil
}

// occurrencesOf gathers the identifiers that denote the same object as
// sym, across every loaded package. The whole module is checked in one
// pass, so a use in an importing package binds to the exporting
// package's declaration; objects are still matched by declaration
// position so symbols survive a reload between resolve and gather.
// Caller holds mu.
func (m *Model) occurrencesOf(sym *Symbol) ([]occurrence, error) {
	if err := m.ensureChecked(); err != nil {
		return nil, err
	}

	targets := make(map[objKey]bool)
	for _, o := range m.objectsFor(sym.ident) {
		targets[m.keyOf(o)] = true
	}
	if len(targets) == 0 {
		// No type info (broken package, or an identifier the checker
		// does not bind). Fall back to the lone resolved identifier so
		// the symbol is still addressable.
		return []occurrence{m.occurrenceAt(sym.file, sym.ident)}, nil
	}

	seen := make(map[token.Pos]bool)
	var occs []occurrence
	for _, pkg := range m.pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		m.collect(pkg.TypesInfo.Defs, targets, seen, &occs)
		m.collect(pkg.TypesInfo.Uses, targets, seen, &occs)
	}
	if len(occs) == 0 {
		occs = append(occs, m.occurrenceAt(sym.file, sym.ident))
	}
	return occs, nil
}

func (m *Model) collect(idents map[*ast.Ident]types.Object, targets map[objKey]bool, seen map[token.Pos]bool, occs *[]occurrence) {
	for id, obj := range idents {
		if obj == nil || !targets[m.keyOf(obj)] || seen[id.Pos()] {
			continue
		}
		pos := m.fset.Position(id.Pos())
		tf := m.files[pos.Filename]
		if tf == nil {
			// A file the walker skipped but the build includes. Track
			// it now so the occurrence can be rewritten.
			var err error
			if tf, err = m.register(pos.Filename); err != nil {
				continue
			}
		}
		seen[id.Pos()] = true
		*occs = append(*occs, occurrence{
			file:   tf,
			offset: pos.Offset,
			length: len(id.Name),
			line:   pos.Line,
		})
	}
}

// objectsFor returns the objects bound to an identifier, consulting
// both definition and use tables of every loaded package. Identifiers
// come from the loaded syntax trees, so lookups are direct. Caller
// holds mu.
func (m *Model) objectsFor(id *ast.Ident) []types.Object {
	var out []types.Object
	for _, pkg := range m.pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		if o := pkg.TypesInfo.Defs[id]; o != nil {
			out = append(out, o)
		}
		if o := pkg.TypesInfo.Uses[id]; o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m *Model) occurrenceAt(tf *trackedFile, id *ast.Ident) occurrence {
	pos := m.fset.Position(id.Pos())
	return occurrence{file: tf, offset: pos.Offset, length: len(id.Name), line: pos.Line}
}
