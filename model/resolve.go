package model

import (
	"go/ast"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"

	"codegate/fault"
)

// ResolveAt finds the identifier at a byte offset in a file. The deepest
// enclosing node wins, so an offset inside a selector expression yields
// the selected name rather than the whole expression. The end-of-file
// offset is valid and resolves an identifier that runs up to it.
func (m *Model) ResolveAt(path string, offset int) (*Symbol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveAt(path, offset)
}

func (m *Model) resolveAt(path string, offset int) (*Symbol, error) {
	tf, file, err := m.syntaxFor(path)
	if err != nil {
		return nil, err
	}

	tok := m.fset.File(file.Pos())
	if tok == nil || offset < 0 || offset > tok.Size() {
		return nil, fault.Newf(fault.KindResolution, "offset %d out of range in %s", offset, m.rel(tf.path))
	}
	pos := tok.Pos(offset)

	nodes, _ := astutil.PathEnclosingInterval(file, pos, pos)
	for _, n := range nodes {
		if id, ok := n.(*ast.Ident); ok {
			return &Symbol{ident: id, file: tf}, nil
		}
	}
	return nil, fault.Newf(fault.KindResolution, "no identifier at offset %d in %s", offset, m.rel(tf.path))
}

// ResolveNamed finds the first identifier with the given name in a file,
// in source order. When a name appears more than once the earliest
// occurrence is the one resolved.
func (m *Model) ResolveNamed(path, name string) (*Symbol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveNamed(path, name)
}

func (m *Model) resolveNamed(path, name string) (*Symbol, error) {
	tf, file, err := m.syntaxFor(path)
	if err != nil {
		return nil, err
	}

	var found *ast.Ident
	ast.Inspect(file, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			found = id
			return false
		}
		return true
	})
	if found == nil {
		return nil, fault.Newf(fault.KindResolution, "no identifier named %s in %s", strconv.Quote(name), m.rel(tf.path))
	}
	return &Symbol{ident: found, file: tf}, nil
}

// syntaxFor re-reads a file and returns its syntax tree, preferring the
// checked tree from the module load so resolved identifiers carry type
// bindings. The standalone parse covers files the build excludes.
// Caller holds mu.
func (m *Model) syntaxFor(path string) (*trackedFile, *ast.File, error) {
	tf, err := m.ensureFresh(path)
	if err != nil {
		return nil, nil, err
	}
	if err := m.ensureChecked(); err != nil {
		return nil, nil, err
	}
	if file := m.astFor(tf.path); file != nil {
		return tf, file, nil
	}
	if tf.ast != nil {
		return tf, tf.ast, nil
	}
	return nil, nil, fault.Newf(fault.KindResolution, "%s does not parse", m.rel(tf.path))
}
