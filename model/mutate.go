package model

import (
	"bytes"
	"go/format"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"codegate/fault"
)

// Rename renames a symbol project-wide: every definition and use of the
// object denoted by the first occurrence of oldName in path is rewritten
// to newName, and every touched file is saved. Resolution happens before
// any file is modified, so a symbol that cannot be found leaves the
// project untouched.
func (m *Model) Rename(path, oldName, newName string) (*RenameResult, error) {
	if !token.IsIdentifier(newName) {
		return nil, fault.Newf(fault.KindInvalidParams, "%q is not a valid identifier", newName)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sym, err := m.resolveNamed(path, oldName)
	if err != nil {
		return nil, err
	}
	occs, err := m.occurrencesOf(sym)
	if err != nil {
		return nil, err
	}

	refs := make([]Reference, 0, len(occs))
	byFile := make(map[*trackedFile][]occurrence)
	for _, o := range occs {
		refs = append(refs, Reference{File: m.rel(o.file.path), Line: o.line, Offset: o.offset})
		byFile[o.file] = append(byFile[o.file], o)
	}
	sortRefs(refs)

	var files []string
	for tf, edits := range byFile {
		// Apply edits back to front so earlier offsets stay valid.
		sort.Slice(edits, func(i, j int) bool { return edits[i].offset > edits[j].offset })
		src := tf.src
		for _, e := range edits {
			src = append(src[:e.offset:e.offset], append([]byte(newName), src[e.offset+e.length:]...)...)
		}
		m.reparse(tf, src)
		if err := os.WriteFile(tf.path, src, 0o644); err != nil {
			// Files already written stay written. The caller sees the
			// failure and the model reflects the in-memory state.
			return nil, fault.Wrap(fault.KindIO, "writing "+m.rel(tf.path), err)
		}
		files = append(files, m.rel(tf.path))
	}
	sort.Strings(files)

	return &RenameResult{
		OldName:    oldName,
		NewName:    newName,
		References: refs,
		Files:      files,
	}, nil
}

// RewriteImport retargets an import path in one file. When the file does
// not import oldPath the file is left byte-identical on disk and the
// result reports zero changes.
func (m *Model) RewriteImport(path, oldPath, newPath string) (*UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tf, err := m.ensureFresh(path)
	if err != nil {
		return nil, err
	}
	if tf.ast == nil {
		return nil, fault.Newf(fault.KindResolution, "%s does not parse", m.rel(tf.path))
	}

	changes := 0
	for _, spec := range tf.ast.Imports {
		if p, err := strconv.Unquote(spec.Path.Value); err == nil && p == oldPath {
			changes++
		}
	}
	res := &UpdateResult{
		File:    m.rel(tf.path),
		OldPath: oldPath,
		NewPath: newPath,
		Changes: changes,
	}
	if changes == 0 {
		return res, nil
	}

	astutil.RewriteImport(m.fset, tf.ast, oldPath, newPath)
	var buf bytes.Buffer
	if err := format.Node(&buf, m.fset, tf.ast); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "formatting "+m.rel(tf.path), err)
	}
	if err := os.WriteFile(tf.path, buf.Bytes(), 0o644); err != nil {
		return nil, fault.Wrap(fault.KindIO, "writing "+m.rel(tf.path), err)
	}
	if _, err := m.register(tf.path); err != nil {
		return nil, err
	}
	return res, nil
}

// WriteFile creates or overwrites a file, creating parent directories as
// needed. Go source is gofmt-formatted when it parses; content that does
// not parse is written as-is so diagnostics can still report on it.
func (m *Model) WriteFile(path, content string) (*WriteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.abs(path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fault.Wrap(fault.KindIO, "creating directory for "+m.rel(abs), err)
	}

	data := []byte(content)
	formatted := false
	if strings.HasSuffix(abs, ".go") {
		if out, err := format.Source(data); err == nil {
			data = out
			formatted = true
		}
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return nil, fault.Wrap(fault.KindIO, "writing "+m.rel(abs), err)
	}
	if strings.HasSuffix(abs, ".go") {
		if _, err := m.register(abs); err != nil {
			return nil, err
		}
	}
	return &WriteResult{File: m.rel(abs), Bytes: len(data), Formatted: formatted}, nil
}

// MakeDirectory creates a directory and any missing parents. Calling it
// on an existing directory succeeds.
func (m *Model) MakeDirectory(path string) (*MkdirResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.abs(path)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fault.Wrap(fault.KindIO, "creating "+m.rel(abs), err)
	}
	return &MkdirResult{Dir: m.rel(abs)}, nil
}
