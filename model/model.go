// Package model holds the in-memory source model of one Go project and
// implements the symbol-level queries and mutations the gateway exposes.
// The whole module is loaded and type-checked as one unit through
// golang.org/x/tools/go/packages, so definition/use tables span package
// boundaries; go/parser and go/format handle per-file work.
package model

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"

	"codegate/fault"
	filescan "codegate/scanner"
)

// Model is the in-memory representation of a project: tracked files and
// the type-checked packages of the whole module. A Model is built by
// Load and replaced wholesale when the project cache expires.
type Model struct {
	root string
	fset *token.FileSet

	// mu serializes all operations: the file table is a plain map and
	// every query may re-read files and re-check the module.
	// Interleaved mutations remain last-write-wins at the file level.
	mu sync.Mutex

	// files is keyed by absolute path. Files register lazily on first
	// reference and are never removed within a model generation.
	files map[string]*trackedFile

	// pkgs holds the most recent whole-module load. stale forces a
	// reload before the next query that needs type information.
	pkgs  []*packages.Package
	stale bool
}

type trackedFile struct {
	path     string // absolute
	src      []byte
	ast      *ast.File // standalone parse; resolution fallback only
	parseErr error
}

// Load constructs a model from a project manifest (go.mod). The project
// root is the manifest's directory; every Go source file under it is
// registered and the module is type-checked up front.
func Load(manifestPath string) (*Model, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fault.Wrap(fault.KindProviderInit, "resolving manifest path", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fault.Wrap(fault.KindProviderInit, "loading project manifest", err)
	}

	m := &Model{
		root:  filepath.Dir(abs),
		fset:  token.NewFileSet(),
		files: make(map[string]*trackedFile),
	}

	gitignore := filescan.LoadGitignore(m.root)
	paths, err := filescan.ScanGoFiles(m.root, gitignore)
	if err != nil {
		return nil, fault.Wrap(fault.KindProviderInit, "scanning project files", err)
	}

	for _, p := range paths {
		if _, err := m.register(p); err != nil {
			return nil, err
		}
	}
	if err := m.reload(); err != nil {
		return nil, err
	}

	return m, nil
}

// Root returns the project root directory.
func (m *Model) Root() string {
	return m.root
}

// FileCount returns the number of tracked files.
func (m *Model) FileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// abs normalizes a caller-supplied path against the project root.
func (m *Model) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(m.root, path)
}

// rel makes an absolute path relative to the project root. Paths
// outside the root are returned unchanged.
func (m *Model) rel(abs string) string {
	if r, err := filepath.Rel(m.root, abs); err == nil && !filepath.IsAbs(r) {
		return filepath.ToSlash(r)
	}
	return filepath.ToSlash(abs)
}

// register reads a file from disk into the model. Unchanged content
// keeps the existing entry; new content invalidates the module load.
func (m *Model) register(absPath string) (*trackedFile, error) {
	src, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fault.Wrap(fault.KindIO, "reading "+m.rel(absPath), err)
	}
	if prev := m.files[absPath]; prev != nil && bytes.Equal(prev.src, src) {
		return prev, nil
	}

	tf := &trackedFile{path: absPath, src: src}
	tf.ast, tf.parseErr = parser.ParseFile(m.fset, absPath, src, parser.ParseComments)

	m.files[absPath] = tf
	m.stale = true
	return tf, nil
}

// reparse replaces a tracked file's contents in memory without touching
// disk. Used by mutations that edit source before persisting.
func (m *Model) reparse(tf *trackedFile, src []byte) {
	tf.src = src
	tf.ast, tf.parseErr = parser.ParseFile(m.fset, tf.path, src, parser.ParseComments)
	m.stale = true
}

// ensureFresh returns the tracked file for path, always re-reading it
// from disk first: the file may have been edited externally since the
// model last saw it. Caller holds mu.
func (m *Model) ensureFresh(path string) (*trackedFile, error) {
	return m.register(m.abs(path))
}

// ensureChecked reloads the module when any tracked file changed since
// the last load. Caller holds mu.
func (m *Model) ensureChecked() error {
	if m.stale {
		return m.reload()
	}
	return nil
}

// reload type-checks the whole module in one pass. Tracked contents are
// supplied as an overlay so unsaved edits and fresh reads are what the
// checker sees, not whatever is on disk. Per-package problems (parse
// errors, type errors, bad imports) land in the package error lists and
// never fail the load; only a broken driver does.
func (m *Model) reload() error {
	overlay := make(map[string][]byte, len(m.files))
	for p, tf := range m.files {
		overlay[p] = tf.src
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedImports | packages.NeedDeps | packages.NeedTypes |
			packages.NeedSyntax | packages.NeedTypesInfo,
		Dir:     m.root,
		Fset:    m.fset,
		Overlay: overlay,
		Env:     append(os.Environ(), "GOWORK=off"),
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return fault.Wrap(fault.KindProviderInit, "loading project packages", err)
	}

	m.pkgs = pkgs
	m.stale = false
	return nil
}

// astFor finds the checked syntax tree for a file. Identifiers from
// these trees are the keys of the packages' Defs/Uses tables, so
// resolution prefers them over the standalone parse. Caller holds mu.
func (m *Model) astFor(abs string) *ast.File {
	for _, pkg := range m.pkgs {
		for _, f := range pkg.Syntax {
			if m.fset.Position(f.Pos()).Filename == abs {
				return f
			}
		}
	}
	return nil
}

// diagsFor collects the load errors positioned in one file. Caller
// holds mu.
func (m *Model) diagsFor(abs string) []Diagnostic {
	var out []Diagnostic
	for _, pkg := range m.pkgs {
		for _, e := range pkg.Errors {
			file, line, col := splitErrorPos(e.Pos)
			if file == "" {
				continue
			}
			if !filepath.IsAbs(file) {
				file = filepath.Join(m.root, file)
			}
			if filepath.Clean(file) != abs {
				continue
			}
			out = append(out, Diagnostic{Line: line, Column: col, Message: e.Msg})
		}
	}
	return out
}

// splitErrorPos parses the "file:line:col" (or "file:line", or "-")
// position strings carried by package load errors.
func splitErrorPos(pos string) (string, int, int) {
	if pos == "" || pos == "-" {
		return "", 0, 0
	}
	rest := pos
	col := 0
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if n, err := strconv.Atoi(rest[i+1:]); err == nil {
			col = n
			rest = rest[:i]
		}
	}
	line := 0
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		if n, err := strconv.Atoi(rest[i+1:]); err == nil {
			line = n
			rest = rest[:i]
		}
	}
	if line == 0 && col > 0 {
		line, col = col, 0
	}
	return rest, line, col
}

// objKey identifies a types.Object across loads. Object pointers are
// not stable from one load to the next, but a declaration's printed
// position is.
type objKey struct {
	name string
	pos  string
}

func (m *Model) keyOf(o types.Object) objKey {
	k := objKey{name: o.Name()}
	if o.Pos().IsValid() {
		p := m.fset.Position(o.Pos())
		k.pos = fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return k
}

// sortRefs imposes the deterministic order this system guarantees:
// ascending by (file, line, offset). The provider's native map order is
// not stable, so the contract lives here.
func sortRefs(refs []Reference) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].File != refs[j].File {
			return refs[i].File < refs[j].File
		}
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Offset < refs[j].Offset
	})
}
