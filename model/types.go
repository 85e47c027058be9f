package model

import "go/ast"

// Reference is one occurrence of a symbol, normalized to coordinates
// that are stable across machines: the file path is relative to the
// project root, the line is 1-based, and the offset is the byte offset
// within the file.
type Reference struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Offset int    `json:"offset"`
}

// Symbol is a resolved identifier inside the model. It is an opaque
// handle standing for "the declaration and all its uses"; it is
// re-derived per request and never persisted.
type Symbol struct {
	ident *ast.Ident
	file  *trackedFile
}

// Name returns the identifier text of the symbol.
func (s *Symbol) Name() string {
	return s.ident.Name
}

// RenameResult reports a completed project-wide rename: every rewritten
// reference plus the files that were saved.
type RenameResult struct {
	OldName    string      `json:"oldName"`
	NewName    string      `json:"newName"`
	References []Reference `json:"references"`
	Files      []string    `json:"files"`
}

// UpdateResult reports an import retarget. Changes==0 means nothing
// matched and nothing was persisted; callers can tell a no-op apart
// from a save.
type UpdateResult struct {
	File    string `json:"file"`
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
	Changes int    `json:"changes"`
}

// WriteResult reports a file write.
type WriteResult struct {
	File      string `json:"file"`
	Bytes     int    `json:"bytes"`
	Formatted bool   `json:"formatted"`
}

// MkdirResult reports a directory creation. Already-exists is success.
type MkdirResult struct {
	Dir string `json:"dir"`
}

// Diagnostic is one parse or type error inside a file.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// DiagnosticReport is the outcome of a type check on one file.
type DiagnosticReport struct {
	File        string       `json:"file"`
	Clean       bool         `json:"clean"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}
