// MCP server for codegate - exposes the symbol tools over stdio so
// LLM clients can drive them directly.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codegate/cache"
	"codegate/model"
	"codegate/render"
)

// Input types for tools
type FindReferencesInput struct {
	Manifest string `json:"manifest" jsonschema:"Path to the project's go.mod"`
	FilePath string `json:"file_path" jsonschema:"Source file containing the symbol"`
	Symbol   string `json:"symbol,omitempty" jsonschema:"Symbol name (first occurrence in the file is used)"`
	Offset   *int   `json:"offset,omitempty" jsonschema:"Byte offset of the symbol; wins over symbol when both are set"`
}

type RenameInput struct {
	Manifest string `json:"manifest" jsonschema:"Path to the project's go.mod"`
	FilePath string `json:"file_path" jsonschema:"Source file containing the symbol"`
	OldName  string `json:"old_name" jsonschema:"Current symbol name"`
	NewName  string `json:"new_name" jsonschema:"New symbol name (must be a valid identifier)"`
}

type UpdateImportInput struct {
	Manifest string `json:"manifest" jsonschema:"Path to the project's go.mod"`
	FilePath string `json:"file_path" jsonschema:"Source file whose import to retarget"`
	OldPath  string `json:"old_path" jsonschema:"Import path to replace"`
	NewPath  string `json:"new_path" jsonschema:"Replacement import path"`
}

type WriteFileInput struct {
	Manifest string `json:"manifest" jsonschema:"Path to the project's go.mod"`
	FilePath string `json:"file_path" jsonschema:"File to create or overwrite, relative to the project root"`
	Content  string `json:"content" jsonschema:"File contents; Go source is gofmt-formatted when it parses"`
}

type MakeDirectoryInput struct {
	Manifest string `json:"manifest" jsonschema:"Path to the project's go.mod"`
	DirPath  string `json:"dir_path" jsonschema:"Directory to create, relative to the project root"`
}

type CheckTypesInput struct {
	Manifest string `json:"manifest" jsonschema:"Path to the project's go.mod"`
	FilePath string `json:"file_path" jsonschema:"Source file to check"`
}

// managers holds one cache per manifest so repeated calls against the
// same project reuse its model.
var (
	managersMu sync.Mutex
	managers   = map[string]*cache.Manager{}
)

func acquire(manifest string) (*model.Model, error) {
	if manifest == "" {
		return nil, fmt.Errorf("manifest is required")
	}
	managersMu.Lock()
	mgr := managers[manifest]
	if mgr == nil {
		mgr = cache.New(cache.Options{Manifest: manifest})
		managers[manifest] = mgr
	}
	managersMu.Unlock()
	return mgr.Acquire()
}

func main() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codegate",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_references",
		Description: "Find every definition and use of a symbol across a Go project. Locate the symbol by name (first occurrence in the file) or by byte offset. Returns file, line and offset for each reference.",
	}, handleFindReferences)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rename_symbol",
		Description: "Rename a symbol project-wide. Every definition and use is rewritten and the modified files are saved. Fails without touching anything when the symbol cannot be resolved.",
	}, handleRename)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_import",
		Description: "Retarget an import path in one source file. A file that does not import the old path is left unchanged and the result reports zero changes.",
	}, handleUpdateImport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "write_file",
		Description: "Create or overwrite a file in the project, creating parent directories as needed. Go source is gofmt-formatted when it parses.",
	}, handleWriteFile)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "make_directory",
		Description: "Create a directory in the project, including missing parents. Succeeds if the directory already exists.",
	}, handleMakeDirectory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_types",
		Description: "Report parse and type errors for one source file. Returns line, column and message for each problem, or confirms the file is clean.",
	}, handleCheckTypes)

	// Run server on stdio
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Printf("Server error: %v", err)
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

func handleFindReferences(ctx context.Context, req *mcp.CallToolRequest, input FindReferencesInput) (*mcp.CallToolResult, any, error) {
	m, err := acquire(input.Manifest)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var sym *model.Symbol
	switch {
	case input.Offset != nil:
		sym, err = m.ResolveAt(input.FilePath, *input.Offset)
	case input.Symbol != "":
		sym, err = m.ResolveNamed(input.FilePath, input.Symbol)
	default:
		return errorResult("either symbol or offset is required"), nil, nil
	}
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	refs, err := m.References(sym)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(render.References(sym.Name(), refs)), nil, nil
}

func handleRename(ctx context.Context, req *mcp.CallToolRequest, input RenameInput) (*mcp.CallToolResult, any, error) {
	m, err := acquire(input.Manifest)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	res, err := m.Rename(input.FilePath, input.OldName, input.NewName)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(render.Rename(res)), nil, nil
}

func handleUpdateImport(ctx context.Context, req *mcp.CallToolRequest, input UpdateImportInput) (*mcp.CallToolResult, any, error) {
	m, err := acquire(input.Manifest)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	res, err := m.RewriteImport(input.FilePath, input.OldPath, input.NewPath)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	if res.Changes == 0 {
		return textResult(fmt.Sprintf("%s does not import %q; nothing changed", res.File, res.OldPath)), nil, nil
	}
	return textResult(fmt.Sprintf("Rewrote %d import(s) in %s: %s -> %s", res.Changes, res.File, res.OldPath, res.NewPath)), nil, nil
}

func handleWriteFile(ctx context.Context, req *mcp.CallToolRequest, input WriteFileInput) (*mcp.CallToolResult, any, error) {
	m, err := acquire(input.Manifest)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	res, err := m.WriteFile(input.FilePath, input.Content)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	note := ""
	if strings.HasSuffix(res.File, ".go") && !res.Formatted {
		note = " (content does not parse; written as-is)"
	}
	return textResult(fmt.Sprintf("Wrote %d bytes to %s%s", res.Bytes, res.File, note)), nil, nil
}

func handleMakeDirectory(ctx context.Context, req *mcp.CallToolRequest, input MakeDirectoryInput) (*mcp.CallToolResult, any, error) {
	m, err := acquire(input.Manifest)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	res, err := m.MakeDirectory(input.DirPath)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult("Created " + res.Dir), nil, nil
}

func handleCheckTypes(ctx context.Context, req *mcp.CallToolRequest, input CheckTypesInput) (*mcp.CallToolResult, any, error) {
	m, err := acquire(input.Manifest)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	rep, err := m.CheckTypes(input.FilePath)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	return textResult(render.Diagnostics(rep)), nil, nil
}
