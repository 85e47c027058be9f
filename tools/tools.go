// Package tools defines the closed set of operations the gateway
// exposes and dispatches calls to the project model. Every tool has a
// typed argument struct; both the JSON-RPC and REST transports decode
// into the same types.
package tools

import (
	"bytes"
	"encoding/json"

	"codegate/fault"
	"codegate/model"
)

// Tool names. The set is closed: transports reject anything else.
const (
	FindReferences = "find_references"
	RenameSymbol   = "rename_symbol"
	UpdateImport   = "update_import"
	WriteFile      = "write_file"
	MakeDirectory  = "make_directory"
	CheckTypes     = "check_types"
)

// Descriptor is the listing entry for one tool.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Descriptors returns the tool listing in a fixed order.
func Descriptors() []Descriptor {
	return []Descriptor{
		{FindReferences, "Find every definition and use of a symbol across the project"},
		{RenameSymbol, "Rename a symbol project-wide and save the modified files"},
		{UpdateImport, "Retarget an import path in one source file"},
		{WriteFile, "Create or overwrite a file, formatting Go source"},
		{MakeDirectory, "Create a directory, including missing parents"},
		{CheckTypes, "Report parse and type errors for one file"},
	}
}

// FindReferencesArgs locate a symbol either by byte offset or by the
// first occurrence of a name. Offset wins when both are given.
type FindReferencesArgs struct {
	FilePath   string `json:"filePath"`
	SymbolName string `json:"symbolName,omitempty"`
	Offset     *int   `json:"offset,omitempty"`
}

type RenameArgs struct {
	FilePath string `json:"filePath"`
	OldName  string `json:"oldName"`
	NewName  string `json:"newName"`
}

type UpdateImportArgs struct {
	FilePath string `json:"filePath"`
	OldPath  string `json:"oldPath"`
	NewPath  string `json:"newPath"`
}

type WriteFileArgs struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
}

type MakeDirectoryArgs struct {
	DirPath string `json:"dirPath"`
}

type CheckTypesArgs struct {
	FilePath string `json:"filePath"`
}

// Dispatch decodes raw arguments for a named tool and runs it against
// the model. Unknown names map to MethodNotFound; malformed or
// incomplete arguments map to InvalidParams.
func Dispatch(name string, args json.RawMessage, m *model.Model) (any, error) {
	switch name {
	case FindReferences:
		var a FindReferencesArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return DoFindReferences(m, a)
	case RenameSymbol:
		var a RenameArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return DoRename(m, a)
	case UpdateImport:
		var a UpdateImportArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return DoUpdateImport(m, a)
	case WriteFile:
		var a WriteFileArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return DoWriteFile(m, a)
	case MakeDirectory:
		var a MakeDirectoryArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return DoMakeDirectory(m, a)
	case CheckTypes:
		var a CheckTypesArgs
		if err := decode(args, &a); err != nil {
			return nil, err
		}
		return DoCheckTypes(m, a)
	default:
		return nil, fault.Newf(fault.KindMethodNotFound, "unknown tool %q", name)
	}
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fault.Wrap(fault.KindInvalidParams, "decoding arguments", err)
	}
	return nil
}
