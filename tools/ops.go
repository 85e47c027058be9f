package tools

import (
	"codegate/fault"
	"codegate/model"
)

// FindReferencesResult is the payload for find_references.
type FindReferencesResult struct {
	Symbol     string            `json:"symbol"`
	Count      int               `json:"count"`
	References []model.Reference `json:"references"`
}

// DoFindReferences resolves a symbol by offset or name, then gathers
// its project-wide references.
func DoFindReferences(m *model.Model, a FindReferencesArgs) (*FindReferencesResult, error) {
	if a.FilePath == "" {
		return nil, fault.New(fault.KindInvalidParams, "filePath is required")
	}

	var sym *model.Symbol
	var err error
	switch {
	case a.Offset != nil:
		sym, err = m.ResolveAt(a.FilePath, *a.Offset)
	case a.SymbolName != "":
		sym, err = m.ResolveNamed(a.FilePath, a.SymbolName)
	default:
		return nil, fault.New(fault.KindInvalidParams, "either symbolName or offset is required")
	}
	if err != nil {
		return nil, err
	}

	refs, err := m.References(sym)
	if err != nil {
		return nil, err
	}
	return &FindReferencesResult{Symbol: sym.Name(), Count: len(refs), References: refs}, nil
}

func DoRename(m *model.Model, a RenameArgs) (*model.RenameResult, error) {
	if a.FilePath == "" || a.OldName == "" || a.NewName == "" {
		return nil, fault.New(fault.KindInvalidParams, "filePath, oldName and newName are required")
	}
	return m.Rename(a.FilePath, a.OldName, a.NewName)
}

func DoUpdateImport(m *model.Model, a UpdateImportArgs) (*model.UpdateResult, error) {
	if a.FilePath == "" || a.OldPath == "" || a.NewPath == "" {
		return nil, fault.New(fault.KindInvalidParams, "filePath, oldPath and newPath are required")
	}
	return m.RewriteImport(a.FilePath, a.OldPath, a.NewPath)
}

func DoWriteFile(m *model.Model, a WriteFileArgs) (*model.WriteResult, error) {
	if a.FilePath == "" {
		return nil, fault.New(fault.KindInvalidParams, "filePath is required")
	}
	return m.WriteFile(a.FilePath, a.Content)
}

func DoMakeDirectory(m *model.Model, a MakeDirectoryArgs) (*model.MkdirResult, error) {
	if a.DirPath == "" {
		return nil, fault.New(fault.KindInvalidParams, "dirPath is required")
	}
	return m.MakeDirectory(a.DirPath)
}

func DoCheckTypes(m *model.Model, a CheckTypesArgs) (*model.DiagnosticReport, error) {
	if a.FilePath == "" {
		return nil, fault.New(fault.KindInvalidParams, "filePath is required")
	}
	return m.CheckTypes(a.FilePath)
}
