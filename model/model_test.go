package model

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codegate/fault"
)

// newProject lays out a throwaway module on disk and returns the
// manifest path. Keys are root-relative file paths.
func newProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()

	manifest := filepath.Join(root, "go.mod")
	if err := os.WriteFile(manifest, []byte("module example.com/fixture\n\ngo 1.24\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return manifest
}

func load(t *testing.T, files map[string]string) *Model {
	t.Helper()
	m, err := Load(newProject(t, files))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "go.mod"))
	if err == nil {
		t.Fatal("expected an error for a missing manifest")
	}
	if fault.KindOf(err) != fault.KindProviderInit {
		t.Errorf("kind = %v, want ProviderInit", fault.KindOf(err))
	}
}

func TestReferencesAcrossFiles(t *testing.T) {
	m := load(t, map[string]string{
		"a.go": "package fix\n\nfunc foo() int { return 1 }\n",
		"b.go": "package fix\n\nvar total = foo() + foo()\n",
	})

	sym, err := m.ResolveNamed("a.go", "foo")
	if err != nil {
		t.Fatalf("ResolveNamed: %v", err)
	}
	refs, err := m.References(sym)
	if err != nil {
		t.Fatalf("References: %v", err)
	}

	if len(refs) != 3 {
		t.Fatalf("expected 3 references (1 def, 2 uses), got %d: %v", len(refs), refs)
	}
	for i := 1; i < len(refs); i++ {
		a, b := refs[i-1], refs[i]
		if a.File > b.File || (a.File == b.File && a.Offset > b.Offset) {
			t.Errorf("references out of order: %v before %v", a, b)
		}
	}
	if refs[0].File != "a.go" {
		t.Errorf("first reference in %s, want a.go", refs[0].File)
	}
}

func TestResolveAtFindsDeepestIdent(t *testing.T) {
	src := "package fix\n\nfunc foo() int { return 1 }\n\nvar x = foo()\n"
	m := load(t, map[string]string{"a.go": src})

	// Offset of the "foo" inside the call expression.
	off := strings.LastIndex(src, "foo")
	sym, err := m.ResolveAt("a.go", off)
	if err != nil {
		t.Fatalf("ResolveAt: %v", err)
	}
	if sym.Name() != "foo" {
		t.Errorf("resolved %q, want foo", sym.Name())
	}

	refs, err := m.References(sym)
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("expected 2 references, got %d", len(refs))
	}
}

func TestReferencesAcrossPackages(t *testing.T) {
	m := load(t, map[string]string{
		"a.go":     "package fix\n\nfunc Foo() int { return 1 }\n",
		"sub/b.go": "package sub\n\nimport \"example.com/fixture\"\n\nvar N = fix.Foo()\n",
	})

	sym, err := m.ResolveNamed("a.go", "Foo")
	if err != nil {
		t.Fatalf("ResolveNamed: %v", err)
	}
	refs, err := m.References(sym)
	if err != nil {
		t.Fatalf("References: %v", err)
	}

	if len(refs) != 2 {
		t.Fatalf("expected 2 references (declaration + cross-package use), got %d: %v", len(refs), refs)
	}
	if refs[0].File != "a.go" || refs[1].File != "sub/b.go" {
		t.Errorf("references in %s and %s, want a.go and sub/b.go", refs[0].File, refs[1].File)
	}
}

func TestReferencesFromImportingPackage(t *testing.T) {
	m := load(t, map[string]string{
		"a.go":     "package fix\n\nfunc Foo() int { return 1 }\n",
		"sub/b.go": "package sub\n\nimport \"example.com/fixture\"\n\nvar N = fix.Foo()\n",
	})

	// Resolving at the use site must find the same group as the
	// declaration site.
	sym, err := m.ResolveNamed("sub/b.go", "Foo")
	if err != nil {
		t.Fatalf("ResolveNamed: %v", err)
	}
	refs, err := m.References(sym)
	if err != nil {
		t.Fatalf("References: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d: %v", len(refs), refs)
	}
}

func TestResolveAtEndOfFile(t *testing.T) {
	src := "package fix\n\nfunc foo() int { return 1 }\n\nvar x = foo"
	m := load(t, map[string]string{"a.go": src})

	sym, err := m.ResolveAt("a.go", len(src))
	if err != nil {
		t.Fatalf("ResolveAt at EOF: %v", err)
	}
	if sym.Name() != "foo" {
		t.Errorf("resolved %q, want foo", sym.Name())
	}
}

func TestResolveAtOutOfRange(t *testing.T) {
	m := load(t, map[string]string{"a.go": "package fix\n"})

	_, err := m.ResolveAt("a.go", 100000)
	if fault.KindOf(err) != fault.KindResolution {
		t.Errorf("kind = %v, want Resolution", fault.KindOf(err))
	}
}

func TestResolveNamedMissing(t *testing.T) {
	m := load(t, map[string]string{"a.go": "package fix\n"})

	_, err := m.ResolveNamed("a.go", "nothere")
	if fault.KindOf(err) != fault.KindResolution {
		t.Errorf("kind = %v, want Resolution", fault.KindOf(err))
	}
}

func TestRenameRewritesEveryFile(t *testing.T) {
	manifest := newProject(t, map[string]string{
		"a.go": "package fix\n\nfunc foo() int { return 1 }\n",
		"b.go": "package fix\n\nvar total = foo() + foo()\n",
	})
	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := m.Rename("a.go", "foo", "bar")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if len(res.References) != 3 {
		t.Errorf("expected 3 references, got %d", len(res.References))
	}
	if len(res.Files) != 2 {
		t.Errorf("expected 2 files touched, got %v", res.Files)
	}

	root := filepath.Dir(manifest)
	for _, name := range []string{"a.go", "b.go"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "foo") {
			t.Errorf("%s still mentions foo:\n%s", name, data)
		}
		if !strings.Contains(string(data), "bar") {
			t.Errorf("%s does not mention bar:\n%s", name, data)
		}
	}
}

func TestRenameAcrossPackages(t *testing.T) {
	manifest := newProject(t, map[string]string{
		"a.go":     "package fix\n\nfunc Foo() int { return 1 }\n",
		"sub/b.go": "package sub\n\nimport \"example.com/fixture\"\n\nvar N = fix.Foo()\n",
	})
	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := m.Rename("a.go", "Foo", "Bar")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if len(res.References) != 2 {
		t.Errorf("expected 2 references, got %d: %v", len(res.References), res.References)
	}
	if len(res.Files) != 2 {
		t.Errorf("expected 2 files touched, got %v", res.Files)
	}

	root := filepath.Dir(manifest)
	a, err := os.ReadFile(filepath.Join(root, "a.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(a), "func Bar") || strings.Contains(string(a), "Foo") {
		t.Errorf("declaration not renamed:\n%s", a)
	}
	b, err := os.ReadFile(filepath.Join(root, "sub", "b.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "fix.Bar()") || strings.Contains(string(b), "Foo") {
		t.Errorf("cross-package call site not renamed:\n%s", b)
	}
}

func TestRenameRejectsBadIdentifier(t *testing.T) {
	m := load(t, map[string]string{"a.go": "package fix\n\nfunc foo() {}\n"})

	_, err := m.Rename("a.go", "foo", "not valid")
	if fault.KindOf(err) != fault.KindInvalidParams {
		t.Errorf("kind = %v, want InvalidParams", fault.KindOf(err))
	}
}

func TestRenameUnknownSymbolLeavesFilesAlone(t *testing.T) {
	src := "package fix\n\nfunc foo() {}\n"
	manifest := newProject(t, map[string]string{"a.go": src})
	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err = m.Rename("a.go", "missing", "anything")
	if fault.KindOf(err) != fault.KindResolution {
		t.Fatalf("kind = %v, want Resolution", fault.KindOf(err))
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(manifest), "a.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != src {
		t.Error("file changed despite failed resolution")
	}
}

func TestRewriteImport(t *testing.T) {
	manifest := newProject(t, map[string]string{
		"a.go": "package fix\n\nimport _ \"old/thing\"\n",
	})
	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := m.RewriteImport("a.go", "old/thing", "new/thing")
	if err != nil {
		t.Fatalf("RewriteImport: %v", err)
	}
	if res.Changes != 1 {
		t.Errorf("changes = %d, want 1", res.Changes)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(manifest), "a.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"new/thing"`) || strings.Contains(string(data), `"old/thing"`) {
		t.Errorf("import not rewritten:\n%s", data)
	}
}

func TestRewriteImportNoMatchIsNoop(t *testing.T) {
	src := "package fix\n\nimport _ \"old/thing\"\n"
	manifest := newProject(t, map[string]string{"a.go": src})
	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := m.RewriteImport("a.go", "absent/path", "new/thing")
	if err != nil {
		t.Fatalf("RewriteImport: %v", err)
	}
	if res.Changes != 0 {
		t.Errorf("changes = %d, want 0", res.Changes)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(manifest), "a.go"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != src {
		t.Error("file modified on a no-op rewrite")
	}
}

func TestWriteFileFormatsGoSource(t *testing.T) {
	manifest := newProject(t, nil)
	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := m.WriteFile("sub/new.go", "package  sub\nfunc  X()  int {return 2}\n")
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !res.Formatted {
		t.Error("expected content to be formatted")
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(manifest), "sub", "new.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "func X() int") {
		t.Errorf("not gofmt output:\n%s", data)
	}
}

func TestWriteFileKeepsUnparsableContent(t *testing.T) {
	m := load(t, nil)

	res, err := m.WriteFile("broken.go", "package oops\nfunc {\n")
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if res.Formatted {
		t.Error("unparsable content reported as formatted")
	}
}

func TestMakeDirectoryIdempotent(t *testing.T) {
	m := load(t, nil)

	if _, err := m.MakeDirectory("a/b/c"); err != nil {
		t.Fatalf("first MakeDirectory: %v", err)
	}
	if _, err := m.MakeDirectory("a/b/c"); err != nil {
		t.Fatalf("second MakeDirectory: %v", err)
	}
}

func TestCheckTypesClean(t *testing.T) {
	m := load(t, map[string]string{
		"a.go": "package fix\n\nfunc foo() int { return 1 }\n\nvar x = foo()\n",
	})

	rep, err := m.CheckTypes("a.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if !rep.Clean || len(rep.Diagnostics) != 0 {
		t.Errorf("expected a clean report, got %+v", rep)
	}
}

func TestCheckTypesCleanInImportingPackage(t *testing.T) {
	m := load(t, map[string]string{
		"a.go":     "package fix\n\nfunc Foo() int { return 1 }\n",
		"sub/b.go": "package sub\n\nimport \"example.com/fixture\"\n\nvar N = fix.Foo()\n",
	})

	rep, err := m.CheckTypes("sub/b.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if !rep.Clean {
		t.Errorf("expected sub/b.go to be clean, got %+v", rep)
	}

	rep, err = m.CheckTypes("a.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if !rep.Clean {
		t.Errorf("expected a.go to be clean, got %+v", rep)
	}
}

func TestCheckTypesReportsTypeError(t *testing.T) {
	m := load(t, map[string]string{
		"a.go": "package fix\n\nvar X int = \"bad\"\n",
	})

	rep, err := m.CheckTypes("a.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if rep.Clean || len(rep.Diagnostics) == 0 {
		t.Fatal("expected diagnostics for a type error")
	}
	if rep.Diagnostics[0].Line != 3 {
		t.Errorf("diagnostic on line %d, want 3", rep.Diagnostics[0].Line)
	}
}

func TestCheckTypesReportsParseError(t *testing.T) {
	m := load(t, map[string]string{
		"a.go": "package fix\n\nfunc broken( {\n",
	})

	rep, err := m.CheckTypes("a.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if rep.Clean || len(rep.Diagnostics) == 0 {
		t.Fatal("expected diagnostics for a parse error")
	}
}

func TestWriteThenCheck(t *testing.T) {
	m := load(t, nil)

	if _, err := m.WriteFile("good.go", "package fix\n\nvar N int = 1\n"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rep, err := m.CheckTypes("good.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if !rep.Clean {
		t.Errorf("expected good.go to be clean, got %+v", rep)
	}

	if _, err := m.WriteFile("bad.go", "package fix\n\nvar X int = \"bad\"\n"); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rep, err = m.CheckTypes("bad.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if rep.Clean {
		t.Error("expected bad.go to report a type error")
	}
}

func TestCheckTypesSeesExternalEdit(t *testing.T) {
	manifest := newProject(t, map[string]string{
		"a.go": "package fix\n\nvar X int = \"bad\"\n",
	})
	m, err := Load(manifest)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Fix the file behind the model's back.
	p := filepath.Join(filepath.Dir(manifest), "a.go")
	if err := os.WriteFile(p, []byte("package fix\n\nvar X = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := m.CheckTypes("a.go")
	if err != nil {
		t.Fatalf("CheckTypes: %v", err)
	}
	if !rep.Clean {
		t.Errorf("expected a clean report after external fix, got %+v", rep)
	}
}
