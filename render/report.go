// Package render formats query results as human-readable text for
// clients that want prose instead of JSON.
package render

import (
	"fmt"
	"strings"

	"codegate/model"
)

// References renders a reference list grouped by file.
func References(symbol string, refs []model.Reference) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== References: %s ===\n", symbol)
	if len(refs) == 0 {
		b.WriteString("  No references found.\n")
		return b.String()
	}

	current := ""
	for _, r := range refs {
		if r.File != current {
			current = r.File
			fmt.Fprintf(&b, "\n%s\n", current)
		}
		fmt.Fprintf(&b, "  line %d (offset %d)\n", r.Line, r.Offset)
	}
	fmt.Fprintf(&b, "\n%d reference(s)\n", len(refs))
	return b.String()
}

// Diagnostics renders a type-check report.
func Diagnostics(rep *model.DiagnosticReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Diagnostics: %s ===\n", rep.File)
	if rep.Clean {
		b.WriteString("  No problems found.\n")
		return b.String()
	}
	for _, d := range rep.Diagnostics {
		fmt.Fprintf(&b, "  %d:%d  %s\n", d.Line, d.Column, d.Message)
	}
	fmt.Fprintf(&b, "\n%d problem(s)\n", len(rep.Diagnostics))
	return b.String()
}

// Rename renders a rename summary.
func Rename(res *model.RenameResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Rename: %s -> %s ===\n", res.OldName, res.NewName)
	fmt.Fprintf(&b, "  %d reference(s) in %d file(s)\n", len(res.References), len(res.Files))
	for _, f := range res.Files {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	return b.String()
}
