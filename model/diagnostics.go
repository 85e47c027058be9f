package model

import (
	"sort"
)

// CheckTypes re-reads a file and reports its parse and type errors from
// a whole-module check, so intra-module imports resolve and a valid
// file in an importing package comes back clean. A clean file yields an
// empty diagnostic list with Clean set.
func (m *Model) CheckTypes(path string) (*DiagnosticReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tf, err := m.ensureFresh(path)
	if err != nil {
		return nil, err
	}
	if err := m.ensureChecked(); err != nil {
		return nil, err
	}

	diags := m.diagsFor(tf.path)
	sort.Slice(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Column < diags[j].Column
	})

	return &DiagnosticReport{
		File:        m.rel(tf.path),
		Clean:       len(diags) == 0,
		Diagnostics: diags,
	}, nil
}
