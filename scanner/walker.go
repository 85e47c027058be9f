// Package scanner enumerates the Go source files of a project,
// respecting .gitignore and skipping the usual junk directories.
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IgnoredDirs are directories to skip during scanning.
var IgnoredDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"testdata":     true,
	".idea":        true,
	".vscode":      true,
	"dist":         true,
	"build":        true,
}

// WalkOptions configures the file walking behavior.
type WalkOptions struct {
	// Gitignore patterns to apply (can be nil)
	Gitignore *ignore.GitIgnore

	// GoOnly restricts the walk to .go source files.
	GoOnly bool
}

// WalkFunc is the callback for WalkFiles. It receives the absolute and
// root-relative path of each file. Return filepath.SkipDir to skip a
// directory, or any other error to stop walking.
type WalkFunc func(absPath, relPath string, info os.FileInfo) error

// WalkFiles walks the directory tree and calls fn for each file.
// This decouples traversal from what callers do with the files.
func WalkFiles(root string, opts WalkOptions, fn WalkFunc) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if info.IsDir() && path != root {
			if IgnoredDirs[info.Name()] || strings.HasPrefix(info.Name(), "_") {
				return filepath.SkipDir
			}
		}

		// Skip if matched by .gitignore
		if opts.Gitignore != nil && opts.Gitignore.MatchesPath(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if opts.GoOnly && filepath.Ext(path) != ".go" {
			return nil
		}

		return fn(path, relPath, info)
	})
}

// LoadGitignore loads .gitignore from root if it exists.
func LoadGitignore(root string) *ignore.GitIgnore {
	gitignorePath := filepath.Join(root, ".gitignore")

	if _, err := os.Stat(gitignorePath); err == nil {
		if gitignore, err := ignore.CompileIgnoreFile(gitignorePath); err == nil {
			return gitignore
		}
	}

	return nil
}

// ScanGoFiles walks the tree and returns the absolute paths of all Go
// source files under root.
func ScanGoFiles(root string, gitignore *ignore.GitIgnore) ([]string, error) {
	var files []string

	opts := WalkOptions{
		Gitignore: gitignore,
		GoOnly:    true,
	}

	err := WalkFiles(root, opts, func(absPath, relPath string, info os.FileInfo) error {
		files = append(files, absPath)
		return nil
	})

	return files, err
}
