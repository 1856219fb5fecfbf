// Package discover finds scannable source files in a function directory.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/autoinstall/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the function directory, slash-separated
	Language string
}

// Ignorer decides whether a directory-relative path is excluded from scanning.
type Ignorer interface {
	Ignored(rel string) bool
}

// IgnoreFunc adapts a plain function to Ignorer.
type IgnoreFunc func(rel string) bool

// Ignored calls f(rel).
func (f IgnoreFunc) Ignored(rel string) bool { return f(rel) }

// DefaultPatterns exclude dependency trees, vendored code and tests.
var DefaultPatterns = []string{
	"node_modules/",
	"vendor/",
	"test/",
	"tests/",
	"__tests__/",
	"__mocks__/",
	"*.test.js",
	"*.spec.js",
}

// Patterns is a gitignore-style Ignorer.
type Patterns struct {
	gi *ignore.GitIgnore
}

// NewPatterns compiles DefaultPatterns plus extra.
func NewPatterns(extra ...string) *Patterns {
	lines := append(append([]string{}, DefaultPatterns...), extra...)
	return &Patterns{gi: ignore.CompileIgnoreLines(lines...)}
}

// ForDir returns an Ignorer for dir: DefaultPatterns, extra, and the
// directory's own .gitignore when one exists. An unreadable .gitignore is an
// error.
func ForDir(dir string, extra ...string) (Ignorer, error) {
	lines := append(append([]string{}, DefaultPatterns...), extra...)
	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return &Patterns{gi: ignore.CompileIgnoreLines(lines...)}, nil
	}
	gi, err := ignore.CompileIgnoreFileAndLines(path, lines...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &Patterns{gi: gi}, nil
}

// Ignored reports whether rel matches any pattern.
func (p *Patterns) Ignored(rel string) bool {
	return p.gi.MatchesPath(rel)
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".hg":          {},
	".svn":         {},
}

// Files discovers source files under dir whose extension maps to a
// registered language. Hidden entries, symlinks and paths matched by ig are
// skipped. A nil ig excludes nothing beyond the built-in skips.
func Files(dir string, ig Ignorer) ([]FileEntry, error) {
	var results []FileEntry

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // skip unreadable entries
		}

		name := d.Name()

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if ig != nil && ig.Ignored(rel) {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}
