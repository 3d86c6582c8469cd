package finder

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skippedDirs are generated by the editor or the build and never hold project scripts
var skippedDirs = map[string]bool{
	".git":    true,
	"Library": true,
	"Temp":    true,
	"Logs":    true,
	"obj":     true,
	"Build":   true,
}

// Matcher decides which workspace-relative paths are analyzed
type Matcher struct {
	include []string
	exclude []string
}

// NewMatcher creates a matcher. An empty include list selects every .cs file.
func NewMatcher(include, exclude []string) *Matcher {
	if len(include) == 0 {
		include = []string{"**/*.cs"}
	}
	return &Matcher{include: include, exclude: exclude}
}

// Match reports whether rel (slash or OS separated, relative to the workspace) is selected
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if !strings.HasSuffix(rel, ".cs") {
		return false
	}
	for _, pattern := range m.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range m.include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// SkipDir reports whether a directory with this base name is never descended into
func SkipDir(name string) bool {
	return skippedDirs[name] || (strings.HasPrefix(name, ".") && name != "." && name != "..")
}

// FindSourceFiles walks the workspace directory and returns the selected .cs files
// in sorted order, excluding editor caches and hidden directories.
func FindSourceFiles(workspaceRoot string, m *Matcher) ([]string, error) {
	if m == nil {
		m = NewMatcher(nil, nil)
	}
	var sourceFiles []string

	err := filepath.WalkDir(workspaceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != workspaceRoot && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(workspaceRoot, path)
		if err != nil {
			return err
		}
		if m.Match(rel) {
			sourceFiles = append(sourceFiles, path)
		}

		return nil
	})

	sort.Strings(sourceFiles)
	return sourceFiles, err
}
