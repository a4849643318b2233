package index

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// discovery walks a project tree and collects Python source files.
type discovery struct {
	rootDir        string
	ignorePatterns []compiledPattern
}

// DefaultIgnorePatterns are directories and files never worth indexing.
var DefaultIgnorePatterns = []string{
	".git/**",
	"**/__pycache__/**",
	"**/*.pyc",
	".venv/**",
	"venv/**",
	"**/.tox/**",
	"**/*.egg-info/**",
}

func newDiscovery(rootDir string, ignorePatterns []string) (*discovery, error) {
	d := &discovery{rootDir: rootDir}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.ignorePatterns = append(d.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return d, nil
}

// discoverFiles walks the directory tree and returns relative paths of
// Python files, in walk order.
func (d *discovery) discoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ".py" {
			return nil
		}

		if d.shouldIgnore(relPath) {
			return nil
		}

		files = append(files, relPath)
		return nil
	})

	return files, err
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *discovery) shouldIgnore(relPath string) bool {
	if relPath == "." {
		return false
	}

	for _, cp := range d.ignorePatterns {
		if cp.glob.Match(relPath) {
			return true
		}
	}

	// A directory should also match patterns written with a /** suffix,
	// e.g. "venv" matches the pattern "venv/**".
	pathWithSuffix := relPath + "/**"
	for _, cp := range d.ignorePatterns {
		if cp.glob.Match(pathWithSuffix) {
			return true
		}
	}

	return strings.HasPrefix(filepath.Base(relPath), ".") && filepath.Base(relPath) != "."
}
