package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// treeExts are the file extensions the loader understands.
var treeExts = map[string]bool{".json": true, ".yaml": true, ".yml": true}

// DiscoverTreeFiles walks root up to maxDepth levels deep and returns every
// tree file found, sorted. Hidden directories are skipped.
func DiscoverTreeFiles(root string, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	root = expandHome(root)
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}
		currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if currentDepth > maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if currentDepth > maxDepth {
			return nil
		}
		if treeExts[strings.ToLower(filepath.Ext(path))] {
			results = append(results, path)
		}
		return nil
	})

	sort.Strings(results)
	return results
}

// DetectRoot finds the project directory for the current working
// directory by walking up to the nearest .dndtree/.
func DetectRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findRoot(dir)
}

// findRoot walks up from dir looking for a .dndtree/ directory.
func findRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		settingsDir := filepath.Join(dir, DirName)
		if info, err := os.Stat(settingsDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
