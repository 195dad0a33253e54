package loader

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StatePattern is the .gitignore entry that keeps per-user tree state out of
// the repository. The shared config next to it stays tracked.
const StatePattern = ".dndtree/tree-state.json"

// EnsureStateIgnored adds StatePattern to projectDir/.gitignore unless a line
// there already covers the state file. A missing .gitignore is created.
func EnsureStateIgnored(projectDir string) error {
	gitignore := filepath.Join(projectDir, ".gitignore")
	data, err := os.ReadFile(gitignore)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	for line := range strings.Lines(string(data)) {
		if coversState(line) {
			return nil
		}
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 {
		if data[len(data)-1] != '\n' {
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("# dndtree local state\n" + StatePattern + "\n")
	return os.WriteFile(gitignore, buf.Bytes(), 0o644)
}

// coversState reports whether one .gitignore line ignores the state file.
// Patterns containing a slash are anchored at the project root; others
// match the state file or its directory by name at any depth.
func coversState(line string) bool {
	pattern := strings.TrimSpace(line)
	if pattern == "" || strings.HasPrefix(pattern, "#") || strings.HasPrefix(pattern, "!") {
		return false
	}
	pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/")
	pattern = strings.ReplaceAll(pattern, "/**/", "/")

	dir, file := path.Split(StatePattern)
	dir = strings.TrimSuffix(dir, "/")

	targets := []string{dir, file}
	if strings.Contains(pattern, "/") {
		targets = []string{dir, StatePattern}
	}
	for _, target := range targets {
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}
