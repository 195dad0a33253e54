package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCoversState(t *testing.T) {
	tests := []struct {
		line   string
		covers bool
	}{
		{".dndtree", true},
		{".dndtree/", true},
		{"/.dndtree/", true},
		{".dndtree/*", true},
		{".dndtree/**", true},
		{".dndtree/**/*", true},
		{".dndtree/tree-state.json", true},
		{"tree-state.json", true},
		{"**/tree-state.json", true},
		{"*.json", true},
		{"  .dndtree  \n", true},

		{"", false},
		{"# .dndtree/", false},
		{"!.dndtree/tree-state.json", false},
		{".dndtree2", false},
		{".dndtree/config.yaml", false},
		{"sub/.dndtree/", false},
		{"node_modules/", false},
		{"*.yaml", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := coversState(tt.line); got != tt.covers {
				t.Errorf("coversState(%q) = %v, want %v", tt.line, got, tt.covers)
			}
		})
	}
}

func TestEnsureStateIgnored(t *testing.T) {
	tests := []struct {
		name     string
		existing *string
		want     string
	}{
		{"creates file", nil, "# dndtree local state\n" + StatePattern + "\n"},
		{"empty file", ptr(""), "# dndtree local state\n" + StatePattern + "\n"},
		{"appends after newline", ptr("node_modules/\n"), "node_modules/\n\n# dndtree local state\n" + StatePattern + "\n"},
		{"appends without trailing newline", ptr("node_modules/"), "node_modules/\n\n# dndtree local state\n" + StatePattern + "\n"},
		{"directory already ignored", ptr("bin/\n.dndtree\n"), "bin/\n.dndtree\n"},
		{"only config ignored", ptr(".dndtree/config.yaml\n"), ".dndtree/config.yaml\n\n# dndtree local state\n" + StatePattern + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ".gitignore")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			if err := EnsureStateIgnored(dir); err != nil {
				t.Fatalf("EnsureStateIgnored() error = %v", err)
			}
			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read .gitignore: %v", err)
			}
			if string(content) != tt.want {
				t.Errorf("got:\n%q\nwant:\n%q", content, tt.want)
			}
		})
	}
}

func TestEnsureStateIgnoredIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		if err := EnsureStateIgnored(dir); err != nil {
			t.Fatalf("EnsureStateIgnored() error = %v", err)
		}
	}
	content, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if n := strings.Count(string(content), StatePattern); n != 1 {
		t.Errorf("expected 1 occurrence, got %d:\n%s", n, content)
	}
}

func ptr(s string) *string { return &s }
