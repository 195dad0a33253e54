package ui

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/vanderheijden86/dndtree/pkg/model"
)

// TreeState is the persistent state of the tree view. It is saved to
// <state dir>/tree-state.json so expand/collapse survives restarts.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {
//	    "inbox": true,
//	    "archive": true
//	  }
//	}
//
// A missing file means first run and the configured defaults apply. A
// corrupted file or an unknown version is ignored with a warning.
type TreeState struct {
	Version  int             `json:"version"`  // Schema version (currently 1)
	Expanded map[string]bool `json:"expanded"` // Key -> expanded
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

// DefaultTreeState returns an empty state at the current version.
func DefaultTreeState() *TreeState {
	return &TreeState{
		Version:  TreeStateVersion,
		Expanded: make(map[string]bool),
	}
}

const treeStateFileName = "tree-state.json"

// TreeStatePath returns the path to the tree state file inside stateDir,
// defaulting to .dndtree in the current directory.
func TreeStatePath(stateDir string) string {
	if stateDir == "" {
		stateDir = ".dndtree"
	}
	return filepath.Join(stateDir, treeStateFileName)
}

// saveState persists the expanded keys. Errors are logged but do not
// interrupt the user.
func (t *TreeModel) saveState() {
	if t.opts.StateDir == "" {
		return
	}
	state := DefaultTreeState()
	for _, k := range t.ctrl.Expanded() {
		state.Expanded[string(k)] = true
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		t.logger.Warnf("failed to marshal tree state: %v", err)
		return
	}

	path := TreeStatePath(t.opts.StateDir)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.logger.Warnf("failed to create state directory %s: %v", dir, err)
		return
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.logger.Warnf("failed to write tree state to %s: %v", path, err)
		return
	}
}

// loadState restores expanded keys from disk. It reports whether a state
// file was applied.
func (t *TreeModel) loadState() bool {
	if t.opts.StateDir == "" {
		return false
	}
	path := TreeStatePath(t.opts.StateDir)
	data, err := os.ReadFile(path)
	if err != nil {
		// File doesn't exist = first run, use defaults
		return false
	}

	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		t.logger.Warnf("invalid tree state file, using defaults: %v", err)
		return false
	}
	if state.Version != TreeStateVersion {
		t.logger.Warnf("unsupported tree state version %d, using defaults", state.Version)
		return false
	}

	t.applyState(&state)
	return true
}

// applyState replaces the expanded set with state. Keys no longer in the
// tree are kept; they are harmless and come back into effect if the node
// reappears.
func (t *TreeModel) applyState(state *TreeState) {
	if state == nil {
		return
	}
	t.ctrl.CollapseAll()
	for k, expanded := range state.Expanded {
		if expanded {
			t.ctrl.SetExpanded(model.Key(k), true)
		}
	}
}
