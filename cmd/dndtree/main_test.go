package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/vanderheijden86/dndtree/pkg/config"
	"github.com/vanderheijden86/dndtree/pkg/loader"
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

// a > (b > c, d leaf), e
const sampleJSON = `[
  {"key": "a", "title": "A", "children": [
    {"key": "b", "title": "B", "children": [{"key": "c", "title": "C"}]},
    {"key": "d", "title": "D", "isLeaf": true}
  ]},
  {"key": "e", "title": "E"}
]`

// setupWorkspace moves into a fresh directory holding tree.json.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "tree.json"), []byte(sampleJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if err != nil {
		return 1
	}
	return 0
}

func childKeys(t *testing.T, roots []model.TreeNode, key model.Key) []model.Key {
	t.Helper()
	node, ok := tree.FindItemDeep(roots, key)
	if !ok {
		t.Fatalf("%s not found", key)
	}
	var out []model.Key
	for _, c := range node.Children {
		out = append(out, c.Key)
	}
	return out
}

func TestFlattenCommand(t *testing.T) {
	setupWorkspace(t)
	out, err := runCLI(t, "", "flatten", "tree.json")
	if err != nil {
		t.Fatal(err)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("bad output: %v\n%s", err, out)
	}
	var keys []string
	for _, r := range rows {
		keys = append(keys, r["key"].(string))
		if _, ok := r["children"]; ok {
			t.Errorf("flat row %v must not carry children", r["key"])
		}
	}
	if strings.Join(keys, ",") != "a,b,c,d,e" {
		t.Errorf("order = %v", keys)
	}
	if rows[2]["depth"].(float64) != 2 || rows[3]["parentId"] != "a" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestFlattenStdinYAML(t *testing.T) {
	setupWorkspace(t)
	in := "- key: a\n  children:\n    - key: b\n"
	out, err := runCLI(t, in, "--format", "yaml", "flatten", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "parentId: a") {
		t.Errorf("expected yaml flat list, got:\n%s", out)
	}
}

func TestBuildRoundTrip(t *testing.T) {
	dir := setupWorkspace(t)
	flat, err := runCLI(t, "", "flatten", "tree.json")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "flat.json"), []byte(flat), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "build", "flat.json")
	if err != nil {
		t.Fatal(err)
	}
	got, err := loader.ReadTree(strings.NewReader(out), loader.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := loader.LoadTree("tree.json")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n%s", out)
	}
}

type projectOut struct {
	Valid      bool             `json:"valid"`
	Projection *tree.Projection `json:"projection"`
	Moving     int              `json:"moving"`
}

func TestProjectCommand(t *testing.T) {
	setupWorkspace(t)
	out, err := runCLI(t, "", "project", "tree.json", "--active", "e", "--offset", "48")
	if err != nil {
		t.Fatal(err)
	}
	var res projectOut
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("bad output: %v\n%s", err, out)
	}
	if !res.Valid || res.Projection.Depth != 1 || res.Projection.ParentID != "a" {
		t.Errorf("unexpected projection: %s", out)
	}
	if res.Moving != 1 {
		t.Errorf("moving = %d", res.Moving)
	}
	if res.Projection.Parent == nil || res.Projection.Parent.Key != "a" {
		t.Errorf("projection parent missing: %s", out)
	}

	// Same gesture with a smaller indentation unit.
	out, err = runCLI(t, "", "--indentation", "10", "project", "tree.json", "--active", "e", "--offset", "10")
	if err != nil {
		t.Fatal(err)
	}
	res = projectOut{}
	_ = json.Unmarshal([]byte(out), &res)
	if !res.Valid || res.Projection.Depth != 1 {
		t.Errorf("indentation flag ignored: %s", out)
	}
}

func TestProjectHonoursConfigPolicy(t *testing.T) {
	dir := setupWorkspace(t)
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("policy:\n  pinned: [e]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "--config", cfgPath, "project", "tree.json", "--active", "e", "--offset", "48")
	if err != nil {
		t.Fatal(err)
	}
	var res projectOut
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Valid || res.Projection != nil {
		t.Errorf("pinned node must not project: %s", out)
	}
}

func TestMoveCommand(t *testing.T) {
	setupWorkspace(t)
	if _, err := runCLI(t, "", "move", "tree.json", "--active", "e", "--offset", "48", "--write"); err != nil {
		t.Fatal(err)
	}
	roots, err := loader.LoadTree("tree.json")
	if err != nil {
		t.Fatal(err)
	}
	if got := childKeys(t, roots, "a"); !reflect.DeepEqual(got, []model.Key{"b", "d", "e"}) {
		t.Errorf("a children = %v", got)
	}
}

func TestMoveCommandPrintsTree(t *testing.T) {
	setupWorkspace(t)
	out, err := runCLI(t, "", "move", "tree.json", "--active", "e", "--over", "d")
	if err != nil {
		t.Fatal(err)
	}
	roots, err := loader.ReadTree(strings.NewReader(out), loader.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got := childKeys(t, roots, "a"); !reflect.DeepEqual(got, []model.Key{"b", "e", "d"}) {
		t.Errorf("a children = %v", got)
	}
}

func TestMoveCommandErrors(t *testing.T) {
	dir := setupWorkspace(t)
	if _, err := runCLI(t, "", "move", "tree.json", "--active", "zzz"); err == nil || !strings.Contains(err.Error(), "not visible") {
		t.Errorf("expected not visible error, got %v", err)
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("policy:\n  pinned: [e]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, "", "--config", cfgPath, "move", "tree.json", "--active", "e", "--offset", "48")
	if err == nil || !strings.Contains(err.Error(), "no valid drop target") {
		t.Errorf("expected rejected drop, got %v", err)
	}
}

func TestRemoveCommand(t *testing.T) {
	setupWorkspace(t)
	out, err := runCLI(t, "", "remove", "tree.json", "b")
	if err != nil {
		t.Fatal(err)
	}
	roots, err := loader.ReadTree(strings.NewReader(out), loader.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.FlattenTree(roots).Keys(); !reflect.DeepEqual(got, []model.Key{"a", "d", "e"}) {
		t.Errorf("keys = %v", got)
	}

	if _, err := runCLI(t, "", "remove", "tree.json", "nope"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestCountCommand(t *testing.T) {
	setupWorkspace(t)
	out, err := runCLI(t, "", "count", "tree.json", "a")
	if err != nil {
		t.Fatal(err)
	}
	var res countResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if res.Children != 2 || res.Moving != 3 {
		t.Errorf("count = %+v", res)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := setupWorkspace(t)
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"key": "x"}, {"key": "x"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "check", "tree.json", "bad.json")
	if exitCode(err) != 1 {
		t.Fatalf("expected exit 1, got %v", err)
	}
	var report checkReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("bad output: %v\n%s", err, out)
	}
	if report.Invalid != 1 || len(report.Files) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if !report.Files[0].Valid || report.Files[0].Nodes != 5 {
		t.Errorf("tree.json = %+v", report.Files[0])
	}
	if report.Files[1].Valid || !strings.Contains(strings.Join(report.Files[1].Problems, ";"), "duplicate key") {
		t.Errorf("bad.json = %+v", report.Files[1])
	}

	if err := os.Remove(bad); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, "", "check")
	if err != nil {
		t.Fatalf("discovered files should be valid: %v\n%s", err, out)
	}
	if !strings.Contains(out, "tree.json") {
		t.Errorf("expected discovery to find tree.json:\n%s", out)
	}
}

func TestDiffCommand(t *testing.T) {
	dir := setupWorkspace(t)
	movedJSON := `[{"key": "a", "title": "A", "children": [
	  {"key": "b", "title": "B", "children": [{"key": "c", "title": "C"}]},
	  {"key": "d", "title": "D", "isLeaf": true},
	  {"key": "e", "title": "E"}
	]}]`
	if err := os.WriteFile(filepath.Join(dir, "moved.json"), []byte(movedJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "diff", "tree.json", "moved.json")
	if err != nil {
		t.Fatalf("reparenting is informational: %v", err)
	}
	if !strings.Contains(out, "moved to a new parent") {
		t.Errorf("summary:\n%s", out)
	}

	roots, err := loader.LoadTree("tree.json")
	if err != nil {
		t.Fatal(err)
	}
	removed := filepath.Join(dir, "removed.json")
	if err := loader.SaveTree(removed, tree.RemoveItem(roots, "b")); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, "", "diff", "--json", "tree.json", "removed.json")
	if exitCode(err) != 2 {
		t.Fatalf("expected exit 2 for removals, got %v", err)
	}
	if !strings.Contains(out, `"removed"`) {
		t.Errorf("json output:\n%s", out)
	}
}

func TestExportCommand(t *testing.T) {
	setupWorkspace(t)
	out, err := runCLI(t, "", "export", "tree.json", "--kind", "outline")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "- A (a)\n  - B (b)\n") {
		t.Errorf("outline:\n%s", out)
	}

	if _, err := runCLI(t, "", "export", "tree.json", "--kind", "pdf"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestInitCommand(t *testing.T) {
	dir := setupWorkspace(t)
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "", "init")
	if err != nil {
		t.Fatal(err)
	}
	var res initResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Created || !res.Gitignore {
		t.Errorf("init = %+v", res)
	}
	cfg, err := config.Load(filepath.Join(dir, config.DirName, config.FileName))
	if err != nil {
		t.Fatalf("config not loadable: %v", err)
	}
	if cfg.Indentation != config.Default().Indentation {
		t.Errorf("indentation = %v", cfg.Indentation)
	}
	gi, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if !strings.Contains(string(gi), loader.StatePattern) {
		t.Errorf(".gitignore:\n%s", gi)
	}

	out, err = runCLI(t, "", "init")
	if err != nil {
		t.Fatal(err)
	}
	res = initResult{}
	_ = json.Unmarshal([]byte(out), &res)
	if res.Created {
		t.Error("second init must not overwrite the config")
	}
}

func TestRootFlagErrors(t *testing.T) {
	setupWorkspace(t)
	if _, err := runCLI(t, "", "--log-level", "loud", "count", "tree.json", "a"); err == nil {
		t.Error("expected invalid log level error")
	}
	if _, err := runCLI(t, "", "--format", "xml", "count", "tree.json", "a"); !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format, got %v", err)
	}
	if _, err := runCLI(t, "", "--config", "missing.yaml", "count", "tree.json", "a"); err == nil {
		t.Error("expected missing config error")
	}
}

func TestTUIRequiresTerminal(t *testing.T) {
	setupWorkspace(t)
	_, err := runCLI(t, "", "tui", "tree.json")
	if err == nil || !strings.Contains(err.Error(), "interactive terminal") {
		t.Errorf("expected terminal error, got %v", err)
	}
}
