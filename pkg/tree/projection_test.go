package tree

import (
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/vanderheijden86/dndtree/pkg/model"
)

const indent = 48

func TestGetProjectionUnresolvedKeys(t *testing.T) {
	flat := FlattenTree(sampleTree())

	tests := []struct {
		name   string
		active model.Key
		over   model.Key
	}{
		{"empty active", model.RootKey, "a"},
		{"empty over", "a", model.RootKey},
		{"missing active", "zz", "a"},
		{"missing over", "a", "zz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if p := GetProjection(flat, tt.active, tt.over, 0, indent, nil); p != nil {
				t.Errorf("expected nil projection, got %+v", p)
			}
		})
	}
}

func TestGetProjectionRejectsZeroIndentation(t *testing.T) {
	flat := FlattenTree(sampleTree())
	if p := GetProjection(flat, "e", "e", 10, 0, nil); p != nil {
		t.Errorf("expected nil projection, got %+v", p)
	}
}

// A(0), B(1, parent A), C(0). Dragging C in place with three levels of
// offset: previous item is B, so C can nest at most one level below B.
func TestGetProjectionClampsToMaxDepth(t *testing.T) {
	flat := FlattenTree([]model.TreeNode{n("A", n("B")), n("C")})

	p := GetProjection(flat, "C", "C", 3*indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", p.MaxDepth)
	}
	if p.MinDepth != 0 {
		t.Errorf("MinDepth = %d, want 0", p.MinDepth)
	}
	if p.Depth != 2 {
		t.Errorf("Depth = %d, want 2", p.Depth)
	}
	if p.ParentID != "B" {
		t.Errorf("ParentID = %q, want B", p.ParentID)
	}
	if p.Parent == nil || p.Parent.Key != "B" {
		t.Errorf("Parent = %+v, want B", p.Parent)
	}
	if !p.IsLeaf {
		t.Error("expected last position to be a leaf slot")
	}
}

func TestGetProjectionNoOffsetKeepsDepth(t *testing.T) {
	flat := FlattenTree([]model.TreeNode{n("A", n("B")), n("C")})

	p := GetProjection(flat, "C", "C", 0, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.Depth != 0 || p.ParentID != model.RootKey {
		t.Errorf("got depth=%d parent=%q, want 0 and root", p.Depth, p.ParentID)
	}
}

func TestGetProjectionSiblingInheritsParent(t *testing.T) {
	// Drag C right by one level: it becomes B's sibling under A.
	flat := FlattenTree([]model.TreeNode{n("A", n("B")), n("C")})

	p := GetProjection(flat, "C", "C", indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.Depth != 1 || p.ParentID != "A" {
		t.Errorf("got depth=%d parent=%q, want 1 under A", p.Depth, p.ParentID)
	}
	if p.Parent == nil || p.Parent.Key != "A" {
		t.Errorf("Parent = %+v, want A", p.Parent)
	}
}

func TestGetProjectionMinDepthFromNextItem(t *testing.T) {
	// X at root dragged over B (index 1): newOrder A, X, B, C.
	// B at depth 1 follows, so X cannot be shallower than 1 even though the
	// leftward drag resolved the container to root.
	flat := FlattenTree([]model.TreeNode{n("A", n("B"), n("C")), n("X")})

	p := GetProjection(flat, "X", "B", -5*indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.MinDepth != 1 || p.MaxDepth != 0 {
		t.Errorf("bounds = min %d max %d, want min 1 max 0", p.MinDepth, p.MaxDepth)
	}
	if p.Depth != 1 || p.ParentID != "A" {
		t.Errorf("got depth=%d parent=%q, want 1 under A", p.Depth, p.ParentID)
	}
	if p.IsLeaf {
		t.Error("B follows at the same depth; slot is not a leaf")
	}
}

func TestGetProjectionInvertedBoundsPreferNext(t *testing.T) {
	// Over c (index 2): newOrder a, b, e, c, d. Previous is b (depth 1),
	// c follows at depth 2. Dragging left to root resolves parent to root
	// (maxDepth 0) but minDepth 2 wins.
	flat := FlattenTree(sampleTree())

	p := GetProjection(flat, "e", "c", -indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.MaxDepth != 0 || p.MinDepth != 2 {
		t.Fatalf("bounds = [%d, %d], want min 2 > max 0", p.MinDepth, p.MaxDepth)
	}
	if p.Depth != 2 {
		t.Errorf("Depth = %d, want minDepth 2", p.Depth)
	}
	if p.ParentID != "b" {
		t.Errorf("ParentID = %q, want b", p.ParentID)
	}
}

func TestGetProjectionShallowerScansBackward(t *testing.T) {
	// a > b > c, then d at root. Drag d in place one level right: previous is
	// c at depth 2, projected depth 1 is shallower, so the parent comes from
	// the nearest earlier item at depth 1 (b, parent a).
	flat := FlattenTree([]model.TreeNode{n("a", n("b", n("c"))), n("d")})

	p := GetProjection(flat, "d", "d", indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.Depth != 1 {
		t.Fatalf("Depth = %d, want 1", p.Depth)
	}
	if p.ParentID != "a" {
		t.Errorf("ParentID = %q, want a", p.ParentID)
	}
	if p.Parent == nil || p.Parent.Key != "a" {
		t.Errorf("Parent = %+v, want a", p.Parent)
	}
}

func TestGetProjectionSkipsLeafContainers(t *testing.T) {
	// a > d(leaf); x at root. Nesting x under d must resolve to a instead.
	flat := FlattenTree([]model.TreeNode{n("a", leaf("d")), n("x")})

	p := GetProjection(flat, "x", "x", 2*indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.Parent == nil || p.Parent.Key != "a" {
		t.Fatalf("Parent = %+v, want a", p.Parent)
	}
	if p.Parent.IsLeaf {
		t.Error("projection parent must never be a leaf")
	}
	if p.MaxDepth != 1 || p.Depth != 1 {
		t.Errorf("depth=%d max=%d, want 1 and 1", p.Depth, p.MaxDepth)
	}
	if p.ParentID != "a" {
		t.Errorf("ParentID = %q, want a", p.ParentID)
	}
}

func TestGetProjectionLeafAtRootFallsBackToRoot(t *testing.T) {
	flat := FlattenTree([]model.TreeNode{leaf("l"), n("x")})

	p := GetProjection(flat, "x", "x", indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.Parent != nil {
		t.Errorf("expected root parent, got %+v", p.Parent)
	}
	if p.Depth != 0 || p.ParentID != model.RootKey {
		t.Errorf("depth=%d parent=%q, want root level", p.Depth, p.ParentID)
	}
}

func TestGetProjectionFirstPosition(t *testing.T) {
	flat := FlattenTree(sampleTree())

	p := GetProjection(flat, "e", "a", 4*indent, indent, nil)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.Depth != 0 || p.ParentID != model.RootKey || p.Parent != nil {
		t.Errorf("got %+v, want root level", p)
	}
}

func TestGetProjectionBrokenChain(t *testing.T) {
	flat := model.FlatList{
		{TreeNode: model.TreeNode{Key: "a"}, Depth: 0, ParentIndex: -1},
		{TreeNode: model.TreeNode{Key: "b"}, ParentID: "ghost", Depth: 1, ParentIndex: -1},
		{TreeNode: model.TreeNode{Key: "x"}, Depth: 0, ParentIndex: -1},
	}

	if p := GetProjection(flat, "x", "x", 0, indent, nil); p != nil {
		t.Errorf("expected nil for broken ancestor chain, got %+v", p)
	}
}

func TestGetProjectionRoundingMatchesHalfUp(t *testing.T) {
	tests := []struct {
		offset float64
		want   int
	}{
		{0, 0},
		{23, 0},
		{24, 1},
		{-24, 0},
		{-25, -1},
		{-72, -1},
		{72, 2},
	}
	for _, tt := range tests {
		if got := dragDepth(tt.offset, indent); got != tt.want {
			t.Errorf("dragDepth(%v) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestGetProjectionAllowDropRejects(t *testing.T) {
	flat := FlattenTree(sampleTree())
	var gotParent model.Key = "unset"
	policy := PolicyFuncs{
		Allow: func(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool {
			gotParent = parentID
			return false
		},
	}

	if p := GetProjection(flat, "e", "e", indent, indent, policy); p != nil {
		t.Errorf("expected rejection, got %+v", p)
	}
	if gotParent != "a" {
		t.Errorf("AllowDrop saw parentID %q, want a", gotParent)
	}
}

func TestGetProjectionDepthOverride(t *testing.T) {
	flat := FlattenTree(sampleTree())
	policy := PolicyFuncs{
		Depth: func(active, over model.FlatNode, parent *model.FlatNode, items model.FlatList) (int, bool) {
			return 7, true
		},
	}

	p := GetProjection(flat, "e", "e", 0, indent, policy)
	if p == nil {
		t.Fatal("expected a projection")
	}
	if p.Depth != 7 {
		t.Errorf("Depth = %d, want override 7", p.Depth)
	}
	// Deeper than previous item d: d becomes the parent key verbatim.
	if p.ParentID != "d" {
		t.Errorf("ParentID = %q, want d", p.ParentID)
	}
}

func TestGetProjectionOverrideNotUsedWhenDeclined(t *testing.T) {
	flat := FlattenTree(sampleTree())
	called := false
	policy := PolicyFuncs{
		Depth: func(model.FlatNode, model.FlatNode, *model.FlatNode, model.FlatList) (int, bool) {
			called = true
			return 99, false
		},
	}

	p := GetProjection(flat, "e", "e", 0, indent, policy)
	if !called {
		t.Error("expected OverrideDepth to be consulted")
	}
	if p == nil || p.Depth != 0 {
		t.Errorf("expected clamped depth 0, got %+v", p)
	}
}

func TestGetProjectionDoesNotMutateInput(t *testing.T) {
	flat := FlattenTree(sampleTree())
	before := keysOf(flat)

	_ = GetProjection(flat, "e", "b", indent, indent, nil)

	after := keysOf(flat)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("input reordered: %v -> %v", before, after)
		}
	}
}

func TestProjectionJSONWithParent(t *testing.T) {
	flat := FlattenTree([]model.TreeNode{n("A", n("B")), n("C")})
	p := GetProjection(flat, "C", "C", indent, indent, nil)
	if p == nil || p.Parent == nil {
		t.Fatalf("expected a projection under A, got %+v", p)
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "children") {
		t.Errorf("parent must be encoded without children: %s", data)
	}

	var got Projection
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ParentID != "A" || got.Depth != 1 {
		t.Errorf("unexpected projection: %s", data)
	}
	if got.Parent == nil || got.Parent.Key != "A" || got.Parent.Depth != 0 {
		t.Errorf("parent lost in encoding: %s", data)
	}
}
