package policy

import (
	"testing"

	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

const indent = 48

// a > (b > c, d leaf), e
func sample() model.FlatList {
	return tree.FlattenTree([]model.TreeNode{
		{Key: "a", Children: []model.TreeNode{
			{Key: "b", Children: []model.TreeNode{{Key: "c"}}},
			{Key: "d", IsLeaf: true},
		}},
		{Key: "e"},
	})
}

func intPtr(v int) *int { return &v }

func TestFromRulesEmptyAllowsAll(t *testing.T) {
	if _, ok := FromRules(Rules{}).(tree.AllowAll); !ok {
		t.Errorf("expected AllowAll for empty rules")
	}
	if !(Rules{}).IsZero() {
		t.Error("expected zero rules")
	}
	if (Rules{Pinned: []string{"a"}}).IsZero() {
		t.Error("pinned rules reported as zero")
	}
}

func TestPolicies(t *testing.T) {
	tests := []struct {
		name       string
		rules      Rules
		active     model.Key
		over       model.Key
		offset     float64
		wantNil    bool
		wantDepth  int
		wantParent model.Key
	}{
		{"no rules nests", Rules{}, "e", "e", indent, false, 1, "a"},
		{"pinned active", Rules{Pinned: []string{"e"}}, "e", "e", 0, true, 0, ""},
		{"pinned other", Rules{Pinned: []string{"a"}}, "e", "e", indent, false, 1, "a"},
		{"root only forces root", Rules{RootOnly: []string{"e"}}, "e", "e", indent, false, 0, model.RootKey},
		{"root only lifts child", Rules{RootOnly: []string{"d"}}, "d", "d", 0, false, 0, model.RootKey},
		{"no children rejects", Rules{NoChildren: []string{"a"}}, "e", "e", indent, true, 0, ""},
		{"no children at root", Rules{NoChildren: []string{"a"}}, "e", "e", 0, false, 0, model.RootKey},
		{"max depth zero", Rules{MaxDepth: intPtr(0)}, "e", "e", indent, true, 0, ""},
		{"max depth one", Rules{MaxDepth: intPtr(1)}, "e", "e", indent, false, 1, "a"},
		{
			"chain root only beats no children",
			Rules{RootOnly: []string{"e"}, NoChildren: []string{"a"}},
			"e", "e", indent, false, 0, model.RootKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tree.GetProjection(sample(), tt.active, tt.over, tt.offset, indent, FromRules(tt.rules))
			if tt.wantNil {
				if p != nil {
					t.Errorf("expected rejection, got %+v", p)
				}
				return
			}
			if p == nil {
				t.Fatal("expected a projection")
			}
			if p.Depth != tt.wantDepth || p.ParentID != tt.wantParent {
				t.Errorf("got depth=%d parent=%q, want %d under %q", p.Depth, p.ParentID, tt.wantDepth, tt.wantParent)
			}
		})
	}
}

func TestChainFirstOverrideWins(t *testing.T) {
	c := Chain{
		tree.AllowAll{},
		tree.PolicyFuncs{Depth: func(model.FlatNode, model.FlatNode, *model.FlatNode, model.FlatList) (int, bool) { return 3, true }},
		tree.PolicyFuncs{Depth: func(model.FlatNode, model.FlatNode, *model.FlatNode, model.FlatList) (int, bool) { return 5, true }},
	}
	d, ok := c.OverrideDepth(model.FlatNode{}, model.FlatNode{}, nil, nil)
	if !ok || d != 3 {
		t.Errorf("got (%d, %v), want (3, true)", d, ok)
	}
	if _, ok := (Chain{}).OverrideDepth(model.FlatNode{}, model.FlatNode{}, nil, nil); ok {
		t.Error("empty chain should not override")
	}
	if !(Chain{}).AllowDrop(model.FlatNode{}, model.FlatNode{}, model.RootKey, nil, nil) {
		t.Error("empty chain should allow")
	}
}

func TestLandingDepth(t *testing.T) {
	flat := sample()
	tests := []struct {
		parent model.Key
		want   int
	}{
		{model.RootKey, 0},
		{"a", 1},
		{"b", 2},
		{"ghost", 0},
	}
	for _, tt := range tests {
		if got := landingDepth(tt.parent, flat); got != tt.want {
			t.Errorf("landingDepth(%q) = %d, want %d", tt.parent, got, tt.want)
		}
	}
}
