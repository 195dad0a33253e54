// Package policy provides configurable drop policies for the projection
// engine. Each policy covers one rule; Chain combines them.
package policy

import (
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

// Rules is the serialisable form of a policy set, as found in config files.
type Rules struct {
	// MaxDepth caps the depth an item may land at. Nil means unlimited.
	MaxDepth *int `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`

	// Pinned keys can not be moved at all.
	Pinned []string `yaml:"pinned,omitempty" json:"pinned,omitempty"`

	// RootOnly keys always land at depth 0.
	RootOnly []string `yaml:"root_only,omitempty" json:"root_only,omitempty"`

	// NoChildren keys never receive new children, even though they are
	// containers in the data.
	NoChildren []string `yaml:"no_children,omitempty" json:"no_children,omitempty"`
}

// IsZero reports whether the rules constrain nothing.
func (r Rules) IsZero() bool {
	return r.MaxDepth == nil && len(r.Pinned) == 0 && len(r.RootOnly) == 0 && len(r.NoChildren) == 0
}

// FromRules builds the policy described by r.
func FromRules(r Rules) tree.DropPolicy {
	var chain Chain
	if len(r.Pinned) > 0 {
		chain = append(chain, Pinned{Keys: keySet(r.Pinned)})
	}
	if len(r.RootOnly) > 0 {
		chain = append(chain, RootOnly{Keys: keySet(r.RootOnly)})
	}
	if len(r.NoChildren) > 0 {
		chain = append(chain, NoChildren{Keys: keySet(r.NoChildren)})
	}
	if r.MaxDepth != nil {
		chain = append(chain, MaxDepth{Limit: *r.MaxDepth})
	}
	if len(chain) == 0 {
		return tree.AllowAll{}
	}
	return chain
}

func keySet(keys []string) map[model.Key]bool {
	out := make(map[model.Key]bool, len(keys))
	for _, k := range keys {
		out[model.Key(k)] = true
	}
	return out
}

// Chain allows a drop only when every member allows it. The first member
// that overrides depth wins.
type Chain []tree.DropPolicy

func (c Chain) AllowDrop(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool {
	for _, p := range c {
		if !p.AllowDrop(active, over, parentID, parent, items) {
			return false
		}
	}
	return true
}

func (c Chain) OverrideDepth(active, over model.FlatNode, parent *model.FlatNode, items model.FlatList) (int, bool) {
	for _, p := range c {
		if depth, ok := p.OverrideDepth(active, over, parent, items); ok {
			return depth, true
		}
	}
	return 0, false
}

// MaxDepth rejects drops that would land deeper than Limit.
type MaxDepth struct {
	tree.AllowAll
	Limit int
}

func (m MaxDepth) AllowDrop(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool {
	return landingDepth(parentID, items) <= m.Limit
}

// landingDepth is one below the resolved parent, or 0 at root. A parent
// missing from items counts as root.
func landingDepth(parentID model.Key, items model.FlatList) int {
	if parentID.IsRoot() {
		return 0
	}
	p, ok := items.Find(parentID)
	if !ok {
		return 0
	}
	return p.Depth + 1
}

// Pinned keeps the listed items where they are.
type Pinned struct {
	tree.AllowAll
	Keys map[model.Key]bool
}

func (p Pinned) AllowDrop(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool {
	return !p.Keys[active.Key]
}

// RootOnly forces the listed items to depth 0.
type RootOnly struct {
	Keys map[model.Key]bool
}

func (r RootOnly) AllowDrop(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool {
	return !r.Keys[active.Key] || parentID.IsRoot()
}

func (r RootOnly) OverrideDepth(active, over model.FlatNode, parent *model.FlatNode, items model.FlatList) (int, bool) {
	if r.Keys[active.Key] {
		return 0, true
	}
	return 0, false
}

// NoChildren refuses to nest anything under the listed items.
type NoChildren struct {
	tree.AllowAll
	Keys map[model.Key]bool
}

func (n NoChildren) AllowDrop(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool {
	return parentID.IsRoot() || !n.Keys[parentID]
}
