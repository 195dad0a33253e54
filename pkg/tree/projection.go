package tree

import (
	"math"

	"github.com/vanderheijden86/dndtree/pkg/model"
)

// Projection is where a dragged item would land if dropped now.
type Projection struct {
	Depth    int `json:"depth"`
	MaxDepth int `json:"maxDepth"`
	MinDepth int `json:"minDepth"`

	// ParentID is the key of the node the item would become a child of, or
	// RootKey.
	ParentID model.Key `json:"parentId"`

	// Parent is the nearest container-capable ancestor resolved from the
	// item above the drop position. Nil means root.
	Parent *model.FlatNode `json:"parent,omitempty"`

	// IsLeaf is true when nothing after the drop position sits at or below
	// Depth, so the slot has no children beneath it in the new order.
	IsLeaf bool `json:"isLeaf"`
}

// DropPolicy lets the host application constrain drops without touching the
// projection algorithm.
type DropPolicy interface {
	// AllowDrop reports whether active may land under parentID. Returning
	// false rejects the whole projection.
	AllowDrop(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool

	// OverrideDepth returns a depth to use verbatim, bypassing clamping. The
	// caller is responsible for its validity.
	OverrideDepth(active, over model.FlatNode, parent *model.FlatNode, items model.FlatList) (int, bool)
}

// AllowAll is a DropPolicy that accepts every drop and never overrides
// depth.
type AllowAll struct{}

func (AllowAll) AllowDrop(model.FlatNode, model.FlatNode, model.Key, *model.FlatNode, model.FlatList) bool {
	return true
}

func (AllowAll) OverrideDepth(model.FlatNode, model.FlatNode, *model.FlatNode, model.FlatList) (int, bool) {
	return 0, false
}

// PolicyFuncs adapts plain functions to DropPolicy. Nil fields behave like
// AllowAll.
type PolicyFuncs struct {
	Allow func(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool
	Depth func(active, over model.FlatNode, parent *model.FlatNode, items model.FlatList) (int, bool)
}

func (p PolicyFuncs) AllowDrop(active, over model.FlatNode, parentID model.Key, parent *model.FlatNode, items model.FlatList) bool {
	if p.Allow == nil {
		return true
	}
	return p.Allow(active, over, parentID, parent, items)
}

func (p PolicyFuncs) OverrideDepth(active, over model.FlatNode, parent *model.FlatNode, items model.FlatList) (int, bool) {
	if p.Depth == nil {
		return 0, false
	}
	return p.Depth(active, over, parent, items)
}

// dragDepth converts a horizontal offset into whole levels, rounding halves
// toward positive infinity.
func dragDepth(offset, indentation float64) int {
	return int(math.Floor(offset/indentation + 0.5))
}

// GetProjection computes where activeKey would land when dropped over
// overKey with the pointer offset horizontally by offset. Indentation is the
// width of one depth level in the same unit as offset.
//
// A nil result means there is no valid drop here: a key did not resolve,
// the ancestor chain was broken, or the policy rejected the drop.
func GetProjection(items model.FlatList, activeKey, overKey model.Key, offset, indentation float64, policy DropPolicy) *Projection {
	if activeKey.IsRoot() || overKey.IsRoot() || indentation <= 0 {
		return nil
	}
	if policy == nil {
		policy = AllowAll{}
	}

	overIndex := items.IndexOf(overKey)
	activeIndex := items.IndexOf(activeKey)
	if overIndex < 0 || activeIndex < 0 {
		return nil
	}
	over := items[overIndex]
	active := items[activeIndex]

	newOrder := ArrayMove(items, activeIndex, overIndex)
	var previous, next *model.FlatNode
	if overIndex > 0 {
		previous = &newOrder[overIndex-1]
	}
	if overIndex+1 < len(newOrder) {
		next = &newOrder[overIndex+1]
	}

	projected := active.Depth + dragDepth(offset, indentation)
	depth := projected

	// Ancestor walks use ParentIndex, which refers to positions in items,
	// not newOrder.
	directParent, ok := findParentWithDepth(items, projected-1, previous)
	if !ok {
		return nil
	}
	parentIndex, ok := findParentWhichCanHaveChildren(items, directParent)
	if !ok {
		return nil
	}
	var parent *model.FlatNode
	if parentIndex >= 0 {
		p := items[parentIndex]
		if p.IsLeaf {
			return nil
		}
		parent = &p
	}

	maxDepth := 0
	if parent != nil {
		maxDepth = parent.Depth + 1
	}
	minDepth := 0
	if next != nil {
		minDepth = next.Depth
	}

	if custom, ok := policy.OverrideDepth(active, over, parent, items); ok {
		depth = custom
	} else {
		switch {
		case minDepth > maxDepth:
			depth = minDepth
		case depth >= maxDepth:
			depth = maxDepth
		case depth < minDepth:
			depth = minDepth
		}
	}

	nextDepth := -1
	if next != nil {
		nextDepth = next.Depth
	}

	parentID := resolveParentID(newOrder, overIndex, depth, previous)

	if !policy.AllowDrop(active, over, parentID, parent, items) {
		return nil
	}

	return &Projection{
		Depth:    depth,
		MaxDepth: maxDepth,
		MinDepth: minDepth,
		ParentID: parentID,
		Parent:   parent,
		IsLeaf:   nextDepth < depth,
	}
}

// findParentWithDepth walks up from previous until it reaches a node no
// deeper than depth. It returns -1 when previous is nil or the walk runs
// past the root, and false when a parent link is broken.
func findParentWithDepth(items model.FlatList, depth int, previous *model.FlatNode) (int, bool) {
	if previous == nil {
		return -1, true
	}
	idx := items.IndexOf(previous.Key)
	if idx < 0 {
		return -1, false
	}
	for depth < items[idx].Depth {
		p, ok := items.ParentOf(items[idx])
		if !ok {
			return -1, false
		}
		if p < 0 {
			return -1, true
		}
		idx = p
	}
	return idx, true
}

// findParentWhichCanHaveChildren skips leaf ancestors starting at idx. -1 is
// root.
func findParentWhichCanHaveChildren(items model.FlatList, idx int) (int, bool) {
	for idx >= 0 {
		if items[idx].CanHaveChildren() {
			return idx, true
		}
		p, ok := items.ParentOf(items[idx])
		if !ok {
			return -1, false
		}
		idx = p
	}
	return -1, true
}

func resolveParentID(newOrder model.FlatList, overIndex, depth int, previous *model.FlatNode) model.Key {
	if depth == 0 || previous == nil {
		return model.RootKey
	}
	if depth == previous.Depth {
		return previous.ParentID
	}
	if depth > previous.Depth {
		return previous.Key
	}
	for i := overIndex - 1; i >= 0; i-- {
		if newOrder[i].Depth == depth {
			return newOrder[i].ParentID
		}
	}
	return model.RootKey
}
