package tree

import (
	"github.com/vanderheijden86/dndtree/pkg/model"
)

// Commit applies a projection to the committed tree: the active node is
// stamped with the projected depth and parent, moved to the over node's
// position in the unfiltered flat sequence, and the tree is rebuilt.
//
// It returns roots unchanged and false when p is nil or a key does not
// resolve.
func Commit(roots []model.TreeNode, activeKey, overKey model.Key, p *Projection) ([]model.TreeNode, bool) {
	if p == nil {
		return roots, false
	}

	flat := FlattenTree(roots)
	activeIndex := flat.IndexOf(activeKey)
	overIndex := flat.IndexOf(overKey)
	if activeIndex < 0 || overIndex < 0 {
		return roots, false
	}

	flat[activeIndex].Depth = p.Depth
	flat[activeIndex].ParentID = p.ParentID

	sorted := ArrayMove(flat, activeIndex, overIndex)
	return BuildTree(sorted), true
}
