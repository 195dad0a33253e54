// Package tree converts between nested and flat tree representations and
// projects where a dragged item would land.
//
// Every function in this package is pure: inputs are never mutated and
// results never alias a slice the caller can still write through, so a
// consumer holding an older snapshot never observes a change.
package tree

import (
	"github.com/vanderheijden86/dndtree/pkg/model"
)

// FlattenTree returns the pre-order traversal of roots. Each emitted node
// carries its parent key, depth, sibling index and the position of its
// parent within the returned list.
func FlattenTree(roots []model.TreeNode) model.FlatList {
	out := make(model.FlatList, 0, countNodes(roots))
	return flatten(out, roots, model.RootKey, -1, 0)
}

func flatten(out model.FlatList, items []model.TreeNode, parentID model.Key, parentIndex, depth int) model.FlatList {
	for i, item := range items {
		out = append(out, model.FlatNode{
			TreeNode:    item,
			ParentID:    parentID,
			Depth:       depth,
			Index:       i,
			ParentIndex: parentIndex,
		})
		if len(item.Children) > 0 {
			self := len(out) - 1
			out = flatten(out, item.Children, item.Key, self, depth+1)
		}
	}
	return out
}

func countNodes(items []model.TreeNode) int {
	n := len(items)
	for _, item := range items {
		n += countNodes(item.Children)
	}
	return n
}

// pendingNode is a node being assembled by BuildTree.
type pendingNode struct {
	node     model.TreeNode
	children []int
}

// BuildTree reconstructs a nested tree from a flat sequence. Nodes are
// appended to their parent's children in the order they are encountered.
//
// A parent that has not been placed yet is looked up among all pending
// items, so a child may precede its parent (this happens while a dragged
// node is being reparented). A node whose parent key never resolves is
// dropped along with anything attached beneath it.
func BuildTree(flat model.FlatList) []model.TreeNode {
	if len(flat) == 0 {
		return nil
	}

	pending := make([]pendingNode, len(flat))
	first := make(map[model.Key]int, len(flat))
	for i := range flat {
		node := flat[i].TreeNode
		node.Children = nil
		pending[i] = pendingNode{node: node}
		if _, seen := first[flat[i].Key]; !seen {
			first[flat[i].Key] = i
		}
	}

	var rootChildren []int
	placed := make(map[model.Key]int, len(flat))

	for i := range flat {
		item := flat[i]

		parent := -1
		found := item.ParentID.IsRoot()
		if !found {
			if p, ok := placed[item.ParentID]; ok {
				parent, found = p, true
			} else if p, ok := first[item.ParentID]; ok {
				parent, found = p, true
			}
		}

		placed[item.Key] = i

		switch {
		case !found:
			// Orphan: silently dropped.
		case parent < 0:
			rootChildren = append(rootChildren, i)
		default:
			pending[parent].children = append(pending[parent].children, i)
		}
	}

	return materialize(pending, rootChildren)
}

// materialize converts the index-linked pending nodes reachable from ids
// into nested values. Every item has exactly one parent slot, so the part
// reachable from the root is acyclic.
func materialize(pending []pendingNode, ids []int) []model.TreeNode {
	if len(ids) == 0 {
		return nil
	}
	out := make([]model.TreeNode, len(ids))
	for i, id := range ids {
		node := pending[id].node
		node.Children = materialize(pending, pending[id].children)
		out[i] = node
	}
	return out
}

// ArrayMove returns a copy of list with the element at from moved to to.
// Out-of-range indices return an unmodified copy.
func ArrayMove[T any](list []T, from, to int) []T {
	out := make([]T, len(list))
	copy(out, list)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}

	moved := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = moved
	return out
}
