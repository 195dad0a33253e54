package tree

import (
	"github.com/vanderheijden86/dndtree/pkg/model"
)

// RemoveChildrenOf drops every descendant of the given keys from a flat
// list. The nodes named by keys themselves are kept.
//
// It relies on pre-order contiguity: a dropped node that declares children
// adds its own key to the exclusion set, so its descendants, which follow
// it, are dropped on the same pass.
func RemoveChildrenOf(flat model.FlatList, keys []model.Key) model.FlatList {
	excluded := make(map[model.Key]bool, len(keys))
	for _, k := range keys {
		excluded[k] = true
	}

	out := make(model.FlatList, 0, len(flat))
	for _, item := range flat {
		if !item.ParentID.IsRoot() && excluded[item.ParentID] {
			if item.HasChildren() {
				excluded[item.Key] = true
			}
			continue
		}
		out = append(out, item)
	}
	return out.Relink()
}

// RemoveItem returns a copy of roots without any node keyed key, and
// therefore without that node's subtree. Subtrees that do not contain key
// are shared with the input; every node on a path to a removed node is a
// new value.
func RemoveItem(roots []model.TreeNode, key model.Key) []model.TreeNode {
	out, _ := removeItem(roots, key)
	return out
}

func removeItem(items []model.TreeNode, key model.Key) ([]model.TreeNode, bool) {
	var out []model.TreeNode
	changed := false

	for i, item := range items {
		if item.Key == key {
			if !changed {
				out = append(make([]model.TreeNode, 0, len(items)), items[:i]...)
				changed = true
			}
			continue
		}

		if len(item.Children) > 0 {
			if children, ok := removeItem(item.Children, key); ok {
				if len(children) == 0 {
					children = nil
				}
				item.Children = children
				if !changed {
					out = append(make([]model.TreeNode, 0, len(items)), items[:i]...)
					changed = true
				}
			}
		}

		if changed {
			out = append(out, item)
		}
	}

	if !changed {
		return items, false
	}
	return out, true
}

// FindItemDeep returns the first node keyed key in a depth-first search.
func FindItemDeep(roots []model.TreeNode, key model.Key) (model.TreeNode, bool) {
	for _, item := range roots {
		if item.Key == key {
			return item, true
		}
		if len(item.Children) > 0 {
			if found, ok := FindItemDeep(item.Children, key); ok {
				return found, true
			}
		}
	}
	return model.TreeNode{}, false
}

// GetChildCount reports how many nodes move together with key when it is
// dragged, not counting key itself.
//
// The count follows the first child that has children of its own and stops
// there: siblings after it are not counted. For a node whose children are
// all leaves, or whose subtree is a single chain, this equals the number of
// descendants.
func GetChildCount(roots []model.TreeNode, key model.Key) int {
	item, ok := FindItemDeep(roots, key)
	if !ok || item.Children == nil {
		return 0
	}
	return countChildren(item.Children, 0)
}

func countChildren(items []model.TreeNode, count int) int {
	for _, item := range items {
		if len(item.Children) > 0 {
			return countChildren(item.Children, count+1)
		}
		count++
	}
	return count
}
