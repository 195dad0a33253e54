package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Key identifies a node. Keys are unique across a whole tree.
type Key string

// RootKey is the parent sentinel for root-level nodes. It is never a valid
// node key.
const RootKey Key = ""

// IsRoot reports whether k is the root sentinel.
func (k Key) IsRoot() bool {
	return k == RootKey
}

// TreeNode is a node in the nested representation of a tree.
type TreeNode struct {
	Key   Key    `json:"key" yaml:"key"`
	Title string `json:"title" yaml:"title"`

	// IsLeaf marks a node that may never acquire children, whether or not
	// Children is currently empty.
	IsLeaf bool `json:"isLeaf,omitempty" yaml:"isLeaf,omitempty"`

	Children []TreeNode `json:"children,omitempty" yaml:"children,omitempty"`

	// Payload carries caller fields through every transform untouched.
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// HasChildren reports whether the node currently declares any children.
func (n TreeNode) HasChildren() bool {
	return len(n.Children) > 0
}

// CanHaveChildren reports whether the node is container-capable.
func (n TreeNode) CanHaveChildren() bool {
	return !n.IsLeaf
}

// Clone creates a deep copy of the node and its subtree. Payload maps are
// copied one level deep; their values are shared.
func (n TreeNode) Clone() TreeNode {
	clone := n

	if n.Payload != nil {
		clone.Payload = make(map[string]any, len(n.Payload))
		for k, v := range n.Payload {
			clone.Payload[k] = v
		}
	}

	if n.Children != nil {
		clone.Children = make([]TreeNode, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}

	return clone
}

// Validate checks the node's own fields. It does not descend into children.
func (n *TreeNode) Validate() error {
	if n.Key.IsRoot() {
		return fmt.Errorf("node key cannot be empty")
	}
	if n.IsLeaf && len(n.Children) > 0 {
		return fmt.Errorf("leaf node %q cannot have children", n.Key)
	}
	return nil
}

// FlatNode is a TreeNode projected into a flat pre-order sequence.
type FlatNode struct {
	TreeNode `yaml:",inline"`

	// ParentID is the owning node's key, or RootKey at root level.
	ParentID Key `json:"parentId" yaml:"parentId"`

	// Depth is the number of ancestors: 0 for root-level nodes.
	Depth int `json:"depth" yaml:"depth"`

	// Index is the sibling position at flatten time. It is informational and
	// not an ordering key for the sequence.
	Index int `json:"index" yaml:"index"`

	// ParentIndex points at the parent inside the same FlatList, -1 at root.
	// It is a navigation shortcut only and is recomputed whenever the list is
	// rebuilt or filtered.
	ParentIndex int `json:"-" yaml:"-"`
}

// flatNodeWire is the encoded form of a FlatNode. Children are left out:
// the sequence and the parent keys already describe the structure.
type flatNodeWire struct {
	Key      Key            `json:"key" yaml:"key"`
	Title    string         `json:"title" yaml:"title"`
	IsLeaf   bool           `json:"isLeaf,omitempty" yaml:"isLeaf,omitempty"`
	Payload  map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	ParentID Key            `json:"parentId" yaml:"parentId"`
	Depth    int            `json:"depth" yaml:"depth"`
	Index    int            `json:"index" yaml:"index"`
}

func (n FlatNode) wire() flatNodeWire {
	return flatNodeWire{
		Key:      n.Key,
		Title:    n.Title,
		IsLeaf:   n.IsLeaf,
		Payload:  n.Payload,
		ParentID: n.ParentID,
		Depth:    n.Depth,
		Index:    n.Index,
	}
}

// MarshalJSON encodes the node without its nested children.
func (n FlatNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.wire())
}

// UnmarshalJSON decodes a flat node. ParentIndex is left at -1 until the
// list is relinked.
func (n *FlatNode) UnmarshalJSON(data []byte) error {
	var w flatNodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*n = FlatNode{
		TreeNode: TreeNode{
			Key:     w.Key,
			Title:   w.Title,
			IsLeaf:  w.IsLeaf,
			Payload: w.Payload,
		},
		ParentID:    w.ParentID,
		Depth:       w.Depth,
		Index:       w.Index,
		ParentIndex: -1,
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (n FlatNode) MarshalYAML() (any, error) {
	return n.wire(), nil
}

// IsRootLevel reports whether the node sits at the top of the tree.
func (n FlatNode) IsRootLevel() bool {
	return n.ParentID.IsRoot()
}

// FlatList is an ordered flat sequence of nodes.
type FlatList []FlatNode

// IndexOf returns the position of the first node with the given key, or -1.
func (l FlatList) IndexOf(key Key) int {
	if key.IsRoot() {
		return -1
	}
	for i := range l {
		if l[i].Key == key {
			return i
		}
	}
	return -1
}

// Find returns the first node with the given key.
func (l FlatList) Find(key Key) (FlatNode, bool) {
	i := l.IndexOf(key)
	if i < 0 {
		return FlatNode{}, false
	}
	return l[i], true
}

// ParentOf resolves the parent of node n. It returns (-1, true) for a
// root-level node and (-1, false) when the parent key is not in the list.
// A stale ParentIndex is detected by comparing keys and corrected by a
// key search.
func (l FlatList) ParentOf(n FlatNode) (int, bool) {
	if n.ParentID.IsRoot() {
		return -1, true
	}
	if n.ParentIndex >= 0 && n.ParentIndex < len(l) && l[n.ParentIndex].Key == n.ParentID {
		return n.ParentIndex, true
	}
	i := l.IndexOf(n.ParentID)
	return i, i >= 0
}

// Keys returns the node keys in sequence order.
func (l FlatList) Keys() []Key {
	keys := make([]Key, len(l))
	for i := range l {
		keys[i] = l[i].Key
	}
	return keys
}

// Relink returns a copy of the list with every ParentIndex recomputed from
// ParentID. Unresolvable parents get -1.
func (l FlatList) Relink() FlatList {
	out := make(FlatList, len(l))
	copy(out, l)

	pos := make(map[Key]int, len(out))
	for i := range out {
		if _, seen := pos[out[i].Key]; !seen {
			pos[out[i].Key] = i
		}
	}
	for i := range out {
		out[i].ParentIndex = -1
		if out[i].ParentID.IsRoot() {
			continue
		}
		if p, ok := pos[out[i].ParentID]; ok {
			out[i].ParentIndex = p
		}
	}
	return out
}
