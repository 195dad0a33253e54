package tree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vanderheijden86/dndtree/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Structural problems reported by Validate and ValidateTree.
var (
	ErrEmptyKey      = errors.New("empty key")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrMissingParent = errors.New("parent not found")
	ErrLeafParent    = errors.New("leaf node has children")
	ErrCycle         = errors.New("parent cycle")
	ErrDepthMismatch = errors.New("depth does not match ancestors")
	ErrNotContiguous = errors.New("subtree is not contiguous")
)

// Problem is a single invariant violation.
type Problem struct {
	Kind    error
	Key     model.Key
	Message string
}

func (p Problem) String() string {
	if p.Message == "" {
		return fmt.Sprintf("%s: %v", p.Key, p.Kind)
	}
	return fmt.Sprintf("%s: %v (%s)", p.Key, p.Kind, p.Message)
}

// ValidationError collects every problem found in one pass.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid tree: " + e.Problems[0].String()
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("invalid tree: %d problems: %s", len(e.Problems), strings.Join(parts, "; "))
}

// Unwrap exposes the problem kinds so errors.Is matches any of them.
func (e *ValidationError) Unwrap() []error {
	seen := make(map[error]bool)
	var out []error
	for _, p := range e.Problems {
		if !seen[p.Kind] {
			seen[p.Kind] = true
			out = append(out, p.Kind)
		}
	}
	return out
}

func (e *ValidationError) add(kind error, key model.Key, format string, args ...any) {
	e.Problems = append(e.Problems, Problem{Kind: kind, Key: key, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// ValidateTree checks a nested tree for empty and duplicate keys and for
// leaf nodes that declare children.
func ValidateTree(roots []model.TreeNode) error {
	verr := &ValidationError{}
	seen := make(map[model.Key]bool)

	var walk func(items []model.TreeNode, path string)
	walk = func(items []model.TreeNode, path string) {
		for i, item := range items {
			where := fmt.Sprintf("%s[%d]", path, i)
			if item.Key.IsRoot() {
				verr.add(ErrEmptyKey, item.Key, "at %s", where)
			} else if seen[item.Key] {
				verr.add(ErrDuplicateKey, item.Key, "at %s", where)
			}
			seen[item.Key] = true
			if item.IsLeaf && len(item.Children) > 0 {
				verr.add(ErrLeafParent, item.Key, "%d children", len(item.Children))
			}
			walk(item.Children, where+".children")
		}
	}
	walk(roots, "roots")

	return verr.orNil()
}

// Validate checks every structural invariant of a flat sequence: unique
// non-empty keys, resolvable container parents, no parent cycles, depth
// consistent with the ancestor chain, and pre-order contiguity of every
// subtree.
func Validate(flat model.FlatList) error {
	verr := &ValidationError{}

	first := make(map[model.Key]int, len(flat))
	for i, item := range flat {
		if item.Key.IsRoot() {
			verr.add(ErrEmptyKey, item.Key, "at index %d", i)
			continue
		}
		if j, dup := first[item.Key]; dup {
			verr.add(ErrDuplicateKey, item.Key, "at index %d and %d", j, i)
			continue
		}
		first[item.Key] = i
	}

	// parent[i] is the index of i's parent, -1 at root, -2 when unresolved.
	parent := make([]int, len(flat))
	g := simple.NewDirectedGraph()
	for i := range flat {
		g.AddNode(simple.Node(int64(i)))
	}
	for i, item := range flat {
		parent[i] = -1
		if item.ParentID.IsRoot() {
			continue
		}
		p, ok := first[item.ParentID]
		if !ok {
			parent[i] = -2
			verr.add(ErrMissingParent, item.Key, "parent %q", item.ParentID)
			continue
		}
		if p == i {
			parent[i] = -2
			verr.add(ErrCycle, item.Key, "node is its own parent")
			continue
		}
		parent[i] = p
		if flat[p].IsLeaf {
			verr.add(ErrLeafParent, item.Key, "parent %q is a leaf", item.ParentID)
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(p)), simple.Node(int64(i))))
	}

	inCycle := make(map[int]bool)
	if _, err := topo.Sort(g); err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			for _, component := range cycles {
				keys := make([]string, len(component))
				for j, n := range component {
					idx := int(n.ID())
					inCycle[idx] = true
					keys[j] = string(flat[idx].Key)
				}
				verr.add(ErrCycle, flat[component[0].ID()].Key, "through %s", strings.Join(keys, " -> "))
			}
		}
	}

	checkDepths(flat, parent, inCycle, verr)
	checkContiguity(flat, parent, inCycle, verr)

	return verr.orNil()
}

func checkDepths(flat model.FlatList, parent []int, inCycle map[int]bool, verr *ValidationError) {
	for i, item := range flat {
		if inCycle[i] || parent[i] == -2 {
			continue
		}
		want := 0
		if p := parent[i]; p >= 0 {
			if inCycle[p] || parent[p] == -2 {
				continue
			}
			want = flat[p].Depth + 1
		}
		if item.Depth != want {
			verr.add(ErrDepthMismatch, item.Key, "depth %d, want %d", item.Depth, want)
		}
	}
}

// checkContiguity replays the sequence against a stack of open ancestors.
// In a pre-order sequence every node's parent is on the stack when the
// node is reached.
func checkContiguity(flat model.FlatList, parent []int, inCycle map[int]bool, verr *ValidationError) {
	var stack []int
	for i, item := range flat {
		p := parent[i]
		if inCycle[i] || p == -2 {
			stack = stack[:0]
			continue
		}
		if p == -1 {
			stack = append(stack[:0], i)
			continue
		}
		for len(stack) > 0 && stack[len(stack)-1] != p {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			verr.add(ErrNotContiguous, item.Key, "parent %q does not precede it in its own run", item.ParentID)
		}
		stack = append(stack, i)
	}
}
