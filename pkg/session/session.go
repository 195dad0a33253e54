// Package session drives a drag interaction over a committed tree.
//
// A Controller owns the committed tree and the set of expanded keys. Each
// pointer event takes the current DragSession value and returns a new one,
// so callers never observe a half-updated drag.
package session

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

// State is the phase of a drag.
type State int

const (
	Idle State = iota
	Dragging
	Committed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DragSession is a snapshot of one drag. It is a value; every transition
// returns a new one.
type DragSession struct {
	State      State
	ActiveKey  model.Key
	OverKey    model.Key
	Offset     float64
	Projection *tree.Projection
}

// Dragging reports whether the session is still in flight.
func (s DragSession) Dragging() bool {
	return s.State == Dragging
}

// Op names the structural change carried by a CommitEvent.
type Op string

const (
	OpMove   Op = "move"
	OpRemove Op = "remove"
)

// CommitEvent is delivered to OnCommit hooks after the committed tree
// changes.
type CommitEvent struct {
	Op        Op
	ActiveKey model.Key
	OverKey   model.Key
	Roots     []model.TreeNode
	Flat      model.FlatList
}

// Result reports the outcome of End.
type Result struct {
	Committed bool
	Roots     []model.TreeNode
}

// Options configures a Controller.
type Options struct {
	// Indentation is the width of one depth level in offset units.
	Indentation float64
	Policy      tree.DropPolicy
	Expanded    []model.Key
	ExpandAll   bool
	Logger      *logrus.Entry
}

// Controller owns the committed tree. It is safe for concurrent use.
type Controller struct {
	mu          sync.RWMutex
	roots       []model.TreeNode
	expanded    map[model.Key]bool
	indentation float64
	policy      tree.DropPolicy
	hooks       []func(CommitEvent)
	logger      *logrus.Entry
}

// DefaultIndentation is used when Options.Indentation is not positive.
const DefaultIndentation = 48

// New creates a Controller over roots.
func New(roots []model.TreeNode, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	policy := opts.Policy
	if policy == nil {
		policy = tree.AllowAll{}
	}
	indentation := opts.Indentation
	if indentation <= 0 {
		indentation = DefaultIndentation
	}
	c := &Controller{
		roots:       roots,
		expanded:    make(map[model.Key]bool, len(opts.Expanded)),
		indentation: indentation,
		policy:      policy,
		logger:      logger.WithField("component", "session"),
	}
	for _, k := range opts.Expanded {
		c.expanded[k] = true
	}
	if opts.ExpandAll {
		c.expandAllLocked()
	}
	return c
}

// OnCommit registers fn to run after every committed change. Hooks run
// outside the controller's lock, in registration order.
func (c *Controller) OnCommit(fn func(CommitEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Roots returns the committed tree. The result must not be modified.
func (c *Controller) Roots() []model.TreeNode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roots
}

// SetRoots replaces the committed tree, e.g. after a reload. Expanded keys
// are kept so that reappearing nodes stay open.
func (c *Controller) SetRoots(roots []model.TreeNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roots = roots
}

// Indentation returns the width of one depth level.
func (c *Controller) Indentation() float64 {
	return c.indentation
}

// Visible returns the flat list as shown during s: descendants of collapsed
// nodes and of the dragged node are hidden.
func (c *Controller) Visible(s DragSession) model.FlatList {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visibleLocked(s)
}

func (c *Controller) visibleLocked(s DragSession) model.FlatList {
	flat := tree.FlattenTree(c.roots)
	hidden := make([]model.Key, 0, len(flat)+1)
	if s.Dragging() && !s.ActiveKey.IsRoot() {
		hidden = append(hidden, s.ActiveKey)
	}
	for _, item := range flat {
		if !c.expanded[item.Key] {
			hidden = append(hidden, item.Key)
		}
	}
	return tree.RemoveChildrenOf(flat, hidden)
}

func (c *Controller) project(s DragSession) *tree.Projection {
	return tree.GetProjection(c.visibleLocked(s), s.ActiveKey, s.OverKey, s.Offset, c.indentation, c.policy)
}

// Start begins dragging key. It returns an Idle session when key is not
// visible.
func (c *Controller) Start(key model.Key) DragSession {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if key.IsRoot() || c.visibleLocked(DragSession{}).IndexOf(key) < 0 {
		return DragSession{}
	}
	s := DragSession{State: Dragging, ActiveKey: key, OverKey: key}
	s.Projection = c.project(s)
	c.logger.WithField("active", key).Debug("Drag started")
	return s
}

// Move updates the horizontal offset of s.
func (c *Controller) Move(s DragSession, offset float64) DragSession {
	if !s.Dragging() {
		return s
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	s.Offset = offset
	s.Projection = c.project(s)
	return s
}

// Over updates the item s is hovering. RootKey means the pointer left the
// list, which leaves no valid drop.
func (c *Controller) Over(s DragSession, key model.Key) DragSession {
	if !s.Dragging() {
		return s
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	s.OverKey = key
	s.Projection = c.project(s)
	return s
}

// Cancel abandons s.
func (c *Controller) Cancel(s DragSession) DragSession {
	if !s.Dragging() {
		return s
	}
	c.logger.WithField("active", s.ActiveKey).Debug("Drag cancelled")
	return DragSession{State: Cancelled, ActiveKey: s.ActiveKey, OverKey: s.OverKey}
}

// End drops s. The projection is recomputed against the committed tree and
// must match the one s carries, so a session built by hand or left over from
// an older tree cannot commit a target the user never saw. The tree is
// committed only when that projection exists and the policy still accepts
// it; otherwise the session ends Cancelled and the tree is unchanged.
func (c *Controller) End(s DragSession) (DragSession, Result) {
	if !s.Dragging() {
		return s, Result{Roots: c.Roots()}
	}
	done := DragSession{State: Cancelled, ActiveKey: s.ActiveKey, OverKey: s.OverKey}

	c.mu.Lock()
	if s.Projection == nil || s.OverKey.IsRoot() {
		roots := c.roots
		c.mu.Unlock()
		c.logger.WithField("active", s.ActiveKey).Debug("Drop without a valid target")
		return done, Result{Roots: roots}
	}
	p := c.project(s)
	if !sameTarget(p, s.Projection) {
		roots := c.roots
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{
			"active": s.ActiveKey,
			"over":   s.OverKey,
			"parent": s.Projection.ParentID,
		}).Debug("Drop target is stale")
		return done, Result{Roots: roots}
	}

	full := tree.FlattenTree(c.roots)
	active, okActive := full.Find(s.ActiveKey)
	over, okOver := full.Find(s.OverKey)
	if !okActive || !okOver || !c.policy.AllowDrop(active, over, p.ParentID, p.Parent, c.visibleLocked(s)) {
		roots := c.roots
		c.mu.Unlock()
		c.logger.WithFields(logrus.Fields{
			"active": s.ActiveKey,
			"over":   s.OverKey,
			"parent": p.ParentID,
		}).Debug("Drop rejected")
		return done, Result{Roots: roots}
	}

	roots, ok := tree.Commit(c.roots, s.ActiveKey, s.OverKey, p)
	if !ok {
		c.mu.Unlock()
		return done, Result{Roots: roots}
	}
	c.roots = roots
	hooks := append([]func(CommitEvent){}, c.hooks...)
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"active": s.ActiveKey,
		"over":   s.OverKey,
		"parent": p.ParentID,
		"depth":  p.Depth,
	}).Debug("Drop committed")

	c.fire(hooks, CommitEvent{
		Op:        OpMove,
		ActiveKey: s.ActiveKey,
		OverKey:   s.OverKey,
		Roots:     roots,
		Flat:      tree.FlattenTree(roots),
	})

	done.State = Committed
	done.Projection = p
	return done, Result{Committed: true, Roots: roots}
}

// sameTarget reports whether live places the item where stored does.
func sameTarget(live, stored *tree.Projection) bool {
	if live == nil || stored == nil {
		return false
	}
	return live.Depth == stored.Depth && live.ParentID == stored.ParentID
}

// Remove deletes key and its subtree. It reports whether anything changed.
func (c *Controller) Remove(key model.Key) bool {
	c.mu.Lock()
	if _, ok := tree.FindItemDeep(c.roots, key); !ok {
		c.mu.Unlock()
		return false
	}
	roots := tree.RemoveItem(c.roots, key)
	c.roots = roots
	delete(c.expanded, key)
	hooks := append([]func(CommitEvent){}, c.hooks...)
	c.mu.Unlock()

	c.logger.WithField("key", key).Debug("Item removed")
	c.fire(hooks, CommitEvent{Op: OpRemove, ActiveKey: key, Roots: roots, Flat: tree.FlattenTree(roots)})
	return true
}

func (c *Controller) fire(hooks []func(CommitEvent), ev CommitEvent) {
	for _, fn := range hooks {
		fn(ev)
	}
}

// ToggleExpanded flips key between expanded and collapsed and returns the
// new state.
func (c *Controller) ToggleExpanded(key model.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expanded[key] {
		delete(c.expanded, key)
		return false
	}
	c.expanded[key] = true
	return true
}

// SetExpanded sets the expanded state of key.
func (c *Controller) SetExpanded(key model.Key, expanded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if expanded {
		c.expanded[key] = true
	} else {
		delete(c.expanded, key)
	}
}

// IsExpanded reports whether key is expanded.
func (c *Controller) IsExpanded(key model.Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expanded[key]
}

// ExpandAll expands every node that has children.
func (c *Controller) ExpandAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expandAllLocked()
}

func (c *Controller) expandAllLocked() {
	for _, item := range tree.FlattenTree(c.roots) {
		if item.HasChildren() {
			c.expanded[item.Key] = true
		}
	}
}

// CollapseAll collapses every node.
func (c *Controller) CollapseAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = make(map[model.Key]bool)
}

// Expanded returns the expanded keys in sorted order.
func (c *Controller) Expanded() []model.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]model.Key, 0, len(c.expanded))
	for k := range c.expanded {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ChildCount returns tree.GetChildCount for key in the committed tree.
func (c *Controller) ChildCount(key model.Key) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return tree.GetChildCount(c.roots, key)
}

// DragCount is the number shown on the drag overlay: the item itself plus
// its child count.
func (c *Controller) DragCount(key model.Key) int {
	return c.ChildCount(key) + 1
}
