// tree.go - Interactive tree view with keyboard and mouse drag-and-drop.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
	"github.com/vanderheijden86/dndtree/pkg/loader"
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/session"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

// headerLines is the number of rows above the tree.
const headerLines = 1

// Options configures a TreeModel.
type Options struct {
	// Path is the tree file used by save and reload. Empty disables both.
	Path string

	// StateDir holds tree-state.json. Empty disables persistence.
	StateDir string

	// Columns is the width of one depth level in terminal cells.
	Columns int

	// AutoSave writes the tree file after every committed change.
	AutoSave bool

	// Changes signals that Path changed on disk.
	Changes <-chan struct{}

	Logger *logrus.Entry
}

type fileChangedMsg struct{}

type reloadedMsg struct {
	roots []model.TreeNode
	err   error
}

type savedMsg struct {
	path string
	err  error
}

// TreeModel is the bubbletea model for the tree view.
type TreeModel struct {
	ctrl   *session.Controller
	theme  Theme
	keys   KeyMap
	help   help.Model
	opts   Options
	logger *logrus.Entry

	flat           model.FlatList // visible rows in committed order
	cursor         int
	viewportOffset int
	width          int
	height         int

	drag      session.DragSession
	grabX     int
	mouseDrag bool

	showHelp bool
	status   string
}

// NewTreeModel creates a tree view over ctrl. Persisted expand state is
// applied when present.
func NewTreeModel(ctrl *session.Controller, theme Theme, opts Options) TreeModel {
	if opts.Columns <= 0 {
		opts.Columns = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	t := TreeModel{
		ctrl:   ctrl,
		theme:  theme,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		opts:   opts,
		logger: logger.WithField("component", "ui"),
	}
	t.loadState()
	t.refresh()
	return t
}

// Init implements tea.Model.
func (t TreeModel) Init() tea.Cmd {
	return waitForChange(t.opts.Changes)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return fileChangedMsg{}
	}
}

// Update implements tea.Model.
func (t TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.SetSize(msg.Width, msg.Height)

	case fileChangedMsg:
		return t, tea.Batch(t.reloadCmd(), waitForChange(t.opts.Changes))

	case reloadedMsg:
		if msg.err != nil {
			t.logger.WithError(msg.err).Warn("Reload failed")
			t.status = "reload failed: " + msg.err.Error()
			return t, nil
		}
		if t.drag.Dragging() {
			t.ctrl.Cancel(t.drag)
			t.drag = session.DragSession{}
			t.mouseDrag = false
		}
		selected := t.SelectedKey()
		t.ctrl.SetRoots(msg.roots)
		t.refresh()
		t.SelectByKey(selected)
		t.status = "reloaded " + t.opts.Path

	case savedMsg:
		if msg.err != nil {
			t.logger.WithError(msg.err).Warn("Save failed")
			t.status = "save failed: " + msg.err.Error()
		} else {
			t.status = "saved " + msg.path
		}

	case tea.MouseMsg:
		return t.handleMouse(msg)

	case tea.KeyMsg:
		if t.drag.Dragging() {
			return t.handleDragKey(msg)
		}
		return t.handleKey(msg)
	}
	return t, nil
}

func (t TreeModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t.status = ""
	switch {
	case key.Matches(msg, t.keys.Quit):
		return t, tea.Quit
	case key.Matches(msg, t.keys.Help):
		t.showHelp = !t.showHelp
	case key.Matches(msg, t.keys.Up):
		t.MoveUp()
	case key.Matches(msg, t.keys.Down):
		t.MoveDown()
	case key.Matches(msg, t.keys.Top):
		t.JumpToTop()
	case key.Matches(msg, t.keys.Bottom):
		t.JumpToBottom()
	case key.Matches(msg, t.keys.PageUp):
		t.PageUp()
	case key.Matches(msg, t.keys.PageDown):
		t.PageDown()
	case key.Matches(msg, t.keys.Grab):
		t.StartDrag()
	case key.Matches(msg, t.keys.Toggle):
		t.ToggleExpand()
	case key.Matches(msg, t.keys.Expand):
		t.ExpandOrMoveToChild()
	case key.Matches(msg, t.keys.Collapse):
		t.CollapseOrJumpToParent()
	case key.Matches(msg, t.keys.ExpandAll):
		t.ExpandAll()
	case key.Matches(msg, t.keys.CollapseAll):
		t.CollapseAll()
	case key.Matches(msg, t.keys.Remove):
		if t.RemoveSelected() {
			return t, t.autoSaveCmd()
		}
	case key.Matches(msg, t.keys.Yank):
		t.yank()
	case key.Matches(msg, t.keys.Save):
		return t, t.saveCmd()
	}
	return t, nil
}

func (t TreeModel) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, t.keys.Cancel):
		t.CancelDrag()
	case key.Matches(msg, t.keys.Drop):
		if t.EndDrag() {
			return t, t.autoSaveCmd()
		}
	case key.Matches(msg, t.keys.Up):
		t.shiftOver(-1)
	case key.Matches(msg, t.keys.Down):
		t.shiftOver(1)
	case key.Matches(msg, t.keys.Indent):
		t.drag = t.ctrl.Move(t.drag, t.drag.Offset+float64(t.opts.Columns))
	case key.Matches(msg, t.keys.Outdent):
		t.drag = t.ctrl.Move(t.drag, t.drag.Offset-float64(t.opts.Columns))
	case key.Matches(msg, t.keys.Quit):
		t.CancelDrag()
		return t, tea.Quit
	}
	return t, nil
}

func (t TreeModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			t.MoveUp()
		case tea.MouseButtonWheelDown:
			t.MoveDown()
		case tea.MouseButtonLeft:
			row, ok := t.rowAt(msg.Y)
			if !ok || t.drag.Dragging() {
				return t, nil
			}
			t.cursor = row
			t.StartDrag()
			if t.drag.Dragging() {
				t.grabX = msg.X
				t.mouseDrag = true
			}
		}

	case tea.MouseActionMotion:
		if !t.mouseDrag || !t.drag.Dragging() {
			return t, nil
		}
		rows := t.dragRows()
		if row, ok := t.clampRow(msg.Y, len(rows)); ok {
			t.drag = t.ctrl.Over(t.drag, rows[row].Key)
		}
		t.drag = t.ctrl.Move(t.drag, float64(msg.X-t.grabX))

	case tea.MouseActionRelease:
		if !t.mouseDrag {
			return t, nil
		}
		t.mouseDrag = false
		if t.EndDrag() {
			return t, t.autoSaveCmd()
		}
	}
	return t, nil
}

// rowAt maps a screen row to an index in the visible list.
func (t *TreeModel) rowAt(y int) (int, bool) {
	start, _ := t.visibleRange(len(t.flat))
	idx := start + y - headerLines
	if y < headerLines || idx < 0 || idx >= len(t.flat) {
		return 0, false
	}
	return idx, true
}

// clampRow maps y to a row index, pinning positions above or below the list
// to its ends.
func (t *TreeModel) clampRow(y, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	start, _ := t.visibleRange(n)
	idx := start + y - headerLines
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx, true
}

// SetSize updates the view dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.help.Width = width
	t.ensureCursorVisible()
}

// refresh recomputes the visible rows from the controller.
func (t *TreeModel) refresh() {
	t.flat = t.ctrl.Visible(session.DragSession{})
	if t.cursor >= len(t.flat) {
		t.cursor = len(t.flat) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// dragRows is the visible list with the dragged subtree folded away.
func (t *TreeModel) dragRows() model.FlatList {
	return t.ctrl.Visible(t.drag)
}

// StartDrag grabs the selected row.
func (t *TreeModel) StartDrag() {
	key := t.SelectedKey()
	if key.IsRoot() {
		return
	}
	t.drag = t.ctrl.Start(key)
	t.status = ""
}

// CancelDrag abandons the current drag.
func (t *TreeModel) CancelDrag() {
	key := t.drag.ActiveKey
	t.ctrl.Cancel(t.drag)
	t.drag = session.DragSession{}
	t.mouseDrag = false
	t.SelectByKey(key)
	t.status = "move cancelled"
}

// EndDrag drops the dragged row. It reports whether the tree changed.
func (t *TreeModel) EndDrag() bool {
	key := t.drag.ActiveKey
	count := t.ctrl.DragCount(key)
	_, res := t.ctrl.End(t.drag)
	t.drag = session.DragSession{}
	t.mouseDrag = false
	t.refresh()
	t.SelectByKey(key)
	if !res.Committed {
		t.status = "no valid drop target"
		return false
	}
	t.status = fmt.Sprintf("moved %s (%d %s)", key, count, plural(count, "item", "items"))
	return true
}

func (t *TreeModel) shiftOver(delta int) {
	rows := t.dragRows()
	idx := rows.IndexOf(t.drag.OverKey)
	if idx < 0 {
		idx = rows.IndexOf(t.drag.ActiveKey)
	}
	idx += delta
	if idx < 0 || idx >= len(rows) {
		return
	}
	t.drag = t.ctrl.Over(t.drag, rows[idx].Key)
}

// Dragging reports whether a drag is in progress.
func (t *TreeModel) Dragging() bool {
	return t.drag.Dragging()
}

// Session returns the current drag session.
func (t *TreeModel) Session() session.DragSession {
	return t.drag
}

// RemoveSelected deletes the selected node and its subtree.
func (t *TreeModel) RemoveSelected() bool {
	key := t.SelectedKey()
	if key.IsRoot() || !t.ctrl.Remove(key) {
		return false
	}
	t.refresh()
	t.saveState()
	t.status = "removed " + string(key)
	return true
}

func (t *TreeModel) yank() {
	key := t.SelectedKey()
	if key.IsRoot() {
		return
	}
	if err := clipboard.WriteAll(string(key)); err != nil {
		t.logger.WithError(err).Warn("Clipboard write failed")
		t.status = "clipboard unavailable"
		return
	}
	t.status = "copied " + string(key)
}

func (t *TreeModel) saveCmd() tea.Cmd {
	if t.opts.Path == "" {
		t.status = "no file to save to"
		return nil
	}
	path, roots := t.opts.Path, t.ctrl.Roots()
	return func() tea.Msg {
		return savedMsg{path: path, err: loader.SaveTree(path, roots)}
	}
}

func (t *TreeModel) autoSaveCmd() tea.Cmd {
	if !t.opts.AutoSave {
		return nil
	}
	return t.saveCmd()
}

func (t *TreeModel) reloadCmd() tea.Cmd {
	path := t.opts.Path
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		roots, err := loader.LoadTree(path)
		return reloadedMsg{roots: roots, err: err}
	}
}

// View implements tea.Model.
func (t TreeModel) View() string {
	var sb strings.Builder
	sb.WriteString(t.renderHeader())
	sb.WriteString("\n")

	if len(t.flat) == 0 {
		sb.WriteString(t.renderEmptyState())
		return sb.String()
	}

	rows := t.flat
	ghost := -1
	if t.drag.Dragging() {
		rows, ghost = t.dragDisplay()
	}

	var prefixes []string
	if ghost < 0 {
		prefixes = t.treePrefixes(rows)
	}

	start, end := t.visibleRange(len(rows))
	for i := start; i < end; i++ {
		var line string
		switch {
		case i == ghost:
			line = t.renderGhost(rows[i])
		case prefixes != nil:
			line = t.renderNode(rows[i], prefixes[i])
			if i == t.cursor {
				line = t.theme.Selected.Render(line)
			}
		default:
			line = t.renderNode(rows[i], strings.Repeat(" ", rows[i].Depth*t.opts.Columns))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString(t.renderFooter())
	return sb.String()
}

// dragDisplay returns the rows as they would look after dropping: the
// dragged row moved to the hovered position. The second value is the
// dragged row's index.
func (t *TreeModel) dragDisplay() (model.FlatList, int) {
	rows := t.dragRows()
	from := rows.IndexOf(t.drag.ActiveKey)
	to := rows.IndexOf(t.drag.OverKey)
	if from < 0 {
		return rows, -1
	}
	if to < 0 {
		return rows, from
	}
	return tree.ArrayMove(rows, from, to), to
}

func (t *TreeModel) renderHeader() string {
	r := t.theme.Renderer
	var sb strings.Builder
	sb.WriteString(t.theme.Header.Render("dndtree"))
	if t.opts.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(t.opts.Path))
	}
	if t.drag.Dragging() {
		n := t.ctrl.DragCount(t.drag.ActiveKey)
		sb.WriteString(" ")
		sb.WriteString(t.theme.Badge.Render(fmt.Sprintf("moving %d %s", n, plural(n, "item", "items"))))
	}
	return sb.String()
}

func (t *TreeModel) renderEmptyState() string {
	r := t.theme.Renderer
	mutedStyle := r.NewStyle().Foreground(t.theme.Muted)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("No items to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Press q to quit."))
	return sb.String()
}

func (t *TreeModel) renderFooter() string {
	if t.showHelp {
		return t.help.FullHelpView(t.keys.FullHelp())
	}
	if t.status != "" {
		return t.theme.Status.Render(t.status)
	}
	if t.drag.Dragging() {
		return t.theme.Status.Render("j/k move · h/l depth · enter drop · esc cancel")
	}
	return t.help.ShortHelpView(t.keys.ShortHelp())
}

// renderNode renders a single row: prefix, indicator, title and key.
func (t *TreeModel) renderNode(node model.FlatNode, prefix string) string {
	r := t.theme.Renderer
	var sb strings.Builder

	sb.WriteString(prefix)

	indicatorStyle := r.NewStyle().Foreground(t.theme.Secondary)
	sb.WriteString(indicatorStyle.Render(t.getExpandIndicator(node)))
	sb.WriteString(" ")

	maxTitle := t.width - lipgloss.Width(prefix) - runewidth.StringWidth(string(node.Key)) - 4
	if maxTitle < 10 {
		maxTitle = 10
	}
	sb.WriteString(t.truncateTitle(displayTitle(node.TreeNode), maxTitle))

	if node.Title != "" {
		keyStyle := r.NewStyle().Foreground(t.theme.Muted)
		sb.WriteString(" ")
		sb.WriteString(keyStyle.Render(string(node.Key)))
	}
	return sb.String()
}

// renderGhost renders the dragged row at its projected depth.
func (t *TreeModel) renderGhost(node model.FlatNode) string {
	p := t.drag.Projection
	depth := node.Depth
	style := t.theme.Blocked
	if p != nil {
		depth = p.Depth
		style = t.theme.Ghost
	}
	maxTitle := t.width - depth*t.opts.Columns - 4
	if maxTitle < 10 {
		maxTitle = 10
	}
	title := t.truncateTitle(displayTitle(node.TreeNode), maxTitle)
	return strings.Repeat(" ", depth*t.opts.Columns) + style.Render("⠿ "+title)
}

func displayTitle(n model.TreeNode) string {
	if n.Title == "" {
		return string(n.Key)
	}
	return n.Title
}

// treePrefixes builds the branch guides for every row. Each depth level is
// Columns cells wide so the guides line up with drag offsets.
func (t *TreeModel) treePrefixes(rows model.FlatList) []string {
	// A row is the last child when no later row shares its parent. Parent
	// keys are unique, so one reverse scan settles it.
	last := make([]bool, len(rows))
	seen := make(map[model.Key]bool, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if !seen[rows[i].ParentID] {
			last[i] = true
			seen[rows[i].ParentID] = true
		}
	}

	pipe := t.guide('│', ' ')
	blank := strings.Repeat(" ", t.opts.Columns)
	tee := t.guide('├', '─')
	elbow := t.guide('└', '─')

	treeStyle := t.theme.Renderer.NewStyle().Foreground(t.theme.Muted)
	out := make([]string, len(rows))
	for i, row := range rows {
		if row.Depth == 0 {
			continue
		}
		// Ancestors below root level, nearest first.
		var parts []string
		for p, ok := rows.ParentOf(row); ok && p >= 0 && rows[p].Depth > 0; p, ok = rows.ParentOf(rows[p]) {
			if last[p] {
				parts = append(parts, blank)
			} else {
				parts = append(parts, pipe)
			}
		}
		var sb strings.Builder
		for j := len(parts) - 1; j >= 0; j-- {
			sb.WriteString(parts[j])
		}
		if last[i] {
			sb.WriteString(elbow)
		} else {
			sb.WriteString(tee)
		}
		out[i] = treeStyle.Render(sb.String())
	}
	return out
}

// guide returns one indentation level starting with head and padded with
// fill, ending in a space.
func (t *TreeModel) guide(head, fill rune) string {
	n := t.opts.Columns
	if n <= 1 {
		return string(head)
	}
	return string(head) + strings.Repeat(string(fill), n-2) + " "
}

// getExpandIndicator returns the expand/collapse indicator for a node.
func (t *TreeModel) getExpandIndicator(node model.FlatNode) string {
	switch {
	case node.IsLeaf:
		return "•"
	case !node.HasChildren():
		return "○" // empty container
	case t.ctrl.IsExpanded(node.Key):
		return "▾"
	default:
		return "▸"
	}
}

// truncateTitle truncates a title to the given display width with an
// ellipsis.
func (t *TreeModel) truncateTitle(title string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if runewidth.StringWidth(title) <= maxWidth {
		return title
	}
	return runewidth.Truncate(title, maxWidth, "…")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// SelectedKey returns the key under the cursor, or RootKey if none.
func (t *TreeModel) SelectedKey() model.Key {
	if t.cursor >= 0 && t.cursor < len(t.flat) {
		return t.flat[t.cursor].Key
	}
	return model.RootKey
}

// SelectedNode returns the row under the cursor.
func (t *TreeModel) SelectedNode() (model.FlatNode, bool) {
	if t.cursor >= 0 && t.cursor < len(t.flat) {
		return t.flat[t.cursor], true
	}
	return model.FlatNode{}, false
}

// SelectByKey moves the cursor to key. Returns true if found.
func (t *TreeModel) SelectByKey(key model.Key) bool {
	if i := t.flat.IndexOf(key); i >= 0 {
		t.cursor = i
		t.ensureCursorVisible()
		return true
	}
	return false
}

// MoveDown moves the cursor down in the visible list.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.flat)-1 {
		t.cursor++
		t.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up in the visible list.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.ensureCursorVisible()
	}
}

// JumpToTop moves cursor to the first node.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.ensureCursorVisible()
}

// JumpToBottom moves cursor to the last node.
func (t *TreeModel) JumpToBottom() {
	if len(t.flat) > 0 {
		t.cursor = len(t.flat) - 1
		t.ensureCursorVisible()
	}
}

// JumpToParent moves cursor to the parent of the selected node.
func (t *TreeModel) JumpToParent() {
	node, ok := t.SelectedNode()
	if !ok {
		return
	}
	if p, ok := t.flat.ParentOf(node); ok && p >= 0 {
		t.cursor = p
		t.ensureCursorVisible()
	}
}

// ToggleExpand expands or collapses the selected node.
func (t *TreeModel) ToggleExpand() {
	node, ok := t.SelectedNode()
	if !ok || !node.HasChildren() {
		return
	}
	t.ctrl.ToggleExpanded(node.Key)
	t.refresh()
	t.saveState()
}

// ExpandOrMoveToChild expands a collapsed node, or moves to the first
// child of an expanded one.
func (t *TreeModel) ExpandOrMoveToChild() {
	node, ok := t.SelectedNode()
	if !ok || !node.HasChildren() {
		return
	}
	if !t.ctrl.IsExpanded(node.Key) {
		t.ctrl.SetExpanded(node.Key, true)
		t.refresh()
		t.saveState()
		return
	}
	t.SelectByKey(node.Children[0].Key)
}

// CollapseOrJumpToParent collapses an expanded node, otherwise moves to
// its parent.
func (t *TreeModel) CollapseOrJumpToParent() {
	node, ok := t.SelectedNode()
	if !ok {
		return
	}
	if node.HasChildren() && t.ctrl.IsExpanded(node.Key) {
		t.ctrl.SetExpanded(node.Key, false)
		t.refresh()
		t.saveState()
		return
	}
	t.JumpToParent()
}

// ExpandAll expands all nodes in the tree.
func (t *TreeModel) ExpandAll() {
	key := t.SelectedKey()
	t.ctrl.ExpandAll()
	t.refresh()
	t.SelectByKey(key)
	t.saveState()
}

// CollapseAll collapses all nodes in the tree.
func (t *TreeModel) CollapseAll() {
	t.ctrl.CollapseAll()
	t.refresh()
	t.saveState()
}

// PageDown moves cursor down by half a viewport.
func (t *TreeModel) PageDown() {
	pageSize := t.treeHeight() / 2
	if pageSize < 1 {
		pageSize = 5
	}
	t.cursor += pageSize
	if t.cursor >= len(t.flat) {
		t.cursor = len(t.flat) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// PageUp moves cursor up by half a viewport.
func (t *TreeModel) PageUp() {
	pageSize := t.treeHeight() / 2
	if pageSize < 1 {
		pageSize = 5
	}
	t.cursor -= pageSize
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.ensureCursorVisible()
}

// treeHeight is the number of rows available for nodes.
func (t *TreeModel) treeHeight() int {
	h := t.height - headerLines - 1
	if h <= 0 {
		return 20
	}
	return h
}

func (t *TreeModel) ensureCursorVisible() {
	h := t.treeHeight()
	if t.cursor < t.viewportOffset {
		t.viewportOffset = t.cursor
	}
	if t.cursor >= t.viewportOffset+h {
		t.viewportOffset = t.cursor - h + 1
	}
	if t.viewportOffset < 0 {
		t.viewportOffset = 0
	}
}

// visibleRange returns the [start, end) rows to render for a list of n.
func (t *TreeModel) visibleRange(n int) (start, end int) {
	if n == 0 {
		return 0, 0
	}
	visibleCount := t.treeHeight()

	start = t.viewportOffset
	end = start + visibleCount
	if end > n {
		end = n
		start = end - visibleCount
		if start < 0 {
			start = 0
		}
	}
	if start < 0 {
		start = 0
	}
	return start, end
}

// NodeCount returns the number of visible rows.
func (t *TreeModel) NodeCount() int {
	return len(t.flat)
}

// Status returns the last status line message.
func (t *TreeModel) Status() string {
	return t.status
}
