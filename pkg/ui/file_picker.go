package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
)

// FileEntry is one tree file offered by the picker.
type FileEntry struct {
	Path  string // absolute or as discovered
	Label string // path relative to the search root
}

// NewFileEntries labels paths relative to root.
func NewFileEntries(root string, paths []string) []FileEntry {
	entries := make([]FileEntry, 0, len(paths))
	for _, p := range paths {
		label := p
		if rel, err := filepath.Rel(root, p); err == nil {
			label = rel
		}
		entries = append(entries, FileEntry{Path: p, Label: label})
	}
	return entries
}

// FilePickerModel lists discovered tree files and lets the user choose one.
// It quits the program once a file is chosen or the user gives up.
type FilePickerModel struct {
	entries     []FileEntry
	filtered    []int // indices into entries
	cursor      int
	width       int
	height      int
	filterInput textinput.Model
	filtering   bool
	theme       Theme
	keys        KeyMap
	chosen      *FileEntry
}

// NewFilePicker creates a picker over entries.
func NewFilePicker(entries []FileEntry, theme Theme) FilePickerModel {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 80
	ti.Width = 30

	m := FilePickerModel{
		entries:     entries,
		filterInput: ti,
		theme:       theme,
		keys:        DefaultKeyMap(),
	}
	m.applyFilter()
	return m
}

// Init implements tea.Model.
func (m FilePickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m FilePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFiltering(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m FilePickerModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "/":
		m.filtering = true
		m.cursor = 0
		m.filterInput.SetValue("")
		m.filterInput.Focus()
	case msg.String() == "enter":
		return m.choose()
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Quit), msg.String() == "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m FilePickerModel) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filterInput.SetValue("")
		m.filterInput.Blur()
		m.applyFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filterInput.Blur()
		return m.choose()
	case "up":
		m.moveCursor(-1)
		return m, nil
	case "down":
		m.moveCursor(1)
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.applyFilter()
		return m, cmd
	}
}

func (m FilePickerModel) choose() (tea.Model, tea.Cmd) {
	if e := m.SelectedEntry(); e != nil {
		m.chosen = e
		return m, tea.Quit
	}
	return m, nil
}

func (m *FilePickerModel) moveCursor(delta int) {
	next := m.cursor + delta
	if next >= 0 && next < len(m.filtered) {
		m.cursor = next
	}
}

// applyFilter updates the filtered indices from the filter input. Matches
// are ordered best first.
func (m *FilePickerModel) applyFilter() {
	query := strings.TrimSpace(m.filterInput.Value())
	if query == "" {
		m.filtered = make([]int, len(m.entries))
		for i := range m.entries {
			m.filtered[i] = i
		}
	} else {
		labels := make([]string, len(m.entries))
		for i, e := range m.entries {
			labels[i] = e.Label
		}
		matches := fuzzy.Find(query, labels)
		m.filtered = make([]int, len(matches))
		for i, match := range matches {
			m.filtered[i] = match.Index
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// SetSize updates the picker dimensions.
func (m *FilePickerModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// View implements tea.Model.
func (m FilePickerModel) View() string {
	t := m.theme
	w := m.width
	if w == 0 {
		w = 80
	}

	var sections []string
	sections = append(sections, m.renderTitleBar(w))

	if m.filtering {
		filterStyle := t.Renderer.NewStyle().Foreground(t.Primary)
		sections = append(sections, filterStyle.Render("  / "+m.filterInput.View()))
	}

	if len(m.filtered) == 0 {
		dimStyle := t.Renderer.NewStyle().Foreground(t.Muted).Italic(true)
		sections = append(sections, dimStyle.Render("  No tree files found."))
	}
	for i, idx := range m.filtered {
		label := "  " + m.entries[idx].Label
		if i == m.cursor {
			label = t.Selected.Render("> " + m.entries[idx].Label)
		}
		sections = append(sections, label)
	}

	sections = append(sections, t.Status.Render("enter open · / filter · q quit"))
	return strings.Join(sections, "\n")
}

func (m *FilePickerModel) renderTitleBar(w int) string {
	t := m.theme
	label := "trees"
	if m.filtering && m.filterInput.Value() != "" {
		label = fmt.Sprintf("trees(%s)", m.filterInput.Value())
	}
	count := fmt.Sprintf("[%d]", len(m.filtered))
	title := t.Header.Render(label) + t.Status.Render(count)

	pad := (w - len(label) - len(count) - 2) / 2
	if pad < 1 {
		pad = 1
	}
	sep := t.Renderer.NewStyle().Foreground(t.Muted).Render(strings.Repeat("─", pad))
	return sep + " " + title + " " + sep
}

// Filtering reports whether the picker is in filter mode.
func (m *FilePickerModel) Filtering() bool {
	return m.filtering
}

// FilteredCount returns the number of entries matching the current filter.
func (m *FilePickerModel) FilteredCount() int {
	return len(m.filtered)
}

// SelectedEntry returns the highlighted entry, or nil if none.
func (m *FilePickerModel) SelectedEntry() *FileEntry {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	entry := m.entries[m.filtered[m.cursor]]
	return &entry
}

// Chosen returns the entry the user opened, or nil if they quit.
func (m FilePickerModel) Chosen() *FileEntry {
	return m.chosen
}
