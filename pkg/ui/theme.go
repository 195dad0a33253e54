package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors and styles used by the tree view. Styles are
// created from Renderer so tests can render without a terminal.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Ghost    lipgloss.Style // dragged row at a valid drop target
	Blocked  lipgloss.Style // dragged row with no valid target
	Badge    lipgloss.Style
	Header   lipgloss.Style
	Status   lipgloss.Style
}

// DefaultTheme builds the standard theme for r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#A78BFA"},
		Secondary: lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F6E05E"},
		Highlight: lipgloss.AdaptiveColor{Light: "#2B6CB0", Dark: "#63B3ED"},
		Muted:     lipgloss.AdaptiveColor{Light: "#718096", Dark: "#718096"},
		Danger:    lipgloss.AdaptiveColor{Light: "#C53030", Dark: "#FC8181"},
	}

	t.Base = r.NewStyle()
	t.Selected = r.NewStyle().
		Background(lipgloss.AdaptiveColor{Light: "#E9D8FD", Dark: "#44337A"}).
		Bold(true)
	t.Ghost = r.NewStyle().
		Foreground(t.Primary).
		Bold(true)
	t.Blocked = r.NewStyle().
		Foreground(t.Danger).
		Strikethrough(true)
	t.Badge = r.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1A202C"}).
		Background(t.Primary).
		Padding(0, 1)
	t.Header = r.NewStyle().
		Foreground(t.Primary).
		Bold(true)
	t.Status = r.NewStyle().
		Foreground(t.Muted)

	return t
}
