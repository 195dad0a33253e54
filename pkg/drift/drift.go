// Package drift compares a tree against a baseline snapshot of itself and
// reports structural changes: nodes added, removed, moved to another parent,
// reordered among siblings or retitled.
package drift

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

// Severity represents the severity level of a drift alert
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// AlertType categorizes different kinds of drift alerts
type AlertType string

const (
	AlertInvalid    AlertType = "invalid_tree"
	AlertRemoved    AlertType = "removed"
	AlertAdded      AlertType = "added"
	AlertReparented AlertType = "reparented"
	AlertReordered  AlertType = "reordered"
	AlertRetitled   AlertType = "retitled"
)

// Alert represents a single drift detection alert
type Alert struct {
	Type     AlertType `json:"type"`
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Details  []string  `json:"details,omitempty"`
	Keys     []string  `json:"keys,omitempty"`
}

// Result contains the complete drift analysis
type Result struct {
	// HasDrift is true if any alerts were generated
	HasDrift bool `json:"has_drift"`

	Alerts []Alert `json:"alerts"`

	BaselineCount int `json:"baseline_count"`
	CurrentCount  int `json:"current_count"`

	CriticalCount int `json:"critical_count"`
	WarningCount  int `json:"warning_count"`
	InfoCount     int `json:"info_count"`
}

// Config tunes which changes are reported and how loudly.
type Config struct {
	// IgnoreOrder drops sibling reorder alerts.
	IgnoreOrder bool `yaml:"ignore_order" json:"ignore_order"`

	// IgnoreTitles drops retitle alerts.
	IgnoreTitles bool `yaml:"ignore_titles" json:"ignore_titles"`

	// RemovalSeverity is the severity of removed nodes. Defaults to warning.
	RemovalSeverity Severity `yaml:"removal_severity" json:"removal_severity"`
}

// DefaultConfig returns the default drift configuration.
func DefaultConfig() *Config {
	return &Config{RemovalSeverity: SeverityWarning}
}

// Calculator performs drift detection
type Calculator struct {
	config   *Config
	baseline model.FlatList
	current  model.FlatList
	roots    []model.TreeNode
}

// NewCalculator creates a drift calculator for the current tree against
// the baseline tree.
func NewCalculator(baseline, current []model.TreeNode, cfg *Config) *Calculator {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.RemovalSeverity == "" {
		cfg.RemovalSeverity = SeverityWarning
	}
	return &Calculator{
		config:   cfg,
		baseline: tree.FlattenTree(baseline),
		current:  tree.FlattenTree(current),
		roots:    current,
	}
}

// Calculate performs drift detection and returns results
func (c *Calculator) Calculate() *Result {
	result := &Result{
		Alerts:        make([]Alert, 0),
		BaselineCount: len(c.baseline),
		CurrentCount:  len(c.current),
	}

	c.checkValid(result)
	c.checkMembership(result)
	c.checkPlacement(result)
	if !c.config.IgnoreTitles {
		c.checkTitles(result)
	}

	for _, alert := range result.Alerts {
		switch alert.Severity {
		case SeverityCritical:
			result.CriticalCount++
		case SeverityWarning:
			result.WarningCount++
		case SeverityInfo:
			result.InfoCount++
		}
	}
	result.HasDrift = len(result.Alerts) > 0

	return result
}

// checkValid flags a current tree that breaks structural invariants.
func (c *Calculator) checkValid(result *Result) {
	err := tree.ValidateTree(c.roots)
	if err == nil {
		return
	}
	var verr *tree.ValidationError
	details := []string{err.Error()}
	if errors.As(err, &verr) {
		details = details[:0]
		for _, p := range verr.Problems {
			details = append(details, p.String())
		}
	}
	result.Alerts = append(result.Alerts, Alert{
		Type:     AlertInvalid,
		Severity: SeverityCritical,
		Message:  fmt.Sprintf("current tree has %d structural problem(s)", len(details)),
		Details:  details,
	})
}

func (c *Calculator) checkMembership(result *Result) {
	var removed, added []string
	for _, n := range c.baseline {
		if c.current.IndexOf(n.Key) < 0 {
			removed = append(removed, string(n.Key))
		}
	}
	for _, n := range c.current {
		if c.baseline.IndexOf(n.Key) < 0 {
			added = append(added, string(n.Key))
		}
	}

	if len(removed) > 0 {
		sort.Strings(removed)
		result.Alerts = append(result.Alerts, Alert{
			Type:     AlertRemoved,
			Severity: c.config.RemovalSeverity,
			Message:  fmt.Sprintf("%d node(s) removed", len(removed)),
			Keys:     removed,
		})
	}
	if len(added) > 0 {
		sort.Strings(added)
		result.Alerts = append(result.Alerts, Alert{
			Type:     AlertAdded,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%d node(s) added", len(added)),
			Keys:     added,
		})
	}
}

// checkPlacement reports nodes whose parent changed, and nodes that kept
// their parent but not their sibling position.
func (c *Calculator) checkPlacement(result *Result) {
	var moved, reordered, movedKeys, reorderedKeys []string
	for _, cur := range c.current {
		base, ok := c.baseline.Find(cur.Key)
		if !ok {
			continue
		}
		switch {
		case base.ParentID != cur.ParentID:
			moved = append(moved, fmt.Sprintf("%s: %s → %s", cur.Key, parentLabel(base.ParentID), parentLabel(cur.ParentID)))
			movedKeys = append(movedKeys, string(cur.Key))
		case base.Index != cur.Index && !c.config.IgnoreOrder:
			reordered = append(reordered, fmt.Sprintf("%s: position %d → %d under %s", cur.Key, base.Index, cur.Index, parentLabel(cur.ParentID)))
			reorderedKeys = append(reorderedKeys, string(cur.Key))
		}
	}

	if len(moved) > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:     AlertReparented,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%d node(s) moved to a new parent", len(moved)),
			Details:  moved,
			Keys:     movedKeys,
		})
	}
	if len(reordered) > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:     AlertReordered,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%d node(s) reordered among siblings", len(reordered)),
			Details:  reordered,
			Keys:     reorderedKeys,
		})
	}
}

func (c *Calculator) checkTitles(result *Result) {
	var details, keys []string
	for _, cur := range c.current {
		base, ok := c.baseline.Find(cur.Key)
		if !ok || base.Title == cur.Title {
			continue
		}
		details = append(details, fmt.Sprintf("%s: %q → %q", cur.Key, base.Title, cur.Title))
		keys = append(keys, string(cur.Key))
	}
	if len(details) > 0 {
		result.Alerts = append(result.Alerts, Alert{
			Type:     AlertRetitled,
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("%d node(s) retitled", len(details)),
			Details:  details,
			Keys:     keys,
		})
	}
}

func parentLabel(k model.Key) string {
	if k.IsRoot() {
		return "(root)"
	}
	return string(k)
}

// Summary returns a human-readable summary of drift results
func (r *Result) Summary() string {
	if !r.HasDrift {
		return "No drift detected. The tree matches its baseline.\n"
	}

	var sb strings.Builder
	sb.WriteString("Drift Analysis Summary\n")
	sb.WriteString("======================\n\n")
	sb.WriteString(fmt.Sprintf("Nodes: %d → %d\n", r.BaselineCount, r.CurrentCount))

	if r.CriticalCount > 0 {
		sb.WriteString(fmt.Sprintf("CRITICAL: %d alert(s)\n", r.CriticalCount))
	}
	if r.WarningCount > 0 {
		sb.WriteString(fmt.Sprintf("WARNING: %d alert(s)\n", r.WarningCount))
	}
	if r.InfoCount > 0 {
		sb.WriteString(fmt.Sprintf("INFO: %d alert(s)\n", r.InfoCount))
	}

	sb.WriteString("\nDetails:\n")
	for _, alert := range r.Alerts {
		sb.WriteString(fmt.Sprintf("  [%s] [%s] %s\n", alert.Severity, alert.Type, alert.Message))
		lines := alert.Details
		if len(lines) == 0 {
			lines = alert.Keys
		}
		for _, detail := range lines {
			sb.WriteString(fmt.Sprintf("      - %s\n", detail))
		}
	}
	sb.WriteString("\n")

	return sb.String()
}

// HasCritical returns true if there are any critical alerts
func (r *Result) HasCritical() bool {
	return r.CriticalCount > 0
}

// HasWarnings returns true if there are any warning or critical alerts
func (r *Result) HasWarnings() bool {
	return r.CriticalCount > 0 || r.WarningCount > 0
}

// ExitCode returns suggested exit code for CI use
// 0 = no drift, 1 = critical, 2 = warning, 0 = info only
func (r *Result) ExitCode() int {
	if r.CriticalCount > 0 {
		return 1
	}
	if r.WarningCount > 0 {
		return 2
	}
	return 0
}
