// Package export renders trees as Markdown outlines and Mermaid diagrams.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

// GenerateMarkdown creates a markdown report of the tree: a summary, a
// nested outline and a Mermaid graph of parent links.
func GenerateMarkdown(roots []model.TreeNode, title string) (string, error) {
	var sb strings.Builder
	flat := tree.FlattenTree(roots)

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))

	// Summary
	sb.WriteString("## Summary\n\n")
	leaves, containers, maxDepth := 0, 0, 0
	for _, n := range flat {
		if n.IsLeaf {
			leaves++
		} else if n.HasChildren() {
			containers++
		}
		if n.Depth > maxDepth {
			maxDepth = n.Depth
		}
	}
	sb.WriteString(fmt.Sprintf("- **Nodes**: %d\n", len(flat)))
	sb.WriteString(fmt.Sprintf("- **Roots**: %d\n", len(roots)))
	sb.WriteString(fmt.Sprintf("- **Containers**: %d\n", containers))
	sb.WriteString(fmt.Sprintf("- **Leaves**: %d\n", leaves))
	if len(flat) > 0 {
		sb.WriteString(fmt.Sprintf("- **Max depth**: %d\n", maxDepth))
	}
	sb.WriteString("\n")

	sb.WriteString("## Outline\n\n")
	sb.WriteString(Outline(roots))
	sb.WriteString("\n")

	sb.WriteString("## Structure\n\n")
	sb.WriteString("```mermaid\n")
	sb.WriteString(Mermaid(roots))
	sb.WriteString("```\n")

	return sb.String(), nil
}

// Outline renders roots as a nested markdown bullet list, two spaces per
// level. Leaf nodes are marked with a trailing dagger.
func Outline(roots []model.TreeNode) string {
	var sb strings.Builder
	for _, n := range tree.FlattenTree(roots) {
		sb.WriteString(strings.Repeat("  ", n.Depth))
		sb.WriteString("- ")
		sb.WriteString(label(n.TreeNode))
		if n.IsLeaf {
			sb.WriteString(" †")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Mermaid renders roots as a top-down Mermaid flowchart.
func Mermaid(roots []model.TreeNode) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	flat := tree.FlattenTree(roots)
	if len(flat) == 0 {
		sb.WriteString("    Empty[Empty tree]\n")
		return sb.String()
	}

	ids := make(map[model.Key]string, len(flat))
	for i, n := range flat {
		id := fmt.Sprintf("n%d", i)
		ids[n.Key] = id

		safeTitle := strings.ReplaceAll(label(n.TreeNode), "\"", "'")
		if len([]rune(safeTitle)) > 30 {
			safeTitle = string([]rune(safeTitle)[:27]) + "..."
		}
		shape := "[\"%s\"]"
		if n.IsLeaf {
			shape = "([\"%s\"])"
		}
		sb.WriteString(fmt.Sprintf("    %s"+shape+"\n", id, safeTitle))
	}
	for _, n := range flat {
		if n.ParentID.IsRoot() {
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", ids[n.ParentID], ids[n.Key]))
	}
	return sb.String()
}

func label(n model.TreeNode) string {
	if n.Title == "" {
		return string(n.Key)
	}
	return fmt.Sprintf("%s (%s)", n.Title, n.Key)
}

// SaveMarkdownToFile writes the generated markdown to a file
func SaveMarkdownToFile(roots []model.TreeNode, title, filename string) error {
	content, err := GenerateMarkdown(roots, title)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
