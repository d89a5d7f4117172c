package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/tessera/pkg/domain"
)

// Overlay contains editor state to highlight on the diagram.
type Overlay struct {
	Selected string
	// Known reports whether a component type is registered. Nil treats every type as known.
	Known func(typ string) bool
}

// GenerateMermaid produces a Mermaid flowchart of the component tree.
// It applies semantic styling:
// - Page root: ((Circle))
// - Nodes with children: [[Subroutine]]
// - Unregistered types: {{Hexagon}}
// - Default: [Rectangle]
// The selected node is styled when an overlay is given.
func GenerateMermaid(schema domain.Schema, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	title := "page"
	if schema.Metadata != nil && schema.Metadata.Name != "" {
		title = schema.Metadata.Name
	}
	sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", rootID, escapeLabel(title)))

	var unknown []string
	var walk func(parent string, nodes []domain.Node)
	walk = func(parent string, nodes []domain.Node) {
		for _, node := range nodes {
			safeID := sanitizeMermaidID(node.ID)

			opener, closer := "[", "]"
			switch {
			case overlay != nil && overlay.Known != nil && !overlay.Known(node.Type):
				opener, closer = "{{", "}}"
				unknown = append(unknown, safeID)
			case len(node.Children) > 0:
				opener, closer = "[[", "]]"
			}

			sb.WriteString(fmt.Sprintf("    %s%s\"%s <br/> %s\"%s\n", safeID, opener, escapeLabel(node.ID), escapeLabel(node.Type), closer))
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", parent, safeID))
			walk(safeID, node.Children)
		}
	}
	walk(rootID, schema.Components)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef unknown fill:#ffebee,stroke:#c62828,stroke-dasharray: 4 2,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for _, id := range unknown {
			sb.WriteString(fmt.Sprintf("    class %s unknown;\n", id))
		}
		if overlay.Selected != "" {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
		}
	}

	return sb.String()
}

// Sanitized node ids are prefixed with "n_", so they never collide with the root.
const rootID = "__page"

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return "n_" + s
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
