package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/tessera/pkg/domain"
)

// Markdown writes a visual tree as Markdown for terminal preview.
// Layout and style are dropped; text, links and form fields are kept.
func Markdown(tree domain.VisualTree) string {
	var sb strings.Builder
	if tree.Metadata != nil && tree.Metadata.Name != "" {
		fmt.Fprintf(&sb, "<!-- %s -->\n\n", tree.Metadata.Name)
	}
	for _, el := range tree.Elements {
		writeElement(&sb, el)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeElement(sb *strings.Builder, el domain.Element) {
	if el.Placeholder {
		fmt.Fprintf(sb, "> ⚠ %s\n\n", el.Text)
		for _, c := range el.Children {
			writeElement(sb, c)
		}
		return
	}

	switch el.Tag {
	case "h1":
		fmt.Fprintf(sb, "# %s\n\n", el.Text)
	case "h2":
		fmt.Fprintf(sb, "## %s\n\n", el.Text)
	case "h3":
		fmt.Fprintf(sb, "### %s\n\n", el.Text)
	case "p":
		fmt.Fprintf(sb, "%s\n\n", el.Text)
	case "a":
		fmt.Fprintf(sb, "%s\n\n", link(el))
	case "nav":
		links := make([]string, 0, len(el.Children))
		for _, c := range el.Children {
			links = append(links, link(c))
		}
		fmt.Fprintf(sb, "%s\n\n", strings.Join(links, " · "))
	case "footer":
		sb.WriteString("---\n\n")
		writeChildren(sb, el)
	case "form":
		writeForm(sb, el)
	case "button":
		fmt.Fprintf(sb, "**[ %s ]**\n\n", el.Text)
	default:
		if el.Text != "" {
			fmt.Fprintf(sb, "%s\n\n", el.Text)
		}
		writeChildren(sb, el)
	}
}

func writeChildren(sb *strings.Builder, el domain.Element) {
	for _, c := range el.Children {
		writeElement(sb, c)
	}
}

func writeForm(sb *strings.Builder, form domain.Element) {
	var button []domain.Element
	for _, field := range form.Children {
		if field.Tag == "button" {
			button = append(button, field)
			continue
		}
		var label, input domain.Element
		for _, c := range field.Children {
			switch c.Tag {
			case "label":
				label = c
			case "input", "textarea":
				input = c
			}
		}
		kind := input.Attrs["type"]
		if input.Tag == "textarea" {
			kind = "textarea"
		}
		required := ""
		if input.Attrs["required"] == "true" {
			required = " *"
		}
		fmt.Fprintf(sb, "- %s%s _(%s)_\n", label.Text, required, kind)
	}
	sb.WriteString("\n")
	for _, b := range button {
		writeElement(sb, b)
	}
}

func link(el domain.Element) string {
	if href := el.Attrs["href"]; href != "" {
		return fmt.Sprintf("[%s](%s)", el.Text, href)
	}
	return el.Text
}
