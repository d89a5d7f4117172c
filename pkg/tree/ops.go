package tree

import (
	"reflect"

	"github.com/aretw0/tessera/pkg/domain"
)

// Add inserts node into the top-level sequence at index.
// The index is clamped into [0, len], so stale or negative indices never fail.
//
// The node is deep-copied, so later changes to the caller's value do not reach s.
// Add does not check id uniqueness; callers that need it use Conflicts first.
func Add(s domain.Schema, node domain.Node, index int) (domain.Schema, bool) {
	index = clamp(index, 0, len(s.Components))

	components := make([]domain.Node, 0, len(s.Components)+1)
	components = append(components, s.Components[:index]...)
	components = append(components, node.Clone())
	components = append(components, s.Components[index:]...)

	return withComponents(s, components), true
}

// Append inserts node at the end of the top-level sequence.
func Append(s domain.Schema, node domain.Node) (domain.Schema, bool) {
	return Add(s, node, len(s.Components))
}

// Patch shallow-merges p into the first node matching id, searching the whole tree.
// Patched values are deep-copied. Unknown ids and patches that change nothing
// return the input unchanged and false.
func Patch(s domain.Schema, id string, p domain.Patch) (domain.Schema, bool) {
	if p.IsEmpty() {
		return s, false
	}
	components, changed := patchIn(s.Components, id, p)
	if !changed {
		return s, false
	}
	return withComponents(s, components), true
}

// Remove deletes the first node matching id from whichever sequence contains it.
func Remove(s domain.Schema, id string) (domain.Schema, bool) {
	components, removed := removeIn(s.Components, id)
	if !removed {
		return s, false
	}
	return withComponents(s, components), true
}

// Move reorders a top-level node to newIndex (clamped), keeping every other
// node in its relative order. Nested nodes are not moved; callers Remove and Add them.
func Move(s domain.Schema, id string, newIndex int) (domain.Schema, bool) {
	from := Index(s, id)
	if from < 0 {
		return s, false
	}
	newIndex = clamp(newIndex, 0, len(s.Components)-1)
	if newIndex == from {
		return s, false
	}

	node := s.Components[from]
	rest := make([]domain.Node, 0, len(s.Components))
	rest = append(rest, s.Components[:from]...)
	rest = append(rest, s.Components[from+1:]...)

	components := make([]domain.Node, 0, len(s.Components))
	components = append(components, rest[:newIndex]...)
	components = append(components, node)
	components = append(components, rest[newIndex:]...)

	return withComponents(s, components), true
}

// patchIn rebuilds only the path leading to the patched node.
func patchIn(nodes []domain.Node, id string, p domain.Patch) ([]domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			patched, changed := applyPatch(n, p)
			if !changed {
				return nodes, false
			}
			return replaceAt(nodes, i, patched), true
		}
		if len(n.Children) == 0 {
			continue
		}
		if found := findIn(n.Children, id); found == nil {
			continue
		}
		children, changed := patchIn(n.Children, id, p)
		if !changed {
			return nodes, false
		}
		n.Children = children
		return replaceAt(nodes, i, n), true
	}
	return nodes, false
}

func applyPatch(n domain.Node, p domain.Patch) (domain.Node, bool) {
	changed := false

	if len(p.Props) > 0 {
		props := make(map[string]any, len(n.Props)+len(p.Props))
		for k, v := range n.Props {
			props[k] = v
		}
		for k, v := range domain.CloneProps(p.Props) {
			old, exists := n.Props[k]
			if !exists || !reflect.DeepEqual(old, v) {
				changed = true
			}
			props[k] = v
		}
		n.Props = props
	}

	if len(p.Style) > 0 {
		style := make(map[string]string, len(n.Style)+len(p.Style))
		for k, v := range n.Style {
			style[k] = v
		}
		for k, v := range p.Style {
			if old, exists := n.Style[k]; !exists || old != v {
				changed = true
			}
			style[k] = v
		}
		n.Style = style
	}

	return n, changed
}

func removeIn(nodes []domain.Node, id string) ([]domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			out := make([]domain.Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			out = append(out, nodes[i+1:]...)
			return out, true
		}
		if len(n.Children) == 0 {
			continue
		}
		children, removed := removeIn(n.Children, id)
		if removed {
			n.Children = children
			return replaceAt(nodes, i, n), true
		}
	}
	return nodes, false
}

func replaceAt(nodes []domain.Node, i int, n domain.Node) []domain.Node {
	out := make([]domain.Node, len(nodes))
	copy(out, nodes)
	out[i] = n
	return out
}

func withComponents(s domain.Schema, components []domain.Node) domain.Schema {
	out := s
	if out.Kind == "" {
		out.Kind = domain.KindPage
	}
	out.Components = components
	return out
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
