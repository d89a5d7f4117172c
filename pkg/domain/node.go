package domain

import "sort"

// Node represents a single composable unit of a page.
// It is a component instance: a type tag resolved against the registry,
// an open bag of props, presentation hints and nested children.
type Node struct {
	// ID is unique across the whole tree and stable across edits.
	// Merge, reorder and selection are all keyed by it.
	ID   string `json:"id" yaml:"id" mapstructure:"id"`
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// Props holds arbitrary JSON-shaped values consumed by the renderer.
	Props map[string]any `json:"props" yaml:"props" mapstructure:"props"`

	// Style is passed through to the renderer uninterpreted.
	Style map[string]string `json:"styles,omitempty" yaml:"styles,omitempty" mapstructure:"styles"`

	// Editable lists the user-editable prop keys. Nil means every key is
	// editable; an empty, non-nil list means none is. JSON keeps the two
	// apart as null and [].
	Editable []string `json:"editable" yaml:"editable,omitempty" mapstructure:"editable"`

	Children []Node `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
}

// Clone returns a deep copy of the node, including nested prop values and children.
func (n Node) Clone() Node {
	out := Node{
		ID:    n.ID,
		Type:  n.Type,
		Props: CloneProps(n.Props),
	}
	if n.Style != nil {
		out.Style = make(map[string]string, len(n.Style))
		for k, v := range n.Style {
			out.Style[k] = v
		}
	}
	if n.Editable != nil {
		out.Editable = make([]string, len(n.Editable))
		copy(out.Editable, n.Editable)
	}
	if n.Children != nil {
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// MarshalYAML writes editable only when it is declared, so that an empty
// list stays distinct from an absent one.
func (n Node) MarshalYAML() (any, error) {
	out := struct {
		ID       string            `yaml:"id"`
		Type     string            `yaml:"type"`
		Props    map[string]any    `yaml:"props"`
		Style    map[string]string `yaml:"styles,omitempty"`
		Editable *[]string         `yaml:"editable,omitempty"`
		Children []Node            `yaml:"children,omitempty"`
	}{
		ID:       n.ID,
		Type:     n.Type,
		Props:    n.Props,
		Style:    n.Style,
		Children: n.Children,
	}
	if n.Editable != nil {
		out.Editable = &n.Editable
	}
	return out, nil
}

// EditableKeys returns the declared editable keys, or every prop key
// (sorted) when the node does not declare any.
func (n Node) EditableKeys() []string {
	if n.Editable != nil {
		keys := make([]string, len(n.Editable))
		copy(keys, n.Editable)
		return keys
	}
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEditable reports whether the prop key may be changed by a user.
func (n Node) IsEditable(key string) bool {
	if n.Editable == nil {
		return true
	}
	for _, k := range n.Editable {
		if k == key {
			return true
		}
	}
	return false
}

// Patch is a partial update for a node. Keys present in Props and Style
// override the node's values one by one; absent keys are left alone.
type Patch struct {
	Props map[string]any    `json:"props,omitempty"`
	Style map[string]string `json:"styles,omitempty"`
}

// IsEmpty reports whether the patch carries no changes.
func (p Patch) IsEmpty() bool {
	return len(p.Props) == 0 && len(p.Style) == 0
}

// CloneProps deep-copies a prop bag. Nested maps and slices are copied;
// scalar values are shared.
func CloneProps(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneProps(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = CloneProps(item)
		}
		return out
	case []string:
		if val == nil {
			return val
		}
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		return v
	}
}
