package render

import "github.com/aretw0/tessera/pkg/domain"

// MergeProps shallow-merges override over base. Override wins per key;
// all other keys pass through. Neither input is modified.
func MergeProps(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Merge applies overrides to every node of s and returns the merged schema.
// It is the data half of Render, for surfaces that ship the schema itself
// (for example a preview payload) instead of a visual tree.
func Merge(s domain.Schema, overrides Overrides) domain.Schema {
	out := s
	if out.Kind == "" {
		out.Kind = domain.KindPage
	}
	out.Components = mergeAll(s.Components, overrides)
	return out
}

func mergeAll(nodes []domain.Node, overrides Overrides) []domain.Node {
	if nodes == nil {
		return nil
	}
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		if o, ok := overrides[n.ID]; ok && len(o) > 0 {
			n.Props = MergeProps(n.Props, o)
		}
		n.Children = mergeAll(n.Children, overrides)
		out[i] = n
	}
	return out
}
