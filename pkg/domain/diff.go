package domain

import (
	"reflect"
)

// SchemaDiff represents the changes between two schemas, keyed by node id.
// It is designed to be serialized to JSON for partial updates on the client.
type SchemaDiff struct {
	// Page identifies the target page.
	Page string `json:"page"`

	// Added lists ids present only in the new schema, in document order.
	Added []string `json:"added,omitempty"`

	// Removed lists ids present only in the old schema.
	Removed []string `json:"removed,omitempty"`

	// Changed lists ids whose own type, props, style or editable list differ.
	// Changes to children are reported on the children themselves.
	Changed []string `json:"changed,omitempty"`

	// Moved lists top-level ids whose relative order changed.
	Moved []string `json:"moved,omitempty"`
}

// Diff calculates the difference between oldSchema and newSchema.
// If oldSchema is nil, every node of newSchema is reported as added (initial load).
// It returns nil when nothing changed.
func Diff(page string, oldSchema *Schema, newSchema Schema) *SchemaDiff {
	diff := &SchemaDiff{Page: page}

	newNodes := flatten(newSchema.Components, nil)
	if oldSchema == nil {
		for _, n := range newNodes {
			diff.Added = append(diff.Added, n.ID)
		}
		if diff.IsEmpty() {
			return nil
		}
		return diff
	}

	oldNodes := flatten(oldSchema.Components, nil)
	oldByID := make(map[string]Node, len(oldNodes))
	for _, n := range oldNodes {
		if _, seen := oldByID[n.ID]; !seen {
			oldByID[n.ID] = n
		}
	}
	newByID := make(map[string]Node, len(newNodes))
	for _, n := range newNodes {
		if _, seen := newByID[n.ID]; !seen {
			newByID[n.ID] = n
		}
	}

	for _, n := range newNodes {
		old, ok := oldByID[n.ID]
		if !ok {
			diff.Added = append(diff.Added, n.ID)
			continue
		}
		if !sameContent(old, n) {
			diff.Changed = appendOnce(diff.Changed, n.ID)
		}
	}
	for _, n := range oldNodes {
		if _, ok := newByID[n.ID]; !ok {
			diff.Removed = append(diff.Removed, n.ID)
		}
	}

	diff.Moved = diffOrder(oldSchema.Components, newSchema.Components)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SchemaDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Changed) == 0 &&
		len(d.Moved) == 0
}

func flatten(nodes []Node, acc []Node) []Node {
	for _, n := range nodes {
		acc = append(acc, n)
		acc = flatten(n.Children, acc)
	}
	return acc
}

func sameContent(a, b Node) bool {
	return a.Type == b.Type &&
		reflect.DeepEqual(a.Props, b.Props) &&
		reflect.DeepEqual(a.Style, b.Style) &&
		reflect.DeepEqual(a.Editable, b.Editable)
}

// diffOrder compares the relative order of top-level ids present in both lists.
func diffOrder(oldList, newList []Node) []string {
	inNew := make(map[string]bool, len(newList))
	for _, n := range newList {
		inNew[n.ID] = true
	}
	inOld := make(map[string]bool, len(oldList))
	var oldOrder []string
	for _, n := range oldList {
		inOld[n.ID] = true
		if inNew[n.ID] {
			oldOrder = append(oldOrder, n.ID)
		}
	}
	var newOrder []string
	for _, n := range newList {
		if inOld[n.ID] {
			newOrder = append(newOrder, n.ID)
		}
	}

	var moved []string
	for i := range newOrder {
		if i < len(oldOrder) && oldOrder[i] != newOrder[i] {
			moved = append(moved, newOrder[i])
		}
	}
	return moved
}

func appendOnce(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
