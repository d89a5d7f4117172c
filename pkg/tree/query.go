package tree

import "github.com/aretw0/tessera/pkg/domain"

// Find returns the first node matching id in depth-first order.
func Find(s domain.Schema, id string) (domain.Node, bool) {
	if n := findIn(s.Components, id); n != nil {
		return *n, true
	}
	return domain.Node{}, false
}

// Contains reports whether any node in the tree carries id.
func Contains(s domain.Schema, id string) bool {
	return findIn(s.Components, id) != nil
}

// Index returns the top-level position of id, or -1.
func Index(s domain.Schema, id string) int {
	for i, n := range s.Components {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Walk visits every node depth-first, parents before children.
// Returning false from fn skips the node's children.
func Walk(s domain.Schema, fn func(n domain.Node, depth int) bool) {
	walk(s.Components, 0, fn)
}

// IDs lists every node id in depth-first order.
func IDs(s domain.Schema) []string {
	var ids []string
	Walk(s, func(n domain.Node, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// Duplicates returns ids that occur more than once in the tree.
func Duplicates(s domain.Schema) []string {
	seen := make(map[string]int)
	var dups []string
	Walk(s, func(n domain.Node, _ int) bool {
		seen[n.ID]++
		if seen[n.ID] == 2 {
			dups = append(dups, n.ID)
		}
		return true
	})
	return dups
}

// Conflicts returns the ids in node's subtree that already exist in s
// or repeat within the subtree itself.
func Conflicts(s domain.Schema, node domain.Node) []string {
	taken := make(map[string]bool)
	Walk(s, func(n domain.Node, _ int) bool {
		taken[n.ID] = true
		return true
	})

	var conflicts []string
	walk([]domain.Node{node}, 0, func(n domain.Node, _ int) bool {
		if taken[n.ID] {
			conflicts = append(conflicts, n.ID)
		}
		taken[n.ID] = true
		return true
	})
	return conflicts
}

func walk(nodes []domain.Node, depth int, fn func(domain.Node, int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

func findIn(nodes []domain.Node, id string) *domain.Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
		if found := findIn(nodes[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}
