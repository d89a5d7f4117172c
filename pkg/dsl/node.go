package dsl

import "github.com/aretw0/tessera/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node     domain.Node
	children []*NodeBuilder
}

// Type sets the component type the node is rendered as.
func (n *NodeBuilder) Type(typ string) *NodeBuilder {
	n.node.Type = typ
	return n
}

// Prop sets a single prop.
func (n *NodeBuilder) Prop(key string, value any) *NodeBuilder {
	if n.node.Props == nil {
		n.node.Props = make(map[string]any)
	}
	n.node.Props[key] = value
	return n
}

// Props merges props into the node. Later calls win per key.
func (n *NodeBuilder) Props(props map[string]any) *NodeBuilder {
	for k, v := range props {
		n.Prop(k, v)
	}
	return n
}

func (n *NodeBuilder) Style(key, value string) *NodeBuilder {
	if n.node.Style == nil {
		n.node.Style = make(map[string]string)
	}
	n.node.Style[key] = value
	return n
}

// Editable restricts user edits to the given prop keys.
// Calling it with no keys locks every prop.
func (n *NodeBuilder) Editable(keys ...string) *NodeBuilder {
	n.node.Editable = append(make([]string, 0, len(keys)), keys...)
	return n
}

// Child appends a nested node, or returns the existing child with that id.
func (n *NodeBuilder) Child(id string) *NodeBuilder {
	if c := lookup(n.children, id); c != nil {
		return c
	}
	c := &NodeBuilder{node: domain.Node{ID: id}}
	n.children = append(n.children, c)
	return c
}

// Build returns a deep copy of the configured node and its children.
func (n *NodeBuilder) Build() domain.Node {
	out := n.node.Clone()
	if len(n.children) > 0 {
		out.Children = make([]domain.Node, 0, len(n.children))
		for _, c := range n.children {
			out.Children = append(out.Children, c.Build())
		}
	}
	return out
}
