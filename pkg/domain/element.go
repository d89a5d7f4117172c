package domain

// Element is one node of the abstract visual tree produced by rendering.
// Surfaces (editor canvas, preview, public site) project it into concrete output.
type Element struct {
	// Key is the id of the schema node this element was rendered from.
	// Only the root element of a component carries it; inner elements leave it empty.
	Key string `json:"key,omitempty"`

	// Kind is the component type of the source node (root elements only).
	Kind string `json:"kind,omitempty"`

	// Tag names the visual primitive, e.g. "section", "h1", "a".
	Tag      string            `json:"tag"`
	Text     string            `json:"text,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Children []Element         `json:"children,omitempty"`

	// Placeholder marks elements standing in for a node that could not be rendered.
	Placeholder bool `json:"placeholder,omitempty"`
}

// VisualTree is the output of rendering a whole schema.
type VisualTree struct {
	Metadata *Metadata `json:"metadata,omitempty"`
	Elements []Element `json:"elements"`
}

// Find returns the element keyed by id, searching depth-first.
func (t VisualTree) Find(key string) (Element, bool) {
	return findElement(t.Elements, key)
}

func findElement(elements []Element, key string) (Element, bool) {
	for _, e := range elements {
		if e.Key == key {
			return e, true
		}
		if found, ok := findElement(e.Children, key); ok {
			return found, true
		}
	}
	return Element{}, false
}
