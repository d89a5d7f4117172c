package domain

// KindPage is the only schema kind currently produced.
const KindPage = "page"

// Metadata describes a schema for catalogs and listings.
type Metadata struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
}

// Schema is the editable structure of one page: an ordered list of
// top-level nodes plus optional metadata.
//
// A Schema captured into history is never modified again; every mutation
// produces a new value.
type Schema struct {
	Kind       string    `json:"type" yaml:"type" mapstructure:"type"`
	Components []Node    `json:"components" yaml:"components" mapstructure:"components"`
	Metadata   *Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty" mapstructure:"metadata"`
}

// NewSchema creates a page schema holding the given top-level nodes.
func NewSchema(nodes ...Node) Schema {
	components := make([]Node, 0, len(nodes))
	components = append(components, nodes...)
	return Schema{
		Kind:       KindPage,
		Components: components,
	}
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	out := Schema{Kind: s.Kind}
	if out.Kind == "" {
		out.Kind = KindPage
	}
	out.Components = make([]Node, len(s.Components))
	for i, n := range s.Components {
		out.Components[i] = n.Clone()
	}
	if s.Metadata != nil {
		md := *s.Metadata
		out.Metadata = &md
	}
	return out
}

// Len returns the number of top-level nodes.
func (s Schema) Len() int {
	return len(s.Components)
}

// Template is a named starting schema that new pages are created from.
type Template struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Schema      Schema `json:"schema" yaml:"schema"`
}
