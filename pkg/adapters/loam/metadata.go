package loam

// TemplateMetadata is the frontmatter (or JSON/YAML body) of a template document.
//
//	---
//	name: Landing Page
//	category: business
//	components:
//	  - id: hero-1
//	    type: Hero
//	    props: {title: Welcome}
//	---
//	Optional description, used when the description key is absent.
type TemplateMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Category    string `json:"category" mapstructure:"category"`

	// Components stays raw here; it is decoded into nodes after normalization.
	Components []any `json:"components" mapstructure:"components"`
}
