package components

import (
	"fmt"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// HeroProps are the props understood by the Hero component.
type HeroProps struct {
	Title    string `mapstructure:"title"`
	Subtitle string `mapstructure:"subtitle"`
	CTAText  string `mapstructure:"ctaText"`
	CTALink  string `mapstructure:"ctaLink"`
}

type ContentSectionProps struct {
	Heading string `mapstructure:"heading"`
	Content string `mapstructure:"content"`
}

type HeaderProps struct {
	Title string `mapstructure:"title"`
}

// Link is one footer navigation entry.
type Link struct {
	Text string `mapstructure:"text"`
	Href string `mapstructure:"href"`
}

type FooterProps struct {
	Copyright string `mapstructure:"copyright"`
	Links     []Link `mapstructure:"links"`
}

// FormField is one input of a contact form.
type FormField struct {
	Name     string `mapstructure:"name"`
	Label    string `mapstructure:"label"`
	Type     string `mapstructure:"type"`
	Required bool   `mapstructure:"required"`
}

type ContactFormProps struct {
	Fields     []FormField `mapstructure:"fields"`
	SubmitText string      `mapstructure:"submitText"`
}

type ContainerProps struct {
	Tag string `mapstructure:"tag"`
}

// Renderers maps every built-in type to its renderer.
var Renderers = map[string]registry.RenderFunc{
	"Hero":           Hero,
	"ContentSection": ContentSection,
	"Header":         Header,
	"Footer":         Footer,
	"ContactForm":    ContactForm,
	"Container":      Container,
}

// DecodeProps decodes a prop bag into a typed struct.
// Numbers and booleans sent as strings are converted; unknown keys are ignored.
func DecodeProps(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func Hero(in registry.Input) domain.Element {
	var p HeroProps
	if err := DecodeProps(in.Props, &p); err != nil {
		return invalid(in, err)
	}

	section := domain.Element{Tag: "section", Style: in.Style}
	section.Children = append(section.Children, domain.Element{Tag: "h1", Text: p.Title})
	if p.Subtitle != "" {
		section.Children = append(section.Children, domain.Element{Tag: "p", Text: p.Subtitle})
	}
	if p.CTAText != "" && p.CTALink != "" {
		section.Children = append(section.Children, domain.Element{
			Tag:   "a",
			Text:  p.CTAText,
			Attrs: map[string]string{"href": p.CTALink},
		})
	}
	section.Children = append(section.Children, in.Children...)
	return section
}

func ContentSection(in registry.Input) domain.Element {
	var p ContentSectionProps
	if err := DecodeProps(in.Props, &p); err != nil {
		return invalid(in, err)
	}

	section := domain.Element{Tag: "section", Style: in.Style}
	if p.Heading != "" {
		section.Children = append(section.Children, domain.Element{Tag: "h2", Text: p.Heading})
	}
	if p.Content != "" {
		section.Children = append(section.Children, domain.Element{Tag: "p", Text: p.Content})
	}
	section.Children = append(section.Children, in.Children...)
	return section
}

func Header(in registry.Input) domain.Element {
	var p HeaderProps
	if err := DecodeProps(in.Props, &p); err != nil {
		return invalid(in, err)
	}

	header := domain.Element{Tag: "header", Style: in.Style}
	if p.Title != "" {
		header.Children = append(header.Children, domain.Element{Tag: "h1", Text: p.Title})
	}
	header.Children = append(header.Children, in.Children...)
	return header
}

func Footer(in registry.Input) domain.Element {
	var p FooterProps
	if err := DecodeProps(in.Props, &p); err != nil {
		return invalid(in, err)
	}

	footer := domain.Element{Tag: "footer", Style: in.Style}
	if p.Copyright != "" {
		footer.Children = append(footer.Children, domain.Element{Tag: "p", Text: p.Copyright})
	}
	if len(p.Links) > 0 {
		nav := domain.Element{Tag: "nav"}
		for _, l := range p.Links {
			nav.Children = append(nav.Children, domain.Element{
				Tag:   "a",
				Text:  l.Text,
				Attrs: map[string]string{"href": l.Href},
			})
		}
		footer.Children = append(footer.Children, nav)
	}
	footer.Children = append(footer.Children, in.Children...)
	return footer
}

func ContactForm(in registry.Input) domain.Element {
	var p ContactFormProps
	if err := DecodeProps(in.Props, &p); err != nil {
		return invalid(in, err)
	}
	if p.SubmitText == "" {
		p.SubmitText = "Submit"
	}

	form := domain.Element{Tag: "form"}
	for _, f := range p.Fields {
		label := domain.Element{Tag: "label", Text: f.Label}
		if f.Required {
			label.Children = []domain.Element{{Tag: "span", Text: "*"}}
		}

		attrs := map[string]string{"name": f.Name}
		if f.Required {
			attrs["required"] = "true"
		}
		input := domain.Element{Tag: "textarea", Attrs: attrs}
		if f.Type != "textarea" {
			input.Tag = "input"
			attrs["type"] = f.Type
		}

		form.Children = append(form.Children, domain.Element{
			Tag:      "div",
			Children: []domain.Element{label, input},
		})
	}
	form.Children = append(form.Children, domain.Element{
		Tag:   "button",
		Text:  p.SubmitText,
		Attrs: map[string]string{"type": "submit"},
	})

	section := domain.Element{Tag: "section", Style: in.Style, Children: []domain.Element{form}}
	section.Children = append(section.Children, in.Children...)
	return section
}

// Container groups its children without content of its own.
func Container(in registry.Input) domain.Element {
	var p ContainerProps
	if err := DecodeProps(in.Props, &p); err != nil {
		return invalid(in, err)
	}
	if p.Tag == "" {
		p.Tag = "div"
	}
	return domain.Element{Tag: p.Tag, Style: in.Style, Children: in.Children}
}

// invalid keeps a node with undecodable props visible instead of dropping it.
func invalid(in registry.Input, err error) domain.Element {
	return domain.Element{
		Tag:         "div",
		Text:        fmt.Sprintf("Invalid %s props: %v", in.Type, err),
		Placeholder: true,
		Children:    in.Children,
	}
}
