package components

import (
	"context"
	_ "embed"
	"fmt"
	"sort"

	"github.com/aretw0/tessera/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Library is an in-memory template source.
type Library struct {
	byID map[string]domain.Template
	ids  []string
}

// Templates returns the built-in template library.
func Templates() (*Library, error) {
	return ParseTemplates(templatesYAML)
}

// ParseTemplates decodes a YAML (or JSON) list of templates.
func ParseTemplates(data []byte) (*Library, error) {
	var list []domain.Template
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return NewLibrary(list...)
}

// NewLibrary builds a library from templates. Ids must be unique.
func NewLibrary(templates ...domain.Template) (*Library, error) {
	lib := &Library{byID: make(map[string]domain.Template, len(templates))}
	for _, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template %q has no id", t.Name)
		}
		if _, dup := lib.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		if t.Schema.Kind == "" {
			t.Schema.Kind = domain.KindPage
		}
		lib.byID[t.ID] = t
		lib.ids = append(lib.ids, t.ID)
	}
	sort.Strings(lib.ids)
	return lib, nil
}

func (l *Library) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	out := make([]domain.Template, 0, len(l.ids))
	for _, id := range l.ids {
		t := l.byID[id]
		t.Schema = t.Schema.Clone()
		out = append(out, t)
	}
	return out, nil
}

func (l *Library) GetTemplate(ctx context.Context, id string) (domain.Template, error) {
	t, ok := l.byID[id]
	if !ok {
		return domain.Template{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	t.Schema = t.Schema.Clone()
	return t, nil
}
