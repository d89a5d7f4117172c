package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts a Loam document repository to ports.TemplateSource.
type Loader struct {
	Repo *loam.TypedRepository[TemplateMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[TemplateMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository at dir and wraps it.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode returns json.Number for every numeric value, across
	// the JSON and Markdown/YAML serializers alike.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TemplateMetadata](repo)), nil
}

// ListTemplates decodes every document in the repository, ordered by id.
func (l *Loader) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	templates := make([]domain.Template, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		tmpl, err := buildTemplate(id, doc.Data, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", doc.ID, err)
		}
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}

// GetTemplate returns the template with the given id.
// Ids come from the id key when present, so lookup goes through the listing.
func (l *Loader) GetTemplate(ctx context.Context, id string) (domain.Template, error) {
	templates, err := l.ListTemplates(ctx)
	if err != nil {
		return domain.Template{}, err
	}
	id = trimExtension(id)
	for _, tmpl := range templates {
		if tmpl.ID == id {
			return tmpl, nil
		}
	}
	return domain.Template{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
}

func buildTemplate(id string, meta TemplateMetadata, content string) (domain.Template, error) {
	var nodes []domain.Node
	if len(meta.Components) > 0 {
		if err := mapstructure.Decode(normalize(meta.Components), &nodes); err != nil {
			return domain.Template{}, fmt.Errorf("failed to decode components: %w", err)
		}
	}

	name := meta.Name
	if name == "" {
		name = id
	}
	description := meta.Description
	if description == "" {
		description = strings.TrimSpace(content)
	}

	schema := domain.NewSchema(nodes...)
	schema.Metadata = &domain.Metadata{
		Name:        name,
		Description: description,
		Category:    meta.Category,
	}

	return domain.Template{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    meta.Category,
		Schema:      schema,
	}, nil
}

// normalize turns YAML-decoded maps into map[string]any and json.Number into
// int64 or float64, so props render and serialize like JSON-loaded ones.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[k] = normalize(sub)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalize(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalize(sub)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return val
	}
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
