package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/tessera"
	"github.com/aretw0/tessera/internal/presentation/graph"
	"github.com/aretw0/tessera/internal/presentation/tui"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/render"
	"github.com/aretw0/tessera/pkg/tree"
	"gopkg.in/yaml.v3"
)

// Output formats of the render command.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatTerm     = "term"
	FormatMermaid  = "mermaid"
)

// Source names where a schema comes from. Exactly one field must be set.
type Source struct {
	Page     string
	Template string
	File     string
}

// RenderOptions configures Render.
type RenderOptions struct {
	Source
	Format string
	// Overrides is a JSON object of per-node prop overrides.
	Overrides string
	// Width wraps term output; 0 uses the terminal width.
	Width int
}

// LoadSchema resolves src against the engine.
func LoadSchema(ctx context.Context, eng *tessera.Engine, src Source) (domain.Schema, error) {
	set := 0
	for _, v := range []string{src.Page, src.Template, src.File} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return domain.Schema{}, errors.New("exactly one of --page, --template or --file is required")
	}

	switch {
	case src.Page != "":
		return eng.Store().Load(ctx, src.Page)
	case src.Template != "":
		tmpl, err := eng.Templates().GetTemplate(ctx, src.Template)
		if err != nil {
			return domain.Schema{}, err
		}
		return tmpl.Schema, nil
	default:
		return readSchemaFile(src.File)
	}
}

// readSchemaFile reads a JSON or YAML schema. "-" reads stdin.
func readSchemaFile(path string) (domain.Schema, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to read schema: %w", err)
	}

	var schema domain.Schema
	// YAML is a superset of JSON, so one decoder covers both.
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return domain.Schema{}, fmt.Errorf("failed to parse schema %s: %w", path, err)
	}
	if schema.Kind == "" {
		schema.Kind = domain.KindPage
	}
	return schema, nil
}

// Render writes a schema in the requested format.
func Render(ctx context.Context, eng *tessera.Engine, opts RenderOptions, w io.Writer) error {
	schema, err := LoadSchema(ctx, eng, opts.Source)
	if err != nil {
		return err
	}

	var overrides render.Overrides
	if opts.Overrides != "" {
		if err := json.Unmarshal([]byte(opts.Overrides), &overrides); err != nil {
			return fmt.Errorf("error parsing --overrides JSON: %w", err)
		}
	}

	switch opts.Format {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(eng.Render(schema, overrides))
	case FormatMarkdown:
		_, err := io.WriteString(w, tui.Markdown(eng.Render(schema, overrides)))
		return err
	case FormatTerm:
		renderer, err := tui.NewRenderer(opts.Width)
		if err != nil {
			return err
		}
		out, err := renderer(tui.Markdown(eng.Render(schema, overrides)))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatMermaid:
		reg := eng.Registry()
		_, err := io.WriteString(w, graph.GenerateMermaid(schema, &graph.Overlay{
			Known: func(typ string) bool {
				_, ok := reg.Lookup(typ)
				return ok
			},
		}))
		return err
	default:
		return fmt.Errorf("unknown format %q (json, markdown, term, mermaid)", opts.Format)
	}
}

// Validate reports every problem of the schema: duplicate ids and prop
// contract violations. Unknown component types are not problems.
func Validate(ctx context.Context, eng *tessera.Engine, src Source) ([]string, error) {
	schema, err := LoadSchema(ctx, eng, src)
	if err != nil {
		return nil, err
	}

	var problems []string
	if dups := tree.Duplicates(schema); len(dups) > 0 {
		problems = append(problems, "duplicate node ids: "+strings.Join(dups, ", "))
	}
	if err := eng.Validate(schema); err != nil {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				problems = append(problems, e.Error())
			}
		} else {
			problems = append(problems, err.Error())
		}
	}
	return problems, nil
}

// ListTemplates writes the template catalog as a table.
func ListTemplates(ctx context.Context, eng *tessera.Engine, w io.Writer) error {
	list, err := eng.Templates().ListTemplates(ctx)
	if err != nil {
		return err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tCOMPONENTS")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", t.ID, t.Name, t.Category, len(tree.IDs(t.Schema)))
	}
	return tw.Flush()
}

// NewPage creates ref from a template and persists it.
func NewPage(ctx context.Context, eng *tessera.Engine, ref, templateID string, w io.Writer) error {
	if _, err := eng.CreatePage(ctx, ref, templateID); err != nil {
		return err
	}
	if err := eng.Sessions().Close(ctx, ref); err != nil {
		return err
	}
	printSystemMessage(w, "Created page '%s' from template '%s'.", ref, templateID)
	return nil
}
