package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/tessera"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *tessera.Engine {
	t.Helper()
	eng, err := tessera.New()
	require.NoError(t, err)
	return eng
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestRender_Formats(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	tests := []struct {
		format string
		want   []string
	}{
		{FormatJSON, []string{`"key": "hero"`, `"text": "Welcome to Our Website"`}},
		{FormatMarkdown, []string{"# Welcome to Our Website", "[Get Started](/signup)"}},
		{FormatTerm, []string{"Welcome to Our Website"}},
		{FormatMermaid, []string{"graph TD", `n_hero["hero <br/> Hero"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			err := Render(ctx, eng, RenderOptions{Source: Source{Template: "landing"}, Format: tt.format, Width: 60}, &buf)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRender_OverridesAndFile(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	path := writeFile(t, "page.yaml", `
components:
  - id: top
    type: Header
    props: {title: From file}
  - id: odd
    type: Carousel
    props: {}
`)

	var buf bytes.Buffer
	err := Render(ctx, eng, RenderOptions{
		Source:    Source{File: path},
		Format:    FormatJSON,
		Overrides: `{"top": {"title": "Overridden"}}`,
	}, &buf)
	require.NoError(t, err)

	var tree domain.VisualTree
	require.NoError(t, json.Unmarshal(buf.Bytes(), &tree))
	top, ok := tree.Find("top")
	require.True(t, ok)
	assert.Equal(t, "Overridden", top.Children[0].Text)
	odd, ok := tree.Find("odd")
	require.True(t, ok)
	assert.True(t, odd.Placeholder)

	buf.Reset()
	err = Render(ctx, eng, RenderOptions{Source: Source{File: path}, Format: FormatMermaid}, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "class n_odd unknown;")
}

func TestRender_Errors(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	var buf bytes.Buffer

	err := Render(ctx, eng, RenderOptions{}, &buf)
	assert.ErrorContains(t, err, "exactly one of")

	err = Render(ctx, eng, RenderOptions{Source: Source{Page: "a", Template: "b"}}, &buf)
	assert.ErrorContains(t, err, "exactly one of")

	err = Render(ctx, eng, RenderOptions{Source: Source{Page: "missing"}}, &buf)
	assert.ErrorIs(t, err, domain.ErrPageNotFound)

	err = Render(ctx, eng, RenderOptions{Source: Source{Template: "landing"}, Format: "pdf"}, &buf)
	assert.ErrorContains(t, err, "unknown format")

	err = Render(ctx, eng, RenderOptions{Source: Source{Template: "landing"}, Overrides: "{"}, &buf)
	assert.ErrorContains(t, err, "--overrides")
}

func TestRender_StoredPage(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)
	var out bytes.Buffer
	require.NoError(t, NewPage(ctx, eng, "acme/about", "about", &out))
	assert.Contains(t, out.String(), "Created page 'acme/about'")
	assert.Empty(t, eng.Sessions().Sessions(), "new closes its session")

	var buf bytes.Buffer
	require.NoError(t, Render(ctx, eng, RenderOptions{Source: Source{Page: "acme/about"}, Format: FormatMarkdown}, &buf))
	assert.Contains(t, buf.String(), "# About Us")

	assert.ErrorIs(t, NewPage(ctx, eng, "acme/about", "about", &out), domain.ErrPageExists)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	eng := newEngine(t)

	problems, err := Validate(ctx, eng, Source{Template: "landing"})
	require.NoError(t, err)
	assert.Empty(t, problems)

	path := writeFile(t, "bad.json", `{
  "type": "page",
  "components": [
    {"id": "a", "type": "Hero", "props": {"title": 1}},
    {"id": "a", "type": "Header", "props": {"title": 2}},
    {"id": "c", "type": "Carousel", "props": {}}
  ]
}`)
	problems, err = Validate(ctx, eng, Source{File: path})
	require.NoError(t, err)
	require.Len(t, problems, 3)
	assert.Equal(t, "duplicate node ids: a", problems[0])
}

func TestListTemplates(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListTemplates(context.Background(), newEngine(t), &buf))
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "landing")
	assert.Contains(t, out, "Landing Page")
}
