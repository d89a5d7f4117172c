package tree_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() domain.Schema {
	return domain.NewSchema(
		domain.Node{ID: "hero", Type: "Hero", Props: map[string]any{"title": "Welcome", "subtitle": "Hi"}},
		domain.Node{ID: "body", Type: "Container", Props: map[string]any{}, Children: []domain.Node{
			{ID: "text", Type: "ContentSection", Props: map[string]any{"heading": "About"}, Style: map[string]string{"padding": "4px"}},
			{ID: "form", Type: "ContactForm", Props: map[string]any{"submitText": "Send"}},
		}},
		domain.Node{ID: "footer", Type: "Footer", Props: map[string]any{"copyright": "2024"}},
	)
}

func topIDs(s domain.Schema) []string {
	ids := make([]string, len(s.Components))
	for i, n := range s.Components {
		ids[i] = n.ID
	}
	return ids
}

func snapshot(t *testing.T, s domain.Schema) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

func TestAdd_ClampsIndex(t *testing.T) {
	s := sample()
	n := domain.Node{ID: "new", Type: "Header"}

	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"negative", -5, []string{"new", "hero", "body", "footer"}},
		{"huge", 1_000_000_000, []string{"hero", "body", "footer", "new"}},
		{"middle", 1, []string{"hero", "new", "body", "footer"}},
		{"end", 3, []string{"hero", "body", "footer", "new"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := tree.Add(s, n, tt.index)
			assert.True(t, changed)
			assert.Equal(t, tt.want, topIDs(out))
		})
	}

	assert.Equal(t, []string{"hero", "body", "footer"}, topIDs(s), "input must not change")
}

func TestAdd_EmptySchema(t *testing.T) {
	out, _ := tree.Add(domain.Schema{}, domain.Node{ID: "a"}, 7)
	assert.Equal(t, []string{"a"}, topIDs(out))
	assert.Equal(t, domain.KindPage, out.Kind)
}

func TestAdd_CopiesNode(t *testing.T) {
	node := domain.Node{
		ID: "nav", Type: "Nav",
		Props:    map[string]any{"links": []any{map[string]any{"text": "Home"}}},
		Style:    map[string]string{"gap": "4px"},
		Children: []domain.Node{{ID: "logo", Type: "Text", Props: map[string]any{"text": "Acme"}}},
	}
	out, _ := tree.Add(domain.NewSchema(), node, 0)

	node.Props["links"].([]any)[0].(map[string]any)["text"] = "Changed"
	node.Style["gap"] = "0"
	node.Children[0].Props["text"] = "Changed"

	got := out.Components[0]
	assert.Equal(t, "Home", got.Props["links"].([]any)[0].(map[string]any)["text"])
	assert.Equal(t, "4px", got.Style["gap"])
	assert.Equal(t, "Acme", got.Children[0].Props["text"])
}

func TestAppend(t *testing.T) {
	out, changed := tree.Append(sample(), domain.Node{ID: "last"})
	assert.True(t, changed)
	assert.Equal(t, "last", out.Components[3].ID)
}

func TestAddRemoveInverse(t *testing.T) {
	s := sample()
	for _, idx := range []int{-1, 0, 1, 2, 3, 99} {
		added, _ := tree.Add(s, domain.Node{ID: "tmp", Type: "Header"}, idx)
		removed, changed := tree.Remove(added, "tmp")
		assert.True(t, changed)
		assert.Equal(t, topIDs(s), topIDs(removed), "index %d", idx)
	}
}

func TestPatch_PartialMerge(t *testing.T) {
	s := sample()
	before := snapshot(t, s)

	out, changed := tree.Patch(s, "hero", domain.Patch{Props: map[string]any{"title": "New"}})
	require.True(t, changed)

	hero, ok := tree.Find(out, "hero")
	require.True(t, ok)
	assert.Equal(t, "New", hero.Props["title"])
	assert.Equal(t, "Hi", hero.Props["subtitle"], "other keys must survive")

	// Every other node is untouched.
	for _, id := range []string{"body", "text", "form", "footer"} {
		a, _ := tree.Find(s, id)
		b, _ := tree.Find(out, id)
		assert.Equal(t, a, b, id)
	}
	assert.Equal(t, before, snapshot(t, s), "input must not change")
}

func TestPatch_NestedAndStyle(t *testing.T) {
	s := sample()
	out, changed := tree.Patch(s, "text", domain.Patch{
		Props: map[string]any{"content": "Body"},
		Style: map[string]string{"color": "red"},
	})
	require.True(t, changed)

	text, _ := tree.Find(out, "text")
	assert.Equal(t, "About", text.Props["heading"])
	assert.Equal(t, "Body", text.Props["content"])
	assert.Equal(t, map[string]string{"padding": "4px", "color": "red"}, text.Style)

	original, _ := tree.Find(s, "text")
	assert.NotContains(t, original.Props, "content")
	assert.NotContains(t, original.Style, "color")
}

func TestPatch_CopiesValues(t *testing.T) {
	links := []any{"/a"}
	out, changed := tree.Patch(sample(), "hero", domain.Patch{Props: map[string]any{"links": links}})
	require.True(t, changed)

	links[0] = "/b"
	hero, _ := tree.Find(out, "hero")
	assert.Equal(t, []any{"/a"}, hero.Props["links"])
}

func TestPatch_NoOps(t *testing.T) {
	s := sample()

	out, changed := tree.Patch(s, "missing", domain.Patch{Props: map[string]any{"x": 1}})
	assert.False(t, changed)
	assert.Equal(t, snapshot(t, s), snapshot(t, out))

	_, changed = tree.Patch(s, "hero", domain.Patch{Props: map[string]any{"title": "Welcome"}})
	assert.False(t, changed, "identical values are not a change")

	_, changed = tree.Patch(s, "hero", domain.Patch{})
	assert.False(t, changed)
}

func TestPatch_FirstMatchWins(t *testing.T) {
	s := domain.NewSchema(
		domain.Node{ID: "wrap", Children: []domain.Node{{ID: "dup", Props: map[string]any{"v": 1}}}},
		domain.Node{ID: "dup", Props: map[string]any{"v": 1}},
	)
	out, changed := tree.Patch(s, "dup", domain.Patch{Props: map[string]any{"v": 2}})
	require.True(t, changed)
	assert.Equal(t, 2, out.Components[0].Children[0].Props["v"])
	assert.Equal(t, 1, out.Components[1].Props["v"])
}

func TestRemove(t *testing.T) {
	s := sample()

	out, changed := tree.Remove(s, "form")
	require.True(t, changed)
	assert.False(t, tree.Contains(out, "form"))
	assert.True(t, tree.Contains(s, "form"), "input must not change")
	assert.Equal(t, []string{"hero", "body", "text", "footer"}, tree.IDs(out))

	out, changed = tree.Remove(s, "body")
	require.True(t, changed)
	assert.Equal(t, []string{"hero", "footer"}, tree.IDs(out))

	_, changed = tree.Remove(s, "nope")
	assert.False(t, changed)
}

func TestMove(t *testing.T) {
	s := sample()

	out, changed := tree.Move(s, "footer", 0)
	require.True(t, changed)
	assert.Equal(t, []string{"footer", "hero", "body"}, topIDs(out))

	out, changed = tree.Move(s, "hero", 42)
	require.True(t, changed)
	assert.Equal(t, []string{"body", "footer", "hero"}, topIDs(out))

	out, changed = tree.Move(s, "body", -3)
	require.True(t, changed)
	assert.Equal(t, []string{"body", "hero", "footer"}, topIDs(out))

	_, changed = tree.Move(s, "hero", 0)
	assert.False(t, changed, "same position")

	_, changed = tree.Move(s, "text", 0)
	assert.False(t, changed, "nested nodes are not moved")

	assert.Equal(t, []string{"hero", "body", "footer"}, topIDs(s))
}

func TestQueries(t *testing.T) {
	s := sample()

	assert.Equal(t, []string{"hero", "body", "text", "form", "footer"}, tree.IDs(s))
	assert.Equal(t, 2, tree.Index(s, "footer"))
	assert.Equal(t, -1, tree.Index(s, "text"))
	assert.Empty(t, tree.Duplicates(s))

	depths := map[string]int{}
	tree.Walk(s, func(n domain.Node, depth int) bool {
		depths[n.ID] = depth
		return n.ID != "body"
	})
	assert.NotContains(t, depths, "text", "children skipped when fn returns false")
	assert.Equal(t, 0, depths["footer"])

	conflicts := tree.Conflicts(s, domain.Node{ID: "fresh", Children: []domain.Node{{ID: "text"}, {ID: "x"}, {ID: "x"}}})
	assert.Equal(t, []string{"text", "x"}, conflicts)

	dup, _ := tree.Append(s, domain.Node{ID: "hero"})
	assert.Equal(t, []string{"hero"}, tree.Duplicates(dup))
}
