package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNode_CloneIsDeep(t *testing.T) {
	original := Node{
		ID:   "footer",
		Type: "Footer",
		Props: map[string]any{
			"copyright": "2024",
			"links": []any{
				map[string]any{"text": "Privacy", "href": "/privacy"},
			},
		},
		Style:    map[string]string{"padding": "8px"},
		Editable: []string{"copyright"},
		Children: []Node{{ID: "child", Type: "Header", Props: map[string]any{"title": "x"}}},
	}

	clone := original.Clone()
	clone.Props["copyright"] = "2025"
	clone.Props["links"].([]any)[0].(map[string]any)["text"] = "Changed"
	clone.Style["padding"] = "0"
	clone.Editable[0] = "links"
	clone.Children[0].Props["title"] = "y"

	assert.Equal(t, "2024", original.Props["copyright"])
	assert.Equal(t, "Privacy", original.Props["links"].([]any)[0].(map[string]any)["text"])
	assert.Equal(t, "8px", original.Style["padding"])
	assert.Equal(t, []string{"copyright"}, original.Editable)
	assert.Equal(t, "x", original.Children[0].Props["title"])
}

func TestNode_EditableKeys(t *testing.T) {
	implicit := Node{Props: map[string]any{"b": 1, "a": 2}}
	assert.Equal(t, []string{"a", "b"}, implicit.EditableKeys())
	assert.True(t, implicit.IsEditable("anything"))

	explicit := Node{Props: map[string]any{"b": 1, "a": 2}, Editable: []string{"b"}}
	assert.Equal(t, []string{"b"}, explicit.EditableKeys())
	assert.True(t, explicit.IsEditable("b"))
	assert.False(t, explicit.IsEditable("a"))

	locked := Node{Props: map[string]any{"a": 1}, Editable: []string{}}
	assert.Empty(t, locked.EditableKeys())
	assert.False(t, locked.IsEditable("a"))
}

func TestNode_CloneKeepsEmptyEditable(t *testing.T) {
	locked := Node{ID: "box", Type: "Container", Editable: []string{}}

	clone := locked.Clone()
	assert.NotNil(t, clone.Editable)
	assert.False(t, clone.IsEditable("tag"))
	assert.NotNil(t, locked.EditableKeys())

	open := Node{ID: "hero", Type: "Hero"}
	assert.Nil(t, open.Clone().Editable)
	assert.True(t, open.Clone().IsEditable("title"))
}

func TestNode_EditableSurvivesEncoding(t *testing.T) {
	nodes := []Node{
		{ID: "locked", Type: "Container", Editable: []string{}},
		{ID: "open", Type: "Hero"},
		{ID: "some", Type: "Hero", Editable: []string{"title"}},
	}

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(nodes)
		require.NoError(t, err)
		var got []Node
		require.NoError(t, json.Unmarshal(data, &got))
		assertEditable(t, got)
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(nodes)
		require.NoError(t, err)
		var got []Node
		require.NoError(t, yaml.Unmarshal(data, &got))
		assertEditable(t, got)
	})
}

func assertEditable(t *testing.T, got []Node) {
	t.Helper()
	require.Len(t, got, 3)
	assert.NotNil(t, got[0].Editable)
	assert.False(t, got[0].IsEditable("tag"))
	assert.Nil(t, got[1].Editable)
	assert.True(t, got[1].IsEditable("title"))
	assert.Equal(t, []string{"title"}, got[2].Editable)
}

func TestSchema_Clone(t *testing.T) {
	s := NewSchema(Node{ID: "a", Type: "Header", Props: map[string]any{"title": "t"}})
	s.Metadata = &Metadata{Name: "Home"}

	c := s.Clone()
	c.Components[0].Props["title"] = "changed"
	c.Metadata.Name = "Other"

	assert.Equal(t, KindPage, c.Kind)
	assert.Equal(t, "t", s.Components[0].Props["title"])
	assert.Equal(t, "Home", s.Metadata.Name)
}

func TestVisualTree_Find(t *testing.T) {
	tree := VisualTree{Elements: []Element{
		{Key: "outer", Tag: "div", Children: []Element{
			{Tag: "h1", Text: "x"},
			{Key: "inner", Tag: "section"},
		}},
	}}

	el, ok := tree.Find("inner")
	assert.True(t, ok)
	assert.Equal(t, "section", el.Tag)

	_, ok = tree.Find("missing")
	assert.False(t, ok)
}
