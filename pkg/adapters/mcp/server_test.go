package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/tessera"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := tessera.New()
	require.NoError(t, err)
	return NewServer(eng, nil)
}

func call(t *testing.T, s *Server, method string, params any) string {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)
	resp := s.MCPServer().HandleMessage(context.Background(), msg)
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(out)
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestToolsAreListed(t *testing.T) {
	s := newTestServer(t)
	out := call(t, s, "tools/list", map[string]any{})
	for _, name := range []string{
		"list_components", "list_templates", "list_pages", "create_page", "open_page",
		"insert_component", "patch_component", "remove_component", "move_component",
		"select_component", "undo", "redo", "save_page", "close_page", "render_page",
	} {
		assert.Contains(t, out, `"name":"`+name+`"`)
	}
}

func TestEditingTools(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	req := mcp.CallToolRequest{}

	view, err := s.handleCreatePage(ctx, req, CreateArgs{Page: "acme/home", Template: "about"})
	require.NoError(t, err)
	assert.Len(t, view.Schema.Components, 2)

	zero := 0
	view, err = s.handleInsert(ctx, req, InsertArgs{Page: "acme/home", Type: "Hero", Index: &zero})
	require.NoError(t, err)
	require.NotEmpty(t, view.NodeID)
	assert.Equal(t, view.NodeID, view.Schema.Components[0].ID)
	assert.True(t, view.Dirty)

	view, err = s.handlePatch(ctx, req, PatchArgs{Page: "acme/home", ID: "header", Props: map[string]any{"title": "Team", "secret": 1}})
	require.NoError(t, err)
	assert.Equal(t, "Team", view.Schema.Components[1].Props["title"])
	assert.NotContains(t, view.Schema.Components[1].Props, "secret")

	view, err = s.handleMove(ctx, req, MoveArgs{Page: "acme/home", ID: "content", Index: -10})
	require.NoError(t, err)
	assert.Equal(t, "content", view.Schema.Components[0].ID)

	view, err = s.handleSelect(ctx, req, NodeArgs{Page: "acme/home", ID: "content"})
	require.NoError(t, err)
	assert.Equal(t, "content", view.Selected)

	view, err = s.handleRemove(ctx, req, NodeArgs{Page: "acme/home", ID: "content"})
	require.NoError(t, err)
	assert.Len(t, view.Schema.Components, 2)
	assert.Empty(t, view.Selected, "removing the selected node clears the selection")

	view, err = s.handleUndo(ctx, req, PageArgs{Page: "acme/home"})
	require.NoError(t, err)
	assert.Len(t, view.Schema.Components, 3)
	assert.True(t, view.CanRedo)

	view, err = s.handleRedo(ctx, req, PageArgs{Page: "acme/home"})
	require.NoError(t, err)
	assert.Len(t, view.Schema.Components, 2)

	view, err = s.handleSave(ctx, req, PageArgs{Page: "acme/home"})
	require.NoError(t, err)
	assert.False(t, view.Dirty)

	res, err := s.handleRender(ctx, req, RenderArgs{Page: "acme/home", Public: true})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Team")

	res, err = s.handleClose(ctx, req, CloseArgs{Page: "acme/home"})
	require.NoError(t, err)
	assert.Equal(t, "Session acme/home closed", text(t, res))

	_, err = s.handleUndo(ctx, req, PageArgs{Page: "acme/home"})
	assert.Error(t, err, "session is closed")
}

func TestEditingTools_Errors(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	req := mcp.CallToolRequest{}

	_, err := s.handleOpenPage(ctx, req, PageArgs{})
	assert.EqualError(t, err, "page is required")

	_, err = s.handleOpenPage(ctx, req, PageArgs{Page: "missing"})
	assert.Error(t, err)

	_, err = s.handleCreatePage(ctx, req, CreateArgs{Page: "p", Template: "about"})
	require.NoError(t, err)
	_, err = s.handleInsert(ctx, req, InsertArgs{Page: "p", Type: "Carousel"})
	assert.ErrorContains(t, err, "Carousel")

	res, err := s.handleRender(ctx, req, RenderArgs{Page: "missing", Public: true})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestRenderPreviewWithOverrides(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)
	req := mcp.CallToolRequest{}

	_, err := s.handleCreatePage(ctx, req, CreateArgs{Page: "p", Template: "about"})
	require.NoError(t, err)

	res, err := s.handleRender(ctx, req, RenderArgs{
		Page:      "p",
		Overrides: map[string]map[string]any{"header": {"title": "Overridden"}},
	})
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "Overridden")
}

func TestCallToolThroughProtocol(t *testing.T) {
	s := newTestServer(t)

	out := call(t, s, "tools/call", map[string]any{
		"name":      "create_page",
		"arguments": map[string]any{"page": "home", "template": "landing"},
	})
	assert.Contains(t, out, `"structuredContent"`)
	assert.Contains(t, out, `"page":"home"`)

	out = call(t, s, "tools/call", map[string]any{
		"name":      "insert_component",
		"arguments": map[string]any{"page": "nope", "type": "Hero"},
	})
	assert.Contains(t, out, `"isError":true`)

	out = call(t, s, "tools/call", map[string]any{"name": "list_pages", "arguments": map[string]any{}})
	assert.Contains(t, out, `[\"home\"]`)
}

func TestResources(t *testing.T) {
	s := newTestServer(t)

	out := call(t, s, "resources/read", map[string]any{"uri": componentsURI})
	assert.Contains(t, out, `\"type\": \"Hero\"`)

	out = call(t, s, "resources/read", map[string]any{"uri": templatesURI})
	assert.Contains(t, out, `\"id\": \"landing\"`)

	_, err := s.handleCreatePage(context.Background(), mcp.CallToolRequest{}, CreateArgs{Page: "acme/about", Template: "about"})
	require.NoError(t, err)
	out = call(t, s, "resources/read", map[string]any{"uri": "tessera://pages/acme%2Fabout"})
	assert.Contains(t, out, `\"id\": \"header\"`)
}
