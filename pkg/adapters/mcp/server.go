package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/tessera"
	"github.com/aretw0/tessera/internal/logging"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/editor"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/aretw0/tessera/pkg/registry"
	"github.com/aretw0/tessera/pkg/render"
	"github.com/aretw0/tessera/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine defines the interface required by the MCP server to edit pages.
type Engine interface {
	Render(schema domain.Schema, overrides render.Overrides) domain.VisualTree
	Preview(ctx context.Context, pageRef string, overrides render.Overrides) (domain.VisualTree, error)
	Public(ctx context.Context, pageRef string) (domain.VisualTree, error)
	CreatePage(ctx context.Context, pageRef, templateID string) (editor.View, error)
	Registry() *registry.Registry
	Templates() ports.TemplateSource
	Sessions() *session.Manager
}

var _ Engine = (*tessera.Engine)(nil)

// Server wraps the Tessera Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer("tessera-mcp", strings.TrimSpace(tessera.Version),
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(true, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mostly for tests and custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ViewResponse is the observable editor state returned by every editing tool.
type ViewResponse struct {
	Page     string        `json:"page" jsonschema_description:"The page reference"`
	Schema   domain.Schema `json:"schema" jsonschema_description:"The current component tree"`
	Selected string        `json:"selected,omitempty" jsonschema_description:"The selected node id"`
	CanUndo  bool          `json:"canUndo"`
	CanRedo  bool          `json:"canRedo"`
	Dirty    bool          `json:"dirty" jsonschema_description:"Whether there are unsaved edits"`
	NodeID   string        `json:"nodeId,omitempty" jsonschema_description:"Id minted by insert_component"`
}

func newViewResponse(page string, v editor.View) ViewResponse {
	return ViewResponse{
		Page:     page,
		Schema:   v.Schema,
		Selected: v.Selected,
		CanUndo:  v.CanUndo,
		CanRedo:  v.CanRedo,
		Dirty:    v.Dirty,
	}
}

type PageArgs struct {
	Page string `json:"page"`
}

type CreateArgs struct {
	Page     string `json:"page"`
	Template string `json:"template"`
}

type InsertArgs struct {
	Page  string `json:"page"`
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`
}

type NodeArgs struct {
	Page string `json:"page"`
	ID   string `json:"id"`
}

type PatchArgs struct {
	Page   string            `json:"page"`
	ID     string            `json:"id"`
	Props  map[string]any    `json:"props,omitempty"`
	Styles map[string]string `json:"styles,omitempty"`
}

type MoveArgs struct {
	Page  string `json:"page"`
	ID    string `json:"id"`
	Index int    `json:"index"`
}

type CloseArgs struct {
	Page    string `json:"page"`
	Discard bool   `json:"discard,omitempty"`
}

type RenderArgs struct {
	Page      string           `json:"page"`
	Public    bool             `json:"public,omitempty"`
	Overrides render.Overrides `json:"overrides,omitempty"`
}

func pageParam() mcp.ToolOption {
	return mcp.WithString("page", mcp.Required(), mcp.Description("Page reference, e.g. acme/home"))
}

func nodeParam() mcp.ToolOption {
	return mcp.WithString("id", mcp.Required(), mcp.Description("Node id"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List the component types that can be inserted, with their default props."),
	), s.handleListComponents)

	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the page templates."),
	), s.handleListTemplates)

	s.mcpServer.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the stored pages."),
	), s.handleListPages)

	s.mcpServer.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a page from a template and open it for editing."),
		pageParam(),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template id")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreatePage))

	s.mcpServer.AddTool(mcp.NewTool("open_page",
		mcp.WithDescription("Open a stored page for editing. Reopening keeps unsaved edits."),
		pageParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleOpenPage))

	s.mcpServer.AddTool(mcp.NewTool("insert_component",
		mcp.WithDescription("Insert a new component built from its registry defaults."),
		pageParam(),
		mcp.WithString("type", mcp.Required(), mcp.Description("Component type, see list_components")),
		mcp.WithNumber("index", mcp.Description("Top-level position (optional, appends if omitted)")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleInsert))

	s.mcpServer.AddTool(mcp.NewTool("patch_component",
		mcp.WithDescription("Merge props and styles into a component. Non-editable props are ignored."),
		pageParam(),
		nodeParam(),
		mcp.WithObject("props", mcp.Description("Props to merge")),
		mcp.WithObject("styles", mcp.Description("Style entries to merge")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handlePatch))

	s.mcpServer.AddTool(mcp.NewTool("remove_component",
		mcp.WithDescription("Remove a component and its children."),
		pageParam(),
		nodeParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleRemove))

	s.mcpServer.AddTool(mcp.NewTool("move_component",
		mcp.WithDescription("Move a top-level component to a new position. The index is clamped."),
		pageParam(),
		nodeParam(),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Target position")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleMove))

	s.mcpServer.AddTool(mcp.NewTool("select_component",
		mcp.WithDescription("Select a component. An empty id clears the selection."),
		pageParam(),
		mcp.WithString("id", mcp.Description("Node id")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit."),
		pageParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone edit."),
		pageParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	s.mcpServer.AddTool(mcp.NewTool("save_page",
		mcp.WithDescription("Persist the page's current state."),
		pageParam(),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleSave))

	s.mcpServer.AddTool(mcp.NewTool("close_page",
		mcp.WithDescription("End the editing session. Unsaved edits are saved unless discard is set."),
		pageParam(),
		mcp.WithBoolean("discard", mcp.Description("Drop unsaved edits")),
	), mcp.NewTypedToolHandler(s.handleClose))

	s.mcpServer.AddTool(mcp.NewTool("render_page",
		mcp.WithDescription("Render the page to a visual tree. Renders the open session unless public is set."),
		pageParam(),
		mcp.WithBoolean("public", mcp.Description("Render the stored page, ignoring unsaved edits")),
		mcp.WithObject("overrides", mcp.Description("Per-node prop overrides, keyed by node id")),
	), mcp.NewTypedToolHandler(s.handleRender))
}

func (s *Server) handleListComponents(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Registry().Catalog())
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.engine.Templates().ListTemplates(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list templates failed: %v", err)), nil
	}
	return jsonResult(list)
}

func (s *Server) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := s.engine.Sessions().List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list pages failed: %v", err)), nil
	}
	if refs == nil {
		refs = []string{}
	}
	return jsonResult(refs)
}

func (s *Server) handleCreatePage(ctx context.Context, request mcp.CallToolRequest, args CreateArgs) (ViewResponse, error) {
	if err := required(args.Page, "page"); err != nil {
		return ViewResponse{}, err
	}
	view, err := s.engine.CreatePage(ctx, args.Page, args.Template)
	if err != nil {
		return ViewResponse{}, fmt.Errorf("create page failed: %w", err)
	}
	return newViewResponse(args.Page, view), nil
}

func (s *Server) handleOpenPage(ctx context.Context, request mcp.CallToolRequest, args PageArgs) (ViewResponse, error) {
	if err := required(args.Page, "page"); err != nil {
		return ViewResponse{}, err
	}
	view, err := s.engine.Sessions().Open(ctx, args.Page)
	if err != nil {
		return ViewResponse{}, fmt.Errorf("open page failed: %w", err)
	}
	return newViewResponse(args.Page, view), nil
}

func (s *Server) handleInsert(ctx context.Context, request mcp.CallToolRequest, args InsertArgs) (ViewResponse, error) {
	var id string
	resp, err := s.do(ctx, args.Page, "insert", func(e *editor.Session) (editor.View, error) {
		var at []int
		if args.Index != nil {
			at = []int{*args.Index}
		}
		v, minted, err := e.Insert(args.Type, at...)
		id = minted
		return v, err
	})
	resp.NodeID = id
	return resp, err
}

func (s *Server) handlePatch(ctx context.Context, request mcp.CallToolRequest, args PatchArgs) (ViewResponse, error) {
	return s.do(ctx, args.Page, "patch", func(e *editor.Session) (editor.View, error) {
		return e.Patch(args.ID, domain.Patch{Props: args.Props, Style: args.Styles})
	})
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest, args NodeArgs) (ViewResponse, error) {
	return s.do(ctx, args.Page, "remove", func(e *editor.Session) (editor.View, error) {
		return e.Remove(args.ID)
	})
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest, args MoveArgs) (ViewResponse, error) {
	return s.do(ctx, args.Page, "move", func(e *editor.Session) (editor.View, error) {
		return e.Move(args.ID, args.Index)
	})
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args NodeArgs) (ViewResponse, error) {
	return s.do(ctx, args.Page, "select", func(e *editor.Session) (editor.View, error) {
		return e.Select(args.ID)
	})
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args PageArgs) (ViewResponse, error) {
	return s.do(ctx, args.Page, "undo", (*editor.Session).Undo)
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args PageArgs) (ViewResponse, error) {
	return s.do(ctx, args.Page, "redo", (*editor.Session).Redo)
}

func (s *Server) handleSave(ctx context.Context, request mcp.CallToolRequest, args PageArgs) (ViewResponse, error) {
	if err := required(args.Page, "page"); err != nil {
		return ViewResponse{}, err
	}
	view, err := s.engine.Sessions().Save(ctx, args.Page)
	if err != nil {
		return ViewResponse{}, fmt.Errorf("save failed: %w", err)
	}
	return newViewResponse(args.Page, view), nil
}

func (s *Server) handleClose(ctx context.Context, request mcp.CallToolRequest, args CloseArgs) (*mcp.CallToolResult, error) {
	if err := required(args.Page, "page"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Discard {
		s.engine.Sessions().Discard(args.Page)
		return mcp.NewToolResultText(fmt.Sprintf("Session %s discarded", args.Page)), nil
	}
	if err := s.engine.Sessions().Close(ctx, args.Page); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("close failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s closed", args.Page)), nil
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args RenderArgs) (*mcp.CallToolResult, error) {
	if err := required(args.Page, "page"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var (
		tree domain.VisualTree
		err  error
	)
	if args.Public {
		tree, err = s.engine.Public(ctx, args.Page)
	} else {
		tree, err = s.engine.Preview(ctx, args.Page, args.Overrides)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("render failed: %v", err)), nil
	}
	return jsonResult(tree)
}

// do runs one editing intent against the page's open session.
func (s *Server) do(ctx context.Context, page, intent string, fn session.IntentFunc) (ViewResponse, error) {
	if err := required(page, "page"); err != nil {
		return ViewResponse{}, err
	}
	view, err := s.engine.Sessions().Do(ctx, page, fn)
	if err != nil {
		s.logger.Debug("MCP intent rejected", "intent", intent, "page_ref", page, "err", err)
		return ViewResponse{}, fmt.Errorf("%s failed: %w", intent, err)
	}
	return newViewResponse(page, view), nil
}

func required(v, name string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
