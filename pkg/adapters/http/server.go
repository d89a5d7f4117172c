package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/tessera"
	"github.com/aretw0/tessera/internal/logging"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/editor"
	"github.com/aretw0/tessera/pkg/persistence/middleware"
	"github.com/aretw0/tessera/pkg/ports"
	"github.com/aretw0/tessera/pkg/registry"
	"github.com/aretw0/tessera/pkg/render"
	"github.com/aretw0/tessera/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the subset of *tessera.Engine the HTTP surface needs.
type Engine interface {
	Render(schema domain.Schema, overrides render.Overrides) domain.VisualTree
	Preview(ctx context.Context, pageRef string, overrides render.Overrides) (domain.VisualTree, error)
	Public(ctx context.Context, pageRef string) (domain.VisualTree, error)
	CreatePage(ctx context.Context, pageRef, templateID string) (editor.View, error)
	Validate(schema domain.Schema) error
	Watch(ctx context.Context) (<-chan string, error)
	Registry() *registry.Registry
	Templates() ports.TemplateSource
	Sessions() *session.Manager
}

var _ Engine = (*tessera.Engine)(nil)

// Server exposes editing intents and rendering over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	spec     *openapi3.T
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer sets the registry served on /metrics (default: the global one).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer validates the OpenAPI document and subscribes to page changes.
func NewServer(engine Engine, opts ...Option) (*Server, error) {
	s := &Server{
		Engine:   engine,
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	spec, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	s.spec = spec
	s.Streams = NewStreamManager(s.logger)

	engine.Sessions().Observe(func(pageRef string, diff *domain.SchemaDiff) {
		bytes, err := json.Marshal(diff)
		if err != nil {
			s.logger.Error("failed to encode diff", "page_ref", pageRef, "err", err)
			return
		}
		s.Streams.Broadcast(pageRef, string(bytes))
	})
	return s, nil
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s, err := NewServer(engine, opts...)
	if err != nil {
		return nil, err
	}
	return s.Routes(), nil
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/components", s.ListComponents)
	r.Get("/templates", s.ListTemplates)
	r.Get("/templates/{id}", s.GetTemplate)
	r.Post("/render", s.Render)
	r.Post("/validate", s.Validate)
	r.Get("/events", s.SubscribeEvents)

	r.Route("/pages", func(r chi.Router) {
		r.Get("/", s.ListPages)
		r.Post("/", s.CreatePage)
		r.Route("/{ref}", func(r chi.Router) {
			r.Delete("/", s.DeletePage)
			r.Post("/open", s.OpenPage)
			r.Get("/session", s.GetSession)
			r.Delete("/session", s.CloseSession)
			r.Post("/save", s.SavePage)
			r.Post("/select", s.Select)
			r.Post("/insert", s.Insert)
			r.Post("/nodes", s.AddNode)
			r.Patch("/nodes/{id}", s.PatchNode)
			r.Delete("/nodes/{id}", s.RemoveNode)
			r.Post("/nodes/{id}/move", s.MoveNode)
			r.Post("/undo", s.Undo)
			r.Post("/redo", s.Redo)
			r.Post("/preview", s.Preview)
			r.Get("/public", s.Public)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Tessera API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec != nil && s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "tessera-http",
		"version":     strings.TrimSpace(tessera.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) ListComponents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Registry().Catalog())
}

func (s *Server) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.Engine.Templates().ListTemplates(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.Engine.Templates().GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

type renderRequest struct {
	Schema    domain.Schema    `json:"schema"`
	Overrides render.Overrides `json:"overrides,omitempty"`
}

// Render handles the POST /render request. It renders a schema sent by the client.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if !s.decode(w, r, &body) {
		return
	}
	writeJSON(w, http.StatusOK, s.Engine.Render(body.Schema, body.Overrides))
}

func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body renderRequest
	if !s.decode(w, r, &body) {
		return
	}
	resp := struct {
		Valid    bool     `json:"valid"`
		Problems []string `json:"problems,omitempty"`
	}{Valid: true}

	if err := s.Engine.Validate(body.Schema); err != nil {
		resp.Valid = false
		resp.Problems = problems(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	refs, err := s.Engine.Sessions().List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if refs == nil {
		refs = []string{}
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) CreatePage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref      string `json:"ref"`
		Template string `json:"template"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	if body.Ref == "" {
		http.Error(w, "ref is required", http.StatusBadRequest)
		return
	}
	view, err := s.Engine.CreatePage(r.Context(), body.Ref, body.Template)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	if err := s.Engine.Sessions().Delete(r.Context(), ref); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) OpenPage(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	view, err := s.Engine.Sessions().Open(r.Context(), ref)
	s.respond(w, r, view, err)
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	view, err := s.Engine.Sessions().View(ref)
	s.respond(w, r, view, err)
}

// CloseSession saves unsaved edits and ends the session, or drops them with ?discard=true.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	if discard, _ := strconv.ParseBool(r.URL.Query().Get("discard")); discard {
		s.Engine.Sessions().Discard(ref)
	} else if err := s.Engine.Sessions().Close(r.Context(), ref); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SavePage(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	view, err := s.Engine.Sessions().Save(r.Context(), ref)
	s.respond(w, r, view, err)
}

func (s *Server) Select(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	s.intent(w, r, &body, func(e *editor.Session) (editor.View, error) {
		return e.Select(body.ID)
	})
}

func (s *Server) Insert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type  string `json:"type"`
		Index *int   `json:"index,omitempty"`
	}
	ref, ok := s.pageRef(w, r)
	if !ok || !s.decode(w, r, &body) {
		return
	}

	var id string
	view, err := s.Engine.Sessions().Do(r.Context(), ref, func(e *editor.Session) (editor.View, error) {
		var (
			v   editor.View
			err error
		)
		v, id, err = e.Insert(body.Type, at(body.Index)...)
		return v, err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "view": view})
}

func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Node  domain.Node `json:"node"`
		Index *int        `json:"index,omitempty"`
	}
	s.intent(w, r, &body, func(e *editor.Session) (editor.View, error) {
		return e.Add(body.Node, at(body.Index)...)
	})
}

func (s *Server) PatchNode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Props  map[string]any    `json:"props,omitempty"`
		Styles map[string]string `json:"styles,omitempty"`
	}
	id := chi.URLParam(r, "id")
	s.intent(w, r, &body, func(e *editor.Session) (editor.View, error) {
		return e.Patch(id, domain.Patch{Props: body.Props, Style: body.Styles})
	})
}

func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.intent(w, r, nil, func(e *editor.Session) (editor.View, error) {
		return e.Remove(id)
	})
}

func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index int `json:"index"`
	}
	id := chi.URLParam(r, "id")
	s.intent(w, r, &body, func(e *editor.Session) (editor.View, error) {
		return e.Move(id, body.Index)
	})
}

func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.intent(w, r, nil, (*editor.Session).Undo)
}

func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.intent(w, r, nil, (*editor.Session).Redo)
}

func (s *Server) Preview(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	var body renderRequest
	if r.ContentLength != 0 && !s.decode(w, r, &body) {
		return
	}
	tree, err := s.Engine.Preview(r.Context(), ref, body.Overrides)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) Public(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	tree, err := s.Engine.Public(r.Context(), ref)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// -- Helpers --

// intent decodes body (when not nil) and runs fn on the page session.
func (s *Server) intent(w http.ResponseWriter, r *http.Request, body any, fn session.IntentFunc) {
	ref, ok := s.pageRef(w, r)
	if !ok {
		return
	}
	if body != nil && !s.decode(w, r, body) {
		return
	}
	view, err := s.Engine.Sessions().Do(r.Context(), ref, fn)
	s.respond(w, r, view, err)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, view editor.View, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// pageRef reads the escaped {ref} segment, so "acme%2Fhome" names "acme/home".
func (s *Server) pageRef(w http.ResponseWriter, r *http.Request) (string, bool) {
	ref, err := url.PathUnescape(chi.URLParam(r, "ref"))
	if err != nil || ref == "" {
		http.Error(w, "invalid page reference", http.StatusBadRequest)
		return "", false
	}
	return ref, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPageNotFound), errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPageExists), errors.Is(err, domain.ErrSessionNotOpen):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownComponent), errors.Is(err, middleware.ErrInvalidSchema):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// problems flattens joined validation errors into one line each.
func problems(err error) []string {
	var out []string
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		out = append(out, err.Error())
	}
	walk(err)
	return out
}

func at(index *int) []int {
	if index == nil {
		return nil
	}
	return []int{*index}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
