package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/tessera/pkg/domain"
)

// SubscribeEvents handles the GET /events request (SSE).
// With ?page=ref it streams that page's diffs; without it, template reloads.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	pageRef := r.URL.Query().Get("page")
	if pageRef == "" {
		s.streamReloads(w, r, flusher)
		return
	}

	token, ch, cancel := s.Streams.Subscribe(pageRef)
	defer cancel()
	s.logger.Info("SSE: subscribing to page updates", "page_ref", pageRef, "subscriber", token)

	writeStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: %s\n\n", token)
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "page_ref", pageRef, "subscriber", token)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !wanted(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "event: diff\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) streamReloads(w http.ResponseWriter, r *http.Request, flusher http.Flusher) {
	events, err := s.Engine.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusNotImplemented)
		return
	}

	writeStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}

func writeStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// wanted reports whether the diff touches any of the watched fields.
// Messages that fail to decode are passed through.
func wanted(msg string, fields []string) bool {
	var diff domain.SchemaDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "added":
			if len(diff.Added) > 0 {
				return true
			}
		case "removed":
			if len(diff.Removed) > 0 {
				return true
			}
		case "changed":
			if len(diff.Changed) > 0 {
				return true
			}
		case "moved":
			if len(diff.Moved) > 0 {
				return true
			}
		}
	}
	return false
}
