// Package server exposes stored conversations over a local HTTP API and
// serves the static viewer files. Local-only glue: the normalization core
// neither knows about HTTP nor depends on this package's store.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/export"
	"github.com/mkarpel/convoview/internal/ingest"
	"github.com/mkarpel/convoview/internal/payload"
)

const maxUploadBytes = 64 << 20

type Server struct {
	router      *chi.Mux
	store       *Store
	port        int
	showDeleted bool
}

// New builds the router. uiDir, when non-empty, is served at / for the
// static viewer; the JSON API lives under /api.
func New(store *Store, port int, uiDir string, showDeleted bool) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:      router,
		store:       store,
		port:        port,
		showDeleted: showDeleted,
	}

	router.Get("/health", s.health)
	router.Route("/api/conversations", func(r chi.Router) {
		r.Get("/", s.listConversations)
		r.Post("/", s.uploadConversations)
		r.Get("/{id}", s.getConversation)
		r.Get("/{id}/export", s.exportConversation)
	})
	if uiDir != "" {
		router.Handle("/*", http.FileServer(http.Dir(uiDir)))
	}

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("convoview listening on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// conversationSummary is the listing shape: metadata only, no messages.
type conversationSummary struct {
	StoreID      string    `json:"store_id"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Source       string    `json:"source"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
	MessageCount int       `json:"message_count"`
	SoftDeleted  bool      `json:"soft_deleted"`
}

func summarize(e Entry) conversationSummary {
	return conversationSummary{
		StoreID:      e.StoreID,
		ID:           e.Conv.ID,
		Title:        e.Conv.Title,
		Source:       e.Conv.Source,
		Kind:         string(e.Kind),
		CreatedAt:    e.Conv.CreatedAt,
		UpdatedAt:    e.Conv.UpdatedAt,
		MessageCount: len(e.Conv.Messages),
		SoftDeleted:  e.Conv.SoftDeleted(),
	}
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	showDeleted := s.showDeleted || r.URL.Query().Get("deleted") == "true"
	entries := s.store.List(showDeleted)
	out := make([]conversationSummary, 0, len(entries))
	for _, e := range entries {
		out = append(out, summarize(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		conversationSummary
		Messages []convo.Message `json:"messages"`
	}{summarize(e), e.Conv.Messages})
}

func (s *Server) exportConversation(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = "markdown"
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch format {
	case export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case export.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	default:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(e.Conv, format)))
	if err := export.Write(w, e.Conv, format); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// uploadResponse reports what an uploaded file turned into.
type uploadResponse struct {
	Kind        string   `json:"kind"`
	RecordCount *int     `json:"record_count"`
	StoreIDs    []string `json:"store_ids"`
}

// uploadConversations ingests a raw export body. The original filename
// comes from the ?filename= query parameter and feeds the detector's
// filename-hint fallback.
func (s *Server) uploadConversations(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "upload.json"
	}

	p, err := payload.Parse(body, filename)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res, err := ingest.Payload(p)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := uploadResponse{Kind: string(res.Kind), StoreIDs: []string{}}
	if res.HasCount {
		n := res.RecordCount
		resp.RecordCount = &n
	}
	for _, c := range res.Conversations {
		resp.StoreIDs = append(resp.StoreIDs, s.store.Add(res.Kind, c))
	}
	writeJSON(w, http.StatusCreated, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
