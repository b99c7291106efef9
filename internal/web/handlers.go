package web

import (
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/history"
	"github.com/JonMunkholm/sheetnorm/internal/web/templates"
)

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := templates.UploadPage(templates.UploadForm{
		Action:      "/upload?format=html",
		FieldName:   s.cfg.Upload.FieldName,
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		Strategy:    s.cfg.Ingest.HeaderStrategy,
		Fields:      s.service.Registry().Fields(),
	})
	templ.Handler(page).ServeHTTP(w, r)
}

// fieldsResponse lists the recognized fields and the emitted column order.
type fieldsResponse struct {
	Fields   []core.FieldSpec `json:"fields"`
	Order    []string         `json:"order"`
	Required []string         `json:"required"`
}

// handleListFields returns the field registry.
func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	reg := s.service.Registry()
	writeJSON(w, http.StatusOK, fieldsResponse{
		Fields:   reg.Fields(),
		Order:    reg.OutputOrder(),
		Required: reg.RequiredFields(),
	})
}

// handleHistory lists recent uploads, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, r, errHistoryDisabled, http.StatusNotFound)
		return
	}

	limit := parseIntParam(r, "limit", history.DefaultLimit)
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type healthResponse struct {
	Status  string                    `json:"status"`
	History bool                      `json:"history"`
	Uploads *core.UploadLimiterStatus `json:"uploads,omitempty"`
}

// handleHealth reports liveness and upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", History: s.history != nil}
	if status, ok := s.service.UploadLimiterStatus(); ok {
		resp.Uploads = &status
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
