package httpapi

import (
	"net/http"

	"github.com/dendrite/dendrite/internal/model"
	"github.com/dendrite/dendrite/internal/query"
	"github.com/dendrite/dendrite/internal/refactor"
	"github.com/dendrite/dendrite/internal/semantic"
	"github.com/dendrite/dendrite/internal/store"
)

// Handler serves the debug/inspection endpoints over a live Store.
type Handler struct {
	api   *query.API
	store *store.Store
	model semantic.Model
}

// NewHandler constructs a Handler.
func NewHandler(api *query.API, st *store.Store, m semantic.Model) *Handler {
	return &Handler{api: api, store: st, model: m}
}

// Hierarchy serves GET /debug/hierarchy.
func (h *Handler) Hierarchy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, treeToDTO(h.api.Hierarchy()))
}

// Backlinks serves GET /debug/backlinks?key=....
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	key := model.NoteKey(r.URL.Query().Get("key"))
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing key"))
		return
	}
	notes := h.api.Backlinks(key)
	dtos := make([]NoteDTO, 0, len(notes))
	for _, n := range notes {
		dtos = append(dtos, noteToDTO(n))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Notes serves GET /debug/notes, a flat listing for quick inspection.
func (h *Handler) Notes(w http.ResponseWriter, r *http.Request) {
	keys := h.api.AllNoteKeys()
	dtos := make([]NoteDTO, 0, len(keys))
	for _, k := range keys {
		if n, ok := h.api.ResolveKey(k); ok {
			dtos = append(dtos, noteToDTO(n))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Audit serves GET /debug/audit, running the workspace-wide link/anchor
// consistency check and returning its diagnostics.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	plan := refactor.CalculateAuditDiagnostics(h.store, h.model)
	dtos := make([]DiagnosticDTO, 0, len(plan.Diagnostics))
	for _, d := range plan.Diagnostics {
		dtos = append(dtos, diagnosticToDTO(d))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// Resolve serves GET /debug/resolve?key=...&anchor=..., mirroring the
// MCP server's resolve_link tool for curl-based inspection.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	key := model.NoteKey(r.URL.Query().Get("key"))
	target, ok := h.api.ResolveKey(key)
	if !ok {
		writeJSON(w, http.StatusOK, ResolveResultDTO{Found: false})
		return
	}
	anchor := r.URL.Query().Get("anchor")
	if anchor == "" {
		writeJSON(w, http.StatusOK, ResolveResultDTO{Found: true, URI: target.Path})
		return
	}
	p, ok := query.ResolveAnchor(target, anchor)
	if !ok {
		writeJSON(w, http.StatusOK, ResolveResultDTO{Found: false})
		return
	}
	writeJSON(w, http.StatusOK, ResolveResultDTO{Found: true, URI: target.Path, Line: p.Line, Column: p.Column})
}

// Health serves GET /health/live and /health/ready — both unauthenticated
// and identical for this single-process engine, mirroring the teacher's
// entry.go health endpoints.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
