package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the debug/inspection router. authEnabled/token gate
// everything under /debug behind Bearer auth; /health/* stays open so a
// process supervisor can probe liveness without credentials. sseHandler,
// if non-nil, is mounted at GET /debug/events.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", Health)
	r.Get("/health/ready", Health)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Get("/debug/hierarchy", h.Hierarchy)
		r.Get("/debug/notes", h.Notes)
		r.Get("/debug/backlinks", h.Backlinks)
		r.Get("/debug/audit", h.Audit)
		r.Get("/debug/resolve", h.Resolve)

		if sseHandler != nil {
			r.Get("/debug/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
