package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/tubenotes/internal/noteservice"
	"github.com/starford/tubenotes/internal/runservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(notes *noteservice.Service, runs *runservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(notes, runs)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Runs.
	r.Post("/runs", h.StartRun)
	r.Get("/runs/latest", h.LatestRun)
	r.Delete("/runs/current", h.CancelRun)

	// Notes, read only.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{id}", h.GetNote)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
