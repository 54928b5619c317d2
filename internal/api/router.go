package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/notebook/internal/noteservice"
	"github.com/starford/notebook/internal/store"
)

// NewRouter creates a chi router with all API routes mounted behind the
// authentication and tenant middleware.
// sseHandler, if non-nil, is mounted at GET /events and sees the same tenant.
func NewRouter(svc *noteservice.Service, auth AuthOptions, members store.Membership, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(auth))
	r.Use(TenantMiddleware(members))

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Links.
	r.Get("/notes/{id}/backlinks", h.Backlinks)
	r.Get("/graph", h.Graph)

	// Search.
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
