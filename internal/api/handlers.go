package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/notebook/internal/noteservice"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID parses the {id} route parameter. ok is false after a 400 was written.
func noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return 0, false
	}
	return id, true
}

// ifMatch returns the If-Match header without quotes or a weak prefix.
func ifMatch(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	v = strings.TrimPrefix(v, "W/")
	return strings.Trim(v, `"`)
}

func writeNote(w http.ResponseWriter, status int, note *noteservice.NoteDetail) {
	w.Header().Set("ETag", `"`+note.Revision+`"`)
	writeJSON(w, status, note)
}

// ListNotes handles GET /notes.
//
//	@Summary		List notes of the active tenant, pinned first
//	@Tags			notes
//	@Produce		json
//	@Param			folderId	query		int	false	"Only notes in this folder"
//	@Success		200			{array}		NoteSummary
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	var folderID *int64
	if raw := r.URL.Query().Get("folderId"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid folderId"))
			return
		}
		folderID = &v
	}
	items, err := h.svc.ListNotes(r.Context(), folderID)
	if err != nil {
		writeError(w, r, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetNote handles GET /notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		writeError(w, r, "get note", err)
		return
	}
	writeNote(w, http.StatusOK, note)
}

// CreateNote handles POST /notes.
//
//	@Summary		Create a note in the active tenant
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.CreateNote(r.Context(), req)
	if err != nil {
		writeError(w, r, "create note", err)
		return
	}
	writeNote(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /notes/{id}.
//
//	@Summary		Partially update a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int					true	"Note id"
//	@Param			If-Match	header		string				false	"Revision for optimistic concurrency"
//	@Param			body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	note, err := h.svc.UpdateNote(r.Context(), id, req, ifMatch(r))
	if err != nil {
		writeError(w, r, "update note", err)
		return
	}
	writeNote(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteNote(r.Context(), id); err != nil {
		writeError(w, r, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Backlinks handles GET /notes/{id}/backlinks.
//
//	@Summary		Notes of the active tenant that reference the given note
//	@Tags			graph
//	@Produce		json
//	@Param			id	path		int	true	"Target note id"
//	@Success		200	{array}		NoteSummary
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/backlinks [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.Backlinks(r.Context(), id)
	if err != nil {
		writeError(w, r, "backlinks", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Search handles GET /search.
//
//	@Summary		Substring search over title, excerpt and body
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{array}		NoteSummary
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Graph handles GET /graph.
//
//	@Summary		Knowledge graph of the active tenant
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, r, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
