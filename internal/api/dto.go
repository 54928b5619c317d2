package api

import (
	"github.com/starford/notebook/internal/graph"
	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest = noteservice.NoteInput

// UpdateNoteRequest is the request body for a partial note update.
type UpdateNoteRequest = noteservice.NotePatch

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteSummary is a lightweight item in list, search and backlink responses.
type NoteSummary = models.NoteSummary

// GraphResponse is the knowledge graph of the active tenant.
type GraphResponse = graph.Graph
