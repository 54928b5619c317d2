package noteservice

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/parser"
)

const (
	maxTitleLen = 255
	maxTagLen   = 64
	maxTags     = 32
)

// NoteInput is the payload for a new note.
type NoteInput struct {
	FolderID *int64   `json:"folderId"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt"`
	Pinned   bool     `json:"isPinned"`
	Tags     []string `json:"tags"`
}

// Validate validates the input.
func (in NoteInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FolderID, validation.Min(int64(1))),
		validation.Field(&in.Title, validation.RuneLength(0, maxTitleLen)),
		validation.Field(&in.Tags, validation.Length(0, maxTags), validation.Each(validation.RuneLength(0, maxTagLen))),
	)
}

// NotePatch is a partial update; nil fields are left unchanged.
type NotePatch struct {
	FolderID *int64   `json:"folderId"`
	Title    *string  `json:"title"`
	Content  *string  `json:"content"`
	Excerpt  *string  `json:"excerpt"`
	Pinned   *bool    `json:"isPinned"`
	Tags     []string `json:"tags"`
}

// Validate validates the patch.
func (p NotePatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FolderID, validation.Min(int64(1))),
		validation.Field(&p.Title, validation.RuneLength(0, maxTitleLen)),
		validation.Field(&p.Tags, validation.Length(0, maxTags), validation.Each(validation.RuneLength(0, maxTagLen))),
	)
}

func (p NotePatch) apply(n *models.Note) {
	if p.FolderID != nil {
		n.FolderID = p.FolderID
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	switch {
	case p.Excerpt != nil:
		n.Excerpt = *p.Excerpt
	case p.Content != nil:
		n.Excerpt = parser.Excerpt(n.Content, excerptRunes)
	}
	if p.Pinned != nil {
		n.Pinned = *p.Pinned
	}
	if p.Tags != nil {
		n.Tags = parser.NormalizeTags(p.Tags)
	}
}
