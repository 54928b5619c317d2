// Package models defines the domain types for the notebook.
package models

import (
	"time"

	"github.com/starford/notebook/internal/tenant"
)

// Note is a tenant-owned note. Its body is the only source of link
// information; links are derived on read and never stored.
type Note struct {
	ID        int64       `json:"id"`
	OwnerID   int64       `json:"-"`
	OwnerKind tenant.Kind `json:"-"`
	FolderID  *int64      `json:"folderId"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Excerpt   string      `json:"excerpt"`
	Pinned    bool        `json:"isPinned"`
	Tags      []string    `json:"tags"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TenantID implements tenant.Owned.
func (n *Note) TenantID() int64 { return n.OwnerID }

// TenantKind implements tenant.Owned.
func (n *Note) TenantKind() tenant.Kind { return n.OwnerKind }

// Owner returns the tenant the note belongs to.
func (n *Note) Owner() tenant.Identity {
	return tenant.Identity{ID: n.OwnerID, Kind: n.OwnerKind}
}

// NoteSummary is the lightweight shape returned by listings and backlinks.
type NoteSummary struct {
	ID        int64     `json:"id"`
	FolderID  *int64    `json:"folderId"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Pinned    bool      `json:"isPinned"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary projects a note to its summary.
func (n *Note) Summary() NoteSummary {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteSummary{
		ID:        n.ID,
		FolderID:  n.FolderID,
		Title:     n.Title,
		Excerpt:   n.Excerpt,
		Pinned:    n.Pinned,
		Tags:      tags,
		UpdatedAt: n.UpdatedAt,
	}
}

// Organization is a shared tenant. Membership is a plain permission check.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}
