// Package graph assembles the knowledge graph of one tenant from a snapshot
// of its notes.
package graph

import (
	"time"

	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/parser"
)

// Node is one note in the graph.
type Node struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	FolderID  *int64    `json:"folderId"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Edge is a directed reference from Source to Target. Labels are not kept:
// any number of references between the same ordered pair is one edge.
type Edge struct {
	Source int64 `json:"source"`
	Target int64 `json:"target"`
}

// Graph is a point-in-time snapshot; it is never persisted.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build derives the graph of notes, which must all belong to one tenant.
// Nodes and edges follow the input order. References to ids outside notes
// (dangling or foreign) and self references are dropped; repeated references
// from one source to one target collapse into the first edge.
func Build(notes []models.Note) *Graph {
	valid := make(map[int64]struct{}, len(notes))
	for i := range notes {
		valid[notes[i].ID] = struct{}{}
	}

	g := &Graph{
		Nodes: make([]Node, 0, len(notes)),
		Edges: []Edge{},
	}
	seen := make(map[Edge]struct{})

	for i := range notes {
		n := &notes[i]
		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}
		g.Nodes = append(g.Nodes, Node{
			ID:        n.ID,
			Title:     n.Title,
			FolderID:  n.FolderID,
			Tags:      tags,
			UpdatedAt: n.UpdatedAt,
		})

		for ref := range parser.Links(n.Content) {
			if ref.TargetID == n.ID {
				continue
			}
			if _, ok := valid[ref.TargetID]; !ok {
				continue
			}
			e := Edge{Source: n.ID, Target: ref.TargetID}
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			g.Edges = append(g.Edges, e)
		}
	}
	return g
}
