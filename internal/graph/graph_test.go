package graph

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notebook/internal/models"
)

func note(id int64, body string) models.Note {
	return models.Note{ID: id, Title: "n", Content: body, UpdatedAt: time.Unix(id, 0).UTC()}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)

	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(out))
}

func TestBuild_ThreeNotes(t *testing.T) {
	notes := []models.Note{
		note(1, "A points at [[2|B]]"),
		note(2, "B has no references"),
		note(3, "C points at [[1|A]] and [[2|B]]"),
	}
	g := Build(notes)

	assert.Len(t, g.Nodes, 3)
	assert.Equal(t, []Edge{
		{Source: 1, Target: 2},
		{Source: 3, Target: 1},
		{Source: 3, Target: 2},
	}, g.Edges)
}

func TestBuild_SelfReferenceDropped(t *testing.T) {
	g := Build([]models.Note{note(4, "[[4|me]]")})
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Edges)
}

func TestBuild_DuplicatesCollapseRegardlessOfLabel(t *testing.T) {
	notes := []models.Note{
		note(1, "[[2|B]] and again [[2|B]] and [[2|other label]]"),
		note(2, ""),
	}
	g := Build(notes)
	assert.Equal(t, []Edge{{Source: 1, Target: 2}}, g.Edges)
}

func TestBuild_DanglingDropped(t *testing.T) {
	notes := []models.Note{note(1, "[[999|Ghost]] [[2|Real]]"), note(2, "")}
	g := Build(notes)
	assert.Equal(t, []Edge{{Source: 1, Target: 2}}, g.Edges)
}

func TestBuild_ForeignIDNotInSnapshot(t *testing.T) {
	// Note 50 exists in some other tenant but is not part of this snapshot.
	g := Build([]models.Note{note(1, "[[50|Theirs]]")})
	assert.Empty(t, g.Edges)
}

func TestBuild_CyclesKept(t *testing.T) {
	g := Build([]models.Note{note(1, "[[2|b]]"), note(2, "[[1|a]]")})
	assert.Equal(t, []Edge{{1, 2}, {2, 1}}, g.Edges)
}

func TestBuild_MalformedOccurrenceDoesNotAbort(t *testing.T) {
	notes := []models.Note{
		note(1, "[[0|bad]] [[99999999999999999999|huge]] [[2|ok]]"),
		note(2, "[[1|back"), // unterminated
	}
	g := Build(notes)
	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, []Edge{{Source: 1, Target: 2}}, g.Edges)
}

func TestBuild_NodeFields(t *testing.T) {
	folder := int64(9)
	n := note(1, "")
	n.Title = "Alpha"
	n.FolderID = &folder
	n.Tags = nil

	g := Build([]models.Note{n})
	require.Len(t, g.Nodes, 1)
	got := g.Nodes[0]
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Alpha", got.Title)
	assert.Equal(t, &folder, got.FolderID)
	assert.NotNil(t, got.Tags)
	assert.Equal(t, n.UpdatedAt, got.UpdatedAt)
}

func TestBuild_Deterministic(t *testing.T) {
	notes := []models.Note{
		note(3, "[[1|a]] [[2|b]]"),
		note(1, "[[3|c]]"),
		note(2, "[[1|a]]"),
	}
	first := Build(notes)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Build(notes))
	}
}
