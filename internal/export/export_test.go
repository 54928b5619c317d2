package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notebook/internal/apperr"
	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/noteservice"
	"github.com/starford/notebook/internal/storage"
	"github.com/starford/notebook/internal/tenant"
	"github.com/starford/notebook/internal/testutil"
)

type staticSource []models.Note

func (s staticSource) ExportNotes(context.Context) ([]models.Note, error) {
	return s, nil
}

type failingSource struct{}

func (failingSource) ExportNotes(context.Context) ([]models.Note, error) {
	return nil, errors.New("boom")
}

func ptr[T any](v T) *T { return &v }

func target(t *testing.T) *storage.FS {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	require.NoError(t, err)
	return fs
}

var when = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFileName(t *testing.T) {
	tests := []struct {
		note models.Note
		want string
	}{
		{models.Note{ID: 1, Title: "Hello, World!"}, "1-hello-world.md"},
		{models.Note{ID: 2, Title: ""}, "2-note.md"},
		{models.Note{ID: 3, Title: "  ///  "}, "3-note.md"},
		{models.Note{ID: 4, Title: "Заметка 2"}, "4-заметка-2.md"},
		{models.Note{ID: 5, Title: "Filed", FolderID: ptr(int64(9))}, "folder-9/5-filed.md"},
		{models.Note{ID: 6, Title: "../../escape"}, "6-escape.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(&tt.note))
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	n := &models.Note{
		ID:        7,
		Title:     "Links",
		FolderID:  ptr(int64(3)),
		Content:   "see [[4|Four]]\n\nand [[5|Five]]",
		Tags:      []string{"go", "graph"},
		Pinned:    true,
		CreatedAt: when,
		UpdatedAt: when.Add(time.Hour),
	}
	data, err := Render(n)
	require.NoError(t, err)

	fm, body, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, n.Content, body, "body must be verbatim")
	assert.Equal(t, int64(7), fm.ID)
	assert.Equal(t, "Links", fm.Title)
	assert.Equal(t, ptr(int64(3)), fm.FolderID)
	assert.Equal(t, []string{"go", "graph"}, fm.Tags)
	assert.True(t, fm.Pinned)
	assert.True(t, fm.Updated.Equal(when.Add(time.Hour)))
}

func TestParse_Invalid(t *testing.T) {
	_, _, err := Parse([]byte("no frontmatter"))
	assert.Error(t, err)
	_, _, err = Parse([]byte("---\ntitle: x\n"))
	assert.Error(t, err)
}

func TestRun_WritesAndSkipsUnchanged(t *testing.T) {
	dst := target(t)
	src := staticSource{
		{ID: 1, Title: "A", Content: "[[2|B]]", CreatedAt: when, UpdatedAt: when},
		{ID: 2, Title: "B", Content: "", CreatedAt: when, UpdatedAt: when},
	}

	res, err := Run(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 2}, res)

	data, err := dst.Read("1-a.md")
	require.NoError(t, err)
	_, body, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "[[2|B]]", body)

	res, err = Run(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, Result{Unchanged: 2}, res)

	src[1].Content = "changed"
	res, err = Run(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, Result{Written: 1, Unchanged: 1}, res)
}

func TestRun_Prune(t *testing.T) {
	dst := target(t)
	stale := &models.Note{ID: 99, Title: "Gone", CreatedAt: when, UpdatedAt: when}
	staleData, err := Render(stale)
	require.NoError(t, err)
	require.NoError(t, dst.Write(FileName(stale), staleData))
	require.NoError(t, dst.Write("notes.txt", []byte("kept")))
	src := staticSource{{ID: 1, Title: "A", CreatedAt: when, UpdatedAt: when}}

	res, err := Run(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	_, err = dst.Read("99-gone.md")
	require.NoError(t, err, "without prune stale files stay")

	res, err = Run(context.Background(), src, dst, WithPrune())
	require.NoError(t, err)
	assert.Equal(t, Result{Unchanged: 1, Removed: 1}, res)
	_, err = dst.Read("99-gone.md")
	assert.Error(t, err)
	_, err = dst.Read("notes.txt")
	assert.NoError(t, err)
}

func TestRun_PruneKeepsHandWrittenFiles(t *testing.T) {
	dst := target(t)
	handWritten := map[string]string{
		"journal.md":          "---\nid: 5\n---\nmine",
		"12-diary.md":         "no frontmatter at all",
		"sub/7-plans.md":      "---\ntitle: plans\n---\nno id",
		"8-mismatch.md":       "---\nid: 9\ntitle: x\n---\nid differs from name",
		"folder-3/x-notes.md": "---\nid: 4\n---\n",
	}
	for path, content := range handWritten {
		require.NoError(t, dst.Write(path, []byte(content)))
	}

	res, err := Run(context.Background(), staticSource{}, dst, WithPrune())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	for path := range handWritten {
		_, err := dst.Read(path)
		assert.NoError(t, err, path)
	}
}

func TestRun_SourceError(t *testing.T) {
	_, err := Run(context.Background(), failingSource{}, target(t))
	assert.ErrorContains(t, err, "boom")
}

func TestRun_TenantScoped(t *testing.T) {
	db := testutil.TestDB(t)
	svc := noteservice.NewService(db)

	_, err := svc.CreateNote(testutil.As(tenant.Personal(1)), noteservice.NoteInput{Title: "mine"})
	require.NoError(t, err)
	_, err = svc.CreateNote(testutil.As(tenant.Personal(2)), noteservice.NoteInput{Title: "theirs"})
	require.NoError(t, err)

	dst := target(t)
	res, err := Run(testutil.As(tenant.Personal(1)), svc, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)

	files, err := dst.List("")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "1-mine.md", files[0].Path)

	_, err = Run(context.Background(), svc, dst)
	assert.ErrorIs(t, err, apperr.ErrMissingTenant)
}
