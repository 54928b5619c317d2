// Package export writes the notes of one tenant as Markdown files with YAML
// frontmatter. Bodies are written verbatim, so [[id|label]] references keep
// working when the files are imported again.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/starford/notebook/internal/checksum"
	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/storage"
)

const maxSlugRunes = 60

// Source yields the notes to export. The tenant comes from ctx.
type Source interface {
	ExportNotes(ctx context.Context) ([]models.Note, error)
}

// Frontmatter is the YAML header of an exported note.
type Frontmatter struct {
	ID       int64     `yaml:"id"`
	Title    string    `yaml:"title"`
	FolderID *int64    `yaml:"folder_id,omitempty"`
	Tags     []string  `yaml:"tags,omitempty"`
	Pinned   bool      `yaml:"pinned,omitempty"`
	Created  time.Time `yaml:"created"`
	Updated  time.Time `yaml:"updated"`
}

// Result counts what an export run did.
type Result struct {
	Written   int
	Unchanged int
	Removed   int
}

type options struct {
	prune bool
}

// Option configures Run.
type Option func(*options)

// WithPrune deletes earlier export files that no exported note maps to any
// more, such as files of notes deleted since the previous export. Files not
// written by an export are never touched.
func WithPrune() Option {
	return func(o *options) { o.prune = true }
}

// Run exports every note of the tenant in ctx into dst. Files whose content
// is already current are left untouched.
func Run(ctx context.Context, src Source, dst storage.Provider, opts ...Option) (Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	notes, err := src.ExportNotes(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("export: load notes: %w", err)
	}
	existing, err := dst.List("")
	if err != nil {
		return Result{}, fmt.Errorf("export: list target: %w", err)
	}
	current := make(map[string]string, len(existing))
	for _, f := range existing {
		current[f.Path] = f.Checksum
	}

	var res Result
	wanted := make(map[string]struct{}, len(notes))
	for i := range notes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n := &notes[i]
		path := FileName(n)
		wanted[path] = struct{}{}

		data, err := Render(n)
		if err != nil {
			return res, fmt.Errorf("export: render note %d: %w", n.ID, err)
		}
		if sum, ok := current[path]; ok && sum == checksum.Sum(string(data)) {
			res.Unchanged++
			continue
		}
		if err := dst.Write(path, data); err != nil {
			return res, fmt.Errorf("export: note %d: %w", n.ID, err)
		}
		res.Written++
	}

	if o.prune {
		for _, f := range existing {
			if _, ok := wanted[f.Path]; ok {
				continue
			}
			if !exported(dst, f.Path) {
				continue
			}
			if err := dst.Delete(f.Path); err != nil {
				return res, fmt.Errorf("export: prune: %w", err)
			}
			res.Removed++
		}
	}
	return res, nil
}

// exported reports whether the file at path was written by Run: its name has
// the "<id>-" prefix and its frontmatter carries that id.
func exported(dst storage.Provider, path string) bool {
	base := path[strings.LastIndex(path, "/")+1:]
	prefix, _, ok := strings.Cut(base, "-")
	if !ok {
		return false
	}
	id, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || id <= 0 {
		return false
	}
	data, err := dst.Read(path)
	if err != nil {
		return false
	}
	fm, _, err := Parse(data)
	return err == nil && fm.ID == id
}

// FileName returns the slash-separated path of n inside the export root:
// "<id>-<slug>.md", under a "folder-<id>" directory when n is filed.
func FileName(n *models.Note) string {
	name := strconv.FormatInt(n.ID, 10) + "-" + slug(n.Title) + ".md"
	if n.FolderID != nil {
		return "folder-" + strconv.FormatInt(*n.FolderID, 10) + "/" + name
	}
	return name
}

// Render returns the file content for n.
func Render(n *models.Note) ([]byte, error) {
	fm := Frontmatter{
		ID:       n.ID,
		Title:    n.Title,
		FolderID: n.FolderID,
		Tags:     n.Tags,
		Pinned:   n.Pinned,
		Created:  n.CreatedAt.UTC(),
		Updated:  n.UpdatedAt.UTC(),
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n")
	buf.WriteString(n.Content)
	return buf.Bytes(), nil
}

// Parse splits an exported file back into frontmatter and body.
func Parse(data []byte) (*Frontmatter, string, error) {
	s := string(data)
	if !strings.HasPrefix(s, "---\n") {
		return nil, "", fmt.Errorf("export: missing frontmatter")
	}
	rest := s[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return nil, "", fmt.Errorf("export: unterminated frontmatter")
	}
	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end+1]), &fm); err != nil {
		return nil, "", fmt.Errorf("export: frontmatter: %w", err)
	}
	return &fm, rest[end+len("\n---\n"):], nil
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	n := 0
	for _, r := range strings.ToLower(title) {
		if n >= maxSlugRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			n++
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
			n++
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "note"
	}
	return out
}
