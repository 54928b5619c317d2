package internal

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notebook/internal/noteservice"
	"github.com/starford/notebook/internal/store"
	"github.com/starford/notebook/internal/tenant"
)

func testOptions(t *testing.T) ([]Option, string) {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "notebook.db")
	return []Option{WithConfig(cfg), WithLogOutput(io.Discard)}, cfg.SQLite.Path
}

func seed(t *testing.T, dbPath string, id tenant.Identity, title, content string) {
	t.Helper()
	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	svc := noteservice.NewService(db)
	if _, err := svc.CreateNote(tenant.WithIdentity(context.Background(), id), noteservice.NoteInput{Title: title, Content: content}); err != nil {
		t.Fatal(err)
	}
}

func TestRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config should fail")
	}
	if err := AddMember(context.Background(), 1, 2, store.RoleMember); err == nil {
		t.Fatal("AddMember without config should fail")
	}
}

func TestOrganizationCommands(t *testing.T) {
	ctx := context.Background()
	opts, _ := testOptions(t)

	org, err := CreateOrganization(ctx, "Acme", 1, opts...)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.ID <= 0 || org.Name != "Acme" {
		t.Errorf("org = %+v", org)
	}

	if err := AddMember(ctx, org.ID, 2, store.RoleMember, opts...); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := AddMember(ctx, org.ID, 2, "ADMIN", opts...); err == nil {
		t.Error("unknown role should fail")
	}
	if err := AddMember(ctx, org.ID+100, 2, store.RoleMember, opts...); err == nil {
		t.Error("unknown organization should fail")
	}
	if _, err := CreateOrganization(ctx, "", 1, opts...); err == nil {
		t.Error("empty name should fail")
	}
}

func TestRunExport(t *testing.T) {
	ctx := context.Background()
	opts, dbPath := testOptions(t)
	seed(t, dbPath, tenant.Personal(1), "Mine", "body")
	seed(t, dbPath, tenant.Personal(2), "Theirs", "body")

	dir := filepath.Join(t.TempDir(), "out")
	if err := RunExport(ctx, tenant.Personal(1), 1, dir, false, opts...); err != nil {
		t.Fatalf("RunExport: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.md"))
	if len(matches) != 1 || !strings.HasSuffix(matches[0], "-mine.md") {
		t.Errorf("exported = %v", matches)
	}
}

func TestRunExport_TenantChecks(t *testing.T) {
	ctx := context.Background()
	opts, _ := testOptions(t)
	dir := t.TempDir()

	if err := RunExport(ctx, tenant.Personal(2), 1, dir, false, opts...); err == nil {
		t.Error("exporting another user's space should fail")
	}

	org, err := CreateOrganization(ctx, "Acme", 1, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := RunExport(ctx, tenant.Organization(org.ID), 2, dir, false, opts...); err == nil {
		t.Error("non-member export should fail")
	}
	if err := RunExport(ctx, tenant.Organization(org.ID), 1, dir, true, opts...); err != nil {
		t.Errorf("owner export: %v", err)
	}
}
