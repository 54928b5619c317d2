package internal

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notebook/internal/export"
	"github.com/starford/notebook/internal/mcpserver"
	"github.com/starford/notebook/internal/models"
	"github.com/starford/notebook/internal/noteservice"
	"github.com/starford/notebook/internal/storage"
	"github.com/starford/notebook/internal/store"
	"github.com/starford/notebook/internal/tenant"
)

// withStore opens the database for the duration of fn.
func withStore(app *application, fn func(db *store.DB) error) error {
	db, err := store.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	return fn(db)
}

// resolveTenant checks that userID may act as id.
func resolveTenant(ctx context.Context, db *store.DB, id tenant.Identity, userID int64) error {
	switch id.Kind {
	case tenant.KindPersonal:
		if id.ID != userID {
			return fmt.Errorf("user %d cannot act as %s", userID, id)
		}
	case tenant.KindOrganization:
		ok, err := db.IsMember(ctx, id.ID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("user %d is not a member of organization %d", userID, id.ID)
		}
	}
	return nil
}

// RunMCP serves the MCP tools on stdio as tenant id on behalf of userID.
func RunMCP(ctx context.Context, id tenant.Identity, userID int64, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	return withStore(app, func(db *store.DB) error {
		if err := resolveTenant(ctx, db, id, userID); err != nil {
			return err
		}
		logger.Info("MCP server starting", slog.String("tenant", id.Key()))
		return mcpserver.New(noteservice.NewService(db), id).ServeStdio()
	})
}

// RunExport writes the notes of tenant id into dir.
func RunExport(ctx context.Context, id tenant.Identity, userID int64, dir string, prune bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()

	dst, err := storage.NewFS(dir)
	if err != nil {
		return err
	}

	return withStore(app, func(db *store.DB) error {
		if err := resolveTenant(ctx, db, id, userID); err != nil {
			return err
		}
		var eopts []export.Option
		if prune {
			eopts = append(eopts, export.WithPrune())
		}
		res, err := export.Run(tenant.WithIdentity(ctx, id), noteservice.NewService(db), dst, eopts...)
		if err != nil {
			return err
		}
		logger.Info("Export finished",
			slog.String("tenant", id.Key()),
			slog.String("dir", dst.Root()),
			slog.Int("written", res.Written),
			slog.Int("unchanged", res.Unchanged),
			slog.Int("removed", res.Removed))
		return nil
	})
}

// CreateOrganization creates an organization owned by ownerID.
func CreateOrganization(ctx context.Context, name string, ownerID int64, opts ...Option) (*models.Organization, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	app.logger()

	if err := validation.Validate(name, validation.Required, validation.RuneLength(1, 255)); err != nil {
		return nil, fmt.Errorf("organization name: %w", err)
	}
	if err := validation.Validate(ownerID, validation.Required, validation.Min(int64(1))); err != nil {
		return nil, fmt.Errorf("owner: %w", err)
	}

	var org *models.Organization
	err = withStore(app, func(db *store.DB) error {
		org, err = db.CreateOrganization(ctx, name, ownerID)
		return err
	})
	return org, err
}

// AddMember enrolls userID in orgID with role.
func AddMember(ctx context.Context, orgID, userID int64, role string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	app.logger()

	if err := validation.Validate(role, validation.Required, validation.In(store.RoleOwner, store.RoleMember)); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	if err := validation.Validate(userID, validation.Required, validation.Min(int64(1))); err != nil {
		return fmt.Errorf("user: %w", err)
	}

	return withStore(app, func(db *store.DB) error {
		return db.AddMember(ctx, orgID, userID, role)
	})
}
