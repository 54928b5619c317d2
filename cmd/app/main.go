package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notebook/internal"
	"github.com/starford/notebook/internal/store"
	"github.com/starford/notebook/internal/tenant"
	pkgconfig "github.com/starford/notebook/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return []internal.Option{internal.WithConfig(cfg)}, nil
}

// identity returns the tenant selected by --user and --org.
func identity(cmd *cli.Command) (tenant.Identity, int64, error) {
	userID := int64(cmd.Int("user"))
	if userID <= 0 {
		return tenant.Identity{}, 0, fmt.Errorf("--user must be a positive id")
	}
	if orgID := int64(cmd.Int("org")); orgID > 0 {
		return tenant.Organization(orgID), userID, nil
	}
	return tenant.Personal(userID), userID, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	id, userID, err := identity(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogOutput(os.Stderr))
	return internal.RunMCP(ctx, id, userID, opts...)
}

func exportNotes(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	id, userID, err := identity(cmd)
	if err != nil {
		return err
	}
	return internal.RunExport(ctx, id, userID, cmd.String("dir"), cmd.Bool("prune"), opts...)
}

func orgCreate(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	org, err := internal.CreateOrganization(ctx, cmd.String("name"), int64(cmd.Int("owner")), opts...)
	if err != nil {
		return err
	}
	slog.Info("Organization created", slog.Int64("id", org.ID), slog.String("name", org.Name))
	return nil
}

func orgAddMember(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	orgID, userID := int64(cmd.Int("org")), int64(cmd.Int("user"))
	if err := internal.AddMember(ctx, orgID, userID, cmd.String("role"), opts...); err != nil {
		return err
	}
	slog.Info("Member added", slog.Int64("org_id", orgID), slog.Int64("user_id", userID))
	return nil
}

func tenantFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:     "user",
			Aliases:  []string{"u"},
			Usage:    "Id of the acting user",
			Required: true,
			Sources:  cli.EnvVars("NOTEBOOK_USER_ID"),
		},
		&cli.IntFlag{
			Name:    "org",
			Usage:   "Organization id; the user's personal notebook when omitted",
			Sources: cli.EnvVars("NOTEBOOK_ORG_ID"),
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:   "notebook",
		Usage:  "Multi-tenant notebook with note links, backlinks and a knowledge graph",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdio for one tenant",
				Flags:  tenantFlags(),
				Action: mcp,
			},
			{
				Name:  "export",
				Usage: "Write a tenant's notes as Markdown files",
				Flags: append(tenantFlags(),
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Target directory",
						Value: "./export",
					},
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Delete exported files of notes that no longer exist",
					},
				),
				Action: exportNotes,
			},
			{
				Name:  "org",
				Usage: "Manage organizations",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "Create an organization",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "name", Usage: "Organization name", Required: true},
							&cli.IntFlag{Name: "owner", Usage: "Owner user id", Required: true},
						},
						Action: orgCreate,
					},
					{
						Name:  "add-member",
						Usage: "Add a user to an organization",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "org", Usage: "Organization id", Required: true},
							&cli.IntFlag{Name: "user", Usage: "User id", Required: true},
							&cli.StringFlag{Name: "role", Usage: "OWNER or MEMBER", Value: store.RoleMember},
						},
						Action: orgAddMember,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
