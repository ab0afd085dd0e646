package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/server"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) newServer() (*server.Server, func() error, error) {
	cfg := r.config.Server
	db, err := shared.OpenMigrated(cfg.Database, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open server database: %w", err)
	}

	srv, err := server.New(db, server.Opts{
		Secret:     cfg.Secret,
		AccessTTL:  cfg.AccessTTL.Duration,
		RefreshTTL: cfg.RefreshTTL.Duration,
		Logger:     shared.WithLogger(r.logger, "component", "server"),
	})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return srv, db.Close, nil
}

// Serve runs the reference backend until interrupted, creating configured seed accounts first.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	srv, closeDB, err := r.newServer()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := srv.Seed(r.config.Server.Users); err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}
	return srv.ListenAndServe(ctx, addr)
}

// ServeAddUser creates a backend account.
func (r *Runner) ServeAddUser(ctx context.Context, cmd *cli.Command) error {
	srv, closeDB, err := r.newServer()
	if err != nil {
		return err
	}
	defer closeDB()

	user := models.User{
		Username:  cmd.String("username"),
		Email:     cmd.String("email"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
	}
	if _, err := srv.AddUser(user, cmd.String("password")); err != nil {
		return err
	}
	return r.writePlain("✓ Created user %s\n", user.Username)
}
