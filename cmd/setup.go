package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/vorplay/internal/repositories"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the configuration file when missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", r.configPath)
			if err := shared.CreateConfigFile(r.configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", r.configPath)
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back latest migration\n")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)

	if cmd.Bool("reset") {
		return r.resetStorage(ctx, repositories.NewLocalStorage(db))
	}

	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Point api.base_url in %s at your Vorplay API (or run `vorplay dev api`)\n", r.configPath)
	return r.writePlain("2. Run `vorplay auth login` to start a session\n")
}

// resetStorage deletes every local storage key, printing each one.
func (r *Runner) resetStorage(ctx context.Context, storage *repositories.LocalStorage) error {
	keys, err := storage.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := storage.Delete(ctx, key); err != nil {
			return err
		}
		r.writePlain("  removed %s\n", key)
	}
	r.logger.Info("local storage reset", "keys", len(keys))
	return r.writePlain("✓ Cleared %s from %s\n", itemCount(len(keys), "stored key"), r.config.Database.Path)
}
