// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
	"github.com/vinovest/sqlx"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

func newProvider(db *sqlx.DB) (*goose.Provider, error) {
	dialect := DialectFor(db)

	gooseDialect := goose.DialectSQLite3
	if dialect == DialectPostgres {
		gooseDialect = goose.DialectPostgres
	}

	fsys, err := fs.Sub(embedMigrations, "migrations/"+string(dialect))
	if err != nil {
		return nil, err
	}

	return goose.NewProvider(gooseDialect, db.DB, fsys)
}

// RunMigrations runs all pending goose migrations for the connection's dialect.
func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return oops.Code("db_migrate").Wrap(err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return oops.Code("db_migrate").With("dialect", DialectFor(db)).Wrap(err)
	}
	for _, r := range results {
		slog.Debug("migration_applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// MigrateDown rolls back the last migration.
func MigrateDown(ctx context.Context, db *sqlx.DB) error {
	provider, err := newProvider(db)
	if err != nil {
		return oops.Code("db_migrate").Wrap(err)
	}

	if _, err := provider.Down(ctx); err != nil {
		return oops.Code("db_migrate").With("dialect", DialectFor(db)).Wrap(err)
	}
	return nil
}
