// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver registered as "pgx"
	"github.com/samber/oops"
	"github.com/vinovest/sqlx"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Dialect identifies the SQL backend behind a connection.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectOf returns the dialect selected by a DSN. postgres:// and
// postgresql:// URLs select PostgreSQL, everything else is a SQLite path.
func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// DialectFor returns the dialect of an open connection.
func DialectFor(db *sqlx.DB) Dialect {
	if db.DriverName() == "pgx" {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open creates a new database connection and applies all pending migrations.
func Open(dsn string) (*sqlx.DB, error) {
	return OpenContext(context.Background(), dsn)
}

// OpenContext is Open with a caller supplied context for setup and migrations.
func OpenContext(ctx context.Context, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		dsn = "./data/shopdesk.db"
	}

	var (
		conn *sqlx.DB
		err  error
	)
	switch DialectOf(dsn) {
	case DialectPostgres:
		conn, err = openPostgres(ctx, dsn)
	default:
		conn, err = openSQLite(ctx, dsn)
	}
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return conn, nil
}

func openPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, oops.Code("db_open").With("dialect", DialectPostgres).Wrap(err)
	}

	conn.SetMaxOpenConns(20)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, oops.Code("db_ping").With("dialect", DialectPostgres).Wrap(err)
	}
	return conn, nil
}

func openSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	inMemory := isMemoryDSN(dsn)

	// Create directory for file-based databases
	if !inMemory {
		path := dsn
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, oops.Code("db_open").With("path", path).Wrap(err)
		}
	}

	dsn = addDefaultParams(dsn)

	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.Code("db_open").With("dialect", DialectSQLite).Wrap(err)
	}

	pool := sqlitePool(inMemory)
	conn.SetMaxOpenConns(pool.MaxOpen)
	conn.SetMaxIdleConns(pool.MaxIdle)
	conn.SetConnMaxLifetime(pool.MaxLifetime)

	if err := configureSQLite(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, oops.Code("db_configure").With("dialect", DialectSQLite).Wrap(err)
	}

	return conn, nil
}

type poolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration // zero keeps connections open forever
}

// sqlitePool returns the pool limits for a SQLite database. Every
// connection to :memory: is a separate database, so an in-memory pool holds
// exactly one connection that must never be recycled.
func sqlitePool(inMemory bool) poolSettings {
	if inMemory {
		return poolSettings{MaxOpen: 1, MaxIdle: 1}
	}
	return poolSettings{MaxOpen: 10, MaxIdle: 5, MaxLifetime: time.Hour}
}

func isMemoryDSN(dsn string) bool {
	return strings.HasPrefix(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// addDefaultParams adds recommended SQLite parameters if not already present.
// Pragmas given as _pragma are applied by the driver to every new connection.
func addDefaultParams(dsn string) string {
	defaults := []struct{ marker, param string }{
		{"_txlock", "_txlock=immediate"},
		{"busy_timeout", "_pragma=busy_timeout(5000)"},
		{"foreign_keys", "_pragma=foreign_keys(1)"},
	}

	for _, d := range defaults {
		if strings.Contains(dsn, d.marker) {
			continue
		}
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + d.param
	}

	return dsn
}

// configureSQLite sets PRAGMAs for optimal performance.
func configureSQLite(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA cache_size = 2000",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return err
		}
	}

	return nil
}
