// Package storage runs one fixed set of SQL statements against either an
// embedded SQLite file or a PostgreSQL server with identical behavior.
//
// Statements are always written with PostgreSQL-style positional placeholders
// ($1, $2, ...) and, for inserts that need the generated key, a trailing
// "RETURNING id". The SQLite implementation translates both.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Dialect identifies the engine behind a DB
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// RunResult is returned by mutating statements
type RunResult struct {
	LastInsertRowid int64 `json:"lastInsertRowid"`
}

// DB is the uniform query surface over both engines. Engine errors are
// returned unmodified.
type DB interface {
	// Get scans zero or one row into dest. found is false when no row matched.
	Get(ctx context.Context, dest any, query string, args ...any) (found bool, err error)
	// All scans every row into dest, which must point to a slice.
	All(ctx context.Context, dest any, query string, args ...any) error
	// Run executes a mutating statement and reports the generated identifier.
	Run(ctx context.Context, query string, args ...any) (RunResult, error)
	// Exec executes a schema statement with no result.
	Exec(ctx context.Context, query string) error
	Dialect() Dialect
	Close() error
}

// Options selects and configures the engine
type Options struct {
	// URL is a PostgreSQL connection string. When empty, Path is used.
	URL string
	// Path is the SQLite database file.
	Path   string
	Logger *logrus.Logger
}

var (
	sharedOnce sync.Once
	sharedDB   DB
	sharedErr  error
)

// Shared returns the process-wide handle, opening it on first use. Later
// calls return the same handle and ignore opts.
func Shared(ctx context.Context, opts Options) (DB, error) {
	sharedOnce.Do(func() {
		sharedDB, sharedErr = Open(ctx, opts)
	})
	return sharedDB, sharedErr
}

// Open creates a new handle for the engine selected by opts.
func Open(ctx context.Context, opts Options) (DB, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	if opts.URL != "" {
		db, err := sqlx.Open("postgres", postgresDSN(opts.URL))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Info("Using PostgreSQL")
		return newPostgres(db), nil
	}

	if opts.Path == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(opts.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", opts.Path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite tolerates a single writer; one connection serializes every statement.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	log.Info("Using SQLite (local)")
	return newSQLite(db), nil
}

// postgresDSN relaxes certificate checks for Railway-hosted databases, which
// present certificates the default verification rejects.
func postgresDSN(url string) string {
	if !strings.Contains(url, "railway") && !strings.Contains(url, "rlwy.net") {
		return url
	}
	if strings.Contains(url, "sslmode=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "sslmode=require"
}

// get is shared by both engines once the statement is in native form.
func get(ctx context.Context, db *sqlx.DB, dest any, query string, args []any) (bool, error) {
	err := db.GetContext(ctx, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
