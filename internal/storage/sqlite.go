package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type sqliteDB struct {
	db *sqlx.DB
}

func newSQLite(db *sqlx.DB) *sqliteDB {
	return &sqliteDB{db: db}
}

func (s *sqliteDB) Get(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	q, a, err := toSQLitePlaceholders(query, args)
	if err != nil {
		return false, err
	}
	return get(ctx, s.db, dest, q, a)
}

func (s *sqliteDB) All(ctx context.Context, dest any, query string, args ...any) error {
	q, a, err := toSQLitePlaceholders(query, args)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, q, a...)
}

// Run drops the RETURNING clause; the generated rowid comes back through
// LastInsertId instead of a result row. Statements without one report 0,
// since LastInsertId keeps the connection's previous insert.
func (s *sqliteDB) Run(ctx context.Context, query string, args ...any) (RunResult, error) {
	returning := hasReturningID(query)
	q, a, err := toSQLitePlaceholders(stripReturningID(query), args)
	if err != nil {
		return RunResult{}, err
	}
	res, err := s.db.ExecContext(ctx, q, a...)
	if err != nil {
		return RunResult{}, err
	}
	if !returning {
		return RunResult{}, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{LastInsertRowid: id}, nil
}

func (s *sqliteDB) Exec(ctx context.Context, query string) error {
	q, _, err := toSQLitePlaceholders(query, nil)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q)
	return err
}

func (s *sqliteDB) Dialect() Dialect { return SQLite }

func (s *sqliteDB) Close() error { return s.db.Close() }
