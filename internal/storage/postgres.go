package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type postgresDB struct {
	db *sqlx.DB
}

func newPostgres(db *sqlx.DB) *postgresDB {
	return &postgresDB{db: db}
}

func (p *postgresDB) Get(ctx context.Context, dest any, query string, args ...any) (bool, error) {
	return get(ctx, p.db, dest, query, args)
}

func (p *postgresDB) All(ctx context.Context, dest any, query string, args ...any) error {
	return p.db.SelectContext(ctx, dest, query, args...)
}

// Run keeps the RETURNING clause and reads the id column of the first row.
// Statements without one report 0.
func (p *postgresDB) Run(ctx context.Context, query string, args ...any) (RunResult, error) {
	if !hasReturningID(query) {
		if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
			return RunResult{}, err
		}
		return RunResult{}, nil
	}

	rows, err := p.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return RunResult{}, err
	}
	defer rows.Close()

	var result RunResult
	if rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return RunResult{}, err
		}
		if result.LastInsertRowid, err = toInt64(row["id"]); err != nil {
			return RunResult{}, err
		}
	}
	if err := rows.Err(); err != nil {
		return RunResult{}, err
	}
	return result, nil
}

func (p *postgresDB) Exec(ctx context.Context, query string) error {
	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *postgresDB) Dialect() Dialect { return Postgres }

func (p *postgresDB) Close() error { return p.db.Close() }
