package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dan9191/finmodel/internal/storage"
)

// ErrNotFound is returned when a row looked up by id does not exist
var ErrNotFound = errors.New("not found")

// Tables that Count accepts
const (
	TableFinancialData = "financial_data"
	TableDecisions     = "decisions"
	TableAgentLogs     = "agent_logs"
	TableModels        = "models"
	TableAgents        = "agents"
	TableIntegrations  = "integrations"
	TableUsers         = "users"
)

var countable = map[string]bool{
	TableFinancialData: true,
	TableDecisions:     true,
	TableAgentLogs:     true,
	TableModels:        true,
	TableAgents:        true,
	TableIntegrations:  true,
	TableUsers:         true,
}

// Repository provides database operations
type Repository struct {
	db storage.DB
}

// NewRepository initializes a new repository
func NewRepository(db storage.DB) *Repository {
	return &Repository{db: db}
}

// Dialect reports the engine behind the repository
func (r *Repository) Dialect() storage.Dialect {
	return r.db.Dialect()
}

// Count returns the number of rows in table
func (r *Repository) Count(ctx context.Context, table string) (int64, error) {
	if !countable[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var row struct {
		Count int64 `db:"count"`
	}
	if _, err := r.db.Get(ctx, &row, "SELECT COUNT(*) AS count FROM "+table); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return row.Count, nil
}

// Ping runs a trivial query to confirm the database answers
func (r *Repository) Ping(ctx context.Context) error {
	var row struct {
		One int64 `db:"one"`
	}
	_, err := r.db.Get(ctx, &row, "SELECT 1 AS one")
	return err
}
