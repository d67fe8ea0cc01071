package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/finmodel/internal/models"
)

const decisionColumns = "id, timestamp, decision_text, context, expected_outcome, actual_outcome, status"

// ListDecisions returns decisions newest first
func (r *Repository) ListDecisions(ctx context.Context) ([]models.Decision, error) {
	rows := []models.Decision{}
	query := "SELECT " + decisionColumns + " FROM decisions ORDER BY timestamp DESC, id DESC"
	if err := r.db.All(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	return rows, nil
}

// GetDecision retrieves a decision by id
func (r *Repository) GetDecision(ctx context.Context, id int64) (*models.Decision, error) {
	d := &models.Decision{}
	found, err := r.db.Get(ctx, d, "SELECT "+decisionColumns+" FROM decisions WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find decision: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return d, nil
}

// CreateDecision inserts a decision; an empty status is stored as pending
func (r *Repository) CreateDecision(ctx context.Context, d *models.Decision) error {
	if d.Status == "" {
		d.Status = models.DecisionPending
	}
	query := `
		INSERT INTO decisions (decision_text, context, expected_outcome, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	res, err := r.db.Run(ctx, query, d.DecisionText, d.Context, d.ExpectedOutcome, d.Status)
	if err != nil {
		return fmt.Errorf("failed to create decision: %w", err)
	}
	d.ID = res.LastInsertRowid
	return nil
}

// UpdateDecision changes status and/or actual outcome. Nil arguments keep the
// stored value.
func (r *Repository) UpdateDecision(ctx context.Context, id int64, status, actualOutcome *string) error {
	query := `
		UPDATE decisions
		SET status = COALESCE($1, status), actual_outcome = COALESCE($2, actual_outcome)
		WHERE id = $3`
	if _, err := r.db.Run(ctx, query, status, actualOutcome, id); err != nil {
		return fmt.Errorf("failed to update decision: %w", err)
	}
	return nil
}
