package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/finmodel/internal/models"
)

// ListFinancials returns the whole timeline in ascending month order
func (r *Repository) ListFinancials(ctx context.Context) ([]models.FinancialMetric, error) {
	rows := []models.FinancialMetric{}
	query := `
		SELECT id, month, revenue, expenses, cash_on_hand, category
		FROM financial_data
		ORDER BY month ASC, id ASC`
	if err := r.db.All(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list financials: %w", err)
	}
	return rows, nil
}

// CreateFinancial inserts one month and sets its generated id
func (r *Repository) CreateFinancial(ctx context.Context, m *models.FinancialMetric) error {
	query := `
		INSERT INTO financial_data (month, revenue, expenses, cash_on_hand, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	res, err := r.db.Run(ctx, query, m.Month, m.Revenue, m.Expenses, m.CashOnHand, m.Category)
	if err != nil {
		return fmt.Errorf("failed to create financial month: %w", err)
	}
	m.ID = res.LastInsertRowid
	return nil
}

// FinancialMonths returns the set of months already stored
func (r *Repository) FinancialMonths(ctx context.Context) (map[string]bool, error) {
	var months []string
	if err := r.db.All(ctx, &months, "SELECT month FROM financial_data"); err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	set := make(map[string]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return set, nil
}
