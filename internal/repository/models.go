package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/finmodel/internal/models"
)

// ListModels returns model configurations in creation order
func (r *Repository) ListModels(ctx context.Context) ([]models.Model, error) {
	rows := []models.Model{}
	query := "SELECT id, name, version, config, created_at, updated_at FROM models ORDER BY id ASC"
	if err := r.db.All(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return rows, nil
}

// CreateModel inserts a model configuration; an empty version is stored as "1"
func (r *Repository) CreateModel(ctx context.Context, m *models.Model) error {
	if m.Version == "" {
		m.Version = "1"
	}
	query := `
		INSERT INTO models (name, version, config)
		VALUES ($1, $2, $3)
		RETURNING id`
	res, err := r.db.Run(ctx, query, m.Name, m.Version, m.Config)
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}
	m.ID = res.LastInsertRowid
	return nil
}
