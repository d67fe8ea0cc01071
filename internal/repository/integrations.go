package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/finmodel/internal/models"
)

const integrationColumns = "id, provider, type, status, config, last_sync_at, created_at, updated_at"

// ListIntegrations returns integrations in creation order
func (r *Repository) ListIntegrations(ctx context.Context) ([]models.Integration, error) {
	rows := []models.Integration{}
	query := "SELECT " + integrationColumns + " FROM integrations ORDER BY id ASC"
	if err := r.db.All(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return rows, nil
}

// ListIntegrationsByStatus returns integrations currently in status
func (r *Repository) ListIntegrationsByStatus(ctx context.Context, status string) ([]models.Integration, error) {
	rows := []models.Integration{}
	query := "SELECT " + integrationColumns + " FROM integrations WHERE status = $1 ORDER BY id ASC"
	if err := r.db.All(ctx, &rows, query, status); err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return rows, nil
}

// GetIntegration retrieves an integration by id
func (r *Repository) GetIntegration(ctx context.Context, id int64) (*models.Integration, error) {
	i := &models.Integration{}
	found, err := r.db.Get(ctx, i, "SELECT "+integrationColumns+" FROM integrations WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find integration: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return i, nil
}

// CreateIntegration inserts an integration, disconnected unless stated otherwise
func (r *Repository) CreateIntegration(ctx context.Context, i *models.Integration) error {
	if i.Status == "" {
		i.Status = models.IntegrationDisconnected
	}
	query := `
		INSERT INTO integrations (provider, type, status, config)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	res, err := r.db.Run(ctx, query, i.Provider, i.Type, i.Status, i.Config)
	if err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	i.ID = res.LastInsertRowid
	return nil
}

// UpdateIntegrationConfig replaces the config document of an integration
func (r *Repository) UpdateIntegrationConfig(ctx context.Context, id int64, config string) error {
	query := "UPDATE integrations SET config = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2"
	if _, err := r.db.Run(ctx, query, config, id); err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	return nil
}

// MarkIntegrationSynced records a successful sync
func (r *Repository) MarkIntegrationSynced(ctx context.Context, id int64) error {
	query := `
		UPDATE integrations
		SET status = $1, last_sync_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`
	if _, err := r.db.Run(ctx, query, models.IntegrationConnected, id); err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	return nil
}

// SetIntegrationStatus changes the status without touching last_sync_at
func (r *Repository) SetIntegrationStatus(ctx context.Context, id int64, status string) error {
	query := "UPDATE integrations SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2"
	if _, err := r.db.Run(ctx, query, status, id); err != nil {
		return fmt.Errorf("failed to update integration: %w", err)
	}
	return nil
}
