package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/finmodel/internal/models"
)

const agentColumns = "id, name, type, config, status, created_at, updated_at"

// ListAgents returns agents in registration order
func (r *Repository) ListAgents(ctx context.Context) ([]models.Agent, error) {
	rows := []models.Agent{}
	if err := r.db.All(ctx, &rows, "SELECT "+agentColumns+" FROM agents ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	return rows, nil
}

// GetAgent retrieves an agent by id
func (r *Repository) GetAgent(ctx context.Context, id int64) (*models.Agent, error) {
	a := &models.Agent{}
	found, err := r.db.Get(ctx, a, "SELECT "+agentColumns+" FROM agents WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return a, nil
}

// CreateAgent registers an agent; names are unique
func (r *Repository) CreateAgent(ctx context.Context, a *models.Agent) error {
	if a.Status == "" {
		a.Status = models.AgentIdle
	}
	query := `
		INSERT INTO agents (name, type, config, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	res, err := r.db.Run(ctx, query, a.Name, a.Type, a.Config, a.Status)
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}
	a.ID = res.LastInsertRowid
	return nil
}

// UpdateAgentStatus sets the status of an agent and bumps updated_at
func (r *Repository) UpdateAgentStatus(ctx context.Context, id int64, status string) error {
	query := "UPDATE agents SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2"
	if _, err := r.db.Run(ctx, query, status, id); err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}
	return nil
}

// ListAgentLogs returns at most limit entries, newest first
func (r *Repository) ListAgentLogs(ctx context.Context, limit int) ([]models.AgentLog, error) {
	rows := []models.AgentLog{}
	query := `
		SELECT id, timestamp, agent_name, action, recommendation, impact_score
		FROM agent_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`
	if err := r.db.All(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list agent logs: %w", err)
	}
	return rows, nil
}

// CreateAgentLog records an agent action
func (r *Repository) CreateAgentLog(ctx context.Context, l *models.AgentLog) error {
	query := `
		INSERT INTO agent_logs (agent_name, action, recommendation, impact_score)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	res, err := r.db.Run(ctx, query, l.AgentName, l.Action, l.Recommendation, l.ImpactScore)
	if err != nil {
		return fmt.Errorf("failed to create agent log: %w", err)
	}
	l.ID = res.LastInsertRowid
	return nil
}
