package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finmodel/internal/config"
	"github.com/Dan9191/finmodel/internal/events"
	"github.com/Dan9191/finmodel/internal/healthscore"
	"github.com/Dan9191/finmodel/internal/integrations/feed"
	"github.com/Dan9191/finmodel/internal/ledger"
	"github.com/Dan9191/finmodel/internal/models"
	"github.com/Dan9191/finmodel/internal/repository"
	"github.com/Dan9191/finmodel/internal/storage"
)

// AgentLogLimit is how many agent log entries a listing returns
const AgentLogLimit = 50

// ErrNotFound is returned when the addressed row does not exist
var ErrNotFound = repository.ErrNotFound

// ValidationError is a client mistake the caller should report as a 400
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err is a ValidationError and returns it
func IsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

// Publisher delivers change notifications to connected clients
type Publisher interface {
	Broadcast(event string, payload any) int
}

// FeedFetcher pulls monthly figures from a provider
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Month, error)
}

// Alerter emails a poor health score
type Alerter interface {
	Enabled() bool
	SendHealthAlert(result models.HealthScoreResult, source string) error
}

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	log    *logrus.Logger
	config *config.Config
	events Publisher
	feeds  FeedFetcher
	alerts Alerter
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config, pub Publisher, feeds FeedFetcher, alerts Alerter) *Service {
	return &Service{repo: repo, log: log, config: cfg, events: pub, feeds: feeds, alerts: alerts}
}

// changed tells every client to refetch
func (s *Service) changed() {
	n := s.events.Broadcast(events.Refresh, nil)
	s.log.Debugf("Refresh queued for %d clients", n)
}

// Ping checks the database and reports which engine serves it
func (s *Service) Ping(ctx context.Context) (storage.Dialect, error) {
	return s.repo.Dialect(), s.repo.Ping(ctx)
}

// Financials returns the stored timeline in ascending month order
func (s *Service) Financials(ctx context.Context) ([]models.FinancialMetric, error) {
	return s.repo.ListFinancials(ctx)
}

// CreateFinancial stores one month
func (s *Service) CreateFinancial(ctx context.Context, m *models.FinancialMetric) error {
	if !models.ValidMonth(m.Month) {
		return &ValidationError{Message: "month must be in YYYY-MM format", Field: "month"}
	}
	if m.Revenue < 0 {
		return &ValidationError{Message: "revenue must not be negative", Field: "revenue"}
	}
	if m.Expenses < 0 {
		return &ValidationError{Message: "expenses must not be negative", Field: "expenses"}
	}

	known, err := s.repo.FinancialMonths(ctx)
	if err != nil {
		return err
	}
	if known[m.Month] {
		return &ValidationError{Message: fmt.Sprintf("month %s is already recorded", m.Month), Field: "month"}
	}
	if err := s.repo.CreateFinancial(ctx, m); err != nil {
		return err
	}
	s.log.Infof("Financial month stored: %s", m.Month)
	s.changed()
	return nil
}

// Reconciliation checks the stored timeline against the cash identity
func (s *Service) Reconciliation(ctx context.Context) (models.LedgerReport, error) {
	data, err := s.repo.ListFinancials(ctx)
	if err != nil {
		return models.LedgerReport{}, err
	}
	return ledger.Reconcile(data), nil
}

// HealthScore scores caller-supplied data
func (s *Service) HealthScore(data []models.FinancialMetric) models.HealthScoreResult {
	return healthscore.Compute(data)
}

// StoredHealthScore scores the stored timeline
func (s *Service) StoredHealthScore(ctx context.Context) (models.HealthScoreResult, error) {
	data, err := s.repo.ListFinancials(ctx)
	if err != nil {
		return models.HealthScoreResult{}, err
	}
	return healthscore.Compute(data), nil
}

// Decisions returns decisions newest first
func (s *Service) Decisions(ctx context.Context) ([]models.Decision, error) {
	return s.repo.ListDecisions(ctx)
}

// CreateDecision records a new pending decision
func (s *Service) CreateDecision(ctx context.Context, d *models.Decision) error {
	d.Status = models.DecisionPending
	if err := s.repo.CreateDecision(ctx, d); err != nil {
		return err
	}
	s.log.Infof("Decision recorded: %d", d.ID)
	s.changed()
	return nil
}

// UpdateDecision changes status and/or outcome and returns the stored row
func (s *Service) UpdateDecision(ctx context.Context, id int64, status, actualOutcome *string) (*models.Decision, error) {
	if status != nil && !models.ValidDecisionStatus(*status) {
		return nil, &ValidationError{Message: "status must be one of pending, approved, rejected, completed", Field: "status"}
	}
	if status == nil && actualOutcome == nil {
		return nil, &ValidationError{Message: "status or actual_outcome is required"}
	}
	if _, err := s.repo.GetDecision(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDecision(ctx, id, status, actualOutcome); err != nil {
		return nil, err
	}
	d, err := s.repo.GetDecision(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Decision %d updated: %s", id, d.Status)
	s.changed()
	return d, nil
}

// AgentLogs returns the most recent agent log entries
func (s *Service) AgentLogs(ctx context.Context) ([]models.AgentLog, error) {
	return s.repo.ListAgentLogs(ctx, AgentLogLimit)
}

// CreateAgentLog records an agent action
func (s *Service) CreateAgentLog(ctx context.Context, l *models.AgentLog) error {
	if err := s.repo.CreateAgentLog(ctx, l); err != nil {
		return err
	}
	s.changed()
	return nil
}

// Models returns stored model configurations
func (s *Service) Models(ctx context.Context) ([]models.Model, error) {
	return s.repo.ListModels(ctx)
}

// CreateModel stores a model configuration
func (s *Service) CreateModel(ctx context.Context, m *models.Model) error {
	if err := s.repo.CreateModel(ctx, m); err != nil {
		return err
	}
	s.log.Infof("Model stored: %s v%s", m.Name, m.Version)
	s.changed()
	return nil
}

// Agents returns registered agents
func (s *Service) Agents(ctx context.Context) ([]models.Agent, error) {
	return s.repo.ListAgents(ctx)
}

// UpdateAgentStatus moves an agent between idle, active and paused
func (s *Service) UpdateAgentStatus(ctx context.Context, id int64, status string) (*models.Agent, error) {
	if !models.ValidAgentStatus(status) {
		return nil, &ValidationError{Message: "status must be one of idle, active, paused", Field: "status"}
	}
	if _, err := s.repo.GetAgent(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAgentStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a, err := s.repo.GetAgent(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Agent %s is now %s", a.Name, a.Status)
	s.changed()
	return a, nil
}
