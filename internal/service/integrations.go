package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/Dan9191/finmodel/internal/integrations/feed"
	"github.com/Dan9191/finmodel/internal/ledger"
	"github.com/Dan9191/finmodel/internal/metrics"
	"github.com/Dan9191/finmodel/internal/models"
	"github.com/Dan9191/finmodel/internal/notify"
)

// ErrSyncFailed wraps provider failures during a sync
var ErrSyncFailed = errors.New("integration sync failed")

// Integrations returns configured data sources
func (s *Service) Integrations(ctx context.Context) ([]models.Integration, error) {
	return s.repo.ListIntegrations(ctx)
}

// ConfigureIntegration points an integration at its feed
func (s *Service) ConfigureIntegration(ctx context.Context, id int64, feedURL string) (*models.Integration, error) {
	u, err := url.ParseRequestURI(feedURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, &ValidationError{Message: "feed_url must be an absolute http(s) URL", Field: "feed_url"}
	}
	if _, err := s.repo.GetIntegration(ctx, id); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(models.IntegrationConfig{FeedURL: feedURL})
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateIntegrationConfig(ctx, id, string(raw)); err != nil {
		return nil, err
	}
	i, err := s.repo.GetIntegration(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed()
	return i, nil
}

// SyncIntegration imports every month of the feed that is not stored yet
func (s *Service) SyncIntegration(ctx context.Context, id int64) (*models.SyncResult, error) {
	integration, err := s.repo.GetIntegration(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeConfig(integration.Config)
	if err != nil || cfg.FeedURL == "" {
		return nil, &ValidationError{Message: "integration has no feed_url configured", Field: "feed_url"}
	}

	months, err := s.feeds.Fetch(ctx, cfg.FeedURL)
	if err == nil {
		err = checkMonths(months)
	}
	if err != nil {
		s.log.Errorf("Sync of %s failed: %v", integration.Provider, err)
		metrics.RecordIntegrationSync(integration.Provider, false)
		if serr := s.repo.SetIntegrationStatus(ctx, id, models.IntegrationError); serr != nil {
			s.log.Errorf("Failed to mark %s as errored: %v", integration.Provider, serr)
		} else {
			s.changed()
		}
		return nil, fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	result, err := s.importMonths(ctx, integration, months)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkIntegrationSynced(ctx, id); err != nil {
		return nil, err
	}
	metrics.RecordIntegrationSync(integration.Provider, true)
	s.log.Infof("Synced %s: %d imported, %d skipped", integration.Provider, result.Imported, result.Skipped)
	s.changed()

	if result.Imported > 0 {
		s.alertIfPoor(ctx, integration.Provider)
	}
	return result, nil
}

// SyncConnected re-syncs every connected integration; failures are logged
func (s *Service) SyncConnected(ctx context.Context) {
	connected, err := s.repo.ListIntegrationsByStatus(ctx, models.IntegrationConnected)
	if err != nil {
		s.log.Errorf("Failed to list connected integrations: %v", err)
		return
	}
	for _, i := range connected {
		if _, err := s.SyncIntegration(ctx, i.ID); err != nil {
			s.log.Warnf("Scheduled sync of %s failed: %v", i.Provider, err)
		}
	}
}

// importMonths inserts new periods in order. Months without a closing balance
// carry the previous balance forward.
func (s *Service) importMonths(ctx context.Context, integration *models.Integration, months []feed.Month) (*models.SyncResult, error) {
	stored, err := s.repo.ListFinancials(ctx)
	if err != nil {
		return nil, err
	}
	cashByMonth := make(map[string]float64, len(stored))
	for _, m := range stored {
		cashByMonth[m.Month] = m.CashOnHand
	}

	sort.SliceStable(months, func(i, j int) bool { return months[i].Period < months[j].Period })

	result := &models.SyncResult{IntegrationID: integration.ID, Months: []string{}}
	category := integration.Type
	for _, m := range months {
		if _, ok := cashByMonth[m.Period]; ok {
			result.Skipped++
			continue
		}

		cash := m.Cash
		if !m.HasCash {
			prev, err := ledger.Amount(previousCash(cashByMonth, m.Period))
			if err != nil {
				return nil, fmt.Errorf("failed to carry cash into %s: %w", m.Period, err)
			}
			balance, err := ledger.NextBalance(prev, m.Revenue, m.Expenses)
			if err != nil {
				return nil, fmt.Errorf("failed to carry cash into %s: %w", m.Period, err)
			}
			cash = balance.InexactFloat64()
		}
		row := &models.FinancialMetric{
			Month:      m.Period,
			Revenue:    m.Revenue,
			Expenses:   m.Expenses,
			CashOnHand: cash,
			Category:   &category,
		}
		if err := s.repo.CreateFinancial(ctx, row); err != nil {
			return nil, err
		}
		cashByMonth[m.Period] = cash
		result.Imported++
		result.Months = append(result.Months, m.Period)
	}
	return result, nil
}

// checkMonths rejects provider data that cannot be stored as a timeline
func checkMonths(months []feed.Month) error {
	for _, m := range months {
		if !ledger.Finite(m.Revenue) || !ledger.Finite(m.Expenses) || (m.HasCash && !ledger.Finite(m.Cash)) {
			return fmt.Errorf("month %s has a non-finite amount", m.Period)
		}
		if m.Revenue < 0 || m.Expenses < 0 {
			return fmt.Errorf("month %s has a negative revenue or expense", m.Period)
		}
	}
	return nil
}

// previousCash is the balance of the latest month before period, or 0
func previousCash(cashByMonth map[string]float64, period string) float64 {
	latest, cash := "", 0.0
	for month, c := range cashByMonth {
		if month < period && month > latest {
			latest, cash = month, c
		}
	}
	return cash
}

func (s *Service) alertIfPoor(ctx context.Context, source string) {
	if s.alerts == nil || !s.alerts.Enabled() {
		return
	}
	result, err := s.StoredHealthScore(ctx)
	if err != nil {
		s.log.Errorf("Failed to score after import: %v", err)
		return
	}
	if !notify.NeedsAlert(result) {
		return
	}
	if err := s.alerts.SendHealthAlert(result, source); err != nil {
		s.log.Warnf("Health alert not delivered: %v", err)
	}
}

func decodeConfig(raw *string) (models.IntegrationConfig, error) {
	var cfg models.IntegrationConfig
	if raw == nil || *raw == "" {
		return cfg, nil
	}
	err := json.Unmarshal([]byte(*raw), &cfg)
	return cfg, err
}
