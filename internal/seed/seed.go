// Package seed fills an empty database with a deterministic demo dataset.
// Every table is seeded only while it has no rows, so running it again
// leaves existing data alone.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dan9191/finmodel/internal/ledger"
	"github.com/Dan9191/finmodel/internal/models"
	"github.com/Dan9191/finmodel/internal/repository"
)

// DemoEmail is the login of the seeded demo user
const DemoEmail = "demo@finmodel.ai"

// OpeningCash is the balance before the first seeded month
const OpeningCash = 500000

type month struct {
	period            string
	revenue, expenses float64
}

var timeline = []month{
	{"2025-03", 9800, 40500},
	{"2025-04", 11200, 41200},
	{"2025-05", 12500, 42000},
	{"2025-06", 14800, 42800},
	{"2025-07", 16200, 43200},
	{"2025-08", 18200, 43500},
	{"2025-09", 21500, 44800},
	{"2025-10", 24800, 45500},
	{"2025-11", 26800, 46200},
	{"2025-12", 30200, 44100},
	{"2026-01", 31800, 45500},
	{"2026-02", 33500, 46800},
}

var agents = []models.Agent{
	{Name: "Financial analyst", Type: "analyst", Status: models.AgentActive},
	{Name: "CFO agent", Type: "cfo", Status: models.AgentActive},
	{Name: "Forecasting agent", Type: "forecasting", Status: models.AgentIdle},
}

var decisions = [][3]string{
	{"Increase marketing spend by 15% in Q1", "Strong pipeline, need brand awareness", "Higher lead volume"},
	{"Hire two additional engineers", "Product backlog growing", "Faster feature delivery"},
	{"Negotiate extended payment terms with key supplier", "Cash flow optimization", "Improved runway"},
	{"Launch paid tier for SMB segment", "Product-market fit validated", "Recurring revenue growth"},
	{"Consolidate cloud providers to reduce spend", "Current spend 40% above benchmark", "15-20% infra cost reduction"},
	{"Open second sales region (EMEA)", "Demand from EU prospects", "New pipeline within 2 quarters"},
}

type agentLog struct {
	agent, action, recommendation string
	impact                        float64
}

var agentLogs = []agentLog{
	{"Financial analyst", "Reviewed monthly P&L", "Consider reducing discretionary spend in Q2", 0.7},
	{"CFO agent", "Cash flow forecast updated", "Maintain 6-month runway buffer", 0.9},
	{"Forecasting agent", "Revenue model recalibrated", "Revise Q3 targets upward by 8%", 0.6},
	{"Financial analyst", "Variance analysis (actual vs budget)", "Investigate 12% overspend in marketing", 0.8},
	{"CFO agent", "Runway projection", "Extend runway by delaying non-critical hires", 0.75},
	{"Forecasting agent", "Churn model updated", "Focus retention on accounts 18-24 months old", 0.65},
}

var modelConfigs = [][2]string{
	{"Revenue forecast v1", `{"horizon_months":12,"method":"linear"}`},
	{"Expense model", `{"categories":["payroll","ops","marketing"]}`},
	{"Churn prediction", `{"lookback_months":6,"threshold":0.4}`},
	{"CAC payback", `{"cohort_window":12}`},
}

var integrations = []models.Integration{
	{Provider: "QuickBooks", Type: "accounting"},
	{Provider: "Stripe", Type: "payments"},
	{Provider: "Xero", Type: "accounting"},
}

// Seeder writes the demo dataset through a repository
type Seeder struct {
	repo         *repository.Repository
	log          *logrus.Logger
	demoPassword string
}

// NewSeeder creates a seeder; demoPassword is hashed for the demo user
func NewSeeder(repo *repository.Repository, log *logrus.Logger, demoPassword string) *Seeder {
	return &Seeder{repo: repo, log: log, demoPassword: demoPassword}
}

// Run seeds every empty table and returns the names of the tables it filled
func (s *Seeder) Run(ctx context.Context) ([]string, error) {
	steps := []struct {
		table string
		fill  func(context.Context) error
	}{
		{repository.TableFinancialData, s.seedFinancials},
		{repository.TableAgents, s.seedAgents},
		{repository.TableUsers, s.seedUsers},
		{repository.TableDecisions, s.seedDecisions},
		{repository.TableAgentLogs, s.seedAgentLogs},
		{repository.TableModels, s.seedModels},
		{repository.TableIntegrations, s.seedIntegrations},
	}

	seeded := []string{}
	for _, step := range steps {
		n, err := s.repo.Count(ctx, step.table)
		if err != nil {
			return seeded, err
		}
		if n > 0 {
			continue
		}
		if err := step.fill(ctx); err != nil {
			return seeded, fmt.Errorf("failed to seed %s: %w", step.table, err)
		}
		seeded = append(seeded, step.table)
		s.log.Infof("Seeded %s", step.table)
	}
	return seeded, nil
}

func (s *Seeder) seedFinancials(ctx context.Context) error {
	category := "operating"
	cash := decimal.NewFromInt(OpeningCash)
	for _, m := range timeline {
		var err error
		if cash, err = ledger.NextBalance(cash, m.revenue, m.expenses); err != nil {
			return fmt.Errorf("failed to carry cash into %s: %w", m.period, err)
		}
		row := &models.FinancialMetric{
			Month:      m.period,
			Revenue:    m.revenue,
			Expenses:   m.expenses,
			CashOnHand: cash.InexactFloat64(),
			Category:   &category,
		}
		if err := s.repo.CreateFinancial(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedAgents(ctx context.Context) error {
	for _, a := range agents {
		a := a
		if err := s.repo.CreateAgent(ctx, &a); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(s.demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, &models.User{Email: DemoEmail, PasswordHash: string(hash)})
}

func (s *Seeder) seedDecisions(ctx context.Context) error {
	for _, d := range decisions {
		d := d
		row := &models.Decision{
			DecisionText:    d[0],
			Context:         &d[1],
			ExpectedOutcome: &d[2],
			Status:          models.DecisionPending,
		}
		if err := s.repo.CreateDecision(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedAgentLogs(ctx context.Context) error {
	for _, l := range agentLogs {
		l := l
		row := &models.AgentLog{
			AgentName:      l.agent,
			Action:         l.action,
			Recommendation: &l.recommendation,
			ImpactScore:    &l.impact,
		}
		if err := s.repo.CreateAgentLog(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedModels(ctx context.Context) error {
	for _, m := range modelConfigs {
		m := m
		if err := s.repo.CreateModel(ctx, &models.Model{Name: m[0], Version: "1", Config: &m[1]}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedIntegrations(ctx context.Context) error {
	for _, i := range integrations {
		i := i
		if err := s.repo.CreateIntegration(ctx, &i); err != nil {
			return err
		}
	}
	return nil
}
