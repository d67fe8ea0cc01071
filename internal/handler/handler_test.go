package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finmodel/internal/config"
	"github.com/Dan9191/finmodel/internal/events"
	"github.com/Dan9191/finmodel/internal/integrations/feed"
	"github.com/Dan9191/finmodel/internal/middleware"
	"github.com/Dan9191/finmodel/internal/models"
	"github.com/Dan9191/finmodel/internal/notify"
	"github.com/Dan9191/finmodel/internal/repository"
	"github.com/Dan9191/finmodel/internal/service"
	"github.com/Dan9191/finmodel/internal/storage"
)

type frameSink struct {
	mu     sync.Mutex
	frames []string
}

func (s *frameSink) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, string(frame))
	return nil
}

func (s *frameSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *frameSink) first() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return ""
	}
	return s.frames[0]
}

// wait blocks until the broadcaster's writer has delivered n frames.
func (s *frameSink) wait(t *testing.T, n int) {
	t.Helper()
	assert.Eventually(t, func() bool { return s.count() == n }, 2*time.Second, 10*time.Millisecond)
}

type testServer struct {
	router *mux.Router
	repo   *repository.Repository
	db     storage.DB
	sink   *frameSink
}

func setupServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	ctx := context.Background()
	db, err := storage.Open(ctx, storage.Options{Path: filepath.Join(t.TempDir(), "api.db"), Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitSchema(ctx, db))

	cfg := &config.Config{FeedTimeout: 2 * time.Second}
	repo := repository.NewRepository(db)
	b := events.NewBroadcaster(log)
	sink := &frameSink{}
	b.Register(sink)

	svc := service.NewService(repo, log, cfg, b, feed.NewClient(cfg, log), notify.NewSender(cfg, log))
	if limiter == nil {
		limiter = middleware.NewRateLimiter(1000, 1000, log)
	}

	r := mux.NewRouter()
	r.Use(middleware.Logging(log))
	NewHandler(svc, b, log).Register(r, limiter.Handler)
	return &testServer{router: r, repo: repo, db: db, sink: sink}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestFinancialRoutes(t *testing.T) {
	s := setupServer(t, nil)

	t.Run("When nothing is stored the list is empty", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/financials", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("When a month is posted it is stored and clients refresh", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/financials", `{"month":"2026-03","revenue":10000,"expenses":40000,"cash_on_hand":200000}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"id":1}`, rec.Body.String())
		s.sink.wait(t, 1)
		assert.Equal(t, "event: refresh\ndata: {}\n\n", s.sink.first())

		list := decodeBody[[]models.FinancialMetric](t, s.do(http.MethodGet, "/api/financials", ""))
		require.Len(t, list, 1)
		assert.Equal(t, 200000.0, list[0].CashOnHand)
	})

	t.Run("When the stored timeline is scored", func(t *testing.T) {
		result := decodeBody[models.HealthScoreResult](t, s.do(http.MethodGet, "/api/health-score", ""))
		assert.Equal(t, 52, result.Score)
		assert.Equal(t, models.GradeC, result.Grade)
	})

	t.Run("When the month is already recorded", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/financials", `{"month":"2026-03","revenue":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"month 2026-03 is already recorded","field":"month"}`, rec.Body.String())

		list := decodeBody[[]models.FinancialMetric](t, s.do(http.MethodGet, "/api/financials", ""))
		assert.Len(t, list, 1)
	})

	t.Run("When an amount is negative", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/financials", `{"month":"2026-04","revenue":-5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"revenue must not be negative","field":"revenue"}`, rec.Body.String())

		rec = s.do(http.MethodPost, "/api/financials", `{"month":"2026-04","expenses":-5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"expenses must not be negative","field":"expenses"}`, rec.Body.String())
	})

	t.Run("When the month is malformed", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/financials", `{"month":"03/2026"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"month must be in YYYY-MM format","field":"month"}`, rec.Body.String())
	})

	t.Run("When the month is missing", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/financials", `{"revenue":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"month is required","field":"month"}`, rec.Body.String())
	})

	t.Run("When an amount is not a number", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/financials", `{"month":"2026-04","revenue":"lots"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"revenue must be a number","field":"revenue"}`, rec.Body.String())
	})

	t.Run("When the body is not JSON", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/financials", `{nope`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid JSON body"}`, rec.Body.String())
	})

	t.Run("When the timeline is reconciled", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/financials/reconciliation", "")
		require.Equal(t, http.StatusOK, rec.Code)
		report := decodeBody[models.LedgerReport](t, rec)
		assert.Equal(t, 1, report.Months)
		assert.True(t, report.Consistent)
	})

	s.sink.wait(t, 1)
}

func TestComputeHealthScore(t *testing.T) {
	s := setupServer(t, nil)

	t.Run("When one month is submitted", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/health-score", `[{"month":"2026-03","revenue":10000,"expenses":40000,"cash_on_hand":200000}]`)
		require.Equal(t, http.StatusOK, rec.Code)
		result := decodeBody[models.HealthScoreResult](t, rec)
		assert.Equal(t, 52, result.Score)
		assert.Equal(t, models.GradeC, result.Grade)
		assert.Equal(t, models.TrendStable, result.Trend)
		require.Len(t, result.Breakdown, 4)
		assert.Equal(t, 55, result.Breakdown[0].Score)
	})

	t.Run("When amounts arrive as numeric strings", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/health-score", `[{"month":"2026-03","revenue":"10000","expenses":" 40000 ","cash_on_hand":"200000"}]`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 52, decodeBody[models.HealthScoreResult](t, rec).Score)
	})

	t.Run("When the list is empty", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/health-score", `[]`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"score":0,"grade":"F","trend":"stable","breakdown":[],"summary":"No financial data available to compute health score."}`, rec.Body.String())
	})

	t.Run("When entries are not objects they score as zeros", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/health-score", `[1, "x", null, {"revenue": true}]`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 87, decodeBody[models.HealthScoreResult](t, rec).Score)
	})

	t.Run("When the body is not an array", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/health-score", `{"month":"2026-03"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Expected array of financial metrics"}`, rec.Body.String())
	})

	month := `{"month":"2026-01","revenue":1,"expenses":1,"cash_on_hand":1}`
	entries := func(n int) string {
		return "[" + strings.TrimSuffix(strings.Repeat(month+",", n), ",") + "]"
	}

	t.Run("When exactly the maximum is submitted", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/health-score", entries(MaxScoreEntries))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("When more than the maximum is submitted", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/health-score", entries(MaxScoreEntries+1))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), fmt.Sprintf("At most %d", MaxScoreEntries))
	})
}

func TestComputeHealthScoreIsRateLimited(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := setupServer(t, middleware.NewRateLimiter(1, 1, log))

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/health-score", `[]`).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/api/health-score", `[]`).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/health-score", "").Code)
}

func TestDecisionRoutes(t *testing.T) {
	s := setupServer(t, nil)

	rec := s.do(http.MethodPost, "/api/decisions", `{"decision_text":"Hire two engineers","context":"Backlog growing"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[createdBody](t, rec).ID

	t.Run("When decision_text is missing", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/decisions", `{"context":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"decision_text is required","field":"decision_text"}`, rec.Body.String())
	})

	t.Run("When listing", func(t *testing.T) {
		list := decodeBody[[]models.Decision](t, s.do(http.MethodGet, "/api/decisions", ""))
		require.Len(t, list, 1)
		assert.Equal(t, models.DecisionPending, list[0].Status)
		assert.Equal(t, "Backlog growing", *list[0].Context)
	})

	t.Run("When the status changes", func(t *testing.T) {
		rec := s.do(http.MethodPatch, fmt.Sprintf("/api/decisions/%d", id), `{"status":"approved","actual_outcome":"Hired"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		d := decodeBody[models.Decision](t, rec)
		assert.Equal(t, models.DecisionApproved, d.Status)
		assert.Equal(t, "Hired", *d.ActualOutcome)
	})

	t.Run("When the status is unknown", func(t *testing.T) {
		rec := s.do(http.MethodPatch, fmt.Sprintf("/api/decisions/%d", id), `{"status":"maybe"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "status", decodeBody[validationBody](t, rec).Field)
	})

	t.Run("When the decision does not exist", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/decisions/999", `{"status":"approved"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"Decision not found"}`, rec.Body.String())
	})

	t.Run("When the id is not numeric the route does not match", func(t *testing.T) {
		rec := s.do(http.MethodPatch, "/api/decisions/abc", `{"status":"approved"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	s.sink.wait(t, 2)
}

func TestAgentRoutes(t *testing.T) {
	s := setupServer(t, nil)
	ctx := context.Background()

	agent := &models.Agent{Name: "CFO agent", Type: "cfo"}
	require.NoError(t, s.repo.CreateAgent(ctx, agent))

	t.Run("When listing agents", func(t *testing.T) {
		list := decodeBody[[]models.Agent](t, s.do(http.MethodGet, "/api/agents", ""))
		require.Len(t, list, 1)
		assert.Equal(t, models.AgentIdle, list[0].Status)
	})

	t.Run("When pausing an agent", func(t *testing.T) {
		rec := s.do(http.MethodPatch, fmt.Sprintf("/api/agents/%d", agent.ID), `{"status":"paused"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.AgentPaused, decodeBody[models.Agent](t, rec).Status)
	})

	t.Run("When the status is unknown", func(t *testing.T) {
		rec := s.do(http.MethodPatch, fmt.Sprintf("/api/agents/%d", agent.ID), `{"status":"asleep"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("When logging an action", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/agent-logs", `{"agent_name":"CFO agent","action":"Runway projection","impact_score":0.75}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		list := decodeBody[[]models.AgentLog](t, s.do(http.MethodGet, "/api/agent-logs", ""))
		require.Len(t, list, 1)
		assert.InDelta(t, 0.75, *list[0].ImpactScore, 1e-9)
	})

	t.Run("When the action is missing", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/agent-logs", `{"agent_name":"CFO agent"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"agent_name and action are required","field":"action"}`, rec.Body.String())
	})
}

func TestModelRoutes(t *testing.T) {
	s := setupServer(t, nil)

	t.Run("When config is an object", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/models", `{"name":"Churn prediction","config":{"lookback_months":6}}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("When config is already a string", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/models", `{"name":"CAC payback","version":"2","config":"{\"cohort_window\":12}"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("When the name is missing", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/models", `{"version":"1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	list := decodeBody[[]models.Model](t, s.do(http.MethodGet, "/api/models", ""))
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].Version)
	assert.JSONEq(t, `{"lookback_months":6}`, *list[0].Config)
	assert.Equal(t, "2", list[1].Version)
	assert.JSONEq(t, `{"cohort_window":12}`, *list[1].Config)
}

func TestIntegrationRoutes(t *testing.T) {
	s := setupServer(t, nil)
	ctx := context.Background()

	var failing atomic.Bool
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		io.WriteString(w, `<ledger><month><period>2026-01</period><revenue>30000</revenue><expenses>40000</expenses><cash>120000</cash></month></ledger>`)
	}))
	defer provider.Close()

	qb := &models.Integration{Provider: "QuickBooks", Type: "accounting"}
	require.NoError(t, s.repo.CreateIntegration(ctx, qb))
	path := fmt.Sprintf("/api/integrations/%d", qb.ID)

	t.Run("When syncing before a feed is configured", func(t *testing.T) {
		rec := s.do(http.MethodPost, path+"/sync", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "feed_url", decodeBody[validationBody](t, rec).Field)
	})

	t.Run("When configuring the feed", func(t *testing.T) {
		rec := s.do(http.MethodPatch, path, fmt.Sprintf(`{"feed_url":%q}`, provider.URL))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, fmt.Sprintf(`{"feed_url":%q}`, provider.URL), *decodeBody[models.Integration](t, rec).Config)
	})

	t.Run("When syncing", func(t *testing.T) {
		rec := s.do(http.MethodPost, path+"/sync", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		result := decodeBody[models.SyncResult](t, rec)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, []string{"2026-01"}, result.Months)

		list := decodeBody[[]models.Integration](t, s.do(http.MethodGet, "/api/integrations", ""))
		require.Len(t, list, 1)
		assert.Equal(t, models.IntegrationConnected, list[0].Status)
		assert.NotNil(t, list[0].LastSyncAt)
	})

	t.Run("When syncing again nothing new is imported", func(t *testing.T) {
		rec := s.do(http.MethodPost, path+"/sync", "")
		require.Equal(t, http.StatusOK, rec.Code)
		result := decodeBody[models.SyncResult](t, rec)
		assert.Zero(t, result.Imported)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("When the provider fails", func(t *testing.T) {
		failing.Store(true)
		rec := s.do(http.MethodPost, path+"/sync", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to sync integration"}`, rec.Body.String())
	})

	t.Run("When the integration does not exist", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/integrations/999/sync", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStorageFailuresAreOpaque(t *testing.T) {
	s := setupServer(t, nil)
	require.NoError(t, s.db.Close())

	for path, message := range map[string]string{
		"/api/financials":   "Failed to load financials",
		"/api/decisions":    "Failed to load decisions",
		"/api/agent-logs":   "Failed to load agent logs",
		"/api/models":       "Failed to load models",
		"/api/agents":       "Failed to load agents",
		"/api/integrations": "Failed to load integrations",
		"/api/health-score": "Failed to load financials",
	} {
		rec := s.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, message), rec.Body.String(), path)
	}

	rec := s.do(http.MethodPost, "/api/decisions", `{"decision_text":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to save decision"}`, rec.Body.String())

	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/healthz", "").Code)
}

func TestHealth(t *testing.T) {
	s := setupServer(t, nil)
	rec := s.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"sqlite"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.TraceHeader))
}
