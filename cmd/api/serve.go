package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Dan9191/finmodel/internal/events"
	"github.com/Dan9191/finmodel/internal/handler"
	"github.com/Dan9191/finmodel/internal/integrations/feed"
	"github.com/Dan9191/finmodel/internal/metrics"
	"github.com/Dan9191/finmodel/internal/middleware"
	"github.com/Dan9191/finmodel/internal/notify"
	"github.com/Dan9191/finmodel/internal/seed"
	"github.com/Dan9191/finmodel/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	limiterIdle     = 10 * time.Minute
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.db.Close()
	cfg, logger := a.cfg, a.log

	if cfg.SeedOnStart {
		if _, err := seed.NewSeeder(a.repo, logger, cfg.DemoPassword).Run(ctx); err != nil {
			return err
		}
	}

	// Initialize layers
	broadcaster := events.NewBroadcaster(logger)
	feedClient := feed.NewClient(cfg, logger)
	alerts := notify.NewSender(cfg, logger)
	svc := service.NewService(a.repo, logger, cfg, broadcaster, feedClient, alerts)
	h := handler.NewHandler(svc, broadcaster, logger)
	limiter := middleware.NewRateLimiter(cfg.ScoreRateLimit, cfg.ScoreRateBurst, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger), middleware.Metrics)
	h.Register(r, limiter.Handler)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	// Background jobs; a panicking job is logged instead of taking the process down
	scheduler := cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(logger))))
	if _, err := broadcaster.Schedule(scheduler, cfg.HeartbeatPeriod); err != nil {
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}
	if _, err := scheduler.AddFunc(fmt.Sprintf("@every %s", limiterIdle), func() {
		limiter.Cleanup(limiterIdle)
	}); err != nil {
		return fmt.Errorf("failed to schedule limiter cleanup: %w", err)
	}
	if cfg.SyncSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.SyncSchedule, func() { svc.SyncConnected(ctx) }); err != nil {
			return fmt.Errorf("invalid INTEGRATION_SYNC_SCHEDULE: %w", err)
		}
		logger.Infof("Integration sync scheduled: %s", cfg.SyncSchedule)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Event streams stay open indefinitely, so there is no WriteTimeout. Request
	// contexts derive from ctx so open streams end on shutdown.
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           middleware.NewCORS(cfg.CORSOrigins).Handler(r),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s (APP_ENV=%s)", addr, cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
