package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dan9191/finmodel/internal/config"
	"github.com/Dan9191/finmodel/internal/repository"
	"github.com/Dan9191/finmodel/internal/seed"
	"github.com/Dan9191/finmodel/internal/storage"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "finmodel",
		Short:         "Financial dashboard API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve)
	root.AddCommand(newCreateTablesCmd())
	root.AddCommand(newSeedCmd())
	return root
}

type app struct {
	cfg  *config.Config
	log  *logrus.Logger
	db   storage.DB
	repo *repository.Repository
}

// bootstrap loads configuration, opens the database and creates missing tables
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cfg.LogLevel)

	db, err := storage.Shared(ctx, storage.Options{
		URL:    cfg.DatabaseURL,
		Path:   cfg.DatabasePath,
		Logger: log,
	})
	if err != nil {
		return nil, err
	}
	if err := storage.InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &app{cfg: cfg, log: log, db: db, repo: repository.NewRepository(db)}, nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

func newCreateTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-tables",
		Short: "Create any missing tables and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Tables ready (%s)\n", a.db.Dialect())
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill empty tables with demo data and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.db.Close()

			seeded, err := seed.NewSeeder(a.repo, a.log, a.cfg.DemoPassword).Run(cmd.Context())
			if err != nil {
				return err
			}
			if len(seeded) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to seed; every table already has data")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded: %s\n", strings.Join(seeded, ", "))
			return nil
		},
	}
}
