package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	LogLevel string
	AppEnv   string

	// DatabaseURL selects PostgreSQL when set, otherwise SQLite at DatabasePath
	DatabaseURL  string
	DatabasePath string
	SeedOnStart  bool
	DemoPassword string

	CORSOrigins     []string
	ScoreRateLimit  int
	ScoreRateBurst  int
	HeartbeatPeriod time.Duration
	SyncSchedule    string
	FeedTimeout     time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
	AlertEmail   string
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "3000"),
		LogLevel:     getEnv("LOG_LEVEL", "INFO"),
		AppEnv:       getEnv("APP_ENV", "development"),
		DatabaseURL:  databaseURL(),
		DatabasePath: getEnv("DATABASE_PATH", "finmodel.db"),
		DemoPassword: getEnv("DEMO_PASSWORD", "demo123"),
		CORSOrigins:  splitList(getEnv("CORS_ORIGINS", "*")),
		SyncSchedule: getEnv("INTEGRATION_SYNC_SCHEDULE", ""),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnv("SMTP_PORT", "587"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SenderEmail:  getEnv("SENDER_EMAIL", "alerts@finmodel.ai"),
		AlertEmail:   getEnv("ALERT_EMAIL", ""),
	}

	var err error
	if cfg.SeedOnStart, err = getEnvBool("SEED_ON_START", true); err != nil {
		return nil, err
	}
	if cfg.ScoreRateLimit, err = getEnvInt("SCORE_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.ScoreRateBurst, err = getEnvInt("SCORE_RATE_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.HeartbeatPeriod, err = getEnvDuration("HEARTBEAT_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.FeedTimeout, err = getEnvDuration("FEED_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.Port == "" {
		return nil, fmt.Errorf("PORT is required")
	}
	if cfg.DatabaseURL == "" && cfg.DatabasePath == "" {
		return nil, fmt.Errorf("DATABASE_PATH is required when DATABASE_URL is not set")
	}
	if cfg.HeartbeatPeriod <= 0 {
		return nil, fmt.Errorf("HEARTBEAT_INTERVAL must be positive")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// EmailEnabled reports whether health alerts can be delivered
func (c *Config) EmailEnabled() bool {
	return c.SMTPHost != "" && c.AlertEmail != ""
}

// databaseURL prefers the private connection string over the public proxy one.
func databaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	return os.Getenv("DATABASE_PUBLIC_URL")
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultVal, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultVal, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultVal, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
