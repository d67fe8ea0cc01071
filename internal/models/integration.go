package models

import "time"

// Integration statuses
const (
	IntegrationDisconnected = "disconnected"
	IntegrationConnected    = "connected"
	IntegrationError        = "error"
)

// Integration is an external data source such as an accounting system
type Integration struct {
	ID         int64      `json:"id" db:"id"`
	Provider   string     `json:"provider" db:"provider"`
	Type       string     `json:"type" db:"type"`
	Status     string     `json:"status" db:"status"`
	Config     *string    `json:"config" db:"config"` // JSON document, e.g. {"feed_url": "..."}
	LastSyncAt *time.Time `json:"last_sync_at" db:"last_sync_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// IntegrationConfig is the decoded config document of an integration
type IntegrationConfig struct {
	FeedURL string `json:"feed_url"`
}

// SyncResult reports what an integration sync imported
type SyncResult struct {
	IntegrationID int64    `json:"integration_id"`
	Imported      int      `json:"imported"`
	Skipped       int      `json:"skipped"`
	Months        []string `json:"months"`
}
