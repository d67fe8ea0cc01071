package models

import "time"

// Agent statuses
const (
	AgentIdle   = "idle"
	AgentActive = "active"
	AgentPaused = "paused"
)

// Agent is an automated analyst registered with the dashboard
type Agent struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Config    *string   `json:"config" db:"config"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AgentLog is an action recorded by an agent
type AgentLog struct {
	ID             int64     `json:"id" db:"id"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	AgentName      string    `json:"agent_name" db:"agent_name"`
	Action         string    `json:"action" db:"action"`
	Recommendation *string   `json:"recommendation" db:"recommendation"`
	ImpactScore    *float64  `json:"impact_score" db:"impact_score"`
}

// ValidAgentStatus reports whether status is one of the known agent statuses
func ValidAgentStatus(status string) bool {
	switch status {
	case AgentIdle, AgentActive, AgentPaused:
		return true
	}
	return false
}
