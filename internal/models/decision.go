package models

import "time"

// Decision statuses
const (
	DecisionPending   = "pending"
	DecisionApproved  = "approved"
	DecisionRejected  = "rejected"
	DecisionCompleted = "completed"
)

// Decision represents a recorded business decision and its outcome
type Decision struct {
	ID              int64     `json:"id" db:"id"`
	Timestamp       time.Time `json:"timestamp" db:"timestamp"`
	DecisionText    string    `json:"decision_text" db:"decision_text"`
	Context         *string   `json:"context" db:"context"`
	ExpectedOutcome *string   `json:"expected_outcome" db:"expected_outcome"`
	ActualOutcome   *string   `json:"actual_outcome" db:"actual_outcome"`
	Status          string    `json:"status" db:"status"`
}

// ValidDecisionStatus reports whether status is one of the known decision statuses
func ValidDecisionStatus(status string) bool {
	switch status {
	case DecisionPending, DecisionApproved, DecisionRejected, DecisionCompleted:
		return true
	}
	return false
}
