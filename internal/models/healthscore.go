package models

// Grade is the letter band of a health score
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Trend is the direction of the cash position over the last two quarters
type Trend string

const (
	TrendUp     Trend = "up"
	TrendStable Trend = "stable"
	TrendDown   Trend = "down"
)

// HealthScoreBreakdown is one weighted factor of the composite score
type HealthScoreBreakdown struct {
	Label       string `json:"label"`
	Score       int    `json:"score"`
	Weight      int    `json:"weight"` // Percent, the four weights sum to 100
	Description string `json:"description"`
}

// HealthScoreResult is the derived Financial Health Score, never persisted
type HealthScoreResult struct {
	Score     int                    `json:"score"`
	Grade     Grade                  `json:"grade"`
	Trend     Trend                  `json:"trend"`
	Breakdown []HealthScoreBreakdown `json:"breakdown"`
	Summary   string                 `json:"summary"`
}
