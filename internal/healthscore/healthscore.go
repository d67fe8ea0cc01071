// Package healthscore computes the Financial Health Score: a composite 0-100
// indicator built from runway, revenue momentum, burn sustainability and cash
// trend over an ascending monthly timeline.
//
// The score bands are step ladders evaluated top-down, first match wins. They
// are deliberately discontinuous; keep the thresholds and their inclusive
// comparisons exactly as written.
package healthscore

import (
	"math"

	"github.com/Dan9191/finmodel/internal/models"
)

const (
	weightRunway  = 30
	weightRevenue = 25
	weightBurn    = 25
	weightCash    = 20

	// ampleRunway stands in for months of runway when the latest month is not burning cash.
	ampleRunway = 24.0
)

const noDataSummary = "No financial data available to compute health score."

// step is one rung of a ladder: when value >= min, score is returned.
type step struct {
	min   float64
	score func(v float64) int
}

func fixed(n int) func(float64) int {
	return func(float64) int { return n }
}

// climb returns the score of the first step whose threshold v reaches, or
// floor(v) when none does.
func climb(steps []step, v float64, floor func(float64) int) int {
	for _, s := range steps {
		if v >= s.min {
			return s.score(v)
		}
	}
	return floor(v)
}

var runwaySteps = []step{
	{18, fixed(100)},
	{12, fixed(85)},
	{9, fixed(70)},
	{6, fixed(55)},
	{4, fixed(40)},
	{2, fixed(25)},
}

var revenueSteps = []step{
	{15, fixed(100)},
	{10, fixed(90)},
	{5, fixed(80)},
	{0, func(g float64) int { return 50 + round(g*6) }},
	{-10, func(g float64) int { return 40 + round(g+10) }},
	{-20, func(g float64) int { return 25 + round((g+20)/2) }},
}

var cashSteps = []step{
	{5, fixed(100)},
	{0, func(c float64) int { return 70 + round(c*6) }},
	{-10, func(c float64) int { return 60 + round(c+10) }},
	{-25, func(c float64) int { return 40 + round((c+25)/1.5) }},
}

// Compute scores an ascending list of monthly metrics. It never fails: an
// empty list yields the zero score with grade F.
func Compute(data []models.FinancialMetric) models.HealthScoreResult {
	if len(data) == 0 {
		return models.HealthScoreResult{
			Score:     0,
			Grade:     models.GradeF,
			Trend:     models.TrendStable,
			Breakdown: []models.HealthScoreBreakdown{},
			Summary:   noDataSummary,
		}
	}

	months := monthsOfRunway(data[len(data)-1])
	runway := runwayScore(months)
	revenue := revenueMomentumScore(data)
	burn := burnSustainabilityScore(data)
	cash := cashTrendScore(data)

	score := round(float64(runway)*0.30 +
		float64(revenue)*0.25 +
		float64(burn)*0.25 +
		float64(cash)*0.20)
	score = min(100, max(0, score))

	return models.HealthScoreResult{
		Score: score,
		Grade: gradeFor(score),
		Trend: trendOf(data),
		Breakdown: []models.HealthScoreBreakdown{
			{
				Label:       "Runway",
				Score:       runway,
				Weight:      weightRunway,
				Description: describe(months, 12, 6, "Strong runway", "Adequate runway", "Runway needs attention"),
			},
			{
				Label:       "Revenue momentum",
				Score:       revenue,
				Weight:      weightRevenue,
				Description: describe(float64(revenue), 70, 50, "Revenue trending up", "Stable revenue", "Revenue under pressure"),
			},
			{
				Label:       "Burn sustainability",
				Score:       burn,
				Weight:      weightBurn,
				Description: describe(float64(burn), 80, 50, "Path to profitability visible", "Moderate burn", "High burn relative to revenue"),
			},
			{
				Label:       "Cash trend",
				Score:       cash,
				Weight:      weightCash,
				Description: describe(float64(cash), 80, 50, "Cash position improving", "Stable cash", "Cash declining"),
			},
		},
		Summary: summaryFor(score),
	}
}

func monthsOfRunway(latest models.FinancialMetric) float64 {
	burn := latest.Burn()
	if burn <= 0 {
		return ampleRunway
	}
	return latest.CashOnHand / burn
}

func runwayScore(months float64) int {
	return climb(runwaySteps, months, func(m float64) int {
		return max(5, round(m*10))
	})
}

func revenueMomentumScore(data []models.FinancialMetric) int {
	if len(data) < 3 {
		return 60
	}
	recent, prev := lastTwoQuarters(data)
	if len(prev) == 0 {
		return 70
	}
	prevAvg := mean(prev, revenueOf)
	if prevAvg <= 0 {
		return 70
	}
	growth := (mean(recent, revenueOf) - prevAvg) / prevAvg * 100
	return climb(revenueSteps, growth, func(g float64) int {
		return max(10, 25+round(g))
	})
}

func burnSustainabilityScore(data []models.FinancialMetric) int {
	latest := data[len(data)-1]
	if latest.Burn() <= 0 {
		return 100
	}
	// A positive burn with zero expenses means negative revenue; the ratio
	// would not be finite.
	if latest.Expenses == 0 {
		return 0
	}
	return min(100, round(latest.Revenue/latest.Expenses*100))
}

func cashTrendScore(data []models.FinancialMetric) int {
	if len(data) < 4 {
		return 70
	}
	last := data[len(data)-1].CashOnHand
	threeAgo := data[len(data)-4].CashOnHand
	if threeAgo <= 0 {
		return 70
	}
	change := (last - threeAgo) / threeAgo * 100
	return climb(cashSteps, change, func(c float64) int {
		return max(15, 40+round(c))
	})
}

func trendOf(data []models.FinancialMetric) models.Trend {
	if len(data) < 6 {
		return models.TrendStable
	}
	recent, prev := lastTwoQuarters(data)
	prevAvg := mean(prev, cashOf)
	pct := 0.0
	if prevAvg > 0 {
		pct = (mean(recent, cashOf) - prevAvg) / prevAvg * 100
	}
	switch {
	case pct > 2:
		return models.TrendUp
	case pct < -2:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

func gradeFor(score int) models.Grade {
	switch {
	case score >= 80:
		return models.GradeA
	case score >= 65:
		return models.GradeB
	case score >= 50:
		return models.GradeC
	case score >= 35:
		return models.GradeD
	default:
		return models.GradeF
	}
}

func summaryFor(score int) string {
	switch {
	case score >= 80:
		return "Strong financial health. Runway and momentum support growth."
	case score >= 65:
		return "Good financial position. Monitor burn and runway trends."
	case score >= 50:
		return "Moderate health. Consider optimizing burn or accelerating revenue."
	case score >= 35:
		return "Needs attention. Focus on runway extension or revenue growth."
	default:
		return "Critical. Prioritize cash preservation and revenue."
	}
}

func describe(v, high, mid float64, strong, steady, weak string) string {
	switch {
	case v >= high:
		return strong
	case v >= mid:
		return steady
	default:
		return weak
	}
}

// lastTwoQuarters returns the last three months and up to three months
// before them. Requires len(data) >= 3.
func lastTwoQuarters(data []models.FinancialMetric) (recent, prev []models.FinancialMetric) {
	n := len(data)
	recent = data[n-3:]
	prev = data[max(0, n-6) : n-3]
	return recent, prev
}

func revenueOf(m models.FinancialMetric) float64 { return m.Revenue }

func cashOf(m models.FinancialMetric) float64 { return m.CashOnHand }

func mean(data []models.FinancialMetric, field func(models.FinancialMetric) float64) float64 {
	var sum float64
	for _, d := range data {
		sum += field(d)
	}
	return sum / float64(len(data))
}

// round is half-up: round(2.5) == 3 and round(-2.5) == -2.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}
