// Package ledger checks that a monthly timeline obeys the cash identity
// cash[i] = cash[i-1] + revenue[i] - expenses[i].
package ledger

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/finmodel/internal/models"
)

// Tolerance is the largest difference treated as rounding noise.
var Tolerance = decimal.RequireFromString("0.01")

// ErrNotFinite is returned for NaN or infinite amounts, which have no decimal form.
var ErrNotFinite = errors.New("amount is not a finite number")

// Reconcile reports every month whose cash balance does not follow from the
// month before it. The first month has nothing to compare against. Months
// holding a non-finite amount are listed as unreadable and skipped.
func Reconcile(data []models.FinancialMetric) models.LedgerReport {
	report := models.LedgerReport{
		Months:        len(data),
		Consistent:    true,
		Discrepancies: []models.LedgerDiscrepancy{},
		Unreadable:    []string{},
	}

	readable := make([]bool, len(data))
	for i, m := range data {
		readable[i] = Finite(m.Revenue) && Finite(m.Expenses) && Finite(m.CashOnHand)
		if !readable[i] {
			report.Consistent = false
			report.Unreadable = append(report.Unreadable, m.Month)
		}
	}

	for i := 1; i < len(data); i++ {
		if !readable[i-1] || !readable[i] {
			continue
		}
		expected := next(decimal.NewFromFloat(data[i-1].CashOnHand), data[i].Revenue, data[i].Expenses)
		actual := decimal.NewFromFloat(data[i].CashOnHand)
		diff := actual.Sub(expected)
		if diff.Abs().LessThanOrEqual(Tolerance) {
			continue
		}

		report.Consistent = false
		report.Discrepancies = append(report.Discrepancies, models.LedgerDiscrepancy{
			Month:        data[i].Month,
			ExpectedCash: expected.InexactFloat64(),
			ActualCash:   data[i].CashOnHand,
			Difference:   diff.Round(2).InexactFloat64(),
		})
	}
	return report
}

// Amount converts v to a decimal.
func Amount(v float64) (decimal.Decimal, error) {
	if !Finite(v) {
		return decimal.Zero, ErrNotFinite
	}
	return decimal.NewFromFloat(v), nil
}

// NextBalance carries cash forward by one month.
func NextBalance(cash decimal.Decimal, revenue, expenses float64) (decimal.Decimal, error) {
	if !Finite(revenue) || !Finite(expenses) {
		return decimal.Zero, ErrNotFinite
	}
	return next(cash, revenue, expenses), nil
}

func next(cash decimal.Decimal, revenue, expenses float64) decimal.Decimal {
	return cash.Add(decimal.NewFromFloat(revenue)).Sub(decimal.NewFromFloat(expenses))
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
