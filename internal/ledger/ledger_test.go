package ledger

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/finmodel/internal/models"
)

func month(m string, rev, exp, cash float64) models.FinancialMetric {
	return models.FinancialMetric{Month: m, Revenue: rev, Expenses: exp, CashOnHand: cash}
}

func TestReconcile(t *testing.T) {
	t.Run("When the timeline is empty", func(t *testing.T) {
		r := Reconcile(nil)
		assert.Equal(t, 0, r.Months)
		assert.True(t, r.Consistent)
		assert.NotNil(t, r.Discrepancies)
	})

	t.Run("When every month follows from the previous one", func(t *testing.T) {
		r := Reconcile([]models.FinancialMetric{
			month("2025-01", 10000, 20000, 490000),
			month("2025-02", 12000.10, 20000.05, 482000.05),
			month("2025-03", 15000, 10000, 487000.05),
		})
		assert.Equal(t, 3, r.Months)
		assert.True(t, r.Consistent)
		assert.Empty(t, r.Discrepancies)
	})

	t.Run("When a difference is within tolerance", func(t *testing.T) {
		r := Reconcile([]models.FinancialMetric{
			month("2025-01", 0, 0, 1000),
			month("2025-02", 100, 50, 1050.01),
		})
		assert.True(t, r.Consistent)
	})

	t.Run("When a month breaks the identity", func(t *testing.T) {
		r := Reconcile([]models.FinancialMetric{
			month("2025-01", 0, 0, 1000),
			month("2025-02", 100, 50, 1050),
			month("2025-03", 100, 50, 2000),
			month("2025-04", 100, 50, 2050),
		})
		assert.False(t, r.Consistent)
		require.Len(t, r.Discrepancies, 1)
		d := r.Discrepancies[0]
		assert.Equal(t, "2025-03", d.Month)
		assert.Equal(t, 1100.0, d.ExpectedCash)
		assert.Equal(t, 2000.0, d.ActualCash)
		assert.Equal(t, 900.0, d.Difference)
	})

	t.Run("When a stored amount is not finite the month is unreadable", func(t *testing.T) {
		r := Reconcile([]models.FinancialMetric{
			month("2025-01", 0, 0, 1000),
			month("2025-02", 100, 50, math.Inf(1)),
			month("2025-03", math.NaN(), 50, 2000),
			month("2025-04", 100, 50, 2050),
			month("2025-05", 100, 50, 9000),
		})
		assert.False(t, r.Consistent)
		assert.Equal(t, []string{"2025-02", "2025-03"}, r.Unreadable)
		require.Len(t, r.Discrepancies, 1)
		assert.Equal(t, "2025-05", r.Discrepancies[0].Month)
		assert.Equal(t, 2100.0, r.Discrepancies[0].ExpectedCash)
	})
}

func TestNextBalance(t *testing.T) {
	got, err := NextBalance(decimal.NewFromInt(500000), 9800, 40500)
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.NewFromInt(469300)), got.String())

	// Float accumulation drifts here; decimal does not.
	cash := decimal.Zero
	for i := 0; i < 10; i++ {
		cash, err = NextBalance(cash, 0.1, 0)
		require.NoError(t, err)
	}
	assert.True(t, cash.Equal(decimal.NewFromInt(1)), cash.String())

	t.Run("When an amount is not finite", func(t *testing.T) {
		_, err := NextBalance(decimal.Zero, math.NaN(), 0)
		assert.ErrorIs(t, err, ErrNotFinite)
		_, err = NextBalance(decimal.Zero, 0, math.Inf(-1))
		assert.ErrorIs(t, err, ErrNotFinite)
	})
}

func TestAmount(t *testing.T) {
	d, err := Amount(12.5)
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("12.5")))

	_, err = Amount(math.Inf(1))
	assert.ErrorIs(t, err, ErrNotFinite)
}
