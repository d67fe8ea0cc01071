package models

import "time"

// MonthLayout is the YYYY-MM form months are stored in
const MonthLayout = "2006-01"

// FinancialMetric is one month of the organization's financial timeline
type FinancialMetric struct {
	ID         int64   `json:"id" db:"id"`
	Month      string  `json:"month" db:"month"` // Format: YYYY-MM
	Revenue    float64 `json:"revenue" db:"revenue"`
	Expenses   float64 `json:"expenses" db:"expenses"`
	CashOnHand float64 `json:"cash_on_hand" db:"cash_on_hand"`
	Category   *string `json:"category" db:"category"`
}

// Burn returns expenses minus revenue; negative burn means the month was profitable
func (m FinancialMetric) Burn() float64 {
	return m.Expenses - m.Revenue
}

// ValidMonth reports whether s is a zero-padded YYYY-MM month
func ValidMonth(s string) bool {
	if len(s) != len(MonthLayout) {
		return false
	}
	_, err := time.Parse(MonthLayout, s)
	return err == nil
}
