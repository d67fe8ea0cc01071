package models

// LedgerDiscrepancy describes a month whose cash balance does not follow
// from the previous balance plus that month's revenue minus expenses
type LedgerDiscrepancy struct {
	Month        string  `json:"month"`
	ExpectedCash float64 `json:"expected_cash"`
	ActualCash   float64 `json:"actual_cash"`
	Difference   float64 `json:"difference"`
}

// LedgerReport is the result of checking the accounting identity over a timeline.
// Unreadable lists months holding NaN or infinite amounts.
type LedgerReport struct {
	Months        int                 `json:"months"`
	Consistent    bool                `json:"consistent"`
	Discrepancies []LedgerDiscrepancy `json:"discrepancies"`
	Unreadable    []string            `json:"unreadable"`
}
