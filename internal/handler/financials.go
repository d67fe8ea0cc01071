package handler

import (
	"net/http"
	"strings"

	"github.com/Dan9191/finmodel/internal/models"
)

type createFinancialRequest struct {
	Month      string   `json:"month"`
	Revenue    *float64 `json:"revenue"`
	Expenses   *float64 `json:"expenses"`
	CashOnHand *float64 `json:"cash_on_hand"`
	Category   *string  `json:"category"`
}

func (h *Handler) ListFinancials(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Financials(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load financials", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// CreateFinancial stores one month; omitted amounts are stored as 0
func (h *Handler) CreateFinancial(w http.ResponseWriter, r *http.Request) {
	var req createFinancialRequest
	if !decode(w, r, &req) {
		return
	}
	req.Month = strings.TrimSpace(req.Month)
	if req.Month == "" {
		badRequest(w, "month is required", "month")
		return
	}

	m := &models.FinancialMetric{
		Month:      req.Month,
		Revenue:    valueOr(req.Revenue),
		Expenses:   valueOr(req.Expenses),
		CashOnHand: valueOr(req.CashOnHand),
		Category:   req.Category,
	}
	if err := h.svc.CreateFinancial(r.Context(), m); err != nil {
		h.fail(w, r, "Financial month", "Failed to save financials", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdBody{ID: m.ID})
}

func (h *Handler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Reconciliation(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load financials", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func valueOr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
