package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dan9191/finmodel/internal/models"
)

// MaxScoreEntries bounds the timeline a caller may submit for scoring
const MaxScoreEntries = 120

// ComputeHealthScore scores a caller-supplied timeline
func (h *Handler) ComputeHealthScore(w http.ResponseWriter, r *http.Request) {
	var raw any
	if !decode(w, r, &raw) {
		return
	}
	entries, ok := raw.([]any)
	if !ok {
		badRequest(w, "Expected array of financial metrics", "")
		return
	}
	if len(entries) > MaxScoreEntries {
		badRequest(w, fmt.Sprintf("At most %d months can be scored at once", MaxScoreEntries), "")
		return
	}

	data := make([]models.FinancialMetric, len(entries))
	for i, e := range entries {
		data[i] = coerceMetric(e)
	}
	writeJSON(w, http.StatusOK, h.svc.HealthScore(data))
}

// StoredHealthScore scores the stored timeline
func (h *Handler) StoredHealthScore(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.StoredHealthScore(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load financials", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// coerceMetric accepts anything: non-objects and unusable fields read as ""/0
func coerceMetric(v any) models.FinancialMetric {
	obj, _ := v.(map[string]any)
	month, _ := obj["month"].(string)
	return models.FinancialMetric{
		Month:      month,
		Revenue:    coerceNumber(obj["revenue"]),
		Expenses:   coerceNumber(obj["expenses"]),
		CashOnHand: coerceNumber(obj["cash_on_hand"]),
	}
}

func coerceNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		f, _ = n.Float64()
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
