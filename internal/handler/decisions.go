package handler

import (
	"net/http"
	"strings"

	"github.com/Dan9191/finmodel/internal/models"
)

type createDecisionRequest struct {
	DecisionText    string  `json:"decision_text"`
	Context         *string `json:"context"`
	ExpectedOutcome *string `json:"expected_outcome"`
}

type updateDecisionRequest struct {
	Status        *string `json:"status"`
	ActualOutcome *string `json:"actual_outcome"`
}

func (h *Handler) ListDecisions(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Decisions(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load decisions", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) CreateDecision(w http.ResponseWriter, r *http.Request) {
	var req createDecisionRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.DecisionText) == "" {
		badRequest(w, "decision_text is required", "decision_text")
		return
	}

	d := &models.Decision{
		DecisionText:    req.DecisionText,
		Context:         req.Context,
		ExpectedOutcome: req.ExpectedOutcome,
	}
	if err := h.svc.CreateDecision(r.Context(), d); err != nil {
		h.fail(w, r, "Decision", "Failed to save decision", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdBody{ID: d.ID})
}

func (h *Handler) UpdateDecision(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateDecisionRequest
	if !decode(w, r, &req) {
		return
	}

	d, err := h.svc.UpdateDecision(r.Context(), id, req.Status, req.ActualOutcome)
	if err != nil {
		h.fail(w, r, "Decision", "Failed to save decision", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
