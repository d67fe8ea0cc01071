package handler

import (
	"errors"
	"net/http"

	"github.com/Dan9191/finmodel/internal/service"
)

type configureIntegrationRequest struct {
	FeedURL string `json:"feed_url"`
}

func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Integrations(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load integrations", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) ConfigureIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req configureIntegrationRequest
	if !decode(w, r, &req) {
		return
	}

	i, err := h.svc.ConfigureIntegration(r.Context(), id, req.FeedURL)
	if err != nil {
		h.fail(w, r, "Integration", "Failed to save integration", err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

// SyncIntegration pulls the provider feed now; provider failures answer 502
func (h *Handler) SyncIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.svc.SyncIntegration(r.Context(), id)
	if errors.Is(err, service.ErrSyncFailed) {
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "Failed to sync integration"})
		return
	}
	if err != nil {
		h.fail(w, r, "Integration", "Failed to sync integration", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
