package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dan9191/finmodel/internal/models"
)

type createAgentLogRequest struct {
	AgentName      string   `json:"agent_name"`
	Action         string   `json:"action"`
	Recommendation *string  `json:"recommendation"`
	ImpactScore    *float64 `json:"impact_score"`
}

type updateAgentRequest struct {
	Status string `json:"status"`
}

type createModelRequest struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Config  json.RawMessage `json:"config"`
}

func (h *Handler) ListAgentLogs(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.AgentLogs(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load agent logs", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) CreateAgentLog(w http.ResponseWriter, r *http.Request) {
	var req createAgentLogRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.AgentName) == "" {
		badRequest(w, "agent_name and action are required", "agent_name")
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		badRequest(w, "agent_name and action are required", "action")
		return
	}

	l := &models.AgentLog{
		AgentName:      req.AgentName,
		Action:         req.Action,
		Recommendation: req.Recommendation,
		ImpactScore:    req.ImpactScore,
	}
	if err := h.svc.CreateAgentLog(r.Context(), l); err != nil {
		h.fail(w, r, "Agent log", "Failed to save agent log", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdBody{ID: l.ID})
}

func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Agents(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load agents", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateAgentRequest
	if !decode(w, r, &req) {
		return
	}

	a, err := h.svc.UpdateAgentStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, "Agent", "Failed to save agent", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Models(r.Context())
	if err != nil {
		h.serverError(w, r, "Failed to load models", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// CreateModel stores a model; config may be any JSON value or a JSON string
func (h *Handler) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		badRequest(w, "name is required", "name")
		return
	}

	m := &models.Model{Name: req.Name, Version: req.Version, Config: configText(req.Config)}
	if err := h.svc.CreateModel(r.Context(), m); err != nil {
		h.fail(w, r, "Model", "Failed to save model", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdBody{ID: m.ID})
}

func configText(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	text := string(raw)
	return &text
}
