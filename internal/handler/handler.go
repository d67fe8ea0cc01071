package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finmodel/internal/events"
	"github.com/Dan9191/finmodel/internal/middleware"
	"github.com/Dan9191/finmodel/internal/service"
)

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

type Handler struct {
	svc    *service.Service
	events *events.Broadcaster
	log    *logrus.Logger
}

func NewHandler(svc *service.Service, b *events.Broadcaster, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, events: b, log: log}
}

// Register mounts every API route on r. limit wraps the score endpoint.
func (h *Handler) Register(r *mux.Router, limit mux.MiddlewareFunc) {
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/financials", h.ListFinancials).Methods(http.MethodGet)
	api.HandleFunc("/financials", h.CreateFinancial).Methods(http.MethodPost)
	api.HandleFunc("/financials/reconciliation", h.Reconciliation).Methods(http.MethodGet)

	api.Handle("/health-score", limit(http.HandlerFunc(h.ComputeHealthScore))).Methods(http.MethodPost)
	api.HandleFunc("/health-score", h.StoredHealthScore).Methods(http.MethodGet)

	api.HandleFunc("/decisions", h.ListDecisions).Methods(http.MethodGet)
	api.HandleFunc("/decisions", h.CreateDecision).Methods(http.MethodPost)
	api.HandleFunc("/decisions/{id:[0-9]+}", h.UpdateDecision).Methods(http.MethodPatch)

	api.HandleFunc("/agent-logs", h.ListAgentLogs).Methods(http.MethodGet)
	api.HandleFunc("/agent-logs", h.CreateAgentLog).Methods(http.MethodPost)

	api.HandleFunc("/models", h.ListModels).Methods(http.MethodGet)
	api.HandleFunc("/models", h.CreateModel).Methods(http.MethodPost)

	api.HandleFunc("/agents", h.ListAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id:[0-9]+}", h.UpdateAgent).Methods(http.MethodPatch)

	api.HandleFunc("/integrations", h.ListIntegrations).Methods(http.MethodGet)
	api.HandleFunc("/integrations/{id:[0-9]+}", h.ConfigureIntegration).Methods(http.MethodPatch)
	api.HandleFunc("/integrations/{id:[0-9]+}/sync", h.SyncIntegration).Methods(http.MethodPost)

	api.HandleFunc("/events", h.events.ServeStream).Methods(http.MethodGet)
	api.HandleFunc("/events/ws", h.events.ServeSocket).Methods(http.MethodGet)
}

// Health reports liveness and which engine answered
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dialect, err := h.svc.Ping(r.Context())
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"trace_id": middleware.TraceID(r.Context()),
			"error":    err.Error(),
		}).Error("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": string(dialect)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": string(dialect)})
}

type validationBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

type createdBody struct {
	ID int64 `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, message, field string) {
	writeJSON(w, http.StatusBadRequest, validationBody{Message: message, Field: field})
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, validationBody{Message: message})
}

// serverError logs the cause and answers with an opaque message
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, message string, err error) {
	route := r.URL.Path
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, terr := cur.GetPathTemplate(); terr == nil {
			route = tpl
		}
	}
	h.log.WithFields(logrus.Fields{
		"trace_id": middleware.TraceID(r.Context()),
		"route":    r.Method + " " + route,
		"error":    err.Error(),
	}).Error(message)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: message})
}

// fail maps a service error onto a response
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, what string, message string, err error) {
	if v, ok := service.IsValidation(err); ok {
		badRequest(w, v.Message, v.Field)
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		notFound(w, what+" not found")
		return
	}
	h.serverError(w, r, message, err)
}

// decode reads a JSON body into v and reports the first problem as a 400
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		badRequest(w, fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type)), typeErr.Field)
	case errors.As(err, &maxErr):
		badRequest(w, "Request body too large", "")
	case errors.Is(err, io.EOF):
		badRequest(w, "Request body is required", "")
	default:
		badRequest(w, "Invalid JSON body", "")
	}
	return false
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	default:
		return "valid value"
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "id must be a positive integer", "id")
		return 0, false
	}
	return id, true
}
