// Package chi holds the HTTP API server and its middleware.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cybernet-io/leadgrid/internal/domain"
	"github.com/cybernet-io/leadgrid/internal/grid"
	"github.com/cybernet-io/leadgrid/internal/logger"
	leaduc "github.com/cybernet-io/leadgrid/internal/usecase/lead"
	notificationuc "github.com/cybernet-io/leadgrid/internal/usecase/notification"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest        = "bad_request"
	codeValidationFailed  = "validation_failed"
	codeNotFound          = "not_found"
	codeUnknownField      = "unknown_field"
	codeUnsupportedFilter = "unsupported_filter"
	codeInvalidRecipient  = "invalid_recipient"
	codeProviderFailure   = "provider_failure"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP API over the lead and notification services. Handlers
// log through the request-scoped logger attached by the outer middleware.
type Server struct {
	leads         *leaduc.Service
	notifications *notificationuc.Service
	health        map[string]HealthCheck
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	leads *leaduc.Service,
	notifications *notificationuc.Service,
	health map[string]HealthCheck,
) *Server {
	s := &Server{
		leads:         leads,
		notifications: notifications,
		health:        health,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrUnknownField, http.StatusUnprocessableEntity, codeUnknownField),
		sentinelHandler(domain.ErrUnsupportedFilter, http.StatusUnprocessableEntity, codeUnsupportedFilter),
		sentinelHandler(domain.ErrInvalidRecipient, http.StatusBadRequest, codeInvalidRecipient),
		sentinelHandler(domain.ErrProviderFailure, http.StatusBadGateway, codeProviderFailure),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheckHandler)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leads", s.ListLeads)
		r.Get("/leads/{id}", s.GetLead)
		r.Post("/leads/{id}/notifications/{channel}", s.SendNotification)
		r.Get("/leads/{id}/notifications/{channel}", s.ListNotifications)
	})
}

type leadListResponse struct {
	Items []domain.Lead `json:"items"`
	Count int           `json:"count"`
}

// ListLeads handles GET /api/v1/leads.
//
// The filters query parameter is a JSON array of descriptors, e.g.
//
//	filters=[{"field":"age","operator":">","value":30}]
func (s *Server) ListLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ownerID, err := strconv.ParseInt(q.Get("owner_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "owner_id is required")
		return
	}

	var descriptors []grid.Descriptor
	if raw := q.Get("filters"); raw != "" {
		descriptors, err = grid.ParseDescriptors([]byte(raw))
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	limit := intQueryParam(q.Get("limit"))
	offset := intQueryParam(q.Get("offset"))

	leads, err := s.leads.List(r.Context(), ownerID, descriptors, limit, offset)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}

	writeJSON(w, http.StatusOK, leadListResponse{Items: leads, Count: len(leads)})
}

// GetLead handles GET /api/v1/leads/{id}.
func (s *Server) GetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}

	lead, err := s.leads.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

type sendNotificationRequest struct {
	Body string `json:"body"`
}

// SendNotification handles POST /api/v1/leads/{id}/notifications/{channel}.
func (s *Server) SendNotification(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	channel := domain.Channel(chi.URLParam(r, "channel"))

	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Body == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message body is required")
		return
	}

	n, err := s.notifications.Send(r.Context(), id, channel, req.Body)
	if err != nil && !errors.Is(err, domain.ErrProviderFailure) {
		s.handleDomainError(w, r, err)
		return
	}

	// A provider rejection still produced a stored notification; report the
	// record with 502 so the client sees both.
	status := http.StatusCreated
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, n)
}

type notificationListResponse struct {
	Items []domain.Notification `json:"items"`
	Count int                   `json:"count"`
}

// ListNotifications handles GET /api/v1/leads/{id}/notifications/{channel}.
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	channel := domain.Channel(chi.URLParam(r, "channel"))

	ns, err := s.notifications.History(r.Context(), id, channel)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if ns == nil {
		ns = []domain.Notification{}
	}

	writeJSON(w, http.StatusOK, notificationListResponse{Items: ns, Count: len(ns)})
}

// HealthCheckHandler handles GET /health.
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	httpStatus := http.StatusOK
	checks := make(map[string]string, len(s.health))

	for name, check := range s.health {
		if err := check(r.Context()); err != nil {
			checks[name] = "unhealthy"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func leadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "lead id must be an integer")
		return 0, false
	}
	return id, true
}

func intQueryParam(raw string) int {
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return v
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Filter validation errors keep their full detail (field name, operator, cast
// failure): every part of those chains is built from the client's own
// descriptor, and the caller needs it to fix the filter.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrUnknownField, domain.ErrUnsupportedFilter} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}

	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRecipient,
		domain.ErrProviderFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromRequest(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
