// Package api exposes the scheduling service over HTTP/JSON.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"praxis/internal/calendar"
	"praxis/internal/finance"
	"praxis/internal/model"
	"praxis/internal/service"
)

// ClientStore is the client-directory surface the API exposes.
type ClientStore interface {
	CreateClient(ctx context.Context, c *model.Client) error
	GetClient(ctx context.Context, id int64) (*model.Client, error)
	ListActiveClients(ctx context.Context) ([]model.Client, error)
	UpdateClient(ctx context.Context, c *model.Client) error
	DeactivateClient(ctx context.Context, id int64) error
	SessionsByClient(ctx context.Context, clientID int64, from, to time.Time) ([]model.Session, error)
}

// WorkingHoursStore is the availability-template surface the API exposes.
type WorkingHoursStore interface {
	ListWorkingHours(ctx context.Context) ([]model.WorkingHoursDay, error)
	UpsertWorkingHours(ctx context.Context, day model.WorkingHoursDay) error
}

// Server routes HTTP requests to the scheduling, calendar and finance
// services.
type Server struct {
	sessions *service.SessionService
	views    *calendar.Assembler
	finance  *finance.Service
	clients  ClientStore
	hours    WorkingHoursStore
	logger   *zerolog.Logger
}

// NewServer wires the HTTP surface.
func NewServer(sessions *service.SessionService, views *calendar.Assembler, fin *finance.Service, clients ClientStore, hours WorkingHoursStore, logger *zerolog.Logger) *Server {
	return &Server{sessions: sessions, views: views, finance: fin, clients: clients, hours: hours, logger: logger}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("PUT /api/v1/sessions/{id}", s.handleUpdateSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/confirm", s.handleConfirmSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/cancel", s.handleCancelSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/complete", s.handleCompleteSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/no-show", s.handleNoShowSession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/pay", s.handlePaySession)
	mux.HandleFunc("POST /api/v1/sessions/{id}/reschedule", s.handleRescheduleSession)
	mux.HandleFunc("POST /api/v1/sessions/cancel-batch", s.handleCancelBatch)
	mux.HandleFunc("POST /api/v1/sessions/pay-batch", s.handlePayBatch)
	mux.HandleFunc("POST /api/v1/sessions/recurring", s.handleGenerateSeries)
	mux.HandleFunc("GET /api/v1/conflicts", s.handleFindConflicts)
	mux.HandleFunc("GET /api/v1/slots", s.handleFreeSlots)

	mux.HandleFunc("POST /api/v1/clients", s.handleCreateClient)
	mux.HandleFunc("GET /api/v1/clients", s.handleListClients)
	mux.HandleFunc("GET /api/v1/clients/{id}", s.handleGetClient)
	mux.HandleFunc("PUT /api/v1/clients/{id}", s.handleUpdateClient)
	mux.HandleFunc("DELETE /api/v1/clients/{id}", s.handleDeleteClient)
	mux.HandleFunc("GET /api/v1/clients/{id}/sessions", s.handleClientSessions)

	mux.HandleFunc("GET /api/v1/working-hours", s.handleListWorkingHours)
	mux.HandleFunc("PUT /api/v1/working-hours", s.handleUpdateWorkingHours)

	mux.HandleFunc("GET /api/v1/calendar/day", s.handleDayView)
	mux.HandleFunc("GET /api/v1/calendar/week", s.handleWeekView)
	mux.HandleFunc("GET /api/v1/statistics", s.handleStatistics)

	mux.HandleFunc("GET /api/v1/finance/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /api/v1/finance/monthly/export", s.handleMonthlyExport)
	mux.HandleFunc("GET /api/v1/finance/annual", s.handleAnnualReport)
	mux.HandleFunc("GET /api/v1/finance/outstanding", s.handleOutstanding)

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps service error kinds onto HTTP statuses. Conflict
// responses carry the blocking sessions.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindInvalidInput:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
		body["conflicts"] = service.ConflictsOf(err)
	default:
		s.logger.Error().Err(err).Msg("request failed")
		body["error"] = "internal error"
	}
	writeJSON(w, status, body)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %q parameter", name)
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %q date: %v", name, err)
	}
	return date, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
}
