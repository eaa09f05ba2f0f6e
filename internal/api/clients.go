package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"praxis/internal/database"
	"praxis/internal/model"
)

type clientRequest struct {
	Name         string  `json:"name"`
	Phone        string  `json:"phone"`
	Email        string  `json:"email"`
	SessionValue float64 `json:"session_value"`
	BillingDay   *int    `json:"billing_day"`
	Notes        string  `json:"notes"`
}

func (r clientRequest) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.SessionValue < 0 || r.SessionValue > 9999.99 {
		return fmt.Errorf("session value %.2f out of range", r.SessionValue)
	}
	if r.BillingDay != nil && (*r.BillingDay < 1 || *r.BillingDay > 28) {
		return fmt.Errorf("billing day %d out of range", *r.BillingDay)
	}
	return nil
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	if err := req.validate(); err != nil {
		badRequest(w, err)
		return
	}
	client := &model.Client{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		SessionValue: req.SessionValue,
		BillingDay:   req.BillingDay,
		Notes:        req.Notes,
	}
	if err := s.clients.CreateClient(r.Context(), client); err != nil {
		s.writeClientErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.clients.ListActiveClients(r.Context())
	if err != nil {
		s.writeClientErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	client, err := s.clients.GetClient(r.Context(), id)
	if err != nil {
		s.writeClientErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	if err := req.validate(); err != nil {
		badRequest(w, err)
		return
	}
	client := &model.Client{
		ID:           id,
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		SessionValue: req.SessionValue,
		BillingDay:   req.BillingDay,
		Notes:        req.Notes,
	}
	if err := s.clients.UpdateClient(r.Context(), client); err != nil {
		s.writeClientErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := s.clients.DeactivateClient(r.Context(), id); err != nil {
		s.writeClientErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClientSessions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	if r.URL.Query().Get("from") != "" {
		if from, err = queryDate(r, "from"); err != nil {
			badRequest(w, err)
			return
		}
	}
	if r.URL.Query().Get("to") != "" {
		if to, err = queryDate(r, "to"); err != nil {
			badRequest(w, err)
			return
		}
	}
	sessions, err := s.clients.SessionsByClient(r.Context(), id, from, to)
	if err != nil {
		s.writeClientErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// writeClientErr maps storage errors from the client directory, which is
// served straight off the store rather than through the session service.
func (s *Server) writeClientErr(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "client not found"})
		return
	}
	s.logger.Error().Err(err).Msg("client request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
}
