package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"praxis/internal/model"
	"praxis/internal/schedule"
	"praxis/internal/service"
)

type createSessionRequest struct {
	ClientID        int64             `json:"client_id"`
	ScheduledAt     time.Time         `json:"scheduled_at"`
	DurationMinutes int               `json:"duration_minutes"`
	Value           float64           `json:"value"`
	Periodicity     model.Periodicity `json:"periodicity"`
	Notes           string            `json:"notes"`
	Billable        bool              `json:"billable"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	session, err := s.sessions.Create(r.Context(), service.CreateSessionInput{
		ClientID:        req.ClientID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Value:           req.Value,
		Periodicity:     req.Periodicity,
		Notes:           req.Notes,
		Billable:        req.Billable,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	session, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type updateSessionRequest struct {
	ScheduledAt     *time.Time         `json:"scheduled_at"`
	DurationMinutes *int               `json:"duration_minutes"`
	Value           *float64           `json:"value"`
	Periodicity     *model.Periodicity `json:"periodicity"`
	Notes           *string            `json:"notes"`
	ClinicalNotes   *string            `json:"clinical_notes"`
	Billable        *bool              `json:"billable"`
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	session, err := s.sessions.Update(r.Context(), id, service.UpdateSessionInput{
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Value:           req.Value,
		Periodicity:     req.Periodicity,
		Notes:           req.Notes,
		ClinicalNotes:   req.ClinicalNotes,
		Billable:        req.Billable,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirmSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	session, err := s.sessions.Confirm(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type cancelRequest struct {
	Status model.SessionStatus `json:"status"`
	Reason string              `json:"reason"`
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	session, err := s.sessions.Cancel(r.Context(), id, req.Status, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type completeRequest struct {
	ActualDurationMinutes *int   `json:"actual_duration_minutes"`
	ClinicalNotes         string `json:"clinical_notes"`
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var req completeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, fmt.Errorf("invalid body: %v", err))
			return
		}
	}
	session, err := s.sessions.Complete(r.Context(), id, req.ActualDurationMinutes, req.ClinicalNotes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleNoShowSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	session, err := s.sessions.MarkNoShow(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type payRequest struct {
	Method string `json:"method"`
}

func (s *Server) handlePaySession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var req payRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, fmt.Errorf("invalid body: %v", err))
			return
		}
	}
	session, err := s.sessions.MarkPaid(r.Context(), id, req.Method)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type rescheduleRequest struct {
	NewTime time.Time `json:"new_time"`
	Reason  string    `json:"reason"`
}

func (s *Server) handleRescheduleSession(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	session, err := s.sessions.Reschedule(r.Context(), id, req.NewTime, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

type cancelBatchRequest struct {
	SessionIDs []int64             `json:"session_ids"`
	Status     model.SessionStatus `json:"status"`
	Reason     string              `json:"reason"`
}

func (s *Server) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	var req cancelBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	result, err := s.sessions.CancelMany(r.Context(), req.SessionIDs, req.Status, req.Reason)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type payBatchRequest struct {
	SessionIDs []int64 `json:"session_ids"`
	Method     string  `json:"method"`
}

func (s *Server) handlePayBatch(w http.ResponseWriter, r *http.Request) {
	var req payBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	result, err := s.sessions.MarkManyPaid(r.Context(), req.SessionIDs, req.Method)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type generateSeriesRequest struct {
	ClientID        int64             `json:"client_id"`
	Periodicity     model.Periodicity `json:"periodicity"`
	StartDate       string            `json:"start_date"`
	EndDate         string            `json:"end_date"`
	TimeOfDay       string            `json:"time_of_day"`
	DurationMinutes int               `json:"duration_minutes"`
	Value           float64           `json:"value"`
	Billable        bool              `json:"billable"`
	Notes           string            `json:"notes"`
}

func (s *Server) handleGenerateSeries(w http.ResponseWriter, r *http.Request) {
	var req generateSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid start_date: %v", err))
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		badRequest(w, fmt.Errorf("invalid end_date: %v", err))
		return
	}
	result, err := s.sessions.GenerateSeries(r.Context(), schedule.SeriesRequest{
		ClientID:        req.ClientID,
		Periodicity:     req.Periodicity,
		StartDate:       start,
		EndDate:         end,
		TimeOfDay:       req.TimeOfDay,
		DurationMinutes: req.DurationMinutes,
		Value:           req.Value,
		Billable:        req.Billable,
		Notes:           req.Notes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"attempted": result.Attempted,
		"generated": len(result.Sessions),
		"skipped":   result.Skipped,
		"sessions":  result.Sessions,
	})
}

func (s *Server) handleFindConflicts(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		badRequest(w, fmt.Errorf("invalid start: %v", err))
		return
	}
	duration := queryInt(r, "duration", 50)
	exclude := int64(queryInt(r, "exclude", 0))

	conflicts, err := s.sessions.FindConflicts(r.Context(), start, duration, exclude)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"has_conflict": len(conflicts) > 0,
		"conflicts":    conflicts,
	})
}

func (s *Server) handleFreeSlots(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		badRequest(w, err)
		return
	}
	slots, err := s.sessions.FreeSlots(r.Context(), date, queryInt(r, "duration", 0))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date.Format("2006-01-02"), "slots": slots})
}
