package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"praxis/internal/model"
)

type workingHoursDayRequest struct {
	Weekday                int    `json:"weekday"`
	Working                bool   `json:"working"`
	StartTime              string `json:"start_time"`
	EndTime                string `json:"end_time"`
	LunchStart             string `json:"lunch_start"`
	LunchEnd               string `json:"lunch_end"`
	SessionDurationMinutes int    `json:"session_duration_minutes"`
	GapMinutes             int    `json:"gap_minutes"`
}

func (r workingHoursDayRequest) validate() error {
	if r.Weekday < 0 || r.Weekday > 6 {
		return fmt.Errorf("weekday %d out of range", r.Weekday)
	}
	if !r.Working {
		return nil
	}
	start, err := clockOf(r.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %v", err)
	}
	end, err := clockOf(r.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %v", err)
	}
	if !start.Before(end) {
		return fmt.Errorf("start_time %s must precede end_time %s", r.StartTime, r.EndTime)
	}
	if (r.LunchStart == "") != (r.LunchEnd == "") {
		return fmt.Errorf("lunch_start and lunch_end must both be set or both empty")
	}
	if r.LunchStart != "" {
		lunchStart, err := clockOf(r.LunchStart)
		if err != nil {
			return fmt.Errorf("lunch_start: %v", err)
		}
		lunchEnd, err := clockOf(r.LunchEnd)
		if err != nil {
			return fmt.Errorf("lunch_end: %v", err)
		}
		if !lunchStart.Before(lunchEnd) {
			return fmt.Errorf("lunch_start %s must precede lunch_end %s", r.LunchStart, r.LunchEnd)
		}
	}
	if r.SessionDurationMinutes < 0 || r.GapMinutes < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func clockOf(raw string) (time.Time, error) {
	return model.ParseClock(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), raw)
}

func (s *Server) handleListWorkingHours(w http.ResponseWriter, r *http.Request) {
	days, err := s.hours.ListWorkingHours(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list working hours failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleUpdateWorkingHours(w http.ResponseWriter, r *http.Request) {
	var req []workingHoursDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, fmt.Errorf("invalid body: %v", err))
		return
	}
	if len(req) == 0 {
		badRequest(w, fmt.Errorf("no days given"))
		return
	}
	for _, day := range req {
		if err := day.validate(); err != nil {
			badRequest(w, err)
			return
		}
	}
	for _, day := range req {
		if err := s.hours.UpsertWorkingHours(r.Context(), model.WorkingHoursDay{
			Weekday:                time.Weekday(day.Weekday),
			Working:                day.Working,
			StartTime:              day.StartTime,
			EndTime:                day.EndTime,
			LunchStart:             day.LunchStart,
			LunchEnd:               day.LunchEnd,
			SessionDurationMinutes: day.SessionDurationMinutes,
			GapMinutes:             day.GapMinutes,
		}); err != nil {
			s.logger.Error().Err(err).Int("weekday", day.Weekday).Msg("update working hours failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
			return
		}
	}
	days, err := s.hours.ListWorkingHours(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list working hours failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, days)
}
