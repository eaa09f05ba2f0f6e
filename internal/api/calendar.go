package api

import (
	"net/http"
	"strconv"
	"strings"

	"praxis/internal/calendar"
	"praxis/internal/model"
)

func filterFromQuery(r *http.Request) calendar.Filter {
	q := r.URL.Query()
	filter := calendar.Filter{
		PaidOnly:            q.Get("paid") == "true",
		UnpaidOnly:          q.Get("paid") == "false",
		IncludeFreeSlots:    q.Get("free_slots") == "true",
		SlotDurationMinutes: queryInt(r, "slot_duration", 0),
	}
	if raw := q.Get("client_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.ClientID = id
		}
	}
	if raw := q.Get("statuses"); raw != "" {
		for _, st := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, model.SessionStatus(st))
		}
	}
	return filter
}

func (s *Server) handleDayView(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		badRequest(w, err)
		return
	}
	view, err := s.views.Day(r.Context(), date, filterFromQuery(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWeekView(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r, "date")
	if err != nil {
		badRequest(w, err)
		return
	}
	view, err := s.views.Week(r.Context(), date, filterFromQuery(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "from")
	if err != nil {
		badRequest(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		badRequest(w, err)
		return
	}
	stats, err := s.views.Stats(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
