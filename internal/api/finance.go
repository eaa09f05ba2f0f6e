package api

import (
	"fmt"
	"net/http"
	"time"

	"praxis/internal/finance"
)

func yearMonth(r *http.Request) (int, time.Month, error) {
	year := queryInt(r, "year", 0)
	month := queryInt(r, "month", 0)
	if year < 2000 || year > 2100 {
		return 0, 0, fmt.Errorf("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %d", month)
	}
	return year, time.Month(month), nil
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	report, err := s.finance.Monthly(r.Context(), year, month)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleMonthlyExport(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		badRequest(w, err)
		return
	}
	report, err := s.finance.Monthly(r.Context(), year, month)
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := fmt.Sprintf("finance_%d-%02d.xlsx", year, int(month))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := finance.ExportMonthly(w, report); err != nil {
		s.logger.Error().Err(err).Msg("spreadsheet export failed")
	}
}

func (s *Server) handleAnnualReport(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", 0)
	if year < 2000 || year > 2100 {
		badRequest(w, fmt.Errorf("invalid year %d", year))
		return
	}
	report, err := s.finance.Annual(r.Context(), year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleOutstanding(w http.ResponseWriter, r *http.Request) {
	lines, err := s.finance.Outstanding(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": lines})
}
