package calendar

import (
	"context"
	"fmt"
	"time"

	"praxis/internal/model"
)

const businessDayHours = 8.0

// Statistics aggregates a period of the schedule.
type Statistics struct {
	From                    string                      `json:"from"`
	To                      string                      `json:"to"`
	TotalSessions           int                         `json:"total_sessions"`
	ByStatus                map[model.SessionStatus]int `json:"by_status"`
	TotalValue              float64                     `json:"total_value"`
	CompletedValue          float64                     `json:"completed_value"`
	MeanSessionValue        float64                     `json:"mean_session_value"`
	AttendanceRatePercent   float64                     `json:"attendance_rate_percent"`
	CancellationRatePercent float64                     `json:"cancellation_rate_percent"`
	MeanSessionsPerDay      float64                     `json:"mean_sessions_per_day"`
	BusiestHour             string                      `json:"busiest_hour,omitempty"`
	BusiestWeekday          string                      `json:"busiest_weekday,omitempty"`
	TopClient               string                      `json:"top_client,omitempty"`
	OccupiedHours           float64                     `json:"occupied_hours"`
	BusinessDays            int                         `json:"business_days"`
	OccupancyPercent        float64                     `json:"occupancy_percent"`
}

// Stats aggregates the sessions of [from, to). Attendance relates completed
// sessions to the total, cancellation relates both cancel statuses to the
// total, and the mean value averages completed sessions only. Occupancy
// relates occupied hours to the business-day capacity of the period (Monday
// to Friday, eight hours each); a period with no business days reports zero.
func (a *Assembler) Stats(ctx context.Context, from, to time.Time) (*Statistics, error) {
	sessions, err := a.store.SessionsInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		From:     from.Format("2006-01-02"),
		To:       to.Format("2006-01-02"),
		ByStatus: make(map[model.SessionStatus]int),
	}
	var (
		completed int
		cancelled int
		byHour    = make(map[int]int)
		byWeekday = make(map[time.Weekday]int)
		byClient  = make(map[string]int)
		totalDays int
	)
	for i := range sessions {
		s := &sessions[i]
		if !s.Active {
			continue
		}
		stats.TotalSessions++
		stats.ByStatus[s.Status]++
		byHour[s.ScheduledAt.Hour()]++
		byWeekday[s.ScheduledAt.Weekday()]++
		if s.ClientName != "" {
			byClient[s.ClientName]++
		}
		if !s.Status.IsCancellation() {
			stats.TotalValue += s.Value
			stats.OccupiedHours += float64(s.DurationMinutes) / 60
		} else {
			cancelled++
		}
		if s.Status == model.StatusCompleted {
			completed++
			stats.CompletedValue += s.Value
		}
	}

	if stats.TotalSessions > 0 {
		stats.AttendanceRatePercent = float64(completed) / float64(stats.TotalSessions) * 100
		stats.CancellationRatePercent = float64(cancelled) / float64(stats.TotalSessions) * 100
	}
	if completed > 0 {
		stats.MeanSessionValue = stats.CompletedValue / float64(completed)
	}

	for day := startOfDay(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		totalDays++
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			stats.BusinessDays++
		}
	}
	if totalDays > 0 {
		stats.MeanSessionsPerDay = float64(stats.TotalSessions) / float64(totalDays)
	}
	if capacity := float64(stats.BusinessDays) * businessDayHours; capacity > 0 {
		stats.OccupancyPercent = stats.OccupiedHours / capacity * 100
	}

	if hour, ok := busiestHour(byHour); ok {
		stats.BusiestHour = fmt.Sprintf("%02d:00", hour)
	}
	if weekday, ok := busiestWeekday(byWeekday); ok {
		stats.BusiestWeekday = weekday.String()
	}
	stats.TopClient = topClient(byClient)
	return stats, nil
}

// busiestHour returns the hour with the most sessions, the earliest on a
// tie.
func busiestHour(counts map[int]int) (int, bool) {
	best, bestCount := 0, 0
	for hour := 0; hour < 24; hour++ {
		if counts[hour] > bestCount {
			best, bestCount = hour, counts[hour]
		}
	}
	return best, bestCount > 0
}

// busiestWeekday returns the weekday with the most sessions, the earliest
// in the week (Sunday first, as time.Weekday orders them) on a tie.
func busiestWeekday(counts map[time.Weekday]int) (time.Weekday, bool) {
	best, bestCount := time.Sunday, 0
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if counts[wd] > bestCount {
			best, bestCount = wd, counts[wd]
		}
	}
	return best, bestCount > 0
}

// topClient returns the client name with the most sessions, the
// lexicographically smallest name on a tie.
func topClient(counts map[string]int) string {
	best, bestCount := "", 0
	for name, n := range counts {
		if n > bestCount || (n == bestCount && bestCount > 0 && name < best) {
			best, bestCount = name, n
		}
	}
	return best
}
