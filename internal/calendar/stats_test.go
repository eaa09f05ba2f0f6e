package calendar

import (
	"context"
	"math"
	"testing"

	"praxis/internal/model"
)

func TestStatsOccupancy(t *testing.T) {
	// One business week, four hours of non-cancelled sessions.
	store := &stubStore{sessions: []model.Session{
		func() model.Session {
			s := sessionAt(1, monday, 8, model.StatusCompleted, 150)
			s.DurationMinutes = 120
			return s
		}(),
		func() model.Session {
			s := sessionAt(2, monday.AddDate(0, 0, 1), 10, model.StatusConfirmed, 150)
			s.DurationMinutes = 120
			return s
		}(),
		func() model.Session {
			s := sessionAt(3, monday.AddDate(0, 0, 2), 10, model.StatusCancelledByClient, 150)
			s.DurationMinutes = 120
			return s
		}(),
	}}
	a := NewAssembler(store, nil, nil)

	stats, err := a.Stats(context.Background(), monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalSessions != 3 {
		t.Errorf("total = %d, want 3", stats.TotalSessions)
	}
	if stats.BusinessDays != 5 {
		t.Errorf("business days = %d, want 5", stats.BusinessDays)
	}
	if stats.OccupiedHours != 4 {
		t.Errorf("occupied hours = %v, want 4 (cancelled excluded)", stats.OccupiedHours)
	}
	// 4 occupied hours against 5 days of 8 hours.
	if want := 4.0 / 40 * 100; math.Abs(stats.OccupancyPercent-want) > 1e-9 {
		t.Errorf("occupancy = %v, want %v", stats.OccupancyPercent, want)
	}
	if stats.ByStatus[model.StatusCompleted] != 1 || stats.ByStatus[model.StatusCancelledByClient] != 1 {
		t.Errorf("by-status counts wrong: %v", stats.ByStatus)
	}
	if stats.CompletedValue != 150 {
		t.Errorf("completed value = %v, want 150", stats.CompletedValue)
	}
}

func TestStatsRatesAndAggregates(t *testing.T) {
	// Four sessions over the week: two completed, one cancelled, one
	// scheduled. Three land at 10:00 and two on Monday.
	bruno := func(s model.Session) model.Session {
		s.ClientID = 2
		s.ClientName = "Bruno Lima"
		return s
	}
	store := &stubStore{sessions: []model.Session{
		sessionAt(1, monday, 10, model.StatusCompleted, 100),
		sessionAt(2, monday, 14, model.StatusCompleted, 200),
		bruno(sessionAt(3, monday.AddDate(0, 0, 1), 10, model.StatusCancelledByClient, 150)),
		sessionAt(4, monday.AddDate(0, 0, 2), 10, model.StatusScheduled, 150),
	}}
	a := NewAssembler(store, nil, nil)

	stats, err := a.Stats(context.Background(), monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if want := 50.0; math.Abs(stats.AttendanceRatePercent-want) > 1e-9 {
		t.Errorf("attendance rate = %v, want %v", stats.AttendanceRatePercent, want)
	}
	if want := 25.0; math.Abs(stats.CancellationRatePercent-want) > 1e-9 {
		t.Errorf("cancellation rate = %v, want %v", stats.CancellationRatePercent, want)
	}
	if want := 150.0; math.Abs(stats.MeanSessionValue-want) > 1e-9 {
		t.Errorf("mean session value = %v, want %v (completed only)", stats.MeanSessionValue, want)
	}
	if want := 4.0 / 7; math.Abs(stats.MeanSessionsPerDay-want) > 1e-9 {
		t.Errorf("mean sessions per day = %v, want %v", stats.MeanSessionsPerDay, want)
	}
	if stats.BusiestHour != "10:00" {
		t.Errorf("busiest hour = %q, want 10:00", stats.BusiestHour)
	}
	if stats.BusiestWeekday != "Monday" {
		t.Errorf("busiest weekday = %q, want Monday", stats.BusiestWeekday)
	}
	if stats.TopClient != "Ana Souza" {
		t.Errorf("top client = %q, want Ana Souza", stats.TopClient)
	}
}

func TestStatsEmptyPeriod(t *testing.T) {
	a := NewAssembler(&stubStore{}, nil, nil)

	stats, err := a.Stats(context.Background(), monday, monday.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.AttendanceRatePercent != 0 || stats.CancellationRatePercent != 0 || stats.MeanSessionValue != 0 {
		t.Errorf("rates over empty period should be zero: %+v", stats)
	}
	if stats.BusiestHour != "" || stats.BusiestWeekday != "" || stats.TopClient != "" {
		t.Errorf("mode fields over empty period should be empty: %+v", stats)
	}
}

func TestStatsNoBusinessDays(t *testing.T) {
	a := NewAssembler(&stubStore{}, nil, nil)
	saturday := monday.AddDate(0, 0, 5)

	stats, err := a.Stats(context.Background(), saturday, saturday.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.BusinessDays != 0 {
		t.Errorf("business days = %d, want 0", stats.BusinessDays)
	}
	if stats.OccupancyPercent != 0 {
		t.Errorf("occupancy over a weekend = %v, want 0", stats.OccupancyPercent)
	}
}
