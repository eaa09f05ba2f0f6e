package schedule

import (
	"context"
	"testing"
	"time"

	"praxis/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weeklyRequest() SeriesRequest {
	return SeriesRequest{
		ClientID:        1,
		Periodicity:     model.PeriodicityWeekly,
		StartDate:       date(2024, time.January, 1),
		EndDate:         date(2024, time.January, 31),
		TimeOfDay:       "10:00",
		DurationMinutes: 50,
		Value:           150,
		Billable:        true,
	}
}

func TestGenerateWeeklySeries(t *testing.T) {
	g := NewRecurrenceGenerator(nil)
	res, err := g.Generate(context.Background(), weeklyRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Attempted != 5 || len(res.Sessions) != 5 {
		t.Fatalf("attempted %d, generated %d, want 5/5", res.Attempted, len(res.Sessions))
	}
	wantDays := []int{1, 8, 15, 22, 29}
	for i, s := range res.Sessions {
		if s.ScheduledAt.Day() != wantDays[i] {
			t.Errorf("occurrence %d on day %d, want %d", i, s.ScheduledAt.Day(), wantDays[i])
		}
		if s.ScheduledAt.Hour() != 10 || s.ScheduledAt.Minute() != 0 {
			t.Errorf("occurrence %d at %s, want 10:00", i, s.ScheduledAt.Format("15:04"))
		}
		if s.Status != model.StatusScheduled {
			t.Errorf("occurrence %d status %s, want scheduled", i, s.Status)
		}
		if i > 0 && !res.Sessions[i-1].ScheduledAt.Before(s.ScheduledAt) {
			t.Errorf("occurrences not strictly increasing at index %d", i)
		}
	}
}

func TestGenerateStepPerPeriodicity(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		periodicity model.Periodicity
		want        time.Time
	}{
		{model.PeriodicityDaily, start.AddDate(0, 0, 1)},
		{model.PeriodicityTwiceWeekly, start.Add(84 * time.Hour)},
		{model.PeriodicityWeekly, start.AddDate(0, 0, 7)},
		{model.PeriodicityBiweekly, start.AddDate(0, 0, 14)},
		{model.PeriodicityMonthly, start.AddDate(0, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(string(tt.periodicity), func(t *testing.T) {
			got, err := NextOccurrence(start, tt.periodicity)
			if err != nil {
				t.Fatalf("NextOccurrence: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextOccurrence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextOccurrenceMonthlyClampsMonthEnd(t *testing.T) {
	tests := []struct {
		start time.Time
		want  time.Time
	}{
		{time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC), time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC)},
		{time.Date(2025, 3, 31, 10, 0, 0, 0, time.UTC), time.Date(2025, 4, 30, 10, 0, 0, 0, time.UTC)},
		{time.Date(2025, 12, 31, 10, 0, 0, 0, time.UTC), time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := NextOccurrence(tt.start, model.PeriodicityMonthly)
		if err != nil {
			t.Fatalf("NextOccurrence: %v", err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("monthly after %s = %s, want %s",
				tt.start.Format("2006-01-02"), got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

func TestGenerateMonthlySeriesFromMonthEnd(t *testing.T) {
	g := NewRecurrenceGenerator(nil)
	req := weeklyRequest()
	req.Periodicity = model.PeriodicityMonthly
	req.StartDate = date(2025, time.January, 31)
	req.EndDate = date(2025, time.April, 30)

	res, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{"2025-01-31", "2025-02-28", "2025-03-28", "2025-04-28"}
	if len(res.Sessions) != len(want) {
		t.Fatalf("generated %d occurrences, want %d", len(res.Sessions), len(want))
	}
	for i, s := range res.Sessions {
		if got := s.ScheduledAt.Format("2006-01-02"); got != want[i] {
			t.Errorf("occurrence %d on %s, want %s", i, got, want[i])
		}
	}
}

func TestGenerateTwiceWeeklyAlternatesClock(t *testing.T) {
	g := NewRecurrenceGenerator(nil)
	req := weeklyRequest()
	req.Periodicity = model.PeriodicityTwiceWeekly
	req.EndDate = date(2024, time.January, 14)

	res, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Sessions) < 3 {
		t.Fatalf("expected at least 3 occurrences, got %d", len(res.Sessions))
	}
	// 3.5 day steps: 10:00, 22:00 would be out of range; the fixed step
	// lands the second occurrence at 22:00 on Jan 4 — outside bookable
	// hours is only validated for the series start, so it stays.
	second := res.Sessions[1].ScheduledAt
	if second.Hour() != 22 {
		t.Errorf("second occurrence at %s, want 22:00 from the half-week step", second.Format("15:04"))
	}
}

func TestGenerateSkipsConflictingOccurrences(t *testing.T) {
	// Jan 8 at 10:00 is already taken.
	src := &memorySource{sessions: []model.Session{{
		ID:              9,
		ScheduledAt:     time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC),
		DurationMinutes: 50,
		Status:          model.StatusConfirmed,
		Active:          true,
	}}}
	g := NewRecurrenceGenerator(NewConflictDetector(src))

	res, err := g.Generate(context.Background(), weeklyRequest())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Attempted != 5 || len(res.Sessions) != 4 || res.Skipped != 1 {
		t.Fatalf("attempted %d, generated %d, skipped %d; want 5/4/1",
			res.Attempted, len(res.Sessions), res.Skipped)
	}
	for _, s := range res.Sessions {
		if s.ScheduledAt.Day() == 8 {
			t.Error("conflicting occurrence on Jan 8 was not skipped")
		}
	}
}

func TestGenerateChecksBatchInternally(t *testing.T) {
	g := NewRecurrenceGenerator(nil)
	req := weeklyRequest()
	req.Periodicity = model.PeriodicityDaily
	req.DurationMinutes = 480
	req.EndDate = date(2024, time.January, 3)

	res, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// 480 minute sessions starting at 10:00 daily do not reach the next
	// day's start, so all three survive.
	if len(res.Sessions) != 3 {
		t.Fatalf("generated %d, want 3", len(res.Sessions))
	}
	for i := 1; i < len(res.Sessions); i++ {
		a := NewInterval(res.Sessions[i-1].ScheduledAt, res.Sessions[i-1].DurationMinutes)
		b := NewInterval(res.Sessions[i].ScheduledAt, res.Sessions[i].DurationMinutes)
		if a.Overlaps(b) {
			t.Errorf("batch occurrences %d and %d overlap", i-1, i)
		}
	}
}

func TestGenerateRejectsFreeform(t *testing.T) {
	g := NewRecurrenceGenerator(nil)
	req := weeklyRequest()
	req.Periodicity = model.PeriodicityFreeform
	if _, err := g.Generate(context.Background(), req); err != ErrFreeformPeriodicity {
		t.Errorf("expected ErrFreeformPeriodicity, got %v", err)
	}
}

func TestGenerateRejectsInvalidRequests(t *testing.T) {
	g := NewRecurrenceGenerator(nil)

	req := weeklyRequest()
	req.EndDate = req.StartDate.AddDate(0, 0, -1)
	if _, err := g.Generate(context.Background(), req); err != ErrInvalidPeriod {
		t.Errorf("inverted period: expected ErrInvalidPeriod, got %v", err)
	}

	req = weeklyRequest()
	req.EndDate = req.StartDate.AddDate(2, 0, 0)
	if _, err := g.Generate(context.Background(), req); err != ErrInvalidPeriod {
		t.Errorf("two year period: expected ErrInvalidPeriod, got %v", err)
	}

	req = weeklyRequest()
	req.TimeOfDay = "05:00"
	if _, err := g.Generate(context.Background(), req); err != ErrInvalidTimeOfDay {
		t.Errorf("early start: expected ErrInvalidTimeOfDay, got %v", err)
	}

	req = weeklyRequest()
	req.DurationMinutes = 0
	if _, err := g.Generate(context.Background(), req); err != ErrInvalidDuration {
		t.Errorf("zero duration: expected ErrInvalidDuration, got %v", err)
	}
}

func TestGenerateHonorsContext(t *testing.T) {
	g := NewRecurrenceGenerator(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, weeklyRequest()); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
