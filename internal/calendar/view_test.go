package calendar

import (
	"context"
	"testing"
	"time"

	"praxis/internal/model"
	"praxis/internal/schedule"
)

type stubStore struct {
	sessions []model.Session
}

func (s *stubStore) SessionsInRange(_ context.Context, from, to time.Time) ([]model.Session, error) {
	var out []model.Session
	for _, sess := range s.sessions {
		if !sess.ScheduledAt.Before(from) && sess.ScheduledAt.Before(to) {
			out = append(out, sess)
		}
	}
	return out, nil
}

func sessionAt(id int64, day time.Time, h int, status model.SessionStatus, value float64) model.Session {
	return model.Session{
		ID:              id,
		ClientID:        1,
		ClientName:      "Ana Souza",
		ScheduledAt:     time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.UTC),
		DurationMinutes: 50,
		Value:           value,
		Status:          status,
		Active:          true,
	}
}

var monday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
	}{
		{"monday itself", monday},
		{"midweek", monday.AddDate(0, 0, 2)},
		{"sunday", monday.AddDate(0, 0, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StartOfWeek(tt.in); !got.Equal(monday) {
				t.Errorf("StartOfWeek(%v) = %v, want %v", tt.in, got, monday)
			}
		})
	}
}

func TestDayViewSummary(t *testing.T) {
	store := &stubStore{sessions: []model.Session{
		sessionAt(1, monday, 8, model.StatusScheduled, 150),
		sessionAt(2, monday, 10, model.StatusConfirmed, 150),
		sessionAt(3, monday, 11, model.StatusCompleted, 150),
		sessionAt(4, monday, 14, model.StatusCancelledByClient, 150),
	}}
	a := NewAssembler(store, nil, nil)
	a.now = func() time.Time { return monday.Add(9 * time.Hour) }

	view, err := a.Day(context.Background(), monday, Filter{})
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	sum := view.Summary
	if sum.Total != 4 {
		t.Errorf("total = %d, want 4", sum.Total)
	}
	if sum.Confirmed != 2 {
		t.Errorf("confirmed = %d, want 2 (confirmed + completed)", sum.Confirmed)
	}
	if sum.Pending != 1 {
		t.Errorf("pending = %d, want 1", sum.Pending)
	}
	if sum.TotalValue != 450 {
		t.Errorf("total value = %v, want 450 (cancellations excluded)", sum.TotalValue)
	}
	if sum.FirstSession != "08:00" || sum.LastSession != "14:00" {
		t.Errorf("first/last = %s/%s, want 08:00/14:00", sum.FirstSession, sum.LastSession)
	}
	if !view.IsToday {
		t.Error("expected IsToday for the reference day")
	}
	for _, e := range view.Sessions {
		if e.Color != StatusColor(e.Status) {
			t.Errorf("entry %d color %s does not match status %s", e.SessionID, e.Color, e.Status)
		}
	}
}

func TestDayViewFilters(t *testing.T) {
	paid := sessionAt(1, monday, 8, model.StatusCompleted, 150)
	paid.Paid = true
	other := sessionAt(2, monday, 10, model.StatusScheduled, 150)
	other.ClientID = 2
	store := &stubStore{sessions: []model.Session{paid, other}}
	a := NewAssembler(store, nil, nil)

	view, err := a.Day(context.Background(), monday, Filter{ClientID: 2})
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(view.Sessions) != 1 || view.Sessions[0].SessionID != 2 {
		t.Errorf("client filter kept %v", view.Sessions)
	}

	view, err = a.Day(context.Background(), monday, Filter{PaidOnly: true})
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(view.Sessions) != 1 || view.Sessions[0].SessionID != 1 {
		t.Errorf("paid filter kept %v", view.Sessions)
	}

	view, err = a.Day(context.Background(), monday, Filter{Statuses: []model.SessionStatus{model.StatusScheduled}})
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(view.Sessions) != 1 || view.Sessions[0].Status != model.StatusScheduled {
		t.Errorf("status filter kept %v", view.Sessions)
	}
}

func TestDayViewIncludesFreeSlots(t *testing.T) {
	store := &stubStore{sessions: []model.Session{
		sessionAt(1, monday, 8, model.StatusScheduled, 150),
	}}
	a := NewAssembler(store, schedule.NewSlotGenerator(nil), nil)

	view, err := a.Day(context.Background(), monday, Filter{IncludeFreeSlots: true})
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(view.FreeSlots) == 0 {
		t.Fatal("expected free slots in the view")
	}
	for _, slot := range view.FreeSlots {
		if slot.StartTime == "08:00" {
			t.Error("occupied 08:00 offered as free")
		}
	}
}

func TestWeekViewBoundsAndSummary(t *testing.T) {
	store := &stubStore{sessions: []model.Session{
		sessionAt(1, monday, 8, model.StatusScheduled, 100),
		sessionAt(2, monday.AddDate(0, 0, 2), 9, model.StatusConfirmed, 100),
		sessionAt(3, monday.AddDate(0, 0, 2), 11, model.StatusConfirmed, 100),
		sessionAt(4, monday.AddDate(0, 0, 6), 10, model.StatusScheduled, 100),
	}}
	a := NewAssembler(store, nil, nil)

	view, err := a.Week(context.Background(), monday.AddDate(0, 0, 3), Filter{})
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if view.WeekStart != "2024-01-15" || view.WeekEnd != "2024-01-21" {
		t.Errorf("week bounds %s..%s, want 2024-01-15..2024-01-21", view.WeekStart, view.WeekEnd)
	}
	if len(view.Days) != 7 {
		t.Fatalf("got %d days, want 7", len(view.Days))
	}
	if view.Days[0].Weekday != "Monday" || view.Days[6].Weekday != "Sunday" {
		t.Errorf("week runs %s..%s, want Monday..Sunday", view.Days[0].Weekday, view.Days[6].Weekday)
	}
	if view.Summary.TotalSessions != 4 {
		t.Errorf("total sessions = %d, want 4", view.Summary.TotalSessions)
	}
	if view.Summary.BusiestDay != "Wednesday" || view.Summary.BusiestDayCount != 2 {
		t.Errorf("busiest day = %s (%d), want Wednesday (2)", view.Summary.BusiestDay, view.Summary.BusiestDayCount)
	}
	if want := 4.0 / 7; view.Summary.MeanPerDay != want {
		t.Errorf("mean per day = %v, want %v", view.Summary.MeanPerDay, want)
	}
}

func TestWeekViewBusiestDayTie(t *testing.T) {
	// Monday and Friday both have one session; the earlier day wins.
	store := &stubStore{sessions: []model.Session{
		sessionAt(1, monday, 8, model.StatusScheduled, 100),
		sessionAt(2, monday.AddDate(0, 0, 4), 8, model.StatusScheduled, 100),
	}}
	a := NewAssembler(store, nil, nil)

	view, err := a.Week(context.Background(), monday, Filter{})
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if view.Summary.BusiestDay != "Monday" {
		t.Errorf("busiest day = %s, want Monday on tie", view.Summary.BusiestDay)
	}
}

func TestStatusColorFallback(t *testing.T) {
	if got := StatusColor(model.SessionStatus("unknown")); got != defaultColor {
		t.Errorf("unknown status color = %s, want %s", got, defaultColor)
	}
	if got := StatusColor(model.StatusScheduled); got != "#3498db" {
		t.Errorf("scheduled color = %s, want #3498db", got)
	}
}
