package model

import (
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    SessionStatus
		to      SessionStatus
		allowed bool
	}{
		{"scheduled to confirmed", StatusScheduled, StatusConfirmed, true},
		{"scheduled to completed", StatusScheduled, StatusCompleted, true},
		{"scheduled to no show", StatusScheduled, StatusNoShow, true},
		{"scheduled to rescheduled", StatusScheduled, StatusRescheduled, true},
		{"confirmed to completed", StatusConfirmed, StatusCompleted, true},
		{"confirmed to cancelled by client", StatusConfirmed, StatusCancelledByClient, true},
		{"confirmed to scheduled", StatusConfirmed, StatusScheduled, false},
		{"completed is terminal", StatusCompleted, StatusScheduled, false},
		{"cancelled is terminal", StatusCancelledByClient, StatusConfirmed, false},
		{"no show is terminal", StatusNoShow, StatusCompleted, false},
		{"rescheduled is terminal", StatusRescheduled, StatusConfirmed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := []SessionStatus{
		StatusCompleted, StatusNoShow, StatusRescheduled,
		StatusCancelledByClient, StatusCancelledByPractitioner,
	}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []SessionStatus{StatusScheduled, StatusConfirmed} {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestSessionCountsForConflict(t *testing.T) {
	base := Session{Status: StatusScheduled, Active: true}
	if !base.CountsForConflict() {
		t.Fatal("active scheduled session should count for conflict")
	}

	cancelled := base
	cancelled.Status = StatusCancelledByClient
	if cancelled.CountsForConflict() {
		t.Error("cancelled session should not count for conflict")
	}

	deleted := base
	deleted.Deactivate()
	if deleted.CountsForConflict() {
		t.Error("soft-deleted session should not count for conflict")
	}
}

func TestSessionOverlapsWith(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2024, 1, 15, h, m, 0, 0, time.UTC)
	}
	s := Session{ScheduledAt: at(10, 0), DurationMinutes: 50}

	if !s.OverlapsWith(at(10, 30), at(11, 0)) {
		t.Error("expected overlap with interval starting inside the session")
	}
	// Half-open intervals: a session ending at 10:50 does not collide with
	// one starting at exactly 10:50.
	if s.OverlapsWith(at(10, 50), at(11, 40)) {
		t.Error("back-to-back sessions must not overlap")
	}
	if s.OverlapsWith(at(9, 0), at(10, 0)) {
		t.Error("interval ending at session start must not overlap")
	}
}

func TestParseClock(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	got, err := ParseClock(day, "14:30")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseClock = %v, want %v", got, want)
	}
	if _, err := ParseClock(day, "25:99"); err == nil {
		t.Error("expected error for invalid clock string")
	}
}
