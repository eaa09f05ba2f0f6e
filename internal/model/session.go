package model

import (
	"time"
)

// SessionStatus is the lifecycle state of a therapy session.
type SessionStatus string

const (
	StatusScheduled               SessionStatus = "scheduled"
	StatusConfirmed               SessionStatus = "confirmed"
	StatusCompleted               SessionStatus = "completed"
	StatusCancelledByClient       SessionStatus = "cancelled_by_client"
	StatusCancelledByPractitioner SessionStatus = "cancelled_by_practitioner"
	StatusNoShow                  SessionStatus = "no_show"
	StatusRescheduled             SessionStatus = "rescheduled"
)

// Periodicity describes how a session repeats when it belongs to a
// recurring series.
type Periodicity string

const (
	PeriodicityNone        Periodicity = "none"
	PeriodicityDaily       Periodicity = "daily"
	PeriodicityTwiceWeekly Periodicity = "twice_weekly"
	PeriodicityWeekly      Periodicity = "weekly"
	PeriodicityBiweekly    Periodicity = "biweekly"
	PeriodicityMonthly     Periodicity = "monthly"
	PeriodicityFreeform    Periodicity = "freeform"
)

// allowedTransitions lists, per current status, the statuses a session may
// move to. Statuses absent from the map are terminal.
var allowedTransitions = map[SessionStatus][]SessionStatus{
	StatusScheduled: {
		StatusConfirmed,
		StatusCompleted,
		StatusNoShow,
		StatusCancelledByClient,
		StatusCancelledByPractitioner,
		StatusRescheduled,
	},
	StatusConfirmed: {
		StatusCompleted,
		StatusNoShow,
		StatusCancelledByClient,
		StatusCancelledByPractitioner,
		StatusRescheduled,
	},
}

// CanTransitionTo reports whether the status machine allows moving from s
// to target.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s SessionStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

// IsCancellation reports whether s is one of the two cancellation statuses.
func (s SessionStatus) IsCancellation() bool {
	return s == StatusCancelledByClient || s == StatusCancelledByPractitioner
}

// Valid reports whether s is one of the known statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted,
		StatusCancelledByClient, StatusCancelledByPractitioner,
		StatusNoShow, StatusRescheduled:
		return true
	}
	return false
}

// Valid reports whether p is one of the known periodicities.
func (p Periodicity) Valid() bool {
	switch p {
	case PeriodicityNone, PeriodicityDaily, PeriodicityTwiceWeekly,
		PeriodicityWeekly, PeriodicityBiweekly, PeriodicityMonthly,
		PeriodicityFreeform:
		return true
	}
	return false
}

// Session is a single appointment between the practitioner and a client.
type Session struct {
	ID                    int64         `json:"id"`
	ClientID              int64         `json:"client_id"`
	ClientName            string        `json:"client_name,omitempty"`
	ClientPhone           string        `json:"client_phone,omitempty"`
	ScheduledAt           time.Time     `json:"scheduled_at"`
	DurationMinutes       int           `json:"duration_minutes"`
	ActualDurationMinutes *int          `json:"actual_duration_minutes,omitempty"`
	Value                 float64       `json:"value"`
	Status                SessionStatus `json:"status"`
	Periodicity           Periodicity   `json:"periodicity"`
	Notes                 string        `json:"notes,omitempty"`
	ClinicalNotes         string        `json:"clinical_notes,omitempty"`
	CancelReason          string        `json:"cancel_reason,omitempty"`
	Billable              bool          `json:"billable"`
	Paid                  bool          `json:"paid"`
	PaidAt                *time.Time    `json:"paid_at,omitempty"`
	PaymentMethod         string        `json:"payment_method,omitempty"`
	CompletedAt           *time.Time    `json:"completed_at,omitempty"`
	OriginalSessionID     *int64        `json:"original_session_id,omitempty"`
	GoogleCalendarEventID string        `json:"google_calendar_event_id,omitempty"`
	ReminderSentAt        *time.Time    `json:"reminder_sent_at,omitempty"`
	Active                bool          `json:"active"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// EndsAt returns the exclusive end of the session's occupied interval.
func (s *Session) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// CountsForConflict reports whether the session occupies time on the
// calendar. Cancelled and soft-deleted sessions release their slot.
func (s *Session) CountsForConflict() bool {
	return s.Active && !s.Status.IsCancellation()
}

// OverlapsWith reports whether the session's half-open interval
// [ScheduledAt, EndsAt) intersects [start, end).
func (s *Session) OverlapsWith(start, end time.Time) bool {
	return s.ScheduledAt.Before(end) && start.Before(s.EndsAt())
}

// IsActive implements SoftDeletable.
func (s *Session) IsActive() bool { return s.Active }

// Deactivate implements SoftDeletable.
func (s *Session) Deactivate() { s.Active = false }

// SoftDeletable is implemented by records that are hidden rather than
// removed from storage.
type SoftDeletable interface {
	IsActive() bool
	Deactivate()
}
