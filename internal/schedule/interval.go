// Package schedule holds the time arithmetic of the practice calendar:
// interval overlap, conflict detection, free-slot search and recurring
// series expansion.
package schedule

import (
	"errors"
	"time"
)

// Session durations are validated against the longest bookable block.
const MaxSessionMinutes = 480

var (
	// ErrInvalidDuration is returned when a requested duration is not in
	// (0, MaxSessionMinutes].
	ErrInvalidDuration = errors.New("schedule: invalid session duration")
	// ErrInvalidPeriod is returned when a date range is inverted or longer
	// than one year.
	ErrInvalidPeriod = errors.New("schedule: invalid period")
	// ErrFreeformPeriodicity is returned when series generation is asked
	// for a freeform periodicity, which has no fixed step.
	ErrFreeformPeriodicity = errors.New("schedule: freeform periodicity cannot be generated")
)

// Interval is a half-open time span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval occupied by a session starting at start
// and lasting the given number of minutes.
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Overlaps reports whether two half-open intervals intersect. Intervals
// that merely touch (one ends exactly where the other starts) do not
// overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Duration returns the interval's length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// ValidDuration reports whether minutes is an acceptable session length.
func ValidDuration(minutes int) bool {
	return minutes > 0 && minutes <= MaxSessionMinutes
}
