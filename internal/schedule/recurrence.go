package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"praxis/internal/model"
)

// Bookable hours of the day for series generation.
const (
	earliestBookableHour = 6
	latestBookableHour   = 22
)

// ErrInvalidTimeOfDay is returned when a series start time falls outside
// bookable hours.
var ErrInvalidTimeOfDay = errors.New("schedule: time of day outside 06:00-22:00")

// SeriesRequest describes a recurring series to expand.
type SeriesRequest struct {
	ClientID        int64
	Periodicity     model.Periodicity
	StartDate       time.Time
	EndDate         time.Time
	TimeOfDay       string
	DurationMinutes int
	Value           float64
	Billable        bool
	Notes           string
}

// SeriesResult holds the expanded occurrences. Attempted counts every
// candidate date; occurrences that collided with an existing booking or
// an earlier occurrence of the same batch are skipped, not errors.
type SeriesResult struct {
	Sessions  []model.Session
	Attempted int
	Skipped   int
}

// RecurrenceGenerator expands a recurring series into concrete sessions,
// skipping occurrences that would conflict.
type RecurrenceGenerator struct {
	detector *ConflictDetector
}

// NewRecurrenceGenerator returns a generator that checks candidates with
// the given detector.
func NewRecurrenceGenerator(detector *ConflictDetector) *RecurrenceGenerator {
	return &RecurrenceGenerator{detector: detector}
}

// NextOccurrence returns the start of the occurrence after t for the given
// periodicity. The twice-weekly step is a fixed 3.5 days, so occurrence
// times alternate between two wall-clock offsets.
func NextOccurrence(t time.Time, p model.Periodicity) (time.Time, error) {
	switch p {
	case model.PeriodicityDaily:
		return t.AddDate(0, 0, 1), nil
	case model.PeriodicityTwiceWeekly:
		return t.Add(84 * time.Hour), nil
	case model.PeriodicityWeekly:
		return t.AddDate(0, 0, 7), nil
	case model.PeriodicityBiweekly:
		return t.AddDate(0, 0, 14), nil
	case model.PeriodicityMonthly:
		return addMonthClamped(t), nil
	case model.PeriodicityFreeform:
		return time.Time{}, ErrFreeformPeriodicity
	default:
		return time.Time{}, fmt.Errorf("schedule: unknown periodicity %q", p)
	}
}

// Generate expands the request into unsaved sessions in scheduled status.
// Candidates are produced from the start date up to and including the end
// date; each is checked against stored sessions and against occurrences
// already accepted in this batch. ctx is honored between iterations.
func (g *RecurrenceGenerator) Generate(ctx context.Context, req SeriesRequest) (*SeriesResult, error) {
	if req.Periodicity == model.PeriodicityFreeform {
		return nil, ErrFreeformPeriodicity
	}
	if !req.Periodicity.Valid() || req.Periodicity == model.PeriodicityNone {
		return nil, fmt.Errorf("schedule: periodicity %q cannot be generated", req.Periodicity)
	}
	if !ValidDuration(req.DurationMinutes) {
		return nil, ErrInvalidDuration
	}
	if req.EndDate.Before(req.StartDate) || req.EndDate.Sub(req.StartDate) > 366*24*time.Hour {
		return nil, ErrInvalidPeriod
	}

	current, err := model.ParseClock(req.StartDate, req.TimeOfDay)
	if err != nil {
		return nil, err
	}
	if current.Hour() < earliestBookableHour || current.Hour() >= latestBookableHour {
		return nil, ErrInvalidTimeOfDay
	}

	lastDate := dateOf(req.EndDate)
	result := &SeriesResult{}
	for !dateOf(current).After(lastDate) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Attempted++

		conflicted, err := g.conflicts(ctx, current, req.DurationMinutes, result.Sessions)
		if err != nil {
			return nil, err
		}
		if conflicted {
			result.Skipped++
		} else {
			result.Sessions = append(result.Sessions, model.Session{
				ClientID:        req.ClientID,
				ScheduledAt:     current,
				DurationMinutes: req.DurationMinutes,
				Value:           req.Value,
				Status:          model.StatusScheduled,
				Periodicity:     req.Periodicity,
				Billable:        req.Billable,
				Notes:           req.Notes,
				Active:          true,
			})
		}

		current, err = NextOccurrence(current, req.Periodicity)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (g *RecurrenceGenerator) conflicts(ctx context.Context, start time.Time, durationMinutes int, batch []model.Session) (bool, error) {
	if g.detector != nil {
		stored, err := g.detector.HasConflict(ctx, start, durationMinutes, 0)
		if err != nil {
			return false, err
		}
		if stored {
			return true, nil
		}
	}
	candidate := NewInterval(start, durationMinutes)
	for _, s := range batch {
		if candidate.Overlaps(NewInterval(s.ScheduledAt, s.DurationMinutes)) {
			return true, nil
		}
	}
	return false, nil
}

// addMonthClamped advances t by one calendar month, clamping the day to
// the last day of the target month so Jan 31 yields Feb 28 rather than
// overflowing into March.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Year(), t.Month(), t.Day()
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNext.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
