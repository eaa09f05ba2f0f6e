package schedule

import (
	"context"
	"time"

	"praxis/internal/model"
)

// Fallbacks used when no availability template exists for a weekday.
const (
	fallbackDayStart        = "08:00"
	fallbackDayEnd          = "18:00"
	fallbackDurationMinutes = 50
	fallbackGapMinutes      = 10
)

// WorkingHoursSource resolves the availability template for a weekday.
// A nil template means none is configured and the fallback window applies.
type WorkingHoursSource interface {
	WorkingHoursFor(ctx context.Context, weekday time.Weekday) (*model.WorkingHoursDay, error)
}

// SlotGenerator computes bookable gaps on a day given the sessions already
// scheduled on it.
type SlotGenerator struct {
	hours WorkingHoursSource
}

// NewSlotGenerator returns a generator backed by the given availability
// source. A nil source always uses the fallback window.
func NewSlotGenerator(hours WorkingHoursSource) *SlotGenerator {
	return &SlotGenerator{hours: hours}
}

// FreeSlots walks the working window of day in steps of duration plus the
// configured gap and returns every step that fits before closing time and
// does not touch the lunch break or an occupied session interval. Slots
// starting between 09:00 and 17:00 inclusive are flagged preferred. A day whose
// template is marked non-working yields no slots. durationMinutes <= 0
// selects the template's default length.
func (g *SlotGenerator) FreeSlots(ctx context.Context, day time.Time, sessions []model.Session, durationMinutes int) ([]model.FreeSlot, error) {
	var tpl *model.WorkingHoursDay
	if g.hours != nil {
		var err error
		tpl, err = g.hours.WorkingHoursFor(ctx, day.Weekday())
		if err != nil {
			return nil, err
		}
	}
	if tpl != nil && !tpl.Working {
		return nil, nil
	}

	startClock, endClock := fallbackDayStart, fallbackDayEnd
	gap := fallbackGapMinutes
	if tpl != nil {
		if tpl.StartTime != "" {
			startClock = tpl.StartTime
		}
		if tpl.EndTime != "" {
			endClock = tpl.EndTime
		}
		if tpl.GapMinutes > 0 {
			gap = tpl.GapMinutes
		}
	}
	if durationMinutes <= 0 {
		durationMinutes = fallbackDurationMinutes
		if tpl != nil && tpl.SessionDurationMinutes > 0 {
			durationMinutes = tpl.SessionDurationMinutes
		}
	}
	if !ValidDuration(durationMinutes) {
		return nil, ErrInvalidDuration
	}

	dayStart, err := model.ParseClock(day, startClock)
	if err != nil {
		return nil, err
	}
	dayEnd, err := model.ParseClock(day, endClock)
	if err != nil {
		return nil, err
	}

	var lunch *Interval
	if tpl != nil && tpl.HasLunch() {
		lunchStart, err := model.ParseClock(day, tpl.LunchStart)
		if err != nil {
			return nil, err
		}
		lunchEnd, err := model.ParseClock(day, tpl.LunchEnd)
		if err != nil {
			return nil, err
		}
		lunch = &Interval{Start: lunchStart, End: lunchEnd}
	}

	occupied := make([]Interval, 0, len(sessions))
	for _, s := range sessions {
		if !s.CountsForConflict() {
			continue
		}
		occupied = append(occupied, NewInterval(s.ScheduledAt, s.DurationMinutes))
	}

	step := time.Duration(durationMinutes+gap) * time.Minute
	var slots []model.FreeSlot
	for cursor := dayStart; !cursor.Add(time.Duration(durationMinutes) * time.Minute).After(dayEnd); cursor = cursor.Add(step) {
		candidate := NewInterval(cursor, durationMinutes)
		if lunch != nil && candidate.Overlaps(*lunch) {
			continue
		}
		free := true
		for _, busy := range occupied {
			if candidate.Overlaps(busy) {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		slots = append(slots, model.FreeSlot{
			StartTime:       candidate.Start.Format("15:04"),
			EndTime:         candidate.End.Format("15:04"),
			DurationMinutes: durationMinutes,
			Preferred:       preferredStart(candidate.Start),
		})
	}
	return slots, nil
}

// preferredStart reports whether the start time lies within the 09:00 to
// 17:00 band, inclusive on both ends.
func preferredStart(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= 9*60 && minutes <= 17*60
}
