package model

import (
	"fmt"
	"time"
)

// WorkingHoursDay is the practitioner's availability template for one
// weekday. Times are local wall-clock values in "HH:MM" form.
type WorkingHoursDay struct {
	Weekday                time.Weekday `json:"weekday"`
	Working                bool         `json:"working"`
	StartTime              string       `json:"start_time"`
	EndTime                string       `json:"end_time"`
	LunchStart             string       `json:"lunch_start,omitempty"`
	LunchEnd               string       `json:"lunch_end,omitempty"`
	SessionDurationMinutes int          `json:"session_duration_minutes"`
	GapMinutes             int          `json:"gap_minutes"`
}

// HasLunch reports whether a lunch break is configured for the day.
func (w *WorkingHoursDay) HasLunch() bool {
	return w.LunchStart != "" && w.LunchEnd != ""
}

// DefaultWorkingHours returns the fallback availability template:
// Monday through Friday 08:00-18:00 with lunch 12:00-13:00, 50 minute
// sessions separated by a 10 minute gap.
func DefaultWorkingHours() []WorkingHoursDay {
	days := make([]WorkingHoursDay, 0, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		day := WorkingHoursDay{
			Weekday:                wd,
			Working:                wd != time.Saturday && wd != time.Sunday,
			SessionDurationMinutes: 50,
			GapMinutes:             10,
		}
		if day.Working {
			day.StartTime = "08:00"
			day.EndTime = "18:00"
			day.LunchStart = "12:00"
			day.LunchEnd = "13:00"
		}
		days = append(days, day)
	}
	return days
}

// ParseClock interprets a "HH:MM" wall-clock string on the date of day,
// in day's location.
func ParseClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

// FreeSlot is a bookable gap on a given day.
type FreeSlot struct {
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Preferred       bool   `json:"preferred"`
}
