// Package calendar assembles day and week views of the practice schedule
// and the aggregate statistics shown alongside them.
package calendar

import (
	"context"
	"time"

	"praxis/internal/model"
	"praxis/internal/schedule"
)

// SessionSource provides the sessions a view is built from.
type SessionSource interface {
	SessionsInRange(ctx context.Context, from, to time.Time) ([]model.Session, error)
}

// Filter narrows the sessions included in a view. Zero values mean no
// filtering on that dimension.
type Filter struct {
	ClientID            int64                 `json:"client_id,omitempty"`
	Statuses            []model.SessionStatus `json:"statuses,omitempty"`
	PaidOnly            bool                  `json:"paid_only,omitempty"`
	UnpaidOnly          bool                  `json:"unpaid_only,omitempty"`
	IncludeFreeSlots    bool                  `json:"include_free_slots,omitempty"`
	SlotDurationMinutes int                   `json:"slot_duration_minutes,omitempty"`
}

func (f Filter) keeps(s *model.Session) bool {
	if f.ClientID != 0 && s.ClientID != f.ClientID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if s.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.PaidOnly && !s.Paid {
		return false
	}
	if f.UnpaidOnly && s.Paid {
		return false
	}
	return true
}

// Entry is one session as displayed on the calendar.
type Entry struct {
	SessionID       int64               `json:"session_id"`
	ClientID        int64               `json:"client_id"`
	ClientName      string              `json:"client_name"`
	StartTime       string              `json:"start_time"`
	EndTime         string              `json:"end_time"`
	DurationMinutes int                 `json:"duration_minutes"`
	Status          model.SessionStatus `json:"status"`
	Color           string              `json:"color"`
	Value           float64             `json:"value"`
	Paid            bool                `json:"paid"`
	Notes           string              `json:"notes,omitempty"`
}

// DaySummary aggregates one day of the calendar. Confirmed counts
// confirmed plus completed sessions; Pending counts those still waiting
// for confirmation. Cancelled sessions are listed but excluded from the
// value total.
type DaySummary struct {
	Total        int     `json:"total"`
	Confirmed    int     `json:"confirmed"`
	Pending      int     `json:"pending"`
	TotalValue   float64 `json:"total_value"`
	FirstSession string  `json:"first_session,omitempty"`
	LastSession  string  `json:"last_session,omitempty"`
}

// DayView is one day of the calendar.
type DayView struct {
	Date      string           `json:"date"`
	Weekday   string           `json:"weekday"`
	IsToday   bool             `json:"is_today"`
	IsWeekend bool             `json:"is_weekend"`
	Sessions  []Entry          `json:"sessions"`
	FreeSlots []model.FreeSlot `json:"free_slots,omitempty"`
	Summary   DaySummary       `json:"summary"`
}

// WeekSummary aggregates a week. The busiest day tie-breaks toward the
// earliest day of the week, Monday first.
type WeekSummary struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalValue      float64 `json:"total_value"`
	BusiestDay      string  `json:"busiest_day,omitempty"`
	BusiestDayCount int     `json:"busiest_day_count"`
	MeanPerDay      float64 `json:"mean_per_day"`
	TotalFreeSlots  int     `json:"total_free_slots"`
}

// WeekView is a Monday-to-Sunday week of the calendar.
type WeekView struct {
	WeekStart  string      `json:"week_start"`
	WeekEnd    string      `json:"week_end"`
	WeekNumber int         `json:"week_number"`
	Days       []DayView   `json:"days"`
	Summary    WeekSummary `json:"summary"`
}

// Assembler builds calendar views from stored sessions.
type Assembler struct {
	store SessionSource
	slots *schedule.SlotGenerator
	cache *ViewCache
	now   func() time.Time
}

// NewAssembler returns an assembler over the given session source. slots
// and cache may be nil to disable free-slot listing and caching.
func NewAssembler(store SessionSource, slots *schedule.SlotGenerator, cache *ViewCache) *Assembler {
	return &Assembler{store: store, slots: slots, cache: cache, now: time.Now}
}

// Day builds the view for one calendar day.
func (a *Assembler) Day(ctx context.Context, date time.Time, filter Filter) (*DayView, error) {
	if a.cache != nil {
		if view, ok := a.cache.GetDay(ctx, date, filter); ok {
			return view, nil
		}
	}

	dayStart := startOfDay(date)
	sessions, err := a.store.SessionsInRange(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	view, err := a.buildDay(ctx, dayStart, sessions, filter)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		a.cache.SetDay(ctx, date, filter, view)
	}
	return view, nil
}

// Week builds the Monday-to-Sunday view containing ref.
func (a *Assembler) Week(ctx context.Context, ref time.Time, filter Filter) (*WeekView, error) {
	weekStart := StartOfWeek(ref)
	if a.cache != nil {
		if view, ok := a.cache.GetWeek(ctx, weekStart, filter); ok {
			return view, nil
		}
	}

	weekEnd := weekStart.AddDate(0, 0, 7)
	sessions, err := a.store.SessionsInRange(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]model.Session)
	for _, s := range sessions {
		key := s.ScheduledAt.Format("2006-01-02")
		byDay[key] = append(byDay[key], s)
	}

	_, weekNumber := weekStart.ISOWeek()
	view := &WeekView{
		WeekStart:  weekStart.Format("2006-01-02"),
		WeekEnd:    weekStart.AddDate(0, 0, 6).Format("2006-01-02"),
		WeekNumber: weekNumber,
	}
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		dayView, err := a.buildDay(ctx, day, byDay[day.Format("2006-01-02")], filter)
		if err != nil {
			return nil, err
		}
		view.Days = append(view.Days, *dayView)

		view.Summary.TotalSessions += dayView.Summary.Total
		view.Summary.TotalValue += dayView.Summary.TotalValue
		view.Summary.TotalFreeSlots += len(dayView.FreeSlots)
		if dayView.Summary.Total > view.Summary.BusiestDayCount {
			view.Summary.BusiestDayCount = dayView.Summary.Total
			view.Summary.BusiestDay = dayView.Weekday
		}
	}
	view.Summary.MeanPerDay = float64(view.Summary.TotalSessions) / 7

	if a.cache != nil {
		a.cache.SetWeek(ctx, weekStart, filter, view)
	}
	return view, nil
}

func (a *Assembler) buildDay(ctx context.Context, dayStart time.Time, sessions []model.Session, filter Filter) (*DayView, error) {
	now := a.now()
	view := &DayView{
		Date:      dayStart.Format("2006-01-02"),
		Weekday:   dayStart.Weekday().String(),
		IsToday:   sameDay(dayStart, now),
		IsWeekend: dayStart.Weekday() == time.Saturday || dayStart.Weekday() == time.Sunday,
	}

	for i := range sessions {
		s := &sessions[i]
		if !s.Active || !filter.keeps(s) {
			continue
		}
		view.Sessions = append(view.Sessions, Entry{
			SessionID:       s.ID,
			ClientID:        s.ClientID,
			ClientName:      s.ClientName,
			StartTime:       s.ScheduledAt.Format("15:04"),
			EndTime:         s.EndsAt().Format("15:04"),
			DurationMinutes: s.DurationMinutes,
			Status:          s.Status,
			Color:           StatusColor(s.Status),
			Value:           s.Value,
			Paid:            s.Paid,
			Notes:           s.Notes,
		})

		view.Summary.Total++
		switch s.Status {
		case model.StatusConfirmed, model.StatusCompleted:
			view.Summary.Confirmed++
		case model.StatusScheduled:
			view.Summary.Pending++
		}
		if !s.Status.IsCancellation() {
			view.Summary.TotalValue += s.Value
		}
	}
	if n := len(view.Sessions); n > 0 {
		view.Summary.FirstSession = view.Sessions[0].StartTime
		view.Summary.LastSession = view.Sessions[n-1].StartTime
	}

	if filter.IncludeFreeSlots && a.slots != nil {
		slots, err := a.slots.FreeSlots(ctx, dayStart, sessions, filter.SlotDurationMinutes)
		if err != nil {
			return nil, err
		}
		view.FreeSlots = slots
	}
	return view, nil
}

// StartOfWeek returns the Monday midnight opening the week containing t.
func StartOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
