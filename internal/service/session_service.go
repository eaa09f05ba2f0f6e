// Package service implements the scheduling operations of the practice:
// booking, lifecycle transitions, recurring series and availability.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"praxis/internal/database"
	"praxis/internal/events"
	"praxis/internal/metrics"
	"praxis/internal/model"
	"praxis/internal/schedule"
)

// Repository is the storage surface the service needs. *database.DB
// implements it.
type Repository interface {
	CreateSession(ctx context.Context, s *model.Session) error
	CreateSessions(ctx context.Context, sessions []model.Session) ([]model.Session, error)
	GetSession(ctx context.Context, id int64) (*model.Session, error)
	UpdateSession(ctx context.Context, s *model.Session) error
	SetStatus(ctx context.Context, id int64, status model.SessionStatus, reason string) error
	MarkCompleted(ctx context.Context, id int64, completedAt time.Time, actualDurationMinutes *int, clinicalNotes string) error
	MarkPaid(ctx context.Context, id int64, paidAt time.Time, method string) error
	DeactivateSession(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, originalID int64, reason string, replacement *model.Session) error
	SessionsInRange(ctx context.Context, from, to time.Time) ([]model.Session, error)
	GetClient(ctx context.Context, id int64) (*model.Client, error)
}

const (
	defaultDurationMinutes = 50
	maxSessionValue        = 9999.99
	defaultRescheduleNote  = "Rescheduled"
)

// SessionService coordinates validation, conflict checking and storage
// for session operations.
type SessionService struct {
	repo     Repository
	detector *schedule.ConflictDetector
	recur    *schedule.RecurrenceGenerator
	slots    *schedule.SlotGenerator
	bus      *events.Bus
	logger   *zerolog.Logger
	locks    *dayLocks
	now      func() time.Time
}

// NewSessionService wires a service over the given storage. hours may be
// nil, in which case the fallback availability window is used.
func NewSessionService(repo Repository, hours schedule.WorkingHoursSource, bus *events.Bus, logger *zerolog.Logger) *SessionService {
	detector := schedule.NewConflictDetector(repo)
	return &SessionService{
		repo:     repo,
		detector: detector,
		recur:    schedule.NewRecurrenceGenerator(detector),
		slots:    schedule.NewSlotGenerator(hours),
		bus:      bus,
		logger:   logger,
		locks:    newDayLocks(),
		now:      time.Now,
	}
}

// CreateSessionInput describes a new booking. Zero DurationMinutes takes
// the default length; zero Value takes the client's configured rate.
type CreateSessionInput struct {
	ClientID        int64
	ScheduledAt     time.Time
	DurationMinutes int
	Value           float64
	Periodicity     model.Periodicity
	Notes           string
	Billable        bool
}

// Create books a single session after validating the request and proving
// the slot free. The day lock makes check-then-insert atomic with respect
// to other bookings on the same day.
func (s *SessionService) Create(ctx context.Context, in CreateSessionInput) (*model.Session, error) {
	client, err := s.repo.GetClient(ctx, in.ClientID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("client %d not found", in.ClientID)
	}
	if err != nil {
		return nil, internal("load client", err)
	}

	if in.DurationMinutes == 0 {
		in.DurationMinutes = defaultDurationMinutes
	}
	if in.Value == 0 {
		in.Value = client.SessionValue
	}
	if in.Periodicity == "" {
		in.Periodicity = model.PeriodicityNone
	}
	if err := validateBooking(in.ScheduledAt, in.DurationMinutes, in.Value, in.Periodicity); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(in.ScheduledAt)
	defer unlock()

	conflicts, err := s.detector.FindConflicts(ctx, in.ScheduledAt, in.DurationMinutes, 0)
	if err != nil {
		return nil, mapScheduleErr("check conflicts", err)
	}
	if len(conflicts) > 0 {
		metrics.IncConflictDetected()
		return nil, conflictDetected(conflicts)
	}

	session := &model.Session{
		ClientID:        in.ClientID,
		ScheduledAt:     in.ScheduledAt,
		DurationMinutes: in.DurationMinutes,
		Value:           in.Value,
		Status:          model.StatusScheduled,
		Periodicity:     in.Periodicity,
		Notes:           in.Notes,
		Billable:        in.Billable,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, internal("store session", err)
	}
	session.ClientName = client.Name
	session.ClientPhone = client.Phone

	metrics.IncSessionCreated(string(session.Periodicity))
	s.publish(events.SessionCreated, session.ID, session.ClientID, session.ScheduledAt)
	s.logger.Info().
		Int64("session_id", session.ID).
		Int64("client_id", session.ClientID).
		Time("scheduled_at", session.ScheduledAt).
		Msg("session created")
	return session, nil
}

// UpdateSessionInput carries the editable fields of a session. Nil
// pointers leave the stored value unchanged.
type UpdateSessionInput struct {
	ScheduledAt     *time.Time
	DurationMinutes *int
	Value           *float64
	Periodicity     *model.Periodicity
	Notes           *string
	ClinicalNotes   *string
	Billable        *bool
}

// Update edits a session in place, re-running the conflict check when the
// time or duration moves. The session itself is excluded from the check so
// saving without moving never self-conflicts.
func (s *SessionService) Update(ctx context.Context, id int64, in UpdateSessionInput) (*model.Session, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, invalidInput("session %d is %s and cannot be edited", id, session.Status)
	}

	if in.ScheduledAt != nil {
		session.ScheduledAt = *in.ScheduledAt
	}
	if in.DurationMinutes != nil {
		session.DurationMinutes = *in.DurationMinutes
	}
	if in.Value != nil {
		session.Value = *in.Value
	}
	if in.Periodicity != nil {
		session.Periodicity = *in.Periodicity
	}
	if in.Notes != nil {
		session.Notes = *in.Notes
	}
	if in.ClinicalNotes != nil {
		session.ClinicalNotes = *in.ClinicalNotes
	}
	if in.Billable != nil {
		session.Billable = *in.Billable
	}
	if err := validateBooking(session.ScheduledAt, session.DurationMinutes, session.Value, session.Periodicity); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(session.ScheduledAt)
	defer unlock()

	conflicts, err := s.detector.FindConflicts(ctx, session.ScheduledAt, session.DurationMinutes, id)
	if err != nil {
		return nil, mapScheduleErr("check conflicts", err)
	}
	if len(conflicts) > 0 {
		metrics.IncConflictDetected()
		return nil, conflictDetected(conflicts)
	}

	if err := s.repo.UpdateSession(ctx, session); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("session %d not found", id)
		}
		return nil, internal("update session", err)
	}
	s.publish(events.SessionUpdated, session.ID, session.ClientID, session.ScheduledAt)
	return session, nil
}

// Confirm moves a scheduled session to confirmed.
func (s *SessionService) Confirm(ctx context.Context, id int64) (*model.Session, error) {
	return s.transition(ctx, id, model.StatusConfirmed, "")
}

// Cancel cancels a session. target selects who cancelled and must be one
// of the two cancellation statuses; reason is required.
func (s *SessionService) Cancel(ctx context.Context, id int64, target model.SessionStatus, reason string) (*model.Session, error) {
	if !target.IsCancellation() {
		return nil, invalidInput("status %q is not a cancellation status", target)
	}
	if reason == "" {
		return nil, invalidInput("cancellation requires a reason")
	}
	session, err := s.transition(ctx, id, target, reason)
	if err != nil {
		return nil, err
	}
	s.publish(events.SessionCancelled, session.ID, session.ClientID, session.ScheduledAt)
	return session, nil
}

// MarkNoShow records that the client did not attend.
func (s *SessionService) MarkNoShow(ctx context.Context, id int64) (*model.Session, error) {
	return s.transition(ctx, id, model.StatusNoShow, "")
}

// Complete closes a session, optionally recording the actual duration and
// clinical notes.
func (s *SessionService) Complete(ctx context.Context, id int64, actualDurationMinutes *int, clinicalNotes string) (*model.Session, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(model.StatusCompleted) {
		return nil, invalidInput("session %d cannot move from %s to %s", id, session.Status, model.StatusCompleted)
	}
	if actualDurationMinutes != nil && !schedule.ValidDuration(*actualDurationMinutes) {
		return nil, invalidInput("actual duration must be between 1 and %d minutes", schedule.MaxSessionMinutes)
	}

	completedAt := s.now()
	if err := s.repo.MarkCompleted(ctx, id, completedAt, actualDurationMinutes, clinicalNotes); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("session %d not found", id)
		}
		return nil, internal("complete session", err)
	}
	session.Status = model.StatusCompleted
	session.CompletedAt = &completedAt
	session.ActualDurationMinutes = actualDurationMinutes
	if clinicalNotes != "" {
		session.ClinicalNotes = clinicalNotes
	}

	metrics.IncStatusChanged(string(model.StatusCompleted))
	s.publish(events.SessionCompleted, session.ID, session.ClientID, session.ScheduledAt)
	return session, nil
}

// MarkPaid records payment for a completed session.
func (s *SessionService) MarkPaid(ctx context.Context, id int64, method string) (*model.Session, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status != model.StatusCompleted {
		return nil, invalidInput("session %d is %s; only completed sessions can be paid", id, session.Status)
	}
	if session.Paid {
		return nil, invalidInput("session %d is already paid", id)
	}

	paidAt := s.now()
	if err := s.repo.MarkPaid(ctx, id, paidAt, method); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("session %d not found", id)
		}
		return nil, internal("mark session paid", err)
	}
	session.Paid = true
	session.PaidAt = &paidAt
	session.PaymentMethod = method
	return session, nil
}

// BatchFailure records why one item of a batch operation failed.
type BatchFailure struct {
	SessionID int64  `json:"session_id"`
	Reason    string `json:"reason"`
}

// BatchResult accumulates per-item outcomes; one bad item never aborts
// the rest.
type BatchResult struct {
	Succeeded []int64        `json:"succeeded"`
	Failed    []BatchFailure `json:"failed,omitempty"`
}

// CancelMany cancels a set of sessions, collecting individual failures.
func (s *SessionService) CancelMany(ctx context.Context, ids []int64, target model.SessionStatus, reason string) (*BatchResult, error) {
	if !target.IsCancellation() {
		return nil, invalidInput("status %q is not a cancellation status", target)
	}
	if reason == "" {
		return nil, invalidInput("cancellation requires a reason")
	}
	res := &BatchResult{}
	for _, id := range ids {
		if _, err := s.Cancel(ctx, id, target, reason); err != nil {
			res.Failed = append(res.Failed, BatchFailure{SessionID: id, Reason: err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res, nil
}

// MarkManyPaid records payment for a set of sessions, collecting
// individual failures.
func (s *SessionService) MarkManyPaid(ctx context.Context, ids []int64, method string) (*BatchResult, error) {
	res := &BatchResult{}
	for _, id := range ids {
		if _, err := s.MarkPaid(ctx, id, method); err != nil {
			res.Failed = append(res.Failed, BatchFailure{SessionID: id, Reason: err.Error()})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	return res, nil
}

// Reschedule moves a session to a new time. The original is kept as an
// audit record in rescheduled status and the replacement inherits its
// commercial terms; both writes happen in one transaction.
func (s *SessionService) Reschedule(ctx context.Context, id int64, newTime time.Time, reason string) (*model.Session, error) {
	original, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !original.Status.CanTransitionTo(model.StatusRescheduled) {
		return nil, invalidInput("session %d cannot move from %s to %s", id, original.Status, model.StatusRescheduled)
	}
	if err := validateBooking(newTime, original.DurationMinutes, original.Value, original.Periodicity); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = defaultRescheduleNote
	}

	unlock := s.locks.lockAll([]time.Time{original.ScheduledAt, newTime})
	defer unlock()

	conflicts, err := s.detector.FindConflicts(ctx, newTime, original.DurationMinutes, id)
	if err != nil {
		return nil, mapScheduleErr("check conflicts", err)
	}
	if len(conflicts) > 0 {
		metrics.IncConflictDetected()
		return nil, conflictDetected(conflicts)
	}

	replacement := &model.Session{
		ClientID:          original.ClientID,
		ScheduledAt:       newTime,
		DurationMinutes:   original.DurationMinutes,
		Value:             original.Value,
		Status:            model.StatusScheduled,
		Periodicity:       original.Periodicity,
		Billable:          original.Billable,
		Notes:             original.Notes,
		OriginalSessionID: &original.ID,
	}
	if err := s.repo.Reschedule(ctx, id, reason, replacement); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("session %d not found", id)
		}
		return nil, internal("reschedule session", err)
	}
	replacement.ClientName = original.ClientName
	replacement.ClientPhone = original.ClientPhone

	metrics.IncStatusChanged(string(model.StatusRescheduled))
	s.publish(events.SessionRescheduled, replacement.ID, replacement.ClientID, original.ScheduledAt, newTime)
	s.logger.Info().
		Int64("original_id", id).
		Int64("session_id", replacement.ID).
		Time("new_time", newTime).
		Msg("session rescheduled")
	return replacement, nil
}

// Delete soft-deletes a session; it disappears from views but stays in
// storage.
func (s *SessionService) Delete(ctx context.Context, id int64) error {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeactivateSession(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return notFound("session %d not found", id)
		}
		return internal("delete session", err)
	}
	s.publish(events.SessionDeleted, id, session.ClientID, session.ScheduledAt)
	return nil
}

// Get returns a single session.
func (s *SessionService) Get(ctx context.Context, id int64) (*model.Session, error) {
	return s.getSession(ctx, id)
}

// GenerateSeries expands a recurring series and stores the surviving
// occurrences in one batch. Occurrences that conflict are skipped, which
// the caller sees only through the attempted/generated counts.
func (s *SessionService) GenerateSeries(ctx context.Context, req schedule.SeriesRequest) (*schedule.SeriesResult, error) {
	client, err := s.repo.GetClient(ctx, req.ClientID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("client %d not found", req.ClientID)
	}
	if err != nil {
		return nil, internal("load client", err)
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = defaultDurationMinutes
	}
	if req.Value == 0 {
		req.Value = client.SessionValue
	}
	if req.EndDate.Before(req.StartDate) || req.EndDate.Sub(req.StartDate) > 366*24*time.Hour {
		return nil, mapScheduleErr("generate series", schedule.ErrInvalidPeriod)
	}

	// Hold every day of the candidate range before the generator checks
	// for conflicts, so no single booking can slip in between the batch
	// check and the batch insert.
	days := make([]time.Time, 0, int(req.EndDate.Sub(req.StartDate).Hours()/24)+1)
	for d := req.StartDate; !d.After(req.EndDate); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	unlock := s.locks.lockAll(days)
	defer unlock()

	result, err := s.recur.Generate(ctx, req)
	if err != nil {
		return nil, mapScheduleErr("generate series", err)
	}
	if len(result.Sessions) == 0 {
		return result, nil
	}

	dates := make([]time.Time, len(result.Sessions))
	for i, occ := range result.Sessions {
		dates[i] = occ.ScheduledAt
	}

	stored, err := s.repo.CreateSessions(ctx, result.Sessions)
	if err != nil {
		return nil, internal("store series", err)
	}
	result.Sessions = stored

	for range stored {
		metrics.IncSeriesOccurrence("generated")
	}
	for i := 0; i < result.Skipped; i++ {
		metrics.IncSeriesOccurrence("skipped")
	}
	s.publish(events.SeriesGenerated, 0, req.ClientID, dates...)
	s.logger.Info().
		Int64("client_id", req.ClientID).
		Str("periodicity", string(req.Periodicity)).
		Int("attempted", result.Attempted).
		Int("generated", len(stored)).
		Int("skipped", result.Skipped).
		Msg("recurring series generated")
	return result, nil
}

// FindConflicts exposes the conflict check for ad-hoc queries.
func (s *SessionService) FindConflicts(ctx context.Context, start time.Time, durationMinutes int, excludeID int64) ([]model.Session, error) {
	conflicts, err := s.detector.FindConflicts(ctx, start, durationMinutes, excludeID)
	if err != nil {
		return nil, mapScheduleErr("check conflicts", err)
	}
	return conflicts, nil
}

// FreeSlots returns the bookable slots of a day for the requested
// duration.
func (s *SessionService) FreeSlots(ctx context.Context, day time.Time, durationMinutes int) ([]model.FreeSlot, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	sessions, err := s.repo.SessionsInRange(ctx, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, internal("load day sessions", err)
	}
	slots, err := s.slots.FreeSlots(ctx, dayStart, sessions, durationMinutes)
	if err != nil {
		return nil, mapScheduleErr("compute free slots", err)
	}
	return slots, nil
}

func (s *SessionService) getSession(ctx context.Context, id int64) (*model.Session, error) {
	session, err := s.repo.GetSession(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("session %d not found", id)
	}
	if err != nil {
		return nil, internal("load session", err)
	}
	return session, nil
}

func (s *SessionService) transition(ctx context.Context, id int64, target model.SessionStatus, reason string) (*model.Session, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransitionTo(target) {
		return nil, invalidInput("session %d cannot move from %s to %s", id, session.Status, target)
	}
	if err := s.repo.SetStatus(ctx, id, target, reason); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, notFound("session %d not found", id)
		}
		return nil, internal("set session status", err)
	}
	session.Status = target
	session.CancelReason = reason
	metrics.IncStatusChanged(string(target))
	return session, nil
}

func (s *SessionService) publish(eventType string, sessionID, clientID int64, dates ...time.Time) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Type:      eventType,
		SessionID: sessionID,
		ClientID:  clientID,
		Dates:     dates,
	})
}

func validateBooking(at time.Time, durationMinutes int, value float64, periodicity model.Periodicity) error {
	if at.IsZero() {
		return invalidInput("scheduled time is required")
	}
	if at.Hour() < 6 || at.Hour() >= 22 {
		return invalidInput("sessions must start between 06:00 and 22:00")
	}
	if !schedule.ValidDuration(durationMinutes) {
		return invalidInput("duration must be between 1 and %d minutes", schedule.MaxSessionMinutes)
	}
	if value < 0 || value > maxSessionValue {
		return invalidInput("value must be between 0 and %.2f", maxSessionValue)
	}
	if !periodicity.Valid() {
		return invalidInput("unknown periodicity %q", periodicity)
	}
	return nil
}

func mapScheduleErr(msg string, err error) error {
	switch {
	case errors.Is(err, schedule.ErrInvalidDuration),
		errors.Is(err, schedule.ErrInvalidPeriod),
		errors.Is(err, schedule.ErrInvalidTimeOfDay),
		errors.Is(err, schedule.ErrFreeformPeriodicity):
		return &Error{Kind: KindInvalidInput, Message: err.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return internal(fmt.Sprintf("%s failed", msg), err)
	}
}
