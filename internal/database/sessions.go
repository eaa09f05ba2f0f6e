package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"praxis/internal/model"
)

// ErrNotFound is returned when a requested record does not exist or has
// been soft-deleted.
var ErrNotFound = errors.New("database: not found")

const sessionColumns = `
	s.id, s.client_id, c.name, c.phone, s.scheduled_at, s.duration_minutes,
	s.actual_duration_minutes, s.value, s.status, s.periodicity, s.notes,
	s.clinical_notes, s.cancel_reason, s.billable, s.paid, s.paid_at,
	s.payment_method, s.completed_at, s.original_session_id,
	s.google_calendar_event_id, s.reminder_sent_at, s.active,
	s.created_at, s.updated_at`

const sessionFrom = ` FROM sessions s JOIN clients c ON c.id = s.client_id `

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var (
		s              model.Session
		actualDuration sql.NullInt64
		paidAt         sql.NullTime
		completedAt    sql.NullTime
		originalID     sql.NullInt64
		reminderSent   sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.ClientID, &s.ClientName, &s.ClientPhone, &s.ScheduledAt,
		&s.DurationMinutes, &actualDuration, &s.Value, &s.Status,
		&s.Periodicity, &s.Notes, &s.ClinicalNotes, &s.CancelReason,
		&s.Billable, &s.Paid, &paidAt, &s.PaymentMethod, &completedAt,
		&originalID, &s.GoogleCalendarEventID, &reminderSent, &s.Active,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if actualDuration.Valid {
		v := int(actualDuration.Int64)
		s.ActualDurationMinutes = &v
	}
	if paidAt.Valid {
		s.PaidAt = &paidAt.Time
	}
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}
	if originalID.Valid {
		s.OriginalSessionID = &originalID.Int64
	}
	if reminderSent.Valid {
		s.ReminderSentAt = &reminderSent.Time
	}
	return &s, nil
}

func collectSessions(rows *sql.Rows) ([]model.Session, error) {
	defer rows.Close()
	var out []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSession(ctx context.Context, ex execer, s *model.Session) error {
	res, err := ex.ExecContext(ctx, `
		INSERT INTO sessions (
			client_id, scheduled_at, duration_minutes, value, status,
			periodicity, notes, billable, original_session_id,
			google_calendar_event_id, active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		s.ClientID, s.ScheduledAt, s.DurationMinutes, s.Value, s.Status,
		s.Periodicity, s.Notes, s.Billable, s.OriginalSessionID,
		s.GoogleCalendarEventID,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("session insert id: %w", err)
	}
	s.ID = id
	s.Active = true
	return nil
}

// CreateSession stores a new session and fills in its id.
func (d *DB) CreateSession(ctx context.Context, s *model.Session) error {
	return insertSession(ctx, d.conn, s)
}

// CreateSessions stores a batch of sessions in one transaction. All ids
// are filled in on success; on error nothing is written.
func (d *DB) CreateSessions(ctx context.Context, sessions []model.Session) ([]model.Session, error) {
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		for i := range sessions {
			if err := insertSession(ctx, tx, &sessions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetSession returns the active session with the given id.
func (d *DB) GetSession(ctx context.Context, id int64) (*model.Session, error) {
	row := d.conn.QueryRowContext(ctx,
		`SELECT`+sessionColumns+sessionFrom+`WHERE s.id = ? AND s.active = 1`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return s, nil
}

// UpdateSession rewrites the editable fields of a session.
func (d *DB) UpdateSession(ctx context.Context, s *model.Session) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE sessions SET
			scheduled_at = ?, duration_minutes = ?, value = ?,
			periodicity = ?, notes = ?, clinical_notes = ?, billable = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`,
		s.ScheduledAt, s.DurationMinutes, s.Value, s.Periodicity,
		s.Notes, s.ClinicalNotes, s.Billable, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update session %d: %w", s.ID, err)
	}
	return requireRow(res, s.ID)
}

// SetStatus moves a session to a new status. For cancellations reason is
// recorded as well.
func (d *DB) SetStatus(ctx context.Context, id int64, status model.SessionStatus, reason string) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE sessions SET status = ?, cancel_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`,
		status, reason, id,
	)
	if err != nil {
		return fmt.Errorf("set session %d status: %w", id, err)
	}
	return requireRow(res, id)
}

// MarkCompleted records completion, the actual duration when it differed
// from the planned one, and any clinical notes taken.
func (d *DB) MarkCompleted(ctx context.Context, id int64, completedAt time.Time, actualDurationMinutes *int, clinicalNotes string) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE sessions SET
			status = ?, completed_at = ?, actual_duration_minutes = ?,
			clinical_notes = CASE WHEN ? = '' THEN clinical_notes ELSE ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`,
		model.StatusCompleted, completedAt, actualDurationMinutes,
		clinicalNotes, clinicalNotes, id,
	)
	if err != nil {
		return fmt.Errorf("complete session %d: %w", id, err)
	}
	return requireRow(res, id)
}

// MarkPaid records the payment of a completed session.
func (d *DB) MarkPaid(ctx context.Context, id int64, paidAt time.Time, method string) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE sessions SET paid = 1, paid_at = ?, payment_method = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`,
		paidAt, method, id,
	)
	if err != nil {
		return fmt.Errorf("mark session %d paid: %w", id, err)
	}
	return requireRow(res, id)
}

// DeactivateSession soft-deletes a session.
func (d *DB) DeactivateSession(ctx context.Context, id int64) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE sessions SET active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`, id)
	if err != nil {
		return fmt.Errorf("deactivate session %d: %w", id, err)
	}
	return requireRow(res, id)
}

// Reschedule marks the original session rescheduled and inserts its
// replacement in the same transaction, so no partial state is visible.
func (d *DB) Reschedule(ctx context.Context, originalID int64, reason string, replacement *model.Session) error {
	return d.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE sessions SET status = ?, cancel_reason = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND active = 1`,
			model.StatusRescheduled, reason, originalID,
		)
		if err != nil {
			return fmt.Errorf("mark session %d rescheduled: %w", originalID, err)
		}
		if err := requireRow(res, originalID); err != nil {
			return err
		}
		return insertSession(ctx, tx, replacement)
	})
}

// SetGoogleEventID links a session to its calendar event.
func (d *DB) SetGoogleEventID(ctx context.Context, id int64, eventID string) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE sessions SET google_calendar_event_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`, eventID, id)
	if err != nil {
		return fmt.Errorf("set session %d calendar event: %w", id, err)
	}
	return requireRow(res, id)
}

// MarkReminderSent records that a reminder went out for the session.
func (d *DB) MarkReminderSent(ctx context.Context, id int64, at time.Time) error {
	res, err := d.conn.ExecContext(ctx, `
		UPDATE sessions SET reminder_sent_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND active = 1`, at, id)
	if err != nil {
		return fmt.Errorf("mark session %d reminded: %w", id, err)
	}
	return requireRow(res, id)
}

// SessionsInRange returns active sessions of any status starting in
// [from, to), ordered by start time.
func (d *DB) SessionsInRange(ctx context.Context, from, to time.Time) ([]model.Session, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT`+sessionColumns+sessionFrom+`
		WHERE s.active = 1 AND s.scheduled_at >= ? AND s.scheduled_at < ?
		ORDER BY s.scheduled_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("sessions in range: %w", err)
	}
	return collectSessions(rows)
}

// SessionsByClient returns a client's active sessions in [from, to).
func (d *DB) SessionsByClient(ctx context.Context, clientID int64, from, to time.Time) ([]model.Session, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT`+sessionColumns+sessionFrom+`
		WHERE s.active = 1 AND s.client_id = ? AND s.scheduled_at >= ? AND s.scheduled_at < ?
		ORDER BY s.scheduled_at`, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sessions by client %d: %w", clientID, err)
	}
	return collectSessions(rows)
}

// UnpaidCompletedSessions returns billable completed sessions that have
// not been paid, oldest first.
func (d *DB) UnpaidCompletedSessions(ctx context.Context) ([]model.Session, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT`+sessionColumns+sessionFrom+`
		WHERE s.active = 1 AND s.status = ? AND s.billable = 1 AND s.paid = 0
		ORDER BY s.scheduled_at`, model.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("unpaid sessions: %w", err)
	}
	return collectSessions(rows)
}

// SessionsNeedingReminder returns scheduled sessions starting in [from, to)
// that have not been reminded yet.
func (d *DB) SessionsNeedingReminder(ctx context.Context, from, to time.Time) ([]model.Session, error) {
	rows, err := d.conn.QueryContext(ctx,
		`SELECT`+sessionColumns+sessionFrom+`
		WHERE s.active = 1 AND s.status = ? AND s.reminder_sent_at IS NULL
			AND s.scheduled_at >= ? AND s.scheduled_at < ?
		ORDER BY s.scheduled_at`, model.StatusScheduled, from, to)
	if err != nil {
		return nil, fmt.Errorf("sessions needing reminder: %w", err)
	}
	return collectSessions(rows)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
