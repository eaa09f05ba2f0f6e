package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"praxis/internal/model"
)

// EnsureDefaultWorkingHours seeds the availability templates when the
// table is empty. An already configured schedule is left alone.
func (d *DB) EnsureDefaultWorkingHours(ctx context.Context) error {
	var n int
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM working_hours`).Scan(&n); err != nil {
		return fmt.Errorf("count working hours: %w", err)
	}
	if n > 0 {
		return nil
	}
	return d.withTx(ctx, func(tx *sql.Tx) error {
		for _, day := range model.DefaultWorkingHours() {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO working_hours (weekday, working, start_time, end_time,
					lunch_start, lunch_end, session_duration_minutes, gap_minutes)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				int(day.Weekday), day.Working, day.StartTime, day.EndTime,
				day.LunchStart, day.LunchEnd, day.SessionDurationMinutes, day.GapMinutes,
			); err != nil {
				return fmt.Errorf("seed working hours for %s: %w", day.Weekday, err)
			}
		}
		return nil
	})
}

// WorkingHoursFor returns the template for a weekday, or nil when none is
// configured.
func (d *DB) WorkingHoursFor(ctx context.Context, weekday time.Weekday) (*model.WorkingHoursDay, error) {
	var day model.WorkingHoursDay
	var wd int
	err := d.conn.QueryRowContext(ctx, `
		SELECT weekday, working, start_time, end_time, lunch_start, lunch_end,
			session_duration_minutes, gap_minutes
		FROM working_hours WHERE weekday = ?`, int(weekday),
	).Scan(&wd, &day.Working, &day.StartTime, &day.EndTime,
		&day.LunchStart, &day.LunchEnd, &day.SessionDurationMinutes, &day.GapMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("working hours for %s: %w", weekday, err)
	}
	day.Weekday = time.Weekday(wd)
	return &day, nil
}

// UpsertWorkingHours replaces the template for one weekday.
func (d *DB) UpsertWorkingHours(ctx context.Context, day model.WorkingHoursDay) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO working_hours (weekday, working, start_time, end_time,
			lunch_start, lunch_end, session_duration_minutes, gap_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(weekday) DO UPDATE SET
			working = excluded.working,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			lunch_start = excluded.lunch_start,
			lunch_end = excluded.lunch_end,
			session_duration_minutes = excluded.session_duration_minutes,
			gap_minutes = excluded.gap_minutes`,
		int(day.Weekday), day.Working, day.StartTime, day.EndTime,
		day.LunchStart, day.LunchEnd, day.SessionDurationMinutes, day.GapMinutes,
	)
	if err != nil {
		return fmt.Errorf("upsert working hours for %s: %w", day.Weekday, err)
	}
	return nil
}

// ListWorkingHours returns all configured templates ordered by weekday.
func (d *DB) ListWorkingHours(ctx context.Context) ([]model.WorkingHoursDay, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT weekday, working, start_time, end_time, lunch_start, lunch_end,
			session_duration_minutes, gap_minutes
		FROM working_hours ORDER BY weekday`)
	if err != nil {
		return nil, fmt.Errorf("list working hours: %w", err)
	}
	defer rows.Close()
	var out []model.WorkingHoursDay
	for rows.Next() {
		var day model.WorkingHoursDay
		var wd int
		if err := rows.Scan(&wd, &day.Working, &day.StartTime, &day.EndTime,
			&day.LunchStart, &day.LunchEnd, &day.SessionDurationMinutes, &day.GapMinutes); err != nil {
			return nil, fmt.Errorf("scan working hours: %w", err)
		}
		day.Weekday = time.Weekday(wd)
		out = append(out, day)
	}
	return out, rows.Err()
}
