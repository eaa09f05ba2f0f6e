package schedule

import (
	"context"
	"fmt"
	"time"

	"praxis/internal/model"
)

// SessionSource provides the stored sessions a candidate booking must be
// checked against.
type SessionSource interface {
	// SessionsInRange returns active sessions whose interval may intersect
	// [from, to), regardless of status.
	SessionsInRange(ctx context.Context, from, to time.Time) ([]model.Session, error)
}

// ConflictDetector answers whether a candidate session would collide with
// existing bookings.
type ConflictDetector struct {
	sessions SessionSource
}

// NewConflictDetector returns a detector backed by the given source.
func NewConflictDetector(sessions SessionSource) *ConflictDetector {
	return &ConflictDetector{sessions: sessions}
}

// FindConflicts returns every stored session that overlaps the candidate
// interval. Cancelled and soft-deleted sessions never conflict. When
// excludeID is non-zero the session with that id is ignored, so an edit
// does not collide with itself.
func (d *ConflictDetector) FindConflicts(ctx context.Context, start time.Time, durationMinutes int, excludeID int64) ([]model.Session, error) {
	if !ValidDuration(durationMinutes) {
		return nil, ErrInvalidDuration
	}
	candidate := NewInterval(start, durationMinutes)

	// A stored session can reach the candidate only if it starts within
	// MaxSessionMinutes before the candidate's start.
	from := candidate.Start.Add(-MaxSessionMinutes * time.Minute)
	existing, err := d.sessions.SessionsInRange(ctx, from, candidate.End)
	if err != nil {
		return nil, fmt.Errorf("load sessions for conflict check: %w", err)
	}

	var conflicts []model.Session
	for _, s := range existing {
		if excludeID != 0 && s.ID == excludeID {
			continue
		}
		if !s.CountsForConflict() {
			continue
		}
		if candidate.Overlaps(NewInterval(s.ScheduledAt, s.DurationMinutes)) {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts, nil
}

// HasConflict reports whether the candidate interval collides with at
// least one stored session.
func (d *ConflictDetector) HasConflict(ctx context.Context, start time.Time, durationMinutes int, excludeID int64) (bool, error) {
	conflicts, err := d.FindConflicts(ctx, start, durationMinutes, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}
