// Package gcal mirrors sessions into a Google Calendar, so the
// practitioner sees the practice schedule next to personal commitments.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"praxis/internal/model"
)

// Syncer pushes session changes to one Google calendar.
type Syncer struct {
	svc        *calendar.Service
	calendarID string
	logger     *zerolog.Logger
}

// NewSyncer builds a syncer from OAuth credentials and a stored token
// file.
func NewSyncer(ctx context.Context, credentialsFile, tokenFile, calendarID string, logger *zerolog.Logger) (*Syncer, error) {
	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(credentials, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	raw, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(raw, token); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("build calendar client: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Syncer{svc: svc, calendarID: calendarID, logger: logger}, nil
}

func (s *Syncer) event(session *model.Session) *calendar.Event {
	return &calendar.Event{
		Summary:     fmt.Sprintf("Session: %s", session.ClientName),
		Description: session.Notes,
		Start: &calendar.EventDateTime{
			DateTime: session.ScheduledAt.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: session.EndsAt().Format(time.RFC3339),
		},
	}
}

// PushSession creates or updates the calendar event for a session and
// returns the event id.
func (s *Syncer) PushSession(ctx context.Context, session *model.Session) (string, error) {
	if session.GoogleCalendarEventID != "" {
		event, err := s.svc.Events.Update(s.calendarID, session.GoogleCalendarEventID, s.event(session)).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("update calendar event: %w", err)
		}
		return event.Id, nil
	}

	event, err := s.svc.Events.Insert(s.calendarID, s.event(session)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar event: %w", err)
	}
	s.logger.Debug().
		Int64("session_id", session.ID).
		Str("event_id", event.Id).
		Msg("session pushed to calendar")
	return event.Id, nil
}

// RemoveSession deletes the calendar event linked to a session. A missing
// event is not an error.
func (s *Syncer) RemoveSession(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	if err := s.svc.Events.Delete(s.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
