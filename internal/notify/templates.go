// Package notify delivers session reminders and billing notices to
// clients through a WhatsApp gateway.
package notify

import (
	"fmt"
	"time"

	"praxis/internal/model"
)

// ReminderMessage renders the next-day session reminder.
func ReminderMessage(s *model.Session) string {
	return fmt.Sprintf(
		"Hi %s! This is a reminder of your session on %s at %s. Reply YES to confirm or let us know if you need to reschedule.",
		s.ClientName,
		s.ScheduledAt.Format("Monday, Jan 2"),
		s.ScheduledAt.Format("15:04"),
	)
}

// CancellationMessage renders the notice sent when the practitioner
// cancels a session.
func CancellationMessage(s *model.Session, reason string) string {
	return fmt.Sprintf(
		"Hi %s, your session on %s at %s had to be cancelled (%s). Please get in touch to book a new time.",
		s.ClientName,
		s.ScheduledAt.Format("Monday, Jan 2"),
		s.ScheduledAt.Format("15:04"),
		reason,
	)
}

// RescheduleMessage renders the notice sent when a session moves.
func RescheduleMessage(s *model.Session, oldTime time.Time) string {
	return fmt.Sprintf(
		"Hi %s, your session of %s was moved to %s at %s. Reply YES to confirm the new time.",
		s.ClientName,
		oldTime.Format("Monday, Jan 2"),
		s.ScheduledAt.Format("Monday, Jan 2"),
		s.ScheduledAt.Format("15:04"),
	)
}

// BillingMessage renders the monthly billing notice.
func BillingMessage(clientName string, month time.Month, sessions int, total float64) string {
	return fmt.Sprintf(
		"Hi %s! In %s you had %d session(s), totalling %.2f. Thank you!",
		clientName, month, sessions, total,
	)
}
