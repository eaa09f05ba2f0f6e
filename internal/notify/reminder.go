package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"praxis/internal/metrics"
	"praxis/internal/model"
)

// SessionStore is the storage surface the reminder loop needs.
type SessionStore interface {
	SessionsNeedingReminder(ctx context.Context, from, to time.Time) ([]model.Session, error)
	MarkReminderSent(ctx context.Context, id int64, at time.Time) error
}

// Notifier delivers one message; *Gateway implements it.
type Notifier interface {
	SendText(ctx context.Context, number, text string) (string, error)
}

// Reminder periodically finds sessions starting within the lookahead
// window that have not been reminded and sends each client a message.
type Reminder struct {
	store       SessionStore
	notifier    Notifier
	interval    time.Duration
	lookahead   time.Duration
	concurrency int
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewReminder builds the reminder loop. concurrency bounds parallel
// sends within one sweep.
func NewReminder(store SessionStore, notifier Notifier, interval, lookahead time.Duration, concurrency int, logger *zerolog.Logger) *Reminder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Reminder{
		store:       store,
		notifier:    notifier,
		interval:    interval,
		lookahead:   lookahead,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// Start runs sweeps until ctx is cancelled. The first sweep runs
// immediately.
func (r *Reminder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep sends reminders for every eligible session once. Failed sends are
// left unmarked so the next sweep retries them.
func (r *Reminder) Sweep(ctx context.Context) {
	now := r.now()
	sessions, err := r.store.SessionsNeedingReminder(ctx, now, now.Add(r.lookahead))
	if err != nil {
		r.logger.Error().Err(err).Msg("reminder sweep query failed")
		return
	}
	if len(sessions) == 0 {
		return
	}

	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup
	for i := range sessions {
		session := sessions[i]
		if session.ClientPhone == "" {
			r.logger.Warn().Int64("session_id", session.ID).Msg("client has no phone, skipping reminder")
			metrics.IncReminderSent("skipped")
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r.remind(ctx, &session)
		}()
	}
	wg.Wait()
}

func (r *Reminder) remind(ctx context.Context, session *model.Session) {
	messageID, err := r.notifier.SendText(ctx, session.ClientPhone, ReminderMessage(session))
	if err != nil {
		r.logger.Error().Err(err).Int64("session_id", session.ID).Msg("reminder send failed")
		metrics.IncReminderSent("failed")
		return
	}
	if err := r.store.MarkReminderSent(ctx, session.ID, r.now()); err != nil {
		r.logger.Error().Err(err).Int64("session_id", session.ID).Msg("reminder bookkeeping failed")
		return
	}
	metrics.IncReminderSent("sent")
	r.logger.Info().
		Int64("session_id", session.ID).
		Str("message_id", messageID).
		Msg("reminder sent")
}
