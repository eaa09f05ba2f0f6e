package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"praxis/internal/api"
	"praxis/internal/calendar"
	"praxis/internal/config"
	"praxis/internal/database"
	"praxis/internal/events"
	"praxis/internal/finance"
	"praxis/internal/gcal"
	"praxis/internal/metrics"
	"praxis/internal/notify"
	"praxis/internal/schedule"
	"praxis/internal/service"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("PRAXIS_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.EnsureDefaultWorkingHours(ctx); err != nil {
		logger.Fatal().Err(err).Msg("seed working hours error")
	}

	var rdb *redis.Client
	var cache *calendar.ViewCache
	if cfg.Redis.Enabled && cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = calendar.NewViewCache(rdb, cfg.CacheTTL(), &logger)
	}

	bus := events.NewBus()
	sessions := service.NewSessionService(db, db, bus, &logger)
	views := calendar.NewAssembler(db, schedule.NewSlotGenerator(db), cache)
	fin := finance.NewService(db)

	if cache != nil {
		bus.SubscribeAll(func(event events.Event) {
			cache.Invalidate(context.Background(), event.Dates...)
		})
	}

	if cfg.GoogleCalendar.Enabled {
		syncer, err := gcal.NewSyncer(ctx, cfg.GoogleCalendar.CredentialsFile,
			cfg.GoogleCalendar.TokenFile, cfg.GoogleCalendar.CalendarID, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("calendar sync disabled")
		} else {
			bus.Subscribe(events.SessionCreated, pushToCalendar(db, syncer, &logger))
			bus.Subscribe(events.SessionRescheduled, pushToCalendar(db, syncer, &logger))
			bus.Subscribe(events.SessionUpdated, pushToCalendar(db, syncer, &logger))
			bus.Subscribe(events.SessionCancelled, removeFromCalendar(db, syncer, &logger))
		}
	}

	if cfg.Notifications.Enabled {
		gateway := notify.NewGateway(cfg.Notifications.BaseURL, cfg.Notifications.APIKey,
			cfg.Notifications.Instance, cfg.Notifications.RatePerSecond,
			cfg.Notifications.Burst, &logger)
		reminder := notify.NewReminder(db, gateway, cfg.ReminderInterval(),
			cfg.ReminderLookahead(), cfg.Notifications.ReminderConcurrency, &logger)
		go reminder.Start(ctx)
	}

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup.Path,
			cfg.BackupInterval(), cfg.Backup.RetentionDays, &logger)
		go backup.Start(ctx)
	}

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewServer(sessions, views, fin, db, db, &logger).Handler(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("praxis server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func pushToCalendar(db *database.DB, syncer *gcal.Syncer, logger *zerolog.Logger) events.Handler {
	return func(event events.Event) {
		if event.SessionID == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		session, err := db.GetSession(ctx, event.SessionID)
		if err != nil {
			logger.Error().Err(err).Int64("session_id", event.SessionID).Msg("calendar sync lookup failed")
			return
		}
		eventID, err := syncer.PushSession(ctx, session)
		if err != nil {
			logger.Error().Err(err).Int64("session_id", session.ID).Msg("calendar sync push failed")
			return
		}
		if session.GoogleCalendarEventID != eventID {
			if err := db.SetGoogleEventID(ctx, session.ID, eventID); err != nil {
				logger.Error().Err(err).Int64("session_id", session.ID).Msg("calendar sync bookkeeping failed")
			}
		}
	}
}

func removeFromCalendar(db *database.DB, syncer *gcal.Syncer, logger *zerolog.Logger) events.Handler {
	return func(event events.Event) {
		if event.SessionID == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		session, err := db.GetSession(ctx, event.SessionID)
		if err != nil || session.GoogleCalendarEventID == "" {
			return
		}
		if err := syncer.RemoveSession(ctx, session.GoogleCalendarEventID); err != nil {
			logger.Error().Err(err).Int64("session_id", session.ID).Msg("calendar event removal failed")
		}
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
