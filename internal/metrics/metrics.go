// Package metrics exposes Prometheus counters for the scheduling core.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	sessionCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praxis",
			Name:      "session_created_total",
			Help:      "Count of sessions created by periodicity.",
		},
		[]string{"periodicity"},
	)

	sessionStatusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praxis",
			Name:      "session_status_changed_total",
			Help:      "Count of session status transitions by target status.",
		},
		[]string{"status"},
	)

	conflictsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "praxis",
			Name:      "conflicts_detected_total",
			Help:      "Count of bookings rejected because the slot was taken.",
		},
	)

	seriesOccurrences = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praxis",
			Name:      "series_occurrences_total",
			Help:      "Count of recurring series occurrences by outcome.",
		},
		[]string{"outcome"},
	)

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praxis",
			Name:      "reminders_sent_total",
			Help:      "Count of reminder deliveries by result.",
		},
		[]string{"result"},
	)

	calendarCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "praxis",
			Name:      "calendar_cache_total",
			Help:      "Calendar view cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(sessionCreated, sessionStatusChanged,
			conflictsDetected, seriesOccurrences, remindersSent, calendarCache)
	})
}

func IncSessionCreated(periodicity string) {
	sessionCreated.WithLabelValues(periodicity).Inc()
}

func IncStatusChanged(status string) {
	sessionStatusChanged.WithLabelValues(status).Inc()
}

func IncConflictDetected() {
	conflictsDetected.Inc()
}

func IncSeriesOccurrence(outcome string) {
	seriesOccurrences.WithLabelValues(outcome).Inc()
}

func IncReminderSent(result string) {
	remindersSent.WithLabelValues(result).Inc()
}

func IncCalendarCache(result string) {
	calendarCache.WithLabelValues(result).Inc()
}
