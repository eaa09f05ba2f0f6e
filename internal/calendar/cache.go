package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"praxis/internal/metrics"
)

// ViewCache keeps assembled calendar views in Redis so repeated reads of
// the same day or week skip the database. Cache failures are logged and
// treated as misses.
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewViewCache returns a cache with the given TTL per view.
func NewViewCache(client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *ViewCache {
	return &ViewCache{client: client, ttl: ttl, logger: logger}
}

func dayKey(date time.Time, filter Filter) string {
	return fmt.Sprintf("calendar:day:%s:%s", date.Format("2006-01-02"), filterHash(filter))
}

func weekKey(weekStart time.Time, filter Filter) string {
	return fmt.Sprintf("calendar:week:%s:%s", weekStart.Format("2006-01-02"), filterHash(filter))
}

func filterHash(filter Filter) string {
	raw, err := json.Marshal(filter)
	if err != nil {
		return "0"
	}
	h := fnv.New64a()
	h.Write(raw)
	return fmt.Sprintf("%x", h.Sum64())
}

// GetDay returns a cached day view, if present.
func (c *ViewCache) GetDay(ctx context.Context, date time.Time, filter Filter) (*DayView, bool) {
	var view DayView
	if !c.get(ctx, dayKey(date, filter), &view) {
		return nil, false
	}
	return &view, true
}

// SetDay stores a day view.
func (c *ViewCache) SetDay(ctx context.Context, date time.Time, filter Filter, view *DayView) {
	c.set(ctx, dayKey(date, filter), view)
}

// GetWeek returns a cached week view, if present.
func (c *ViewCache) GetWeek(ctx context.Context, weekStart time.Time, filter Filter) (*WeekView, bool) {
	var view WeekView
	if !c.get(ctx, weekKey(weekStart, filter), &view) {
		return nil, false
	}
	return &view, true
}

// SetWeek stores a week view.
func (c *ViewCache) SetWeek(ctx context.Context, weekStart time.Time, filter Filter, view *WeekView) {
	c.set(ctx, weekKey(weekStart, filter), view)
}

// Invalidate drops every cached view covering any of the given dates:
// the day's views under every filter, plus the views of the week the day
// belongs to.
func (c *ViewCache) Invalidate(ctx context.Context, dates ...time.Time) {
	patterns := make(map[string]bool)
	for _, d := range dates {
		patterns[fmt.Sprintf("calendar:day:%s:*", d.Format("2006-01-02"))] = true
		patterns[fmt.Sprintf("calendar:week:%s:*", StartOfWeek(d).Format("2006-01-02"))] = true
	}
	for pattern := range patterns {
		iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.Warn().Err(err).Str("key", iter.Val()).Msg("calendar cache delete failed")
			}
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn().Err(err).Str("pattern", pattern).Msg("calendar cache scan failed")
		}
	}
}

func (c *ViewCache) get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.IncCalendarCache("miss")
		return false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("calendar cache read failed")
		metrics.IncCalendarCache("error")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("calendar cache decode failed")
		metrics.IncCalendarCache("error")
		return false
	}
	metrics.IncCalendarCache("hit")
	return true
}

func (c *ViewCache) set(ctx context.Context, key string, view any) {
	raw, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("calendar cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("calendar cache write failed")
	}
}
