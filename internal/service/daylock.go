package service

import (
	"sort"
	"sync"
	"time"
)

// dayLocks serializes writes that touch the same calendar day, so a
// conflict check and the insert it guards cannot interleave with another
// booking for that day.
type dayLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDayLocks() *dayLocks {
	return &dayLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for t's calendar day and returns the release
// function.
func (l *dayLocks) lock(t time.Time) func() {
	key := t.Format("2006-01-02")
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// lockAll acquires the mutexes for every day touched, in sorted order to
// avoid deadlock between concurrent multi-day operations.
func (l *dayLocks) lockAll(times []time.Time) func() {
	seen := make(map[string]bool, len(times))
	var keys []string
	for _, t := range times {
		key := t.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	l.mu.Lock()
	muxes := make([]*sync.Mutex, 0, len(keys))
	for _, key := range keys {
		m, ok := l.locks[key]
		if !ok {
			m = &sync.Mutex{}
			l.locks[key] = m
		}
		muxes = append(muxes, m)
	}
	l.mu.Unlock()

	for _, m := range muxes {
		m.Lock()
	}
	return func() {
		for i := len(muxes) - 1; i >= 0; i-- {
			muxes[i].Unlock()
		}
	}
}
