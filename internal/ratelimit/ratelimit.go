// Package ratelimit implements the gateway's sliding three-window request
// counter (minute/hour/day) with lazy window rollover.
package ratelimit

import (
	"sync"
	"time"

	"sitemind/internal/core"
)

// Window periods.
const (
	minutePeriod = time.Minute
	hourPeriod   = time.Hour
	dayPeriod    = 24 * time.Hour
)

// Limits holds the per-window request ceilings.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// DefaultLimits returns the default ceilings.
func DefaultLimits() Limits {
	return Limits{PerMinute: 60, PerHour: 1000, PerDay: 10000}
}

type window struct {
	name    string
	count   int
	ceiling int
	period  time.Duration
	resetAt time.Time
}

// Limiter counts requests against three independent windows. All methods
// are safe for concurrent use: check-then-increment runs under one lock so
// interleaved callers cannot admit more requests than a ceiling allows.
type Limiter struct {
	mu      sync.Mutex
	windows [3]window
	now     func() time.Time // injectable clock for tests
}

// New creates a Limiter with the given ceilings.
func New(limits Limits) *Limiter {
	return newWithClock(limits, time.Now)
}

func newWithClock(limits Limits, now func() time.Time) *Limiter {
	start := now()
	return &Limiter{
		now: now,
		windows: [3]window{
			{name: "minute", ceiling: limits.PerMinute, period: minutePeriod, resetAt: start.Add(minutePeriod)},
			{name: "hour", ceiling: limits.PerHour, period: hourPeriod, resetAt: start.Add(hourPeriod)},
			{name: "day", ceiling: limits.PerDay, period: dayPeriod, resetAt: start.Add(dayPeriod)},
		},
	}
}

// CheckAndReserve rolls over any expired windows, then admits the request
// iff every window's counter is strictly below its ceiling. On success all
// three counters are incremented; on denial none are (no partial
// reservation). Rollover is lazy: there is no background timer.
func (l *Limiter) CheckAndReserve() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for i := range l.windows {
		w := &l.windows[i]
		if now.After(w.resetAt) {
			w.count = 0
			w.resetAt = w.resetAt.Add(w.period)
			// If the limiter sat idle for several periods, advance the
			// reset time past now rather than replaying each period.
			if now.After(w.resetAt) {
				w.resetAt = now.Add(w.period)
			}
		}
	}

	for i := range l.windows {
		if l.windows[i].count >= l.windows[i].ceiling {
			return false
		}
	}

	for i := range l.windows {
		l.windows[i].count++
	}
	return true
}

// Snapshot returns the current window states, after applying any pending
// rollover, in minute/hour/day order.
func (l *Limiter) Snapshot() []core.RateWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	out := make([]core.RateWindow, 0, len(l.windows))
	for i := range l.windows {
		w := &l.windows[i]
		if now.After(w.resetAt) {
			w.count = 0
			w.resetAt = w.resetAt.Add(w.period)
			if now.After(w.resetAt) {
				w.resetAt = now.Add(w.period)
			}
		}
		out = append(out, core.RateWindow{
			Period:  w.name,
			Count:   w.count,
			Ceiling: w.ceiling,
			ResetAt: w.resetAt,
		})
	}
	return out
}
