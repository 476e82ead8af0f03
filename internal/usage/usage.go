// Package usage maintains the gateway's running usage aggregates.
package usage

import (
	"sync"
	"time"

	"sitemind/internal/core"
)

// Tracker accumulates per-dispatch statistics. It is mutated by the
// gateway after every dispatch attempt, including failed ones, and is safe
// for concurrent use.
//
// The averages are intentionally the simple two-term form the dashboard has
// always shown: each new sample carries half the weight, so the figures are
// recency-biased rather than true means.
type Tracker struct {
	mu    sync.Mutex
	stats core.UsageStats
	now   func() time.Time
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{now: time.Now}
}

// NewWithClock creates a Tracker with an injectable clock for tests.
func NewWithClock(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Record folds one dispatch attempt into the aggregates. It never fails and
// must be called exactly once per attempted dispatch, on success and
// failure alike.
func (t *Tracker) Record(responseTime time.Duration, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.TotalQueries++
	t.stats.QueriesThisPeriod++
	t.stats.LastUsed = t.now()

	sample := float64(responseTime.Milliseconds())
	if t.stats.TotalQueries == 1 {
		t.stats.AvgResponseTimeMs = sample
	} else {
		t.stats.AvgResponseTimeMs = (t.stats.AvgResponseTimeMs + sample) / 2
	}

	// Re-derive the prior success count from the stored ratio, then fold
	// in this sample.
	priorSuccesses := t.stats.SuccessRate * float64(t.stats.TotalQueries-1)
	if success {
		priorSuccesses++
	}
	t.stats.SuccessRate = priorSuccesses / float64(t.stats.TotalQueries)
}

// AddCredits accumulates estimated credit consumption.
func (t *Tracker) AddCredits(amount float64) {
	t.mu.Lock()
	t.stats.CreditsUsed += amount
	t.mu.Unlock()
}

// ResetPeriod zeroes the per-period counter. Called by the external
// settings re-initialization, never by the gateway itself.
func (t *Tracker) ResetPeriod() {
	t.mu.Lock()
	t.stats.QueriesThisPeriod = 0
	t.mu.Unlock()
}

// Snapshot returns a copy of the current aggregates.
func (t *Tracker) Snapshot() core.UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
