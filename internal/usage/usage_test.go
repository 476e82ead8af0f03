package usage

import (
	"math"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return now }
}

func TestRecordCounts(t *testing.T) {
	tr := NewWithClock(fixedClock())

	tr.Record(100*time.Millisecond, true)
	tr.Record(200*time.Millisecond, false)
	tr.Record(300*time.Millisecond, true)

	stats := tr.Snapshot()
	if stats.TotalQueries != 3 {
		t.Errorf("TotalQueries = %d, want 3", stats.TotalQueries)
	}
	if stats.QueriesThisPeriod != 3 {
		t.Errorf("QueriesThisPeriod = %d, want 3", stats.QueriesThisPeriod)
	}
	if stats.LastUsed.IsZero() {
		t.Error("LastUsed not set")
	}
}

func TestTwoTermAverage(t *testing.T) {
	tr := NewWithClock(fixedClock())

	tr.Record(100*time.Millisecond, true)
	if got := tr.Snapshot().AvgResponseTimeMs; got != 100 {
		t.Fatalf("avg after first sample = %v, want 100", got)
	}

	// Two-term form: (100 + 300) / 2 = 200, not the true mean
	tr.Record(300*time.Millisecond, true)
	if got := tr.Snapshot().AvgResponseTimeMs; got != 200 {
		t.Fatalf("avg = %v, want 200", got)
	}

	// (200 + 100) / 2 = 150
	tr.Record(100*time.Millisecond, true)
	if got := tr.Snapshot().AvgResponseTimeMs; got != 150 {
		t.Fatalf("avg = %v, want 150", got)
	}
}

func TestSuccessRate(t *testing.T) {
	tr := NewWithClock(fixedClock())

	tr.Record(time.Millisecond, true)
	if got := tr.Snapshot().SuccessRate; got != 1.0 {
		t.Fatalf("rate = %v, want 1.0", got)
	}

	tr.Record(time.Millisecond, false)
	if got := tr.Snapshot().SuccessRate; got != 0.5 {
		t.Fatalf("rate = %v, want 0.5", got)
	}

	tr.Record(time.Millisecond, true)
	if got := tr.Snapshot().SuccessRate; math.Abs(got-2.0/3.0) > 1e-9 {
		t.Fatalf("rate = %v, want 2/3", got)
	}

	tr.Record(time.Millisecond, true)
	if got := tr.Snapshot().SuccessRate; math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("rate = %v, want 0.75", got)
	}
}

func TestAllFailures(t *testing.T) {
	tr := NewWithClock(fixedClock())

	for i := 0; i < 5; i++ {
		tr.Record(time.Millisecond, false)
	}
	if got := tr.Snapshot().SuccessRate; got != 0 {
		t.Errorf("rate = %v, want 0", got)
	}
}

func TestCreditsAndPeriodReset(t *testing.T) {
	tr := NewWithClock(fixedClock())

	tr.Record(time.Millisecond, true)
	tr.AddCredits(0.0025)
	tr.AddCredits(0.0005)

	stats := tr.Snapshot()
	if math.Abs(stats.CreditsUsed-0.003) > 1e-9 {
		t.Errorf("CreditsUsed = %v, want 0.003", stats.CreditsUsed)
	}

	tr.ResetPeriod()
	stats = tr.Snapshot()
	if stats.QueriesThisPeriod != 0 {
		t.Errorf("QueriesThisPeriod = %d, want 0 after reset", stats.QueriesThisPeriod)
	}
	if stats.TotalQueries != 1 {
		t.Errorf("TotalQueries = %d, want 1 (reset must not touch totals)", stats.TotalQueries)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tr := NewWithClock(fixedClock())
	tr.Record(time.Millisecond, true)

	snap := tr.Snapshot()
	snap.TotalQueries = 999

	if tr.Snapshot().TotalQueries != 1 {
		t.Error("mutating a snapshot affected the tracker")
	}
}
