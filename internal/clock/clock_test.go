package clock

import (
	"testing"
	"time"
)

func TestTruncateToDate(t *testing.T) {
	in := time.Date(2025, 10, 17, 14, 23, 45, 0, time.UTC)
	want := time.Date(2025, 10, 17, 0, 0, 0, 0, time.UTC)
	if got := TruncateToDate(in); !got.Equal(want) {
		t.Errorf("TruncateToDate() = %v, want %v", got, want)
	}
}

func TestCycleWindowStart(t *testing.T) {
	now := time.Date(2026, 8, 6, 12, 0, 0, 0, time.UTC)
	got := CycleWindowStart(now)
	want := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CycleWindowStart() = %v, want %v", got, want)
	}
}

func TestWithinCycle(t *testing.T) {
	cycleStart := time.Date(2026, 7, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"same day as start", cycleStart, true},
		{"29 days later, still within window", cycleStart.AddDate(0, 0, 29), true},
		{"30 days later, window closed", cycleStart.AddDate(0, 0, 30), false},
		{"far in the future", cycleStart.AddDate(0, 2, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinCycle(cycleStart, tt.now); got != tt.want {
				t.Errorf("WithinCycle(%v, %v) = %v, want %v", cycleStart, tt.now, got, tt.want)
			}
		})
	}
}

func TestPeriod(t *testing.T) {
	distributedAt := time.Date(2026, 7, 8, 14, 30, 0, 0, time.UTC)
	if got := Period(distributedAt); got != "2026-07" {
		t.Errorf("Period() = %q, want %q", got, "2026-07")
	}
}
