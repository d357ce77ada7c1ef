// Package config loads and validates the service's operational tunables:
// retry/backoff knobs, timing windows and the reward payout, which are safe
// to change without a redeploy, as opposed to the fixed constants (cycle
// window, mission type set) that live in code.
package config

import "time"

// Tunables is the top-level configuration loaded from tunables.json.
type Tunables struct {
	// OutboxSweepInterval is how often the sweeper scans for retryable entries.
	OutboxSweepInterval Duration `json:"outbox_sweep_interval"`
	// OutboxMaxRetries is the retry budget before an entry is marked FAILED.
	OutboxMaxRetries int `json:"outbox_max_retries"`
	// OutboxBackoff is the fixed delay applied after each failed publish.
	OutboxBackoff Duration `json:"outbox_backoff"`

	// InitLockTTL bounds how long the mission-init lock is held.
	InitLockTTL Duration `json:"init_lock_ttl"`
	// InitWaitTimeout bounds how long a consumer polls for a concurrent
	// initializer to finish before giving up and requesting redelivery.
	InitWaitTimeout Duration `json:"init_wait_timeout"`
	// InitPollInterval is the spacing between polls while waiting.
	InitPollInterval Duration `json:"init_poll_interval"`

	// DedupTTL is how long a processed-event marker is retained.
	DedupTTL Duration `json:"dedup_ttl"`

	// RewardPoints is the payout granted once per completed cycle.
	RewardPoints int `json:"reward_points"`
}

// Duration wraps time.Duration so tunables.json can use human-readable
// strings ("30s", "10m") instead of raw nanosecond integers.
type Duration time.Duration

func (d Duration) Value() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	s = trimQuotes(s)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// Default returns the tunables this service ships with, used when no
// tunables.json is present and as the baseline the Validator checks
// overrides against.
func Default() *Tunables {
	return &Tunables{
		OutboxSweepInterval: Duration(30 * time.Second),
		OutboxMaxRetries:    10,
		OutboxBackoff:       Duration(30 * time.Second),
		InitLockTTL:         Duration(10 * time.Second),
		InitWaitTimeout:     Duration(5 * time.Second),
		InitPollInterval:    Duration(100 * time.Millisecond),
		DedupTTL:            Duration(24 * time.Hour),
		RewardPoints:        777,
	}
}
