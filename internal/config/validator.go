package config

import (
	"errors"
	"fmt"
)

// Validator checks that a Tunables value is internally consistent before
// the service starts using it.
type Validator struct{}

// NewValidator creates a Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns an error describing the first invalid field encountered.
func (v *Validator) Validate(t *Tunables) error {
	if t.OutboxSweepInterval.Value() <= 0 {
		return errors.New("outbox_sweep_interval must be positive")
	}
	if t.OutboxMaxRetries <= 0 {
		return errors.New("outbox_max_retries must be positive")
	}
	if t.OutboxBackoff.Value() <= 0 {
		return errors.New("outbox_backoff must be positive")
	}
	if t.InitLockTTL.Value() <= 0 {
		return errors.New("init_lock_ttl must be positive")
	}
	if t.InitWaitTimeout.Value() <= 0 {
		return errors.New("init_wait_timeout must be positive")
	}
	if t.InitPollInterval.Value() <= 0 {
		return errors.New("init_poll_interval must be positive")
	}
	if t.InitPollInterval.Value() > t.InitWaitTimeout.Value() {
		return fmt.Errorf("init_poll_interval (%s) must not exceed init_wait_timeout (%s)",
			t.InitPollInterval.Value(), t.InitWaitTimeout.Value())
	}
	if t.DedupTTL.Value() <= 0 {
		return errors.New("dedup_ttl must be positive")
	}
	if t.RewardPoints <= 0 {
		return errors.New("reward_points must be positive")
	}
	return nil
}
