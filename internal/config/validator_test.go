package config

import (
	"strings"
	"testing"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	t.Run("default tunables are valid", func(t *testing.T) {
		if err := v.Validate(Default()); err != nil {
			t.Errorf("expected defaults to be valid, got %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Tunables)
		wantErr string
	}{
		{"negative sweep interval", func(tn *Tunables) { tn.OutboxSweepInterval = Duration(-1) }, "outbox_sweep_interval"},
		{"zero max retries", func(tn *Tunables) { tn.OutboxMaxRetries = 0 }, "outbox_max_retries"},
		{"zero backoff", func(tn *Tunables) { tn.OutboxBackoff = 0 }, "outbox_backoff"},
		{"zero lock ttl", func(tn *Tunables) { tn.InitLockTTL = 0 }, "init_lock_ttl"},
		{"zero wait timeout", func(tn *Tunables) { tn.InitWaitTimeout = 0 }, "init_wait_timeout"},
		{"zero poll interval", func(tn *Tunables) { tn.InitPollInterval = 0 }, "init_poll_interval"},
		{"poll interval exceeds wait timeout", func(tn *Tunables) {
			tn.InitWaitTimeout = Duration(1)
			tn.InitPollInterval = Duration(2)
		}, "must not exceed"},
		{"zero dedup ttl", func(tn *Tunables) { tn.DedupTTL = 0 }, "dedup_ttl"},
		{"zero reward points", func(tn *Tunables) { tn.RewardPoints = 0 }, "reward_points"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tunables := Default()
			tt.mutate(tunables)
			err := v.Validate(tunables)
			if err == nil {
				t.Fatalf("expected validation error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
