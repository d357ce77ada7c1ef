package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createTempTunablesFile(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "tunables.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write temp tunables file: %v", err)
	}
	return path
}

func TestLoader_Load(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		loader := NewLoader(filepath.Join(t.TempDir(), "missing.json"), logger)
		tunables, err := loader.Load()
		if err != nil {
			t.Fatalf("Load() unexpected error = %v", err)
		}
		if tunables.RewardPoints != Default().RewardPoints {
			t.Errorf("expected default reward points, got %d", tunables.RewardPoints)
		}
	})

	t.Run("overrides merge onto defaults", func(t *testing.T) {
		path := createTempTunablesFile(t, `{"outbox_max_retries": 5, "reward_points": 1000}`)
		loader := NewLoader(path, logger)
		tunables, err := loader.Load()
		if err != nil {
			t.Fatalf("Load() unexpected error = %v", err)
		}
		if tunables.OutboxMaxRetries != 5 {
			t.Errorf("expected overridden outbox_max_retries=5, got %d", tunables.OutboxMaxRetries)
		}
		if tunables.RewardPoints != 1000 {
			t.Errorf("expected overridden reward_points=1000, got %d", tunables.RewardPoints)
		}
		if tunables.OutboxSweepInterval.Value() != 30*time.Second {
			t.Errorf("expected default outbox_sweep_interval to survive override, got %v", tunables.OutboxSweepInterval.Value())
		}
	})

	t.Run("malformed JSON fails fast", func(t *testing.T) {
		path := createTempTunablesFile(t, `{not json`)
		loader := NewLoader(path, logger)
		_, err := loader.Load()
		if err == nil {
			t.Fatal("Load() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "failed to parse tunables JSON") {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		path := createTempTunablesFile(t, `{"reward_points": -1}`)
		loader := NewLoader(path, logger)
		_, err := loader.Load()
		if err == nil {
			t.Fatal("Load() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "tunables validation failed") {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}
