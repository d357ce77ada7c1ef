package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// Loader reads tunables.json, merges it over Default(), and validates the
// result. Loading is fail-fast: a malformed or out-of-range tunables file
// prevents startup rather than running with silently-clamped values.
type Loader struct {
	configPath string
	validator  *Validator
	logger     *slog.Logger
}

// NewLoader creates a Loader for the given tunables file.
func NewLoader(configPath string, logger *slog.Logger) *Loader {
	return &Loader{configPath: configPath, validator: NewValidator(), logger: logger}
}

// Load reads the config file, overlays it onto Default(), and validates it.
// If configPath does not exist, Load returns Default() unmodified.
func (l *Loader) Load() (*Tunables, error) {
	tunables := Default()

	data, err := os.ReadFile(l.configPath)
	if os.IsNotExist(err) {
		l.logger.Info("tunables file not found, using defaults", "config_path", l.configPath)
		return tunables, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tunables file: %w", err)
	}

	if err := json.Unmarshal(data, tunables); err != nil {
		return nil, fmt.Errorf("failed to parse tunables JSON: %w", err)
	}

	if err := l.validator.Validate(tunables); err != nil {
		return nil, fmt.Errorf("tunables validation failed: %w", err)
	}

	l.logger.Info("tunables loaded",
		"config_path", l.configPath,
		"outbox_max_retries", tunables.OutboxMaxRetries,
		"reward_points", tunables.RewardPoints,
	)

	return tunables, nil
}
