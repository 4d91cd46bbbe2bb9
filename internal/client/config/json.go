package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bitguard/internal/flagx"
	"github.com/dmitrijs2005/bitguard/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Keys absent
// from the file keep their current values.
type JsonConfig struct {
	KdfTime        int            `json:"kdf_time"`
	KdfMemoryKiB   int            `json:"kdf_memory_kib"`
	KdfThreads     int            `json:"kdf_threads"`
	BreachBaseURL  string         `json:"breach_base_url"`
	BreachTimeout  timex.Duration `json:"breach_timeout"`
	PasswordLength int            `json:"password_length"`
	LogLevel       string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c / -config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.JsonConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{
		KdfTime:        cfg.KdfTime,
		KdfMemoryKiB:   cfg.KdfMemoryKiB,
		KdfThreads:     cfg.KdfThreads,
		BreachBaseURL:  cfg.BreachBaseURL,
		BreachTimeout:  timex.Duration{Duration: cfg.BreachTimeout},
		PasswordLength: cfg.PasswordLength,
		LogLevel:       cfg.LogLevel,
	}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.KdfTime = c.KdfTime
	cfg.KdfMemoryKiB = c.KdfMemoryKiB
	cfg.KdfThreads = c.KdfThreads
	cfg.BreachBaseURL = c.BreachBaseURL
	cfg.BreachTimeout = c.BreachTimeout.Duration
	cfg.PasswordLength = c.PasswordLength
	cfg.LogLevel = c.LogLevel
	return nil
}
