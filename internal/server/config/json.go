package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bitguard/internal/flagx"
	"github.com/dmitrijs2005/bitguard/internal/timex"
)

// JsonConfig is the on-disk shape of the server configuration. Durations use
// timex.Duration, so both "10s" and integer nanoseconds are accepted.
// Keys missing from the file keep their current values.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	DatabaseDriver              string         `json:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	ExportTokenValidityDuration timex.Duration `json:"export_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`

	KeyBackend     string `json:"key_backend"`
	KeyFilePath    string `json:"key_file_path"`
	S3Bucket       string `json:"s3_bucket"`
	S3ObjectKey    string `json:"s3_object_key"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`

	KdfTime      int `json:"kdf_time"`
	KdfMemoryKiB int `json:"kdf_memory_kib"`
	KdfThreads   int `json:"kdf_threads"`

	BreachBaseURL   string         `json:"breach_base_url"`
	BreachTimeout   timex.Duration `json:"breach_timeout"`
	BreachRateLimit float64        `json:"breach_rate_limit"`
	BreachBurst     int            `json:"breach_burst"`

	PasswordLength int `json:"password_length"`
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:                    c.HTTPAddr,
		DatabaseDriver:              c.DatabaseDriver,
		DatabaseDSN:                 c.DatabaseDSN,
		SecretKey:                   c.SecretKey,
		ExportTokenValidityDuration: timex.Duration{Duration: c.ExportTokenValidityDuration},
		LogLevel:                    c.LogLevel,
		KeyBackend:                  c.KeyBackend,
		KeyFilePath:                 c.KeyFilePath,
		S3Bucket:                    c.S3Bucket,
		S3ObjectKey:                 c.S3ObjectKey,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		S3AccessKey:                 c.S3AccessKey,
		S3SecretKey:                 c.S3SecretKey,
		KdfTime:                     c.KdfTime,
		KdfMemoryKiB:                c.KdfMemoryKiB,
		KdfThreads:                  c.KdfThreads,
		BreachBaseURL:               c.BreachBaseURL,
		BreachTimeout:               timex.Duration{Duration: c.BreachTimeout},
		BreachRateLimit:             c.BreachRateLimit,
		BreachBurst:                 c.BreachBurst,
		PasswordLength:              c.PasswordLength,
	}
}

func (j *JsonConfig) apply(c *Config) {
	c.HTTPAddr = j.HTTPAddr
	c.DatabaseDriver = j.DatabaseDriver
	c.DatabaseDSN = j.DatabaseDSN
	c.SecretKey = j.SecretKey
	c.ExportTokenValidityDuration = j.ExportTokenValidityDuration.Duration
	c.LogLevel = j.LogLevel
	c.KeyBackend = j.KeyBackend
	c.KeyFilePath = j.KeyFilePath
	c.S3Bucket = j.S3Bucket
	c.S3ObjectKey = j.S3ObjectKey
	c.S3Region = j.S3Region
	c.S3BaseEndpoint = j.S3BaseEndpoint
	c.S3AccessKey = j.S3AccessKey
	c.S3SecretKey = j.S3SecretKey
	c.KdfTime = j.KdfTime
	c.KdfMemoryKiB = j.KdfMemoryKiB
	c.KdfThreads = j.KdfThreads
	c.BreachBaseURL = j.BreachBaseURL
	c.BreachTimeout = j.BreachTimeout.Duration
	c.BreachRateLimit = j.BreachRateLimit
	c.BreachBurst = j.BreachBurst
	c.PasswordLength = j.PasswordLength
}

// parseJson overlays the file named by -c / -config onto config. Without
// either flag it does nothing.
func parseJson(config *Config, args []string) error {
	path := flagx.JsonConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	c.apply(config)
	return nil
}
