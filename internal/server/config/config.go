// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/breach"
	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/cryptox"
	"github.com/dmitrijs2005/bitguard/internal/passgen"
	"github.com/dmitrijs2005/bitguard/internal/server/auth"
)

const (
	KeyBackendFile = "file"
	KeyBackendS3   = "s3"
)

// Config holds runtime settings for the BitGuard server.
//
// Fields:
//   - HTTPAddr: bind address of the JSON API.
//   - DatabaseDriver / DatabaseDSN: "sqlite" (file path) or "postgres" (pgx DSN).
//   - SecretKey: HMAC secret for export tokens (HS256), at least 32 bytes.
//     Empty by default, which disables key export.
//   - ExportTokenValidityDuration: lifetime of a freshly issued export token.
//   - KeyBackend: where the master key lives, "file" or "s3".
//   - KeyFilePath: key file for the file backend.
//   - S3*: bucket, object key, region, endpoint and static credentials for the s3 backend.
//   - Kdf*: Argon2id cost parameters for password-sealed entries.
//   - Breach*: range API base URL, request timeout and client-side rate limit.
//   - PasswordLength: default length of generated passwords.
type Config struct {
	HTTPAddr                    string
	DatabaseDriver              string
	DatabaseDSN                 string
	SecretKey                   string
	ExportTokenValidityDuration time.Duration
	LogLevel                    string

	KeyBackend     string
	KeyFilePath    string
	S3Bucket       string
	S3ObjectKey    string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	KdfTime      int
	KdfMemoryKiB int
	KdfThreads   int

	BreachBaseURL   string
	BreachTimeout   time.Duration
	BreachRateLimit float64
	BreachBurst     int

	PasswordLength int
}

// LoadDefaults populates Config with development defaults. SecretKey stays
// empty, so key export is off until an operator configures a secret.
func (c *Config) LoadDefaults() {
	defaults := cryptox.DefaultKdfParams()

	c.HTTPAddr = ":8000"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "bitguard.db"
	c.SecretKey = ""
	c.ExportTokenValidityDuration = 10 * time.Minute
	c.LogLevel = "info"

	c.KeyBackend = KeyBackendFile
	c.KeyFilePath = ".key_db"
	c.S3Bucket = "vault"
	c.S3ObjectKey = "bitguard/master.key"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""

	c.KdfTime = int(defaults.Time)
	c.KdfMemoryKiB = int(defaults.MemoryKiB)
	c.KdfThreads = int(defaults.Threads)

	c.BreachBaseURL = breach.DefaultBaseURL
	c.BreachTimeout = breach.DefaultTimeout
	c.BreachRateLimit = 5
	c.BreachBurst = 5

	c.PasswordLength = passgen.DefaultLength
}

// KdfParams returns the validated Argon2id parameters.
func (c *Config) KdfParams() (cryptox.KdfParams, error) {
	return cryptox.NewKdfParams(c.KdfTime, c.KdfMemoryKiB, c.KdfThreads)
}

// Validate rejects settings the server cannot start with. Bad KDF parameters
// surface as common.ErrInvalidKdfParameters here, never per request.
func (c *Config) Validate() error {
	if _, err := c.KdfParams(); err != nil {
		return err
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: unsupported database driver %q", common.ErrorValidation, c.DatabaseDriver)
	}
	switch c.KeyBackend {
	case KeyBackendFile:
		if c.KeyFilePath == "" {
			return fmt.Errorf("%w: key file path is empty", common.ErrorValidation)
		}
	case KeyBackendS3:
		if c.S3Bucket == "" || c.S3ObjectKey == "" {
			return fmt.Errorf("%w: s3 key backend needs bucket and object key", common.ErrorValidation)
		}
	default:
		return fmt.Errorf("%w: unsupported key backend %q", common.ErrorValidation, c.KeyBackend)
	}
	if c.PasswordLength < passgen.MinLength {
		return fmt.Errorf("%w: password length must be at least %d", common.ErrorValidation, passgen.MinLength)
	}
	if c.SecretKey != "" {
		if err := auth.ValidateSecret([]byte(c.SecretKey)); err != nil {
			return err
		}
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
