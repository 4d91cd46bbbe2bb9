package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/breach"
	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/cryptox"
	"github.com/dmitrijs2005/bitguard/internal/passgen"
)

// Config holds runtime settings for vaultctl.
type Config struct {
	KdfTime      int
	KdfMemoryKiB int
	KdfThreads   int

	BreachBaseURL string
	BreachTimeout time.Duration

	PasswordLength int
	LogLevel       string
}

// LoadDefaults populates c with the same defaults the server uses.
func (c *Config) LoadDefaults() {
	d := cryptox.DefaultKdfParams()
	c.KdfTime = int(d.Time)
	c.KdfMemoryKiB = int(d.MemoryKiB)
	c.KdfThreads = int(d.Threads)
	c.BreachBaseURL = breach.DefaultBaseURL
	c.BreachTimeout = breach.DefaultTimeout
	c.PasswordLength = passgen.DefaultLength
	c.LogLevel = "warn"
}

func (c *Config) KdfParams() (cryptox.KdfParams, error) {
	return cryptox.NewKdfParams(c.KdfTime, c.KdfMemoryKiB, c.KdfThreads)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. Invalid KDF parameters fail here.
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
	if _, err := cfg.KdfParams(); err != nil {
		return nil, err
	}
	if cfg.PasswordLength < passgen.MinLength {
		return nil, fmt.Errorf("%w: password length must be at least %d", common.ErrorValidation, passgen.MinLength)
	}
	return cfg, nil
}
