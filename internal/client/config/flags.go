package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags. Only
// the flags listed in the package documentation are considered.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-T", "-M", "-P", "-B", "-w", "-L", "-l"})

	fs := flag.NewFlagSet("vaultctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&cfg.KdfTime, "T", cfg.KdfTime, "argon2id time cost")
	fs.IntVar(&cfg.KdfMemoryKiB, "M", cfg.KdfMemoryKiB, "argon2id memory cost (KiB)")
	fs.IntVar(&cfg.KdfThreads, "P", cfg.KdfThreads, "argon2id parallelism")
	fs.StringVar(&cfg.BreachBaseURL, "B", cfg.BreachBaseURL, "breach API base URL")
	breachTimeout := fs.Int("w", int(cfg.BreachTimeout.Seconds()), "breach timeout (in seconds)")
	fs.IntVar(&cfg.PasswordLength, "L", cfg.PasswordLength, "generated password length")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "w" {
			cfg.BreachTimeout = time.Duration(*breachTimeout) * time.Second
		}
	})
	return nil
}
