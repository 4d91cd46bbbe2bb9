package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-D", "-s", "-t", "-l",
	"-k", "-f", "-b", "-o", "-g", "-e", "-u", "-p",
	"-T", "-M", "-P",
	"-B", "-w", "-R", "-L",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8000")
//	-D string   database driver: postgres | sqlite
//	-d string   database DSN
//	-s string   export token HMAC secret
//	-t int      export token validity, minutes
//	-l string   log level
//	-k string   key backend: file | s3
//	-f string   key file path
//	-b -o -g -e -u -p   S3 bucket, object key, region, endpoint, access key, secret key
//	-T -M -P    Argon2id time cost, memory (KiB), parallelism
//	-B string   breach API base URL
//	-w int      breach timeout, seconds
//	-R float    breach requests per second (0 disables limiting)
//	-L int      generated password length
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "export token secret key")
	exportTokenValidity := fs.Int("t", int(config.ExportTokenValidityDuration.Minutes()), "export token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.KeyBackend, "k", config.KeyBackend, "key backend")
	fs.StringVar(&config.KeyFilePath, "f", config.KeyFilePath, "key file path")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3ObjectKey, "o", config.S3ObjectKey, "S3 object key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")

	fs.IntVar(&config.KdfTime, "T", config.KdfTime, "argon2id time cost")
	fs.IntVar(&config.KdfMemoryKiB, "M", config.KdfMemoryKiB, "argon2id memory cost (KiB)")
	fs.IntVar(&config.KdfThreads, "P", config.KdfThreads, "argon2id parallelism")

	fs.StringVar(&config.BreachBaseURL, "B", config.BreachBaseURL, "breach API base URL")
	breachTimeout := fs.Int("w", int(config.BreachTimeout.Seconds()), "breach timeout (in seconds)")
	fs.Float64Var(&config.BreachRateLimit, "R", config.BreachRateLimit, "breach requests per second")
	fs.IntVar(&config.PasswordLength, "L", config.PasswordLength, "generated password length")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only explicit duration flags override, so "1500ms" from JSON survives.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.ExportTokenValidityDuration = time.Duration(*exportTokenValidity) * time.Minute
		case "w":
			config.BreachTimeout = time.Duration(*breachTimeout) * time.Second
		}
	})
	return nil
}
