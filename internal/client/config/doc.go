// Package config loads runtime configuration for the vaultctl CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-T -M -P    Argon2id time cost, memory (KiB), parallelism
//	-B string   breach API base URL
//	-w int      breach timeout (seconds)
//	-L int      generated password length
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "kdf_time": 3,
//	  "kdf_memory_kib": 65536,
//	  "kdf_threads": 4,
//	  "breach_base_url": "https://api.pwnedpasswords.com",
//	  "breach_timeout": "10s",
//	  "password_length": 24,
//	  "log_level": "warn"
//	}
//
// The KDF parameters must match the ones the sealing side used, otherwise
// opening fails with an authentication error.
package config
