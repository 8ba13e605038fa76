// Package config loads and validates Verdict configuration.
//
// Configuration comes from a YAML file with environment variable overrides:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("verdict.yaml")
//
// Values are applied in this order, later overriding earlier:
//
//  1. Default values (Default, ApplyDefaults)
//  2. Values from the YAML file
//  3. Environment variables named VERDICT_SECTION_FIELD, for example
//     VERDICT_SERVER_LISTEN_ADDRESS or VERDICT_AUDIT_SQLITE_PATH
//  4. Validation, which reports every invalid field at once
//
// Boolean fields that default to true (rules.git.poll.enabled,
// audit.sqlite.wal_mode, telemetry.metrics.enabled) may be switched off in the
// file or through the environment.
//
// Commands that need a process-wide configuration call Initialize once and
// Get afterwards. Reload re-reads the same file, for example on SIGHUP.
package config
