package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All field errors are collected
// and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRules(&cfg.Rules)...)
	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateRules(cfg *RulesConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "file":
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "rules.path", Message: "path is required in file mode"})
		}
	case "git":
		errs = append(errs, validateGit(&cfg.Git)...)
	default:
		errs = append(errs, FieldError{
			Field:   "rules.mode",
			Message: fmt.Sprintf("invalid mode %q: must be 'file' or 'git'", cfg.Mode),
		})
	}

	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{Field: "rules.debounce_interval", Message: "debounce interval cannot be negative"})
	}

	return errs
}

func validateGit(cfg *GitRulesConfig) []FieldError {
	var errs []FieldError

	if cfg.Repository == "" {
		errs = append(errs, FieldError{Field: "rules.git.repository", Message: "repository is required in git mode"})
	}
	if cfg.Branch == "" {
		errs = append(errs, FieldError{Field: "rules.git.branch", Message: "branch is required in git mode"})
	}

	switch cfg.Auth.Type {
	case "none", "":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{Field: "rules.git.auth.token", Message: "token is required for token auth"})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{Field: "rules.git.auth.ssh_key_path", Message: "ssh key path is required for ssh auth"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "rules.git.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'token', 'ssh' or 'none'", cfg.Auth.Type),
		})
	}

	if cfg.Poll.Enabled && cfg.Poll.Interval <= 0 {
		errs = append(errs, FieldError{Field: "rules.git.poll.interval", Message: "poll interval must be positive"})
	}
	if cfg.Poll.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "rules.git.poll.timeout", Message: "timeout must be positive"})
	}
	if cfg.Clone.Depth < 0 {
		errs = append(errs, FieldError{Field: "rules.git.clone.depth", Message: "depth cannot be negative"})
	}

	return errs
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxClosureSize <= 0 {
		errs = append(errs, FieldError{Field: "engine.max_closure_size", Message: "max closure size must be positive"})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "engine.timeout", Message: "timeout cannot be negative"})
	}

	return errs
}

func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite", "sqlite3":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "audit.sqlite.path", Message: "path is required for sqlite backends"})
		}
		if cfg.SQLite.MaxOpenConns < 0 || cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{Field: "audit.sqlite", Message: "connection limits cannot be negative"})
		}
	case "postgres":
		if cfg.Postgres.DSN == "" && (cfg.Postgres.Host == "" || cfg.Postgres.Database == "") {
			errs = append(errs, FieldError{Field: "audit.postgres", Message: "dsn or host and database are required"})
		}
		if cfg.Postgres.Port <= 0 || cfg.Postgres.Port > 65535 {
			errs = append(errs, FieldError{Field: "audit.postgres.port", Message: "port must be between 1 and 65535"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory', 'sqlite', 'sqlite3' or 'postgres'", cfg.Backend),
		})
	}

	if cfg.BufferSize <= 0 {
		errs = append(errs, FieldError{Field: "audit.buffer_size", Message: "buffer size must be positive"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.days", Message: "days cannot be negative"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "audit.retention.max_records", Message: "max records cannot be negative"})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "audit.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}

	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 || cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server", Message: "timeouts cannot be negative"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes cannot be negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text' or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "metrics path must start with /"})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.Protocol != "grpc" && cfg.Tracing.Protocol != "http" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.protocol",
			Message: fmt.Sprintf("invalid protocol %q: must be 'grpc' or 'http'", cfg.Tracing.Protocol),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
