package config

import "time"

// Default values for configuration fields.
const (
	// Rules defaults
	DefaultRulesMode             = "file"
	DefaultRulesPath             = "./rules"
	DefaultRulesDebounceInterval = 100 * time.Millisecond
	DefaultGitBranch             = "main"
	DefaultGitAuthType           = "none"
	DefaultGitPollEnabled        = true
	DefaultGitPollInterval       = 30 * time.Second
	DefaultGitPollTimeout        = 10 * time.Second
	DefaultGitCloneDepth         = 1

	// Engine defaults
	DefaultEngineMaxClosureSize = 10000
	DefaultEngineTimeout        = time.Second

	// Audit defaults
	DefaultAuditBackend            = "sqlite"
	DefaultAuditBufferSize         = 1000
	DefaultAuditWriteTimeout       = 5 * time.Second
	DefaultAuditSQLitePath         = "data/audit.db"
	DefaultAuditSQLiteMaxOpenConns = 10
	DefaultAuditSQLiteMaxIdleConns = 5
	DefaultAuditSQLiteWALMode      = true
	DefaultAuditSQLiteBusyTimeout  = 5 * time.Second
	DefaultPostgresPort            = 5432
	DefaultPostgresSSLMode         = "require"
	DefaultPostgresMaxConns        = int32(10)
	DefaultRetentionDays           = 30
	DefaultRetentionSchedule       = "0 3 * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8088"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsEnabled      = true
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "verdict"
	DefaultTracingProtocol     = "grpc"
	DefaultTracingServiceName  = "verdict"
	DefaultTracingSamplingRate = 1.0
	DefaultTracingTimeout      = 10 * time.Second
)

// Default returns a configuration with every field at its default value.
//
// Boolean fields that default to true can only be set here: a YAML file decoded
// on top of Default may turn them off, whereas ApplyDefaults cannot tell an
// explicit false from an absent key.
func Default() *Config {
	cfg := &Config{}
	cfg.Rules.Git.Poll.Enabled = DefaultGitPollEnabled
	cfg.Audit.SQLite.WALMode = DefaultAuditSQLiteWALMode
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any non-boolean fields that have zero values.
// It is idempotent.
func ApplyDefaults(cfg *Config) {
	// Rules defaults
	if cfg.Rules.Mode == "" {
		cfg.Rules.Mode = DefaultRulesMode
	}
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = DefaultRulesPath
	}
	if cfg.Rules.DebounceInterval == 0 {
		cfg.Rules.DebounceInterval = DefaultRulesDebounceInterval
	}
	if cfg.Rules.Git.Branch == "" {
		cfg.Rules.Git.Branch = DefaultGitBranch
	}
	if cfg.Rules.Git.Auth.Type == "" {
		cfg.Rules.Git.Auth.Type = DefaultGitAuthType
	}
	if cfg.Rules.Git.Poll.Interval == 0 {
		cfg.Rules.Git.Poll.Interval = DefaultGitPollInterval
	}
	if cfg.Rules.Git.Poll.Timeout == 0 {
		cfg.Rules.Git.Poll.Timeout = DefaultGitPollTimeout
	}
	if cfg.Rules.Git.Clone.Depth == 0 {
		cfg.Rules.Git.Clone.Depth = DefaultGitCloneDepth
	}

	// Engine defaults
	if cfg.Engine.MaxClosureSize == 0 {
		cfg.Engine.MaxClosureSize = DefaultEngineMaxClosureSize
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = DefaultEngineTimeout
	}

	// Audit defaults
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.BufferSize == 0 {
		cfg.Audit.BufferSize = DefaultAuditBufferSize
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.SQLite.Path == "" {
		cfg.Audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if cfg.Audit.SQLite.MaxOpenConns == 0 {
		cfg.Audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpenConns
	}
	if cfg.Audit.SQLite.MaxIdleConns == 0 {
		cfg.Audit.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdleConns
	}
	if cfg.Audit.SQLite.BusyTimeout == 0 {
		cfg.Audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}
	if cfg.Audit.Postgres.Port == 0 {
		cfg.Audit.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Audit.Postgres.SSLMode == "" {
		cfg.Audit.Postgres.SSLMode = DefaultPostgresSSLMode
	}
	if cfg.Audit.Postgres.MaxConns == 0 {
		cfg.Audit.Postgres.MaxConns = DefaultPostgresMaxConns
	}
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultRetentionDays
	}
	if cfg.Audit.Retention.PruneSchedule == "" {
		cfg.Audit.Retention.PruneSchedule = DefaultRetentionSchedule
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Protocol == "" {
		cfg.Telemetry.Tracing.Protocol = DefaultTracingProtocol
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSamplingRate
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}
