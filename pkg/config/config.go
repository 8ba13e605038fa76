package config

import "time"

// Config is the root configuration structure for Verdict.
// It contains the rule-set source, the evaluation engine, the audit trail,
// the HTTP service and telemetry settings.
type Config struct {
	// Rules configures where rule-set files are loaded from and how they are reloaded.
	Rules RulesConfig `yaml:"rules" envPrefix:"RULES_"`

	// Engine configures condition evaluation limits.
	Engine EngineConfig `yaml:"engine" envPrefix:"ENGINE_"`

	// Audit configures recording of evaluation passes.
	Audit AuditConfig `yaml:"audit" envPrefix:"AUDIT_"`

	// Server configures the HTTP evaluation service.
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// RulesConfig configures rule-set loading.
type RulesConfig struct {
	// Mode selects the rule-set source.
	// Options: "file", "git"
	// Default: "file"
	Mode string `yaml:"mode" env:"MODE"`

	// Path is a rule-set file or a directory of .yaml/.yml files when Mode is "file".
	// Default: "./rules"
	Path string `yaml:"path" env:"PATH"`

	// Watch reloads rule sets when files change.
	// Default: false
	Watch bool `yaml:"watch" env:"WATCH"`

	// DebounceInterval is the quiet period before a file change triggers a reload.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval" env:"DEBOUNCE_INTERVAL"`

	// Strict rejects unknown condition fields.
	// Default: false
	Strict bool `yaml:"strict" env:"STRICT"`

	// Git configures loading from a Git repository when Mode is "git".
	Git GitRulesConfig `yaml:"git" envPrefix:"GIT_"`
}

// GitRulesConfig configures Git-based rule-set loading.
type GitRulesConfig struct {
	// Repository URL (HTTPS, SSH or a local path).
	// Example: "https://github.com/example/rules.git"
	Repository string `yaml:"repository" env:"REPOSITORY"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch" env:"BRANCH"`

	// Path within the repository that holds the rule-set files.
	// Default: repository root
	Path string `yaml:"path" env:"PATH"`

	// Auth configures authentication.
	Auth GitAuthConfig `yaml:"auth" envPrefix:"AUTH_"`

	// Poll configures change detection.
	Poll GitPollConfig `yaml:"poll" envPrefix:"POLL_"`

	// Clone configures repository cloning.
	Clone GitCloneConfig `yaml:"clone" envPrefix:"CLONE_"`
}

// GitAuthConfig configures Git authentication.
type GitAuthConfig struct {
	// Type: "token", "ssh", "none"
	// Default: "none"
	Type string `yaml:"type" env:"TYPE"`

	// Token for HTTPS authentication.
	// Required when Type is "token".
	Token string `yaml:"token" env:"TOKEN"`

	// SSHKeyPath for SSH authentication.
	// Required when Type is "ssh".
	SSHKeyPath string `yaml:"ssh_key_path" env:"SSH_KEY_PATH"`

	// SSHKeyPassphrase for encrypted SSH keys.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase" env:"SSH_KEY_PASSPHRASE"`
}

// GitPollConfig configures change detection.
type GitPollConfig struct {
	// Enabled determines if polling is active.
	// When false, rule sets are loaded once at startup.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Interval between polls.
	// Default: 30s
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`

	// Timeout for Git operations.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// GitCloneConfig configures repository cloning.
type GitCloneConfig struct {
	// Depth for shallow clones (0 = full clone).
	// Default: 1
	Depth int `yaml:"depth" env:"DEPTH"`

	// LocalPath where the repository is cloned.
	// Default: system temp directory
	LocalPath string `yaml:"local_path" env:"LOCAL_PATH"`

	// CleanOnStart removes the local clone before cloning.
	// Default: false
	CleanOnStart bool `yaml:"clean_on_start" env:"CLEAN_ON_START"`
}

// EngineConfig configures the condition evaluator.
type EngineConfig struct {
	// MaxClosureSize is the largest number of conditions one pass may evaluate.
	// Default: 10000
	MaxClosureSize int `yaml:"max_closure_size" env:"MAX_CLOSURE_SIZE"`

	// Timeout bounds a single evaluation pass.
	// Default: 1s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// EnableTrace records a per-condition trace in every result.
	// Default: false
	EnableTrace bool `yaml:"enable_trace" env:"ENABLE_TRACE"`
}

// AuditConfig configures the evaluation audit trail.
type AuditConfig struct {
	// Enabled turns on recording of evaluation passes.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite" (pure Go), "sqlite3" (cgo), "postgres"
	// Default: "sqlite"
	Backend string `yaml:"backend" env:"BACKEND"`

	// BufferSize is the number of pending records held before new ones are dropped.
	// Default: 1000
	BufferSize int `yaml:"buffer_size" env:"BUFFER_SIZE"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// SQLite configures the "sqlite" and "sqlite3" backends.
	SQLite SQLiteConfig `yaml:"sqlite" envPrefix:"SQLITE_"`

	// Postgres configures the "postgres" backend.
	Postgres PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`

	// Retention configures pruning of old records.
	Retention RetentionConfig `yaml:"retention" envPrefix:"RETENTION_"`
}

// SQLiteConfig configures SQLite storage.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/audit.db"
	Path string `yaml:"path" env:"PATH"`

	// MaxOpenConns limits open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`

	// MaxIdleConns limits idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode" env:"WAL_MODE"`

	// BusyTimeout is how long a writer waits for a lock.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// PostgresConfig configures PostgreSQL storage.
type PostgresConfig struct {
	// DSN is a full connection string. When set, the other fields are ignored.
	DSN string `yaml:"dsn" env:"DSN"`

	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	Database string `yaml:"database" env:"DATABASE"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`

	// SSLMode: "disable", "require", "verify-ca", "verify-full"
	// Default: "require"
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`

	// MaxConns limits the connection pool.
	// Default: 10
	MaxConns int32 `yaml:"max_conns" env:"MAX_CONNS"`
}

// RetentionConfig configures audit record retention.
type RetentionConfig struct {
	// Days keeps records for this many days (0 = forever).
	// Default: 30
	Days int `yaml:"days" env:"DAYS"`

	// MaxRecords keeps at most this many records (0 = unlimited).
	// Default: 0
	MaxRecords int64 `yaml:"max_records" env:"MAX_RECORDS"`

	// PruneSchedule is a cron expression for pruning runs.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule" env:"PRUNE_SCHEDULE"`

	// ArchivePath is a directory that receives a JSON copy of pruned records.
	// Default: "" (no archive)
	ArchivePath string `yaml:"archive_path" env:"ARCHIVE_PATH"`
}

// ServerConfig configures the HTTP evaluation service.
type ServerConfig struct {
	// ListenAddress is the host:port to listen on.
	// Default: "127.0.0.1:8088"
	ListenAddress string `yaml:"listen_address" env:"LISTEN_ADDRESS"`

	// ReadTimeout bounds reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`

	// WriteTimeout bounds writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// IdleTimeout bounds keep-alive idle time.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// MaxBodyBytes limits evaluation request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"MAX_BODY_BYTES"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format" env:"FORMAT"`

	// AddSource includes source file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source" env:"ADD_SOURCE"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes metrics.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" env:"PATH"`

	// Namespace prefixes every metric name.
	// Default: "verdict"
	Namespace string `yaml:"namespace" env:"NAMESPACE"`

	// DurationBuckets are histogram buckets in seconds for pass durations.
	DurationBuckets []float64 `yaml:"duration_buckets" env:"DURATION_BUCKETS" envSeparator:","`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled turns on trace export.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Protocol selects the OTLP transport.
	// Options: "grpc", "http"
	// Default: "grpc"
	Protocol string `yaml:"protocol" env:"PROTOCOL"`

	// Endpoint is the OTLP collector host:port.
	// Example: "localhost:4317" (grpc), "localhost:4318" (http)
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// ServiceName is reported as service.name.
	// Default: "verdict"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`

	// SampleRatio is the fraction of traces sampled (0.0 - 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure" env:"INSECURE"`

	// Timeout bounds exporter requests.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}
