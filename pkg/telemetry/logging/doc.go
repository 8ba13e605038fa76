// Package logging builds the process logger on top of log/slog.
//
//	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stderr)
//
// Three formats are supported: "json" for production, "text" for key=value
// output and "console" for terminals.
//
// Attributes whose key names a secret (token, password, passphrase, secret,
// dsn) are replaced with ***, and credentials embedded in URLs such as
// git remotes are removed.
//
// The *Context logging methods pick up identifiers stored with WithPassID,
// WithRuleSet and WithRequestID.
package logging
