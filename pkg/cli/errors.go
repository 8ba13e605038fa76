package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the verdict command.
const (
	ExitOK      = 0
	ExitFailure = 1 // Command failed or findings were reported
	ExitUsage   = 2 // Invalid flags or configuration
)

// ExitCoder is implemented by errors that choose their own exit status.
type ExitCoder interface {
	ExitCode() int
}

// ConfigError reports bad configuration or flag values. Field is the dotted
// configuration path or flag name and may be empty.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// ExitCode returns ExitUsage.
func (e *ConfigError) ExitCode() int { return ExitUsage }

// NewConfigError returns a ConfigError for field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// CommandError attributes a failure to a subcommand. Its exit status is that
// of the wrapped error when it carries one, ExitFailure otherwise.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode implements ExitCoder.
func (e *CommandError) ExitCode() int {
	var coder ExitCoder
	if errors.As(e.Err, &coder) {
		return coder.ExitCode()
	}
	return ExitFailure
}

// NewCommandError wraps err as a failure of command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitFailure
}
