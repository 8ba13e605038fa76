package engine

import (
	"fmt"
	"time"
)

// EngineConfig contains configuration for the condition evaluator.
type EngineConfig struct {
	// MaxClosureSize is the largest closure a single pass may evaluate.
	// This guards against pathological graphs.
	// Default: 10000.
	MaxClosureSize int

	// Timeout bounds a single evaluation pass. Zero disables the timeout.
	// Default: 1s.
	Timeout time.Duration

	// EnableTrace records a per-node trace in every Result.
	// Default: false.
	EnableTrace bool
}

// DefaultEngineConfig returns the default evaluator configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		MaxClosureSize: 10000,
		Timeout:        time.Second,
		EnableTrace:    false,
	}
}

// Validate validates the evaluator configuration.
func (c *EngineConfig) Validate() error {
	if c.MaxClosureSize <= 0 {
		return fmt.Errorf("%w: max closure size must be positive", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// WithMaxClosureSize sets the closure size limit.
func (c *EngineConfig) WithMaxClosureSize(max int) *EngineConfig {
	c.MaxClosureSize = max
	return c
}

// WithTimeout sets the per-pass timeout.
func (c *EngineConfig) WithTimeout(timeout time.Duration) *EngineConfig {
	c.Timeout = timeout
	return c
}

// WithTrace enables or disables per-node tracing.
func (c *EngineConfig) WithTrace(enabled bool) *EngineConfig {
	c.EnableTrace = enabled
	return c
}
