package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig indicates invalid evaluator configuration.
	ErrInvalidConfig = errors.New("invalid engine configuration")

	// ErrClosureTooLarge indicates a pass would evaluate more nodes than allowed.
	ErrClosureTooLarge = errors.New("condition closure too large")
)

// TimeoutError indicates an evaluation pass exceeded its timeout.
type TimeoutError struct {
	PassID  string
	Timeout time.Duration
}

// Error returns the error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pass %s: evaluation timeout after %v", e.PassID, e.Timeout)
}

// Unwrap returns context.DeadlineExceeded.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
