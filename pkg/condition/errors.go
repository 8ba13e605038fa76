package condition

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is matching.
var (
	// ErrInvalidPolicy indicates a malformed combination policy string.
	ErrInvalidPolicy = errors.New("invalid combination policy")

	// ErrInvalidChance indicates a malformed or out-of-range chance ratio.
	ErrInvalidChance = errors.New("invalid chance")

	// ErrReferenceNotFound indicates a child condition name could not be resolved.
	ErrReferenceNotFound = errors.New("condition reference not found")

	// ErrAmbiguousReference indicates a bare condition name defined by more than one player.
	ErrAmbiguousReference = errors.New("ambiguous condition reference")

	// ErrPrecondition indicates a programmer or integration error in an evaluation call.
	ErrPrecondition = errors.New("precondition violated")

	// ErrCyclicGraph indicates the condition graph contains a cycle.
	ErrCyclicGraph = errors.New("cyclic condition graph")
)

// InvalidPolicyError is returned when a combination policy cannot be parsed.
type InvalidPolicyError struct {
	Condition string
	Value     string
	Cause     error
}

// Error returns the error message.
func (e *InvalidPolicyError) Error() string {
	msg := fmt.Sprintf("condition type must be 'AND', 'OR', 'XOR', 'y' or 'y-z' where y and z are non-negative integers and z is greater than y, got %q", e.Value)
	if e.Condition != "" {
		msg = fmt.Sprintf("condition %s: %s", e.Condition, msg)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Is reports whether target is ErrInvalidPolicy.
func (e *InvalidPolicyError) Is(target error) bool {
	return target == ErrInvalidPolicy
}

// Unwrap returns the underlying cause.
func (e *InvalidPolicyError) Unwrap() error {
	return e.Cause
}

// InvalidChanceError is returned when a chance ratio cannot be parsed or is out of range.
type InvalidChanceError struct {
	Condition string
	Value     string
	Reason    string
}

// Error returns the error message.
func (e *InvalidChanceError) Error() string {
	msg := fmt.Sprintf("invalid chance %q: %s (format \"x:y\" where 1 <= x <= y <= %d, e.g. \"1:10\" for 10%%)", e.Value, e.Reason, MaxChanceSides)
	if e.Condition != "" {
		return fmt.Sprintf("condition %s: %s", e.Condition, msg)
	}
	return msg
}

// Is reports whether target is ErrInvalidChance.
func (e *InvalidChanceError) Is(target error) bool {
	return target == ErrInvalidChance
}

// ReferenceNotFoundError is returned when a child reference cannot be resolved.
type ReferenceNotFoundError struct {
	Condition string
	Reference string
}

// Error returns the error message.
func (e *ReferenceNotFoundError) Error() string {
	if e.Condition != "" {
		return fmt.Sprintf("condition %s: could not find condition %q", e.Condition, e.Reference)
	}
	return fmt.Sprintf("could not find condition %q", e.Reference)
}

// Is reports whether target is ErrReferenceNotFound.
func (e *ReferenceNotFoundError) Is(target error) bool {
	return target == ErrReferenceNotFound
}

// AmbiguousReferenceError is returned when a bare name matches conditions of
// several players and the caller must pick one with a "player/name" key.
type AmbiguousReferenceError struct {
	Reference string
	// Candidates lists the matching keys in player declaration order.
	Candidates []string
}

// Error returns the error message.
func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("condition %q is ambiguous: matches %s", e.Reference, strings.Join(e.Candidates, ", "))
}

// Is reports whether target is ErrAmbiguousReference.
func (e *AmbiguousReferenceError) Is(target error) bool {
	return target == ErrAmbiguousReference
}

// PreconditionError indicates an evaluation call was made with invalid arguments.
// It is a programmer error and is never retried.
type PreconditionError struct {
	Message string
}

// Error returns the error message.
func (e *PreconditionError) Error() string {
	return "precondition violated: " + e.Message
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// CyclicGraphError indicates that following child references leads back to a node
// already on the current path.
type CyclicGraphError struct {
	// Path lists the node keys forming the cycle; the first and last entries are equal.
	Path []string
}

// Error returns the error message.
func (e *CyclicGraphError) Error() string {
	return fmt.Sprintf("cyclic condition graph: %s", strings.Join(e.Path, " -> "))
}

// Is reports whether target is ErrCyclicGraph.
func (e *CyclicGraphError) Is(target error) bool {
	return target == ErrCyclicGraph
}
