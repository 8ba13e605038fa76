package audit

import (
	"context"
	"time"
)

// PassRecord is the audit record of one evaluation pass.
type PassRecord struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// PassID is the evaluation pass identifier shared with logs and traces.
	PassID string `json:"pass_id"`

	RuleSet string `json:"rule_set"`
	Version string `json:"version,omitempty"`

	// Roots holds the outcome of each requested root in request order.
	Roots []RootOutcome `json:"roots"`

	NodeCount int `json:"node_count"`
	Evaluated int `json:"evaluated"`
	Seeded    int `json:"seeded"`

	StartTime  time.Time     `json:"start_time"`
	Duration   time.Duration `json:"duration"`
	RecordedAt time.Time     `json:"recorded_at"`

	// Error is the pass error message, empty on success.
	Error string `json:"error,omitempty"`
}

// RootOutcome is the result of one root condition.
type RootOutcome struct {
	Key       string `json:"key"`
	Satisfied bool   `json:"satisfied"`
}

// Failed reports whether the pass ended with an error.
func (r *PassRecord) Failed() bool {
	return r.Error != ""
}

// Query filters audit records. Zero fields do not filter.
type Query struct {
	// StartTime and EndTime bound RecordedAt, inclusive.
	StartTime *time.Time
	EndTime   *time.Time

	RuleSet string
	PassID  string

	// Status is "success", "error" or empty for both.
	Status string

	// Limit caps the number of records returned by Query (default 100).
	Limit  int
	Offset int

	// Ascending returns the oldest records first. The default is newest first.
	Ascending bool
}

// DefaultQueryLimit applies when Query.Limit is zero.
const DefaultQueryLimit = 100

// Storage persists audit records.
type Storage interface {
	// Store persists one record.
	Store(ctx context.Context, record *PassRecord) error

	// Query returns records matching q, ordered by RecordedAt.
	Query(ctx context.Context, q *Query) ([]*PassRecord, error)

	// Count returns the number of records matching q, ignoring Limit and Offset.
	Count(ctx context.Context, q *Query) (int64, error)

	// Delete removes records matching q, ignoring Limit and Offset, and
	// returns how many were removed.
	Delete(ctx context.Context, q *Query) (int64, error)

	// Close releases the backend.
	Close() error
}
