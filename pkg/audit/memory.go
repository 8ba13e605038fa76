package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStorage keeps records in memory. It is used in tests and when the
// audit trail does not need to survive restarts.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []*PassRecord
	closed  bool
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *PassRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError("memory", "store", fmt.Errorf("storage closed"))
	}
	r := *record
	r.Roots = append([]RootOutcome(nil), record.Roots...)
	s.records = append(s.records, &r)
	return nil
}

// Query returns matching records.
func (s *MemoryStorage) Query(ctx context.Context, q *Query) ([]*PassRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := s.filter(q)
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if q.Ascending {
			return matched[i].RecordedAt.Before(matched[j].RecordedAt)
		}
		return matched[i].RecordedAt.After(matched[j].RecordedAt)
	})

	if q.Offset >= len(matched) {
		return []*PassRecord{}, nil
	}
	matched = matched[q.Offset:]
	if limit := queryLimit(q); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, q *Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateQuery(q); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filter(q))), nil
}

// Delete removes matching records.
func (s *MemoryStorage) Delete(ctx context.Context, q *Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateQuery(q); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, r := range s.records {
		if matches(r, q) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	return deleted, nil
}

// Close marks the store closed. Records stay readable.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStorage) filter(q *Query) []*PassRecord {
	var out []*PassRecord
	for _, r := range s.records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r *PassRecord, q *Query) bool {
	if q.StartTime != nil && r.RecordedAt.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.RecordedAt.After(*q.EndTime) {
		return false
	}
	if q.RuleSet != "" && r.RuleSet != q.RuleSet {
		return false
	}
	if q.PassID != "" && r.PassID != q.PassID {
		return false
	}
	switch q.Status {
	case "success":
		return !r.Failed()
	case "error":
		return r.Failed()
	}
	return true
}

func validateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: query must not be nil", ErrInvalidQuery)
	}
	switch q.Status {
	case "", "success", "error":
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidQuery, q.Status)
	}
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("%w: limit and offset cannot be negative", ErrInvalidQuery)
	}
	if q.StartTime != nil && q.EndTime != nil && q.EndTime.Before(*q.StartTime) {
		return fmt.Errorf("%w: end time before start time", ErrInvalidQuery)
	}
	return nil
}

func queryLimit(q *Query) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return DefaultQueryLimit
}
