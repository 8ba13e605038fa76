package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"strategos-hq/verdict/pkg/ruleset"
)

// MemorySource serves rule-set documents held in memory. Set replaces them
// and notifies watchers, which makes it useful in tests.
type MemorySource struct {
	mu       sync.Mutex
	docs     []*ruleset.Document
	revision int
	watchers []chan Event
}

// NewMemorySource returns a source serving docs.
func NewMemorySource(docs ...*ruleset.Document) *MemorySource {
	return &MemorySource{docs: docs, revision: 1}
}

// Load builds a fresh bundle from the current documents.
func (s *MemorySource) Load(ctx context.Context) (*ruleset.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	docs := append([]*ruleset.Document(nil), s.docs...)
	revision := s.revision
	s.mu.Unlock()

	bundle, err := ruleset.NewBundle(s.String(), docs...)
	if err != nil {
		return nil, err
	}
	bundle.Revision = fmt.Sprintf("mem-%d", revision)
	return bundle, nil
}

// Watch returns a channel receiving one event per Set call.
func (s *MemorySource) Watch(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(ch)
	}()

	return ch, nil
}

// Set replaces the documents and notifies watchers.
func (s *MemorySource) Set(docs ...*ruleset.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = docs
	s.revision++
	ev := Event{Source: s.String(), Revision: fmt.Sprintf("mem-%d", s.revision), Timestamp: time.Now()}
	for _, w := range s.watchers {
		select {
		case w <- ev:
		default:
		}
	}
}

// String returns "memory".
func (s *MemorySource) String() string {
	return "memory"
}
