package engine

import (
	"github.com/google/uuid"

	"strategos-hq/verdict/pkg/condition"
)

// Finder resolves a caller-supplied key to a node. *condition.Registry implements it.
type Finder interface {
	Find(key string) (*condition.Node, error)
}

// Memo maps node identity to its final, post-inversion truth value for a single
// evaluation pass. A Memo is not safe for concurrent use; every pass owns its own.
type Memo struct {
	passID string
	values map[*condition.Node]bool
}

// NewMemo creates an empty memo with a fresh pass ID.
func NewMemo() *Memo {
	return &Memo{
		passID: uuid.NewString(),
		values: make(map[*condition.Node]bool),
	}
}

// PassID returns the identifier of the evaluation pass this memo belongs to.
func (m *Memo) PassID() string {
	return m.passID
}

// Get returns the resolved value of n.
func (m *Memo) Get(n *condition.Node) (value bool, ok bool) {
	value, ok = m.values[n]
	return value, ok
}

// Has reports whether n has been resolved.
func (m *Memo) Has(n *condition.Node) bool {
	_, ok := m.values[n]
	return ok
}

// Set records the final value of n.
func (m *Memo) Set(n *condition.Node, value bool) {
	m.values[n] = value
}

// Len returns the number of resolved nodes.
func (m *Memo) Len() int {
	return len(m.values)
}

// Each calls fn for every resolved node in unspecified order.
func (m *Memo) Each(fn func(n *condition.Node, value bool)) {
	for n, v := range m.values {
		fn(n, v)
	}
}

// Seed pre-resolves nodes from a map of keys to values. Seeded nodes are treated
// as already evaluated and are never recomputed in this pass. This is how an
// embedding game supplies the outcome of conditions whose truth depends on game
// state rather than on children.
//
// Keys are resolved with Find, so a bare name defined by several players is
// rejected. Nothing is seeded when any key fails to resolve.
func (m *Memo) Seed(f Finder, facts map[string]bool) error {
	resolved := make(map[*condition.Node]bool, len(facts))
	for key, value := range facts {
		n, err := f.Find(key)
		if err != nil {
			return err
		}
		resolved[n] = value
	}
	for n, value := range resolved {
		m.values[n] = value
	}
	return nil
}
