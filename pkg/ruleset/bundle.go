package ruleset

import (
	"strings"
	"time"

	"strategos-hq/verdict/pkg/condition"
)

// Bundle is a loaded, built and validated set of rule-set documents. A Bundle
// is immutable once created and may be shared between goroutines.
type Bundle struct {
	// Name and Version come from the first document.
	Name    string
	Version string

	// Source describes where the bundle was loaded from.
	Source string

	// Revision identifies the loaded content (a git commit or content digest).
	Revision string

	// Notes joins the non-empty notes of every document in order.
	Notes string

	Documents []*Document
	Registry  *condition.Registry
	LoadedAt  time.Time
}

// NewBundle builds and validates docs into a bundle.
func NewBundle(source string, docs ...*Document) (*Bundle, error) {
	reg, err := Build(docs...)
	if err != nil {
		return nil, err
	}
	if err := Validate(reg); err != nil {
		return nil, err
	}

	b := &Bundle{
		Source:    source,
		Documents: docs,
		Registry:  reg,
		LoadedAt:  time.Now(),
	}
	if len(docs) > 0 {
		b.Name = docs[0].Name
		b.Version = docs[0].Version
	}

	var notes []string
	for _, doc := range docs {
		if doc.Notes != "" {
			notes = append(notes, doc.Notes)
		}
	}
	b.Notes = strings.Join(notes, "\n")
	return b, nil
}

// Scenarios returns the scenarios of every document in order.
func (b *Bundle) Scenarios() []*Scenario {
	var scenarios []*Scenario
	for _, doc := range b.Documents {
		scenarios = append(scenarios, doc.Scenarios...)
	}
	return scenarios
}

// Roots resolves keys ("player/name" or bare names unique across players) to
// nodes. An ambiguous bare name fails with *condition.AmbiguousReferenceError.
func (b *Bundle) Roots(keys []string) ([]*condition.Node, error) {
	roots := make([]*condition.Node, 0, len(keys))
	for _, key := range keys {
		n, err := b.Registry.Find(key)
		if err != nil {
			return nil, err
		}
		roots = append(roots, n)
	}
	return roots, nil
}
