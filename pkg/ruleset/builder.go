package ruleset

import (
	"errors"
	"fmt"

	"strategos-hq/verdict/pkg/condition"
)

// Build creates the condition graph for one document.
func (d *Document) Build() (*condition.Registry, error) {
	return Build(d)
}

// Build creates a single registry from docs.
//
// All conditions are declared before any child reference is resolved, so a
// condition may refer to one declared later in the same file or in another
// file. Bare references are resolved by searching players in declaration
// order; "player/name" references select one player's condition.
func Build(docs ...*Document) (*condition.Registry, error) {
	reg := condition.NewRegistry()
	errs := NewErrorList()

	type declared struct {
		node *condition.Node
		spec *ConditionSpec
	}
	var all []declared

	for _, doc := range docs {
		for _, player := range doc.Players {
			reg.AddPlayer(player.Name)
			for _, spec := range player.Conditions {
				node, err := reg.Define(player.Name, spec.Name)
				if err != nil {
					errs.Add(&Error{
						Type:     ErrorTypeStructural,
						Message:  fmt.Sprintf("Duplicate condition %q for player %q", spec.Name, player.Name),
						Location: spec.Location,
						Err:      err,
					})
					continue
				}
				all = append(all, declared{node: node, spec: spec})
			}
		}
	}

	resolver := condition.ResolverFunc(reg.Lookup)
	var known []string

	for _, d := range all {
		if d.spec.Type != "" {
			if err := d.node.SetCombinationPolicy(d.spec.Type); err != nil {
				errs.Add(semanticError(d.spec, err, "Use AND, OR, XOR, a count such as 2, or a range such as 1-3"))
			}
		}
		if d.spec.Invert != "" {
			if err := d.node.SetInvertString(d.spec.Invert); err != nil {
				errs.Add(semanticError(d.spec, err, "Use invert: true or invert: false"))
			}
		}
		if d.spec.Chance != "" {
			if err := d.node.SetChance(d.spec.Chance); err != nil {
				errs.Add(semanticError(d.spec, err, ""))
			}
		}

		for _, ref := range d.spec.Refs {
			err := d.node.AddChildren(resolver, ref)
			if err == nil {
				continue
			}
			var notFound *condition.ReferenceNotFoundError
			suggestion := ""
			if errors.As(err, &notFound) {
				if known == nil {
					known = reg.Names()
				}
				suggestion = SuggestCondition(notFound.Reference, known)
			}
			errs.Add(semanticError(d.spec, err, suggestion))
		}
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return reg, nil
}

func semanticError(spec *ConditionSpec, err error, suggestion string) *Error {
	return &Error{
		Type:       ErrorTypeSemantic,
		Message:    err.Error(),
		Location:   spec.Location,
		Suggestion: suggestion,
		Err:        err,
	}
}
