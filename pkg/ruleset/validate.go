package ruleset

import (
	"fmt"

	"strategos-hq/verdict/pkg/condition"
	"strategos-hq/verdict/pkg/condition/engine"
)

// Warning is a lint finding that does not prevent evaluation.
type Warning struct {
	Condition string
	Message   string
}

// String returns "condition: message".
func (w Warning) String() string {
	return w.Condition + ": " + w.Message
}

// Validate checks a built registry for problems that only show up in the
// assembled graph. Currently that is cycles, which would make evaluation
// impossible.
func Validate(reg *condition.Registry) error {
	errs := NewErrorList()

	if _, err := engine.CollectClosure(reg.Nodes()); err != nil {
		errs.Add(&Error{
			Type:    ErrorTypeSemantic,
			Message: err.Error(),
			Err:     err,
		})
	}

	return errs.ToError()
}

// Lint reports conditions that are legal but almost certainly mistakes.
func Lint(reg *condition.Registry) []Warning {
	var warnings []Warning

	for _, n := range reg.Nodes() {
		children := n.Children()
		p := n.Policy()

		switch p.Kind {
		case condition.PolicyCountEquals:
			if p.Min > len(children) {
				warnings = append(warnings, Warning{
					Condition: n.Key(),
					Message:   fmt.Sprintf("type %s needs %d true children but only %d are listed, so it can never be satisfied", p, p.Min, len(children)),
				})
			}
		case condition.PolicyCountInRange:
			if p.Min > len(children) {
				warnings = append(warnings, Warning{
					Condition: n.Key(),
					Message:   fmt.Sprintf("type %s needs at least %d true children but only %d are listed, so it can never be satisfied", p, p.Min, len(children)),
				})
			}
		}

		if len(children) == 0 && p.Kind != condition.PolicyAnd {
			warnings = append(warnings, Warning{
				Condition: n.Key(),
				Message:   fmt.Sprintf("type %s has no effect on a condition without children", p),
			})
		}

		seen := make(map[*condition.Node]bool, len(children))
		for _, child := range children {
			if seen[child] {
				warnings = append(warnings, Warning{
					Condition: n.Key(),
					Message:   fmt.Sprintf("child %s is listed more than once", child.Key()),
				})
				break
			}
			seen[child] = true
		}
	}

	return warnings
}
