package engine

import (
	"context"
	"fmt"

	"strategos-hq/verdict/pkg/condition"
)

// EvaluateAll resolves every node in nodes that is not already in memo, children
// first, and stores each node's final value (including its own inversion).
//
// Traversal uses an explicit stack, so chain depth is bounded by memory rather than
// by the goroutine stack. Nodes already present in memo are never recomputed.
// The context is checked between nodes.
func EvaluateAll(ctx context.Context, nodes []*condition.Node, memo *Memo) (*Memo, error) {
	if memo == nil {
		return nil, &condition.PreconditionError{Message: "memo must not be null"}
	}

	inProgress := make(map[*condition.Node]bool)
	var stack []frame

	for _, n := range nodes {
		if n == nil {
			return memo, &condition.PreconditionError{Message: "condition must not be nil"}
		}
		if memo.Has(n) {
			continue
		}

		inProgress[n] = true
		stack = append(stack[:0], frame{node: n})

		for len(stack) > 0 {
			select {
			case <-ctx.Done():
				return memo, ctx.Err()
			default:
			}

			top := &stack[len(stack)-1]
			children := top.node.Children()

			if top.next < len(children) {
				child := children[top.next]
				top.next++

				if child == nil {
					return memo, &condition.PreconditionError{Message: "condition " + top.node.Key() + " has a nil child"}
				}
				if memo.Has(child) {
					continue
				}
				if inProgress[child] {
					return memo, cycleError(stack, child)
				}
				inProgress[child] = true
				stack = append(stack, frame{node: child})
				continue
			}

			value, err := IsSatisfied(top.node, memo)
			if err != nil {
				return memo, err
			}
			memo.Set(top.node, value)
			delete(inProgress, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	return memo, nil
}

// IsSatisfied returns the final value of n.
//
// If n is already in memo the stored value is returned as is; the memo holds final
// values, so policy and inversion are not applied again. Otherwise the children's
// memoized values are combined with n's policy and the result is inverted if n is
// inverted. IsSatisfied never writes to memo; every child must already be resolved.
func IsSatisfied(n *condition.Node, memo *Memo) (bool, error) {
	if memo == nil {
		return false, &condition.PreconditionError{Message: "memo must not be null"}
	}
	if n == nil {
		return false, &condition.PreconditionError{Message: "condition must not be nil"}
	}

	if value, ok := memo.Get(n); ok {
		return value, nil
	}

	children := n.Children()
	values := make([]bool, len(children))
	for i, child := range children {
		value, ok := memo.Get(child)
		if !ok {
			return false, &condition.PreconditionError{
				Message: fmt.Sprintf("child %s of %s has not been evaluated", child, n.Key()),
			}
		}
		values[i] = value
	}

	return n.Policy().Combine(values) != n.Invert(), nil
}
