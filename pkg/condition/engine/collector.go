package engine

import (
	"strategos-hq/verdict/pkg/condition"
)

// Visitation state for the closure walk.
const (
	white = iota // unvisited
	gray         // on the current path
	black        // fully explored
)

type frame struct {
	node *condition.Node
	next int // index of the next child to visit
}

// CollectClosure returns every node reachable from roots by following child
// references, roots included. Each node appears once, children before their
// parents, in first-seen order.
//
// A node reachable from several parents is visited once. A reference back to a
// node on the current path fails with *condition.CyclicGraphError.
func CollectClosure(roots []*condition.Node) ([]*condition.Node, error) {
	state := make(map[*condition.Node]int)
	var order []*condition.Node
	var stack []frame

	for _, root := range roots {
		if root == nil {
			return nil, &condition.PreconditionError{Message: "root condition must not be nil"}
		}
		if state[root] != white {
			continue
		}

		state[root] = gray
		stack = append(stack[:0], frame{node: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := top.node.Children()

			if top.next < len(children) {
				child := children[top.next]
				top.next++

				if child == nil {
					return nil, &condition.PreconditionError{Message: "condition " + top.node.Key() + " has a nil child"}
				}

				switch state[child] {
				case white:
					state[child] = gray
					stack = append(stack, frame{node: child})
				case gray:
					return nil, cycleError(stack, child)
				}
				continue
			}

			state[top.node] = black
			order = append(order, top.node)
			stack = stack[:len(stack)-1]
		}
	}

	return order, nil
}

// cycleError builds the cycle path from the first occurrence of back on the stack.
func cycleError(stack []frame, back *condition.Node) *condition.CyclicGraphError {
	start := 0
	for i, f := range stack {
		if f.node == back {
			start = i
			break
		}
	}

	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, f.node.Key())
	}
	path = append(path, back.Key())

	return &condition.CyclicGraphError{Path: path}
}
