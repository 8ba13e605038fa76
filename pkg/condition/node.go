package condition

import (
	"fmt"
	"strings"
)

// Resolver resolves a condition name to a node at construction time.
type Resolver interface {
	// Resolve returns the node registered under name, if any.
	Resolve(name string) (*Node, bool)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(name string) (*Node, bool)

// Resolve calls f(name).
func (f ResolverFunc) Resolve(name string) (*Node, bool) {
	return f(name)
}

// Node is a named, evaluable condition that may combine other conditions.
//
// Nodes are compared by identity. Children are held by reference, so several
// parents may share a child. Nodes are mutated only while a rule set is being
// built and must be treated as read-only during evaluation.
type Node struct {
	name     string
	owner    string
	children []*Node
	policy   Policy
	invert   bool
	chance   Chance
}

// NewNode creates a node with the default AND policy, no inversion and a 1:1 chance.
func NewNode(name, owner string) *Node {
	return &Node{
		name:   name,
		owner:  owner,
		policy: And,
		chance: AlwaysChance,
	}
}

// Name returns the condition name.
func (n *Node) Name() string {
	return n.name
}

// Owner returns the name of the player the condition is attached to.
func (n *Node) Owner() string {
	return n.owner
}

// Key returns "owner/name", or just the name for unowned nodes.
func (n *Node) Key() string {
	if n.owner == "" {
		return n.name
	}
	return n.owner + "/" + n.name
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return n.Key()
}

// Children returns the ordered child list. Callers must not modify it.
func (n *Node) Children() []*Node {
	return n.children
}

// Policy returns the combination policy.
func (n *Node) Policy() Policy {
	return n.policy
}

// Invert reports whether the combined result is logically negated.
func (n *Node) Invert() bool {
	return n.invert
}

// Chance returns the chance ratio.
func (n *Node) Chance() Chance {
	return n.chance
}

// AddChildren resolves refs and appends them to the child list. Each ref may be a
// single name or a colon-separated list of names. Nothing is appended unless every
// name resolves.
func (n *Node) AddChildren(r Resolver, refs ...string) error {
	if r == nil {
		return &PreconditionError{Message: "resolver must not be nil"}
	}

	var resolved []*Node
	for _, ref := range refs {
		for _, name := range strings.Split(ref, ":") {
			child, ok := r.Resolve(name)
			if !ok || child == nil {
				return &ReferenceNotFoundError{Condition: n.Key(), Reference: name}
			}
			resolved = append(resolved, child)
		}
	}

	n.children = append(n.children, resolved...)
	return nil
}

// AppendChildren appends already-resolved nodes.
func (n *Node) AppendChildren(children ...*Node) {
	n.children = append(n.children, children...)
}

// ClearChildren empties the child list.
func (n *Node) ClearChildren() {
	n.children = nil
}

// SetCombinationPolicy parses and sets the combination policy.
func (n *Node) SetCombinationPolicy(value string) error {
	p, err := ParsePolicy(value)
	if err != nil {
		if pe, ok := err.(*InvalidPolicyError); ok {
			pe.Condition = n.Key()
		}
		return err
	}
	n.policy = p
	return nil
}

// SetPolicy sets an already-parsed combination policy.
func (n *Node) SetPolicy(p Policy) {
	n.policy = p
}

// SetInvert sets the inversion flag.
func (n *Node) SetInvert(invert bool) {
	n.invert = invert
}

// SetInvertString parses "true" or "false" (any case) and sets the inversion flag.
func (n *Node) SetInvertString(value string) error {
	switch {
	case strings.EqualFold(value, "true"):
		n.invert = true
	case strings.EqualFold(value, "false"):
		n.invert = false
	default:
		return fmt.Errorf("condition %s: invert must be true or false, got %q", n.Key(), value)
	}
	return nil
}

// SetChance parses and sets the chance ratio.
func (n *Node) SetChance(ratio string) error {
	c, err := ParseChance(ratio)
	if err != nil {
		if ce, ok := err.(*InvalidChanceError); ok {
			ce.Condition = n.Key()
		}
		return err
	}
	n.chance = c
	return nil
}
