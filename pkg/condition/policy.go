package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// PolicyKind identifies how a node combines the truth values of its children.
type PolicyKind int

const (
	// PolicyAnd requires every child to be true.
	PolicyAnd PolicyKind = iota
	// PolicyOr requires at least one child to be true.
	PolicyOr
	// PolicyXor requires exactly one child to be true.
	PolicyXor
	// PolicyCountEquals requires exactly Min children to be true.
	PolicyCountEquals
	// PolicyCountInRange requires between Min and Max (inclusive) children to be true.
	PolicyCountInRange
)

// String returns the kind name.
func (k PolicyKind) String() string {
	switch k {
	case PolicyAnd:
		return "and"
	case PolicyOr:
		return "or"
	case PolicyXor:
		return "xor"
	case PolicyCountEquals:
		return "count"
	case PolicyCountInRange:
		return "range"
	default:
		return fmt.Sprintf("PolicyKind(%d)", int(k))
	}
}

// Policy is a parsed combination policy. The zero value is AND.
type Policy struct {
	Kind PolicyKind
	Min  int // CountEquals and CountInRange
	Max  int // CountInRange
}

var (
	// And is the default combination policy.
	And = Policy{Kind: PolicyAnd}
	// Or is satisfied by any true child.
	Or = Policy{Kind: PolicyOr}
	// Xor is satisfied by exactly one true child.
	Xor = Policy{Kind: PolicyXor}
)

// CountEquals returns a policy satisfied when exactly n children are true.
func CountEquals(n int) Policy {
	return Policy{Kind: PolicyCountEquals, Min: n}
}

// CountInRange returns a policy satisfied when between min and max children are true.
func CountInRange(min, max int) Policy {
	return Policy{Kind: PolicyCountInRange, Min: min, Max: max}
}

// ParsePolicy parses a combination policy string.
//
// Accepted forms are "AND", "OR" and "XOR" in any case, "N" and "N-M" where N and M
// are non-negative integers and N < M.
func ParsePolicy(value string) (Policy, error) {
	switch strings.ToUpper(value) {
	case "AND":
		return And, nil
	case "OR":
		return Or, nil
	case "XOR":
		return Xor, nil
	}

	nums := strings.Split(value, "-")
	switch len(nums) {
	case 1:
		n, err := parseCount(nums[0])
		if err != nil {
			return Policy{}, &InvalidPolicyError{Value: value, Cause: err}
		}
		return CountEquals(n), nil
	case 2:
		start, err := parseCount(nums[0])
		if err != nil {
			return Policy{}, &InvalidPolicyError{Value: value, Cause: err}
		}
		end, err := parseCount(nums[1])
		if err != nil {
			return Policy{}, &InvalidPolicyError{Value: value, Cause: err}
		}
		if start >= end {
			return Policy{}, &InvalidPolicyError{Value: value}
		}
		return CountInRange(start, end), nil
	default:
		return Policy{}, &InvalidPolicyError{Value: value}
	}
}

// parseCount parses a non-negative decimal integer without sign.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty count")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("count %q is not a non-negative integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// String returns the canonical policy string ("AND", "OR", "XOR", "N" or "N-M").
func (p Policy) String() string {
	switch p.Kind {
	case PolicyAnd:
		return "AND"
	case PolicyOr:
		return "OR"
	case PolicyXor:
		return "XOR"
	case PolicyCountEquals:
		return strconv.Itoa(p.Min)
	case PolicyCountInRange:
		return fmt.Sprintf("%d-%d", p.Min, p.Max)
	default:
		return p.Kind.String()
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Combine applies the policy to already-resolved child values.
//
// An empty AND list yields false rather than the vacuous true. Existing rule
// sets rely on it. It is probably a bug: a leaf condition with no children and
// no seeded fact is therefore false.
func (p Policy) Combine(values []bool) bool {
	switch p.Kind {
	case PolicyAnd:
		met := false
		for _, v := range values {
			met = v
			if !met {
				break
			}
		}
		return met

	case PolicyOr:
		for _, v := range values {
			if v {
				return true
			}
		}
		return false

	case PolicyXor:
		oneTrue := false
		for _, v := range values {
			if v {
				if oneTrue {
					return false
				}
				oneTrue = true
			}
		}
		return oneTrue

	case PolicyCountEquals:
		return countTrue(values) == p.Min

	case PolicyCountInRange:
		count := countTrue(values)
		return count >= p.Min && count <= p.Max

	default:
		return false
	}
}

func countTrue(values []bool) int {
	count := 0
	for _, v := range values {
		if v {
			count++
		}
	}
	return count
}
