package condition

import (
	"errors"
	"testing"
)

// TestParsePolicy_Valid tests that every accepted policy form parses and normalizes.
func TestParsePolicy_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  Policy
		str   string
	}{
		{input: "AND", want: And, str: "AND"},
		{input: "and", want: And, str: "AND"},
		{input: "Or", want: Or, str: "OR"},
		{input: "xOr", want: Xor, str: "XOR"},
		{input: "0", want: CountEquals(0), str: "0"},
		{input: "3", want: CountEquals(3), str: "3"},
		{input: "2-3", want: CountInRange(2, 3), str: "2-3"},
		{input: "0-10", want: CountInRange(0, 10), str: "0-10"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if err != nil {
				t.Fatalf("ParsePolicy(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			if got.String() != tt.str {
				t.Errorf("String() = %q, want %q", got.String(), tt.str)
			}
		})
	}
}

// TestParsePolicy_Invalid tests that malformed policies are rejected.
func TestParsePolicy_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"NAND",
		"-1",
		"3-2",
		"2-2",
		"1-2-3",
		"a-b",
		"+2",
		"1.5",
		" AND",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParsePolicy(input)
			if err == nil {
				t.Fatalf("ParsePolicy(%q) expected error", input)
			}
			if !errors.Is(err, ErrInvalidPolicy) {
				t.Errorf("error %v should match ErrInvalidPolicy", err)
			}
			var pe *InvalidPolicyError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T should be *InvalidPolicyError", err)
			}
			if pe.Value != input {
				t.Errorf("Value = %q, want %q", pe.Value, input)
			}
		})
	}
}

// TestPolicyCombine tests the combination semantics of every policy kind.
func TestPolicyCombine(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		values []bool
		want   bool
	}{
		{"AND all true", And, []bool{true, true, true}, true},
		{"AND one false", And, []bool{true, false, true}, false},
		{"AND empty is false", And, nil, false},
		{"AND single true", And, []bool{true}, true},
		{"OR last true", Or, []bool{false, false, true}, true},
		{"OR all false", Or, []bool{false, false}, false},
		{"OR empty", Or, nil, false},
		{"XOR exactly one", Xor, []bool{true, false, false}, true},
		{"XOR two true", Xor, []bool{true, true, false}, false},
		{"XOR none", Xor, []bool{false, false}, false},
		{"XOR three true", Xor, []bool{true, true, true}, false},
		{"count exact", CountEquals(2), []bool{true, false, true}, true},
		{"count too many", CountEquals(1), []bool{true, true}, false},
		{"count zero of empty", CountEquals(0), nil, true},
		{"range inside", CountInRange(2, 3), []bool{true, true, false, true}, true},
		{"range above", CountInRange(2, 3), []bool{true, true, true, true}, false},
		{"range below", CountInRange(2, 3), []bool{true, false}, false},
		{"range lower bound", CountInRange(2, 3), []bool{true, true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Combine(tt.values); got != tt.want {
				t.Errorf("%s.Combine(%v) = %v, want %v", tt.policy, tt.values, got, tt.want)
			}
		})
	}
}

// TestPolicyCombine_DuplicateChildren tests that duplicate references count once per occurrence.
func TestPolicyCombine_DuplicateChildren(t *testing.T) {
	// The same true child listed twice is two trues for XOR and counts.
	values := []bool{true, true}
	if Xor.Combine(values) {
		t.Error("XOR over a duplicated true child should be false")
	}
	if !CountEquals(2).Combine(values) {
		t.Error("count 2 over a duplicated true child should be true")
	}
}

// TestPolicyText tests text marshaling round trips through the canonical form.
func TestPolicyText(t *testing.T) {
	var p Policy
	if err := p.UnmarshalText([]byte("or")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	text, err := p.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(text) != "OR" {
		t.Errorf("MarshalText() = %q, want OR", text)
	}

	if err := p.UnmarshalText([]byte("5-1")); err == nil {
		t.Error("UnmarshalText(5-1) expected error")
	}
}
