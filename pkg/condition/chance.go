package condition

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxChanceSides is the largest die a chance ratio may reference.
const MaxChanceSides = 120

// Chance is a "numerator:denominator" probability gate. Rolling against it is done
// by the caller; the zero value is not valid, use AlwaysChance.
type Chance struct {
	Numerator   int
	Denominator int
}

// AlwaysChance is the default 1:1 ratio.
var AlwaysChance = Chance{Numerator: 1, Denominator: 1}

// ParseChance parses a "num:den" ratio with 1 <= num <= den <= 120.
// Whitespace around either number is rejected.
func ParseChance(value string) (Chance, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return Chance{}, &InvalidChanceError{Value: value, Reason: "expected exactly one ':'"}
	}

	num, err := strconv.Atoi(parts[0])
	if err != nil {
		return Chance{}, &InvalidChanceError{Value: value, Reason: fmt.Sprintf("numerator %q is not an integer", parts[0])}
	}
	den, err := strconv.Atoi(parts[1])
	if err != nil {
		return Chance{}, &InvalidChanceError{Value: value, Reason: fmt.Sprintf("denominator %q is not an integer", parts[1])}
	}

	c := Chance{Numerator: num, Denominator: den}
	if err := c.Validate(); err != nil {
		return Chance{}, &InvalidChanceError{Value: value, Reason: err.Error()}
	}
	return c, nil
}

// Validate checks the 1 <= num <= den <= 120 invariant.
func (c Chance) Validate() error {
	if c.Numerator < 1 || c.Denominator < 1 {
		return fmt.Errorf("both values must be at least 1")
	}
	if c.Numerator > MaxChanceSides || c.Denominator > MaxChanceSides {
		return fmt.Errorf("both values must be at most %d", MaxChanceSides)
	}
	if c.Numerator > c.Denominator {
		return fmt.Errorf("numerator must not exceed denominator")
	}
	return nil
}

// String returns the "num:den" form.
func (c Chance) String() string {
	return fmt.Sprintf("%d:%d", c.Numerator, c.Denominator)
}

// MarshalText implements encoding.TextMarshaler.
func (c Chance) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Chance) UnmarshalText(text []byte) error {
	parsed, err := ParseChance(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Always reports whether the gate can never fail.
func (c Chance) Always() bool {
	return c.Numerator == c.Denominator
}

// Probability returns the success probability in [0, 1].
func (c Chance) Probability() float64 {
	if c.Denominator == 0 {
		return 0
	}
	return float64(c.Numerator) / float64(c.Denominator)
}

// Succeeds reports whether a zero-based roll on a Denominator-sided die passes the gate.
// Rolls outside [0, Denominator) never succeed.
func (c Chance) Succeeds(roll int) bool {
	if roll < 0 || roll >= c.Denominator {
		return false
	}
	return roll < c.Numerator
}
