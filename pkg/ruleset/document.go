package ruleset

// Document is a parsed rule-set file. It describes conditions by name and is
// turned into a condition graph by Build.
type Document struct {
	Name        string
	Version     string
	Description string
	SourceFile  string

	// Notes is the player-facing game notes file kept beside the rule set, or
	// empty when there is none.
	Notes string

	Players   []*PlayerSpec
	Scenarios []*Scenario

	Location Location
}

// PlayerSpec groups the condition attachments owned by one player.
type PlayerSpec struct {
	Name       string
	Conditions []*ConditionSpec
	Location   Location
}

// ConditionSpec is the declaration of one condition attachment.
type ConditionSpec struct {
	Name string

	// Type is the combination policy string ("AND", "OR", "XOR", "N", "N-M").
	// Empty means AND.
	Type string

	// Invert is "true", "false" or empty.
	Invert string

	// Chance is the "num:den" ratio. Empty means 1:1.
	Chance string

	// Refs are the child references in declaration order. Each entry may itself
	// be a colon-separated list.
	Refs []string

	Location Location
}

// Scenario is an example evaluation embedded in a rule-set file: the facts
// seed the leaf conditions and Expect lists the values the named conditions
// must evaluate to.
type Scenario struct {
	Name        string
	Description string
	Facts       map[string]bool
	Expect      map[string]bool
	Location    Location
}

// ConditionCount returns the number of declared conditions.
func (d *Document) ConditionCount() int {
	total := 0
	for _, p := range d.Players {
		total += len(p.Conditions)
	}
	return total
}
