// Package condition provides the data model for composite game conditions.
//
// A condition (a rule, trigger or political action) is a Node with an ordered list
// of child conditions, a combination Policy, an inversion flag and a Chance ratio.
// Children are shared by reference, so the conditions of a rule set form a
// directed acyclic graph in which the same node may be reachable from several
// parents.
//
// # Combination Policies
//
//   - AND: every child true (an empty list is false)
//   - OR: at least one child true
//   - XOR: exactly one child true
//   - "N": exactly N children true
//   - "N-M": between N and M children true, inclusive
//
// Policies are parsed once by ParsePolicy and evaluated with Policy.Combine.
//
// # Building Conditions
//
//	reg := condition.NewRegistry()
//	capitals, _ := reg.Define("Germans", "capitalsHeld")
//	berlin, _ := reg.Define("Germans", "berlinHeld")
//	rome, _ := reg.Define("Italians", "romeHeld")
//
//	if err := capitals.SetCombinationPolicy("OR"); err != nil {
//	    return err
//	}
//	if err := capitals.AddChildren(reg, "berlinHeld:romeHeld"); err != nil {
//	    return err
//	}
//
// Name lookup is injected through the Resolver interface; a Registry searches
// each player's attachments in the order the players were added.
//
// # Chance
//
// The chance ratio is data only. Callers roll a Denominator-sided die and ask
// Chance.Succeeds whether the zero-based roll passes.
//
// Evaluation lives in the engine subpackage.
package condition
