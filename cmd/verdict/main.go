// Verdict evaluates trigger and victory conditions of turn-based strategy
// rule sets.
//
// A rule set declares, per player, condition attachments that combine other
// conditions with AND, OR, XOR or counting policies. Verdict loads rule sets
// from files or a Git repository, checks them, runs their embedded scenarios
// and serves evaluations over HTTP with an optional audit trail.
//
// Usage:
//
//	# Check rule-set files
//	verdict lint rules/
//
//	# Run the scenarios embedded in rule sets
//	verdict test rules/
//
//	# Evaluate conditions with seeded facts
//	verdict eval Germans/capitalsHeld --rules rules/ --fact holdsBerlin=true
//
//	# Start the evaluation service
//	verdict serve --config verdict.yaml
//
//	# Query and maintain the audit trail
//	verdict audit query --ruleset world-at-war --limit 20
//	verdict audit export --format csv --output passes.csv
//	verdict audit prune
package main

func main() {
	Execute()
}
