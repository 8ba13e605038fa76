// Package ruleset loads condition graphs from YAML rule-set files.
//
// A rule-set file names a rule set, lists players and the condition
// attachments each player owns, and may carry scenarios that pin the
// expected outcome of an evaluation:
//
//	name: world-at-war
//	version: "1.2"
//	players:
//	  - name: Germans
//	    conditions:
//	      - name: holdsBerlin
//	      - name: holdsParis
//	      - name: capitalsHeld
//	        type: "1-2"          # AND, OR, XOR, N or N-M (alias: condition_type)
//	        invert: false
//	        chance: "1:1"
//	        conditions: [holdsBerlin, holdsParis]   # or "holdsBerlin:holdsParis"
//	scenarios:
//	  - name: both held
//	    facts: {holdsBerlin: true, holdsParis: true}
//	    expect: {capitalsHeld: true}
//
// Parsing produces a Document. Build turns one or more documents into a
// condition.Registry in two passes, so references may point forward or into
// another file. NewBundle additionally validates the assembled graph.
//
// Errors are collected into an ErrorList of located errors. Unresolved
// references carry a "did you mean" suggestion.
package ruleset
