// Package server exposes condition evaluation over HTTP.
//
// Routes:
//
//	POST /v1/evaluate          evaluate roots against the active rule set
//	GET  /v1/conditions        list conditions (?player= filters by owner)
//	GET  /v1/ruleset           active rule set and reload counters
//	POST /v1/ruleset/reload    reload the rule set now
//	GET  /v1/audit/passes      query recorded passes (when audit is enabled)
//	GET  /health, /ready       liveness and readiness
//	GET  /version              build information
//	GET  /metrics              Prometheus metrics (path is configurable)
//
// An evaluation request names the roots and optionally seeds facts:
//
//	{"roots": ["Germans/capitalsHeld"], "facts": {"Germans/holdsBerlin": true}}
//
// Roots and facts take "player/name" keys or bare names that only one player
// defines. Unknown or ambiguous conditions yield 400, a cyclic or
// oversized graph 422, and an evaluation that exceeds the engine timeout 504.
// Errors use the body {"error": {"type": ..., "message": ...}}.
package server
