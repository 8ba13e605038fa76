// Package health serves liveness, readiness and version endpoints.
//
// Readiness checks are registered by name; the server registers one for
// the rule-set manager and one for the audit store when auditing is on.
// /ready answers 503 until every check passes.
package health
