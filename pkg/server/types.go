package server

import (
	"time"

	"strategos-hq/verdict/pkg/audit"
	"strategos-hq/verdict/pkg/condition/engine"
)

// EvaluateRequest is the body of POST /v1/evaluate.
type EvaluateRequest struct {
	// Roots are condition keys ("player/name") or bare names.
	Roots []string `json:"roots"`

	// Facts seed condition values before the pass, by key or name.
	Facts map[string]bool `json:"facts,omitempty"`
}

// RootResponse is the result of one requested root.
type RootResponse struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Owner     string `json:"owner"`
	Satisfied bool   `json:"satisfied"`
	Chance    string `json:"chance"`
}

// EvaluateResponse is the body returned by POST /v1/evaluate.
type EvaluateResponse struct {
	PassID     string             `json:"pass_id"`
	RuleSet    string             `json:"rule_set"`
	Version    string             `json:"version,omitempty"`
	Revision   string             `json:"revision,omitempty"`
	Roots      []RootResponse     `json:"roots"`
	NodeCount  int                `json:"node_count"`
	Evaluated  int                `json:"evaluated"`
	Seeded     int                `json:"seeded"`
	DurationMS float64            `json:"duration_ms"`
	Trace      []engine.NodeTrace `json:"trace,omitempty"`
}

// ConditionResponse describes one condition of the active rule set.
type ConditionResponse struct {
	Key      string   `json:"key"`
	Owner    string   `json:"owner"`
	Name     string   `json:"name"`
	Policy   string   `json:"policy"`
	Invert   bool     `json:"invert"`
	Chance   string   `json:"chance"`
	Children []string `json:"children"`
}

// ConditionsResponse is the body returned by GET /v1/conditions.
type ConditionsResponse struct {
	RuleSet    string              `json:"rule_set"`
	Version    string              `json:"version,omitempty"`
	Revision   string              `json:"revision,omitempty"`
	Conditions []ConditionResponse `json:"conditions"`
}

// RuleSetResponse is the body returned by GET /v1/ruleset and the reload endpoint.
type RuleSetResponse struct {
	Source     string    `json:"source"`
	Name       string    `json:"name,omitempty"`
	Version    string    `json:"version,omitempty"`
	Revision   string    `json:"revision,omitempty"`
	Notes      string    `json:"notes"`
	Conditions int       `json:"conditions"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	Reloads    int64     `json:"reloads"`
	Failures   int64     `json:"failures"`
}

// AuditResponse is the body returned by GET /v1/audit/passes.
type AuditResponse struct {
	Total   int64               `json:"total"`
	Records []*audit.PassRecord `json:"records"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request"
	ErrorTypeUnknownCondition   = "unknown_condition"
	ErrorTypeAmbiguousCondition = "ambiguous_condition"
	ErrorTypeInvalidGraph       = "invalid_graph"
	ErrorTypeTimeout            = "timeout"
	ErrorTypeNotReady           = "not_ready"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeServer             = "server_error"
)
