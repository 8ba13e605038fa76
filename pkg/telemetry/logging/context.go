package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	passIDKey    contextKey = "pass_id"
	ruleSetKey   contextKey = "ruleset"
	requestIDKey contextKey = "request_id"
)

// WithPassID returns a context carrying an evaluation pass ID.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, passIDKey, passID)
}

// PassID returns the pass ID carried by ctx, or "".
func PassID(ctx context.Context) string {
	v, _ := ctx.Value(passIDKey).(string)
	return v
}

// WithRuleSet returns a context carrying a rule-set name.
func WithRuleSet(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ruleSetKey, name)
}

// RuleSet returns the rule-set name carried by ctx, or "".
func RuleSet(ctx context.Context) string {
	v, _ := ctx.Value(ruleSetKey).(string)
	return v
}

// WithRequestID returns a context carrying an HTTP request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request ID carried by ctx, or "".
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if v := RequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(requestIDKey), v))
	}
	if v := PassID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(passIDKey), v))
	}
	if v := RuleSet(ctx); v != "" {
		attrs = append(attrs, slog.String(string(ruleSetKey), v))
	}
	return attrs
}
