package main

import (
	"context"
	"log/slog"

	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/condition/engine"
	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
	"strategos-hq/verdict/pkg/ruleset/source"
)

// loadBundle loads the configured rule set once. A non-empty path switches
// the source to that file or directory.
func loadBundle(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) (*ruleset.Bundle, error) {
	rules := cfg.Rules
	if path != "" {
		rules.Mode = "file"
		rules.Path = path
	}
	rules.Watch = false

	src, err := source.New(rules, logger)
	if err != nil {
		return nil, cli.NewConfigError("rules", err.Error())
	}
	return src.Load(ctx)
}

// newEvaluator builds an evaluator from the engine configuration.
func newEvaluator(cfg config.EngineConfig, logger *slog.Logger, opts ...engine.Option) (*engine.Evaluator, error) {
	ec := engine.DefaultEngineConfig().
		WithMaxClosureSize(cfg.MaxClosureSize).
		WithTimeout(cfg.Timeout).
		WithTrace(cfg.EnableTrace)

	opts = append([]engine.Option{engine.WithLogger(logger)}, opts...)
	evaluator, err := engine.NewEvaluator(ec, opts...)
	if err != nil {
		return nil, cli.NewConfigError("engine", err.Error())
	}
	return evaluator, nil
}
