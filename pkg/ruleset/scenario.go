package ruleset

import (
	"context"
	"fmt"
	"sort"

	"strategos-hq/verdict/pkg/condition/engine"
)

// Mismatch is a scenario expectation that did not hold.
type Mismatch struct {
	Condition string `json:"condition"`
	Want      bool   `json:"want"`
	Got       bool   `json:"got"`
}

// ScenarioResult is the outcome of running one scenario.
type ScenarioResult struct {
	Scenario   *Scenario
	Passed     bool
	Mismatches []Mismatch
	Err        error
	PassID     string
}

// RunScenarios evaluates every scenario of the bundle. Each scenario runs in
// its own pass with the scenario's facts seeded into the memo.
func RunScenarios(ctx context.Context, evaluator *engine.Evaluator, b *Bundle) []ScenarioResult {
	scenarios := b.Scenarios()
	results := make([]ScenarioResult, 0, len(scenarios))

	for _, s := range scenarios {
		results = append(results, runScenario(ctx, evaluator, b, s))
	}
	return results
}

func runScenario(ctx context.Context, evaluator *engine.Evaluator, b *Bundle, s *Scenario) ScenarioResult {
	result := ScenarioResult{Scenario: s}

	memo := engine.NewMemo()
	result.PassID = memo.PassID()
	if err := memo.Seed(b.Registry, s.Facts); err != nil {
		result.Err = fmt.Errorf("scenario %q facts: %w", s.Name, err)
		return result
	}

	keys := make([]string, 0, len(s.Expect))
	for key := range s.Expect {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	roots, err := b.Roots(keys)
	if err != nil {
		result.Err = fmt.Errorf("scenario %q expectations: %w", s.Name, err)
		return result
	}

	res, err := evaluator.Evaluate(ctx, &engine.Request{
		RuleSet: b.Name,
		Version: b.Version,
		Roots:   roots,
		Memo:    memo,
	})
	if err != nil {
		result.Err = fmt.Errorf("scenario %q: %w", s.Name, err)
		return result
	}

	for i, key := range keys {
		want := s.Expect[key]
		got := res.Roots[i].Satisfied
		if got != want {
			result.Mismatches = append(result.Mismatches, Mismatch{Condition: key, Want: want, Got: got})
		}
	}
	result.Passed = len(result.Mismatches) == 0
	return result
}

// Summary counts passed and failed scenario results.
func Summary(results []ScenarioResult) (passed, failed int) {
	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
