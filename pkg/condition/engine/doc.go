// Package engine evaluates condition graphs built from pkg/condition nodes.
//
// An evaluation pass has three steps:
//
//  1. CollectClosure walks the roots and returns every reachable node once,
//     children before parents.
//  2. EvaluateAll resolves each node of the closure into a Memo, bottom-up.
//  3. IsSatisfied reads the final value of any resolved node.
//
// The Memo is owned by a single pass. It maps node identity to the node's final
// value with inversion already applied, so a node shared by several parents is
// computed once. Values placed in the memo before EvaluateAll runs (see
// Memo.Seed) are treated as resolved and are never recomputed; this is how a
// caller supplies the truth of leaf conditions that depend on game state.
//
// # Basic Usage
//
//	evaluator, err := engine.NewEvaluator(engine.DefaultEngineConfig(),
//	    engine.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//
//	memo := engine.NewMemo()
//	if err := memo.Seed(registry, facts); err != nil {
//	    return err
//	}
//
//	result, err := evaluator.Evaluate(ctx, &engine.Request{
//	    RuleSet: "world-at-war",
//	    Roots:   roots,
//	    Memo:    memo,
//	})
//
// # Failure Modes
//
// Cycles are reported as *condition.CyclicGraphError by both CollectClosure and
// EvaluateAll. A nil memo, or a child that has not been resolved when
// IsSatisfied is called, is a *condition.PreconditionError. Evaluate bounds the
// closure size and the pass duration according to EngineConfig.
//
// # Observers
//
// Evaluator notifies every registered Observer after each pass. The metrics
// collector and the audit recorder are both observers.
package engine
