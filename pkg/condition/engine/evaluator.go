package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"strategos-hq/verdict/pkg/condition"
)

// Observer is notified after every evaluation pass, successful or not.
// Implementations must not block.
type Observer interface {
	ObservePass(ctx context.Context, result *Result, err error)
}

// Request describes one evaluation pass.
type Request struct {
	// RuleSet and Version label the pass for logs, metrics and audit records.
	RuleSet string
	Version string

	// Roots are the conditions whose values the caller wants.
	Roots []*condition.Node

	// Memo is an optional pre-seeded memo. A fresh memo is used when nil.
	Memo *Memo
}

// RootResult is the final value of one requested root.
type RootResult struct {
	Key       string
	Name      string
	Owner     string
	Satisfied bool
	Chance    condition.Chance
}

// NodeTrace records how a single node was resolved.
type NodeTrace struct {
	Key      string
	Policy   string
	Invert   bool
	Children int
	Value    bool
	Seeded   bool
}

// Result is the outcome of an evaluation pass.
type Result struct {
	PassID    string
	RuleSet   string
	Version   string
	Roots     []RootResult
	NodeCount int // closure size
	Evaluated int // nodes computed in this pass
	Seeded    int // closure nodes that were already resolved
	StartTime time.Time
	Duration  time.Duration
	Trace     []NodeTrace
}

// Satisfied returns the value of the root with the given key or name.
func (r *Result) Satisfied(key string) (bool, bool) {
	for _, root := range r.Roots {
		if root.Key == key || root.Name == key {
			return root.Satisfied, true
		}
	}
	return false, false
}

// Evaluator runs evaluation passes with logging, tracing and observers.
// It holds no per-pass state and is safe for concurrent use.
type Evaluator struct {
	config    *EngineConfig
	logger    *slog.Logger
	tracer    trace.Tracer
	observers []Observer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the tracer used for pass spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Evaluator) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithObserver adds a pass observer.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// NewEvaluator creates an evaluator. A nil config uses DefaultEngineConfig.
func NewEvaluator(config *EngineConfig, opts ...Option) (*Evaluator, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Evaluator{
		config: config,
		logger: slog.Default(),
		tracer: otel.Tracer("strategos-hq/verdict/engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "condition.engine")

	return e, nil
}

// EvaluateAll resolves nodes into memo. See the package-level EvaluateAll.
func (e *Evaluator) EvaluateAll(ctx context.Context, nodes []*condition.Node, memo *Memo) (*Memo, error) {
	return EvaluateAll(ctx, nodes, memo)
}

// IsSatisfied returns the final value of n. See the package-level IsSatisfied.
func (e *Evaluator) IsSatisfied(n *condition.Node, memo *Memo) (bool, error) {
	return IsSatisfied(n, memo)
}

// Evaluate collects the closure of the requested roots, resolves it into the
// request's memo and reports the value of every root.
func (e *Evaluator) Evaluate(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, &condition.PreconditionError{Message: "request must not be nil"}
	}

	memo := req.Memo
	if memo == nil {
		memo = NewMemo()
	}

	result := &Result{
		PassID:    memo.PassID(),
		RuleSet:   req.RuleSet,
		Version:   req.Version,
		StartTime: time.Now(),
	}

	ctx, span := e.tracer.Start(ctx, "condition.evaluate",
		trace.WithAttributes(
			attribute.String("verdict.pass_id", result.PassID),
			attribute.String("verdict.ruleset", req.RuleSet),
			attribute.Int("verdict.roots", len(req.Roots)),
		),
	)
	defer span.End()

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	err := e.evaluate(ctx, req, memo, result)
	result.Duration = time.Since(result.StartTime)

	span.SetAttributes(
		attribute.Int("verdict.closure_size", result.NodeCount),
		attribute.Int("verdict.evaluated", result.Evaluated),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("evaluation pass failed",
			"pass_id", result.PassID,
			"ruleset", req.RuleSet,
			"error", err,
		)
	} else {
		e.logger.Debug("evaluation pass completed",
			"pass_id", result.PassID,
			"ruleset", req.RuleSet,
			"roots", len(result.Roots),
			"closure_size", result.NodeCount,
			"evaluated", result.Evaluated,
			"duration", result.Duration,
		)
	}

	for _, o := range e.observers {
		o.ObservePass(ctx, result, err)
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Evaluator) evaluate(ctx context.Context, req *Request, memo *Memo, result *Result) error {
	closure, err := CollectClosure(req.Roots)
	if err != nil {
		return err
	}
	result.NodeCount = len(closure)

	if len(closure) > e.config.MaxClosureSize {
		return fmt.Errorf("%w: %d nodes (max: %d)", ErrClosureTooLarge, len(closure), e.config.MaxClosureSize)
	}

	var seeded map[*condition.Node]bool
	for _, n := range closure {
		if memo.Has(n) {
			if seeded == nil {
				seeded = make(map[*condition.Node]bool)
			}
			seeded[n] = true
		}
	}
	result.Seeded = len(seeded)

	if _, err := EvaluateAll(ctx, closure, memo); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{PassID: result.PassID, Timeout: e.config.Timeout}
		}
		return err
	}
	result.Evaluated = len(closure) - len(seeded)

	result.Roots = make([]RootResult, 0, len(req.Roots))
	for _, root := range req.Roots {
		satisfied, err := IsSatisfied(root, memo)
		if err != nil {
			return err
		}
		result.Roots = append(result.Roots, RootResult{
			Key:       root.Key(),
			Name:      root.Name(),
			Owner:     root.Owner(),
			Satisfied: satisfied,
			Chance:    root.Chance(),
		})
	}

	if e.config.EnableTrace {
		result.Trace = make([]NodeTrace, 0, len(closure))
		for _, n := range closure {
			value, _ := memo.Get(n)
			result.Trace = append(result.Trace, NodeTrace{
				Key:      n.Key(),
				Policy:   n.Policy().String(),
				Invert:   n.Invert(),
				Children: len(n.Children()),
				Value:    value,
				Seeded:   seeded[n],
			})
		}
	}

	return nil
}
