package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/condition/engine"
)

var evalFlags struct {
	rules  string
	facts  []string
	trace  bool
	format string
}

var evalCmd = &cobra.Command{
	Use:   "eval ROOT...",
	Short: "Evaluate conditions",
	Long: `Evaluate one or more root conditions in a single pass.

Roots and facts are condition keys ("player/name") or names that are unique
across players. Facts seed a condition's value before evaluation; a fact
given without a value is true. Conditions that are neither seeded nor
derived from children evaluate as an empty AND, which is false.

Examples:
  # Evaluate a victory condition
  verdict eval Germans/capitalsHeld --rules rules/ \
    --fact holdsBerlin=true --fact holdsParis --fact holdsMoscow=false

  # Show every evaluated condition
  verdict eval capitalsHeld --rules rules/ --trace --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: evalConditions,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalFlags.rules, "rules", "r", "", "rule-set file or directory (default: configured source)")
	evalCmd.Flags().StringArrayVarP(&evalFlags.facts, "fact", "f", nil, "seed a condition: key[=true|false] (repeatable)")
	evalCmd.Flags().BoolVar(&evalFlags.trace, "trace", false, "include every evaluated condition")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json, csv")
}

// EvalReport is the result of one evaluation pass.
type EvalReport struct {
	PassID    string             `json:"pass_id"`
	RuleSet   string             `json:"rule_set"`
	Version   string             `json:"version,omitempty"`
	Roots     []EvalRoot         `json:"roots"`
	NodeCount int                `json:"node_count"`
	Evaluated int                `json:"evaluated"`
	Seeded    int                `json:"seeded"`
	Duration  string             `json:"duration"`
	Trace     []engine.NodeTrace `json:"trace,omitempty"`
}

// EvalRoot is the outcome of one root condition.
type EvalRoot struct {
	Key       string `json:"key"`
	Owner     string `json:"owner"`
	Satisfied bool   `json:"satisfied"`
	Chance    string `json:"chance"`
}

// Header implements cli.Table.
func (r *EvalReport) Header() []string {
	return []string{"CONDITION", "OWNER", "SATISFIED", "CHANCE"}
}

// Rows implements cli.Table.
func (r *EvalReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Roots))
	for _, root := range r.Roots {
		rows = append(rows, []string{root.Key, root.Owner, strconv.FormatBool(root.Satisfied), root.Chance})
	}
	return rows
}

func evalConditions(cmd *cobra.Command, args []string) error {
	f, err := formatter(evalFlags.format)
	if err != nil {
		return err
	}
	facts, err := parseFacts(evalFlags.facts)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if evalFlags.trace {
		cfg.Engine.EnableTrace = true
	}

	ctx := commandContext(cmd)
	bundle, err := loadBundle(ctx, cfg, logger, evalFlags.rules)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	evaluator, err := newEvaluator(cfg.Engine, logger)
	if err != nil {
		return err
	}

	roots, err := bundle.Roots(args)
	if err != nil {
		return cli.NewCommandError("eval", err)
	}
	memo := engine.NewMemo()
	if err := memo.Seed(bundle.Registry, facts); err != nil {
		return cli.NewCommandError("eval", fmt.Errorf("invalid fact: %w", err))
	}

	result, err := evaluator.Evaluate(ctx, &engine.Request{
		RuleSet: bundle.Name,
		Version: bundle.Version,
		Roots:   roots,
		Memo:    memo,
	})
	if err != nil {
		return cli.NewCommandError("eval", err)
	}

	report := &EvalReport{
		PassID:    result.PassID,
		RuleSet:   result.RuleSet,
		Version:   result.Version,
		Roots:     make([]EvalRoot, 0, len(result.Roots)),
		NodeCount: result.NodeCount,
		Evaluated: result.Evaluated,
		Seeded:    result.Seeded,
		Duration:  result.Duration.Round(time.Microsecond).String(),
		Trace:     result.Trace,
	}
	for _, root := range result.Roots {
		report.Roots = append(report.Roots, EvalRoot{
			Key:       root.Key,
			Owner:     root.Owner,
			Satisfied: root.Satisfied,
			Chance:    root.Chance.String(),
		})
	}

	return f.FormatTo(cmd.OutOrStdout(), report)
}

// parseFacts turns "key", "key=true" and "key=false" flags into a fact map.
func parseFacts(values []string) (map[string]bool, error) {
	facts := make(map[string]bool, len(values))
	for _, v := range values {
		key, raw, hasValue := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, cli.NewConfigError("fact", fmt.Sprintf("empty condition in %q", v))
		}
		value := true
		if hasValue {
			b, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return nil, cli.NewConfigError("fact", fmt.Sprintf("invalid value in %q: must be true or false", v))
			}
			value = b
		}
		facts[key] = value
	}
	return facts, nil
}
