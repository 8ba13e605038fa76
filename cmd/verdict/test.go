package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/ruleset"
)

var testFlags struct {
	format string
}

var testCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Run rule-set scenarios",
	Long: `Run the scenarios embedded in rule-set files.

Each scenario seeds its facts, evaluates every condition it names under
expect, and fails when any value differs. Every scenario runs in its own
evaluation pass.

Examples:
  # Run scenarios of the configured rule set
  verdict test

  # Run scenarios of a directory
  verdict test rules/

  # JSON output for CI
  verdict test rules/ --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScenarios,
}

func init() {
	rootCmd.AddCommand(testCmd)

	testCmd.Flags().StringVar(&testFlags.format, "format", "text", "output format: text, json, csv")
}

// TestReport is the result of running scenarios.
type TestReport struct {
	RuleSet   string           `json:"rule_set"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioReport `json:"scenarios"`
}

// ScenarioReport is the outcome of one scenario.
type ScenarioReport struct {
	Name       string             `json:"name"`
	Location   string             `json:"location,omitempty"`
	Passed     bool               `json:"passed"`
	PassID     string             `json:"pass_id,omitempty"`
	Mismatches []ruleset.Mismatch `json:"mismatches,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Header implements cli.Table.
func (r *TestReport) Header() []string {
	return []string{"SCENARIO", "RESULT", "DETAILS"}
}

// Rows implements cli.Table.
func (r *TestReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Scenarios))
	for _, s := range r.Scenarios {
		result := "PASS"
		if !s.Passed {
			result = "FAIL"
		}
		rows = append(rows, []string{s.Name, result, s.details()})
	}
	return rows
}

func (s ScenarioReport) details() string {
	if s.Error != "" {
		return s.Error
	}
	parts := make([]string, 0, len(s.Mismatches))
	for _, m := range s.Mismatches {
		parts = append(parts, fmt.Sprintf("%s: want %v, got %v", m.Condition, m.Want, m.Got))
	}
	return strings.Join(parts, "; ")
}

func runScenarios(cmd *cobra.Command, args []string) error {
	f, err := formatter(testFlags.format)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	ctx := commandContext(cmd)
	bundle, err := loadBundle(ctx, cfg, logger, path)
	if err != nil {
		return cli.NewCommandError("test", err)
	}
	evaluator, err := newEvaluator(cfg.Engine, logger)
	if err != nil {
		return err
	}

	results := ruleset.RunScenarios(ctx, evaluator, bundle)
	report := newTestReport(bundle.Name, results)

	if err := f.FormatTo(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if testFlags.format == "text" {
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d passed, %d failed\n", report.Passed, report.Failed)
	}

	if report.Failed > 0 {
		return cli.NewCommandError("test", fmt.Errorf("%d of %d scenario(s) failed", report.Failed, len(results)))
	}
	return nil
}

func newTestReport(name string, results []ruleset.ScenarioResult) *TestReport {
	report := &TestReport{RuleSet: name, Scenarios: make([]ScenarioReport, 0, len(results))}
	report.Passed, report.Failed = ruleset.Summary(results)

	for _, r := range results {
		s := ScenarioReport{
			Name:       r.Scenario.Name,
			Passed:     r.Passed,
			PassID:     r.PassID,
			Mismatches: r.Mismatches,
		}
		if r.Scenario.Location.IsValid() {
			s.Location = r.Scenario.Location.String()
		}
		if r.Err != nil {
			s.Error = r.Err.Error()
		}
		sort.Slice(s.Mismatches, func(i, j int) bool { return s.Mismatches[i].Condition < s.Mismatches[j].Condition })
		report.Scenarios = append(report.Scenarios, s)
	}
	return report
}
