package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/ruleset"
)

var lintFlags struct {
	strict   bool
	failWarn bool
	format   string
}

var lintCmd = &cobra.Command{
	Use:   "lint [path...]",
	Short: "Check rule-set files",
	Long: `Check rule-set files for syntax, structural and semantic errors.

Every file is parsed, then all files are built into one condition graph so
references across files resolve. The graph is checked for cycles and for
conditions that can never be satisfied.

Paths may be files or directories of .yaml/.yml files. Without arguments the
configured rules.path is checked.

Examples:
  # Lint a directory
  verdict lint rules/

  # Reject unknown fields and fail on warnings
  verdict lint rules/ --strict --fail-on-warning

  # JSON output for CI
  verdict lint rules/ --format json`,
	RunE: lintRuleSets,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "reject unknown condition fields")
	lintCmd.Flags().BoolVar(&lintFlags.failWarn, "fail-on-warning", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json, csv")
}

// LintReport is the result of linting a set of rule-set files.
type LintReport struct {
	Files      []string      `json:"files"`
	Conditions int           `json:"conditions"`
	Scenarios  int           `json:"scenarios"`
	Errors     []LintFinding `json:"errors,omitempty"`
	Warnings   []LintFinding `json:"warnings,omitempty"`
}

// LintFinding is one error or warning.
type LintFinding struct {
	Severity   string `json:"severity"`
	Type       string `json:"type,omitempty"`
	Location   string `json:"location,omitempty"`
	Condition  string `json:"condition,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Valid reports whether no errors were found.
func (r *LintReport) Valid() bool {
	return len(r.Errors) == 0
}

// Header implements cli.Table.
func (r *LintReport) Header() []string {
	return []string{"SEVERITY", "TYPE", "LOCATION", "MESSAGE"}
}

// Rows implements cli.Table.
func (r *LintReport) Rows() [][]string {
	rows := make([][]string, 0, len(r.Errors)+len(r.Warnings))
	for _, group := range [][]LintFinding{r.Errors, r.Warnings} {
		for _, f := range group {
			where := f.Location
			if where == "" {
				where = f.Condition
			}
			msg := f.Message
			if f.Suggestion != "" {
				msg += " (" + f.Suggestion + ")"
			}
			rows = append(rows, []string{f.Severity, f.Type, where, msg})
		}
	}
	return rows
}

func lintRuleSets(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		paths = []string{cfg.Rules.Path}
	}

	f, err := formatter(lintFlags.format)
	if err != nil {
		return err
	}

	report := lintPaths(paths, lintFlags.strict)

	out := cmd.OutOrStdout()
	if lintFlags.format == "text" {
		printLintText(out, report)
	} else if err := f.FormatTo(out, report); err != nil {
		return err
	}

	if !report.Valid() {
		return cli.NewCommandError("lint", fmt.Errorf("%d error(s) found", len(report.Errors)))
	}
	if lintFlags.failWarn && len(report.Warnings) > 0 {
		return cli.NewCommandError("lint", fmt.Errorf("%d warning(s) found", len(report.Warnings)))
	}
	return nil
}

// lintPaths parses, builds, validates and lints the rule-set files under paths.
func lintPaths(paths []string, strict bool) *LintReport {
	report := &LintReport{Files: []string{}}

	files, err := expandPaths(paths)
	if err != nil {
		report.addError(err)
		return report
	}
	report.Files = files

	parser := ruleset.NewParser().WithStrictMode(strict)
	docs := make([]*ruleset.Document, 0, len(files))
	for _, file := range files {
		doc, err := parser.ParseFile(file)
		if err != nil {
			report.addError(err)
			continue
		}
		docs = append(docs, doc)
		report.Conditions += doc.ConditionCount()
		report.Scenarios += len(doc.Scenarios)
	}
	if !report.Valid() {
		return report
	}

	reg, err := ruleset.Build(docs...)
	if err != nil {
		report.addError(err)
		return report
	}
	if err := ruleset.Validate(reg); err != nil {
		report.addError(err)
		return report
	}

	for _, w := range ruleset.Lint(reg) {
		report.Warnings = append(report.Warnings, LintFinding{
			Severity:  "warning",
			Condition: w.Condition,
			Message:   w.Message,
		})
	}
	return report
}

// expandPaths replaces directories by the rule-set files they contain.
func expandPaths(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, &ruleset.Error{
				Type:     ruleset.ErrorTypeIO,
				Message:  fmt.Sprintf("Failed to access path: %v", err),
				Location: ruleset.Location{File: path},
				Err:      err,
			}
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := ruleset.ListFiles(path)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, &ruleset.Error{Type: ruleset.ErrorTypeIO, Message: "No rule-set files found"}
	}
	return files, nil
}

func (r *LintReport) addError(err error) {
	var list *ruleset.ErrorList
	var single *ruleset.Error
	switch {
	case errors.As(err, &list):
		for _, e := range list.Errors {
			r.Errors = append(r.Errors, findingFor(e))
		}
	case errors.As(err, &single):
		r.Errors = append(r.Errors, findingFor(single))
	default:
		r.Errors = append(r.Errors, LintFinding{Severity: "error", Message: err.Error()})
	}
}

func findingFor(e *ruleset.Error) LintFinding {
	f := LintFinding{
		Severity:   "error",
		Type:       string(e.Type),
		Message:    e.Message,
		Suggestion: e.Suggestion,
	}
	if e.Location.File != "" {
		f.Location = e.Location.String()
	}
	return f
}

func printLintText(w io.Writer, r *LintReport) {
	for _, e := range r.Errors {
		where := e.Location
		if where == "" {
			where = "-"
		}
		fmt.Fprintf(w, "✗ %s [%s] %s\n", where, e.Type, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintf(w, "    suggestion: %s\n", e.Suggestion)
		}
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "⚠ %s: %s\n", warn.Condition, warn.Message)
	}

	if r.Valid() {
		fmt.Fprintf(w, "✓ %d file(s), %d condition(s), %d scenario(s): %d warning(s)\n",
			len(r.Files), r.Conditions, r.Scenarios, len(r.Warnings))
	} else {
		fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", len(r.Errors), len(r.Warnings))
	}
}
