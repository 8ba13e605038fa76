package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"strategos-hq/verdict/pkg/audit"
	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/config"
)

// newTestCmd returns a command whose output is captured in the buffer.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

func resetGlobalFlags(t *testing.T) {
	t.Helper()
	cfgFile = ""
	logLevel = "error"
	logFormat = ""
	t.Cleanup(func() {
		cfgFile, logLevel, logFormat = "", "", ""
	})
}

// TestLintRuleSets tests the lint command on valid and invalid files.
func TestLintRuleSets(t *testing.T) {
	resetGlobalFlags(t)

	tests := []struct {
		name       string
		args       []string
		failWarn   bool
		wantErr    bool
		wantOutput string
	}{
		{name: "valid directory", args: []string{"testdata/rules"}, wantOutput: "✓ 1 file(s), 8 condition(s), 2 scenario(s): 0 warning(s)"},
		{name: "unknown reference", args: []string{"testdata/broken.yaml"}, wantErr: true, wantOutput: "holdsBerlinn"},
		{name: "warning passes", args: []string{"testdata/unreachable.yaml"}, wantOutput: "can never be satisfied"},
		{name: "warning fails", args: []string{"testdata/unreachable.yaml"}, failWarn: true, wantErr: true},
		{name: "missing path", args: []string{"testdata/missing.yaml"}, wantErr: true, wantOutput: "Failed to access path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lintFlags.strict = false
			lintFlags.failWarn = tt.failWarn
			lintFlags.format = "text"

			cmd, out := newTestCmd()
			err := lintRuleSets(cmd, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lintRuleSets() error = %v, wantErr %v\n%s", err, tt.wantErr, out.String())
			}
			if !strings.Contains(out.String(), tt.wantOutput) {
				t.Errorf("output missing %q:\n%s", tt.wantOutput, out.String())
			}
		})
	}
}

// TestLintRuleSets_JSON tests machine-readable lint output.
func TestLintRuleSets_JSON(t *testing.T) {
	resetGlobalFlags(t)
	lintFlags.strict = false
	lintFlags.failWarn = false
	lintFlags.format = "json"

	cmd, out := newTestCmd()
	if err := lintRuleSets(cmd, []string{"testdata/broken.yaml"}); err == nil {
		t.Fatal("lintRuleSets() expected error")
	}

	var report LintReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	if len(report.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(report.Errors))
	}
	if report.Errors[0].Type != "semantic" {
		t.Errorf("error type = %q, want semantic", report.Errors[0].Type)
	}
	if !strings.Contains(report.Errors[0].Location, "broken.yaml") {
		t.Errorf("location = %q", report.Errors[0].Location)
	}
}

// TestEvalConditions tests evaluating roots with seeded facts.
func TestEvalConditions(t *testing.T) {
	resetGlobalFlags(t)

	tests := []struct {
		name    string
		args    []string
		facts   []string
		want    map[string]bool
		wantErr bool
	}{
		{
			name:  "capitals held",
			args:  []string{"Germans/capitalsHeld", "lostCapital"},
			facts: []string{"holdsBerlin", "holdsParis=true", "holdsMoscow=false"},
			want:  map[string]bool{"Germans/capitalsHeld": true, "Germans/lostCapital": false},
		},
		{
			name:  "berlin lost",
			args:  []string{"lostCapital"},
			facts: []string{"holdsBerlin=false"},
			want:  map[string]bool{"Germans/lostCapital": true},
		},
		{name: "unknown root", args: []string{"Germans/holdsRome"}, wantErr: true},
		{name: "unknown fact", args: []string{"capitalsHeld"}, facts: []string{"holdsRome"}, wantErr: true},
		{name: "bad fact value", args: []string{"capitalsHeld"}, facts: []string{"holdsBerlin=maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFlags.rules = "testdata/rules"
			evalFlags.facts = tt.facts
			evalFlags.trace = false
			evalFlags.format = "json"

			cmd, out := newTestCmd()
			err := evalConditions(cmd, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("evalConditions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			var report EvalReport
			if err := json.Unmarshal(out.Bytes(), &report); err != nil {
				t.Fatalf("invalid JSON: %v\n%s", err, out.String())
			}
			if report.RuleSet != "world-at-war" || report.PassID == "" {
				t.Errorf("rule set = %q pass = %q", report.RuleSet, report.PassID)
			}
			for _, root := range report.Roots {
				if want, ok := tt.want[root.Key]; !ok || root.Satisfied != want {
					t.Errorf("%s satisfied = %v, want %v (expected %v)", root.Key, root.Satisfied, want, ok)
				}
			}
			if len(report.Roots) != len(tt.want) {
				t.Errorf("got %d roots, want %d", len(report.Roots), len(tt.want))
			}
		})
	}
}

// TestParseFacts tests fact flag parsing.
func TestParseFacts(t *testing.T) {
	tests := []struct {
		in      []string
		want    map[string]bool
		wantErr bool
	}{
		{in: nil, want: map[string]bool{}},
		{in: []string{"a", "b=false", "Germans/c=TRUE", " d = 0 "}, want: map[string]bool{"a": true, "b": false, "Germans/c": true, "d": false}},
		{in: []string{"=true"}, wantErr: true},
		{in: []string{"a=yes"}, wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseFacts(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFacts(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			var cfgErr *cli.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("parseFacts(%q) error is %T, want *cli.ConfigError", tt.in, err)
			}
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseFacts(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("parseFacts(%q)[%s] = %v, want %v", tt.in, k, got[k], v)
			}
		}
	}
}

// TestRunScenarios tests scenario execution and failure reporting.
func TestRunScenarios(t *testing.T) {
	resetGlobalFlags(t)

	t.Run("passing", func(t *testing.T) {
		testFlags.format = "text"
		cmd, out := newTestCmd()
		if err := runScenarios(cmd, []string{"testdata/rules"}); err != nil {
			t.Fatalf("runScenarios() error = %v\n%s", err, out.String())
		}
		if !strings.Contains(out.String(), "2 passed, 0 failed") {
			t.Errorf("output:\n%s", out.String())
		}
	})

	t.Run("failing", func(t *testing.T) {
		testFlags.format = "json"
		cmd, out := newTestCmd()
		err := runScenarios(cmd, []string{"testdata/failing.yaml"})
		if cli.ExitCode(err) != cli.ExitFailure {
			t.Fatalf("runScenarios() error = %v, want command failure", err)
		}

		var report TestReport
		if err := json.Unmarshal(out.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out.String())
		}
		if report.Passed != 1 || report.Failed != 1 {
			t.Fatalf("passed = %d failed = %d, want 1 and 1", report.Passed, report.Failed)
		}
		failed := report.Scenarios[0]
		if failed.Passed || len(failed.Mismatches) != 1 {
			t.Fatalf("first scenario = %+v", failed)
		}
		if m := failed.Mismatches[0]; m.Condition != "southHeld" || !m.Want || m.Got {
			t.Errorf("mismatch = %+v", m)
		}
	})
}

func writeAuditConfig(t *testing.T) (string, config.AuditConfig) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "audit.db")
	cfgPath := filepath.Join(dir, "verdict.yaml")

	content := "audit:\n  enabled: true\n  backend: sqlite\n  sqlite:\n    path: " + dbPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	return cfgPath, cfg.Audit
}

func seedAudit(t *testing.T, cfg config.AuditConfig, records ...*audit.PassRecord) {
	t.Helper()
	ctx := context.Background()
	storage, err := audit.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer storage.Close()
	for _, r := range records {
		if err := storage.Store(ctx, r); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
}

// TestAuditCommands tests query, export and prune against a SQLite trail.
func TestAuditCommands(t *testing.T) {
	resetGlobalFlags(t)

	cfgPath, auditCfg := writeAuditConfig(t)
	cfgFile = cfgPath

	now := time.Now().UTC()
	seedAudit(t, auditCfg,
		&audit.PassRecord{ID: "r1", PassID: "p1", RuleSet: "world-at-war", RecordedAt: now.AddDate(0, 0, -40),
			Roots: []audit.RootOutcome{{Key: "Germans/capitalsHeld", Satisfied: true}}},
		&audit.PassRecord{ID: "r2", PassID: "p2", RuleSet: "world-at-war", RecordedAt: now.Add(-time.Hour)},
		&audit.PassRecord{ID: "r3", PassID: "p3", RuleSet: "south", RecordedAt: now, Error: "timeout"},
	)

	resetFilters := func() {
		auditFlags.ruleSet, auditFlags.passID, auditFlags.status = "", "", ""
		auditFlags.since, auditFlags.until = "", ""
		auditFlags.limit, auditFlags.offset = audit.DefaultQueryLimit, 0
	}

	t.Run("query", func(t *testing.T) {
		resetFilters()
		auditFlags.ruleSet = "world-at-war"
		auditFlags.format = "json"

		cmd, out := newTestCmd()
		if err := queryAudit(cmd, nil); err != nil {
			t.Fatalf("queryAudit() error = %v", err)
		}
		var records []*audit.PassRecord
		if err := json.Unmarshal(out.Bytes(), &records); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out.String())
		}
		if len(records) != 2 || records[0].PassID != "p2" {
			t.Errorf("records = %+v, want p2 then p1", records)
		}
	})

	t.Run("query text", func(t *testing.T) {
		resetFilters()
		auditFlags.status = "error"
		auditFlags.format = "text"

		cmd, out := newTestCmd()
		if err := queryAudit(cmd, nil); err != nil {
			t.Fatalf("queryAudit() error = %v", err)
		}
		if !strings.Contains(out.String(), "p3") || strings.Contains(out.String(), "p1") {
			t.Errorf("output:\n%s", out.String())
		}
	})

	t.Run("invalid since", func(t *testing.T) {
		resetFilters()
		auditFlags.since = "yesterday"
		auditFlags.format = "text"

		cmd, _ := newTestCmd()
		if err := queryAudit(cmd, nil); cli.ExitCode(err) != cli.ExitUsage {
			t.Errorf("queryAudit() error = %v, want usage error", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		resetFilters()
		auditFlags.exportAs = "csv"
		auditFlags.output = filepath.Join(t.TempDir(), "passes.csv")

		cmd, _ := newTestCmd()
		if err := exportAudit(cmd, nil); err != nil {
			t.Fatalf("exportAudit() error = %v", err)
		}

		f, err := os.Open(auditFlags.output)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if len(rows) != 4 {
			t.Fatalf("got %d rows, want header and 3 records", len(rows))
		}
		if !strings.Contains(strings.Join(rows[1], ","), "p1") {
			t.Errorf("first record = %v, want oldest (p1)", rows[1])
		}
	})

	t.Run("prune", func(t *testing.T) {
		auditFlags.days = 30
		auditFlags.maxRecords = -1

		cmd, out := newTestCmd()
		if err := pruneAudit(cmd, nil); err != nil {
			t.Fatalf("pruneAudit() error = %v", err)
		}
		if !strings.Contains(out.String(), "Pruned 1 pass(es)") {
			t.Errorf("output = %q", out.String())
		}
	})
}

// TestAuditCommands_MemoryBackend tests that the memory backend is rejected.
func TestAuditCommands_MemoryBackend(t *testing.T) {
	resetGlobalFlags(t)

	dir := t.TempDir()
	cfgFile = filepath.Join(dir, "verdict.yaml")
	if err := os.WriteFile(cfgFile, []byte("audit:\n  enabled: true\n  backend: memory\n"), 0644); err != nil {
		t.Fatal(err)
	}

	auditFlags.since, auditFlags.until = "", ""
	auditFlags.format = "text"
	cmd, _ := newTestCmd()
	if err := queryAudit(cmd, nil); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("queryAudit() error = %v, want usage error", err)
	}
}

// TestVersionCommand tests version output.
func TestVersionCommand(t *testing.T) {
	cmd, out := newTestCmd()
	versionCmd.Run(cmd, nil)
	if !strings.HasPrefix(out.String(), "Verdict "+Version) {
		t.Errorf("output = %q", out.String())
	}
}

// TestServeDryRun tests configuration validation without starting the service.
func TestServeDryRun(t *testing.T) {
	resetGlobalFlags(t)
	serveFlags.dryRun = true
	defer func() { serveFlags.dryRun = false }()

	cmd, out := newTestCmd()
	if err := serve(cmd, nil); err != nil {
		t.Fatalf("serve() error = %v", err)
	}
	if !strings.Contains(out.String(), "Configuration valid") {
		t.Errorf("output = %q", out.String())
	}
}
