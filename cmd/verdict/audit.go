package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"strategos-hq/verdict/pkg/audit"
	"strategos-hq/verdict/pkg/cli"
	"strategos-hq/verdict/pkg/config"
)

// exportPageSize is the number of records read per query during export.
const exportPageSize = 1000

var auditFlags struct {
	ruleSet    string
	passID     string
	status     string
	since      string
	until      string
	limit      int
	offset     int
	format     string
	exportAs   string
	output     string
	days       int
	maxRecords int64
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query and maintain the evaluation audit trail",
	Long: `Query, export and prune recorded evaluation passes.

The storage backend is taken from the audit section of the configuration.
The memory backend keeps nothing between runs and cannot be queried here.`,
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List recorded passes",
	Long: `List recorded passes, newest first.

Examples:
  # Last 20 passes of a rule set
  verdict audit query --ruleset world-at-war --limit 20

  # Failed passes since a point in time
  verdict audit query --status error --since 2026-10-01T00:00:00Z --format json`,
	RunE: queryAudit,
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded passes as JSON or CSV",
	Long: `Export every pass matching the filters, oldest first.

Examples:
  # Export a day of passes to CSV
  verdict audit export --since 2026-10-15T00:00:00Z --until 2026-10-16T00:00:00Z \
    --format csv --output passes.csv`,
	RunE: exportAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete passes outside the retention policy",
	Long: `Delete passes older than the retention period or beyond the record limit.

Flags override audit.retention from the configuration. Pruned records are
archived first when audit.retention.archive_path is set.

Examples:
  # Apply the configured retention policy now
  verdict audit prune

  # Keep only the last 7 days
  verdict audit prune --days 7`,
	RunE: pruneAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd, auditExportCmd, auditPruneCmd)

	for _, c := range []*cobra.Command{auditQueryCmd, auditExportCmd} {
		c.Flags().StringVar(&auditFlags.ruleSet, "ruleset", "", "filter by rule-set name")
		c.Flags().StringVar(&auditFlags.passID, "pass-id", "", "filter by pass ID")
		c.Flags().StringVar(&auditFlags.status, "status", "", "filter by status: success, error")
		c.Flags().StringVar(&auditFlags.since, "since", "", "only passes recorded at or after this RFC 3339 time")
		c.Flags().StringVar(&auditFlags.until, "until", "", "only passes recorded at or before this RFC 3339 time")
	}

	auditQueryCmd.Flags().IntVar(&auditFlags.limit, "limit", audit.DefaultQueryLimit, "maximum number of passes")
	auditQueryCmd.Flags().IntVar(&auditFlags.offset, "offset", 0, "number of passes to skip")
	auditQueryCmd.Flags().StringVar(&auditFlags.format, "format", "text", "output format: text, json, csv")

	auditExportCmd.Flags().StringVar(&auditFlags.exportAs, "format", "json", "export format: json, csv")
	auditExportCmd.Flags().StringVarP(&auditFlags.output, "output", "o", "-", "output file (- for stdout)")

	auditPruneCmd.Flags().IntVar(&auditFlags.days, "days", -1, "override retention days (0 keeps forever)")
	auditPruneCmd.Flags().Int64Var(&auditFlags.maxRecords, "max-records", -1, "override maximum records (0 is unlimited)")
}

// PassTable renders pass records as rows.
type PassTable []*audit.PassRecord

// Header implements cli.Table.
func (t PassTable) Header() []string {
	return []string{"RECORDED", "PASS ID", "RULE SET", "STATUS", "ROOTS", "EVALUATED", "DURATION"}
}

// Rows implements cli.Table.
func (t PassTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		status := "success"
		if r.Failed() {
			status = "error"
		}
		roots := make([]string, 0, len(r.Roots))
		for _, root := range r.Roots {
			roots = append(roots, root.Key+"="+strconv.FormatBool(root.Satisfied))
		}
		rows = append(rows, []string{
			r.RecordedAt.Format(time.RFC3339),
			r.PassID,
			r.RuleSet,
			status,
			strings.Join(roots, " "),
			strconv.Itoa(r.Evaluated),
			r.Duration.String(),
		})
	}
	return rows
}

func queryAudit(cmd *cobra.Command, args []string) error {
	f, err := formatter(auditFlags.format)
	if err != nil {
		return err
	}
	q, err := auditQuery()
	if err != nil {
		return err
	}
	q.Limit = auditFlags.limit
	q.Offset = auditFlags.offset

	return withAuditStorage(commandContext(cmd), func(ctx context.Context, storage audit.Storage) error {
		records, err := storage.Query(ctx, q)
		if err != nil {
			return cli.NewCommandError("audit query", err)
		}
		if auditFlags.format == "json" {
			return f.FormatTo(cmd.OutOrStdout(), records)
		}
		return f.FormatTo(cmd.OutOrStdout(), PassTable(records))
	})
}

func exportAudit(cmd *cobra.Command, args []string) error {
	exporter, err := audit.NewExporter(auditFlags.exportAs)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	q, err := auditQuery()
	if err != nil {
		return err
	}
	q.Ascending = true

	return withAuditStorage(commandContext(cmd), func(ctx context.Context, storage audit.Storage) error {
		var records []*audit.PassRecord
		for offset := 0; ; offset += exportPageSize {
			q.Limit, q.Offset = exportPageSize, offset
			page, err := storage.Query(ctx, q)
			if err != nil {
				return cli.NewCommandError("audit export", err)
			}
			records = append(records, page...)
			if len(page) < exportPageSize {
				break
			}
		}

		var w io.Writer = cmd.OutOrStdout()
		if auditFlags.output != "-" && auditFlags.output != "" {
			file, err := os.Create(auditFlags.output)
			if err != nil {
				return cli.NewCommandError("audit export", err)
			}
			defer file.Close()
			w = file
		}

		if err := exporter.Export(ctx, records, w); err != nil {
			return cli.NewCommandError("audit export", err)
		}
		if w != cmd.OutOrStdout() {
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d pass(es) to %s\n", len(records), auditFlags.output)
		}
		return nil
	})
}

func pruneAudit(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	retention := cfg.Audit.Retention
	if auditFlags.days >= 0 {
		retention.Days = auditFlags.days
	}
	if auditFlags.maxRecords >= 0 {
		retention.MaxRecords = auditFlags.maxRecords
	}
	if retention.Days == 0 && retention.MaxRecords == 0 {
		return cli.NewConfigError("audit.retention", "no retention limit configured")
	}

	return openAuditStorage(commandContext(cmd), cfg, func(ctx context.Context, storage audit.Storage) error {
		deleted, err := audit.NewPruner(storage, retention).Prune(ctx)
		if err != nil {
			return cli.NewCommandError("audit prune", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d pass(es)\n", deleted)
		return nil
	})
}

// auditQuery builds the query shared by query and export from the filter flags.
func auditQuery() (*audit.Query, error) {
	q := &audit.Query{
		RuleSet: auditFlags.ruleSet,
		PassID:  auditFlags.passID,
		Status:  auditFlags.status,
	}
	for name, spec := range map[string]struct {
		raw string
		dst **time.Time
	}{
		"since": {auditFlags.since, &q.StartTime},
		"until": {auditFlags.until, &q.EndTime},
	} {
		if spec.raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, spec.raw)
		if err != nil {
			return nil, cli.NewConfigError(name, fmt.Sprintf("invalid time %q: must be RFC 3339", spec.raw))
		}
		*spec.dst = &t
	}
	return q, nil
}

func withAuditStorage(ctx context.Context, fn func(context.Context, audit.Storage) error) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	return openAuditStorage(ctx, cfg, fn)
}

func openAuditStorage(ctx context.Context, cfg *config.Config, fn func(context.Context, audit.Storage) error) error {
	if cfg.Audit.Backend == "memory" {
		return cli.NewConfigError("audit.backend", "the memory backend keeps no records between runs")
	}

	storage, err := audit.Open(ctx, cfg.Audit)
	if err != nil {
		return cli.NewCommandError("audit", err)
	}
	defer storage.Close()

	return fn(ctx, storage)
}
