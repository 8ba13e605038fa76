package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Exporter writes audit records in a file format.
type Exporter interface {
	Export(ctx context.Context, records []*PassRecord, w io.Writer) error
}

// NewExporter returns the exporter for format "json" or "csv".
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "json":
		return NewJSONExporter(true), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unknown export format %q: must be 'json' or 'csv'", format)
	}
}

// JSONExporter writes records as a JSON array.
type JSONExporter struct {
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records as a JSON array. An empty slice writes [].
func (e *JSONExporter) Export(ctx context.Context, records []*PassRecord, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []*PassRecord{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return &ExportError{Format: "json", Count: len(records), Cause: err}
	}
	return nil
}

// CSVExporter writes one row per record. Roots are flattened to
// "key=true;key=false".
type CSVExporter struct {
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

var csvHeader = []string{
	"id", "pass_id", "rule_set", "version", "roots",
	"node_count", "evaluated", "seeded",
	"start_time", "duration_ms", "recorded_at", "error",
}

// Export writes records as CSV.
func (e *CSVExporter) Export(ctx context.Context, records []*PassRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(csvHeader); err != nil {
			return &ExportError{Format: "csv", Count: len(records), Cause: err}
		}
	}

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(recordRow(r)); err != nil {
			return &ExportError{Format: "csv", Count: i, Cause: err}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return &ExportError{Format: "csv", Count: len(records), Cause: err}
	}
	return nil
}

func recordRow(r *PassRecord) []string {
	roots := make([]string, len(r.Roots))
	for i, root := range r.Roots {
		roots[i] = root.Key + "=" + strconv.FormatBool(root.Satisfied)
	}

	return []string{
		r.ID,
		r.PassID,
		r.RuleSet,
		r.Version,
		strings.Join(roots, ";"),
		strconv.Itoa(r.NodeCount),
		strconv.Itoa(r.Evaluated),
		strconv.Itoa(r.Seeded),
		r.StartTime.UTC().Format(time.RFC3339Nano),
		strconv.FormatFloat(float64(r.Duration)/float64(time.Millisecond), 'f', 3, 64),
		r.RecordedAt.UTC().Format(time.RFC3339Nano),
		r.Error,
	}
}
