package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

// TestJSONExporter tests JSON export including the empty case.
func TestJSONExporter(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(ctx, nil, &buf); err != nil {
		t.Fatalf("Export(nil) failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Export(nil) = %q, want []", buf.String())
	}

	buf.Reset()
	records := []*PassRecord{{ID: "r1", PassID: "p1", RuleSet: "berlin", Roots: []RootOutcome{{Key: "a", Satisfied: true}}}}
	if err := NewJSONExporter(true).Export(ctx, records, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	var decoded []PassRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "r1" || !decoded[0].Roots[0].Satisfied {
		t.Errorf("decoded = %+v", decoded)
	}
}

// TestCSVExporter tests CSV rows and the flattened roots column.
func TestCSVExporter(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []*PassRecord{{
		ID:         "r1",
		PassID:     "p1",
		RuleSet:    "berlin",
		Roots:      []RootOutcome{{Key: "a", Satisfied: true}, {Key: "b"}},
		NodeCount:  4,
		StartTime:  at,
		Duration:   2500 * time.Microsecond,
		RecordedAt: at,
		Error:      "boom, again",
	}}

	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), records, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	row := rows[1]
	if row[4] != "a=true;b=false" {
		t.Errorf("roots column = %q", row[4])
	}
	if row[9] != "2.500" {
		t.Errorf("duration column = %q, want 2.500", row[9])
	}
	if row[11] != "boom, again" {
		t.Errorf("error column = %q", row[11])
	}
}

// TestNewExporter tests format selection.
func TestNewExporter(t *testing.T) {
	for _, format := range []string{"json", "csv"} {
		if _, err := NewExporter(format); err != nil {
			t.Errorf("NewExporter(%q) failed: %v", format, err)
		}
	}
	if _, err := NewExporter("xml"); err == nil {
		t.Error("NewExporter(xml) should fail")
	}
}
