package ruleset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"strategos-hq/verdict/pkg/condition"
	"strategos-hq/verdict/pkg/condition/engine"
)

func mustParse(t *testing.T, path string) *Document {
	t.Helper()
	doc, err := NewParser().ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile(%s) failed: %v", path, err)
	}
	return doc
}

func TestBuild(t *testing.T) {
	reg, err := mustParse(t, "testdata/valid/world.yaml").Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if reg.Len() != 8 {
		t.Errorf("Len() = %d, want 8", reg.Len())
	}

	capitals, ok := reg.Lookup("Germans/capitalsHeld")
	if !ok {
		t.Fatal("capitalsHeld not found")
	}
	if got := capitals.Policy(); got != condition.CountInRange(2, 3) {
		t.Errorf("capitalsHeld policy = %v, want 2-3", got)
	}
	if len(capitals.Children()) != 3 {
		t.Errorf("capitalsHeld has %d children, want 3", len(capitals.Children()))
	}

	lost, _ := reg.Lookup("lostCapital")
	if !lost.Invert() {
		t.Error("lostCapital.Invert() = false, want true")
	}

	bonds, _ := reg.Lookup("warBonds")
	if bonds.Policy() != condition.Or {
		t.Errorf("warBonds policy = %v, want OR", bonds.Policy())
	}
	if bonds.Chance().String() != "1:6" {
		t.Errorf("warBonds chance = %v, want 1:6", bonds.Chance())
	}
	stalingrad, _ := reg.Lookup("Russians/stalingradHeld")
	if children := bonds.Children(); len(children) != 2 || children[0] != capitals || children[1] != stalingrad {
		t.Errorf("warBonds children = %v", children)
	}

	berlin, _ := reg.Lookup("holdsBerlin")
	if berlin.Policy() != condition.And || berlin.Invert() || !berlin.Chance().Always() {
		t.Errorf("holdsBerlin does not have defaults: %v %v %v", berlin.Policy(), berlin.Invert(), berlin.Chance())
	}
}

func TestBuild_MultipleDocuments(t *testing.T) {
	extra := mustParse(t, "testdata/valid/extra.yaml")

	if _, err := Build(extra); err == nil {
		t.Error("Build(extra) succeeded, want unresolved reference")
	}

	reg, err := Build(extra, mustParse(t, "testdata/valid/world.yaml"))
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	africa, _ := reg.Lookup("Italians/africaHeld")
	paris, _ := reg.Lookup("Germans/holdsParis")
	if children := africa.Children(); len(children) != 1 || children[0] != paris {
		t.Errorf("africaHeld children = %v, want [Germans/holdsParis]", children)
	}
}

func TestBuild_DuplicateCondition(t *testing.T) {
	data := "name: x\nplayers:\n  - name: p\n    conditions:\n      - name: a\n      - name: a\n"
	doc, err := NewParser().ParseBytes([]byte(data), "dup.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}

	_, err = doc.Build()
	var errList *ErrorList
	if !errors.As(err, &errList) {
		t.Fatalf("Build() error = %v, want *ErrorList", err)
	}
	if !errList.HasErrorType(ErrorTypeStructural) {
		t.Errorf("errors = %v, want structural", errList.Errors)
	}
	if errList.Errors[0].Location.Line != 6 {
		t.Errorf("duplicate line = %d, want 6", errList.Errors[0].Location.Line)
	}
}

func TestBuild_SameNameDifferentPlayers(t *testing.T) {
	data := "name: x\nplayers:\n  - name: p\n    conditions:\n      - name: a\n  - name: q\n    conditions:\n      - name: a\n      - name: b\n        conditions: [a]\n"
	doc, err := NewParser().ParseBytes([]byte(data), "shared.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}
	reg, err := doc.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// Bare references resolve against players in declaration order.
	b, _ := reg.Lookup("q/b")
	pa, _ := reg.Lookup("p/a")
	if b.Children()[0] != pa {
		t.Errorf("b child = %v, want p/a", b.Children()[0])
	}
}

func TestBuild_SemanticErrors(t *testing.T) {
	_, err := mustParse(t, "testdata/invalid/semantic.yaml").Build()

	var errList *ErrorList
	if !errors.As(err, &errList) {
		t.Fatalf("Build() error = %v, want *ErrorList", err)
	}
	if errList.Count() != 3 {
		t.Fatalf("Count() = %d, want 3: %v", errList.Count(), err)
	}
	if len(errList.ByType(ErrorTypeSemantic)) != 3 {
		t.Errorf("semantic errors = %d, want 3", len(errList.ByType(ErrorTypeSemantic)))
	}

	if !errors.Is(err, condition.ErrInvalidPolicy) {
		t.Error("errors.Is(err, ErrInvalidPolicy) = false")
	}
	if !errors.Is(err, condition.ErrInvalidChance) {
		t.Error("errors.Is(err, ErrInvalidChance) = false")
	}
	if !errors.Is(err, condition.ErrReferenceNotFound) {
		t.Error("errors.Is(err, ErrReferenceNotFound) = false")
	}

	last := errList.Errors[2]
	if last.Suggestion != "Did you mean 'holdsBerlin'?" {
		t.Errorf("Suggestion = %q", last.Suggestion)
	}
	if !strings.Contains(last.Error(), "semantic.yaml:11") {
		t.Errorf("error does not carry location: %s", last.Error())
	}
}

func TestNewBundle_Cycle(t *testing.T) {
	_, err := NewBundle("test", mustParse(t, "testdata/invalid/cycle.yaml"))
	if !errors.Is(err, condition.ErrCyclicGraph) {
		t.Errorf("NewBundle() error = %v, want ErrCyclicGraph", err)
	}
}

func TestNewBundle(t *testing.T) {
	b, err := NewBundle("testdata/valid", mustParse(t, "testdata/valid/world.yaml"))
	if err != nil {
		t.Fatalf("NewBundle() failed: %v", err)
	}
	if b.Name != "world-at-war" || b.Version != "1.2" {
		t.Errorf("bundle = %s@%s", b.Name, b.Version)
	}
	if len(b.Scenarios()) != 2 {
		t.Errorf("len(Scenarios()) = %d, want 2", len(b.Scenarios()))
	}

	roots, err := b.Roots([]string{"capitalsHeld", "Russians/counterOffensive"})
	if err != nil || len(roots) != 2 {
		t.Fatalf("Roots() = %v, %v", roots, err)
	}
	if _, err := b.Roots([]string{"nope"}); !errors.Is(err, condition.ErrReferenceNotFound) {
		t.Errorf("Roots() error = %v, want ErrReferenceNotFound", err)
	}
}

// TestBundle_RootsAmbiguous tests that roots reject a bare name two players define.
func TestBundle_RootsAmbiguous(t *testing.T) {
	data := "name: x\nplayers:\n  - name: A\n    conditions:\n      - name: cap\n  - name: B\n    conditions:\n      - name: cap\n"
	doc, err := NewParser().ParseBytes([]byte(data), "shared.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}
	b, err := NewBundle("shared.yaml", doc)
	if err != nil {
		t.Fatalf("NewBundle() failed: %v", err)
	}

	_, err = b.Roots([]string{"cap"})
	if !errors.Is(err, condition.ErrAmbiguousReference) {
		t.Fatalf("Roots(cap) error = %v, want ErrAmbiguousReference", err)
	}

	roots, err := b.Roots([]string{"A/cap", "B/cap"})
	if err != nil {
		t.Fatalf("Roots() failed: %v", err)
	}
	if roots[0].Owner() != "A" || roots[1].Owner() != "B" {
		t.Errorf("roots = %v, %v", roots[0], roots[1])
	}
}

func TestLint(t *testing.T) {
	data := `name: lint
players:
  - name: p
    conditions:
      - name: a
      - name: b
      - name: tooMany
        type: "3"
        conditions: [a, b]
      - name: rangeTooHigh
        type: "3-4"
        conditions: [a, b]
      - name: orLeaf
        type: OR
      - name: dup
        conditions: [a, a]
      - name: fine
        type: "1-2"
        conditions: [a, b]
`
	doc, err := NewParser().ParseBytes([]byte(data), "lint.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}
	reg, err := doc.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	warnings := Lint(reg)
	got := make(map[string]bool)
	for _, w := range warnings {
		got[w.Condition] = true
	}
	for _, want := range []string{"p/tooMany", "p/rangeTooHigh", "p/orLeaf", "p/dup"} {
		if !got[want] {
			t.Errorf("no warning for %s", want)
		}
	}
	if got["p/fine"] || got["p/a"] {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}

func TestRunScenarios(t *testing.T) {
	b, err := NewBundle("test", mustParse(t, "testdata/valid/world.yaml"))
	if err != nil {
		t.Fatalf("NewBundle() failed: %v", err)
	}
	evaluator, err := engine.NewEvaluator(nil)
	if err != nil {
		t.Fatal(err)
	}

	results := RunScenarios(context.Background(), evaluator, b)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.Err != nil || !r.Passed {
			t.Errorf("scenario %q: passed = %v, err = %v, mismatches = %v", r.Scenario.Name, r.Passed, r.Err, r.Mismatches)
		}
	}
	if passed, failed := Summary(results); passed != 2 || failed != 0 {
		t.Errorf("Summary() = %d, %d, want 2, 0", passed, failed)
	}
}

func TestRunScenarios_Failures(t *testing.T) {
	data := `name: failing
players:
  - name: p
    conditions:
      - name: a
      - name: b
        type: OR
        conditions: [a]
scenarios:
  - name: wrong expectation
    facts: {a: true}
    expect: {b: false}
  - name: unknown fact
    facts: {zzz: true}
    expect: {b: true}
  - name: unknown expectation
    facts: {a: true}
    expect: {zzz: true}
`
	doc, err := NewParser().ParseBytes([]byte(data), "failing.yaml")
	if err != nil {
		t.Fatalf("ParseBytes() failed: %v", err)
	}
	b, err := NewBundle("test", doc)
	if err != nil {
		t.Fatalf("NewBundle() failed: %v", err)
	}
	evaluator, _ := engine.NewEvaluator(nil)

	results := RunScenarios(context.Background(), evaluator, b)

	if results[0].Passed || len(results[0].Mismatches) != 1 {
		t.Errorf("wrong expectation: %+v", results[0])
	} else if m := results[0].Mismatches[0]; m.Condition != "b" || m.Want || !m.Got {
		t.Errorf("mismatch = %+v", m)
	}
	if !errors.Is(results[1].Err, condition.ErrReferenceNotFound) {
		t.Errorf("unknown fact: err = %v", results[1].Err)
	}
	if !errors.Is(results[2].Err, condition.ErrReferenceNotFound) {
		t.Errorf("unknown expectation: err = %v", results[2].Err)
	}
	if passed, failed := Summary(results); passed != 0 || failed != 3 {
		t.Errorf("Summary() = %d, %d, want 0, 3", passed, failed)
	}
}

func TestSuggestCondition(t *testing.T) {
	known := []string{"holdsBerlin", "holdsParis", "capitalsHeld"}
	tests := []struct {
		unknown string
		want    string
	}{
		{"holdsBerlim", "Did you mean 'holdsBerlin'?"},
		{"capitalHeld", "Did you mean 'capitalsHeld'?"},
		{"somethingElseEntirely", "Known conditions: holdsBerlin, holdsParis, capitalsHeld"},
	}
	for _, tt := range tests {
		if got := SuggestCondition(tt.unknown, known); got != tt.want {
			t.Errorf("SuggestCondition(%q) = %q, want %q", tt.unknown, got, tt.want)
		}
	}
	if got := SuggestCondition("x", nil); got != "" {
		t.Errorf("SuggestCondition with no names = %q, want empty", got)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
	}
	for _, tt := range tests {
		if got := levenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
