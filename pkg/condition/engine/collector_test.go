package engine

import (
	"errors"
	"reflect"
	"testing"

	"strategos-hq/verdict/pkg/condition"
)

func keys(nodes []*condition.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Key()
	}
	return out
}

// diamond builds top -> (left, right) -> bottom.
func diamond() (top, left, right, bottom *condition.Node) {
	top = condition.NewNode("top", "p")
	left = condition.NewNode("left", "p")
	right = condition.NewNode("right", "p")
	bottom = condition.NewNode("bottom", "p")
	left.AppendChildren(bottom)
	right.AppendChildren(bottom)
	top.AppendChildren(left, right)
	return top, left, right, bottom
}

// TestCollectClosure tests closure order and deduplication
func TestCollectClosure(t *testing.T) {
	top, left, right, bottom := diamond()
	other := condition.NewNode("other", "q")

	tests := []struct {
		name  string
		roots []*condition.Node
		want  []string
	}{
		{
			name:  "no roots",
			roots: nil,
			want:  []string{},
		},
		{
			name:  "single leaf",
			roots: []*condition.Node{bottom},
			want:  []string{"p/bottom"},
		},
		{
			name:  "diamond appears once",
			roots: []*condition.Node{top},
			want:  []string{"p/bottom", "p/left", "p/right", "p/top"},
		},
		{
			name:  "roots already in closure",
			roots: []*condition.Node{top, left, bottom},
			want:  []string{"p/bottom", "p/left", "p/right", "p/top"},
		},
		{
			name:  "duplicate roots",
			roots: []*condition.Node{right, right},
			want:  []string{"p/bottom", "p/right"},
		},
		{
			name:  "disjoint roots",
			roots: []*condition.Node{other, left},
			want:  []string{"q/other", "p/bottom", "p/left"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CollectClosure(tt.roots)
			if err != nil {
				t.Fatalf("CollectClosure() error = %v", err)
			}
			if gotKeys := keys(got); !reflect.DeepEqual(gotKeys, tt.want) {
				t.Errorf("CollectClosure() = %v, want %v", gotKeys, tt.want)
			}
		})
	}
}

// TestCollectClosure_DuplicateChildren tests that repeated child references are collected once
func TestCollectClosure_DuplicateChildren(t *testing.T) {
	leaf := condition.NewNode("leaf", "")
	parent := condition.NewNode("parent", "")
	parent.AppendChildren(leaf, leaf, leaf)

	got, err := CollectClosure([]*condition.Node{parent})
	if err != nil {
		t.Fatalf("CollectClosure() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("CollectClosure() returned %d nodes, want 2", len(got))
	}
}

// TestCollectClosure_Cycle tests cycle detection
func TestCollectClosure_Cycle(t *testing.T) {
	a := condition.NewNode("a", "p")
	b := condition.NewNode("b", "p")
	c := condition.NewNode("c", "p")
	a.AppendChildren(b)
	b.AppendChildren(c)
	c.AppendChildren(a)

	_, err := CollectClosure([]*condition.Node{a})
	if !errors.Is(err, condition.ErrCyclicGraph) {
		t.Fatalf("CollectClosure() error = %v, want ErrCyclicGraph", err)
	}

	var cycleErr *condition.CyclicGraphError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("error is not *CyclicGraphError: %T", err)
	}
	want := []string{"p/a", "p/b", "p/c", "p/a"}
	if !reflect.DeepEqual(cycleErr.Path, want) {
		t.Errorf("cycle path = %v, want %v", cycleErr.Path, want)
	}
}

// TestCollectClosure_SelfReference tests a node that references itself
func TestCollectClosure_SelfReference(t *testing.T) {
	a := condition.NewNode("a", "")
	a.AppendChildren(a)

	_, err := CollectClosure([]*condition.Node{a})
	if !errors.Is(err, condition.ErrCyclicGraph) {
		t.Errorf("CollectClosure() error = %v, want ErrCyclicGraph", err)
	}
}

// TestCollectClosure_NilNodes tests nil roots and children
func TestCollectClosure_NilNodes(t *testing.T) {
	if _, err := CollectClosure([]*condition.Node{nil}); !errors.Is(err, condition.ErrPrecondition) {
		t.Errorf("nil root: error = %v, want ErrPrecondition", err)
	}

	parent := condition.NewNode("parent", "")
	parent.AppendChildren(nil)
	if _, err := CollectClosure([]*condition.Node{parent}); !errors.Is(err, condition.ErrPrecondition) {
		t.Errorf("nil child: error = %v, want ErrPrecondition", err)
	}
}

// TestCollectClosure_DeepChain tests that long chains do not depend on call depth
func TestCollectClosure_DeepChain(t *testing.T) {
	const depth = 100000
	root := chain(depth)

	got, err := CollectClosure([]*condition.Node{root})
	if err != nil {
		t.Fatalf("CollectClosure() error = %v", err)
	}
	if len(got) != depth {
		t.Errorf("CollectClosure() returned %d nodes, want %d", len(got), depth)
	}
	if got[len(got)-1] != root {
		t.Errorf("last node = %v, want root", got[len(got)-1])
	}
}

// chain builds a linear chain of n AND nodes and returns its head.
func chain(n int) *condition.Node {
	var prev *condition.Node
	for i := 0; i < n; i++ {
		node := condition.NewNode("c", "")
		if prev != nil {
			node.AppendChildren(prev)
		}
		prev = node
	}
	return prev
}
