package source

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"strategos-hq/verdict/pkg/ruleset"
)

type recordingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (o *recordingObserver) ObserveReload(_ string, _ *ruleset.Bundle, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failed++
	} else {
		o.ok++
	}
}

func (o *recordingObserver) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ok, o.failed
}

// TestManager_Reload tests that failed reloads keep the last good bundle.
func TestManager_Reload(t *testing.T) {
	src := NewMemorySource(parseDoc(t, berlinRules))
	obs := &recordingObserver{}
	m := NewManager(src, WithReloadObserver(obs))

	if _, err := m.Current(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Current() before load error = %v, want ErrNotLoaded", err)
	}
	if m.Ready() {
		t.Error("Ready() before load = true")
	}

	first, err := m.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	src.Set(parseDoc(t, brokenRules))
	if _, err := m.Reload(context.Background()); err == nil {
		t.Fatal("Reload() of broken rules should fail")
	}

	current, err := m.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if current != first {
		t.Error("failed reload replaced the current bundle")
	}

	st := m.Status()
	if st.Reloads != 1 || st.Failures != 1 || st.LastError == nil || st.Conditions != 3 {
		t.Errorf("Status() = %+v", st)
	}
	if ok, failed := obs.counts(); ok != 1 || failed != 1 {
		t.Errorf("observer saw %d ok and %d failed, want 1 and 1", ok, failed)
	}

	src.Set(parseDoc(t, romeRules))
	second, err := m.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if current, _ := m.Current(); current != second || m.Status().LastError != nil {
		t.Error("successful reload did not become current")
	}
}

// TestManager_Run tests reloads driven by source events.
func TestManager_Run(t *testing.T) {
	src := NewMemorySource(parseDoc(t, berlinRules))
	m := NewManager(src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	waitFor(t, func() bool { return m.Ready() })

	src.Set(parseDoc(t, romeRules))
	waitFor(t, func() bool {
		b, err := m.Current()
		return err == nil && b.Name == "south"
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

// TestManager_RunInitialFailure tests that Run reports a failing first load.
func TestManager_RunInitialFailure(t *testing.T) {
	src := NewMemorySource(parseDoc(t, brokenRules))
	m := NewManager(src)

	if err := m.Run(context.Background()); err == nil {
		t.Fatal("Run() with broken rules should fail")
	}
	if _, err := m.Current(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Current() error = %v, want ErrNotLoaded", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
