package source

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TestDebouncer tests that bursts collapse into one callback.
func TestDebouncer(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32

	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
	}
	time.Sleep(100 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callbacks = %d, want 1", got)
	}
}

// TestDebouncer_Stop tests that Stop cancels pending callbacks.
func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32

	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("callbacks after Stop = %d, want 0", got)
	}
}

// TestFileWatcher tests that writes to rule-set files are reported and other
// files are ignored.
func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "capitals.yaml", berlinRules)

	fw, err := NewFileWatcher(FileWatcherConfig{Path: dir, DebounceInterval: 20 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer fw.Close()

	changed := make(chan string, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Watch(ctx, func(path string) { changed <- path }) }()

	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, ".hidden.yaml", "ignored")
	writeFile(t, dir, "capitals.yaml", berlinRules+"      - name: holdsRome\n")

	select {
	case path := <-changed:
		if filepath.Base(path) != "capitals.yaml" {
			t.Errorf("changed path = %q, want capitals.yaml", path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

// TestFileWatcher_Relevant tests which events count as rule-set changes.
func TestFileWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "capitals.yaml", berlinRules)

	dirWatcher, err := NewFileWatcher(FileWatcherConfig{Path: dir}, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer dirWatcher.Close()
	fileWatcher, err := NewFileWatcher(FileWatcherConfig{Path: file}, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error = %v", err)
	}
	defer fileWatcher.Close()

	tests := []struct {
		name     string
		event    fsnotify.Event
		wantDir  bool
		wantFile bool
	}{
		{"rule set", fsnotify.Event{Name: file, Op: fsnotify.Write}, true, true},
		{"notes", fsnotify.Event{Name: filepath.Join(dir, "capitals.notes.html"), Op: fsnotify.Create}, true, true},
		{"other notes", fsnotify.Event{Name: filepath.Join(dir, "south.notes.md"), Op: fsnotify.Write}, true, false},
		{"other rule set", fsnotify.Event{Name: filepath.Join(dir, "south.yml"), Op: fsnotify.Write}, true, false},
		{"text", fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Write}, false, false},
		{"chmod", fsnotify.Event{Name: file, Op: fsnotify.Chmod}, false, false},
	}
	for _, tt := range tests {
		if got := dirWatcher.relevant(tt.event); got != tt.wantDir {
			t.Errorf("%s: directory relevant = %v, want %v", tt.name, got, tt.wantDir)
		}
		if got := fileWatcher.relevant(tt.event); got != tt.wantFile {
			t.Errorf("%s: file relevant = %v, want %v", tt.name, got, tt.wantFile)
		}
	}
}

// TestFileSource_Watch tests events from a watching file source.
func TestFileSource_Watch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "capitals.yaml", berlinRules)

	src := NewFileSource(FileSourceConfig{Path: path, Watch: true, DebounceInterval: 20 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	// Give the watcher goroutine a moment to start reading events.
	time.Sleep(20 * time.Millisecond)
	writeFile(t, dir, "capitals.yaml", berlinRules+"      - name: holdsRome\n")

	select {
	case ev := <-events:
		if ev.Source != src.String() {
			t.Errorf("event source = %q, want %q", ev.Source, src.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	for range events {
	}
}

// TestFileSource_WatchDisabled tests that a non-watching source only closes.
func TestFileSource_WatchDisabled(t *testing.T) {
	src := NewFileSource(FileSourceConfig{Path: t.TempDir()}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	events, _ := src.Watch(ctx)
	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("disabled watch sent an event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
