package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"strategos-hq/verdict/pkg/ruleset"
)

// DefaultDebounceInterval is used when FileWatcherConfig leaves it zero.
const DefaultDebounceInterval = 100 * time.Millisecond

// FileWatcherConfig configures a FileWatcher.
type FileWatcherConfig struct {
	// Path is a rule-set file or a directory of rule-set files.
	Path string

	// DebounceInterval is the quiet period after the last event before the
	// change callback runs.
	DebounceInterval time.Duration
}

// FileWatcher reports changes to rule-set files. A single file is watched
// through its parent directory so that editors replacing the file by rename
// are still seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	cfg      FileWatcherConfig
	dir      string
	file     string
	debounce *Debouncer
	logger   *slog.Logger
}

// NewFileWatcher creates a watcher for cfg.Path, which must exist.
func NewFileWatcher(cfg FileWatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}

	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch path: %w", err)
	}

	fw := &FileWatcher{
		cfg:      cfg,
		dir:      filepath.Clean(cfg.Path),
		debounce: NewDebouncer(cfg.DebounceInterval),
		logger:   logger,
	}
	if !info.IsDir() {
		fw.dir = filepath.Dir(fw.dir)
		fw.file = filepath.Clean(cfg.Path)
	}

	if fw.watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.watcher.Add(fw.dir); err != nil {
		fw.watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", fw.dir, err)
	}
	return fw, nil
}

// Watch blocks until ctx is done, calling onChange with the last changed path
// once events have been quiet for the debounce interval. No callback runs
// after Watch returns.
func (fw *FileWatcher) Watch(ctx context.Context, onChange func(path string)) error {
	defer fw.debounce.Stop()

	fw.logger.Info("watching rule sets",
		"path", fw.cfg.Path,
		"debounce", fw.cfg.DebounceInterval)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("rule-set file event", "path", event.Name, "op", event.Op.String())

			path := event.Name
			fw.debounce.Trigger(func() { onChange(path) })

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

// Close releases the fsnotify watcher.
func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Clean(event.Name)
	if fw.file != "" {
		return name == fw.file || slices.Contains(ruleset.NotesFiles(fw.file), name)
	}
	base := filepath.Base(name)
	return !strings.HasPrefix(base, ".") && (ruleset.IsRuleSetFile(base) || ruleset.IsNotesFile(base))
}

// Debouncer coalesces bursts of events into one callback after a quiet period.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	// firing is held while a callback runs so Stop can wait for it.
	firing sync.Mutex
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback after the quiet period, replacing any callback
// still pending. It does nothing after Stop.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.firing.Lock()
		defer d.firing.Unlock()

		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			callback()
		}
	})
}

// Stop cancels any pending callback and waits for a running one to finish.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.firing.Lock()
	d.firing.Unlock()
}
