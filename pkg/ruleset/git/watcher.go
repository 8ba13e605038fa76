package git

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"strategos-hq/verdict/pkg/ruleset"
)

// ChangeFunc is called after a pull moved HEAD and touched rule-set files.
// An error is logged and counted; the next change calls it again.
type ChangeFunc func(ctx context.Context, commit *Commit) error

// Watcher polls a cloned repository and reports commits that change rule-set
// files. Commits touching only other files advance the watcher silently.
type Watcher struct {
	repo     *Repository
	interval time.Duration
	onChange ChangeFunc
	logger   *slog.Logger

	mu      sync.Mutex
	lastSHA string
	stats   WatcherStats
}

// WatcherStats counts poll outcomes.
type WatcherStats struct {
	Polls        int64
	Changes      int64
	Skipped      int64
	FailedPolls  int64
	FailedChange int64
}

// NewWatcher returns a watcher polling repo every interval.
func NewWatcher(repo *Repository, interval time.Duration, onChange ChangeFunc, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		repo:     repo,
		interval: interval,
		onChange: onChange,
		logger:   logger.With("component", "ruleset.git.watcher"),
	}
}

// Run polls until ctx is done. The repository must already be cloned.
func (w *Watcher) Run(ctx context.Context) error {
	commit, err := w.repo.CurrentCommit()
	if err != nil {
		return fmt.Errorf("failed to get initial commit: %w", err)
	}

	w.mu.Lock()
	w.lastSHA = commit.SHA
	w.mu.Unlock()

	w.logger.Info("watching repository",
		"repository", commit.Repository,
		"branch", commit.Branch,
		"interval", w.interval,
		"commit", commit.Short())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Check(ctx); err != nil {
				w.logger.Error("poll failed", "error", err)
			}
		}
	}
}

// Check pulls once and calls the change function if rule-set files changed.
func (w *Watcher) Check(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.Polls++

	result, err := w.repo.Pull(ctx)
	if err != nil {
		w.stats.FailedPolls++
		return err
	}
	if !result.HadChanges() {
		return nil
	}
	w.lastSHA = result.ToSHA

	if !touchesRuleSets(result.ChangedFiles) {
		w.stats.Skipped++
		w.logger.Debug("no rule-set files changed",
			"from", shortSHA(result.FromSHA),
			"to", shortSHA(result.ToSHA))
		return nil
	}

	commit, err := w.repo.CurrentCommit()
	if err != nil {
		w.stats.FailedChange++
		return err
	}

	w.logger.Info("rule-set files changed",
		"from", shortSHA(result.FromSHA),
		"to", commit.Short(),
		"files", len(result.ChangedFiles))

	if err := w.onChange(ctx, commit); err != nil {
		w.stats.FailedChange++
		return fmt.Errorf("change at %s rejected: %w", commit.Short(), err)
	}
	w.stats.Changes++
	return nil
}

// LastSHA returns the most recent commit seen.
func (w *Watcher) LastSHA() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSHA
}

// Stats returns a copy of the poll counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func touchesRuleSets(files []string) bool {
	for _, f := range files {
		if ruleset.IsRuleSetFile(f) || ruleset.IsNotesFile(f) {
			return true
		}
	}
	return false
}
