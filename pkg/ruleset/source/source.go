package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
)

// Source loads rule-set bundles and reports when a reload is due.
type Source interface {
	// Load reads, builds and validates the current rule sets.
	Load(ctx context.Context) (*ruleset.Bundle, error)

	// Watch returns a channel of change notifications. The channel is closed
	// when ctx is done. Sources that never change return a channel that only
	// closes.
	Watch(ctx context.Context) (<-chan Event, error)

	// String describes the source for logs and bundle metadata.
	String() string
}

// Event signals that a source changed and should be reloaded.
type Event struct {
	// Source is the String of the source that changed.
	Source string

	// Path is the changed file, when known.
	Path string

	// Revision is the new revision, when known before loading (git commits).
	Revision string

	Timestamp time.Time
}

// New returns the source selected by cfg.Mode.
func New(cfg config.RulesConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Mode {
	case "file", "":
		return NewFileSource(FileSourceConfig{
			Path:             cfg.Path,
			Strict:           cfg.Strict,
			Watch:            cfg.Watch,
			DebounceInterval: cfg.DebounceInterval,
		}, logger), nil
	case "git":
		return NewGitSource(cfg.Git, cfg.Strict, logger)
	default:
		return nil, fmt.Errorf("unknown rules mode %q", cfg.Mode)
	}
}

// digest returns a content hash over paths and their contents, in order.
// Notes files present beside a path are hashed after it.
func digest(paths []string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		files := []string{path}
		for _, notes := range ruleset.NotesFiles(path) {
			if _, err := os.Stat(notes); err == nil {
				files = append(files, notes)
			}
		}
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(h, "%s\x00%d\x00", file, len(data))
			h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// closedOnDone returns a channel closed when ctx is done.
func closedOnDone(ctx context.Context) <-chan Event {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
