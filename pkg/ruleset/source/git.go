package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
	"strategos-hq/verdict/pkg/ruleset/git"
	"strategos-hq/verdict/pkg/telemetry/logging"
)

// GitSource loads rule sets from a clone of a Git repository and reports new
// commits found by polling.
type GitSource struct {
	cfg    config.GitRulesConfig
	repo   *git.Repository
	parser *ruleset.Parser
	logger *slog.Logger

	cloneOnce sync.Once
	cloneErr  error
}

// NewGitSource prepares a source for cfg. The repository is cloned on the
// first Load.
func NewGitSource(cfg config.GitRulesConfig, strict bool, logger *slog.Logger) (*GitSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := git.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create git repository: %w", err)
	}

	return &GitSource{
		cfg:    cfg,
		repo:   repo,
		parser: ruleset.NewParser().WithStrictMode(strict),
		logger: logger.With("component", "ruleset.source.git"),
	}, nil
}

// Load clones on first use and builds a bundle from the rule-set files in the
// work tree. The bundle revision is the HEAD commit.
func (s *GitSource) Load(ctx context.Context) (*ruleset.Bundle, error) {
	s.cloneOnce.Do(func() {
		s.logger.Info("cloning rule-set repository",
			"repository", logging.RedactURL(s.cfg.Repository),
			"branch", s.cfg.Branch)
		s.cloneErr = s.repo.Clone(ctx)
	})
	if s.cloneErr != nil {
		return nil, s.cloneErr
	}

	commit, err := s.repo.CurrentCommit()
	if err != nil {
		return nil, err
	}

	paths, err := s.repo.ListFiles()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no rule-set files in %s at %s", s.repo.RulesPath(), commit.Short())
	}

	docs, err := s.parser.ParseFiles(paths)
	if err != nil {
		return nil, err
	}

	bundle, err := ruleset.NewBundle(s.String(), docs...)
	if err != nil {
		return nil, err
	}
	bundle.Revision = commit.SHA

	s.logger.Info("loaded rule sets",
		"commit", commit.Short(),
		"files", len(paths),
		"conditions", bundle.Registry.Len())

	return bundle, nil
}

// Watch polls the remote while cfg.Poll.Enabled and sends an event for each
// commit that changes rule-set files. Load must have succeeded first.
func (s *GitSource) Watch(ctx context.Context) (<-chan Event, error) {
	if !s.cfg.Poll.Enabled {
		return closedOnDone(ctx), nil
	}
	if s.cloneErr != nil {
		return nil, s.cloneErr
	}

	events := make(chan Event, 1)
	w := git.NewWatcher(s.repo, s.cfg.Poll.Interval, func(ctx context.Context, c *git.Commit) error {
		select {
		case events <- Event{Source: s.String(), Revision: c.SHA, Timestamp: time.Now()}:
		case <-ctx.Done():
		}
		return nil
	}, s.logger)

	go func() {
		defer close(events)
		if err := w.Run(ctx); err != nil {
			s.logger.Error("git watcher stopped", "error", err)
		}
	}()

	return events, nil
}

// Repository returns the underlying clone.
func (s *GitSource) Repository() *git.Repository {
	return s.repo
}

// String returns "git:" followed by the repository and branch. Credentials
// embedded in the repository URL are masked.
func (s *GitSource) String() string {
	return fmt.Sprintf("git:%s@%s", logging.RedactURL(s.cfg.Repository), s.cfg.Branch)
}
