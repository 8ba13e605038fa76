package git

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"strategos-hq/verdict/pkg/config"
	"strategos-hq/verdict/pkg/ruleset"
)

// ErrNotCloned is returned by operations that need a local clone before Clone.
var ErrNotCloned = errors.New("repository not cloned")

// Repository is a local clone of a rule-set repository.
type Repository struct {
	cfg       config.GitRulesConfig
	localPath string
	auth      Auth
	repo      *gogit.Repository
	mu        sync.RWMutex
	stats     Stats
}

// NewRepository validates cfg and prepares a repository. Nothing is fetched
// until Clone.
func NewRepository(cfg config.GitRulesConfig) (*Repository, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}

	auth, err := NewAuth(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth: %w", err)
	}

	localPath := cfg.Clone.LocalPath
	if localPath == "" {
		localPath = filepath.Join(os.TempDir(), "verdict-rules")
	}

	return &Repository{
		cfg:       cfg,
		localPath: localPath,
		auth:      auth,
	}, nil
}

// Clone clones the remote into the local path, or opens an existing clone
// there unless CleanOnStart is set.
func (r *Repository) Clone(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	defer func() { r.stats.CloneDuration = time.Since(start) }()

	if r.cfg.Clone.CleanOnStart {
		if err := os.RemoveAll(r.localPath); err != nil {
			return fmt.Errorf("failed to clean existing clone: %w", err)
		}
	}

	if _, err := os.Stat(filepath.Join(r.localPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing clone: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.localPath, 0755); err != nil {
		return fmt.Errorf("failed to create clone directory: %w", err)
	}

	auth, err := r.auth.Method()
	if err != nil {
		return fmt.Errorf("failed to get auth: %w", err)
	}

	opts := &gogit.CloneOptions{
		URL:           r.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Depth:         r.cfg.Clone.Depth,
		Auth:          auth,
	}

	cloneCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, r.localPath, false, opts)
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", r.cfg.Repository, err)
	}
	r.repo = repo
	return nil
}

// Pull fetches the tracked branch and fast-forwards the work tree.
func (r *Repository) Pull(ctx context.Context) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}
	r.stats.LastPullTime = time.Now()

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	from := head.Hash().String()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	auth, err := r.auth.Method()
	if err != nil {
		return nil, fmt.Errorf("failed to get auth: %w", err)
	}

	pullCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		r.stats.FailedPulls++
		return nil, fmt.Errorf("failed to pull: %w", err)
	}
	r.stats.SuccessfulPulls++

	head, err = r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}

	result := &PullResult{FromSHA: from, ToSHA: head.Hash().String()}
	r.stats.LastPullSHA = result.ToSHA
	if result.HadChanges() {
		files, err := r.changedFiles(result.FromSHA, result.ToSHA)
		if err != nil {
			return nil, fmt.Errorf("failed to get changed files: %w", err)
		}
		result.ChangedFiles = files
	}
	return result, nil
}

// CurrentCommit describes HEAD.
func (r *Repository) CurrentCommit() (*Commit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.repo == nil {
		return nil, ErrNotCloned
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	c, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	return &Commit{
		SHA:        c.Hash.String(),
		Author:     c.Author.Name,
		Email:      c.Author.Email,
		Timestamp:  c.Author.When,
		Message:    strings.TrimSpace(c.Message),
		Branch:     r.cfg.Branch,
		Repository: r.cfg.Repository,
	}, nil
}

// ListFiles returns every rule-set file below RulesPath, sorted. Hidden files
// and directories are skipped.
func (r *Repository) ListFiles() ([]string, error) {
	root := r.RulesPath()
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("rules path does not exist: %w", err)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && ruleset.IsRuleSetFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk rules path: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// ChangedFiles returns the paths, relative to the repository root, that differ
// between two commits.
func (r *Repository) ChangedFiles(fromSHA, toSHA string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changedFiles(fromSHA, toSHA)
}

func (r *Repository) changedFiles(fromSHA, toSHA string) ([]string, error) {
	if r.repo == nil {
		return nil, ErrNotCloned
	}

	from, err := r.repo.CommitObject(plumbing.NewHash(fromSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", shortSHA(fromSHA), err)
	}
	to, err := r.repo.CommitObject(plumbing.NewHash(toSHA))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit %s: %w", shortSHA(toSHA), err)
	}

	fromTree, err := from.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}

	changes, err := fromTree.Diff(toTree)
	if err != nil {
		return nil, fmt.Errorf("failed to diff trees: %w", err)
	}

	files := make([]string, 0, len(changes))
	for _, change := range changes {
		if change.To.Name != "" {
			files = append(files, change.To.Name)
		} else {
			files = append(files, change.From.Name)
		}
	}
	return files, nil
}

// LocalPath returns the clone directory.
func (r *Repository) LocalPath() string {
	return r.localPath
}

// RulesPath returns the directory within the clone holding rule-set files.
func (r *Repository) RulesPath() string {
	return filepath.Join(r.localPath, r.cfg.Path)
}

// Stats returns a copy of the operation counters.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.Poll.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.Poll.Timeout)
}
