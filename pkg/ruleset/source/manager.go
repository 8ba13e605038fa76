package source

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"strategos-hq/verdict/pkg/ruleset"
)

// ErrNotLoaded is returned by Manager.Current before the first successful load.
var ErrNotLoaded = errors.New("no rule set loaded")

// ReloadObserver is notified after every load attempt.
type ReloadObserver interface {
	ObserveReload(source string, bundle *ruleset.Bundle, duration time.Duration, err error)
}

// Status describes the manager state.
type Status struct {
	Source     string
	Name       string
	Version    string
	Revision   string
	Notes      string
	Conditions int
	LoadedAt   time.Time
	LastError  error
	Reloads    int64
	Failures   int64
}

// Manager holds the current bundle of a Source and swaps it on reload. A
// failed reload keeps the previous bundle, so readers always see the last
// good rule set.
type Manager struct {
	source    Source
	logger    *slog.Logger
	observers []ReloadObserver

	mu       sync.RWMutex
	current  *ruleset.Bundle
	lastErr  error
	reloads  int64
	failures int64

	// reloadMu serialises loads so two reloads never race on the swap.
	reloadMu sync.Mutex
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithReloadObserver adds an observer notified after each load.
func WithReloadObserver(o ReloadObserver) ManagerOption {
	return func(m *Manager) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// NewManager returns a manager for src. Nothing is loaded until Reload or Run.
func NewManager(src Source, opts ...ManagerOption) *Manager {
	m := &Manager{
		source: src,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "ruleset.manager")
	return m
}

// Current returns the active bundle.
func (m *Manager) Current() (*ruleset.Bundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.current == nil {
		if m.lastErr != nil {
			return nil, errors.Join(ErrNotLoaded, m.lastErr)
		}
		return nil, ErrNotLoaded
	}
	return m.current, nil
}

// Ready reports whether a bundle is loaded.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// Reload loads the source and, on success, makes the result current.
func (m *Manager) Reload(ctx context.Context) (*ruleset.Bundle, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	start := time.Now()
	bundle, err := m.source.Load(ctx)
	duration := time.Since(start)

	m.mu.Lock()
	if err != nil {
		m.failures++
		m.lastErr = err
	} else {
		m.reloads++
		m.lastErr = nil
		m.current = bundle
	}
	m.mu.Unlock()

	for _, o := range m.observers {
		o.ObserveReload(m.source.String(), bundle, duration, err)
	}

	if err != nil {
		m.logger.Error("rule-set load failed, keeping previous rule set",
			"source", m.source.String(),
			"error", err,
			"duration", duration)
		return nil, err
	}

	m.logger.Info("rule set loaded",
		"source", m.source.String(),
		"name", bundle.Name,
		"version", bundle.Version,
		"revision", bundle.Revision,
		"conditions", bundle.Registry.Len(),
		"duration", duration)
	return bundle, nil
}

// Run loads the source once and then reloads on every change event until ctx
// is done. It returns the initial load error, if any.
func (m *Manager) Run(ctx context.Context) error {
	if _, err := m.Reload(ctx); err != nil {
		return err
	}

	events, err := m.source.Watch(ctx)
	if err != nil {
		return err
	}

	for ev := range events {
		m.logger.Debug("rule-set change detected",
			"source", ev.Source,
			"path", ev.Path,
			"revision", ev.Revision)
		// Reload errors are logged and counted; the previous bundle stays current.
		_, _ = m.Reload(ctx)
	}
	return nil
}

// Status returns a snapshot of the manager state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		Source:    m.source.String(),
		LastError: m.lastErr,
		Reloads:   m.reloads,
		Failures:  m.failures,
	}
	if b := m.current; b != nil {
		st.Name = b.Name
		st.Version = b.Version
		st.Revision = b.Revision
		st.Notes = b.Notes
		st.Conditions = b.Registry.Len()
		st.LoadedAt = b.LoadedAt
	}
	return st
}
