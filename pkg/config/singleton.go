package config

import (
	"fmt"
	"sync"
)

var (
	// current holds the process-wide configuration.
	current *Config

	// currentPath is the file current was loaded from, reused by Reload.
	currentPath string

	mu sync.RWMutex
)

// Initialize loads configuration from path with environment overrides and
// installs it as the process-wide configuration. Calling it again replaces the
// installed configuration only when loading succeeds.
func Initialize(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return err
	}

	mu.Lock()
	current = cfg
	currentPath = path
	mu.Unlock()
	return nil
}

// Get returns the process-wide configuration, or nil before Initialize.
//
// Prefer passing an explicit *Config in code that is unit tested.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set installs cfg as the process-wide configuration. Intended for tests.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}

// Reload re-reads the file passed to Initialize. On failure the installed
// configuration is kept and the error returned.
func Reload() (*Config, error) {
	mu.RLock()
	path := currentPath
	mu.RUnlock()

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	mu.Lock()
	current = cfg
	mu.Unlock()
	return cfg, nil
}

// MustGet returns the process-wide configuration and panics before Initialize.
func MustGet() *Config {
	cfg := Get()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
