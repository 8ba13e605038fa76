package git

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"strategos-hq/verdict/pkg/config"
)

// Auth supplies transport credentials for clone and pull.
type Auth interface {
	// Method returns the go-git authentication method, or nil for anonymous access.
	Method() (transport.AuthMethod, error)

	// Type names the authentication scheme for logging.
	Type() string
}

// TokenAuth authenticates HTTPS remotes with a personal access token.
type TokenAuth struct {
	token string
}

// NewTokenAuth returns token authentication.
func NewTokenAuth(token string) *TokenAuth {
	return &TokenAuth{token: token}
}

// Method returns HTTP basic auth carrying the token as password. Hosting
// providers ignore the user name for token authentication.
func (a *TokenAuth) Method() (transport.AuthMethod, error) {
	if a.token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	return &http.BasicAuth{Username: "git", Password: a.token}, nil
}

// Type returns "token".
func (a *TokenAuth) Type() string { return "token" }

// SSHAuth authenticates with a private key file.
type SSHAuth struct {
	keyPath    string
	passphrase string
}

// NewSSHAuth returns key authentication. passphrase may be empty.
func NewSSHAuth(keyPath, passphrase string) *SSHAuth {
	return &SSHAuth{keyPath: keyPath, passphrase: passphrase}
}

// Method loads the key. Keys readable by group or others are rejected.
func (a *SSHAuth) Method() (transport.AuthMethod, error) {
	if a.keyPath == "" {
		return nil, fmt.Errorf("ssh key path cannot be empty")
	}

	info, err := os.Stat(a.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access SSH key file: %w", err)
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
	}

	auth, err := ssh.NewPublicKeysFromFile("git", a.keyPath, a.passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key: %w", err)
	}
	return auth, nil
}

// Type returns "ssh".
func (a *SSHAuth) Type() string { return "ssh" }

// NoAuth is anonymous access for public or local repositories.
type NoAuth struct{}

// Method returns nil.
func (NoAuth) Method() (transport.AuthMethod, error) { return nil, nil }

// Type returns "none".
func (NoAuth) Type() string { return "none" }

// NewAuth selects an Auth from configuration.
func NewAuth(cfg config.GitAuthConfig) (Auth, error) {
	switch cfg.Type {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth requires non-empty token")
		}
		return NewTokenAuth(cfg.Token), nil
	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires ssh_key_path")
		}
		return NewSSHAuth(cfg.SSHKeyPath, cfg.SSHKeyPassphrase), nil
	case "none", "":
		return NoAuth{}, nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", cfg.Type)
	}
}
