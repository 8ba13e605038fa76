package audit

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"strategos-hq/verdict/pkg/config"
)

// Open returns the storage backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.AuditConfig) (Storage, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "sqlite3":
		return OpenSQLite(ctx, cfg.Backend, cfg.SQLite)
	case "postgres":
		return OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown audit backend %q", cfg.Backend)
	}
}

// OpenSQLite opens a SQLite database with the given driver: "sqlite" for the
// pure Go driver or "sqlite3" for the cgo one.
func OpenSQLite(ctx context.Context, driver string, cfg config.SQLiteConfig) (*SQLStorage, error) {
	d := dialectSQLite
	if driver == "sqlite3" {
		d = dialectSQLite3
	} else if driver != "sqlite" {
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	if cfg.Path == "" {
		return nil, NewStorageError(d.backend, "open", fmt.Errorf("database path is required"))
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError(d.backend, "open", fmt.Errorf("failed to create directory: %w", err))
		}
	}

	db, err := sql.Open(driver, sqliteDSN(driver, cfg))
	if err != nil {
		return nil, NewStorageError(d.backend, "open", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewStorageError(d.backend, "ping", err)
	}

	s, err := newSQLStorage(ctx, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Info("audit storage opened", "path", cfg.Path, "wal_mode", cfg.WALMode)
	return s, nil
}

// sqliteDSN encodes the journal mode and busy timeout in the DSN so every
// pooled connection gets them. The two drivers spell the parameters differently.
func sqliteDSN(driver string, cfg config.SQLiteConfig) string {
	busy := cfg.BusyTimeout.Milliseconds()
	if driver == "sqlite3" {
		dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, busy)
		if cfg.WALMode {
			dsn += "&_journal_mode=WAL"
		}
		return dsn
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.Path, busy)
	if cfg.WALMode {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	return dsn
}

// OpenPostgres connects to PostgreSQL through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*SQLStorage, error) {
	db, err := sql.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return nil, NewStorageError(dialectPostgres.backend, "open", err)
	}
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(int(cfg.MaxConns))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewStorageError(dialectPostgres.backend, "ping", err)
	}

	s, err := newSQLStorage(ctx, db, dialectPostgres)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.logger.Info("audit storage opened", "host", cfg.Host, "database", cfg.Database)
	return s, nil
}

// PostgresDSN returns cfg.DSN or a postgres:// URL built from the other fields.
func PostgresDSN(cfg config.PostgresConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	if cfg.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {cfg.SSLMode}}.Encode()
	}
	return u.String()
}
