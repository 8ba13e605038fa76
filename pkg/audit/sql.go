package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// dialect captures the differences between the supported SQL backends.
type dialect struct {
	// backend names the dialect in errors and logs.
	backend string

	// numbered selects $1-style placeholders instead of ?.
	numbered bool
}

var (
	dialectSQLite   = dialect{backend: "sqlite"}
	dialectSQLite3  = dialect{backend: "sqlite3"}
	dialectPostgres = dialect{backend: "postgres", numbered: true}
)

// rebind rewrites ? placeholders for the dialect.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// SQLStorage stores audit records through database/sql. The same
// implementation serves SQLite and PostgreSQL.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

func newSQLStorage(ctx context.Context, db *sql.DB, d dialect) (*SQLStorage, error) {
	s := &SQLStorage{
		db:      db,
		dialect: d,
		logger:  slog.Default().With("component", "audit.storage", "backend", d.backend),
	}
	if err := s.initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// initialize creates the schema and checks its version.
func (s *SQLStorage) initialize(ctx context.Context) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return NewStorageError(s.dialect.backend, "create_schema", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, s.dialect.rebind(InsertSchemaVersion), SchemaVersion, time.Now().UnixNano()); err != nil {
		return NewStorageError(s.dialect.backend, "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError(s.dialect.backend, "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError(s.dialect.backend, "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("audit schema verified", "version", version)
	return nil
}

// Store inserts one record.
func (s *SQLStorage) Store(ctx context.Context, r *PassRecord) error {
	roots, err := json.Marshal(r.Roots)
	if err != nil {
		return NewStorageError(s.dialect.backend, "store", err)
	}

	_, err = s.db.ExecContext(ctx, s.dialect.rebind(insertPass),
		r.ID, r.PassID, r.RuleSet, r.Version, string(roots),
		r.NodeCount, r.Evaluated, r.Seeded,
		r.StartTime.UnixNano(), int64(r.Duration), r.RecordedAt.UnixNano(), r.Error,
	)
	if err != nil {
		return NewStorageError(s.dialect.backend, "store", err)
	}
	return nil
}

// Query returns matching records.
func (s *SQLStorage) Query(ctx context.Context, q *Query) ([]*PassRecord, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	where, args := buildWhere(q)
	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}
	query := selectPass + where + " ORDER BY recorded_at " + order + ", id " + order +
		fmt.Sprintf(" LIMIT %d OFFSET %d", queryLimit(q), q.Offset)

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, NewStorageError(s.dialect.backend, "query", err)
	}
	defer rows.Close()

	records := []*PassRecord{}
	for rows.Next() {
		r, err := scanPass(rows)
		if err != nil {
			return nil, NewStorageError(s.dialect.backend, "scan", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError(s.dialect.backend, "query", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *SQLStorage) Count(ctx context.Context, q *Query) (int64, error) {
	if err := validateQuery(q); err != nil {
		return 0, err
	}

	where, args := buildWhere(q)
	var n int64
	err := s.db.QueryRowContext(ctx, s.dialect.rebind("SELECT COUNT(*) FROM audit_passes"+where), args...).Scan(&n)
	if err != nil {
		return 0, NewStorageError(s.dialect.backend, "count", err)
	}
	return n, nil
}

// Delete removes matching records.
func (s *SQLStorage) Delete(ctx context.Context, q *Query) (int64, error) {
	if err := validateQuery(q); err != nil {
		return 0, err
	}

	where, args := buildWhere(q)
	res, err := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM audit_passes"+where), args...)
	if err != nil {
		return 0, NewStorageError(s.dialect.backend, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, NewStorageError(s.dialect.backend, "delete", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return NewStorageError(s.dialect.backend, "close", err)
	}
	s.logger.Info("audit storage closed")
	return nil
}

// DB exposes the underlying database for tests and maintenance commands.
func (s *SQLStorage) DB() *sql.DB {
	return s.db
}

// buildWhere returns a WHERE clause with ? placeholders, or "".
func buildWhere(q *Query) (string, []any) {
	var conds []string
	var args []any

	if q.StartTime != nil {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, q.StartTime.UnixNano())
	}
	if q.EndTime != nil {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, q.EndTime.UnixNano())
	}
	if q.RuleSet != "" {
		conds = append(conds, "rule_set = ?")
		args = append(args, q.RuleSet)
	}
	if q.PassID != "" {
		conds = append(conds, "pass_id = ?")
		args = append(args, q.PassID)
	}
	switch q.Status {
	case "success":
		conds = append(conds, "error = ''")
	case "error":
		conds = append(conds, "error <> ''")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanPass(rows *sql.Rows) (*PassRecord, error) {
	var (
		r                           PassRecord
		roots                       string
		start, duration, recordedAt int64
	)
	err := rows.Scan(
		&r.ID, &r.PassID, &r.RuleSet, &r.Version, &roots,
		&r.NodeCount, &r.Evaluated, &r.Seeded,
		&start, &duration, &recordedAt, &r.Error,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(roots), &r.Roots); err != nil {
		return nil, fmt.Errorf("decode roots of %s: %w", r.ID, err)
	}
	r.StartTime = time.Unix(0, start)
	r.Duration = time.Duration(duration)
	r.RecordedAt = time.Unix(0, recordedAt)
	return &r, nil
}
