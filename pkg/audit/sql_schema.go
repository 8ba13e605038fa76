package audit

// SchemaVersion is the current audit schema version.
const SchemaVersion = 1

// Schema creates the audit tables. Times are stored as Unix nanoseconds so the
// same statements work across the SQLite drivers and PostgreSQL.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_passes (
    id TEXT PRIMARY KEY,
    pass_id TEXT NOT NULL,
    rule_set TEXT NOT NULL,
    version TEXT NOT NULL,
    roots TEXT NOT NULL,
    node_count INTEGER NOT NULL,
    evaluated INTEGER NOT NULL,
    seeded INTEGER NOT NULL,
    start_time BIGINT NOT NULL,
    duration_ns BIGINT NOT NULL,
    recorded_at BIGINT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS audit_schema_version (
    version INTEGER PRIMARY KEY,
    applied_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_passes_recorded_at ON audit_passes(recorded_at);
CREATE INDEX IF NOT EXISTS idx_audit_passes_rule_set ON audit_passes(rule_set);
CREATE INDEX IF NOT EXISTS idx_audit_passes_pass_id ON audit_passes(pass_id);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO audit_schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT (version) DO NOTHING
`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `SELECT version FROM audit_schema_version ORDER BY version DESC LIMIT 1`

const insertPass = `
INSERT INTO audit_passes (
    id, pass_id, rule_set, version, roots,
    node_count, evaluated, seeded,
    start_time, duration_ns, recorded_at, error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectPass = `
SELECT id, pass_id, rule_set, version, roots,
    node_count, evaluated, seeded,
    start_time, duration_ns, recorded_at, error
FROM audit_passes
`
