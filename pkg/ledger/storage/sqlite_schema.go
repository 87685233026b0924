package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the ledger database schema.
const Schema = `
-- Ring slots: at most one active boundary record per ring per session
CREATE TABLE IF NOT EXISTS ring_slots (
    session_id TEXT NOT NULL,
    ring INTEGER NOT NULL,

    boundary_type TEXT NOT NULL,
    allowed INTEGER NOT NULL,
    established_by TEXT NOT NULL,
    established_at_turn INTEGER NOT NULL,

    PRIMARY KEY (session_id, ring)
);

-- Audit events: append-only, ordered per session by seq
CREATE TABLE IF NOT EXISTS audit_events (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    session_id TEXT NOT NULL,

    turn INTEGER NOT NULL,
    kind TEXT NOT NULL,
    outcome TEXT NOT NULL,
    actor TEXT NOT NULL,
    ring INTEGER,
    boundary_type TEXT,
    detail TEXT,
    recorded_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_events(session_id, seq);
CREATE INDEX IF NOT EXISTS idx_audit_recorded ON audit_events(session_id, recorded_at);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InsertSchemaVersion records the schema version, ignoring duplicates.
const InsertSchemaVersion = `INSERT OR IGNORE INTO schema_version (version) VALUES (?);`

// GetSchemaVersion reads the highest recorded schema version.
const GetSchemaVersion = `SELECT MAX(version) FROM schema_version;`
