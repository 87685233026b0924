package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/ledger.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on SQLite. Each Mutate runs inside an
// immediate transaction, so the read-modify-write of ring slots plus the
// audit append commit as one unit even with concurrent admin and
// session-level writers.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if necessary) the ledger database at the
// configured path and initializes the schema.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "ledger.storage.sqlite")

	// _txlock=immediate makes every write transaction take the database
	// write lock at BEGIN, so Mutate's read-modify-write cannot deadlock
	// against a concurrent writer upgrading its lock mid-transaction.
	db, err := sql.Open("sqlite3", config.Path+"?_txlock=immediate")
	if err != nil {
		return nil, authority.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite ledger storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return authority.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return authority.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return authority.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return authority.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return authority.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return authority.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Mutate runs fn against the session's slots inside an immediate transaction
// and commits the resulting slots together with the returned audit events.
// The error returned by fn is propagated after the commit, so denial events
// are durable even though the call failed.
func (s *SQLiteStore) Mutate(ctx context.Context, sessionID string, fn MutateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return authority.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	state, err := s.loadSlots(ctx, tx, sessionID)
	if err != nil {
		return err
	}

	events, fnErr := fn(state)

	if err := s.saveSlots(ctx, tx, state); err != nil {
		return err
	}
	if err := s.appendEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return authority.NewStorageError("sqlite", "commit", err)
	}
	return fnErr
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// loadSlots reads the session's ring slots.
func (s *SQLiteStore) loadSlots(ctx context.Context, q querier, sessionID string) (*SessionState, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ring, boundary_type, allowed, established_by, established_at_turn
		 FROM ring_slots WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, authority.NewStorageError("sqlite", "load_slots", err)
	}
	defer rows.Close()

	state := NewSessionState(sessionID)
	for rows.Next() {
		var (
			ring    int
			bt      string
			allowed int
			by      string
			turn    int
		)
		if err := rows.Scan(&ring, &bt, &allowed, &by, &turn); err != nil {
			return nil, authority.NewStorageError("sqlite", "scan_slot", err)
		}
		state.Slots[authority.RingLevel(ring)] = authority.BoundaryRecord{
			Type:              authority.BoundaryType(bt),
			Ring:              authority.RingLevel(ring),
			Allowed:           authority.Action(allowed),
			EstablishedBy:     by,
			EstablishedAtTurn: turn,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, authority.NewStorageError("sqlite", "load_slots", err)
	}
	return state, nil
}

// saveSlots rewrites the session's ring slots within the transaction.
func (s *SQLiteStore) saveSlots(ctx context.Context, tx *sql.Tx, state *SessionState) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ring_slots WHERE session_id = ?`, state.SessionID); err != nil {
		return authority.NewStorageError("sqlite", "clear_slots", err)
	}

	for ring, record := range state.Slots {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ring_slots
			 (session_id, ring, boundary_type, allowed, established_by, established_at_turn)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			state.SessionID, int(ring), string(record.Type), int(record.Allowed),
			record.EstablishedBy, record.EstablishedAtTurn); err != nil {
			return authority.NewStorageError("sqlite", "insert_slot", err)
		}
	}
	return nil
}

// appendEvents inserts audit events within the transaction.
func (s *SQLiteStore) appendEvents(ctx context.Context, tx *sql.Tx, events []audit.Event) error {
	for _, event := range events {
		var ring interface{}
		if event.Ring != nil {
			ring = int(*event.Ring)
		}
		var boundaryType interface{}
		if event.BoundaryType != "" {
			boundaryType = string(event.BoundaryType)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO audit_events
			 (id, session_id, turn, kind, outcome, actor, ring, boundary_type, detail, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID, event.SessionID, event.Turn, string(event.Kind), string(event.Outcome),
			event.Actor, ring, boundaryType, event.Detail, event.RecordedAt); err != nil {
			return authority.NewStorageError("sqlite", "append_event", err)
		}
	}
	return nil
}

// Snapshot returns a copy of the session's current ring slots.
func (s *SQLiteStore) Snapshot(ctx context.Context, sessionID string) (*SessionState, error) {
	return s.loadSlots(ctx, s.db, sessionID)
}

// Trail returns the session's audit events in append order.
func (s *SQLiteStore) Trail(ctx context.Context, sessionID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, turn, kind, outcome, actor, ring, boundary_type, detail, recorded_at
		 FROM audit_events WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, authority.NewStorageError("sqlite", "trail", err)
	}
	defer rows.Close()

	var trail []audit.Event
	for rows.Next() {
		var (
			event        audit.Event
			kind         string
			outcome      string
			ring         sql.NullInt64
			boundaryType sql.NullString
		)
		event.SessionID = sessionID
		if err := rows.Scan(&event.ID, &event.Turn, &kind, &outcome, &event.Actor,
			&ring, &boundaryType, &event.Detail, &event.RecordedAt); err != nil {
			return nil, authority.NewStorageError("sqlite", "scan_event", err)
		}
		event.Kind = audit.Kind(kind)
		event.Outcome = audit.Outcome(outcome)
		if ring.Valid {
			event.Ring = audit.RingRef(authority.RingLevel(ring.Int64))
		}
		if boundaryType.Valid {
			event.BoundaryType = authority.BoundaryType(boundaryType.String)
		}
		trail = append(trail, event)
	}
	if err := rows.Err(); err != nil {
		return nil, authority.NewStorageError("sqlite", "trail", err)
	}
	return trail, nil
}

// Sessions returns the IDs of all sessions with slots or events.
func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM ring_slots
		 UNION SELECT session_id FROM audit_events`)
	if err != nil {
		return nil, authority.NewStorageError("sqlite", "sessions", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, authority.NewStorageError("sqlite", "scan_session", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, authority.NewStorageError("sqlite", "sessions", err)
	}
	return ids, nil
}

// LastActivity returns the recorded time of the session's most recent event.
func (s *SQLiteStore) LastActivity(ctx context.Context, sessionID string) (time.Time, error) {
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(recorded_at) FROM audit_events WHERE session_id = ?`, sessionID).Scan(&last)
	if err != nil {
		return time.Time{}, authority.NewStorageError("sqlite", "last_activity", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

// Evict removes a session's slots and trail.
func (s *SQLiteStore) Evict(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return authority.NewStorageError("sqlite", "begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ring_slots WHERE session_id = ?`, sessionID); err != nil {
		return authority.NewStorageError("sqlite", "evict_slots", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM audit_events WHERE session_id = ?`, sessionID); err != nil {
		return authority.NewStorageError("sqlite", "evict_events", err)
	}

	if err := tx.Commit(); err != nil {
		return authority.NewStorageError("sqlite", "commit", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
