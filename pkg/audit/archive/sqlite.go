package archive

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/audit"
	"github.com/rosetta-labs-erb/authority-boundary-ledger/pkg/authority"
)

// SQLiteArchive stores evicted sessions' audit trails in a standalone
// SQLite database, separate from the live ledger store.
type SQLiteArchive struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Config configures the archive database.
type Config struct {
	// Path is the archive database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteArchive opens (creating if necessary) the archive database.
func NewSQLiteArchive(cfg Config) (*SQLiteArchive, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("archive path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	a := &SQLiteArchive{
		db:     db,
		path:   cfg.Path,
		logger: slog.Default().With("component", "audit.archive"),
	}

	if err := a.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive schema: %w", err)
	}

	a.logger.Info("audit archive opened", "path", cfg.Path)
	return a, nil
}

// initSchema creates the archive schema if it doesn't exist.
func (a *SQLiteArchive) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_events (
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
		recorded_at INTEGER NOT NULL,
		archived_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_archived_session ON archived_events(session_id, seq);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Archive stores a session's full trail. Events are written in trail order
// inside one transaction.
func (a *SQLiteArchive) Archive(ctx context.Context, sessionID string, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	archivedAt := time.Now().UTC().Unix()
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
			`INSERT INTO archived_events
			 (id, session_id, turn, kind, outcome, actor, ring, boundary_type, detail, recorded_at, archived_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			event.ID, sessionID, event.Turn, string(event.Kind), string(event.Outcome),
			event.Actor, ring, boundaryType, event.Detail, event.RecordedAt.UTC().Unix(), archivedAt); err != nil {
			return fmt.Errorf("failed to archive event %s: %w", event.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive transaction: %w", err)
	}

	a.logger.Info("session trail archived",
		"session_id", sessionID,
		"events", len(events),
	)
	return nil
}

// Trail reads back an archived session's events in original order.
func (a *SQLiteArchive) Trail(ctx context.Context, sessionID string) ([]audit.Event, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, turn, kind, outcome, actor, ring, boundary_type, detail, recorded_at
		 FROM archived_events WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived trail: %w", err)
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
			recordedAt   int64
		)
		event.SessionID = sessionID
		if err := rows.Scan(&event.ID, &event.Turn, &kind, &outcome, &event.Actor,
			&ring, &boundaryType, &event.Detail, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived event: %w", err)
		}
		event.Kind = audit.Kind(kind)
		event.Outcome = audit.Outcome(outcome)
		if ring.Valid {
			event.Ring = audit.RingRef(authority.RingLevel(ring.Int64))
		}
		if boundaryType.Valid {
			event.BoundaryType = authority.BoundaryType(boundaryType.String)
		}
		event.RecordedAt = time.Unix(recordedAt, 0).UTC()
		trail = append(trail, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archived trail: %w", err)
	}
	return trail, nil
}

// Close closes the archive database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
