// ABOUTME: SQLite-backed append-only audit log of tool invocations.
// ABOUTME: Records which session invoked which tool with what outcome.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/2389/kyc-gateway/internal/tools"
)

// Outcome classifies how an invocation concluded.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeError    Outcome = "error"
	OutcomeRejected Outcome = "rejected"
)

// AuditEntry is one recorded tool invocation.
type AuditEntry struct {
	ID         string
	SessionID  string
	Tool       string
	Outcome    Outcome
	DurationMS int64
	Timestamp  time.Time
	Detail     string
}

// AuditFilter specifies filtering options for listing audit entries.
type AuditFilter struct {
	Since     *time.Time
	Tool      *string
	SessionID *string
	Limit     int // default 100, max 1000
}

// AuditStore persists the invocation audit log in SQLite.
type AuditStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates an AuditStore at the given path, creating parent directories
// and the schema as needed. WAL mode is enabled for concurrent readers.
func Open(path string) (*AuditStore, error) {
	logger := slog.Default().With("component", "store")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS invocation_audit (
			audit_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			tool_name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			ts TIMESTAMP NOT NULL,
			detail TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_audit_ts ON invocation_audit(ts);
		CREATE INDEX IF NOT EXISTS idx_audit_session ON invocation_audit(session_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("audit store initialized", "path", path)
	return &AuditStore{db: db, logger: logger}, nil
}

// Append writes one entry. ID and Timestamp are generated if unset.
func (s *AuditStore) Append(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO invocation_audit (audit_id, session_id, tool_name, outcome, duration_ms, ts, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.SessionID, e.Tool, string(e.Outcome), e.DurationMS, e.Timestamp, e.Detail,
	)
	if err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// List returns entries newest first, applying the filter.
func (s *AuditStore) List(ctx context.Context, f AuditFilter) ([]*AuditEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `SELECT audit_id, session_id, tool_name, outcome, duration_ms, ts, detail
		FROM invocation_audit WHERE 1=1`
	var args []any
	if f.Since != nil {
		query += " AND ts >= ?"
		args = append(args, *f.Since)
	}
	if f.Tool != nil {
		query += " AND tool_name = ?"
		args = append(args, *f.Tool)
	}
	if f.SessionID != nil {
		query += " AND session_id = ?"
		args = append(args, *f.SessionID)
	}
	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		var e AuditEntry
		var outcome string
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Tool, &outcome, &e.DurationMS, &e.Timestamp, &detail); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.Detail = detail.String
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// RecordInvocation implements tools.Recorder. Failures are logged rather
// than surfaced; auditing must never fail a tool invocation.
func (s *AuditStore) RecordInvocation(ctx context.Context, inv tools.InvocationRecord) {
	entry := &AuditEntry{
		ID:         inv.ID,
		SessionID:  inv.SessionID,
		Tool:       inv.Tool,
		Outcome:    Outcome(inv.Outcome),
		DurationMS: inv.Duration.Milliseconds(),
		Detail:     inv.Detail,
	}
	if err := s.Append(ctx, entry); err != nil {
		s.logger.Warn("failed to record invocation", "tool_name", inv.Tool, "error", err)
	}
}

// Close closes the underlying database.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
