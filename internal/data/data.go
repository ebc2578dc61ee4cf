// internal/data/data.go
package data

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"funnelgate/internal/logger"
)

// Connection pool configuration
const (
	maxOpenConns = 25
	maxIdleConns = 5
	queryTimeout = time.Second * 30
)

// DB wraps the SQLite handle holding checkout and access records.
type DB struct {
	conn *sql.DB
}

// SessionRecord is one created checkout session, kept locally for
// reconciliation against the provider dashboard.
type SessionRecord struct {
	SessionID   string
	Funnel      string
	AmountTotal int64 // minor units
	ItemCount   int
	ClientIP    string
	CreatedAt   time.Time
}

// AccessEntry is one gate decision or payment check.
type AccessEntry struct {
	SessionID string
	Funnel    string
	Outcome   string // granted, denied
	Reason    string
	CreatedAt time.Time
}

// Summary aggregates the stored records.
type Summary struct {
	TotalSessions    int
	GrossAmount      int64 // minor units
	SessionsByFunnel map[string]int
	DecisionCounts   map[string]int
}

// Open opens (creating when necessary) the database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0775); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)

	db := &DB{conn: conn}
	if err := db.ensureSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	logger.LogInfo("Database ready at %s", path)
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) ensureSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	schema := `
	CREATE TABLE IF NOT EXISTS session_records (
		session_id   TEXT PRIMARY KEY,
		funnel       TEXT NOT NULL,
		amount_total INTEGER NOT NULL,
		item_count   INTEGER NOT NULL,
		client_ip    TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS access_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		funnel     TEXT NOT NULL,
		outcome    TEXT NOT NULL,
		reason     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_access_log_session ON access_log(session_id);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}

// InsertSessionRecord stores one created checkout session.
func (db *DB) InsertSessionRecord(ctx context.Context, rec SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO session_records (session_id, funnel, amount_total, item_count, client_ip, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Funnel, rec.AmountTotal, rec.ItemCount, rec.ClientIP,
		rec.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting session record %s: %w", rec.SessionID, err)
	}
	return nil
}

// InsertAccessEntry stores one gate decision.
func (db *DB) InsertAccessEntry(ctx context.Context, entry AccessEntry) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO access_log (session_id, funnel, outcome, reason, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.SessionID, entry.Funnel, entry.Outcome, entry.Reason,
		entry.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting access entry: %w", err)
	}
	return nil
}

// GetSessionRecord loads one stored session by provider identifier.
func (db *DB) GetSessionRecord(ctx context.Context, sessionID string) (*SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rec SessionRecord
	var createdAt string
	err := db.conn.QueryRowContext(ctx,
		`SELECT session_id, funnel, amount_total, item_count, client_ip, created_at
		 FROM session_records WHERE session_id = ?`, sessionID).
		Scan(&rec.SessionID, &rec.Funnel, &rec.AmountTotal, &rec.ItemCount, &rec.ClientIP, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("loading session record %s: %w", sessionID, err)
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &rec, nil
}

// GetSummary aggregates stored sessions and decisions.
func (db *DB) GetSummary(ctx context.Context) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	summary := &Summary{
		SessionsByFunnel: make(map[string]int),
		DecisionCounts:   make(map[string]int),
	}

	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_total), 0) FROM session_records`).
		Scan(&summary.TotalSessions, &summary.GrossAmount)
	if err != nil {
		return nil, fmt.Errorf("summarizing session records: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT funnel, COUNT(*) FROM session_records GROUP BY funnel`)
	if err != nil {
		return nil, fmt.Errorf("summarizing funnels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var funnel string
		var count int
		if err := rows.Scan(&funnel, &count); err != nil {
			return nil, fmt.Errorf("scanning funnel summary: %w", err)
		}
		summary.SessionsByFunnel[funnel] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating funnel summary: %w", err)
	}

	decisionRows, err := db.conn.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM access_log GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("summarizing decisions: %w", err)
	}
	defer decisionRows.Close()
	for decisionRows.Next() {
		var outcome string
		var count int
		if err := decisionRows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scanning decision summary: %w", err)
		}
		summary.DecisionCounts[outcome] = count
	}
	if err := decisionRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decision summary: %w", err)
	}

	return summary, nil
}
