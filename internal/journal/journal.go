// Package journal persists the registry's emitted event trail to SQLite for
// downstream observers, and can rebuild a registry from a recorded trail to
// verify its coherence.
//
// The journal is one of the "off-chain" observer systems: it implements
// registry.Sink and receives events synchronously in commit order. It never
// holds authoritative state; the registry remains in-memory and host-ordered.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avialog/partregistry/internal/registry"
)

//go:embed schema.sql
var schemaSQL string

// Journal is a SQLite-backed event sink and trace reader.
// Uses WAL mode so trace reads can run while events are being recorded.
type Journal struct {
	db *sql.DB
}

// Open creates or opens a journal database at path (":memory:" works for
// tests). Applies pragmas and the schema; idempotent.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent recording.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Record implements registry.Sink. Inserts are idempotent on event ID
// (ON CONFLICT DO NOTHING) so a re-delivered event is silently ignored.
func (j *Journal) Record(ctx context.Context, ev registry.Event) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events (id, name, part_id, actor, seq, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.Name,
		int64(ev.Part),
		string(ev.Actor),
		ev.Seq,
		string(ev.PayloadJSON()),
	)
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Entry is one journaled event as read back from the database.
type Entry struct {
	ID      string
	Name    string
	Part    registry.PartID
	Actor   registry.Identity
	Seq     int64
	Payload map[string]any // decoded from the stored canonical JSON
	Raw     string         // the stored payload text, verbatim
}

// ReadTrace returns all journaled events in emission order.
func (j *Journal) ReadTrace(ctx context.Context) ([]Entry, error) {
	return j.readEntries(ctx, `
		SELECT id, name, part_id, actor, seq, payload
		FROM events ORDER BY rowid
	`)
}

// ReadPartTrace returns the events for one part in emission order.
func (j *Journal) ReadPartTrace(ctx context.Context, part registry.PartID) ([]Entry, error) {
	return j.readEntries(ctx, `
		SELECT id, name, part_id, actor, seq, payload
		FROM events WHERE part_id = ? ORDER BY rowid
	`, int64(part))
}

// LastSeq returns the highest recorded host sequence number, or 0 for an
// empty journal.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var last sql.NullInt64
	err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return last.Int64, nil
}

func (j *Journal) readEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e    Entry
			part int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &part, &e.Actor, &e.Seq, &e.Raw); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Part = registry.PartID(part)
		if err := json.Unmarshal([]byte(e.Raw), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload for event %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return entries, nil
}
