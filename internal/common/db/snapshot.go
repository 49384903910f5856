package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/busboard/internal/departures"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS board_snapshots (
	board        TEXT PRIMARY KEY,
	generated_at TEXT NOT NULL,
	records      TEXT NOT NULL,
	updated_at   TEXT NOT NULL
)`

// EnsureSchema creates the snapshot table if it does not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("creating snapshot schema: %w", err)
	}
	return nil
}

// SaveSnapshot replaces the stored board for name. Only the latest board is kept.
func (db *DB) SaveSnapshot(ctx context.Context, name string, b *departures.Board) error {
	records, err := json.Marshal(b.Records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	query := db.rebind(`
		INSERT INTO board_snapshots (board, generated_at, records, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (board) DO UPDATE SET
			generated_at = excluded.generated_at,
			records = excluded.records,
			updated_at = excluded.updated_at
	`)

	_, err = db.conn.ExecContext(ctx, query,
		name,
		b.GeneratedAt.UTC().Format(time.RFC3339Nano),
		string(records),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	db.logger.Debug("Saved board snapshot", "board", name, "records", len(b.Records))
	return nil
}

// LoadSnapshot returns the stored board for name, or nil when none exists
func (db *DB) LoadSnapshot(ctx context.Context, name string) (*departures.Board, error) {
	query := db.rebind(`SELECT generated_at, records FROM board_snapshots WHERE board = ?`)

	var generatedAt, records string
	err := db.conn.QueryRowContext(ctx, query, name).Scan(&generatedAt, &records)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	b := &departures.Board{}
	if b.GeneratedAt, err = time.Parse(time.RFC3339Nano, generatedAt); err != nil {
		return nil, fmt.Errorf("parsing generated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(records), &b.Records); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return b, nil
}
