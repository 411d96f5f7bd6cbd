package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"ragroom/internal/domain"

	_ "modernc.org/sqlite"
)

// Archive persists answered turns per room in SQLite. It is best-effort:
// an archive failure never fails the turn that produced it.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewArchive(dbPath string, logger *slog.Logger) (*Archive, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create archive directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open archive: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	a := &Archive{db: db, logger: logger}

	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive migration failed: %w", err)
	}

	return a, nil
}

func (a *Archive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id          TEXT PRIMARY KEY,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS turns (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id     TEXT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
		query       TEXT NOT NULL,
		answer      TEXT NOT NULL,
		sources     TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_turns_room ON turns(room_id, created_at);
	`

	_, err := a.db.Exec(schema)
	return err
}

// RecordTurn appends an answered turn to the room's transcript.
func (a *Archive) RecordTurn(ctx context.Context, roomID string, turn domain.ConversationTurn, sources []string) error {
	now := time.Now()

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO rooms (id, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		roomID, now, now)
	if err != nil {
		return fmt.Errorf("upsert room: %w", err)
	}

	srcJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO turns (room_id, query, answer, sources, created_at) VALUES (?, ?, ?, ?, ?)`,
		roomID, turn.Query, turn.Answer, string(srcJSON), now)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

// History returns the most recent turns for a room, oldest first.
func (a *Archive) History(ctx context.Context, roomID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT query, answer FROM (
			SELECT id, query, answer FROM turns
			WHERE room_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		if err := rows.Scan(&t.Query, &t.Answer); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (a *Archive) Close() error {
	return a.db.Close()
}
