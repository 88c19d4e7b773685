package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaderboard (
	name       TEXT PRIMARY KEY,
	score      INTEGER NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS leaderboard_score ON leaderboard (score DESC);`

// SQLite is a Store backed by a SQLite file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. seed is inserted only into an
// empty board.
func OpenSQLite(ctx context.Context, path string, seed ...Entry) (*SQLite, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single writer keeps upsert-then-trim atomic and makes ":memory:" usable.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLite{db: db}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM leaderboard`).Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("count entries: %w", err)
	}
	if n == 0 {
		for _, e := range seed {
			if err := s.Submit(ctx, e.Name, e.Score); err != nil {
				db.Close()
				return nil, fmt.Errorf("seed %s: %w", e.Name, err)
			}
		}
	}
	return s, nil
}

// Submit upserts the score when it beats the stored one, then trims the board to MaxEntries.
func (s *SQLite) Submit(ctx context.Context, name string, score int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if score <= 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO leaderboard (name, score) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET score = excluded.score, updated_at = CURRENT_TIMESTAMP
		WHERE excluded.score > leaderboard.score`, name, score); err != nil {
		return fmt.Errorf("upsert %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM leaderboard WHERE name NOT IN (
			SELECT name FROM leaderboard ORDER BY score DESC, updated_at ASC, name ASC LIMIT ?
		)`, MaxEntries); err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	return tx.Commit()
}

// Top returns up to n entries, or all of them when n <= 0.
func (s *SQLite) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = MaxEntries
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, score FROM leaderboard
		ORDER BY score DESC, updated_at ASC, name ASC
		LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Score); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
