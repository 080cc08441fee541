package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS journal_entries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	game_code  TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	type       TEXT NOT NULL,
	actor      TEXT,
	payload    BLOB NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE (game_code, seq)
);`

// SQLJournal stores entries in a local SQLite file.
type SQLJournal struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLJournal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; SQLite serializes anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, stmt := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000", sqliteSchema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLJournal{db: db}, nil
}

func (j *SQLJournal) Append(ctx context.Context, code string, seq int, cmd engine.Command) error {
	e, err := newEntry(code, seq, cmd)
	if err != nil {
		return err
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO journal_entries (game_code, seq, type, actor, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.GameCode, e.Seq, e.Type, e.Actor, e.Payload, e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s/%d", ErrDuplicateSeq, code, seq)
		}
		return fmt.Errorf("append %s/%d: %w", code, seq, err)
	}
	return nil
}

func (j *SQLJournal) Load(ctx context.Context, code string) ([]engine.Command, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT game_code, seq, payload FROM journal_entries WHERE game_code = ? ORDER BY seq ASC`, code)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", code, err)
	}
	defer rows.Close()

	var cmds []engine.Command
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.GameCode, &e.Seq, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan %s: %w", code, err)
		}
		cmd, err := e.command()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, rows.Err()
}

func (j *SQLJournal) Close() error {
	return j.db.Close()
}
