// Package store persists the per-game command journal. A game is recovered by
// replaying its journal through the engine.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
)

// ErrDuplicateSeq is returned when an entry with the same (game, seq) exists.
var ErrDuplicateSeq = errors.New("store: duplicate journal sequence")

// Journal is an append-only log of accepted commands, keyed by game code.
type Journal interface {
	Append(ctx context.Context, code string, seq int, cmd engine.Command) error
	Load(ctx context.Context, code string) ([]engine.Command, error)
	Close() error
}

// Entry is one journaled command.
type Entry struct {
	ID        uint      `gorm:"primaryKey"`
	GameCode  string    `gorm:"size:16;not null;uniqueIndex:idx_journal_game_seq"`
	Seq       int       `gorm:"not null;uniqueIndex:idx_journal_game_seq"`
	Type      string    `gorm:"size:32;not null"`
	Actor     string    `gorm:"size:64"`
	Payload   []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (Entry) TableName() string { return "journal_entries" }

func newEntry(code string, seq int, cmd engine.Command) (Entry, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return Entry{}, fmt.Errorf("encode command: %w", err)
	}
	return Entry{
		GameCode:  code,
		Seq:       seq,
		Type:      string(cmd.Type),
		Actor:     string(cmd.Actor),
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (e Entry) command() (engine.Command, error) {
	var cmd engine.Command
	if err := json.Unmarshal(e.Payload, &cmd); err != nil {
		return engine.Command{}, fmt.Errorf("decode entry %s/%d: %w", e.GameCode, e.Seq, err)
	}
	return cmd, nil
}

// Config selects a backend. DatabaseURL wins over SQLitePath.
type Config struct {
	DatabaseURL string
	SQLitePath  string
}

// Open returns the journal selected by cfg, or nil when neither backend is
// configured and games live in memory only.
func Open(ctx context.Context, cfg Config) (Journal, error) {
	switch {
	case cfg.DatabaseURL != "":
		j, err := OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return j, nil
	case cfg.SQLitePath != "":
		j, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return j, nil
	default:
		return nil, nil
	}
}

// Recover replays the journal of code into a game.
func Recover(ctx context.Context, j Journal, code string) (engine.Game, int, error) {
	cmds, err := j.Load(ctx, code)
	if err != nil {
		return engine.Game{}, 0, err
	}
	g, _, err := engine.Replay(cmds)
	if err != nil {
		return engine.Game{}, 0, fmt.Errorf("recover %s: %w", code, err)
	}
	return g, len(cmds), nil
}
