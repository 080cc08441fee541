package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
)

func openTemp(t *testing.T) *SQLJournal {
	t.Helper()
	j, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "rps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func lineup(owner engine.Owner) engine.Command {
	var cmd engine.Command
	cmd.Type = engine.CmdSubmitLineup
	zone := engine.SpawnZone(owner)
	for i, idx := range zone {
		cmd.Positions = append(cmd.Positions, idx)
		if i == 0 {
			cmd.Pieces = append(cmd.Pieces, engine.PieceFlag)
			continue
		}
		cmd.Pieces = append(cmd.Pieces, engine.Piece(i%3)+engine.PieceRock)
	}
	return cmd
}

func sampleLog() []engine.Command {
	l0, l1 := lineup(engine.OwnerP0), lineup(engine.OwnerP1)
	l0.Actor, l1.Actor = "alice", "bob"
	return []engine.Command{
		{Type: engine.CmdCreateGame, Actor: "alice", GameID: "ABC123", Rules: &engine.Rules{AnnihilationWin: false, Trap: engine.TrapInert}},
		{Type: engine.CmdJoinGame, Actor: "bob"},
		l0,
		l1,
	}
}

func TestSQLiteAppendLoad(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	log := sampleLog()
	for i, cmd := range log {
		require.NoError(t, j.Append(ctx, "ABC123", i+1, cmd))
	}
	require.NoError(t, j.Append(ctx, "OTHER1", 1, log[0]))

	got, err := j.Load(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, got, len(log))
	assert.Equal(t, log[0].Rules.Trap, got[0].Rules.Trap)
	assert.Equal(t, log[2].Pieces, got[2].Pieces)
	assert.Equal(t, log[3].Positions, got[3].Positions)

	empty, err := j.Load(ctx, "NOPE00")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteRejectsDuplicateSeq(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	cmd := engine.Command{Type: engine.CmdCreateGame, Actor: "alice"}
	require.NoError(t, j.Append(ctx, "ABC123", 1, cmd))
	err := j.Append(ctx, "ABC123", 1, cmd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateSeq))
}

func TestRecoverReplaysJournal(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	for i, cmd := range sampleLog() {
		require.NoError(t, j.Append(ctx, "ABC123", i+1, cmd))
	}

	g, n, err := Recover(ctx, j, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, engine.PhaseActive, g.Phase)
	assert.Equal(t, engine.TrapInert, g.Rules.Trap)
	assert.False(t, g.Rules.AnnihilationWin)
	assert.True(t, g.Board.Consistent())
}

func TestOpenSelectsBackend(t *testing.T) {
	j, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, j)

	j, err = Open(context.Background(), Config{SQLitePath: filepath.Join(t.TempDir(), "rps.db")})
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.IsType(t, &SQLJournal{}, j)
	assert.NoError(t, j.Close())
}
