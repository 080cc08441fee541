package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice PlayerID = "alice"
	bob   PlayerID = "bob"
	carol PlayerID = "carol"
)

func at(x, y int) CellIndex {
	idx, err := ToIdx(x, y)
	if err != nil {
		panic(err)
	}
	return idx
}

func mustApply(t *testing.T, g Game, cmd Command) ([]Event, Game) {
	t.Helper()
	events, next, err := Apply(g, cmd)
	require.NoError(t, err, "apply %s", cmd.Type)
	return events, next
}

func createCmd(rules Rules) Command {
	return Command{Type: CmdCreateGame, Actor: alice, GameID: "ZED123", Rules: &rules}
}

// fullLineup fills both spawn rows of owner: the flag at flagX on the back row,
// every other cell cycling rock, paper, scissors.
func fullLineup(owner Owner, flagX int) ([]CellIndex, []Piece) {
	back := Height - 1
	if owner == OwnerP1 {
		back = 0
	}
	var (
		positions []CellIndex
		pieces    []Piece
	)
	for _, idx := range SpawnZone(owner) {
		x, y, _ := ToXY(idx)
		positions = append(positions, idx)
		if x == flagX && y == back {
			pieces = append(pieces, PieceFlag)
			continue
		}
		pieces = append(pieces, Piece(len(pieces)%3)+PieceRock)
	}
	return positions, pieces
}

func lineupCmd(actor PlayerID, owner Owner) Command {
	pos, pcs := fullLineup(owner, 3)
	return Command{Type: CmdSubmitLineup, Actor: actor, Positions: pos, Pieces: pcs}
}

func newJoinedGame(t *testing.T) Game {
	t.Helper()
	_, g := mustApply(t, Game{}, createCmd(DefaultRules()))
	_, g = mustApply(t, g, Command{Type: CmdJoinGame, Actor: bob})
	return g
}

func newActiveGame(t *testing.T) Game {
	t.Helper()
	g := newJoinedGame(t)
	_, g = mustApply(t, g, lineupCmd(alice, OwnerP0))
	_, g = mustApply(t, g, lineupCmd(bob, OwnerP1))
	require.Equal(t, PhaseActive, g.Phase)
	return g
}

// arena is an active game on a cleared board holding only cells, plus one
// reserve paper per side in the far corners so a single capture never ends the
// game by annihilation.
func arena(t *testing.T, cells map[CellIndex]Cell) Game {
	t.Helper()
	g := newActiveGame(t)
	g.Board = Board{}
	g.Live = [2]uint16{}
	g.FlagPos = [2]CellIndex{NoCell, NoCell}

	all := map[CellIndex]Cell{
		at(0, 5): {Owner: OwnerP0, Piece: PiecePaper},
		at(6, 0): {Owner: OwnerP1, Piece: PiecePaper},
	}
	for idx, c := range cells {
		all[idx] = c
	}
	for idx, c := range all {
		g.Board.Set(idx, c.Owner, c.Piece)
		if c.Piece.IsRPS() {
			g.Live[c.Owner.slot()]++
		}
		if c.Piece == PieceFlag {
			g.FlagPos[c.Owner.slot()] = idx
		}
	}
	return g
}

func p0(p Piece) Cell { return Cell{Owner: OwnerP0, Piece: p} }
func p1(p Piece) Cell { return Cell{Owner: OwnerP1, Piece: p} }

func move(actor PlayerID, from, to CellIndex) Command {
	return Command{Type: CmdMovePiece, Actor: actor, From: from, To: to}
}

func choose(actor PlayerID, c Choice) Command {
	return Command{Type: CmdChooseWeapon, Actor: actor, Choice: c}
}

func TestCreateGame(t *testing.T) {
	events, g := mustApply(t, Game{}, createCmd(DefaultRules()))

	assert.Equal(t, PhaseCreated, g.Phase)
	assert.Equal(t, GameID("ZED123"), g.ID)
	assert.Equal(t, [2]PlayerID{alice, ""}, g.Players)
	assert.Equal(t, [2]CellIndex{NoCell, NoCell}, g.FlagPos)
	assert.Equal(t, Board{}, g.Board)
	assert.Nil(t, g.Tie)
	assert.Equal(t, OwnerNone, g.Winner)
	assert.True(t, ContainsEvent(events, EvtGameCreated))

	_, _, err := Apply(g, createCmd(DefaultRules()))
	assert.ErrorIs(t, err, ErrBadPhase)

	_, _, err = Apply(Game{}, Command{Type: CmdCreateGame})
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestCreateGameRejectsUnknownRules(t *testing.T) {
	_, g, err := Apply(Game{}, createCmd(Rules{AnnihilationWin: true, Trap: "bogus"}))
	require.ErrorIs(t, err, ErrUnknownRule)
	assert.Equal(t, Game{}, g)

	_, g = mustApply(t, Game{}, createCmd(Rules{Trap: TrapInert}))
	assert.Equal(t, TrapInert, g.Rules.Trap)
	assert.False(t, g.Rules.AnnihilationWin)
}

func TestEventsWithoutACellUseNoCell(t *testing.T) {
	_, events, err := Replay([]Command{
		createCmd(DefaultRules()),
		{Type: CmdJoinGame, Actor: bob},
		lineupCmd(alice, OwnerP0),
		lineupCmd(bob, OwnerP1),
	})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, NoCell, e.From, "%s", e.Type)
		assert.Equal(t, NoCell, e.To, "%s", e.Type)
	}

	raw, err := json.Marshal(events[0])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"from":-1`)
	assert.Contains(t, string(raw), `"to":-1`)
}

func TestCommandsNeedAGame(t *testing.T) {
	_, _, err := Apply(Game{}, Command{Type: CmdJoinGame, Actor: bob})
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestJoinGame(t *testing.T) {
	_, created := mustApply(t, Game{}, createCmd(DefaultRules()))

	cases := []struct {
		name    string
		setup   Game
		actor   PlayerID
		wantErr error
	}{
		{name: "second player joins", setup: created, actor: bob},
		{name: "creator cannot join own game", setup: created, actor: alice, wantErr: ErrNotAllowedJoinGame},
		{name: "empty identity rejected", setup: created, actor: "", wantErr: ErrNotAllowedJoinGame},
		{name: "full game rejects third player", setup: newJoinedGame(t), actor: carol, wantErr: ErrNotAllowedJoinGame},
		{name: "joined player cannot join twice", setup: newJoinedGame(t), actor: bob, wantErr: ErrNotAllowedJoinGame},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, g, err := Apply(tc.setup, Command{Type: CmdJoinGame, Actor: tc.actor})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.setup, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, PhaseJoined, g.Phase)
			assert.Equal(t, tc.actor, g.Players[1])
			assert.True(t, ContainsEvent(events, EvtGameJoined))
		})
	}
}

func TestLineupBeforeJoin(t *testing.T) {
	_, g := mustApply(t, Game{}, createCmd(DefaultRules()))
	_, g = mustApply(t, g, lineupCmd(alice, OwnerP0))
	assert.Equal(t, PhaseLineupP0Set, g.Phase)

	_, g = mustApply(t, g, Command{Type: CmdJoinGame, Actor: bob})
	assert.Equal(t, PhaseLineupP0Set, g.Phase, "join keeps the lineup phase")

	events, g := mustApply(t, g, lineupCmd(bob, OwnerP1))
	assert.Equal(t, PhaseActive, g.Phase)
	assert.Equal(t, OwnerP0, g.Turn)
	assert.True(t, ContainsEvent(events, EvtGameStarted))
}

func TestPhaseProgression(t *testing.T) {
	g := newJoinedGame(t)

	_, g = mustApply(t, g, lineupCmd(bob, OwnerP1))
	assert.Equal(t, PhaseLineupP1Set, g.Phase)

	_, _, err := Apply(g, lineupCmd(bob, OwnerP1))
	assert.ErrorIs(t, err, ErrPlayer1LineupAlreadyPlaced)

	events, g := mustApply(t, g, lineupCmd(alice, OwnerP0))
	assert.Equal(t, PhaseActive, g.Phase)
	assert.Equal(t, OwnerP0, g.Turn, "turn is seeded to P0")
	assert.True(t, ContainsEvent(events, EvtGameStarted))

	_, _, err = Apply(g, lineupCmd(alice, OwnerP0))
	assert.ErrorIs(t, err, ErrPlayer0LineupAlreadyPlaced)

	_, _, err = Apply(g, Command{Type: CmdJoinGame, Actor: carol})
	assert.ErrorIs(t, err, ErrNotAllowedJoinGame)
}

func TestDerivePhase(t *testing.T) {
	cases := []struct {
		name string
		g    Game
		want Phase
	}{
		{name: "created", g: Game{Players: [2]PlayerID{alice}}, want: PhaseCreated},
		{name: "joined", g: Game{Players: [2]PlayerID{alice, bob}}, want: PhaseJoined},
		{name: "p0 lineup", g: Game{LineupSet: [2]bool{true, false}}, want: PhaseLineupP0Set},
		{name: "p1 lineup", g: Game{Players: [2]PlayerID{alice, bob}, LineupSet: [2]bool{false, true}}, want: PhaseLineupP1Set},
		{name: "both lineups", g: Game{LineupSet: [2]bool{true, true}}, want: PhaseActive},
		{name: "winner", g: Game{LineupSet: [2]bool{true, true}, Winner: OwnerP1}, want: PhaseFinished},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DerivePhase(tc.g))
		})
	}
}

func TestOutsiderIsRejected(t *testing.T) {
	g := newActiveGame(t)
	cmds := []Command{
		lineupCmd(carol, OwnerP0),
		move(carol, at(3, 4), at(3, 3)),
		choose(carol, ChoiceRock),
	}
	for _, cmd := range cmds {
		_, _, err := Apply(g, cmd)
		assert.ErrorIs(t, err, ErrNotParticipant, "%s", cmd.Type)
	}
}

func TestUnsupportedCommand(t *testing.T) {
	g := newActiveGame(t)
	_, _, err := Apply(g, Command{Type: "Resign", Actor: alice})
	assert.True(t, errors.Is(err, ErrUnsupportedCommand))
}

func TestFinishedGameRejectsEverything(t *testing.T) {
	g := arena(t, map[CellIndex]Cell{
		at(3, 1): p0(PieceRock),
		at(3, 0): p1(PieceFlag),
	})
	_, g = mustApply(t, g, move(alice, at(3, 1), at(3, 0)))
	require.Equal(t, PhaseFinished, g.Phase)

	cmds := []Command{
		createCmd(DefaultRules()),
		{Type: CmdJoinGame, Actor: carol},
		lineupCmd(alice, OwnerP0),
		move(bob, at(6, 0), at(6, 1)),
		move(alice, at(0, 5), at(0, 4)),
		choose(alice, ChoiceRock),
		{Type: "Resign", Actor: bob},
	}
	for _, cmd := range cmds {
		events, after, err := Apply(g, cmd)
		assert.Error(t, err, "%s must be rejected", cmd.Type)
		assert.Nil(t, events)
		assert.Equal(t, g, after)
	}
}

func TestRejectedCommandLeavesGameUntouched(t *testing.T) {
	g := newJoinedGame(t)
	pos, pcs := fullLineup(OwnerP0, 3)
	// last position is bad; nothing before it may be written
	pos[len(pos)-1] = at(0, 2)

	_, after, err := Apply(g, Command{Type: CmdSubmitLineup, Actor: alice, Positions: pos, Pieces: pcs})
	require.ErrorIs(t, err, ErrPlayer0BadRow)
	assert.Equal(t, g, after)
	assert.Equal(t, Board{}, after.Board)
	assert.Equal(t, [2]uint16{}, after.Live)
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	g := arena(t, map[CellIndex]Cell{
		at(3, 3): p0(PieceRock),
		at(3, 2): p1(PieceRock),
	})
	_, tied := mustApply(t, g, move(alice, at(3, 3), at(3, 2)))
	require.NotNil(t, tied.Tie)

	_, chosen := mustApply(t, tied, choose(alice, ChoicePaper))
	assert.Equal(t, ChoiceNone, tied.Tie.Choices[0], "earlier snapshot must not see the new choice")
	assert.Equal(t, ChoicePaper, chosen.Tie.Choices[0])
	assert.Nil(t, g.Tie)
}

func TestReplayReproducesGame(t *testing.T) {
	cmds := []Command{
		createCmd(DefaultRules()),
		{Type: CmdJoinGame, Actor: bob},
		lineupCmd(alice, OwnerP0),
		lineupCmd(bob, OwnerP1),
		move(alice, at(3, 4), at(3, 3)),
		move(bob, at(0, 1), at(0, 2)),
	}
	var want Game
	for _, cmd := range cmds {
		_, want = mustApply(t, want, cmd)
	}

	got, events, err := Replay(cmds)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, ContainsEvent(events, EvtGameStarted))
	assert.True(t, ContainsEvent(events, EvtMoveMade))

	_, _, err = Replay(append(cmds, move(bob, at(1, 1), at(1, 2))))
	require.ErrorIs(t, err, ErrNotYourTurn)
	assert.Contains(t, err.Error(), "replay command 6")
}

func TestBoardInvariantHoldsThroughAGame(t *testing.T) {
	g := newActiveGame(t)
	script := []Command{
		move(alice, at(3, 4), at(3, 3)),
		move(bob, at(3, 1), at(3, 2)),
		move(alice, at(3, 3), at(3, 2)),
	}
	for _, cmd := range script {
		_, next, err := Apply(g, cmd)
		if err == nil {
			g = next
		}
		require.True(t, g.Board.Consistent())
		for p := 0; p < 4 && g.Tie != nil; p++ {
			c := Choice(p%3) + ChoiceRock
			_, g = mustApply(t, g, choose(alice, c))
			_, g = mustApply(t, g, choose(bob, Choice((p+1)%3)+ChoiceRock))
			require.True(t, g.Board.Consistent())
		}
	}
}

func TestErrorKinds(t *testing.T) {
	assert.Equal(t, KindStructural, KindOf(ErrBadCell))
	assert.Equal(t, KindAuthorization, KindOf(ErrNotYourTurn))
	assert.Equal(t, KindPhase, KindOf(ErrTieInProgress))
	assert.Equal(t, KindPlacement, KindOf(ErrCellTaken))
	assert.Equal(t, KindMovement, KindOf(ErrInvalidMove))
	assert.Equal(t, KindArithmetic, KindOf(ErrOverflow))
	assert.Equal(t, "NotYourTurn", CodeOf(ErrNotYourTurn))

	wrapped := errors.Join(errors.New("context"), ErrCellTaken)
	assert.Equal(t, KindPlacement, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
