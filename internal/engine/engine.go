package engine

type GameID string

// PlayerID is an opaque identity resolved by the caller; the engine only
// compares it.
type PlayerID string

type Phase string

const (
	PhaseNone        Phase = ""
	PhaseCreated     Phase = "created"
	PhaseJoined      Phase = "joined"
	PhaseLineupP0Set Phase = "lineup_p0_set"
	PhaseLineupP1Set Phase = "lineup_p1_set"
	PhaseActive      Phase = "active"
	PhaseFinished    Phase = "finished"
)

// Game over reasons.
const (
	ReasonCapturedFlag = "captured_flag"
	ReasonFlagLost     = "flag_lost"
	ReasonNoPieces     = "no_pieces_left"
)

// Game is the whole match aggregate. It is a value: Apply never mutates the
// Game it is given.
type Game struct {
	ID        GameID       `json:"id"`
	Players   [2]PlayerID  `json:"players"`
	Phase     Phase        `json:"phase"`
	Turn      Owner        `json:"turn"`
	Board     Board        `json:"board"`
	Live      [2]uint16    `json:"live"`
	FlagPos   [2]CellIndex `json:"flag_pos"`
	LineupSet [2]bool      `json:"lineup_set"`
	Winner    Owner        `json:"winner"`
	Reason    string       `json:"reason,omitempty"`
	Tie       *PendingTie  `json:"tie,omitempty"`
	Rules     Rules        `json:"rules"`
}

// PendingTie exists only while a same-piece combat is unresolved. It is
// replaced, never modified in place, so copies of a Game stay independent.
type PendingTie struct {
	From     CellIndex `json:"from"`
	To       CellIndex `json:"to"`
	Attacker Owner     `json:"attacker"`
	Choices  [2]Choice `json:"choices"`
	Round    int       `json:"round"`
}

type CommandType string

const (
	CmdCreateGame   CommandType = "CreateGame"
	CmdJoinGame     CommandType = "JoinGame"
	CmdSubmitLineup CommandType = "SubmitLineup"
	CmdMovePiece    CommandType = "MovePiece"
	CmdChooseWeapon CommandType = "ChooseWeapon"
)

/*
	CmdCreateGame   -> EvtGameCreated
	CmdJoinGame     -> EvtGameJoined
	CmdSubmitLineup -> EvtLineupSubmitted [-> EvtGameStarted]
	CmdMovePiece    -> EvtMoveMade -> EvtTurnAdvanced
	                 | EvtBattle -> EvtMoveMade -> EvtTurnAdvanced | EvtGameOver
	                 | EvtTieStarted
	CmdChooseWeapon -> EvtTieChoice [-> EvtTieRepeated | EvtTieResolved -> EvtBattle -> EvtTurnAdvanced | EvtGameOver]
*/

type Command struct {
	Type      CommandType `json:"type"`
	Actor     PlayerID    `json:"actor"`
	GameID    GameID      `json:"game_id,omitempty"`
	Rules     *Rules      `json:"rules,omitempty"`
	Positions []CellIndex `json:"positions,omitempty"`
	Pieces    []Piece     `json:"pieces,omitempty"`
	From      CellIndex   `json:"from"`
	To        CellIndex   `json:"to"`
	Choice    Choice      `json:"choice,omitempty"`
}

type EventType string

const (
	EvtGameCreated     EventType = "GameCreated"
	EvtGameJoined      EventType = "GameJoined"
	EvtLineupSubmitted EventType = "LineupSubmitted"
	EvtGameStarted     EventType = "GameStarted"
	EvtMoveMade        EventType = "MoveMade"
	EvtBattle          EventType = "Battle"
	EvtTurnAdvanced    EventType = "TurnAdvanced"
	EvtTieStarted      EventType = "TieStarted"
	EvtTieChoice       EventType = "TieChoice"
	EvtTieRepeated     EventType = "TieRepeated"
	EvtTieResolved     EventType = "TieResolved"
	EvtGameOver        EventType = "GameOver"
)

// Event describes one consequence of an accepted command. From and To are
// NoCell on events that involve no cell. Piece identities
// appear only in Battle events, at the moment combat is resolved; TieChoice
// never carries the choice itself.
type Event struct {
	Type     EventType `json:"type"`
	Player   Owner     `json:"player,omitempty"`
	From     CellIndex `json:"from"`
	To       CellIndex `json:"to"`
	Count    int       `json:"count,omitempty"`
	Attacker Piece     `json:"attacker,omitempty"`
	Defender Piece     `json:"defender,omitempty"`
	Outcome  Outcome   `json:"outcome,omitempty"`
	Choice0  Choice    `json:"choice0,omitempty"`
	Choice1  Choice    `json:"choice1,omitempty"`
	Winner   Owner     `json:"winner,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// seatEvent builds an event that concerns a player but no cell.
func seatEvent(t EventType, player Owner) Event {
	return Event{Type: t, Player: player, From: NoCell, To: NoCell}
}

// Apply validates cmd against g and returns the resulting events and game.
// On error the original game is returned unchanged.
func Apply(g Game, cmd Command) ([]Event, Game, error) {
	if cmd.Type == CmdCreateGame {
		if g.Phase != PhaseNone {
			return nil, g, ErrBadPhase
		}
		return create(cmd)
	}

	if g.Phase == PhaseNone {
		return nil, g, ErrNoGame
	}
	if g.Phase == PhaseFinished {
		return nil, g, ErrGameFinished
	}

	next := g
	var (
		events []Event
		err    error
	)

	switch cmd.Type {
	case CmdJoinGame:
		events, err = join(&next, cmd.Actor)
	case CmdSubmitLineup:
		events, err = submitLineup(&next, cmd.Actor, cmd.Positions, cmd.Pieces)
	case CmdMovePiece:
		events, err = movePiece(&next, cmd.Actor, cmd.From, cmd.To)
	case CmdChooseWeapon:
		events, err = chooseWeapon(&next, cmd.Actor, cmd.Choice)
	default:
		err = ErrUnsupportedCommand
	}

	if err != nil {
		return nil, g, err
	}
	return events, next, nil
}

func create(cmd Command) ([]Event, Game, error) {
	if cmd.Actor == "" {
		return nil, Game{}, ErrNotParticipant
	}
	g := NewGame(cmd.GameID, cmd.Actor, DefaultRules())
	if cmd.Rules != nil {
		if err := cmd.Rules.Validate(); err != nil {
			return nil, Game{}, err
		}
		g.Rules = *cmd.Rules
	}
	return []Event{seatEvent(EvtGameCreated, OwnerP0)}, g, nil
}

func join(g *Game, actor PlayerID) ([]Event, error) {
	if actor == "" || g.SlotOf(actor) != OwnerNone || g.Players[1] != "" {
		return nil, ErrNotAllowedJoinGame
	}
	if g.Phase != PhaseCreated && g.Phase != PhaseLineupP0Set {
		return nil, ErrBadPhase
	}
	g.Players[1] = actor
	g.Phase = DerivePhase(*g)
	return []Event{seatEvent(EvtGameJoined, OwnerP1)}, nil
}

// SlotOf maps a player identity to its side, or OwnerNone for outsiders.
func (g Game) SlotOf(p PlayerID) Owner {
	switch {
	case p == "":
		return OwnerNone
	case p == g.Players[0]:
		return OwnerP0
	case p == g.Players[1]:
		return OwnerP1
	default:
		return OwnerNone
	}
}

func (g *Game) finish(winner Owner, reason string) Event {
	g.Winner = winner
	g.Reason = reason
	g.Phase = PhaseFinished
	e := seatEvent(EvtGameOver, OwnerNone)
	e.Winner, e.Reason = winner, reason
	return e
}

// endTurn passes the move to the opponent of the side that just acted, unless
// the game is over.
func (g *Game) endTurn() []Event {
	if g.Phase == PhaseFinished {
		return nil
	}
	g.Turn = g.Turn.Opponent()
	return []Event{seatEvent(EvtTurnAdvanced, g.Turn)}
}
