package engine

import "fmt"

func NewGame(id GameID, creator PlayerID, rules Rules) Game {
	g := Game{
		ID:      id,
		Players: [2]PlayerID{creator, ""},
		Turn:    OwnerP0,
		FlagPos: [2]CellIndex{NoCell, NoCell},
		Rules:   rules,
	}
	g.Phase = DerivePhase(g)
	return g
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// DerivePhase computes the phase from who has joined, which lineups are in and
// whether the game has a winner. Active is reached exactly when both lineups
// are placed.
func DerivePhase(g Game) Phase {
	switch {
	case g.Winner != OwnerNone:
		return PhaseFinished
	case g.LineupSet[0] && g.LineupSet[1]:
		return PhaseActive
	case g.LineupSet[0]:
		return PhaseLineupP0Set
	case g.LineupSet[1]:
		return PhaseLineupP1Set
	case g.Players[1] != "":
		return PhaseJoined
	default:
		return PhaseCreated
	}
}

// CheckAnnihilationWin reports the winner when the side that just lost a
// combat, defeated, has no live combat pieces left. The other side's count
// does not matter.
func CheckAnnihilationWin(g Game, defeated Owner) (Owner, bool) {
	if defeated == OwnerNone || g.Live[defeated.slot()] != 0 {
		return OwnerNone, false
	}
	return defeated.Opponent(), true
}

// Replay folds a command log, starting with its CreateGame command, back into
// a game. The engine is deterministic, so a log of accepted commands always
// replays to the same state.
func Replay(cmds []Command) (Game, []Event, error) {
	var (
		g   Game
		all []Event
	)
	for i, cmd := range cmds {
		events, next, err := Apply(g, cmd)
		if err != nil {
			return g, all, fmt.Errorf("replay command %d (%s): %w", i, cmd.Type, err)
		}
		g = next
		all = append(all, events...)
	}
	return g, all, nil
}
