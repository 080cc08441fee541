package engine

// PlayerView is what one seat may see of a game. Opponent pieces show only
// their owner; their kind is PieceHidden.
type PlayerView struct {
	ID      GameID       `json:"id"`
	Viewer  Owner        `json:"viewer"`
	Joined  [2]bool      `json:"joined"`
	Phase   Phase        `json:"phase"`
	Turn    Owner        `json:"turn"`
	Board   Board        `json:"board"`
	Live    [2]uint16    `json:"live"`
	FlagPos [2]CellIndex `json:"flag_pos"`
	Lineup  [2]bool      `json:"lineup_set"`
	Tie     *TieView     `json:"tie,omitempty"`
	Winner  Owner        `json:"winner"`
	Reason  string       `json:"reason,omitempty"`
}

// TieView tells who has picked, never what.
type TieView struct {
	From     CellIndex `json:"from"`
	To       CellIndex `json:"to"`
	Attacker Owner     `json:"attacker"`
	Chosen   [2]bool   `json:"chosen"`
	Round    int       `json:"round"`
}

// ViewFor redacts g for viewer. OwnerNone yields a spectator view in which no
// piece kind is visible.
func (g Game) ViewFor(viewer Owner) PlayerView {
	v := PlayerView{
		ID:      g.ID,
		Viewer:  viewer,
		Joined:  [2]bool{g.Players[0] != "", g.Players[1] != ""},
		Phase:   g.Phase,
		Turn:    g.Turn,
		Board:   g.Board,
		Live:    g.Live,
		FlagPos: [2]CellIndex{NoCell, NoCell},
		Lineup:  g.LineupSet,
		Winner:  g.Winner,
		Reason:  g.Reason,
	}
	for i, c := range v.Board {
		if !c.Empty() && c.Owner != viewer {
			v.Board[i].Piece = PieceHidden
		}
	}
	if viewer != OwnerNone {
		v.FlagPos[viewer.slot()] = g.FlagPos[viewer.slot()]
	}
	if g.Tie != nil {
		v.Tie = &TieView{
			From:     g.Tie.From,
			To:       g.Tie.To,
			Attacker: g.Tie.Attacker,
			Chosen:   [2]bool{g.Tie.Choices[0] != ChoiceNone, g.Tie.Choices[1] != ChoiceNone},
			Round:    g.Tie.Round,
		}
	}
	return v
}
