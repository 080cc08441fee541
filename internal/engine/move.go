package engine

func movePiece(g *Game, actor PlayerID, from, to CellIndex) ([]Event, error) {
	me := g.SlotOf(actor)
	if me == OwnerNone {
		return nil, ErrNotParticipant
	}
	if g.Phase != PhaseActive {
		return nil, ErrGameNotActive
	}
	if g.Tie != nil {
		return nil, ErrTieInProgress
	}
	if me != g.Turn {
		return nil, ErrNotYourTurn
	}
	if !from.Valid() || !to.Valid() {
		return nil, ErrBadCell
	}

	attacker := g.Board.Get(from)
	if attacker.Owner != me {
		return nil, ErrBadCell
	}
	if attacker.Piece == PieceTrap || !Adjacent(from, to) {
		return nil, ErrInvalidMove
	}

	defender := g.Board.Get(to)
	if defender.Owner == me {
		return nil, ErrCannotStackOwnPiece
	}

	moved := Event{Type: EvtMoveMade, Player: me, From: from, To: to}

	if defender.Empty() {
		g.relocate(from, to)
		return append([]Event{moved}, g.endTurn()...), nil
	}

	if defender.Piece == PieceFlag {
		g.relocate(from, to)
		g.FlagPos[defender.Owner.slot()] = NoCell
		return []Event{
			{Type: EvtBattle, Player: me, From: from, To: to, Attacker: attacker.Piece, Defender: defender.Piece, Outcome: OutcomeAttackerWins},
			moved,
			g.finish(me, ReasonCapturedFlag),
		}, nil
	}

	outcome := g.Rules.Resolve(attacker.Piece, defender.Piece)
	if outcome == OutcomeTie {
		g.Tie = &PendingTie{From: from, To: to, Attacker: me}
		return []Event{{Type: EvtTieStarted, Player: me, From: from, To: to}}, nil
	}

	events := []Event{
		{Type: EvtBattle, Player: me, From: from, To: to, Attacker: attacker.Piece, Defender: defender.Piece, Outcome: outcome},
		moved,
	}
	settled, err := g.settle(from, to, outcome)
	if err != nil {
		return nil, err
	}
	return append(events, settled...), nil
}

// relocate moves the piece at from onto to, keeping the flag position current.
func (g *Game) relocate(from, to CellIndex) {
	c := g.Board.Get(from)
	g.Board.Clear(from)
	g.Board.Set(to, c.Owner, c.Piece)
	if c.Piece == PieceFlag {
		g.FlagPos[c.Owner.slot()] = to
	}
}

// settle applies a decided combat between the pieces on from and to, then
// ends the turn or the game. The winner's piece holds to; a losing attacker is
// removed from from and does not retreat.
func (g *Game) settle(from, to CellIndex, outcome Outcome) ([]Event, error) {
	attacker := g.Board.Get(from)
	defender := g.Board.Get(to)

	loser := defender
	if outcome == OutcomeAttackerWins {
		g.relocate(from, to)
	} else {
		loser = attacker
		g.Board.Clear(from)
	}

	if err := g.removeLive(loser); err != nil {
		return nil, err
	}

	if loser.Piece == PieceFlag {
		g.FlagPos[loser.Owner.slot()] = NoCell
		return []Event{g.finish(loser.Owner.Opponent(), ReasonFlagLost)}, nil
	}
	if g.Rules.AnnihilationWin {
		if winner, ok := CheckAnnihilationWin(*g, loser.Owner); ok {
			return []Event{g.finish(winner, ReasonNoPieces)}, nil
		}
	}
	return g.endTurn(), nil
}

func (g *Game) removeLive(c Cell) error {
	if !c.Piece.IsRPS() {
		return nil
	}
	s := c.Owner.slot()
	if g.Live[s] == 0 {
		return ErrOverflow
	}
	g.Live[s]--
	return nil
}
