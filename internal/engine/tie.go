package engine

// chooseWeapon records one side's blind pick for the pending tie. Once both
// sides have picked, the picks are compared: a decisive pair settles the
// original combat, an equal pair re-arms the tie for another round. The turn
// stays with the attacker until the tie is settled.
func chooseWeapon(g *Game, actor PlayerID, choice Choice) ([]Event, error) {
	me := g.SlotOf(actor)
	if me == OwnerNone {
		return nil, ErrNotParticipant
	}
	if g.Phase != PhaseActive {
		return nil, ErrGameNotActive
	}
	if g.Tie == nil {
		return nil, ErrNoTiePending
	}
	tie := *g.Tie
	if me != tie.Attacker && me != tie.Attacker.Opponent() {
		return nil, ErrBadPhase
	}
	if !choice.Valid() {
		return nil, ErrOnlyRpsAllowed
	}
	if tie.Choices[me.slot()] != ChoiceNone {
		return nil, ErrAlreadyChose
	}

	tie.Choices[me.slot()] = choice
	g.Tie = &tie
	events := []Event{{Type: EvtTieChoice, Player: me, From: tie.From, To: tie.To}}

	c0, c1 := tie.Choices[0], tie.Choices[1]
	if c0 == ChoiceNone || c1 == ChoiceNone {
		return events, nil
	}

	att := tie.Attacker
	outcome := DecideChoices(tie.Choices[att.slot()], tie.Choices[att.Opponent().slot()])
	if outcome == OutcomeTie {
		g.Tie = &PendingTie{From: tie.From, To: tie.To, Attacker: att, Round: tie.Round + 1}
		return append(events, Event{Type: EvtTieRepeated, From: tie.From, To: tie.To, Choice0: c0, Choice1: c1}), nil
	}

	winner := att
	if outcome == OutcomeDefenderWins {
		winner = att.Opponent()
	}
	attacker, defender := g.Board.Get(tie.From), g.Board.Get(tie.To)
	g.Tie = nil
	events = append(events,
		Event{Type: EvtTieResolved, From: tie.From, To: tie.To, Choice0: c0, Choice1: c1, Outcome: outcome, Winner: winner},
		Event{Type: EvtBattle, Player: att, From: tie.From, To: tie.To, Attacker: attacker.Piece, Defender: defender.Piece, Outcome: outcome},
	)
	settled, err := g.settle(tie.From, tie.To, outcome)
	if err != nil {
		return nil, err
	}
	return append(events, settled...), nil
}
