package engine

import "math"

// ValidateLineup checks a full placement for owner against b without
// changing anything. Checks run in a fixed order so the first failing rule
// decides the error.
func ValidateLineup(b *Board, owner Owner, positions []CellIndex, pieces []Piece) error {
	if len(positions) != len(pieces) {
		return ErrLineupLengthMismatch
	}
	if len(positions) == 0 {
		return ErrLineupPositionsEmpty
	}

	for _, idx := range positions {
		if !idx.Valid() {
			return ErrBadCell
		}
	}
	for _, idx := range positions {
		if !InSpawnZone(owner, idx) {
			return badRow(owner)
		}
	}

	seen := make(map[CellIndex]bool, len(positions))
	for _, idx := range positions {
		if seen[idx] || !b.Get(idx).Empty() {
			return ErrCellTaken
		}
		seen[idx] = true
	}

	flags := 0
	for _, p := range pieces {
		if !p.Placeable() {
			return ErrOnlyRpsAllowed
		}
		if p == PieceFlag {
			flags++
		}
	}
	if flags != 1 {
		return ErrMustHaveExactlyOneFlag
	}
	return nil
}

func submitLineup(g *Game, actor PlayerID, positions []CellIndex, pieces []Piece) ([]Event, error) {
	owner := g.SlotOf(actor)
	if owner == OwnerNone {
		return nil, ErrNotParticipant
	}
	if g.LineupSet[owner.slot()] {
		return nil, lineupAlreadyPlaced(owner)
	}
	if err := ValidateLineup(&g.Board, owner, positions, pieces); err != nil {
		return nil, err
	}

	s := owner.slot()
	for i, idx := range positions {
		g.Board.Set(idx, owner, pieces[i])
		if pieces[i] == PieceFlag {
			g.FlagPos[s] = idx
		}
		if pieces[i].IsRPS() {
			if g.Live[s] == math.MaxUint16 {
				return nil, ErrOverflow
			}
			g.Live[s]++
		}
	}
	g.LineupSet[s] = true
	g.Phase = DerivePhase(*g)

	submitted := seatEvent(EvtLineupSubmitted, owner)
	submitted.Count = len(positions)
	events := []Event{submitted}
	if g.Phase == PhaseActive {
		g.Turn = OwnerP0
		events = append(events, seatEvent(EvtGameStarted, g.Turn))
	}
	return events, nil
}
