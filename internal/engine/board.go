package engine

import (
	"fmt"
	"strings"
)

const (
	Width  = 7
	Height = 6
	Cells  = Width * Height
)

// NoCell marks an unset cell position (e.g. a flag that is not on the board).
const NoCell CellIndex = -1

// CellIndex is a row-major board index: idx = y*Width + x.
type CellIndex int

func (i CellIndex) Valid() bool { return i >= 0 && i < Cells }

type Owner uint8

const (
	OwnerNone Owner = iota
	OwnerP0
	OwnerP1
)

var ownerNames = [...]string{"none", "p0", "p1"}

func (o Owner) String() string {
	if int(o) < len(ownerNames) {
		return ownerNames[o]
	}
	return fmt.Sprintf("owner(%d)", uint8(o))
}

func (o Owner) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Owner) UnmarshalText(b []byte) error {
	for i, name := range ownerNames {
		if strings.EqualFold(string(b), name) {
			*o = Owner(i)
			return nil
		}
	}
	return fmt.Errorf("unknown owner %q", b)
}

// Opponent returns the other player. OwnerNone has no opponent.
func (o Owner) Opponent() Owner {
	switch o {
	case OwnerP0:
		return OwnerP1
	case OwnerP1:
		return OwnerP0
	default:
		return OwnerNone
	}
}

// slot maps a player to its index in per-player arrays.
func (o Owner) slot() int {
	if o == OwnerP1 {
		return 1
	}
	return 0
}

func ownerOfSlot(slot int) Owner {
	if slot == 1 {
		return OwnerP1
	}
	return OwnerP0
}

type Piece uint8

const (
	PieceEmpty Piece = iota
	PieceRock
	PiecePaper
	PieceScissors
	PieceFlag
	PieceTrap
	// PieceHidden never lives on a Board; it stands in for an opponent piece
	// in a player's view.
	PieceHidden
)

var pieceNames = [...]string{"empty", "rock", "paper", "scissors", "flag", "trap", "hidden"}

func (p Piece) String() string {
	if int(p) < len(pieceNames) {
		return pieceNames[p]
	}
	return fmt.Sprintf("piece(%d)", uint8(p))
}

func (p Piece) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Piece) UnmarshalText(b []byte) error {
	for i, name := range pieceNames {
		if strings.EqualFold(string(b), name) {
			*p = Piece(i)
			return nil
		}
	}
	return fmt.Errorf("unknown piece %q", b)
}

// IsRPS reports whether p is one of the three combat pieces.
func (p Piece) IsRPS() bool {
	return p == PieceRock || p == PiecePaper || p == PieceScissors
}

// Placeable reports whether p may appear in a lineup.
func (p Piece) Placeable() bool {
	return p.IsRPS() || p == PieceFlag || p == PieceTrap
}

// Cell is one board square. Owner is OwnerNone exactly when Piece is PieceEmpty.
type Cell struct {
	Owner Owner `json:"owner"`
	Piece Piece `json:"piece"`
}

func (c Cell) Empty() bool { return c.Owner == OwnerNone }

// Board is a value type; copying a Board copies every cell.
type Board [Cells]Cell

func ToIdx(x, y int) (CellIndex, error) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return NoCell, ErrBadCell
	}
	return CellIndex(y*Width + x), nil
}

func ToXY(idx CellIndex) (x, y int, err error) {
	if !idx.Valid() {
		return 0, 0, ErrBadCell
	}
	return int(idx) % Width, int(idx) / Width, nil
}

func (b *Board) Get(idx CellIndex) Cell {
	return b[idx]
}

// Set writes a cell. A missing owner or an empty piece clears the cell, so the
// owner/piece invariant cannot be broken through Set.
func (b *Board) Set(idx CellIndex, owner Owner, piece Piece) {
	if owner == OwnerNone || piece == PieceEmpty {
		b[idx] = Cell{}
		return
	}
	b[idx] = Cell{Owner: owner, Piece: piece}
}

func (b *Board) Clear(idx CellIndex) { b[idx] = Cell{} }

// Neighbors returns the orthogonally adjacent cells of idx, in up, down,
// left, right order.
func Neighbors(idx CellIndex) []CellIndex {
	x, y, err := ToXY(idx)
	if err != nil {
		return nil
	}
	out := make([]CellIndex, 0, 4)
	if y > 0 {
		out = append(out, idx-Width)
	}
	if y < Height-1 {
		out = append(out, idx+Width)
	}
	if x > 0 {
		out = append(out, idx-1)
	}
	if x < Width-1 {
		out = append(out, idx+1)
	}
	return out
}

// Adjacent reports whether a and b are exactly one orthogonal step apart.
func Adjacent(a, b CellIndex) bool {
	ax, ay, err := ToXY(a)
	if err != nil {
		return false
	}
	bx, by, err := ToXY(b)
	if err != nil {
		return false
	}
	return abs(ax-bx)+abs(ay-by) == 1
}

// InSpawnZone reports whether idx lies in owner's two home rows: P0 owns the
// bottom rows (y >= Height-2), P1 the top rows (y <= 1).
func InSpawnZone(owner Owner, idx CellIndex) bool {
	_, y, err := ToXY(idx)
	if err != nil {
		return false
	}
	switch owner {
	case OwnerP0:
		return y >= Height-2
	case OwnerP1:
		return y <= 1
	default:
		return false
	}
}

func SpawnZone(owner Owner) []CellIndex {
	var out []CellIndex
	for i := CellIndex(0); i < Cells; i++ {
		if InSpawnZone(owner, i) {
			out = append(out, i)
		}
	}
	return out
}

// Consistent reports whether every cell satisfies the owner/piece invariant.
func (b *Board) Consistent() bool {
	for _, c := range b {
		if (c.Owner == OwnerNone) != (c.Piece == PieceEmpty) {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
