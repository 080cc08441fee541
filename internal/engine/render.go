package engine

import "strings"

var pieceGlyphs = map[Piece]byte{
	PieceRock:     'r',
	PiecePaper:    'p',
	PieceScissors: 's',
	PieceFlag:     'f',
	PieceTrap:     't',
	PieceHidden:   '?',
}

// Render draws the board with y=0 on top: P0 pieces lower-case, P1 pieces
// upper-case, '.' for empty cells and '?' for hidden pieces.
func Render(b Board) string {
	var sb strings.Builder
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteByte(glyph(b[y*Width+x]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func glyph(c Cell) byte {
	if c.Empty() {
		return '.'
	}
	g, ok := pieceGlyphs[c.Piece]
	if !ok {
		return '.'
	}
	if c.Owner == OwnerP1 && g != '?' {
		g -= 'a' - 'A'
	}
	return g
}
