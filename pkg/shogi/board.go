package shogi

import "strings"

// Board is a fixed-size value; copying it gives an independent scratch board.
type Board [squareCount]Piece

// At returns the piece on s, or Empty when s is off the board.
func (b *Board) At(s Square) Piece {
	if !s.OnBoard() {
		return Empty
	}
	return b[s.index()]
}

func (b *Board) set(s Square, p Piece) {
	invariant(s.OnBoard(), "square %v is off the board", s)
	b[s.index()] = p
}

// Put places p on s. It is meant for setting up positions, not for play.
func (b *Board) Put(s Square, p Piece) {
	b.set(s, p)
}

var backRank = [boardSize]PieceType{Lance, Knight, Silver, Gold, King, Gold, Silver, Knight, Lance}

// StandardBoard returns the even-game starting placement.
func StandardBoard() Board {
	var b Board
	for col := 1; col <= boardSize; col++ {
		b.set(Sq(col, 1), NewPiece(backRank[col-1], White, false))
		b.set(Sq(col, 3), NewPiece(Pawn, White, false))
		b.set(Sq(col, 7), NewPiece(Pawn, Black, false))
		b.set(Sq(col, 9), NewPiece(backRank[col-1], Black, false))
	}
	b.set(Sq(2, 2), NewPiece(Bishop, White, false))
	b.set(Sq(8, 2), NewPiece(Rook, White, false))
	b.set(Sq(2, 8), NewPiece(Rook, Black, false))
	b.set(Sq(8, 8), NewPiece(Bishop, Black, false))
	return b
}

// KingSquare finds c's king.
func (b *Board) KingSquare(c Color) (Square, bool) {
	king := NewPiece(King, c, false)
	for idx, p := range b {
		if p == king {
			return squareAt(idx), true
		}
	}
	return Square{}, false
}

// hasPawnOnFile reports whether c already has an unpromoted pawn on col.
func (b *Board) hasPawnOnFile(c Color, col int) bool {
	pawn := NewPiece(Pawn, c, false)
	for row := 1; row <= boardSize; row++ {
		if b.At(Sq(col, row)) == pawn {
			return true
		}
	}
	return false
}

// withMove plays from->to on b, evaluates fn and restores b before returning,
// whatever path fn takes out.
func (b *Board) withMove(from, to Square, fn func() bool) bool {
	moved, captured := b.At(from), b.At(to)
	b.set(to, moved)
	b.set(from, Empty)
	defer func() {
		b.set(from, moved)
		b.set(to, captured)
	}()
	return fn()
}

// withDrop places p on the empty square s for the duration of fn.
func (b *Board) withDrop(s Square, p Piece, fn func() bool) bool {
	invariant(b.At(s).IsEmpty(), "drop target %v is occupied", s)
	b.set(s, p)
	defer b.set(s, Empty)
	return fn()
}

// String draws the board from Black's side, Col 9 on the left.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 1; row <= boardSize; row++ {
		for col := boardSize; col >= 1; col-- {
			text := b.At(Sq(col, row)).String()
			sb.WriteString(text)
			sb.WriteString(strings.Repeat(" ", 4-len(text)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
