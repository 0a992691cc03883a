package shogi

import "fmt"

const boardSize = 9

const squareCount = boardSize * boardSize

// Square is a notation coordinate: Col 1..9 counted from the right edge as
// seen by Black, Row 1..9 counted from White's side toward Black's.
type Square struct {
	Col int
	Row int
}

// Sq is shorthand for Square{Col: col, Row: row}.
func Sq(col, row int) Square {
	return Square{Col: col, Row: row}
}

// OnBoard reports whether s lies on the 9x9 board.
func (s Square) OnBoard() bool {
	return s.Col >= 1 && s.Col <= boardSize && s.Row >= 1 && s.Row <= boardSize
}

// index is the only place notation coordinates become storage indices.
// Storage runs row by row from Row 1, and within a row from Col 9 to Col 1.
func (s Square) index() int {
	return (s.Row-1)*boardSize + (boardSize - s.Col)
}

func squareAt(idx int) Square {
	return Square{Col: boardSize - idx%boardSize, Row: idx/boardSize + 1}
}

// offset moves s by storage deltas: dRow along rows, dCol along storage
// columns (toward lower notation columns).
func (s Square) offset(dRow, dCol int) Square {
	return Square{Col: s.Col - dCol, Row: s.Row + dRow}
}

func (s Square) String() string {
	return fmt.Sprintf("%d%d", s.Col, s.Row)
}

// relativeRow returns the row counted from c's far side, so 1 is the rank
// farthest from c's starting position.
func relativeRow(c Color, row int) int {
	if c == White {
		return boardSize + 1 - row
	}
	return row
}

// inPromotionZone reports whether row is one of the far three ranks for c.
func inPromotionZone(c Color, row int) bool {
	return relativeRow(c, row) <= 3
}
