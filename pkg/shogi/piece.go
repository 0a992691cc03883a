package shogi

import "fmt"

type Color int

const (
	Black Color = iota
	White
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

type PieceType int

const (
	King PieceType = iota
	Gold
	Silver
	Knight
	Lance
	Bishop
	Rook
	Pawn
)

const pieceTypeCount = 8

var pieceLetters = [pieceTypeCount]byte{'K', 'G', 'S', 'N', 'L', 'B', 'R', 'P'}

// Letter returns the notation letter of the base type.
func (t PieceType) Letter() byte {
	return pieceLetters[t]
}

func (t PieceType) String() string {
	return string(t.Letter())
}

// Promotable reports whether the type has a promoted variant.
func (t PieceType) Promotable() bool {
	return t >= Silver && t <= Pawn
}

// PieceTypeFromLetter maps K,G,S,N,L,B,R,P back to a type.
func PieceTypeFromLetter(letter byte) (PieceType, bool) {
	for i, l := range pieceLetters {
		if l == letter {
			return PieceType(i), true
		}
	}
	return 0, false
}

// Piece is one square's content. Empty is the zero value; every other value
// is exactly one (type, color, promoted) combination.
type Piece uint8

const Empty Piece = 0

// variantsPerColor counts 8 unpromoted types plus 6 promoted ones.
const variantsPerColor = 14

// variantAlphabet is the serialization alphabet for Black's variants in code
// order; White uses the lowercase form. Promoted variants follow the base
// types in Silver, Knight, Lance, Bishop, Rook, Pawn order.
const variantAlphabet = "KGSNLBRPZMJHDO"

const emptyCell = '.'

var promotedVariant = [pieceTypeCount]int{-1, -1, 8, 9, 10, 11, 12, 13}
var variantBase = [variantsPerColor]PieceType{King, Gold, Silver, Knight, Lance, Bishop, Rook, Pawn, Silver, Knight, Lance, Bishop, Rook, Pawn}

// NewPiece builds the code for a piece. Asking for a promoted King or Gold
// is a programming error.
func NewPiece(t PieceType, c Color, promoted bool) Piece {
	variant := int(t)
	if promoted {
		variant = promotedVariant[t]
		invariant(variant >= 0, "piece %s cannot be promoted", t)
	}
	return Piece(1 + int(c)*variantsPerColor + variant)
}

func (p Piece) variant() int {
	return (int(p) - 1) % variantsPerColor
}

func (p Piece) IsEmpty() bool {
	return p == Empty
}

func (p Piece) Type() PieceType {
	return variantBase[p.variant()]
}

func (p Piece) Color() Color {
	return Color((int(p) - 1) / variantsPerColor)
}

func (p Piece) Promoted() bool {
	return p.variant() >= pieceTypeCount
}

// Promote returns the promoted form of p.
func (p Piece) Promote() Piece {
	invariant(!p.IsEmpty() && !p.Promoted() && p.Type().Promotable(), "piece %v cannot be promoted", p)
	return NewPiece(p.Type(), p.Color(), true)
}

// Demote returns the unpromoted base form, as a captured piece goes to hand.
func (p Piece) Demote() Piece {
	return NewPiece(p.Type(), p.Color(), false)
}

// code returns the single printable serialization character of p.
func (p Piece) code() byte {
	if p.IsEmpty() {
		return emptyCell
	}
	c := variantAlphabet[p.variant()]
	if p.Color() == White {
		c += 'a' - 'A'
	}
	return c
}

// pieceFromCode is the inverse of Piece.code.
func pieceFromCode(c byte) (Piece, bool) {
	if c == emptyCell {
		return Empty, true
	}
	color := Black
	if c >= 'a' && c <= 'z' {
		color = White
		c -= 'a' - 'A'
	}
	for i := 0; i < len(variantAlphabet); i++ {
		if variantAlphabet[i] == c {
			return Piece(1 + int(color)*variantsPerColor + i), true
		}
	}
	return Empty, false
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "."
	}
	text := p.Type().String()
	if p.Promoted() {
		text = "+" + text
	}
	if p.Color() == White {
		text = "v" + text
	}
	return text
}

const handSlots = 7

// handTypes lists droppable types in hand slot order.
var handTypes = [handSlots]PieceType{Gold, Silver, Knight, Lance, Bishop, Rook, Pawn}

// Hand counts captured pieces per droppable type. King has no slot.
type Hand [handSlots]int

func handSlot(t PieceType) int {
	invariant(t >= Gold && t <= Pawn, "no hand slot for %v", t)
	return int(t) - 1
}

func (h Hand) Count(t PieceType) int {
	if t == King {
		return 0
	}
	return h[handSlot(t)]
}

func (h *Hand) add(t PieceType) {
	h[handSlot(t)]++
}

func (h *Hand) remove(t PieceType) {
	slot := handSlot(t)
	invariant(h[slot] > 0, "no %s in hand", t)
	h[slot]--
}

// Total returns the number of pieces in hand.
func (h Hand) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

func invariant(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf("shogi: invariant violated: "+format, args...))
	}
}
