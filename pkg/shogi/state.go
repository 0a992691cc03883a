package shogi

import "fmt"

// StateLength is the serialized size: Black's hand, White's hand, the 81
// board cells in storage order, and a NUL terminator.
const StateLength = 2*handSlots + squareCount + 1

const hashMultiplier = 31

// maxInHand bounds hand counts by how many of each type exist in a game.
var maxInHand = Hand{4, 4, 4, 4, 2, 2, 18}

// Position is the part of a game that the serializer covers.
type Position struct {
	Board Board
	Hands [2]Hand
}

// NewPosition returns the starting position with empty hands.
func NewPosition() Position {
	return Position{Board: StandardBoard()}
}

// Validate checks that p could occur in a game: every cell holds a known
// piece, each side has at most one king, and no type on the board and in
// both hands together outnumbers the set.
func (p Position) Validate() error {
	var onBoard [pieceTypeCount]int
	var kings [2]int
	for idx, piece := range p.Board {
		if piece.IsEmpty() {
			continue
		}
		if int(piece) > 2*variantsPerColor {
			return fmt.Errorf("%w: unknown piece %d at %v", ErrInvalidPosition, int(piece), squareAt(idx))
		}
		if piece.Type() == King {
			kings[piece.Color()]++
		}
		onBoard[piece.Type()]++
	}
	for _, c := range []Color{Black, White} {
		if kings[c] > 1 {
			return fmt.Errorf("%w: %s has %d kings", ErrInvalidPosition, c, kings[c])
		}
	}
	for slot, t := range handTypes {
		total := onBoard[t]
		for _, c := range []Color{Black, White} {
			n := p.Hands[c][slot]
			if n < 0 {
				return fmt.Errorf("%w: %s holds %d %s", ErrInvalidPosition, c, n, t)
			}
			total += n
		}
		if total > maxInHand[slot] {
			return fmt.Errorf("%w: %d %s in play, at most %d", ErrInvalidPosition, total, t, maxInHand[slot])
		}
	}
	return nil
}

// State is an encoded Position.
type State [StateLength]byte

// EncodeState writes hands as '0'+count and cells as the piece alphabet.
func EncodeState(p Position) State {
	var s State
	i := 0
	for _, c := range []Color{Black, White} {
		for slot := range handTypes {
			s[i] = byte('0' + p.Hands[c][slot])
			i++
		}
	}
	for _, piece := range p.Board {
		s[i] = piece.code()
		i++
	}
	s[i] = 0
	return s
}

// DecodeState is the inverse of EncodeState.
func DecodeState(raw []byte) (Position, error) {
	if len(raw) < StateLength {
		return Position{}, fmt.Errorf("%w: state has %d bytes, want %d", ErrTruncatedInput, len(raw), StateLength)
	}
	if len(raw) > StateLength {
		return Position{}, fmt.Errorf("%w: state has %d bytes, want %d", ErrSizeMismatch, len(raw), StateLength)
	}
	var p Position
	i := 0
	for _, c := range []Color{Black, White} {
		for slot := range handTypes {
			n := int(raw[i]) - '0'
			if n < 0 || n > maxInHand[slot] {
				return Position{}, fmt.Errorf("%w: hand count %q at offset %d", ErrInvalidCode, raw[i], i)
			}
			p.Hands[c][slot] = n
			i++
		}
	}
	for idx := range p.Board {
		piece, ok := pieceFromCode(raw[i])
		if !ok {
			return Position{}, fmt.Errorf("%w: cell %q at offset %d", ErrInvalidCode, raw[i], i)
		}
		p.Board[idx] = piece
		i++
	}
	if raw[i] != 0 {
		return Position{}, fmt.Errorf("%w: missing terminator", ErrInvalidCode)
	}
	return p, nil
}

// Decode is DecodeState on s.
func (s State) Decode() (Position, error) {
	return DecodeState(s[:])
}

// Hash is a polynomial rolling hash over the printable part of s.
func (s State) Hash() uint64 {
	var h uint64
	for _, c := range s[:StateLength-1] {
		h = h*hashMultiplier + uint64(c)
	}
	return h
}

func (s State) String() string {
	return string(s[:StateLength-1])
}
