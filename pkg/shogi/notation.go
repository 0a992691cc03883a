package shogi

import (
	"fmt"
	"strings"
)

// MoveLength is the fixed width of a notation move on disk. The longest
// notation, e.g. "+B55x11" or "P63x62+", uses seven bytes; the rest is NUL.
const MoveLength = 8

type MoveKind int

const (
	Quiet MoveKind = iota
	Capture
	Drop
)

var moveSymbols = [...]byte{Quiet: '-', Capture: 'x', Drop: '*'}

type Promotion int

const (
	PromotionNone Promotion = iota
	PromotionAccepted
	PromotionDeclined
)

// Move is one ply. For drops From is the zero Square.
type Move struct {
	Type      PieceType
	Promoted  bool // the piece was already promoted before the move
	From      Square
	To        Square
	Kind      MoveKind
	Promotion Promotion
}

// String renders [+]Letter[FromColFromRow]Symbol ToColToRow[+|=].
func (m Move) String() string {
	var sb strings.Builder
	if m.Promoted {
		sb.WriteByte('+')
	}
	sb.WriteByte(m.Type.Letter())
	if m.Kind != Drop {
		sb.WriteString(m.From.String())
	}
	sb.WriteByte(moveSymbols[m.Kind])
	sb.WriteString(m.To.String())
	switch m.Promotion {
	case PromotionAccepted:
		sb.WriteByte('+')
	case PromotionDeclined:
		sb.WriteByte('=')
	}
	return sb.String()
}

// ParseMove is the inverse of Move.String.
func ParseMove(text string) (Move, error) {
	var m Move
	work := text
	if strings.HasPrefix(work, "+") {
		m.Promoted = true
		work = work[1:]
	}
	if work == "" {
		return Move{}, fmt.Errorf("%w: empty notation %q", ErrInvalidMove, text)
	}
	t, ok := PieceTypeFromLetter(work[0])
	if !ok {
		return Move{}, fmt.Errorf("%w: unknown piece in %q", ErrInvalidMove, text)
	}
	m.Type = t
	work = work[1:]
	if strings.HasPrefix(work, "*") {
		m.Kind = Drop
		work = work[1:]
	} else {
		from, err := parseSquare(work)
		if err != nil {
			return Move{}, fmt.Errorf("%w: %q: %v", ErrInvalidMove, text, err)
		}
		m.From = from
		work = work[2:]
		switch {
		case strings.HasPrefix(work, "-"):
			m.Kind = Quiet
		case strings.HasPrefix(work, "x"):
			m.Kind = Capture
		default:
			return Move{}, fmt.Errorf("%w: missing movement symbol in %q", ErrInvalidMove, text)
		}
		work = work[1:]
	}
	to, err := parseSquare(work)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q: %v", ErrInvalidMove, text, err)
	}
	m.To = to
	switch rest := work[2:]; rest {
	case "":
	case "+":
		m.Promotion = PromotionAccepted
	case "=":
		m.Promotion = PromotionDeclined
	default:
		return Move{}, fmt.Errorf("%w: trailing %q in %q", ErrInvalidMove, rest, text)
	}
	if m.Kind == Drop && (m.Promoted || m.Promotion != PromotionNone || t == King) {
		return Move{}, fmt.Errorf("%w: impossible drop %q", ErrInvalidMove, text)
	}
	return m, nil
}

func parseSquare(text string) (Square, error) {
	if len(text) < 2 {
		return Square{}, fmt.Errorf("invalid square: %s", text)
	}
	s := Sq(int(text[0]-'0'), int(text[1]-'0'))
	if !s.OnBoard() {
		return Square{}, fmt.Errorf("invalid square: %s", text[:2])
	}
	return s, nil
}

// encodeMove pads the notation to MoveLength bytes.
func encodeMove(m Move) [MoveLength]byte {
	var out [MoveLength]byte
	copy(out[:], m.String())
	return out
}

func decodeMove(raw [MoveLength]byte) (Move, error) {
	text := string(raw[:])
	if i := strings.IndexByte(text, 0); i >= 0 {
		text = text[:i]
	}
	return ParseMove(text)
}
