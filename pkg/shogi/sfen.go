package shogi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const StandardSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

// SFEN renders p with turn and moveNumber.
func (p Position) SFEN(turn Color, moveNumber int) string {
	rows := make([]string, 0, boardSize)
	for row := 1; row <= boardSize; row++ {
		rows = append(rows, p.rowToSFEN(row))
	}
	side := "b"
	if turn == White {
		side = "w"
	}
	hand := buildHands(p.Hands)
	if hand == "" {
		hand = "-"
	}
	return fmt.Sprintf("%s %s %s %d", strings.Join(rows, "/"), side, hand, moveNumber)
}

func (p Position) rowToSFEN(row int) string {
	var b strings.Builder
	empty := 0
	flushEmpty := func() {
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
			empty = 0
		}
	}
	for col := boardSize; col >= 1; col-- {
		piece := p.Board.At(Sq(col, row))
		if piece.IsEmpty() {
			empty++
			continue
		}
		flushEmpty()
		text := piece.Type().String()
		if piece.Color() == White {
			text = strings.ToLower(text)
		}
		if piece.Promoted() {
			text = "+" + text
		}
		b.WriteString(text)
	}
	flushEmpty()
	return b.String()
}

var sfenHandOrder = []PieceType{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

func buildHands(hands [2]Hand) string {
	var b strings.Builder
	for _, c := range []Color{Black, White} {
		for _, t := range sfenHandOrder {
			count := hands[c].Count(t)
			if count == 0 {
				continue
			}
			if count > 1 {
				b.WriteString(strconv.Itoa(count))
			}
			letter := t.String()
			if c == White {
				letter = strings.ToLower(letter)
			}
			b.WriteString(letter)
		}
	}
	return b.String()
}

// ParseSFEN reads the board, side and hand fields of an SFEN string. The move
// number field is optional and ignored.
func ParseSFEN(sfen string) (Position, Color, error) {
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return Position{}, Black, fmt.Errorf("invalid sfen: %s", sfen)
	}
	var pos Position
	turn := Black
	switch fields[1] {
	case "b":
	case "w":
		turn = White
	default:
		return Position{}, Black, fmt.Errorf("invalid side to move %q", fields[1])
	}
	if err := parseBoardSFEN(fields[0], &pos); err != nil {
		return Position{}, Black, err
	}
	if err := parseHandsSFEN(fields[2], &pos); err != nil {
		return Position{}, Black, err
	}
	return pos, turn, nil
}

func parseBoardSFEN(board string, pos *Position) error {
	rows := strings.Split(board, "/")
	if len(rows) != boardSize {
		return fmt.Errorf("invalid board ranks: %d", len(rows))
	}
	for rowIndex, rowText := range rows {
		col := boardSize
		for i := 0; i < len(rowText); i++ {
			r := rowText[i]
			if r >= '1' && r <= '9' {
				col -= int(r - '0')
				continue
			}
			promoted := false
			if r == '+' {
				promoted = true
				i++
				if i >= len(rowText) {
					return errors.New("dangling promotion marker")
				}
				r = rowText[i]
			}
			color := Black
			if r >= 'a' && r <= 'z' {
				color = White
				r -= 'a' - 'A'
			}
			t, ok := PieceTypeFromLetter(r)
			if !ok {
				return fmt.Errorf("unknown sfen piece %c", r)
			}
			if promoted && !t.Promotable() {
				return fmt.Errorf("piece %c cannot be promoted", r)
			}
			if col < 1 {
				return errors.New("too many files in rank")
			}
			pos.Board.set(Sq(col, rowIndex+1), NewPiece(t, color, promoted))
			col--
		}
		if col != 0 {
			return fmt.Errorf("rank %d does not have 9 files", rowIndex+1)
		}
	}
	return nil
}

func parseHandsSFEN(hand string, pos *Position) error {
	if hand == "-" {
		return nil
	}
	count := 0
	for i := 0; i < len(hand); i++ {
		r := hand[i]
		if r >= '0' && r <= '9' {
			count = count*10 + int(r-'0')
			continue
		}
		if count == 0 {
			count = 1
		}
		color := Black
		if r >= 'a' && r <= 'z' {
			color = White
			r -= 'a' - 'A'
		}
		t, ok := PieceTypeFromLetter(r)
		if !ok || t == King {
			return fmt.Errorf("unknown hand piece %c", r)
		}
		slot := handSlot(t)
		pos.Hands[color][slot] += count
		if pos.Hands[color][slot] > maxInHand[slot] {
			return fmt.Errorf("too many %c in hand", r)
		}
		count = 0
	}
	if count != 0 {
		return errors.New("trailing hand count")
	}
	return nil
}
