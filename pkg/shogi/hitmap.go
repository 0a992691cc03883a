package shogi

import "strings"

// Mark is one cell of a Mask.
type Mark uint8

const (
	MarkNone Mark = iota
	MarkReachable
	MarkOrigin
)

// Mask is a reachability map over the board.
type Mask [squareCount]Mark

func (m *Mask) At(s Square) Mark {
	if !s.OnBoard() {
		return MarkNone
	}
	return m[s.index()]
}

// Reachable reports whether s is marked as a destination.
func (m *Mask) Reachable(s Square) bool {
	return m.At(s) == MarkReachable
}

func (m *Mask) mark(s Square) {
	m[s.index()] = MarkReachable
}

// Or adds every destination of other to m. Origin markers are not carried.
func (m *Mask) Or(other *Mask) {
	for i, mk := range other {
		if mk == MarkReachable {
			m[i] = MarkReachable
		}
	}
}

// Count returns how many squares are reachable.
func (m *Mask) Count() int {
	n := 0
	for _, mk := range m {
		if mk == MarkReachable {
			n++
		}
	}
	return n
}

// Squares lists reachable squares in storage order.
func (m *Mask) Squares() []Square {
	var out []Square
	for i, mk := range m {
		if mk == MarkReachable {
			out = append(out, squareAt(i))
		}
	}
	return out
}

func (m *Mask) String() string {
	var sb strings.Builder
	for row := 1; row <= boardSize; row++ {
		for col := boardSize; col >= 1; col-- {
			switch m.At(Sq(col, row)) {
			case MarkReachable:
				sb.WriteByte('o')
			case MarkOrigin:
				sb.WriteByte('x')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Template cells, authored from Black's side with the top row pointing toward
// White:
//
//	'x' the piece, 'o' single step, ' ' unreachable,
//	'-' '|' '/' '\' sliding rays (horizontal, vertical and both diagonals).
type template [3]string

var (
	goldTemplate = template{"ooo", "oxo", " o "}

	baseTemplates = [pieceTypeCount]template{
		King:   {"ooo", "oxo", "ooo"},
		Gold:   goldTemplate,
		Silver: {"ooo", " x ", "o o"},
		Knight: {"o o", "   ", " x "},
		Lance:  {" | ", " x ", "   "},
		Bishop: {`\ /`, " x ", `/ \`},
		Rook:   {" | ", "-x-", " | "},
		Pawn:   {" o ", " x ", "   "},
	}

	promotedTemplates = [pieceTypeCount]template{
		Silver: goldTemplate,
		Knight: goldTemplate,
		Lance:  goldTemplate,
		Bishop: {`\o/`, "oxo", `/o\`},
		Rook:   {"o|o", "-x-", "o|o"},
		Pawn:   goldTemplate,
	}
)

type step struct {
	dRow, dCol int
	ray        bool
}

// compiled holds each variant's steps relative to its 'x' cell, for Black.
// White's steps are the same mirrored through the origin.
var compiled = compileTemplates()

func compileTemplates() [variantsPerColor][]step {
	var out [variantsPerColor][]step
	for v := 0; v < variantsPerColor; v++ {
		t := baseTemplates[variantBase[v]]
		if v >= pieceTypeCount {
			t = promotedTemplates[variantBase[v]]
		}
		out[v] = compileTemplate(t)
	}
	return out
}

func compileTemplate(t template) []step {
	originRow, originCol := -1, -1
	for r, line := range t {
		if c := strings.IndexByte(line, 'x'); c >= 0 {
			originRow, originCol = r, c
		}
	}
	invariant(originRow >= 0, "template %q has no origin", t)
	var steps []step
	for r, line := range t {
		for c := 0; c < len(line); c++ {
			switch line[c] {
			case 'o':
				steps = append(steps, step{dRow: r - originRow, dCol: c - originCol})
			case '-', '|', '/', '\\':
				steps = append(steps, step{dRow: r - originRow, dCol: c - originCol, ray: true})
			}
		}
	}
	return steps
}

// Reachability returns the destinations of the piece on origin. An empty
// origin yields an all-blank mask.
func Reachability(b *Board, origin Square) Mask {
	var m Mask
	p := b.At(origin)
	if p.IsEmpty() {
		return m
	}
	own := p.Color()
	for _, st := range compiled[p.variant()] {
		dRow, dCol := st.dRow, st.dCol
		if own == White {
			dRow, dCol = -dRow, -dCol
		}
		target := origin.offset(dRow, dCol)
		if !st.ray {
			if target.OnBoard() && !ownedBy(b.At(target), own) {
				m.mark(target)
			}
			continue
		}
		for ; target.OnBoard(); target = target.offset(dRow, dCol) {
			occupant := b.At(target)
			if ownedBy(occupant, own) {
				break
			}
			m.mark(target)
			if !occupant.IsEmpty() {
				break
			}
		}
	}
	m[origin.index()] = MarkOrigin
	return m
}

// AggregateReachability unions the destinations of every piece of color c.
func AggregateReachability(b *Board, c Color) Mask {
	var all Mask
	for idx, p := range b {
		if p.IsEmpty() || p.Color() != c {
			continue
		}
		m := Reachability(b, squareAt(idx))
		all.Or(&m)
	}
	return all
}

func ownedBy(p Piece, c Color) bool {
	return !p.IsEmpty() && p.Color() == c
}
