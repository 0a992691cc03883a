package shogi

// IsInCheck reports whether c's king stands on a square the opponent reaches.
// A side without a king is never in check.
func IsInCheck(b *Board, c Color) bool {
	king, ok := b.KingSquare(c)
	if !ok {
		return false
	}
	attacks := AggregateReachability(b, c.Opponent())
	return attacks.Reachable(king)
}

// canPossiblyMove reports whether an unpromoted piece of type t standing on
// row still has somewhere to go. It ignores board contents.
func canPossiblyMove(t PieceType, c Color, row int) bool {
	rel := relativeRow(c, row)
	switch t {
	case Knight:
		return rel > 2
	case Lance, Pawn:
		return rel > 1
	default:
		return true
	}
}

// CanPromote reports whether p may promote after moving from -> to: p must be
// promotable and either end of the move must touch c's promotion zone.
func CanPromote(p Piece, from, to Square) bool {
	if p.IsEmpty() || p.Promoted() || !p.Type().Promotable() {
		return false
	}
	if from == to {
		return false
	}
	c := p.Color()
	return inPromotionZone(c, from.Row) || inPromotionZone(c, to.Row)
}

// MustPromote reports whether p, left unpromoted on to, could never move again.
func MustPromote(p Piece, to Square) bool {
	if p.IsEmpty() || p.Promoted() {
		return false
	}
	return !canPossiblyMove(p.Type(), p.Color(), to.Row)
}

// DropMask returns the squares where c may drop a piece of type t.
func DropMask(b *Board, t PieceType, c Color) Mask {
	var m Mask
	for idx, p := range b {
		s := squareAt(idx)
		if p.IsEmpty() && canPossiblyMove(t, c, s.Row) {
			m.mark(s)
		}
	}
	if t != Pawn {
		return m
	}
	for col := 1; col <= boardSize; col++ {
		if !b.hasPawnOnFile(c, col) {
			continue
		}
		for row := 1; row <= boardSize; row++ {
			m[Sq(col, row).index()] = MarkNone
		}
	}
	enemyKing, ok := b.KingSquare(c.Opponent())
	if !ok {
		return m
	}
	// A pawn checks the king only from the square directly below it in c's
	// direction of travel.
	forward := 1
	if c == White {
		forward = -1
	}
	checking := enemyKing.offset(forward, 0)
	if m.Reachable(checking) && dropMates(*b, checking, NewPiece(Pawn, c, false)) {
		m[checking.index()] = MarkNone
	}
	return m
}

// dropMates reports whether dropping p on s leaves the opponent without a
// king move or capture that gets out of check. scratch is a private copy and
// is restored before every return.
func dropMates(scratch Board, s Square, p Piece) bool {
	defender := p.Color().Opponent()
	return scratch.withDrop(s, p, func() bool {
		if !IsInCheck(&scratch, defender) {
			return false
		}
		king, ok := scratch.KingSquare(defender)
		if !ok {
			return false
		}
		escapes := Reachability(&scratch, king)
		for _, to := range escapes.Squares() {
			if scratch.withMove(king, to, func() bool { return !IsInCheck(&scratch, defender) }) {
				return false
			}
		}
		for idx, q := range scratch {
			from := squareAt(idx)
			if from == king || !ownedBy(q, defender) {
				continue
			}
			reach := Reachability(&scratch, from)
			if !reach.Reachable(s) {
				continue
			}
			if scratch.withMove(from, s, func() bool { return !IsInCheck(&scratch, defender) }) {
				return false
			}
		}
		return true
	})
}
