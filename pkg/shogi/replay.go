package shogi

import (
	"fmt"
	"io"
)

// Play drives the click interface through m, exactly as a user would. A
// move the rules reject leaves the session idle and returns ErrInvalidMove.
func (s *Session) Play(m Move) error {
	if s.mode.Finished() {
		return fmt.Errorf("%w: game is over", ErrInvalidMove)
	}
	if s.mode != ModeIdle {
		s.clearSelection()
	}
	if m.Kind == Drop {
		if m.Promotion != PromotionNone {
			return fmt.Errorf("%w: %v: drops cannot promote", ErrInvalidMove, m)
		}
		if !s.SelectDrop(m.Type) {
			return fmt.Errorf("%w: %v: no %s in hand", ErrInvalidMove, m, m.Type)
		}
	} else {
		p := s.pos.Board.At(m.From)
		if !ownedBy(p, s.turn) || p.Type() != m.Type || p.Promoted() != m.Promoted {
			return fmt.Errorf("%w: %v: no such piece on %v", ErrInvalidMove, m, m.From)
		}
		if m.Kind == Capture && s.pos.Board.At(m.To).IsEmpty() {
			return fmt.Errorf("%w: %v: nothing to capture on %v", ErrInvalidMove, m, m.To)
		}
		switch m.Promotion {
		case PromotionAccepted:
			if !CanPromote(p, m.From, m.To) {
				return fmt.Errorf("%w: %v: promotion not available", ErrInvalidMove, m)
			}
		case PromotionDeclined:
			if !CanPromote(p, m.From, m.To) || MustPromote(p, m.To) {
				return fmt.Errorf("%w: %v: no promotion to decline", ErrInvalidMove, m)
			}
		}
		s.SelectOrMove(m.From.Col, m.From.Row)
	}
	if !s.mask.Reachable(m.To) {
		s.clearSelection()
		return fmt.Errorf("%w: %v: %v is not reachable", ErrInvalidMove, m, m.To)
	}
	s.SelectOrMove(m.To.Col, m.To.Row)
	if s.mode == ModePromoting {
		s.DecidePromotion(m.Promotion == PromotionAccepted)
	}
	return nil
}

// Replay restarts the game and plays moves in order. It stops at the first
// rejected move and reports its ply.
func (s *Session) Replay(moves []Move) error {
	s.ResetGame()
	for i, m := range moves {
		if err := s.Play(m); err != nil {
			return fmt.Errorf("ply %d: %w", i+1, err)
		}
	}
	return nil
}

// ReplayKIF reads a KIF record from r and replays it.
func (s *Session) ReplayKIF(r io.Reader) error {
	moves, err := ReadKIF(r)
	if err != nil {
		return err
	}
	return s.Replay(moves)
}

// ExportKIF writes the history as KIF, closing with the KIF terminal word
// for resignation or time loss.
func (s *Session) ExportKIF(w io.Writer, shiftJIS bool) error {
	opts := KIFOptions{ShiftJIS: shiftJIS}
	switch s.reason {
	case ReasonResignation:
		opts.Terminal = "投了"
	case ReasonTime:
		opts.Terminal = "切れ負け"
	}
	return WriteKIF(w, s.history.Moves(), opts)
}
