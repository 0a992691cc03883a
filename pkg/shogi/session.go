package shogi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModePieceSelected
	ModeDropSelected
	ModePromoting
	ModeWhiteWon
	ModeBlackWon
)

var modeNames = [...]string{"idle", "piece_selected", "drop_selected", "promoting", "white_won", "black_won"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Finished reports whether m is one of the terminal modes.
func (m Mode) Finished() bool {
	return m == ModeWhiteWon || m == ModeBlackWon
}

// Winner returns the winning side of a finished game.
func (m Mode) Winner() (Color, bool) {
	switch m {
	case ModeBlackWon:
		return Black, true
	case ModeWhiteWon:
		return White, true
	default:
		return 0, false
	}
}

const (
	ReasonKingCaptured = "king captured"
	ReasonResignation  = "resignation"
	ReasonTime         = "time"
)

func wonBy(c Color) Mode {
	if c == Black {
		return ModeBlackWon
	}
	return ModeWhiteWon
}

// Selection is the piece the mover is working with. From is only meaningful
// for board selections.
type Selection struct {
	Type      PieceType
	From      Square
	FromBoard bool
}

type Option func(*Session) error

// WithLogger routes diagnostics to l.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) error {
		if l != nil {
			s.log = l
		}
		return nil
	}
}

// WithJournal mirrors the history log to a file at path.
func WithJournal(path string) Option {
	return func(s *Session) error {
		return s.history.OpenJournal(path)
	}
}

// WithClock starts the game in timed mode with d per side.
func WithClock(d time.Duration) Option {
	return func(s *Session) error {
		s.SetClock(d)
		return nil
	}
}

// Session is one game: board, hands, turn, selection, history and clocks.
// It is not safe for concurrent use; callers serialize access.
type Session struct {
	pos     Position
	turn    Color
	mode    Mode
	sel     Selection
	mask    Mask
	pending Move
	history History
	reason  string

	timed   bool
	initial time.Duration
	clock   [2]time.Duration

	log *zap.Logger
}

// NewSession starts a game from the standard position.
func NewSession(opts ...Option) (*Session, error) {
	s := &Session{log: zap.NewNop()}
	s.ResetGame()
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.history.Close()
			return nil, err
		}
	}
	s.log.Debug("session created", zap.Bool("timed", s.timed))
	return s, nil
}

// Close releases the history journal.
func (s *Session) Close() error {
	return s.history.Close()
}

func (s *Session) Board() Board {
	return s.pos.Board
}

func (s *Session) Hand(c Color) Hand {
	return s.pos.Hands[c]
}

func (s *Session) Position() Position {
	return s.pos
}

func (s *Session) Turn() Color {
	return s.turn
}

func (s *Session) Mode() Mode {
	return s.mode
}

// Mask is the legality mask of the current selection; blank when idle.
func (s *Session) Mask() Mask {
	return s.mask
}

func (s *Session) Selection() (Selection, bool) {
	if s.mode != ModePieceSelected && s.mode != ModeDropSelected {
		return Selection{}, false
	}
	return s.sel, true
}

// EndReason is one of the Reason constants once the game is finished, and
// empty before that.
func (s *Session) EndReason() string {
	return s.reason
}

func (s *Session) Timed() bool {
	return s.timed
}

func (s *Session) Remaining(c Color) time.Duration {
	return s.clock[c]
}

// History returns a copy of the move log.
func (s *Session) History() []HistoryEntry {
	return s.history.Entries()
}

func (s *Session) HistoryLen() int {
	return s.history.Len()
}

// PositionAt decodes the position after ply i.
func (s *Session) PositionAt(i int) (Position, error) {
	return s.history.PositionAt(i)
}

// SelectOrMove handles a click on (col, row). It reports whether anything
// visible changed.
func (s *Session) SelectOrMove(col, row int) bool {
	target := Sq(col, row)
	if !target.OnBoard() {
		return false
	}
	switch s.mode {
	case ModeIdle:
		p := s.pos.Board.At(target)
		if !ownedBy(p, s.turn) {
			return false
		}
		s.mask = Reachability(&s.pos.Board, target)
		s.sel = Selection{Type: p.Type(), From: target, FromBoard: true}
		s.mode = ModePieceSelected
		s.log.Debug("piece selected", zap.Stringer("square", target), zap.Stringer("piece", p))
		return true
	case ModePieceSelected:
		if s.mask.Reachable(target) {
			s.commitMove(target)
			return true
		}
		s.clearSelection()
		return true
	case ModeDropSelected:
		if s.mask.Reachable(target) {
			s.commitDrop(target)
			return true
		}
		s.log.Debug("exited drop mode", zap.Stringer("piece", s.sel.Type))
		s.clearSelection()
		return true
	default:
		return false
	}
}

// SelectDrop enters drop mode for t, or leaves it when t is already selected.
func (s *Session) SelectDrop(t PieceType) bool {
	if s.mode.Finished() || s.mode == ModePromoting {
		return false
	}
	if t == King || s.pos.Hands[s.turn].Count(t) == 0 {
		return false
	}
	if s.mode == ModeDropSelected && s.sel.Type == t {
		s.log.Debug("exited drop mode", zap.Stringer("piece", t))
		s.clearSelection()
		return true
	}
	s.mask = DropMask(&s.pos.Board, t, s.turn)
	s.sel = Selection{Type: t}
	s.mode = ModeDropSelected
	s.log.Debug("entered drop mode", zap.Stringer("piece", t), zap.Int("targets", s.mask.Count()))
	return true
}

// DecidePromotion settles a pending promotion. It reports false outside
// ModePromoting.
func (s *Session) DecidePromotion(accept bool) bool {
	if s.mode != ModePromoting {
		return false
	}
	m := s.pending
	if accept {
		s.pos.Board.set(m.To, s.pos.Board.At(m.To).Promote())
		m.Promotion = PromotionAccepted
	} else {
		m.Promotion = PromotionDeclined
	}
	s.finishTurn(m)
	return true
}

// Resign ends the game in favour of the side not to move.
func (s *Session) Resign() {
	if s.mode.Finished() {
		return
	}
	s.endGame(s.turn.Opponent(), ReasonResignation)
}

// ResetGame restores the starting position, clears hands and history and
// gives the move to Black. Clocks go back to their configured value.
func (s *Session) ResetGame() {
	s.log.Debug("resetting board to initial state")
	s.setup(NewPosition(), Black)
}

// Setup replaces the position and side to move and clears the history.
// A position that fails Validate leaves the session as it was.
func (s *Session) Setup(p Position, turn Color) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	s.log.Debug("setting up position", zap.Stringer("turn", turn))
	s.setup(p, turn)
	return nil
}

func (s *Session) setup(p Position, turn Color) {
	s.pos = p
	s.turn = turn
	s.mode = ModeIdle
	s.pending = Move{}
	s.reason = ""
	s.clearSelection()
	for c := range s.clock {
		s.clock[c] = s.initial
	}
	if err := s.history.Reset(); err != nil {
		s.log.Warn("history journal reset failed", zap.Error(err))
	}
}

// SetClock gives both sides d and enables timed mode; zero disables it.
func (s *Session) SetClock(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.initial = d
	s.timed = d > 0
	s.clock = [2]time.Duration{d, d}
}

// TickClock charges elapsed to the side to move. When that side runs out
// the other side wins. It reports whether the game ended.
func (s *Session) TickClock(elapsed time.Duration) bool {
	if !s.timed || s.mode.Finished() || elapsed <= 0 {
		return false
	}
	s.clock[s.turn] -= elapsed
	if s.clock[s.turn] > 0 {
		return false
	}
	s.clock[s.turn] = 0
	s.endGame(s.turn.Opponent(), ReasonTime)
	return true
}

func (s *Session) commitMove(to Square) {
	from := s.sel.From
	board := &s.pos.Board
	piece := board.At(from)
	invariant(ownedBy(piece, s.turn), "no %v piece at %v", s.turn, from)

	m := Move{Type: piece.Type(), Promoted: piece.Promoted(), From: from, To: to}
	captured := board.At(to)
	if !captured.IsEmpty() {
		m.Kind = Capture
	}
	board.set(to, piece)
	board.set(from, Empty)

	if !captured.IsEmpty() && captured.Type() == King {
		s.appendHistory(m)
		s.endGame(s.turn, ReasonKingCaptured)
		return
	}
	if !captured.IsEmpty() {
		s.pos.Hands[s.turn].add(captured.Type())
	}

	if CanPromote(piece, from, to) {
		if MustPromote(piece, to) {
			board.set(to, piece.Promote())
			m.Promotion = PromotionAccepted
			s.finishTurn(m)
			return
		}
		s.clearSelection()
		s.pending = m
		s.mode = ModePromoting
		s.log.Debug("awaiting promotion decision", zap.Stringer("square", to))
		return
	}
	s.finishTurn(m)
}

func (s *Session) commitDrop(to Square) {
	t := s.sel.Type
	s.pos.Hands[s.turn].remove(t)
	invariant(s.pos.Board.At(to).IsEmpty(), "drop target %v is occupied", to)
	s.pos.Board.set(to, NewPiece(t, s.turn, false))
	s.finishTurn(Move{Type: t, To: to, Kind: Drop})
}

func (s *Session) finishTurn(m Move) {
	s.appendHistory(m)
	s.turn = s.turn.Opponent()
	s.mode = ModeIdle
	s.pending = Move{}
	s.clearSelection()
}

func (s *Session) appendHistory(m Move) {
	if err := s.history.Append(newHistoryEntry(m, s.pos)); err != nil {
		s.log.Warn("history journal write failed", zap.Error(err))
	}
}

// endGame settles a pending promotion as declined so the move that was
// already made stays in the history.
func (s *Session) endGame(winner Color, reason string) {
	if s.mode == ModePromoting {
		m := s.pending
		m.Promotion = PromotionDeclined
		s.appendHistory(m)
	}
	s.clearSelection()
	s.pending = Move{}
	s.mode = wonBy(winner)
	s.reason = reason
	s.log.Info("game over", zap.Stringer("winner", winner), zap.String("reason", reason))
}

// clearSelection drops the selection and mask; from either selection mode it
// also returns to ModeIdle.
func (s *Session) clearSelection() {
	s.sel = Selection{}
	s.mask = Mask{}
	if s.mode == ModePieceSelected || s.mode == ModeDropSelected {
		s.mode = ModeIdle
	}
}

// Snapshot captures the session in save form.
func (s *Session) Snapshot() GameSave {
	return GameSave{
		State:       EncodeState(s.pos),
		BlackToMove: s.turn == Black,
		Timed:       s.timed,
		WhiteTime:   s.clock[White],
		BlackTime:   s.clock[Black],
		Entries:     s.history.Entries(),
	}
}

// Save writes the session to w.
func (s *Session) Save(w io.Writer) error {
	_, err := s.Snapshot().WriteTo(w)
	return err
}

// Load replaces the session with the save read from r. On error the session
// is left as it was.
func (s *Session) Load(r io.Reader) error {
	g, err := ReadGameSave(r)
	if err != nil {
		return fmt.Errorf("load game: %w", err)
	}
	return s.Restore(g)
}

// Restore replaces the session with g.
func (s *Session) Restore(g GameSave) error {
	pos, err := g.State.Decode()
	if err == nil {
		err = pos.Validate()
	}
	if err != nil {
		return fmt.Errorf("restore game: %w", err)
	}
	turn := White
	if g.BlackToMove {
		turn = Black
	}
	if err := s.history.replace(append([]HistoryEntry(nil), g.Entries...)); err != nil {
		s.log.Warn("history journal rewrite failed", zap.Error(err))
	}
	s.pos = pos
	s.turn = turn
	s.mode = ModeIdle
	s.pending = Move{}
	s.reason = ""
	s.clearSelection()
	s.timed = g.Timed
	s.clock[White] = g.WhiteTime
	s.clock[Black] = g.BlackTime
	s.initial = 0
	if g.Timed {
		s.initial = max(g.WhiteTime, g.BlackTime)
	}
	s.log.Info("game loaded", zap.Int("moves", len(g.Entries)), zap.Stringer("turn", turn))
	return nil
}

// SaveFile writes the session to path.
func (s *Session) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// LoadFile replaces the session with the save stored at path.
func (s *Session) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return s.Load(bytes.NewReader(data))
}
