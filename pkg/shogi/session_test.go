package shogi_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shogi/pkg/shogi"
)

func newSession(t *testing.T, opts ...shogi.Option) *shogi.Session {
	t.Helper()
	s, err := shogi.NewSession(opts...)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func setupSession(t *testing.T, sfen string) *shogi.Session {
	t.Helper()
	pos, turn := mustPosition(t, sfen)
	s := newSession(t)
	if err := s.Setup(pos, turn); err != nil {
		t.Fatalf("failed to set up %s: %v", sfen, err)
	}
	return s
}

func playAll(t *testing.T, s *shogi.Session, moves ...string) {
	t.Helper()
	for _, text := range moves {
		m, err := shogi.ParseMove(text)
		if err != nil {
			t.Fatalf("failed to parse %s: %v", text, err)
		}
		if err := s.Play(m); err != nil {
			t.Fatalf("failed to play %s: %v", text, err)
		}
	}
}

func lastMove(t *testing.T, s *shogi.Session) string {
	t.Helper()
	h := s.History()
	if len(h) == 0 {
		t.Fatalf("history is empty")
	}
	return h[len(h)-1].Move.String()
}

func TestFirstPawnMove(t *testing.T) {
	s := newSession(t)
	if !s.SelectOrMove(7, 7) {
		t.Fatalf("selecting own pawn was ignored")
	}
	if s.Mode() != shogi.ModePieceSelected {
		t.Fatalf("unexpected mode: %v", s.Mode())
	}
	mask := s.Mask()
	if mask.Count() != 1 || !mask.Reachable(shogi.Sq(7, 6)) {
		t.Fatalf("unexpected mask\n%s", mask.String())
	}
	if !s.SelectOrMove(7, 6) {
		t.Fatalf("move was ignored")
	}
	b := s.Board()
	if b.At(shogi.Sq(7, 6)) != shogi.NewPiece(shogi.Pawn, shogi.Black, false) || !b.At(shogi.Sq(7, 7)).IsEmpty() {
		t.Fatalf("board not updated\n%s", b.String())
	}
	if s.Turn() != shogi.White {
		t.Fatalf("turn did not flip")
	}
	if s.Mode() != shogi.ModeIdle {
		t.Fatalf("unexpected mode after move: %v", s.Mode())
	}
	if s.HistoryLen() != 1 {
		t.Fatalf("unexpected history length: %d", s.HistoryLen())
	}
	if got := lastMove(t, s); got != "P77-76" {
		t.Fatalf("unexpected notation: got %s want P77-76", got)
	}
}

func TestRejectedInputKeepsTurn(t *testing.T) {
	s := newSession(t)
	if s.SelectOrMove(5, 5) {
		t.Fatalf("click on empty square changed state")
	}
	if s.SelectOrMove(5, 3) {
		t.Fatalf("click on opponent piece changed state")
	}
	if s.SelectOrMove(0, 5) || s.SelectOrMove(5, 10) {
		t.Fatalf("click off the board changed state")
	}
	if s.SelectDrop(shogi.Pawn) {
		t.Fatalf("drop selected with an empty hand")
	}
	s.SelectOrMove(7, 7)
	if !s.SelectOrMove(5, 5) {
		t.Fatalf("deselect was not reported")
	}
	if s.Mode() != shogi.ModeIdle || s.Turn() != shogi.Black || s.HistoryLen() != 0 {
		t.Fatalf("deselect changed the game: mode=%v turn=%v history=%d", s.Mode(), s.Turn(), s.HistoryLen())
	}
	if _, ok := s.Selection(); ok {
		t.Fatalf("selection survived deselect")
	}
}

func TestDropSelection(t *testing.T) {
	s := setupSession(t, "4k4/9/9/9/9/9/4P4/9/4K4 b P 1")
	if !s.SelectDrop(shogi.Pawn) {
		t.Fatalf("drop selection was ignored")
	}
	if s.Mode() != shogi.ModeDropSelected {
		t.Fatalf("unexpected mode: %v", s.Mode())
	}
	mask := s.Mask()
	for row := 1; row <= 9; row++ {
		assertUnreachable(t, mask, shogi.Sq(5, row))
	}
	sel, ok := s.Selection()
	if !ok || sel.Type != shogi.Pawn || sel.FromBoard {
		t.Fatalf("unexpected selection: %+v", sel)
	}

	if !s.SelectDrop(shogi.Pawn) || s.Mode() != shogi.ModeIdle {
		t.Fatalf("second selection did not leave drop mode")
	}

	s.SelectDrop(shogi.Pawn)
	s.SelectOrMove(5, 5)
	if s.Mode() != shogi.ModeIdle || s.Turn() != shogi.Black {
		t.Fatalf("click outside the drop mask: mode=%v turn=%v", s.Mode(), s.Turn())
	}

	s.SelectDrop(shogi.Pawn)
	if !s.SelectOrMove(4, 5) {
		t.Fatalf("drop was ignored")
	}
	b := s.Board()
	if b.At(shogi.Sq(4, 5)) != shogi.NewPiece(shogi.Pawn, shogi.Black, false) {
		t.Fatalf("pawn not dropped\n%s", b.String())
	}
	if s.Hand(shogi.Black).Count(shogi.Pawn) != 0 {
		t.Fatalf("hand not decremented")
	}
	if s.Turn() != shogi.White || lastMove(t, s) != "P*45" {
		t.Fatalf("unexpected drop result: turn=%v move=%s", s.Turn(), lastMove(t, s))
	}
}

func TestPromotionAccepted(t *testing.T) {
	s := setupSession(t, "4k4/9/9/4S4/9/9/9/9/4K4 b - 1")
	s.SelectOrMove(5, 4)
	s.SelectOrMove(5, 3)
	if s.Mode() != shogi.ModePromoting {
		t.Fatalf("unexpected mode: %v", s.Mode())
	}
	if s.Turn() != shogi.Black || s.HistoryLen() != 0 {
		t.Fatalf("turn committed before the promotion decision")
	}
	if s.SelectOrMove(5, 9) || s.SelectDrop(shogi.Pawn) {
		t.Fatalf("input accepted while promoting")
	}
	if !s.DecidePromotion(true) {
		t.Fatalf("decision was ignored")
	}
	b := s.Board()
	if b.At(shogi.Sq(5, 3)) != shogi.NewPiece(shogi.Silver, shogi.Black, true) {
		t.Fatalf("silver not promoted\n%s", b.String())
	}
	if got := lastMove(t, s); got != "S54-53+" {
		t.Fatalf("unexpected notation: got %s want S54-53+", got)
	}
	if s.Turn() != shogi.White || s.Mode() != shogi.ModeIdle {
		t.Fatalf("unexpected state: turn=%v mode=%v", s.Turn(), s.Mode())
	}
	if s.DecidePromotion(true) {
		t.Fatalf("decision accepted outside promoting mode")
	}
}

func TestPromotionDeclined(t *testing.T) {
	s := setupSession(t, "4k4/9/9/4S4/9/9/9/9/4K4 b - 1")
	s.SelectOrMove(5, 4)
	s.SelectOrMove(5, 3)
	s.DecidePromotion(false)
	b := s.Board()
	if b.At(shogi.Sq(5, 3)) != shogi.NewPiece(shogi.Silver, shogi.Black, false) {
		t.Fatalf("silver promoted\n%s", b.String())
	}
	if got := lastMove(t, s); got != "S54-53=" {
		t.Fatalf("unexpected notation: got %s want S54-53=", got)
	}
	if s.Turn() != shogi.White {
		t.Fatalf("turn did not flip")
	}
}

func TestForcedPromotion(t *testing.T) {
	s := setupSession(t, "4k4/9/9/4N4/9/9/9/9/4K4 b - 1")
	s.SelectOrMove(5, 4)
	s.SelectOrMove(4, 2)
	if s.Mode() != shogi.ModeIdle {
		t.Fatalf("forced promotion prompted: %v", s.Mode())
	}
	b := s.Board()
	if b.At(shogi.Sq(4, 2)) != shogi.NewPiece(shogi.Knight, shogi.Black, true) {
		t.Fatalf("knight not promoted\n%s", b.String())
	}
	if got := lastMove(t, s); got != "N54-42+" {
		t.Fatalf("unexpected notation: got %s want N54-42+", got)
	}
}

func TestCaptureGoesToHandDemoted(t *testing.T) {
	s := setupSession(t, "4k4/9/4+p4/9/4R4/9/9/9/4K4 b - 1")
	s.SelectOrMove(5, 5)
	s.SelectOrMove(5, 3)
	if s.Mode() != shogi.ModePromoting {
		t.Fatalf("unexpected mode: %v", s.Mode())
	}
	if s.Hand(shogi.Black).Count(shogi.Pawn) != 1 {
		t.Fatalf("captured tokin did not become a pawn in hand")
	}
	s.DecidePromotion(false)
	if got := lastMove(t, s); got != "R55x53=" {
		t.Fatalf("unexpected notation: got %s want R55x53=", got)
	}
}

func TestKingCaptureEndsGame(t *testing.T) {
	s := setupSession(t, "4k4/9/9/9/4R4/9/9/9/4K4 b - 1")
	s.SelectOrMove(5, 5)
	s.SelectOrMove(5, 1)
	if s.Mode() != shogi.ModeBlackWon {
		t.Fatalf("unexpected mode: %v", s.Mode())
	}
	if winner, ok := s.Mode().Winner(); !ok || winner != shogi.Black {
		t.Fatalf("unexpected winner: %v %v", winner, ok)
	}
	if s.EndReason() != shogi.ReasonKingCaptured {
		t.Fatalf("unexpected reason: %q", s.EndReason())
	}
	if s.Turn() != shogi.Black {
		t.Fatalf("turn flipped on king capture")
	}
	if got := lastMove(t, s); got != "R55x51" {
		t.Fatalf("unexpected notation: got %s want R55x51", got)
	}
	if s.SelectOrMove(5, 9) || s.SelectDrop(shogi.Pawn) || s.DecidePromotion(true) {
		t.Fatalf("input accepted after the game ended")
	}
	if s.Hand(shogi.Black).Total() != 0 {
		t.Fatalf("king went to hand")
	}
}

func TestResign(t *testing.T) {
	s := newSession(t)
	s.Resign()
	if s.Mode() != shogi.ModeWhiteWon || s.EndReason() != shogi.ReasonResignation {
		t.Fatalf("unexpected result: %v %q", s.Mode(), s.EndReason())
	}
	s.ResetGame()
	if s.Mode() != shogi.ModeIdle || s.EndReason() != "" || s.Turn() != shogi.Black {
		t.Fatalf("reset did not restart the game")
	}
}

func assertPendingDeclined(t *testing.T, s *shogi.Session) {
	t.Helper()
	if s.HistoryLen() != 1 {
		t.Fatalf("pending move not recorded: history=%d", s.HistoryLen())
	}
	if got := lastMove(t, s); got != "S54-53=" {
		t.Fatalf("unexpected notation: got %s want S54-53=", got)
	}
	pos, err := s.PositionAt(0)
	if err != nil {
		t.Fatalf("failed to decode ply 0: %v", err)
	}
	b := s.Board()
	if pos != s.Position() {
		t.Fatalf("recorded position differs from the board\n%s", b.String())
	}
	if b.At(shogi.Sq(5, 3)) != shogi.NewPiece(shogi.Silver, shogi.Black, false) {
		t.Fatalf("silver promoted\n%s", b.String())
	}
}

func TestResignWhilePromoting(t *testing.T) {
	s := setupSession(t, "4k4/9/9/4S4/9/9/9/9/4K4 b - 1")
	s.SelectOrMove(5, 4)
	s.SelectOrMove(5, 3)
	if s.Mode() != shogi.ModePromoting {
		t.Fatalf("unexpected mode: %v", s.Mode())
	}
	s.Resign()
	if s.Mode() != shogi.ModeWhiteWon || s.EndReason() != shogi.ReasonResignation {
		t.Fatalf("unexpected result: %v %q", s.Mode(), s.EndReason())
	}
	assertPendingDeclined(t, s)
	if s.DecidePromotion(true) {
		t.Fatalf("decision accepted after the game ended")
	}
}

func TestClockExpiresWhilePromoting(t *testing.T) {
	s := newSession(t, shogi.WithClock(time.Minute))
	pos, turn := mustPosition(t, "4k4/9/9/4S4/9/9/9/9/4K4 b - 1")
	if err := s.Setup(pos, turn); err != nil {
		t.Fatalf("failed to set up: %v", err)
	}
	s.SelectOrMove(5, 4)
	s.SelectOrMove(5, 3)
	if !s.TickClock(2 * time.Minute) {
		t.Fatalf("clock did not expire")
	}
	if s.Mode() != shogi.ModeWhiteWon || s.EndReason() != shogi.ReasonTime {
		t.Fatalf("unexpected result: %v %q", s.Mode(), s.EndReason())
	}
	assertPendingDeclined(t, s)
}

func TestSetupRejectsImpossiblePosition(t *testing.T) {
	s := newSession(t)
	playAll(t, s, "P77-76")
	before := s.Position()
	for _, sfen := range []string{
		"4k4/9/9/9/9/9/9/4p4/4K4 b 18P 1",
		"4k4/9/9/9/9/9/9/9/3KK4 b - 1",
		"4k4/9/9/9/9/9/9/9/4K4 b 2B2b 1",
	} {
		pos, turn := mustPosition(t, sfen)
		if err := s.Setup(pos, turn); !errors.Is(err, shogi.ErrInvalidPosition) {
			t.Fatalf("%s: expected ErrInvalidPosition, got %v", sfen, err)
		}
		if s.Position() != before || s.Turn() != shogi.White || s.HistoryLen() != 1 {
			t.Fatalf("%s: rejected setup changed the session", sfen)
		}
	}
}

func TestClock(t *testing.T) {
	s := newSession(t, shogi.WithClock(time.Minute))
	if !s.Timed() {
		t.Fatalf("session is not timed")
	}
	if s.TickClock(30 * time.Second) {
		t.Fatalf("clock expired early")
	}
	if got := s.Remaining(shogi.Black); got != 30*time.Second {
		t.Fatalf("unexpected black time: %v", got)
	}
	playAll(t, s, "P77-76")
	s.TickClock(10 * time.Second)
	if got := s.Remaining(shogi.White); got != 50*time.Second {
		t.Fatalf("unexpected white time: %v", got)
	}
	if !s.TickClock(time.Minute) {
		t.Fatalf("clock did not expire")
	}
	if s.Mode() != shogi.ModeBlackWon || s.EndReason() != shogi.ReasonTime {
		t.Fatalf("unexpected result: %v %q", s.Mode(), s.EndReason())
	}
	if s.Remaining(shogi.White) != 0 {
		t.Fatalf("remaining time below zero: %v", s.Remaining(shogi.White))
	}
	if s.TickClock(time.Second) {
		t.Fatalf("finished game ticked")
	}

	s.ResetGame()
	if s.Remaining(shogi.Black) != time.Minute || s.Remaining(shogi.White) != time.Minute {
		t.Fatalf("reset did not restore the clocks")
	}
}

func TestUntimedClockIgnoresTicks(t *testing.T) {
	s := newSession(t)
	if s.Timed() || s.TickClock(time.Hour) {
		t.Fatalf("untimed session ticked")
	}
}

func TestPositionAt(t *testing.T) {
	s := newSession(t)
	playAll(t, s, "P77-76", "P33-34")
	pos, err := s.PositionAt(0)
	if err != nil {
		t.Fatalf("failed to decode ply 0: %v", err)
	}
	if got, want := pos.SFEN(shogi.White, 2), "lnsgkgsnl/1r5b1/ppppppppp/9/9/2P6/PP1PPPPPP/1B5R1/LNSGKGSNL w - 2"; got != want {
		t.Fatalf("unexpected sfen: got %s want %s", got, want)
	}
	if _, err := s.PositionAt(2); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.bin")
	s := newSession(t, shogi.WithJournal(path))
	playAll(t, s, "P77-76", "P33-34")

	const recordSize = int64(shogi.MoveLength + 8 + shogi.StateLength)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat journal: %v", err)
	}
	if info.Size() != 2*recordSize {
		t.Fatalf("unexpected journal size: got %d want %d", info.Size(), 2*recordSize)
	}

	s.ResetGame()
	info, err = os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat journal: %v", err)
	}
	if info.Size() != 0 {
		t.Fatalf("journal not truncated on reset: %d bytes", info.Size())
	}
}

func TestJournalOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "history.bin")
	if _, err := shogi.NewSession(shogi.WithJournal(path)); err == nil {
		t.Fatalf("expected journal open error")
	}
}
