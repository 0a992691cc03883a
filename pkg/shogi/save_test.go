package shogi_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shogi/pkg/shogi"
)

const saveHeaderSize = shogi.StateLength + 1 + 1 + 8 + 8 + 4

const entrySize = shogi.MoveLength + 8 + shogi.StateLength

func midGame(t *testing.T) *shogi.Session {
	t.Helper()
	s := newSession(t, shogi.WithClock(10*time.Minute))
	playAll(t, s, "P77-76", "P33-34", "B88x22+", "S31x22")
	s.TickClock(5 * time.Second)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := midGame(t)
	board := s.Board()
	black, white := s.Hand(shogi.Black), s.Hand(shogi.White)
	turn := s.Turn()
	blackTime, whiteTime := s.Remaining(shogi.Black), s.Remaining(shogi.White)
	history := s.History()

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if got, want := buf.Len(), saveHeaderSize+4*entrySize; got != want {
		t.Fatalf("unexpected save size: got %d want %d", got, want)
	}
	if buf.Bytes()[shogi.StateLength] != 1 {
		t.Fatalf("black-to-move flag not set")
	}

	s.ResetGame()
	if err := s.Load(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if s.Board() != board {
		t.Fatalf("board mismatch after load")
	}
	if s.Hand(shogi.Black) != black || s.Hand(shogi.White) != white {
		t.Fatalf("hands mismatch after load")
	}
	if s.Hand(shogi.Black).Count(shogi.Bishop) != 1 || s.Hand(shogi.White).Count(shogi.Bishop) != 1 {
		t.Fatalf("unexpected hands: %v %v", s.Hand(shogi.Black), s.Hand(shogi.White))
	}
	if s.Turn() != turn || !s.Timed() {
		t.Fatalf("turn or timed flag mismatch after load")
	}
	if s.Remaining(shogi.Black) != blackTime || s.Remaining(shogi.White) != whiteTime {
		t.Fatalf("clock mismatch: got %v/%v want %v/%v", s.Remaining(shogi.Black), s.Remaining(shogi.White), blackTime, whiteTime)
	}
	loaded := s.History()
	if len(loaded) != len(history) {
		t.Fatalf("history length mismatch: got %d want %d", len(loaded), len(history))
	}
	for i := range history {
		if loaded[i] != history[i] {
			t.Fatalf("history entry %d mismatch: got %v want %v", i, loaded[i].Move, history[i].Move)
		}
	}
	if s.Mode() != shogi.ModeIdle {
		t.Fatalf("unexpected mode after load: %v", s.Mode())
	}
	playAll(t, s, "B*55")
}

func TestLoadFailureLeavesSession(t *testing.T) {
	s := midGame(t)
	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	data := buf.Bytes()

	fresh := newSession(t)
	playAll(t, fresh, "P27-26")
	before := fresh.Board()

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, shogi.ErrTruncatedInput},
		{"short header", data[:10], shogi.ErrTruncatedInput},
		{"short entry", data[:len(data)-10], shogi.ErrTruncatedInput},
		{"trailing", append(append([]byte(nil), data...), 0), shogi.ErrSizeMismatch},
		{"bad cell", corrupt(data, 2*7, '#'), shogi.ErrInvalidCode},
		{"bad hand", corrupt(data, 0, 'z'), shogi.ErrInvalidCode},
		{"too many pawns", corrupt(data, 6, '0'+18), shogi.ErrInvalidPosition},
		{"bad entry move", corrupt(data, saveHeaderSize, '?'), shogi.ErrInvalidCode},
	}
	for _, tc := range cases {
		err := fresh.Load(bytes.NewReader(tc.data))
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
		if fresh.Board() != before || fresh.HistoryLen() != 1 || fresh.Turn() != shogi.White {
			t.Fatalf("%s: failed load modified the session", tc.name)
		}
	}
}

func corrupt(data []byte, offset int, b byte) []byte {
	out := append([]byte(nil), data...)
	out[offset] = b
	return out
}

func TestSaveFile(t *testing.T) {
	s := midGame(t)
	path := filepath.Join(t.TempDir(), "game.sav")
	if err := s.SaveFile(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	other := newSession(t)
	if err := other.LoadFile(path); err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if other.Board() != s.Board() || other.HistoryLen() != s.HistoryLen() {
		t.Fatalf("loaded session differs")
	}
	if err := other.LoadFile(filepath.Join(t.TempDir(), "missing.sav")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
