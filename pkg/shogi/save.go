package shogi

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// GameSave is everything needed to restore a session.
type GameSave struct {
	State       State
	BlackToMove bool
	Timed       bool
	WhiteTime   time.Duration
	BlackTime   time.Duration
	Entries     []HistoryEntry
}

// saveHeader is the fixed-size prefix of a save file. Times are milliseconds,
// White first.
type saveHeader struct {
	State       State
	BlackToMove bool
	Timed       bool
	WhiteMillis int64
	BlackMillis int64
	Count       uint32
}

// maxSaveEntries bounds the entry count read from a file.
const maxSaveEntries = 1 << 20

// WriteTo writes g in the little-endian save layout.
func (g GameSave) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	hdr := saveHeader{
		State:       g.State,
		BlackToMove: g.BlackToMove,
		Timed:       g.Timed,
		WhiteMillis: g.WhiteTime.Milliseconds(),
		BlackMillis: g.BlackTime.Milliseconds(),
		Count:       uint32(len(g.Entries)),
	}
	if err := binary.Write(cw, binary.LittleEndian, &hdr); err != nil {
		return cw.n, err
	}
	for _, e := range g.Entries {
		if err := writeEntry(cw, e); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadGameSave parses a save file. Every field is validated; r must hold
// exactly one save.
func ReadGameSave(r io.Reader) (GameSave, error) {
	var hdr saveHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return GameSave{}, truncated(err)
	}
	if _, err := hdr.State.Decode(); err != nil {
		return GameSave{}, err
	}
	if hdr.Count > maxSaveEntries {
		return GameSave{}, fmt.Errorf("%w: %d history entries", ErrSizeMismatch, hdr.Count)
	}
	if hdr.WhiteMillis < 0 || hdr.BlackMillis < 0 {
		return GameSave{}, fmt.Errorf("%w: negative clock", ErrInvalidCode)
	}
	g := GameSave{
		State:       hdr.State,
		BlackToMove: hdr.BlackToMove,
		Timed:       hdr.Timed,
		WhiteTime:   time.Duration(hdr.WhiteMillis) * time.Millisecond,
		BlackTime:   time.Duration(hdr.BlackMillis) * time.Millisecond,
		Entries:     make([]HistoryEntry, 0, min(int(hdr.Count), 512)),
	}
	for i := uint32(0); i < hdr.Count; i++ {
		e, err := readEntry(r)
		if err != nil {
			return GameSave{}, fmt.Errorf("history entry %d: %w", i, err)
		}
		g.Entries = append(g.Entries, e)
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return GameSave{}, fmt.Errorf("%w: trailing data after %d entries", ErrSizeMismatch, hdr.Count)
	}
	return g, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
