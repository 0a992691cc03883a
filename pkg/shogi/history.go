package shogi

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// HistoryEntry is one committed ply and the position it produced.
type HistoryEntry struct {
	Move  Move
	Hash  uint64
	State State
}

func newHistoryEntry(m Move, p Position) HistoryEntry {
	state := EncodeState(p)
	return HistoryEntry{Move: m, Hash: state.Hash(), State: state}
}

// Position decodes the snapshot stored with the entry.
func (e HistoryEntry) Position() (Position, error) {
	return e.State.Decode()
}

// History is the append-only move log of a game. When a journal is attached
// every entry is also written to it in the save-file record format.
type History struct {
	entries []HistoryEntry
	journal io.WriteCloser
}

// OpenJournal creates (or truncates) path and mirrors appended entries to it.
func (h *History) OpenJournal(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open history journal: %w", err)
	}
	h.journal = f
	for _, e := range h.entries {
		if err := writeEntry(f, e); err != nil {
			return err
		}
	}
	return nil
}

// Append adds e. The entry is kept even when the journal write fails.
func (h *History) Append(e HistoryEntry) error {
	h.entries = append(h.entries, e)
	if h.journal == nil {
		return nil
	}
	return writeEntry(h.journal, e)
}

func (h *History) Len() int {
	return len(h.entries)
}

// At returns the i-th entry, 0 being the first ply.
func (h *History) At(i int) HistoryEntry {
	return h.entries[i]
}

// Entries returns a copy of the log.
func (h *History) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Moves returns the notation moves in order.
func (h *History) Moves() []Move {
	out := make([]Move, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Move
	}
	return out
}

// PositionAt decodes the position after ply i.
func (h *History) PositionAt(i int) (Position, error) {
	if i < 0 || i >= len(h.entries) {
		return Position{}, fmt.Errorf("ply out of range: %d", i)
	}
	return h.At(i).Position()
}

// Reset empties the log. An open journal is truncated to match.
func (h *History) Reset() error {
	h.entries = nil
	return h.rewriteJournal()
}

func (h *History) replace(entries []HistoryEntry) error {
	h.entries = entries
	return h.rewriteJournal()
}

func (h *History) rewriteJournal() error {
	f, ok := h.journal.(*os.File)
	if !ok {
		return nil
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	for _, e := range h.entries {
		if err := writeEntry(f, e); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the journal, if any.
func (h *History) Close() error {
	if h.journal == nil {
		return nil
	}
	err := h.journal.Close()
	h.journal = nil
	return err
}

// entryRecord is the fixed-size on-disk form of a HistoryEntry.
type entryRecord struct {
	Move  [MoveLength]byte
	Hash  uint64
	State State
}

func writeEntry(w io.Writer, e HistoryEntry) error {
	rec := entryRecord{Move: encodeMove(e.Move), Hash: e.Hash, State: e.State}
	return binary.Write(w, binary.LittleEndian, &rec)
}

func readEntry(r io.Reader) (HistoryEntry, error) {
	var rec entryRecord
	if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
		return HistoryEntry{}, truncated(err)
	}
	m, err := decodeMove(rec.Move)
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if _, err := rec.State.Decode(); err != nil {
		return HistoryEntry{}, err
	}
	return HistoryEntry{Move: m, Hash: rec.Hash, State: rec.State}, nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}
	return err
}
