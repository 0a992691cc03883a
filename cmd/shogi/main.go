// Command shogi reads one command per line from stdin and drives a shogi session with it.
// The board and state are printed after every command that changes them.
//
//	click <col> <row>    select a piece, move it, or drop the selected piece
//	drop <P|L|N|S|G|B|R> toggle drop mode for a piece in hand
//	promote <yes|no>     answer a pending promotion
//	resign | new | board | history | sfen
//	clock <millis>       restart both clocks; 0 disables timed mode
//	tick <millis>        charge elapsed time to the side to move
//	save <file> | load <file>
//	kif <file> | replay <file> | parquet <file>
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shogi/pkg/shogi"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config.json (searched for when empty)")
	journal := flag.String("journal", "", "mirror the history log to this file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fatal(err)
	}
	defer logger.Sync()

	opts := []shogi.Option{shogi.WithLogger(logger), shogi.WithClock(cfg.Clock())}
	if *journal != "" {
		opts = append(opts, shogi.WithJournal(*journal))
	}
	session, err := shogi.NewSession(opts...)
	if err != nil {
		fatal(err)
	}
	defer session.Close()

	d := &driver{session: session, cfg: cfg, out: os.Stdout}
	d.printState()
	if err := d.run(os.Stdin); err != nil {
		fatal(err)
	}
}

func loadConfig(path string) (shogi.Config, error) {
	if path == "" {
		found, _, err := shogi.FindConfigPath()
		if err != nil {
			return shogi.DefaultConfig, nil
		}
		path = found
	}
	return shogi.LoadConfig(path)
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level = lvl
	return cfg.Build()
}

type driver struct {
	session *shogi.Session
	cfg     shogi.Config
	out     io.Writer
}

func (d *driver) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		changed, err := d.exec(fields[0], fields[1:])
		if err != nil {
			fmt.Fprintf(d.out, "error: %v\n", err)
			continue
		}
		if changed {
			d.printState()
		}
	}
	return scanner.Err()
}

func (d *driver) exec(cmd string, args []string) (bool, error) {
	s := d.session
	switch cmd {
	case "click":
		if len(args) != 2 {
			return false, errors.New("usage: click <col> <row>")
		}
		col, err := strconv.Atoi(args[0])
		if err != nil {
			return false, err
		}
		row, err := strconv.Atoi(args[1])
		if err != nil {
			return false, err
		}
		return s.SelectOrMove(col, row), nil
	case "drop":
		if len(args) != 1 || len(args[0]) != 1 {
			return false, errors.New("usage: drop <piece letter>")
		}
		t, ok := shogi.PieceTypeFromLetter(strings.ToUpper(args[0])[0])
		if !ok {
			return false, fmt.Errorf("unknown piece %q", args[0])
		}
		return s.SelectDrop(t), nil
	case "promote":
		if len(args) != 1 {
			return false, errors.New("usage: promote <yes|no>")
		}
		return s.DecidePromotion(args[0] == "yes" || args[0] == "y"), nil
	case "resign":
		s.Resign()
		return true, nil
	case "new":
		s.ResetGame()
		return true, nil
	case "board":
		return true, nil
	case "sfen":
		fmt.Fprintln(d.out, s.Position().SFEN(s.Turn(), s.HistoryLen()+1))
		return false, nil
	case "history":
		for i, e := range s.History() {
			fmt.Fprintf(d.out, "%4d %-8s %016x\n", i+1, e.Move, e.Hash)
		}
		return false, nil
	case "clock", "tick":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: %s <millis>", cmd)
		}
		ms, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return false, err
		}
		if cmd == "clock" {
			s.SetClock(time.Duration(ms) * time.Millisecond)
			return true, nil
		}
		return s.TickClock(time.Duration(ms) * time.Millisecond), nil
	case "save", "load", "kif", "replay", "parquet":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: %s <file>", cmd)
		}
		return d.file(cmd, d.resolve(args[0]))
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

func (d *driver) file(cmd, path string) (bool, error) {
	s := d.session
	switch cmd {
	case "save":
		return false, s.SaveFile(path)
	case "load":
		return true, s.LoadFile(path)
	case "parquet":
		return false, shogi.WriteHistoryParquet(path, s.History(), 1)
	case "kif":
		f, err := os.Create(path)
		if err != nil {
			return false, err
		}
		defer f.Close()
		if err := s.ExportKIF(f, d.cfg.ShiftJIS()); err != nil {
			return false, err
		}
		return false, f.Close()
	default:
		f, err := os.Open(path)
		if err != nil {
			return false, err
		}
		defer f.Close()
		return true, s.ReplayKIF(f)
	}
}

func (d *driver) resolve(path string) string {
	if filepath.IsAbs(path) || d.cfg.SaveDir == "" {
		return path
	}
	return filepath.Join(d.cfg.SaveDir, path)
}

func (d *driver) printState() {
	s := d.session
	board := s.Board()
	mask := s.Mask()
	fmt.Fprintln(d.out, "  9   8   7   6   5   4   3   2   1")
	for row := 1; row <= 9; row++ {
		var b strings.Builder
		for col := 9; col >= 1; col-- {
			cell := board.At(shogi.Sq(col, row)).String()
			if mask.Reachable(shogi.Sq(col, row)) {
				cell = "*" + cell
			}
			fmt.Fprintf(&b, "%-4s", cell)
		}
		fmt.Fprintf(d.out, "%s %d\n", b.String(), row)
	}
	fmt.Fprintf(d.out, "black hand: %s\n", formatHand(s.Hand(shogi.Black)))
	fmt.Fprintf(d.out, "white hand: %s\n", formatHand(s.Hand(shogi.White)))
	fmt.Fprintf(d.out, "turn: %s  mode: %s", s.Turn(), s.Mode())
	if s.Timed() {
		fmt.Fprintf(d.out, "  clock: black %s white %s", s.Remaining(shogi.Black), s.Remaining(shogi.White))
	}
	if reason := s.EndReason(); reason != "" {
		fmt.Fprintf(d.out, "  (%s)", reason)
	}
	fmt.Fprintln(d.out)
}

func formatHand(h shogi.Hand) string {
	var parts []string
	for _, t := range []shogi.PieceType{shogi.Rook, shogi.Bishop, shogi.Gold, shogi.Silver, shogi.Knight, shogi.Lance, shogi.Pawn} {
		if n := h.Count(t); n > 0 {
			parts = append(parts, fmt.Sprintf("%s%d", t, n))
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
