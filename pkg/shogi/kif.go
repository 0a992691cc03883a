package shogi

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// KIFOptions controls WriteKIF.
type KIFOptions struct {
	ShiftJIS bool
	// Terminal, when set, is written as the last numbered line, e.g. "投了".
	Terminal string
}

var kifFileDigits = []rune("１２３４５６７８９")
var kifRankKanji = []rune("一二三四五六七八九")

var kifNames = [pieceTypeCount]string{"玉", "金", "銀", "桂", "香", "角", "飛", "歩"}
var kifPromotedNames = [pieceTypeCount]string{Silver: "成銀", Knight: "成桂", Lance: "成香", Bishop: "馬", Rook: "龍", Pawn: "と"}

// WriteKIF writes moves as an even-game KIF record.
func WriteKIF(w io.Writer, moves []Move, opts KIFOptions) error {
	var out io.Writer = w
	var enc io.WriteCloser
	if opts.ShiftJIS {
		enc = transform.NewWriter(w, japanese.ShiftJIS.NewEncoder())
		out = enc
	}
	bw := bufio.NewWriter(out)
	fmt.Fprintln(bw, "手合割：平手")
	fmt.Fprintln(bw, "手数----指手---------消費時間--")
	var prev *Square
	for i, m := range moves {
		fmt.Fprintf(bw, "%4d %s\n", i+1, formatKIFMove(m, prev))
		to := m.To
		prev = &to
	}
	if opts.Terminal != "" {
		fmt.Fprintf(bw, "%4d %s\n", len(moves)+1, opts.Terminal)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if enc != nil {
		return enc.Close()
	}
	return nil
}

func formatKIFMove(m Move, prev *Square) string {
	var b strings.Builder
	if prev != nil && *prev == m.To {
		b.WriteString("同　")
	} else {
		b.WriteRune(kifFileDigits[m.To.Col-1])
		b.WriteRune(kifRankKanji[m.To.Row-1])
	}
	if m.Promoted {
		b.WriteString(kifPromotedNames[m.Type])
	} else {
		b.WriteString(kifNames[m.Type])
	}
	switch m.Promotion {
	case PromotionAccepted:
		b.WriteString("成")
	case PromotionDeclined:
		b.WriteString("不成")
	}
	if m.Kind == Drop {
		b.WriteString("打")
		return b.String()
	}
	fmt.Fprintf(&b, "(%d%d)", m.From.Col, m.From.Row)
	return b.String()
}

var kifMoveLineRe = regexp.MustCompile(`^\s*(\d+)\s+(\S+)`)
var kifFromSquareRe = regexp.MustCompile(`\((\d)(\d)\)`)

type kifPieceDef struct {
	name     string
	kind     PieceType
	promoted bool
}

// Promoted names come first so that 成銀 is not read as a promoting 銀.
var kifPieceDefs = []kifPieceDef{
	{name: "成銀", kind: Silver, promoted: true},
	{name: "成桂", kind: Knight, promoted: true},
	{name: "成香", kind: Lance, promoted: true},
	{name: "と", kind: Pawn, promoted: true},
	{name: "馬", kind: Bishop, promoted: true},
	{name: "龍", kind: Rook, promoted: true},
	{name: "竜", kind: Rook, promoted: true},
	{name: "王", kind: King},
	{name: "玉", kind: King},
	{name: "飛", kind: Rook},
	{name: "角", kind: Bishop},
	{name: "金", kind: Gold},
	{name: "銀", kind: Silver},
	{name: "桂", kind: Knight},
	{name: "香", kind: Lance},
	{name: "歩", kind: Pawn},
}

// ReadKIF parses the numbered move lines of a KIF record, stopping at the
// first terminal line such as 投了. UTF-8 (with or without BOM) and Shift-JIS
// input are accepted.
func ReadKIF(r io.Reader) ([]Move, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeKIF(data)
	if err != nil {
		return nil, err
	}
	var moves []Move
	var prev *Square
	for i, line := range strings.Split(text, "\n") {
		match := kifMoveLineRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if len(match) == 0 {
			continue
		}
		token := match[2]
		if isTerminalMove(token) {
			break
		}
		m, err := parseKIFMoveToken(token, prev)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		moves = append(moves, m)
		to := m.To
		prev = &to
	}
	return moves, nil
}

func decodeKIF(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS KIF")
	}
	return string(decoded), nil
}

func isTerminalMove(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け", "反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言":
		return true
	default:
		return false
	}
}

func parseKIFMoveToken(token string, prev *Square) (Move, error) {
	var m Move
	work := token
	if strings.HasPrefix(work, "同") {
		if prev == nil {
			return Move{}, fmt.Errorf("%w: same-square move without previous destination", ErrInvalidMove)
		}
		m.To = *prev
		work = strings.TrimLeft(strings.TrimPrefix(work, "同"), " 　")
	} else {
		runes := []rune(work)
		if len(runes) < 2 {
			return Move{}, fmt.Errorf("%w: %s", ErrInvalidMove, token)
		}
		col, ok := parseFileRune(runes[0])
		if !ok {
			return Move{}, fmt.Errorf("%w: invalid destination file in %s", ErrInvalidMove, token)
		}
		row, ok := parseRankRune(runes[1])
		if !ok {
			return Move{}, fmt.Errorf("%w: invalid destination rank in %s", ErrInvalidMove, token)
		}
		m.To = Sq(col, row)
		work = string(runes[2:])
	}

	def, ok := matchKIFPiece(work)
	if !ok {
		return Move{}, fmt.Errorf("%w: unknown piece in %s", ErrInvalidMove, token)
	}
	m.Type, m.Promoted = def.kind, def.promoted
	work = strings.TrimPrefix(work, def.name)

	switch {
	case strings.HasPrefix(work, "不成"):
		m.Promotion = PromotionDeclined
		work = strings.TrimPrefix(work, "不成")
	case strings.HasPrefix(work, "成"):
		m.Promotion = PromotionAccepted
		work = strings.TrimPrefix(work, "成")
	}
	if strings.HasPrefix(work, "打") {
		if m.Promoted || m.Promotion != PromotionNone {
			return Move{}, fmt.Errorf("%w: cannot drop promoted piece", ErrInvalidMove)
		}
		m.Kind = Drop
		return m, nil
	}
	match := kifFromSquareRe.FindStringSubmatch(work)
	if len(match) != 3 {
		return Move{}, fmt.Errorf("%w: missing source square in %s", ErrInvalidMove, token)
	}
	m.From = Sq(int(match[1][0]-'0'), int(match[2][0]-'0'))
	if !m.From.OnBoard() {
		return Move{}, fmt.Errorf("%w: invalid source square in %s", ErrInvalidMove, token)
	}
	return m, nil
}

func matchKIFPiece(text string) (kifPieceDef, bool) {
	for _, def := range kifPieceDefs {
		if strings.HasPrefix(text, def.name) {
			return def, true
		}
	}
	return kifPieceDef{}, false
}

func parseFileRune(r rune) (int, bool) {
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if r >= '１' && r <= '９' {
		return int(r-'１') + 1, true
	}
	return 0, false
}

func parseRankRune(r rune) (int, bool) {
	for i, k := range kifRankKanji {
		if k == r {
			return i + 1, true
		}
	}
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	return 0, false
}
