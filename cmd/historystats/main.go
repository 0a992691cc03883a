package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shogi/pkg/shogi"
)

type moveStats struct {
	games      int
	plies      int
	byColor    [2]int
	byKind     map[string]int
	promotions map[string]int
	drops      map[string]int
	positions  map[int64]int
}

func newMoveStats() *moveStats {
	return &moveStats{
		byKind:     make(map[string]int),
		promotions: make(map[string]int),
		drops:      make(map[string]int),
		positions:  make(map[int64]int),
	}
}

// Add counts one history row. Black moves on odd plies.
func (ms *moveStats) Add(record shogi.HistoryRecord) {
	ms.plies++
	mover := shogi.Black
	if record.Ply%2 == 0 {
		mover = shogi.White
	}
	ms.byColor[mover]++
	ms.byKind[record.Kind]++
	if record.Promotion != "" {
		ms.promotions[record.Promotion]++
	}
	if record.Kind == "drop" && record.Move != "" {
		ms.drops[record.Move[:1]]++
	}
	ms.positions[record.Hash]++
}

func main() {
	kifDir := flag.String("kif-dir", "", "input directory for KIF files")
	parquetPath := flag.String("parquet", "", "input parquet file written by the shogi command")
	parallel := flag.Int64("parallel", 4, "parquet reader parallelism")
	flag.Parse()

	if *parallel <= 0 {
		fatal(fmt.Errorf("parallel must be > 0"))
	}
	if (*kifDir == "") == (*parquetPath == "") {
		fatal(fmt.Errorf("specify exactly one of -kif-dir or -parquet"))
	}

	stats := newMoveStats()
	failed := 0
	if *parquetPath != "" {
		records, err := shogi.ReadHistoryParquet(*parquetPath, *parallel)
		if err != nil {
			fatal(err)
		}
		stats.games = 1
		for _, record := range records {
			stats.Add(record)
		}
	} else {
		files, err := collectKIF(*kifDir)
		if err != nil {
			fatal(err)
		}
		if len(files) == 0 {
			fatal(fmt.Errorf("no .kif files found in %s", *kifDir))
		}
		session, err := shogi.NewSession()
		if err != nil {
			fatal(err)
		}
		defer session.Close()
		for _, path := range files {
			if err := replayFile(session, path); err != nil {
				fmt.Fprintf(os.Stderr, "failed to replay %s: %v\n", path, err)
				failed++
				continue
			}
			stats.games++
			for _, record := range shogi.HistoryRecords(session.History()) {
				stats.Add(record)
			}
		}
	}

	if *parquetPath != "" {
		fmt.Printf("input parquet: %s\n", *parquetPath)
	} else {
		fmt.Printf("kif dir: %s\n", *kifDir)
		fmt.Printf("failed files: %d\n", failed)
	}
	fmt.Printf("games: %d\n", stats.games)
	fmt.Printf("plies: %d (black=%d white=%d)\n", stats.plies, stats.byColor[shogi.Black], stats.byColor[shogi.White])
	repeated := 0
	for _, n := range stats.positions {
		if n > 1 {
			repeated++
		}
	}
	fmt.Printf("distinct positions: %d (repeated=%d)\n", len(stats.positions), repeated)
	printCounts("moves by kind", stats.byKind)
	printCounts("promotion decisions", stats.promotions)
	printCounts("drops by piece", stats.drops)
}

func replayFile(session *shogi.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return session.ReplayKIF(f)
}

func collectKIF(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".kif") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func printCounts(title string, counts map[string]int) {
	fmt.Printf("%s:\n", title)
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s,%d\n", key, counts[key])
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
