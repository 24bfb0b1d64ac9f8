package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"fraktag/config"
	"fraktag/internal/adapter/chunker"
	"fraktag/internal/adapter/fs"
	"fraktag/internal/domain"
	"fraktag/internal/port"
)

type report struct {
	strategy string
	docs     int
	chunks   int
	tokens   int
	minRunes int
	maxRunes int
	covered  int
	elapsed  time.Duration
	failures int
}

func main() {
	dir := flag.String("dir", ".", "Directory of documents to chunk")
	strategies := flag.String("s", "", "Comma-separated strategies (default: all available)")
	maxChars := flag.Int("max-chars", 0, "Character override for the window size (0 = strategy default)")
	flag.Parse()

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ids := chunker.Available()
	if *strategies != "" {
		ids = nil
		for _, s := range strings.Split(*strategies, ",") {
			ids = append(ids, domain.StrategyID(strings.TrimSpace(s)))
		}
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := walker.Walk(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error walking %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("Usage: go run cmd/benchmark/main.go -dir ./docs [-s recursive,fixed-512] [-max-chars 800]")
		fmt.Println("\nNo matching documents found.")
		os.Exit(1)
	}

	texts := make([]string, 0, len(files))
	totalRunes := 0
	for _, f := range files {
		text, err := fs.Reader{}.ReadFile(f.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", f.Path, err)
			continue
		}
		texts = append(texts, text)
		totalRunes += utf8.RuneCountInString(text)
	}

	opts := cfg.Chunking.Options
	if *maxChars > 0 {
		opts.MaxChars = domain.Chars(*maxChars)
	}

	fmt.Println("CHUNKING BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d (%d runes)\n\n", len(texts), totalRunes)

	var reports []report
	for _, id := range ids {
		strategy, err := chunker.NewWithConfig(id, cfg.Chunking.Structural)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
			continue
		}
		reports = append(reports, run(strategy, texts, opts))
	}

	fmt.Printf("%-12s %7s %9s %9s %9s %9s %10s\n", "STRATEGY", "CHUNKS", "AVG TOK", "MIN", "MAX", "COVERAGE", "TIME")
	fmt.Println(strings.Repeat("-", 70))
	for _, r := range reports {
		avg := 0.0
		if r.chunks > 0 {
			avg = float64(r.tokens) / float64(r.chunks)
		}
		coverage := 0.0
		if totalRunes > 0 {
			coverage = float64(r.covered) / float64(totalRunes)
		}
		fmt.Printf("%-12s %7d %9.1f %9d %9d %8.1f%% %10s\n",
			r.strategy, r.chunks, avg, r.minRunes, r.maxRunes, coverage*100, r.elapsed.Round(time.Microsecond))
		if r.failures > 0 {
			fmt.Printf("  (%d documents failed)\n", r.failures)
		}
	}
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("MIN/MAX are chunk lengths in runes. Coverage above 100% means overlap.")
}

func run(strategy port.ChunkingStrategy, texts []string, opts domain.ChunkingOptions) report {
	r := report{strategy: strategy.Name()}
	start := time.Now()
	for _, text := range texts {
		chunks, err := strategy.Chunk(text, opts)
		if err != nil {
			r.failures++
			continue
		}
		r.docs++
		for _, c := range chunks {
			n := c.End - c.Start
			if r.chunks == 0 || n < r.minRunes {
				r.minRunes = n
			}
			if n > r.maxRunes {
				r.maxRunes = n
			}
			r.chunks++
			r.covered += n
			r.tokens += strategy.EstimateTokens(c.Text)
		}
	}
	r.elapsed = time.Since(start)
	return r
}
