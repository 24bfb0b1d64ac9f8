package chunker

import (
	"errors"
	"strings"
	"testing"

	"fraktag/internal/domain"
)

func windowOpts(maxChars, overlap, minChars int) domain.ChunkingOptions {
	return domain.ChunkingOptions{
		MaxChars:      domain.Chars(maxChars),
		OverlapChars:  domain.Chars(overlap),
		MinChunkChars: domain.Chars(minChars),
	}
}

func TestFixedWindow_SnapsToSpace(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	text := strings.Repeat("x", 18) + " " + strings.Repeat("y", 30)

	chunks, err := c.Chunk(text, windowOpts(20, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Text != strings.Repeat("x", 18) || chunks[0].End != 18 {
		t.Errorf("first chunk should end at the word boundary, got %q [%d,%d)", chunks[0].Text, chunks[0].Start, chunks[0].End)
	}
	if chunks[1].Start != 19 || chunks[1].End != 39 {
		t.Errorf("second chunk should start word-aligned, got [%d,%d)", chunks[1].Start, chunks[1].End)
	}
	assertOffsets(t, text, chunks)
}

func TestFixedWindow_NoSnapWhenSpaceTooFarBack(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	text := strings.Repeat("x", 5) + " " + strings.Repeat("y", 30)

	chunks, err := c.Chunk(text, windowOpts(20, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if chunks[0].End != 20 {
		t.Errorf("expected hard cut at 20, got %d", chunks[0].End)
	}
}

func TestFixedWindow_Overlap(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	text := strings.Repeat("a", 100)

	chunks, err := c.Chunk(text, windowOpts(40, 10, 0))
	if err != nil {
		t.Fatal(err)
	}
	wantStarts := []int{0, 30, 60, 90}
	if len(chunks) != len(wantStarts) {
		t.Fatalf("expected %d chunks, got %d", len(wantStarts), len(chunks))
	}
	for i, want := range wantStarts {
		if chunks[i].Start != want {
			t.Errorf("chunk %d: expected start %d, got %d", i, want, chunks[i].Start)
		}
	}
	assertOffsets(t, text, chunks)
}

func TestFixedWindow_TrailingOverlapWindows(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	text := strings.Repeat("a", 30)

	tests := []struct {
		name      string
		minChars  int
		wantSpans [][2]int
	}{
		{"tail windows above the minimum are kept", 5, [][2]int{{0, 20}, {15, 30}, {25, 30}}},
		{"cursor keeps stepping one rune past the overlap", 1, [][2]int{
			{0, 20}, {15, 30}, {25, 30}, {26, 30}, {27, 30}, {28, 30}, {29, 30},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := c.Chunk(text, windowOpts(20, 5, tt.minChars))
			if err != nil {
				t.Fatal(err)
			}
			if len(chunks) != len(tt.wantSpans) {
				t.Fatalf("expected %d chunks, got %d: %+v", len(tt.wantSpans), len(chunks), chunks)
			}
			for i, span := range tt.wantSpans {
				if chunks[i].Start != span[0] || chunks[i].End != span[1] {
					t.Errorf("chunk %d: expected [%d,%d), got [%d,%d)", i, span[0], span[1], chunks[i].Start, chunks[i].End)
				}
			}
			assertOffsets(t, text, chunks)
		})
	}
}

func TestFixedWindow_DropsShortChunks(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	text := strings.Repeat("a", 30)

	chunks, err := c.Chunk(text, windowOpts(25, 0, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected the 5-char tail to be dropped, got %d chunks", len(chunks))
	}
}

func TestFixedWindow_TerminatesWithAdversarialOverlap(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	text := strings.Repeat("lorem ipsum ", 40)
	length := len([]rune(text))

	tests := []struct {
		name    string
		max     int
		overlap int
	}{
		{"overlap equals window", 10, 10},
		{"overlap exceeds window", 10, 500},
		{"single char window", 1, 0},
		{"window larger than text", 10000, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := c.Chunk(text, windowOpts(tt.max, tt.overlap, 0))
			if err != nil {
				t.Fatal(err)
			}
			if len(chunks) > length {
				t.Errorf("more chunks (%d) than runes (%d)", len(chunks), length)
			}
			assertOffsets(t, text, chunks)
		})
	}
}

func TestFixedWindow_PresetDefaults(t *testing.T) {
	tests := []struct {
		id       domain.StrategyID
		maxChars int
		step     int
	}{
		{domain.StrategyFixed512, 2048, 2048 - 200},
		{domain.StrategyFixed1024, 4096, 4096 - 400},
	}
	text := strings.Repeat("z", 10000)
	for _, tt := range tests {
		c := NewFixedWindowChunker(presets[tt.id])
		chunks, err := c.Chunk(text, domain.ChunkingOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) < 2 {
			t.Fatalf("%s: expected several chunks, got %d", tt.id, len(chunks))
		}
		if got := chunks[0].End - chunks[0].Start; got != tt.maxChars {
			t.Errorf("%s: expected first window of %d chars, got %d", tt.id, tt.maxChars, got)
		}
		if chunks[1].Start != tt.step {
			t.Errorf("%s: expected second start %d, got %d", tt.id, tt.step, chunks[1].Start)
		}
	}
}

func TestFixedWindow_CharOverridesWin(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	opts := domain.ChunkingOptions{MaxTokens: 1000, MaxChars: domain.Chars(10), OverlapChars: domain.Chars(0), MinChunkChars: domain.Chars(0)}

	chunks, err := c.Chunk(strings.Repeat("b", 35), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 4 {
		t.Errorf("expected 4 chunks of at most 10 chars, got %d", len(chunks))
	}
}

func TestFixedWindow_Validation(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])

	if _, err := c.Chunk("abc", windowOpts(0, 0, 0)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for zero window, got %v", err)
	}
	if _, err := c.Chunk("abc", windowOpts(10, -1, 0)); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for negative overlap, got %v", err)
	}
	if _, err := c.Chunk("\xc3\x28", domain.ChunkingOptions{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for invalid UTF-8, got %v", err)
	}

	chunks, err := c.Chunk("", domain.ChunkingOptions{})
	if err != nil || len(chunks) != 0 {
		t.Errorf("expected empty result for empty text, got %d chunks, err %v", len(chunks), err)
	}
}

func TestFixedWindow_MultibyteOffsets(t *testing.T) {
	c := NewFixedWindowChunker(presets[domain.StrategyFixed512])
	text := strings.Repeat("día soleado ", 20)

	chunks, err := c.Chunk(text, windowOpts(30, 5, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	assertOffsets(t, text, chunks)
}
