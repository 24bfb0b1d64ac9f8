package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"fraktag/internal/domain"
)

func assertOffsets(t *testing.T, text string, chunks []domain.Chunk) {
	t.Helper()
	runes := []rune(text)
	prevStart := -1
	for i, c := range chunks {
		if c.Start < 0 || c.End > len(runes) || c.Start >= c.End {
			t.Fatalf("chunk %d has invalid offsets [%d,%d) for length %d", i, c.Start, c.End, len(runes))
		}
		if got := string(runes[c.Start:c.End]); got != c.Text {
			t.Errorf("chunk %d text %q does not match source span %q", i, c.Text, got)
		}
		if strings.TrimSpace(c.Text) == "" {
			t.Errorf("chunk %d is blank", i)
		}
		if c.Start < prevStart {
			t.Errorf("chunk %d starts at %d before previous start %d", i, c.Start, prevStart)
		}
		prevStart = c.Start
	}
}

func smallSections() domain.ChunkingOptions {
	return domain.ChunkingOptions{MinChunkChars: domain.Chars(1)}
}

func TestStructural_PageMarkersWinOverHeaders(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())
	text := "---=== PAGE 1 ===---\nA\n---=== PAGE 2 ===---\n## H\nB"

	chunks, err := c.Chunk(text, smallSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 page chunks, got %d: %+v", len(chunks), chunks)
	}
	for i, want := range []string{"A", "## H\nB"} {
		if chunks[i].Text != want {
			t.Errorf("chunk %d: expected %q, got %q", i, want, chunks[i].Text)
		}
		if chunks[i].Metadata[domain.MetaSourceType] != domain.SourcePage {
			t.Errorf("chunk %d: expected page source, got %v", i, chunks[i].Metadata[domain.MetaSourceType])
		}
		if title := chunks[i].Metadata[domain.MetaTitle]; title != fmt.Sprintf("Page %d", i+1) {
			t.Errorf("chunk %d: unexpected title %v", i, title)
		}
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_SinglePageFallsThroughToHeaders(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())
	text := "---=== PAGE 1 ===---\n# One\nalpha\n## Two\nbeta"

	chunks, err := c.Chunk(text, smallSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected introduction plus 2 header chunks, got %d", len(chunks))
	}
	if chunks[1].Metadata[domain.MetaSourceType] != domain.SourceHeader {
		t.Errorf("expected header source, got %v", chunks[1].Metadata[domain.MetaSourceType])
	}
	for i, want := range []string{"Introduction", "One", "Two"} {
		if chunks[i].Metadata[domain.MetaTitle] != want {
			t.Errorf("chunk %d: expected title %q, got %v", i, want, chunks[i].Metadata[domain.MetaTitle])
		}
	}
	if chunks[1].Metadata[domain.MetaHeaderLevel] != 1 || chunks[2].Metadata[domain.MetaHeaderLevel] != 2 {
		t.Errorf("unexpected levels: %v, %v", chunks[1].Metadata[domain.MetaHeaderLevel], chunks[2].Metadata[domain.MetaHeaderLevel])
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_HeadersWithIntroduction(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())
	text := "Preamble text.\n\n# Chapter\nBody one.\n### Deep\nstill chapter\n## Next\nBody two."

	chunks, err := c.Chunk(text, smallSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Metadata[domain.MetaTitle] != "Introduction" {
		t.Errorf("expected Introduction, got %v", chunks[0].Metadata[domain.MetaTitle])
	}
	if !strings.Contains(chunks[1].Text, "### Deep") {
		t.Errorf("level-3 header should stay inside its parent section, got %q", chunks[1].Text)
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_HorizontalRules(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())
	text := "part one\n---\npart two\n***\npart three\n___\n"

	chunks, err := c.Chunk(text, smallSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, want := range []string{"part one", "part two", "part three"} {
		if chunks[i].Text != want {
			t.Errorf("chunk %d: expected %q, got %q", i, want, chunks[i].Text)
		}
		if chunks[i].Metadata[domain.MetaTitle] != fmt.Sprintf("Section %d", i+1) {
			t.Errorf("chunk %d: unexpected title %v", i, chunks[i].Metadata[domain.MetaTitle])
		}
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_Fallback(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())
	text := "\n  Just a plain paragraph.\nAnother line without structure.  \n"

	chunks, err := c.Chunk(text, domain.ChunkingOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != strings.TrimSpace(text) {
		t.Errorf("expected trimmed input, got %q", chunks[0].Text)
	}
	if chunks[0].Metadata[domain.MetaSourceType] != domain.SourceUnsplit {
		t.Errorf("expected unsplit marker, got %v", chunks[0].Metadata[domain.MetaSourceType])
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_MaxSectionsCap(t *testing.T) {
	c := NewStructuralChunker(StructuralConfig{MaxSections: 50, SplitOnPages: true, SplitOnHorizontalRules: true})
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&sb, "## Section %d\nbody of section %d\n", i, i)
	}
	text := sb.String()

	chunks, err := c.Chunk(text, smallSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 50 {
		t.Fatalf("expected 50 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if want := fmt.Sprintf("Section %d", i); ch.Metadata[domain.MetaTitle] != want {
			t.Fatalf("chunk %d: expected %q, got %v", i, want, ch.Metadata[domain.MetaTitle])
		}
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_MinSectionCharsDropsShortSections(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())
	long := strings.Repeat("word ", 30)
	text := "---=== PAGE 1 ===---\n" + long + "\n---=== PAGE 2 ===---\nshort\n---=== PAGE 3 ===---\n" + long

	chunks, err := c.Chunk(text, domain.ChunkingOptions{MinChunkChars: domain.Chars(50)})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks after dropping the short page, got %d", len(chunks))
	}
	if chunks[0].Metadata[domain.MetaTitle] != "Page 1" || chunks[1].Metadata[domain.MetaTitle] != "Page 3" {
		t.Errorf("unexpected titles: %v, %v", chunks[0].Metadata[domain.MetaTitle], chunks[1].Metadata[domain.MetaTitle])
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_PagesDisabled(t *testing.T) {
	cfg := DefaultStructuralConfig()
	cfg.SplitOnPages = false
	c := NewStructuralChunker(cfg)
	text := "---=== PAGE 1 ===---\nA\n---=== PAGE 2 ===---\n## H\nB"

	chunks, err := c.Chunk(text, smallSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 2 || chunks[1].Metadata[domain.MetaTitle] != "H" {
		t.Fatalf("expected header split, got %+v", chunks)
	}
}

func TestStructural_MultibyteOffsets(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())
	text := "Überblick — café\n# Größe\nnaïve résumé\n# Ende\n日本語のテキスト"

	chunks, err := c.Chunk(text, smallSections())
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	assertOffsets(t, text, chunks)
}

func TestStructural_EmptyAndInvalidInput(t *testing.T) {
	c := NewStructuralChunker(DefaultStructuralConfig())

	for _, text := range []string{"", "   \n\t "} {
		chunks, err := c.Chunk(text, domain.ChunkingOptions{})
		if err != nil {
			t.Errorf("unexpected error for %q: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %d", text, len(chunks))
		}
	}

	_, err := c.Chunk("bad \xff\xfe bytes", domain.ChunkingOptions{})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
