package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"fraktag/internal/adapter/analyzer"
	"fraktag/internal/adapter/chunker"
	"fraktag/internal/domain"
	"fraktag/internal/logging"
	"fraktag/internal/nugget"
	"fraktag/internal/port"
)

// Segment sources.
const (
	SegmentStructural = "structural"
	SegmentModel      = "model"
)

// Segment is one node of a decomposed document. Start and End are rune
// offsets into the document text.
type Segment struct {
	Title  string `json:"title"`
	Gist   string `json:"gist,omitempty"`
	Start  int    `json:"start_offset"`
	End    int    `json:"end_offset"`
	Source string `json:"source"`
}

// DecomposeUseCase splits a document along its structure first and asks the
// model to break up only the sections that are still larger than MaxTokens.
type DecomposeUseCase struct {
	llm       port.LLM
	chunker   *chunker.StructuralChunker
	maxTokens int
	logger    logging.Logger
}

func NewDecomposeUseCase(llm port.LLM, structural chunker.StructuralConfig, maxTokens int, logger logging.Logger) *DecomposeUseCase {
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &DecomposeUseCase{
		llm:       llm,
		chunker:   chunker.NewStructuralChunker(structural),
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Decompose returns the segments of text in document order.
func (u *DecomposeUseCase) Decompose(ctx context.Context, docTitle, text string) ([]Segment, error) {
	sections, err := u.chunker.Chunk(text, domain.ChunkingOptions{MinChunkChars: domain.Chars(1)})
	if err != nil {
		return nil, err
	}

	var segments []Segment
	for _, sec := range sections {
		secTitle := title(sec)
		if analyzer.EstimateTokens(sec.Text) <= u.maxTokens {
			segments = append(segments, Segment{Title: secTitle, Start: sec.Start, End: sec.End, Source: SegmentStructural})
			continue
		}

		name := docTitle
		if secTitle != "" && secTitle != "Document" {
			name = strings.TrimSpace(docTitle + " / " + secTitle)
		}
		parts, err := nugget.Run[nugget.DecomposeInput, []nugget.Part](ctx, u.llm, nugget.Decompose{}, nugget.DecomposeInput{
			Title: name,
			Text:  sec.Text,
		})
		if err != nil {
			return nil, fmt.Errorf("decompose %q: %w", name, err)
		}
		segments = append(segments, u.anchor(sec, parts)...)
	}
	return segments, nil
}

// anchor maps model parts back onto sec by locating each part's first words.
// Parts that cannot be found are dropped; if none is found the section is
// kept whole.
func (u *DecomposeUseCase) anchor(sec domain.Chunk, parts []nugget.Part) []Segment {
	type hit struct {
		at   int
		part nugget.Part
	}
	var hits []hit
	used := make(map[int]bool)
	for _, p := range parts {
		at := locate(sec.Text, p.FirstWords)
		if at < 0 || used[at] {
			u.logger.Debug("part not anchored", "title", p.Title)
			continue
		}
		used[at] = true
		hits = append(hits, hit{at: at, part: p})
	}
	if len(hits) == 0 {
		return []Segment{{Title: title(sec), Start: sec.Start, End: sec.End, Source: SegmentStructural}}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].at < hits[j].at })
	hits[0].at = 0

	total := utf8.RuneCountInString(sec.Text)
	out := make([]Segment, len(hits))
	for i, h := range hits {
		end := total
		if i+1 < len(hits) {
			end = hits[i+1].at
		}
		out[i] = Segment{
			Title:  h.part.Title,
			Gist:   h.part.Gist,
			Start:  sec.Start + h.at,
			End:    sec.Start + end,
			Source: SegmentModel,
		}
	}
	return out
}

// locate returns the rune offset of words in text, matching on
// whitespace-separated tokens so line breaks in the source do not matter.
func locate(text, words string) int {
	fields := strings.Fields(words)
	if len(fields) == 0 {
		return -1
	}
	runes := []rune(text)
	type tok struct {
		word  string
		start int
	}
	var toks []tok
	for i := 0; i < len(runes); {
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start := i
		for i < len(runes) && !unicode.IsSpace(runes[i]) {
			i++
		}
		if start < i {
			toks = append(toks, tok{word: strings.ToLower(string(runes[start:i])), start: start})
		}
	}
	for i := 0; i+len(fields) <= len(toks); i++ {
		match := true
		for j, f := range fields {
			if toks[i+j].word != strings.ToLower(f) {
				match = false
				break
			}
		}
		if match {
			return toks[i].start
		}
	}
	return -1
}
