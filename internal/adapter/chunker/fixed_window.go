package chunker

import (
	"unicode"

	"fraktag/internal/adapter/analyzer"
	"fraktag/internal/domain"
)

// FixedWindowChunker cuts sliding character windows with overlap, snapping
// window ends back to a nearby space when one exists.
type FixedWindowChunker struct {
	preset Preset
}

func NewFixedWindowChunker(preset Preset) *FixedWindowChunker {
	return &FixedWindowChunker{preset: preset}
}

func (c *FixedWindowChunker) Name() string {
	return string(c.preset.ID)
}

func (c *FixedWindowChunker) EstimateTokens(text string) int {
	return analyzer.EstimateTokens(text)
}

func (c *FixedWindowChunker) Preset() Preset {
	return c.preset
}

// windowLimits is a ChunkingOptions value resolved to characters.
type windowLimits struct {
	maxChars     int
	overlapChars int
	minChars     int
}

func (c *FixedWindowChunker) resolve(opts domain.ChunkingOptions) (windowLimits, error) {
	pick := func(override *int, tokens, presetTokens int) int {
		if override != nil {
			return *override
		}
		if tokens == 0 {
			tokens = presetTokens
		}
		return analyzer.TokensToChars(tokens)
	}
	lim := windowLimits{
		maxChars:     pick(opts.MaxChars, opts.MaxTokens, c.preset.MaxTokens),
		overlapChars: pick(opts.OverlapChars, opts.OverlapTokens, c.preset.OverlapTokens),
		minChars:     pick(opts.MinChunkChars, opts.MinChunkTokens, c.preset.MinChunkTokens),
	}
	if lim.maxChars <= 0 {
		return lim, &domain.ValidationError{Field: "maxChars", Reason: "window size must be positive"}
	}
	if lim.overlapChars < 0 {
		return lim, &domain.ValidationError{Field: "overlapChars", Reason: "overlap cannot be negative"}
	}
	if lim.minChars < 0 {
		return lim, &domain.ValidationError{Field: "minChunkChars", Reason: "minimum cannot be negative"}
	}
	return lim, nil
}

func (c *FixedWindowChunker) Chunk(text string, opts domain.ChunkingOptions) ([]domain.Chunk, error) {
	if err := validText(text); err != nil {
		return nil, err
	}
	lim, err := c.resolve(opts)
	if err != nil {
		return nil, err
	}
	return windows(text, lim), nil
}

func windows(text string, lim windowLimits) []domain.Chunk {
	runes := []rune(text)
	length := len(runes)
	snap := lim.maxChars / 10

	var chunks []domain.Chunk
	start := 0
	for start < length {
		end := min(start+lim.maxChars, length)

		if end < length {
			for i := end - 1; i >= end-snap && i > start; i-- {
				if unicode.IsSpace(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		ts, te := trimRunes(runes, start, end)
		if te > ts && te-ts >= lim.minChars {
			chunks = append(chunks, domain.Chunk{
				Text:  string(runes[ts:te]),
				Start: ts,
				End:   te,
				Metadata: map[string]any{
					domain.MetaSourceType: domain.SourceWindow,
					domain.MetaIndex:      len(chunks),
				},
			})
		}

		// At least one rune per iteration, even when overlap >= window.
		start += max(end-start-lim.overlapChars, 1)
	}
	return chunks
}
