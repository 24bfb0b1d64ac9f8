package domain

import "time"

// StrategyID names a chunking algorithm. It is the only configuration surface
// for picking one.
type StrategyID string

const (
	StrategyRecursive   StrategyID = "recursive"
	StrategyFixed512    StrategyID = "fixed-512"
	StrategyFixed1024   StrategyID = "fixed-1024"
	StrategySemantic    StrategyID = "semantic"
	StrategyProposition StrategyID = "proposition"
)

// Metadata keys set by the chunkers.
const (
	MetaTitle       = "title"
	MetaSourceType  = "source_type"
	MetaHeaderLevel = "header_level"
	MetaIndex       = "index"
)

// Source marker types recorded under MetaSourceType.
const (
	SourcePage    = "page"
	SourceHeader  = "header"
	SourceRule    = "horizontal_rule"
	SourceUnsplit = "unsplit"
	SourceWindow  = "window"
)

// Chunk is a contiguous span of a source text. Start and End are rune offsets
// into the original text and Text equals that span exactly.
type Chunk struct {
	Text     string         `json:"text"`
	Start    int            `json:"start_offset"`
	End      int            `json:"end_offset"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ChunkingOptions holds token-based limits with optional character overrides.
// A nil override is absent; a present override always wins over the token value.
type ChunkingOptions struct {
	MaxTokens      int  `json:"max_tokens,omitempty" yaml:"max_tokens"`
	OverlapTokens  int  `json:"overlap_tokens,omitempty" yaml:"overlap_tokens"`
	MinChunkTokens int  `json:"min_chunk_tokens,omitempty" yaml:"min_chunk_tokens"`
	MaxChars       *int `json:"max_chars,omitempty" yaml:"max_chars,omitempty"`
	OverlapChars   *int `json:"overlap_chars,omitempty" yaml:"overlap_chars,omitempty"`
	MinChunkChars  *int `json:"min_chunk_chars,omitempty" yaml:"min_chunk_chars,omitempty"`
	MaxSections    int  `json:"max_sections,omitempty" yaml:"max_sections,omitempty"`
}

// Default token limits.
const (
	DefaultMaxTokens      = 512
	DefaultOverlapTokens  = 50
	DefaultMinChunkTokens = 50
)

// DefaultChunkingOptions returns the 512/50/50 token defaults.
func DefaultChunkingOptions() ChunkingOptions {
	return ChunkingOptions{
		MaxTokens:      DefaultMaxTokens,
		OverlapTokens:  DefaultOverlapTokens,
		MinChunkTokens: DefaultMinChunkTokens,
	}
}

// Chars returns a pointer for use as a character override.
func Chars(n int) *int {
	return &n
}

// ChunkingResult aggregates the chunks of one invocation. Token figures come
// from the producing strategy's own estimator.
type ChunkingResult struct {
	Strategy          string  `json:"strategy"`
	Chunks            []Chunk `json:"chunks"`
	TotalTokens       int     `json:"total_tokens"`
	AvgTokensPerChunk float64 `json:"avg_tokens_per_chunk"`
}

// NewChunkingResult computes the derived token figures with estimate.
func NewChunkingResult(strategy string, chunks []Chunk, estimate func(string) int) ChunkingResult {
	total := 0
	for _, c := range chunks {
		total += estimate(c.Text)
	}
	avg := 0.0
	if len(chunks) > 0 {
		avg = float64(total) / float64(len(chunks))
	}
	return ChunkingResult{
		Strategy:          strategy,
		Chunks:            chunks,
		TotalTokens:       total,
		AvgTokensPerChunk: avg,
	}
}

type Document struct {
	ID       string
	Path     string
	ModTime  time.Time
	Strategy string
	Runes    int
}

// StoredChunk is a chunk persisted under its owning document.
type StoredChunk struct {
	ID    string
	DocID string
	Index int
	Chunk Chunk
}

type Stats struct {
	TotalDocs         int     `json:"total_docs"`
	TotalChunks       int     `json:"total_chunks"`
	TotalTokens       int     `json:"total_tokens"`
	AvgTokensPerChunk float64 `json:"avg_tokens_per_chunk"`
}
