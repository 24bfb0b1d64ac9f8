package port

import "fraktag/internal/domain"

// ChunkingStrategy partitions text into ordered, offset-addressable chunks.
// Implementations hold no per-call state and are safe for concurrent use.
type ChunkingStrategy interface {
	Name() string

	// Chunk never fails for empty text; it returns an empty sequence.
	Chunk(text string, opts domain.ChunkingOptions) ([]domain.Chunk, error)

	// EstimateTokens is pure, non-negative and non-decreasing in text length.
	EstimateTokens(text string) int
}
