package chunker

import (
	"strings"

	"fraktag/internal/domain"
	"fraktag/internal/port"
)

// reserved identifiers are known but withheld on purpose.
var reserved = map[domain.StrategyID]bool{
	domain.StrategySemantic:    true,
	domain.StrategyProposition: true,
}

// Available lists the identifiers New can construct.
func Available() []domain.StrategyID {
	return []domain.StrategyID{domain.StrategyRecursive, domain.StrategyFixed512, domain.StrategyFixed1024}
}

// New constructs the strategy for id with default settings. Unknown and
// reserved identifiers fail with *domain.UnsupportedStrategyError.
func New(id domain.StrategyID) (port.ChunkingStrategy, error) {
	return NewWithConfig(id, DefaultStructuralConfig())
}

// NewWithConfig is New with explicit structural settings.
func NewWithConfig(id domain.StrategyID, structural StructuralConfig) (port.ChunkingStrategy, error) {
	id = domain.StrategyID(strings.ToLower(strings.TrimSpace(string(id))))
	if id == domain.StrategyRecursive {
		return NewStructuralChunker(structural), nil
	}
	if p, ok := LookupPreset(id); ok {
		return NewFixedWindowChunker(p), nil
	}
	return nil, &domain.UnsupportedStrategyError{Strategy: string(id), Reserved: reserved[id]}
}

// Run chunks text with strategy and aggregates the result using the
// strategy's own estimator.
func Run(strategy port.ChunkingStrategy, text string, opts domain.ChunkingOptions) (domain.ChunkingResult, error) {
	chunks, err := strategy.Chunk(text, opts)
	if err != nil {
		return domain.ChunkingResult{}, err
	}
	return domain.NewChunkingResult(strategy.Name(), chunks, strategy.EstimateTokens), nil
}
