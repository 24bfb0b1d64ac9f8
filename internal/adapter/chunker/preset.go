package chunker

import "fraktag/internal/domain"

// Preset is a named parameter bundle for the fixed-window algorithm.
type Preset struct {
	ID             domain.StrategyID
	MaxTokens      int
	OverlapTokens  int
	MinChunkTokens int
}

var presets = map[domain.StrategyID]Preset{
	domain.StrategyFixed512:  {ID: domain.StrategyFixed512, MaxTokens: 512, OverlapTokens: 50, MinChunkTokens: 50},
	domain.StrategyFixed1024: {ID: domain.StrategyFixed1024, MaxTokens: 1024, OverlapTokens: 100, MinChunkTokens: 100},
}

// LookupPreset returns a copy of the preset registered for id.
func LookupPreset(id domain.StrategyID) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}
