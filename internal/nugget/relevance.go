package nugget

import (
	"fmt"

	"fraktag/internal/adapter/prompt"
	"fraktag/internal/port"
)

const relevanceTemplate = `A user asked: {{query}}

Candidate sections, one per line, as [number] title: gist
{{candidates}}

Which candidates could help answer the question? Reply with a JSON object:
{"relevant": [numbers], "reasoning": "one sentence"}`

type Candidate struct {
	Title string
	Gist  string
}

type RelevanceInput struct {
	Query      string
	Candidates []Candidate
}

type Verdict struct {
	Relevant  []int  `json:"relevant"`
	Reasoning string `json:"reasoning"`
}

// Relevance picks the candidates that bear on a query. Indices in the
// verdict are zero-based positions in RelevanceInput.Candidates.
type Relevance struct{}

func (Relevance) Definition() Definition {
	return Definition{
		Name:     "relevance",
		Template: relevanceTemplate,
		Shape:    port.ShapeJSON,
		Budget:   port.Budget{MaxTokens: 512},
	}
}

func (Relevance) PrepareVariables(in RelevanceInput) prompt.Vars {
	lines := make([]string, len(in.Candidates))
	for i, c := range in.Candidates {
		lines[i] = fmt.Sprintf("[%d] %s: %s", i, c.Title, c.Gist)
	}
	return prompt.Vars{"query": in.Query, "candidates": lines}
}

func (Relevance) ParseOutput(raw string) (Verdict, error) {
	v, err := ParseJSON[Verdict]("relevance", raw)
	if err != nil {
		return Verdict{}, err
	}
	seen := make(map[int]bool, len(v.Relevant))
	kept := v.Relevant[:0]
	for _, i := range v.Relevant {
		if i < 0 || seen[i] {
			continue
		}
		seen[i] = true
		kept = append(kept, i)
	}
	v.Relevant = kept
	return v, nil
}
