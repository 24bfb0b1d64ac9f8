package nugget

import (
	"strings"

	"fraktag/internal/adapter/prompt"
	"fraktag/internal/domain"
	"fraktag/internal/port"
)

const decomposeTemplate = `Split the document below into its natural topical parts, in order.

Document title: {{title}}

Document:
{{text}}

Return a JSON array. Each element is an object:
{"title": "short heading", "gist": "one sentence", "first_words": "the first eight words of the part, copied exactly"}
Return only the JSON array.`

type DecomposeInput struct {
	Title string
	Text  string
}

// Part is one topical part proposed by the model. FirstWords anchors it back
// into the source text.
type Part struct {
	Title      string `json:"title"`
	Gist       string `json:"gist"`
	FirstWords string `json:"first_words"`
}

// Decompose asks for the topical parts of a document. Its output lists every
// part, so the budget is unbounded.
type Decompose struct{}

func (Decompose) Definition() Definition {
	return Definition{
		Name:     "decompose",
		Template: decomposeTemplate,
		Shape:    port.ShapeJSON,
		Budget:   port.Budget{Unbounded: true},
	}
}

func (Decompose) PrepareVariables(in DecomposeInput) prompt.Vars {
	return prompt.Vars{"title": in.Title, "text": in.Text}
}

func (Decompose) ParseOutput(raw string) ([]Part, error) {
	parts, err := ParseJSONArray[Part]("decompose", raw)
	if err != nil {
		return nil, err
	}
	out := parts[:0]
	for _, p := range parts {
		p.Title = strings.TrimSpace(p.Title)
		p.Gist = strings.TrimSpace(p.Gist)
		p.FirstWords = strings.TrimSpace(p.FirstWords)
		if p.Title == "" && p.Gist == "" && p.FirstWords == "" {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, &domain.OutputParseError{Nugget: "decompose", Raw: raw, Cause: errEmpty}
	}
	return out, nil
}
