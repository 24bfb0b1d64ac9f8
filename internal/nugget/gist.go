package nugget

import (
	"strings"

	"fraktag/internal/adapter/prompt"
	"fraktag/internal/port"
)

const gistTemplate = `You write gists: one or two plain sentences that tell a reader what a passage covers, so they can decide whether to open it.

Section title: {{title}}

Passage:
{{text}}

Reply with the gist only. No preamble, no lists, no quotes.`

type GistInput struct {
	Title string
	Text  string
}

// Gist summarises one chunk in one or two sentences.
type Gist struct {
	MaxTokens int
}

func (g Gist) Definition() Definition {
	limit := g.MaxTokens
	if limit <= 0 {
		limit = 256
	}
	return Definition{
		Name:     "gist",
		Template: gistTemplate,
		Shape:    port.ShapeText,
		Budget:   port.Budget{MaxTokens: limit},
	}
}

func (Gist) PrepareVariables(in GistInput) prompt.Vars {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "(untitled)"
	}
	return prompt.Vars{"title": title, "text": in.Text}
}

func (Gist) ParseOutput(raw string) (string, error) {
	text, err := ParseText("gist", raw)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(text), " "), nil
}
