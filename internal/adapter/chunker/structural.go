package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"fraktag/internal/adapter/analyzer"
	"fraktag/internal/domain"
)

// pageMarkerPattern matches the page delimiter inserted by upstream text
// extraction, e.g. "---=== PAGE 3 ===---".
var pageMarkerPattern = regexp.MustCompile(`-{3}={3} PAGE \d+ ={3}-{3}`)

var horizontalRulePattern = regexp.MustCompile(`(?m)^[ \t]*(?:-{3,}|\*{3,}|_{3,})[ \t\r]*$`)

// StructuralConfig holds the structural chunker's resolved settings.
type StructuralConfig struct {
	MinHeaderLevel         int  `yaml:"min_header_level"`
	MaxSections            int  `yaml:"max_sections"`
	SplitOnPages           bool `yaml:"split_on_pages"`
	SplitOnHorizontalRules bool `yaml:"split_on_horizontal_rules"`
	MinSectionChars        int  `yaml:"min_section_chars"`
}

func DefaultStructuralConfig() StructuralConfig {
	return StructuralConfig{
		MinHeaderLevel:         2,
		MaxSections:            50,
		SplitOnPages:           true,
		SplitOnHorizontalRules: true,
		MinSectionChars:        500,
	}
}

// StructuralChunker splits on document structure rather than size. Rules are
// tried in order (page markers, headers, horizontal rules) and the first one
// producing at least two sections wins.
type StructuralChunker struct {
	cfg           StructuralConfig
	headerPattern *regexp.Regexp
}

func NewStructuralChunker(cfg StructuralConfig) *StructuralChunker {
	def := DefaultStructuralConfig()
	if cfg.MinHeaderLevel <= 0 {
		cfg.MinHeaderLevel = def.MinHeaderLevel
	}
	if cfg.MaxSections <= 0 {
		cfg.MaxSections = def.MaxSections
	}
	if cfg.MinSectionChars < 0 {
		cfg.MinSectionChars = 0
	}
	return &StructuralChunker{
		cfg:           cfg,
		headerPattern: regexp.MustCompile(fmt.Sprintf(`(?m)^(#{1,%d})[ \t]+([^\r\n]+)`, cfg.MinHeaderLevel)),
	}
}

func (c *StructuralChunker) Name() string {
	return string(domain.StrategyRecursive)
}

func (c *StructuralChunker) EstimateTokens(text string) int {
	return analyzer.EstimateTokens(text)
}

func (c *StructuralChunker) Config() StructuralConfig {
	return c.cfg
}

func (c *StructuralChunker) Chunk(text string, opts domain.ChunkingOptions) ([]domain.Chunk, error) {
	if err := validText(text); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	minChars := c.cfg.MinSectionChars
	if opts.MinChunkChars != nil {
		minChars = *opts.MinChunkChars
	}
	maxSections := c.cfg.MaxSections
	if opts.MaxSections > 0 {
		maxSections = opts.MaxSections
	}

	var rules []func(string) []section
	if c.cfg.SplitOnPages {
		rules = append(rules, splitPages)
	}
	rules = append(rules, c.splitHeaders)
	if c.cfg.SplitOnHorizontalRules {
		rules = append(rules, splitRules)
	}

	for _, rule := range rules {
		candidates := rule(text)
		if len(candidates) < 2 {
			continue
		}
		return sectionsToChunks(text, candidates, minChars, maxSections), nil
	}

	start, end := trimBytes(text, 0, len(text))
	m := runeMapper{text: text}
	return []domain.Chunk{{
		Text:  text[start:end],
		Start: m.runeOffset(start),
		End:   m.runeOffset(end),
		Metadata: map[string]any{
			domain.MetaTitle:      "Document",
			domain.MetaSourceType: domain.SourceUnsplit,
		},
	}}, nil
}

func sectionsToChunks(text string, candidates []section, minChars, maxSections int) []domain.Chunk {
	m := runeMapper{text: text}
	chunks := make([]domain.Chunk, 0, min(len(candidates), maxSections))
	for _, s := range candidates {
		if len(chunks) == maxSections {
			break
		}
		start, end := trimBytes(text, s.start, s.end)
		body := text[start:end]
		if utf8.RuneCountInString(body) < minChars {
			continue
		}
		meta := map[string]any{
			domain.MetaTitle:      s.title,
			domain.MetaSourceType: s.kind,
			domain.MetaIndex:      len(chunks),
		}
		if s.level > 0 {
			meta[domain.MetaHeaderLevel] = s.level
		}
		chunks = append(chunks, domain.Chunk{
			Text:     body,
			Start:    m.runeOffset(start),
			End:      m.runeOffset(end),
			Metadata: meta,
		})
	}
	return chunks
}

// splitBetween turns delimiter matches into the spans around them, keeping
// only spans with non-whitespace content.
func splitBetween(text string, delims [][]int, kind, titleFormat string) []section {
	if len(delims) == 0 {
		return nil
	}
	var out []section
	prev := 0
	add := func(start, end int) {
		if strings.TrimSpace(text[start:end]) == "" {
			return
		}
		out = append(out, section{
			title: fmt.Sprintf(titleFormat, len(out)+1),
			kind:  kind,
			start: start,
			end:   end,
		})
	}
	for _, d := range delims {
		add(prev, d[0])
		prev = d[1]
	}
	add(prev, len(text))
	return out
}

func splitPages(text string) []section {
	return splitBetween(text, pageMarkerPattern.FindAllStringIndex(text, -1), domain.SourcePage, "Page %d")
}

func splitRules(text string) []section {
	return splitBetween(text, horizontalRulePattern.FindAllStringIndex(text, -1), domain.SourceRule, "Section %d")
}

func (c *StructuralChunker) splitHeaders(text string) []section {
	matches := c.headerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	var out []section
	if strings.TrimSpace(text[:matches[0][0]]) != "" {
		out = append(out, section{
			title: "Introduction",
			kind:  domain.SourceHeader,
			start: 0,
			end:   matches[0][0],
		})
	}
	for i, match := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out = append(out, section{
			title: strings.TrimSpace(text[match[4]:match[5]]),
			kind:  domain.SourceHeader,
			level: match[3] - match[2],
			start: match[0],
			end:   end,
		})
	}
	return out
}
