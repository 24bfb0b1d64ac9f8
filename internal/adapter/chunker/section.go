package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"fraktag/internal/domain"
)

// section is a candidate span found by a structural rule, in byte offsets.
type section struct {
	title string
	kind  string
	level int
	start int
	end   int
}

// runeMapper converts increasing byte offsets into rune offsets in one pass.
type runeMapper struct {
	text     string
	lastByte int
	lastRune int
}

func (m *runeMapper) runeOffset(byteOff int) int {
	if byteOff < m.lastByte {
		m.lastByte, m.lastRune = 0, 0
	}
	m.lastRune += utf8.RuneCountInString(m.text[m.lastByte:byteOff])
	m.lastByte = byteOff
	return m.lastRune
}

// trimBytes narrows [start, end) of text to exclude surrounding whitespace.
func trimBytes(text string, start, end int) (int, int) {
	span := text[start:end]
	left := len(span) - len(strings.TrimLeftFunc(span, unicode.IsSpace))
	right := len(strings.TrimRightFunc(span, unicode.IsSpace))
	if right <= left {
		return start, start
	}
	return start + left, start + right
}

// trimRunes narrows [start, end) of runes to exclude surrounding whitespace.
func trimRunes(runes []rune, start, end int) (int, int) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return start, end
}

func validText(text string) error {
	if !utf8.ValidString(text) {
		return &domain.ValidationError{Field: "text", Reason: "input is not valid UTF-8 text"}
	}
	return nil
}
