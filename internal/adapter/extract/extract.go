// Package extract cleans free-text model completions and pulls structured
// payloads out of them.
//
// JSON extraction is a bracket heuristic: it slices from the first opening
// bracket to the last closing one. Outputs holding several objects, or prose
// with stray braces around the payload, defeat it; callers fall back to the
// cleaned prose when the slice does not parse.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	thinkingBlock = regexp.MustCompile(`(?is)<(?:think|thinking|reasoning|thought)>.*?</(?:think|thinking|reasoning|thought)>`)
	thinkingClose = regexp.MustCompile(`(?i)</(?:think|thinking|reasoning|thought)>`)
	fencedBlock   = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \\t]*\\r?\\n?(.*?)```")
	fenceMarker   = regexp.MustCompile("```[A-Za-z0-9_+-]*")
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// StripThinking removes reasoning sections such as <think>...</think>. A
// dangling closing tag with no opener drops everything before it.
func StripThinking(s string) string {
	s = thinkingBlock.ReplaceAllString(s, "")
	if loc := thinkingClose.FindAllStringIndex(s, -1); len(loc) > 0 {
		s = s[loc[len(loc)-1][1]:]
	}
	return strings.TrimSpace(s)
}

// StripFences returns the inner content of the first fenced code block, or s
// with stray fence markers removed when there is no complete block.
func StripFences(s string) string {
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(fenceMarker.ReplaceAllString(s, ""))
}

// CleanProse strips reasoning sections and code fences.
func CleanProse(s string) string {
	return StripFences(StripThinking(s))
}

// JSONObject slices raw from its first '{' to its last '}' and reports
// whether the slice is valid JSON.
func JSONObject(raw string) (string, bool) {
	return between(raw, '{', '}')
}

// JSONArray is JSONObject for '[' and ']'.
func JSONArray(raw string) (string, bool) {
	return between(raw, '[', ']')
}

func between(raw string, open, close byte) (string, bool) {
	i := strings.IndexByte(raw, open)
	j := strings.LastIndexByte(raw, close)
	if i < 0 || j <= i {
		return "", false
	}
	candidate := raw[i : j+1]
	if json.Valid([]byte(candidate)) {
		return candidate, true
	}
	if repaired := Repair(candidate); json.Valid([]byte(repaired)) {
		return repaired, true
	}
	return "", false
}

// Repair applies the cheap fixes that commonly make model JSON decodable:
// a leading byte order mark and trailing commas before a closing bracket.
func Repair(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	return trailingComma.ReplaceAllString(s, "$1")
}

// ForShape is the adapter post-processing step. With wantJSON the bracket
// extractor runs on the raw text; when it finds nothing valid, or when JSON
// was not requested, the cleaned prose is returned instead.
func ForShape(raw string, wantJSON bool) string {
	if wantJSON {
		if payload, ok := JSONObject(raw); ok {
			return payload
		}
	}
	return CleanProse(raw)
}
