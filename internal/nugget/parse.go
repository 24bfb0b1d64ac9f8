package nugget

import (
	"encoding/json"
	"errors"
	"strings"

	"fraktag/internal/adapter/extract"
	"fraktag/internal/domain"
)

var (
	errNoObject = errors.New("no JSON object found")
	errNoArray  = errors.New("no JSON array found")
	errEmpty    = errors.New("empty output")
)

// ParseJSON extracts the single JSON object in raw and decodes it into T.
func ParseJSON[T any](name, raw string) (T, error) {
	var out T
	payload, ok := findJSON(raw, extract.JSONObject)
	if !ok {
		return out, &domain.OutputParseError{Nugget: name, Raw: raw, Cause: errNoObject}
	}
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return out, &domain.OutputParseError{Nugget: name, Raw: raw, Cause: err}
	}
	return out, nil
}

// ParseJSONArray extracts a JSON array from raw and decodes it into []T. When
// the model answered with an object instead, an object holding exactly one
// array field is unwrapped and any other object becomes a one-element array.
func ParseJSONArray[T any](name, raw string) ([]T, error) {
	if payload, ok := findJSON(raw, extract.JSONArray); ok {
		var out []T
		if err := json.Unmarshal([]byte(payload), &out); err == nil {
			return out, nil
		}
	}

	payload, ok := findJSON(raw, extract.JSONObject)
	if !ok {
		return nil, &domain.OutputParseError{Nugget: name, Raw: raw, Cause: errNoArray}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, &domain.OutputParseError{Nugget: name, Raw: raw, Cause: err}
	}
	if len(fields) == 1 {
		for _, v := range fields {
			var out []T
			if isArray(v) && json.Unmarshal(v, &out) == nil {
				return out, nil
			}
		}
	}

	var one T
	if err := json.Unmarshal([]byte(payload), &one); err != nil {
		return nil, &domain.OutputParseError{Nugget: name, Raw: raw, Cause: err}
	}
	return []T{one}, nil
}

// ParseText returns the cleaned prose of raw. Only an empty result fails.
func ParseText(name, raw string) (string, error) {
	text := extract.CleanProse(raw)
	if text == "" {
		return "", &domain.OutputParseError{Nugget: name, Raw: raw, Cause: errEmpty}
	}
	return text, nil
}

// findJSON runs find on raw and, when that fails, on the cleaned prose, the
// same order the LLM adapter uses.
func findJSON(raw string, find func(string) (string, bool)) (string, bool) {
	if payload, ok := find(raw); ok {
		return payload, true
	}
	return find(extract.CleanProse(raw))
}

func isArray(v json.RawMessage) bool {
	return strings.HasPrefix(strings.TrimSpace(string(v)), "[")
}
