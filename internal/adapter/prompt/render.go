// Package prompt substitutes {{name}} placeholders in prompt templates.
//
// Missing variables are left in place verbatim so that a caller who forgot
// one sees the literal placeholder in the rendered prompt instead of a
// silently shortened sentence.
package prompt

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Vars maps placeholder names to values. Slices and arrays of any element
// type are joined with newlines; everything else is formatted with fmt.Sprint.
type Vars = map[string]any

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Render replaces every placeholder that has a variable.
func Render(template string, vars Vars) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		v, ok := vars[name]
		if !ok {
			return match
		}
		return Stringify(v)
	})
}

// Placeholders lists the distinct placeholder names in template, in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Missing lists the placeholders in template that vars does not provide.
func Missing(template string, vars Vars) []string {
	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Stringify renders a single variable value.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, "\n")
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}

	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k == reflect.Slice || k == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return strings.Join(parts, "\n")
	}
	return fmt.Sprint(v)
}
