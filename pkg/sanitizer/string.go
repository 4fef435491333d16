package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName returns the display name, or fallback when name is blank.
func NormalizeName(name, fallback string) string {
	if n := TrimAndNormalize(name); n != "" {
		return n
	}
	return fallback
}

// TrimLines trims every line of a multi-line value and drops blank lines,
// keeping the line structure for the template sanitizer.
func TrimLines(s string) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	out := lines[:0]
	for _, l := range lines {
		if l = TrimAndNormalize(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
