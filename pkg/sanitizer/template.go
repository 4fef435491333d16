package sanitizer

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
)

const (
	Ellipsis = "..."

	// DefaultSeparator joins the lines of a multi-line field once it is
	// flattened into a single template parameter.
	DefaultSeparator = " | "
)

var (
	reLineBreaks   = regexp.MustCompile(`[\r\n\t]+`)
	reDoubleSpaces = regexp.MustCompile(` {2,}`)
	reWideSpaces   = regexp.MustCompile(` {4,}`)

	// repeatedSeparators caches the run-of-separators pattern per separator.
	repeatedSeparators sync.Map
)

// SanitizeTemplateParam flattens free-form text into a single line that is
// accepted as a WhatsApp template parameter. A nil input yields "".
//
// Line breaks and tabs become separator, repeated separators and spaces are
// collapsed, the ends are trimmed and the result is cut to at most maxLen
// runes, ending in "..." when something was dropped.
func SanitizeTemplateParam(input *string, maxLen int, separator string) string {
	if input == nil {
		return ""
	}
	return templatePipeline(maxLen, separator).Apply(*input)
}

// SanitizeTemplateText is SanitizeTemplateParam for a value that is always
// present.
func SanitizeTemplateText(input string, maxLen int, separator string) string {
	return SanitizeTemplateParam(&input, maxLen, separator)
}

func templatePipeline(maxLen int, separator string) Pipeline {
	core := strings.TrimSpace(separator)

	p := Pipeline{
		func(s string) string { return reLineBreaks.ReplaceAllLiteralString(s, separator) },
		func(s string) string { return reDoubleSpaces.ReplaceAllLiteralString(s, " ") },
	}
	if core != "" {
		reRepeated := repeatedSeparatorPattern(core)
		p = append(p, func(s string) string { return reRepeated.ReplaceAllLiteralString(s, separator) })
	}
	return append(p,
		func(s string) string { return trimSeparators(s, core) },
		func(s string) string { return reWideSpaces.ReplaceAllLiteralString(s, " ") },
		func(s string) string { return truncateRunes(s, maxLen) },
	)
}

func repeatedSeparatorPattern(core string) *regexp.Regexp {
	if re, ok := repeatedSeparators.Load(core); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?:\s*` + regexp.QuoteMeta(core) + `\s*){2,}`)
	actual, _ := repeatedSeparators.LoadOrStore(core, re)
	return actual.(*regexp.Regexp)
}

// trimSeparators trims whitespace and any separator left dangling at either end.
func trimSeparators(s, core string) string {
	s = strings.TrimSpace(s)
	if core == "" {
		return s
	}
	for {
		trimmed := strings.TrimSuffix(strings.TrimPrefix(s, core), core)
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	keep := maxLen - len(Ellipsis)
	if keep < 0 {
		return string(runes[:max(maxLen, 0)])
	}
	return strings.TrimRightFunc(string(runes[:keep]), unicode.IsSpace) + Ellipsis
}
