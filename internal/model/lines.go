package model

import "strings"

// isLineBoundary reports whether r terminates a line.
// The set matches the Unicode line boundaries recognised by
// line-oriented text readers, not just '\n'.
func isLineBoundary(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// SplitLines splits text into lines without their terminators.
// "\r\n" counts as a single terminator. A final terminator does not
// produce a trailing empty line, and "" yields an empty slice.
func SplitLines(text string) []string {
	lines := []string{}
	if text == "" {
		return lines
	}

	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if !isLineBoundary(r) {
			b.WriteRune(r)
			continue
		}
		lines = append(lines, b.String())
		b.Reset()
		if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
			i++
		}
	}

	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}
