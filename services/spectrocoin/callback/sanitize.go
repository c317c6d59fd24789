package callback

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	reTag        = regexp.MustCompile(`<[^>]*>`)
	reOctets     = regexp.MustCompile(`%[a-fA-F0-9]{2}`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// Sanitize strips markup, percent-encoded octets and control characters from s.
//
// Runs of whitespace collapse into one space and the result is trimmed.
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	s = reTag.ReplaceAllString(s, "")
	s = reOctets.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
			return -1
		default:
			return r
		}
	}, s)

	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}
