package command

import (
	"strings"
	"unicode"
)

// Tokenize splits text on whitespace, keeping double-quoted spans together.
// Quotes group and are stripped; there is no escape syntax, matching how the
// dashboard parses the same text on its side. An unterminated quote runs to
// the end of the input.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	quoted := false

	flush := func() {
		if current.Len() > 0 || quoted {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		quoted = false
	}

	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case unicode.IsSpace(r) && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}
