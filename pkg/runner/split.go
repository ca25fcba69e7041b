package runner

import (
	"strings"

	"github.com/umarmnaq/pipenv/pkg/errors"
)

// SplitCommand tokenizes a script command using POSIX shell word
// splitting: whitespace separates words, single quotes preserve text
// literally, double quotes preserve text except backslash escapes, and a
// bare backslash escapes the next character. No expansion of any kind is
// performed.
func SplitCommand(command string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		inWord  bool
	)

	flush := func() {
		if inWord {
			words = append(words, current.String())
			current.Reset()
			inWord = false
		}
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case ' ', '\t', '\n':
			flush()

		case '\\':
			if i+1 >= len(runes) {
				return nil, errors.New(errors.ErrCodeInvalidScript, "trailing backslash")
			}
			i++
			current.WriteRune(runes[i])
			inWord = true

		case '\'':
			end := indexFrom(runes, i+1, '\'')
			if end < 0 {
				return nil, errors.New(errors.ErrCodeInvalidScript, "unterminated single quote")
			}
			current.WriteString(string(runes[i+1 : end]))
			inWord = true
			i = end

		case '"':
			i++
			closed := false
			for i < len(runes) {
				if runes[i] == '"' {
					closed = true
					break
				}
				if runes[i] == '\\' && i+1 < len(runes) {
					next := runes[i+1]
					if next == '"' || next == '\\' || next == '$' || next == '`' {
						i++
					}
				}
				current.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, errors.New(errors.ErrCodeInvalidScript, "unterminated double quote")
			}
			inWord = true

		default:
			current.WriteRune(c)
			inWord = true
		}
	}
	flush()
	return words, nil
}

func indexFrom(runes []rune, start int, want rune) int {
	for i := start; i < len(runes); i++ {
		if runes[i] == want {
			return i
		}
	}
	return -1
}
