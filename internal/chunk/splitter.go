// Package chunk partitions long text into bounded pieces on sentence and
// word boundaries so each piece fits a model request.
package chunk

import (
	"strings"
	"unicode"
)

// Split partitions text into ordered chunks of at most maxChars characters.
// Boundaries prefer the last sentence end in the window, then the last
// whitespace, both only past the window midpoint; otherwise the cut lands
// exactly on the budget, which may split a word but guarantees progress.
// Chunks are trimmed and never empty. A non-positive budget disables
// splitting.
func Split(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{text}
	}

	var chunks []string

	for len(runes) > 0 {
		if len(runes) <= maxChars {
			if c := strings.TrimSpace(string(runes)); c != "" {
				chunks = append(chunks, c)
			}

			break
		}

		cut := breakPoint(runes[:maxChars])

		if c := strings.TrimSpace(string(runes[:cut])); c != "" {
			chunks = append(chunks, c)
		}

		runes = runes[cut:]
	}

	return chunks
}

// breakPoint returns the cut index for a full window, always >= 1 so the
// caller strictly shrinks the remaining text.
func breakPoint(window []rune) int {
	half := len(window) / 2

	for i := len(window) - 2; i > half; i-- {
		c := window[i]

		if (c == '.' || c == '!' || c == '?') && unicode.IsSpace(window[i+1]) {
			return i + 1
		}

		if c == '\n' && window[i+1] == '\n' {
			return i + 1
		}
	}

	for i := len(window) - 1; i > half; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}

	return len(window)
}
