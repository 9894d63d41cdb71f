// Package text holds the text hygiene shared by corpus preparation and the
// serving front-ends: Unicode normalization, sentence splitting and the
// sentence filter applied to the raw corpus.
package text

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize prepares raw input text for encoding.
// It normalizes line endings to \n, composes the text to NFC so that
// precomposed and two-rune nukta letters share tokens, trims surrounding
// whitespace, and rejects empty or whitespace-only input.
func Normalize(s string) (string, error) {
	s = NormalizeLine(s)
	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

// NormalizeLine is Normalize without the emptiness check.
func NormalizeLine(s string) string {
	// Normalize line endings: CRLF → LF, then bare CR → LF.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	return strings.TrimSpace(norm.NFC.String(s))
}
