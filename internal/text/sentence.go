package text

import (
	"strings"
	"unicode/utf8"

	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

// Danda is the Devanagari full stop.
const Danda = '।'

// IsTerminator reports whether r ends a sentence.
func IsTerminator(r rune) bool {
	return r == Danda || r == '.' || r == '!' || r == '?'
}

// SplitSentences splits text on sentence-ending punctuation (।, ., !, ?),
// keeping the terminator attached to its sentence.
// Empty segments are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i, r := range text {
		if IsTerminator(r) {
			end := i + utf8.RuneLen(r)
			if s := strings.TrimSpace(text[start:end]); s != "" {
				sentences = append(sentences, s)
			}
			start = end
		}
	}

	// Trailing text after the last terminator (if any).
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}

	return sentences
}

// HasDevanagari reports whether s contains a rune of the Devanagari block.
func HasDevanagari(s string) bool {
	return strings.IndexFunc(s, tokenizer.IsDevanagari) >= 0
}

// IsValidSentence reports whether s is kept in the training corpus: it must
// contain Devanagari and either end with a terminator or have at least three
// words.
func IsValidSentence(s string) bool {
	if !HasDevanagari(s) {
		return false
	}

	last, _ := utf8.DecodeLastRuneInString(s)
	if IsTerminator(last) {
		return true
	}

	return len(strings.Fields(s)) >= 3
}
