package tokenizer

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of segmented words kept by a Segmenter.
const DefaultCacheSize = 8192

// IsDevanagari reports whether r lies in the Devanagari block.
func IsDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}

// IsCombiningMark reports whether r attaches to the preceding Devanagari
// base: candrabindu, anusvara, visarga, vowel signs, virama, nukta and the
// vocalic vowel signs.
func IsCombiningMark(r rune) bool {
	switch {
	case r >= 0x0900 && r <= 0x0903:
		return true
	case r >= 0x093A && r <= 0x094F:
		return true
	case r >= 0x0962 && r <= 0x0963:
		return true
	}
	return false
}

// Segmenter splits words into base units. Results are memoized by the raw
// word and the memo is dropped whenever the attached vocabulary changes,
// because a word that becomes a vocabulary member segments to itself.
type Segmenter struct {
	vocab   atomic.Pointer[Vocabulary]
	cache   *lru.Cache
	seenGen atomic.Uint64
}

// NewSegmenter returns a segmenter bound to vocab. A size <= 0 selects
// DefaultCacheSize.
func NewSegmenter(vocab *Vocabulary, size int) *Segmenter {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, _ := lru.New(size)
	s := &Segmenter{cache: cache}
	s.attach(vocab)
	return s
}

func (s *Segmenter) attach(vocab *Vocabulary) {
	s.vocab.Store(vocab)
	s.cache.Purge()
	s.seenGen.Store(vocab.Generation())
}

// Segment returns the unit sequence for word.
func (s *Segmenter) Segment(word string) []string {
	vocab := s.vocab.Load()
	if gen := vocab.Generation(); s.seenGen.Swap(gen) != gen {
		s.cache.Purge()
	}
	if v, ok := s.cache.Get(word); ok {
		return v.([]string)
	}

	var units []string
	if vocab.Contains(word) {
		units = []string{word}
	} else {
		units = SplitGraphemes(word)
	}
	s.cache.Add(word, units)
	return units
}

// Len returns the number of memoized words.
func (s *Segmenter) Len() int { return s.cache.Len() }

// SplitGraphemes splits word without consulting any vocabulary: each
// Devanagari rune opens a unit that absorbs the combining marks following it,
// every other rune is a unit of its own.
func SplitGraphemes(word string) []string {
	units := make([]string, 0, len(word)/3+1)
	runes := []rune(word)
	for i := 0; i < len(runes); {
		start := i
		i++
		if IsDevanagari(runes[start]) {
			for i < len(runes) && IsCombiningMark(runes[i]) {
				i++
			}
		}
		units = append(units, string(runes[start:i]))
	}
	return units
}
