package tokenizer

import (
	"errors"
	"fmt"
)

// Reserved tokens seeded into every vocabulary, in id order.
const (
	PadToken      = "<PAD>"
	UnknownToken  = "<UNK>"
	BeginToken    = "<BOS>"
	EndToken      = "<EOS>"
	BoundaryToken = "▁"
)

// ReservedTokens is the number of ids taken at construction.
const ReservedTokens = 5

var (
	// ErrVocabularyFull is returned by Insert when the size cap is reached.
	ErrVocabularyFull = errors.New("vocabulary is full")
	// ErrDuplicateToken is returned by Insert when the token already has an id.
	ErrDuplicateToken = errors.New("token already in vocabulary")
	// ErrExceedsMaxVocab is returned when persisted tables hold more tokens
	// than the configured cap.
	ErrExceedsMaxVocab = errors.New("vocabulary exceeds max vocabulary size")
)

var specialTokens = map[string]struct{}{
	PadToken:     {},
	UnknownToken: {},
	BeginToken:   {},
	EndToken:     {},
}

// Vocabulary is a bijective token <-> id table with a hard size cap.
// Ids are dense: the token with id i is tokens[i].
type Vocabulary struct {
	max    int
	ids    map[string]int
	tokens []string
	gen    uint64 // bumped on every mutation
}

// NewVocabulary returns a vocabulary holding only the reserved tokens.
func NewVocabulary(max int) *Vocabulary {
	v := &Vocabulary{
		max:    max,
		ids:    make(map[string]int, ReservedTokens),
		tokens: make([]string, 0, ReservedTokens),
	}
	for _, tok := range []string{PadToken, UnknownToken, BeginToken, EndToken, BoundaryToken} {
		v.ids[tok] = len(v.tokens)
		v.tokens = append(v.tokens, tok)
	}
	return v
}

func (v *Vocabulary) Size() int { return len(v.tokens) }

// Max returns the inclusive size cap.
func (v *Vocabulary) Max() int { return v.max }

// Full reports whether no further token can be inserted.
func (v *Vocabulary) Full() bool { return len(v.tokens) >= v.max }

func (v *Vocabulary) Contains(tok string) bool {
	_, ok := v.ids[tok]
	return ok
}

func (v *Vocabulary) ID(tok string) (int, bool) {
	id, ok := v.ids[tok]
	return id, ok
}

func (v *Vocabulary) Token(id int) (string, bool) {
	if id < 0 || id >= len(v.tokens) {
		return "", false
	}
	return v.tokens[id], true
}

// Insert assigns the next id to tok.
func (v *Vocabulary) Insert(tok string) (int, error) {
	if _, ok := v.ids[tok]; ok {
		return 0, fmt.Errorf("insert %q: %w", tok, ErrDuplicateToken)
	}
	if v.Full() {
		return 0, fmt.Errorf("insert %q: %w", tok, ErrVocabularyFull)
	}
	id := len(v.tokens)
	v.ids[tok] = id
	v.tokens = append(v.tokens, tok)
	v.gen++
	return id, nil
}

// IsSpecial reports whether tok is one of the four control tokens. The
// boundary token is not special.
func (v *Vocabulary) IsSpecial(tok string) bool {
	_, ok := specialTokens[tok]
	return ok
}

// Tokens returns a copy of the id-ordered token list.
func (v *Vocabulary) Tokens() []string {
	return append([]string(nil), v.tokens...)
}

// Generation changes whenever the vocabulary is mutated.
func (v *Vocabulary) Generation() uint64 { return v.gen }

// Clone returns an independent copy.
func (v *Vocabulary) Clone() *Vocabulary {
	ids := make(map[string]int, len(v.ids))
	for tok, id := range v.ids {
		ids[tok] = id
	}
	return &Vocabulary{
		max:    v.max,
		ids:    ids,
		tokens: append([]string(nil), v.tokens...),
		gen:    v.gen,
	}
}

// vocabularyFromTokens rebuilds a vocabulary from an id-ordered token list,
// rejecting duplicates and lists that exceed max or drop the reserved prefix.
func vocabularyFromTokens(tokens []string, max int) (*Vocabulary, error) {
	if len(tokens) > max {
		return nil, fmt.Errorf("%w: %d tokens, max %d", ErrExceedsMaxVocab, len(tokens), max)
	}
	reserved := NewVocabulary(max).tokens
	if len(tokens) < len(reserved) {
		return nil, fmt.Errorf("vocabulary has %d tokens, want at least %d reserved", len(tokens), len(reserved))
	}
	for i, tok := range reserved {
		if tokens[i] != tok {
			return nil, fmt.Errorf("id %d is %q, want reserved token %q", i, tokens[i], tok)
		}
	}
	v := &Vocabulary{
		max:    max,
		ids:    make(map[string]int, len(tokens)),
		tokens: append([]string(nil), tokens...),
	}
	for id, tok := range tokens {
		if prev, ok := v.ids[tok]; ok {
			return nil, fmt.Errorf("token %q has ids %d and %d", tok, prev, id)
		}
		v.ids[tok] = id
	}
	return v, nil
}
