// Package tokenizer implements a grapheme-aware Byte-Pair-Encoding tokenizer
// for Hindi text: merge training, encoding, decoding and compression scoring.
//
// A Tokenizer is owned by one caller while training. Once training has
// finished, Encode, Decode and Ratio may be called concurrently.
package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
)

// Default training parameters.
const (
	DefaultMaxVocabSize      = 5000
	DefaultTargetCompression = 3.2
)

// ErrInvalidVocabSize is returned when the cap leaves no room beyond the
// reserved tokens.
var ErrInvalidVocabSize = errors.New("max vocabulary size must exceed the reserved tokens")

// PairWeighting selects the weight a word occurrence adds to its pairs.
type PairWeighting int

const (
	// PairWeightingSequence weights an occurrence by how often its
	// space-joined unit sequence occurs as a word in the chunk.
	PairWeightingSequence PairWeighting = iota
	// PairWeightingSurface weights every occurrence by one.
	PairWeightingSurface
)

func (w PairWeighting) String() string {
	switch w {
	case PairWeightingSequence:
		return "sequence"
	case PairWeightingSurface:
		return "surface"
	default:
		return fmt.Sprintf("PairWeighting(%d)", int(w))
	}
}

// ParsePairWeighting maps "sequence" or "surface" to a PairWeighting.
func ParsePairWeighting(s string) (PairWeighting, error) {
	switch s {
	case "", "sequence":
		return PairWeightingSequence, nil
	case "surface":
		return PairWeightingSurface, nil
	default:
		return 0, fmt.Errorf("invalid pair weighting %q (expected sequence|surface)", s)
	}
}

// Options configures a Tokenizer.
type Options struct {
	MaxVocabSize      int
	TargetCompression float64
	PairWeighting     PairWeighting
	CacheSize         int
	Logger            *slog.Logger
}

// DefaultOptions returns the options the reference model was trained with.
func DefaultOptions() Options {
	return Options{
		MaxVocabSize:      DefaultMaxVocabSize,
		TargetCompression: DefaultTargetCompression,
		CacheSize:         DefaultCacheSize,
	}
}

// Tokenizer holds the vocabulary, the merge ranks and the grapheme cache.
type Tokenizer struct {
	opts  Options
	vocab *Vocabulary
	ranks *MergeRanks
	seg   *Segmenter
	log   *slog.Logger
}

// New returns an untrained tokenizer holding only the reserved tokens.
func New(opts Options) (*Tokenizer, error) {
	if opts.MaxVocabSize <= ReservedTokens {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVocabSize, opts.MaxVocabSize)
	}
	return newTokenizer(opts, NewVocabulary(opts.MaxVocabSize), NewMergeRanks()), nil
}

func newTokenizer(opts Options, vocab *Vocabulary, ranks *MergeRanks) *Tokenizer {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Tokenizer{
		opts:  opts,
		vocab: vocab,
		ranks: ranks,
		seg:   NewSegmenter(vocab, opts.CacheSize),
		log:   log,
	}
}

func (t *Tokenizer) Vocabulary() *Vocabulary { return t.vocab }
func (t *Tokenizer) Ranks() *MergeRanks      { return t.ranks }
func (t *Tokenizer) Segmenter() *Segmenter   { return t.seg }
func (t *Tokenizer) Options() Options        { return t.opts }

// Segment splits word into units, honouring whole-word vocabulary entries.
func (t *Tokenizer) Segment(word string) []string { return t.seg.Segment(word) }

// RankEntry is one merge rule in exported form.
type RankEntry struct {
	Left  string
	Right string
	Rank  int
}

// State is the persisted form of a tokenizer: the vocabulary in both
// directions and the merge ranks.
type State struct {
	Vocab        map[string]int
	InverseVocab map[int]string
	Ranks        []RankEntry
}

// State exports the current tables.
func (t *Tokenizer) State() State {
	st := State{
		Vocab:        make(map[string]int, t.vocab.Size()),
		InverseVocab: make(map[int]string, t.vocab.Size()),
		Ranks:        make([]RankEntry, 0, t.ranks.Len()),
	}
	for id, tok := range t.vocab.tokens {
		st.Vocab[tok] = id
		st.InverseVocab[id] = tok
	}
	for _, p := range t.ranks.Pairs() {
		r, _ := t.ranks.Rank(p)
		st.Ranks = append(st.Ranks, RankEntry{Left: p.Left, Right: p.Right, Rank: r})
	}
	return st
}

// FromState rebuilds a tokenizer from persisted tables without replaying
// training. The two vocabulary directions must agree, ids must be dense, and
// ranks must be gap-free with every merged form present in the vocabulary.
func FromState(st State, opts Options) (*Tokenizer, error) {
	if opts.MaxVocabSize <= ReservedTokens {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVocabSize, opts.MaxVocabSize)
	}
	if len(st.Vocab) != len(st.InverseVocab) {
		return nil, fmt.Errorf("vocab has %d entries, inverse vocab has %d", len(st.Vocab), len(st.InverseVocab))
	}

	tokens := make([]string, len(st.InverseVocab))
	for id, tok := range st.InverseVocab {
		if id < 0 || id >= len(tokens) {
			return nil, fmt.Errorf("inverse vocab id %d out of range [0, %d)", id, len(tokens))
		}
		if got, ok := st.Vocab[tok]; !ok || got != id {
			return nil, fmt.Errorf("token %q: inverse vocab id %d does not match vocab", tok, id)
		}
		tokens[id] = tok
	}

	vocab, err := vocabularyFromTokens(tokens, opts.MaxVocabSize)
	if err != nil {
		return nil, err
	}

	ordered := make([]Pair, len(st.Ranks))
	filled := make([]bool, len(st.Ranks))
	for _, e := range st.Ranks {
		if e.Rank < 0 || e.Rank >= len(ordered) || filled[e.Rank] {
			return nil, fmt.Errorf("merge (%q, %q): rank %d is out of range or repeated", e.Left, e.Right, e.Rank)
		}
		p := Pair{Left: e.Left, Right: e.Right}
		if !vocab.Contains(p.Merged()) {
			return nil, fmt.Errorf("merge (%q, %q): merged token missing from vocabulary", e.Left, e.Right)
		}
		ordered[e.Rank] = p
		filled[e.Rank] = true
	}
	ranks := NewMergeRanks()
	for _, p := range ordered {
		if _, err := ranks.Add(p); err != nil {
			return nil, err
		}
	}

	return newTokenizer(opts, vocab, ranks), nil
}

// Snapshot is an immutable copy of the vocabulary and merge ranks.
type Snapshot struct {
	vocab *Vocabulary
	ranks *MergeRanks
	Size  int
	Ratio float64
}

func (t *Tokenizer) snapshot(ratio float64) *Snapshot {
	return &Snapshot{
		vocab: t.vocab.Clone(),
		ranks: t.ranks.Clone(),
		Size:  t.vocab.Size(),
		Ratio: ratio,
	}
}

// restore swaps the snapshot tables in as the live ones.
func (t *Tokenizer) restore(s *Snapshot) {
	vocab := s.vocab.Clone()
	vocab.gen = t.vocab.gen + 1
	t.vocab = vocab
	t.ranks = s.ranks.Clone()
	t.seg.attach(vocab)
}
