package tokenizer

import "strings"

// ResolutionKind tags how a piece of input was mapped to an id.
type ResolutionKind int

const (
	// ResolutionResolved is a whole word or merged unit found in the vocabulary.
	ResolutionResolved ResolutionKind = iota
	// ResolutionFallbackChar is a single character of an out-of-vocabulary
	// unit that the vocabulary does know.
	ResolutionFallbackChar
	// ResolutionUnknown is a character mapped to <UNK>; the input is lost.
	ResolutionUnknown
	// ResolutionBoundary is the word separator.
	ResolutionBoundary
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionResolved:
		return "resolved"
	case ResolutionFallbackChar:
		return "fallback_char"
	case ResolutionUnknown:
		return "unknown"
	case ResolutionBoundary:
		return "boundary"
	default:
		return "invalid"
	}
}

// Resolution is one emitted id together with the text it stands for.
type Resolution struct {
	Kind  ResolutionKind
	ID    int
	Token string
}

// Encode maps text to ids. Words are separated by the boundary id; there is
// no boundary after the last word.
func (t *Tokenizer) Encode(text string) []int {
	res := t.Resolve(text)
	if len(res) == 0 {
		return []int{}
	}
	ids := make([]int, len(res))
	for i, r := range res {
		ids[i] = r.ID
	}
	return ids
}

// Resolve is Encode with the provenance of every id kept.
func (t *Tokenizer) Resolve(text string) []Resolution {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	boundary, _ := t.vocab.ID(BoundaryToken)

	out := make([]Resolution, 0, len(words)*2)
	for i, word := range words {
		out = t.resolveWord(out, word)
		if i < len(words)-1 {
			out = append(out, Resolution{Kind: ResolutionBoundary, ID: boundary, Token: BoundaryToken})
		}
	}
	return out
}

func (t *Tokenizer) resolveWord(out []Resolution, word string) []Resolution {
	if id, ok := t.vocab.ID(word); ok {
		return append(out, Resolution{Kind: ResolutionResolved, ID: id, Token: word})
	}
	for _, unit := range t.applyMerges(t.seg.Segment(word)) {
		out = t.resolveUnit(out, unit)
	}
	return out
}

// applyMerges repeatedly merges the adjacent pair with the lowest rank,
// leftmost first, until no ranked pair remains or the winning merge is not
// in the vocabulary.
func (t *Tokenizer) applyMerges(units []string) []string {
	units = append([]string(nil), units...)
	for len(units) > 1 {
		bestIdx, bestRank := -1, 0
		for i := 0; i < len(units)-1; i++ {
			r, ok := t.ranks.Rank(Pair{units[i], units[i+1]})
			if ok && (bestIdx < 0 || r < bestRank) {
				bestIdx, bestRank = i, r
			}
		}
		if bestIdx < 0 {
			break
		}
		merged := units[bestIdx] + units[bestIdx+1]
		if !t.vocab.Contains(merged) {
			break
		}
		units[bestIdx] = merged
		units = append(units[:bestIdx+1], units[bestIdx+2:]...)
	}
	return units
}

// resolveUnit maps a unit to its id, falling back to per-character ids and
// finally to <UNK>.
func (t *Tokenizer) resolveUnit(out []Resolution, unit string) []Resolution {
	if id, ok := t.vocab.ID(unit); ok {
		return append(out, Resolution{Kind: ResolutionResolved, ID: id, Token: unit})
	}
	unk, _ := t.vocab.ID(UnknownToken)
	for _, r := range unit {
		ch := string(r)
		if id, ok := t.vocab.ID(ch); ok {
			out = append(out, Resolution{Kind: ResolutionFallbackChar, ID: id, Token: ch})
		} else {
			out = append(out, Resolution{Kind: ResolutionUnknown, ID: unk, Token: ch})
		}
	}
	return out
}
