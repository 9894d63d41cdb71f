package model

import (
	"fmt"
	"unicode/utf8"

	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

// Summary describes a loaded model. Unranked counts multi-rune tokens no
// merge rule produces.
type Summary struct {
	Path         string         `json:"path"`
	Format       string         `json:"format"`
	VocabSize    int            `json:"vocab_size"`
	MaxVocabSize int            `json:"max_vocab_size"`
	Merges       int            `json:"merges"`
	Unranked     int            `json:"unranked"`
	LongestToken string         `json:"longest_token"`
	ReservedIDs  map[string]int `json:"reserved_ids"`
	FirstMerges  []RankRecord   `json:"first_merges"`
}

// Inspect summarizes tok. At most firstN merge rules are listed.
func Inspect(path string, tok *tokenizer.Tokenizer, firstN int) Summary {
	v := tok.Vocabulary()
	s := Summary{
		Path:         path,
		Format:       FormatForPath(path).String(),
		VocabSize:    v.Size(),
		MaxVocabSize: v.Max(),
		Merges:       tok.Ranks().Len(),
		ReservedIDs:  make(map[string]int, tokenizer.ReservedTokens),
	}

	for _, r := range []string{tokenizer.PadToken, tokenizer.UnknownToken, tokenizer.BeginToken, tokenizer.EndToken, tokenizer.BoundaryToken} {
		id, _ := v.ID(r)
		s.ReservedIDs[r] = id
	}

	merged := make(map[string]struct{}, tok.Ranks().Len())
	for i, p := range tok.Ranks().Pairs() {
		merged[p.Merged()] = struct{}{}
		if i < firstN {
			s.FirstMerges = append(s.FirstMerges, RankRecord{Left: p.Left, Right: p.Right, Rank: i})
		}
	}

	longest := 0
	for _, t := range v.Tokens()[tokenizer.ReservedTokens:] {
		if _, ok := merged[t]; !ok && utf8.RuneCountInString(t) > 1 {
			s.Unranked++
		}
		if n := utf8.RuneCountInString(t); n > longest {
			longest, s.LongestToken = n, t
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%s (%s): %d/%d tokens, %d merges, %d unranked",
		s.Path, s.Format, s.VocabSize, s.MaxVocabSize, s.Merges, s.Unranked)
}
