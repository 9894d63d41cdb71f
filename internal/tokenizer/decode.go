package tokenizer

import "strings"

// lookup resolves an id for decoding. Ids outside the vocabulary become the
// <UNK> placeholder, which Decode then drops as a special token.
func (t *Tokenizer) lookup(id int) Resolution {
	if tok, ok := t.vocab.Token(id); ok {
		return Resolution{Kind: ResolutionResolved, ID: id, Token: tok}
	}
	return Resolution{Kind: ResolutionUnknown, ID: id, Token: UnknownToken}
}

// Decode maps ids back to text. Tokens between boundary ids are concatenated
// into one word and words are joined by single spaces. Control tokens and
// unknown ids produce no output.
func (t *Tokenizer) Decode(ids []int) string {
	if len(ids) == 0 {
		return ""
	}

	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for _, id := range ids {
		tok := t.lookup(id).Token
		switch {
		case tok == BoundaryToken:
			flush()
		case t.vocab.IsSpecial(tok):
			// dropped
		default:
			cur.WriteString(tok)
		}
	}
	flush()

	return strings.Join(words, " ")
}
