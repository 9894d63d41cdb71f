package tokenizer

// Ratio returns the UTF-8 byte length of text divided by its encoded length,
// or 0 when either is zero.
func (t *Tokenizer) Ratio(text string) float64 {
	if text == "" {
		return 0
	}
	n := len(t.Encode(text))
	if n == 0 {
		return 0
	}
	return float64(len(text)) / float64(n)
}
