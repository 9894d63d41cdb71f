package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

const (
	PairWeightingSequence = "sequence"
	PairWeightingSurface  = "surface"
)

func NormalizePairWeighting(raw string) (string, error) {
	w := strings.ToLower(strings.TrimSpace(raw))
	if w == "" {
		w = PairWeightingSequence
	}
	switch w {
	case PairWeightingSequence, PairWeightingSurface:
		return w, nil
	case "seq":
		return PairWeightingSequence, nil
	case "occurrence":
		return PairWeightingSurface, nil
	default:
		return "", fmt.Errorf(
			"invalid pair weighting %q (expected %s|%s)",
			raw,
			PairWeightingSequence,
			PairWeightingSurface,
		)
	}
}

// Options converts the tokenizer section into tokenizer options.
func (c TokenizerConfig) Options(logger *slog.Logger) (tokenizer.Options, error) {
	raw, err := NormalizePairWeighting(c.PairWeighting)
	if err != nil {
		return tokenizer.Options{}, err
	}
	w, err := tokenizer.ParsePairWeighting(raw)
	if err != nil {
		return tokenizer.Options{}, err
	}
	return tokenizer.Options{
		MaxVocabSize:      c.MaxVocabSize,
		TargetCompression: c.TargetCompression,
		PairWeighting:     w,
		CacheSize:         c.CacheSize,
		Logger:            logger,
	}, nil
}
