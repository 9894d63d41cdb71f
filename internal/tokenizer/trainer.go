package tokenizer

import (
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// checkpointEvery is the vocabulary-size interval at which training
	// scores itself for a snapshot.
	checkpointEvery = 50
	// checkpointSampleWords is the number of leading words scored.
	checkpointSampleWords = 2000
	// seedWordShare divides the cap to get the whole-word seed budget.
	seedWordShare = 10
)

// CommonWords are inserted as whole-word tokens before any chunk is learned.
var CommonWords = []string{
	"है", "मैं", "हूं", "का", "की", "के", "में", "से", "को", "पर", "और", "हैं", "था", "थी", "थे",
	"नमस्ते", "भारत", "हिंदी", "सीख", "रहा", "यह", "एक", "परीक्षण", "वाक्य", "विशाल", "देश",
	"मुझे", "भाषा", "बहुत", "पसंद",
}

// TrainResult summarizes one TrainOnChunk call.
type TrainResult struct {
	Seeded        int
	Merges        int
	SkippedPairs  int
	Restored      bool
	RestoredSize  int
	RestoredRatio float64
	VocabSize     int
	Ratio         float64
}

// TrainOnChunk learns merges from one chunk of text. Chunks must be supplied
// in order; the result depends on everything learned before.
func (t *Tokenizer) TrainOnChunk(text string) TrainResult {
	var res TrainResult
	fields := strings.Fields(text)
	if len(fields) == 0 {
		res.VocabSize = t.vocab.Size()
		return res
	}

	counts, order := countWords(fields)
	res.Seeded = t.seed(counts, order)

	words := make([]wordSeq, 0, len(fields))
	for _, f := range fields {
		units := t.seg.Segment(f)
		if len(units) == 0 {
			continue
		}
		var weight int64 = 1
		if t.opts.PairWeighting == PairWeightingSequence {
			weight = int64(counts[strings.Join(units, " ")])
		}
		words = append(words, wordSeq{units: units, weight: weight})
	}

	stats := countPairs(words)
	var best *Snapshot

	for !t.vocab.Full() && len(stats) > 0 {
		pair, _ := stats.best()
		merged := pair.Merged()

		if t.vocab.Contains(merged) || t.vocab.Full() {
			delete(stats, pair)
			res.SkippedPairs++
			continue
		}
		if _, err := t.vocab.Insert(merged); err != nil {
			delete(stats, pair)
			res.SkippedPairs++
			continue
		}
		// The merged form was new, so the pair cannot already be ranked.
		t.ranks.push(pair)
		res.Merges++

		for i := range words {
			words[i].units = mergeSeq(words[i].units, pair, merged)
		}
		stats = countPairs(words)

		if size := t.vocab.Size(); size%checkpointEvery == 0 {
			ratio := t.Ratio(sampleText(words, checkpointSampleWords))
			t.log.Info("training checkpoint",
				slog.Int("vocab_size", size),
				slog.Float64("ratio", ratio),
			)
			if ratio >= t.opts.TargetCompression && size < t.vocab.Max() &&
				(best == nil || ratio > best.Ratio) {
				best = t.snapshot(ratio)
			}
		}
	}

	if best != nil {
		t.log.Info("restoring best snapshot",
			slog.Int("vocab_size", best.Size),
			slog.Float64("ratio", best.Ratio),
		)
		t.restore(best)
		res.Restored = true
		res.RestoredSize = best.Size
		res.RestoredRatio = best.Ratio
	}

	res.VocabSize = t.vocab.Size()
	res.Ratio = t.Ratio(text)
	t.log.Info("chunk trained",
		slog.Int("vocab_size", res.VocabSize),
		slog.Int("merges", res.Merges),
		slog.Int("seeded", res.Seeded),
		slog.Float64("ratio", res.Ratio),
	)
	return res
}

// seed inserts the common words, then the most frequent multi-rune words of
// the chunk. The frequency list is cut to Max()/10 candidates before words
// already present or too short are skipped.
func (t *Tokenizer) seed(counts map[string]int, order []string) int {
	added := 0
	insert := func(w string) {
		if t.vocab.Contains(w) || t.vocab.Full() {
			return
		}
		if _, err := t.vocab.Insert(w); err == nil {
			added++
		}
	}

	for _, w := range CommonWords {
		insert(w)
	}

	limit := t.vocab.Max() / seedWordShare
	for _, w := range mostCommon(counts, order, limit) {
		if utf8.RuneCountInString(w) > 1 {
			insert(w)
		}
	}
	return added
}

// countWords counts fields and remembers first-occurrence order.
func countWords(fields []string) (map[string]int, []string) {
	counts := make(map[string]int, len(fields)/2)
	order := make([]string, 0, len(fields)/2)
	for _, f := range fields {
		if counts[f] == 0 {
			order = append(order, f)
		}
		counts[f]++
	}
	return counts, order
}

// mostCommon returns up to n words by descending count; equal counts keep
// first-occurrence order.
func mostCommon(counts map[string]int, order []string, n int) []string {
	ranked := append([]string(nil), order...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

func sampleText(words []wordSeq, n int) string {
	if n > len(words) {
		n = len(words)
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = strings.Join(words[i].units, "")
	}
	return strings.Join(parts, " ")
}
