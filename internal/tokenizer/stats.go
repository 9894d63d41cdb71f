package tokenizer

// wordSeq is one word occurrence of the training chunk: its current units and
// the weight its adjacent pairs contribute.
type wordSeq struct {
	units  []string
	weight int64
}

// pairStats holds aggregate pair weights over the current corpus
// representation.
type pairStats map[Pair]int64

// countPairs recomputes statistics from scratch. Sequences shorter than two
// units contribute nothing.
func countPairs(words []wordSeq) pairStats {
	stats := make(pairStats)
	for _, w := range words {
		if len(w.units) < 2 {
			continue
		}
		for i := 0; i < len(w.units)-1; i++ {
			stats[Pair{w.units[i], w.units[i+1]}] += w.weight
		}
	}
	return stats
}

// best returns the pair with the greatest weight. Equal weights go to the
// lexicographically greatest pair, so selection never depends on map order.
func (s pairStats) best() (Pair, bool) {
	var (
		top   Pair
		topW  int64
		found bool
	)
	for p, w := range s {
		if !found || w > topW || (w == topW && top.Less(p)) {
			top, topW, found = p, w, true
		}
	}
	return top, found
}

// mergeSeq collapses every non-overlapping occurrence of p in units, scanning
// left to right. The input slice is not modified.
func mergeSeq(units []string, p Pair, merged string) []string {
	if len(units) < 2 {
		return units
	}
	out := make([]string, 0, len(units))
	for i := 0; i < len(units); {
		if i < len(units)-1 && units[i] == p.Left && units[i+1] == p.Right {
			out = append(out, merged)
			i += 2
			continue
		}
		out = append(out, units[i])
		i++
	}
	return out
}
