package tokenizer

import (
	"fmt"
	"sort"
)

// Pair is an ordered pair of adjacent tokens.
type Pair struct {
	Left  string
	Right string
}

// Merged returns the concatenation the pair merges into.
func (p Pair) Merged() string { return p.Left + p.Right }

// Less orders pairs by Left, then Right.
func (p Pair) Less(o Pair) bool {
	if p.Left != o.Left {
		return p.Left < o.Left
	}
	return p.Right < o.Right
}

// MergeRanks records accepted merge rules in learning order. Ranks are
// assigned 0, 1, 2, ... without gaps; lower ranks are preferred when encoding.
type MergeRanks struct {
	ranks map[Pair]int
}

func NewMergeRanks() *MergeRanks {
	return &MergeRanks{ranks: make(map[Pair]int)}
}

// Add records p with the next rank.
func (m *MergeRanks) Add(p Pair) (int, error) {
	if r, ok := m.ranks[p]; ok {
		return 0, fmt.Errorf("pair (%q, %q) already ranked %d", p.Left, p.Right, r)
	}
	return m.push(p), nil
}

func (m *MergeRanks) push(p Pair) int {
	r := len(m.ranks)
	m.ranks[p] = r
	return r
}

func (m *MergeRanks) Rank(p Pair) (int, bool) {
	r, ok := m.ranks[p]
	return r, ok
}

func (m *MergeRanks) Len() int { return len(m.ranks) }

// Pairs returns all ranked pairs ordered by rank.
func (m *MergeRanks) Pairs() []Pair {
	out := make([]Pair, 0, len(m.ranks))
	for p := range m.ranks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return m.ranks[out[i]] < m.ranks[out[j]] })
	return out
}

func (m *MergeRanks) Clone() *MergeRanks {
	c := make(map[Pair]int, len(m.ranks))
	for p, r := range m.ranks {
		c[p] = r
	}
	return &MergeRanks{ranks: c}
}
