// Package eval scores a tokenizer on a set of texts: round-trip fidelity and
// compression ratio per text, aggregated for the eval and train commands.
package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

// DefaultCases are the sentences every trained model is checked against.
var DefaultCases = []string{
	"नमस्ते भारत",
	"मैं हिंदी सीख रहा हूं",
	"यह एक परीक्षण वाक्य है",
	"भारत एक विशाल देश है",
	"मुझे हिंदी भाषा बहुत पसंद है",
}

// Codec is the part of a tokenizer an evaluation needs.
type Codec interface {
	Resolve(text string) []tokenizer.Resolution
	Decode(ids []int) string
	Ratio(text string) float64
}

// ---------------------------------------------------------------------------
// Case result and stats
// ---------------------------------------------------------------------------

// CaseResult holds the outcome of encoding and decoding one text.
type CaseResult struct {
	Index    int
	Text     string
	IDs      []int
	Tokens   []string
	Decoded  string
	Match    bool
	Ratio    float64
	Unknown  int // characters that fell back to <UNK>
	Duration time.Duration
}

// Stats holds aggregate figures across all cases.
type Stats struct {
	Cases     int
	Matches   int
	MinRatio  float64
	MaxRatio  float64
	MeanRatio float64
	// Overall is total bytes over total ids, so long texts weigh more.
	Overall float64
}

// RunCase evaluates a single text.
func RunCase(c Codec, index int, text string) CaseResult {
	start := time.Now()
	res := c.Resolve(text)

	r := CaseResult{
		Index:  index,
		Text:   text,
		IDs:    make([]int, len(res)),
		Tokens: make([]string, len(res)),
	}
	for i, x := range res {
		r.IDs[i] = x.ID
		r.Tokens[i] = x.Token
		if x.Kind == tokenizer.ResolutionUnknown {
			r.Unknown++
		}
	}
	r.Decoded = c.Decode(r.IDs)
	r.Match = r.Decoded == text
	r.Ratio = c.Ratio(text)
	r.Duration = time.Since(start)
	return r
}

// Run evaluates every case in order.
func Run(c Codec, cases []string) []CaseResult {
	out := make([]CaseResult, len(cases))
	for i, text := range cases {
		out[i] = RunCase(c, i, text)
	}
	return out
}

// ComputeStats aggregates results. Empty input yields zero stats.
func ComputeStats(results []CaseResult) Stats {
	if len(results) == 0 {
		return Stats{}
	}
	s := Stats{
		Cases:    len(results),
		MinRatio: results[0].Ratio,
		MaxRatio: results[0].Ratio,
	}
	var sum float64
	var bytes, ids int
	for _, r := range results {
		if r.Match {
			s.Matches++
		}
		s.MinRatio = min(s.MinRatio, r.Ratio)
		s.MaxRatio = max(s.MaxRatio, r.Ratio)
		sum += r.Ratio
		bytes += len(r.Text)
		ids += len(r.IDs)
	}
	s.MeanRatio = sum / float64(len(results))
	if ids > 0 {
		s.Overall = float64(bytes) / float64(ids)
	}
	return s
}

// ---------------------------------------------------------------------------
// Threshold gates
// ---------------------------------------------------------------------------

// CheckMinRatio returns an error if meanRatio < threshold.
// A threshold of 0 disables the gate.
func CheckMinRatio(meanRatio, threshold float64) error {
	if threshold <= 0 {
		return nil
	}
	if meanRatio < threshold {
		return fmt.Errorf("mean compression ratio %.3f below threshold %.3f", meanRatio, threshold)
	}
	return nil
}

// CheckRoundTrip returns an error naming the cases whose decoded text differs
// from the input.
func CheckRoundTrip(results []CaseResult) error {
	var failed []string
	for _, r := range results {
		if !r.Match {
			failed = append(failed, fmt.Sprintf("#%d", r.Index+1))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("round trip failed for %d case(s): %s", len(failed), strings.Join(failed, ", "))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of results to w.
func FormatTable(results []CaseResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-4s  %-5s  %6s  %6s  %5s  %s\n", "Case", "Match", "IDs", "Ratio", "UNK", "Text")
	fmt.Fprintln(sb, strings.Repeat("-", 60))

	for _, r := range results {
		match := "no"
		if r.Match {
			match = "yes"
		}
		fmt.Fprintf(sb, "%-4d  %-5s  %6d  %6.2f  %5d  %s\n",
			r.Index+1,
			match,
			len(r.IDs),
			r.Ratio,
			r.Unknown,
			truncate(r.Text, 40),
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 60))
	fmt.Fprintf(sb, "matches %d/%d  ratio min %.2f  mean %.2f  max %.2f  overall %.2f\n",
		stats.Matches, stats.Cases, stats.MinRatio, stats.MeanRatio, stats.MaxRatio, stats.Overall)

	fmt.Fprint(w, sb.String())
}

// FormatDetail writes every case with its ids, tokens and decoded text, the
// way the training run reports its checks.
func FormatDetail(results []CaseResult, w io.Writer) {
	for _, r := range results {
		mark := "✗"
		if r.Match {
			mark = "✓"
		}
		fmt.Fprintf(w, "Test case %d:\n", r.Index+1)
		fmt.Fprintf(w, "  Original: %s\n", r.Text)
		fmt.Fprintf(w, "  Encoded:  %v\n", r.IDs)
		fmt.Fprintf(w, "  Tokens:   %s\n", strings.Join(r.Tokens, " | "))
		fmt.Fprintf(w, "  Decoded:  %s\n", r.Decoded)
		fmt.Fprintf(w, "  Matches:  %s\n", mark)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Cases []jsonCase `json:"cases"`
	Stats jsonStats  `json:"stats"`
}

type jsonCase struct {
	Index      int      `json:"index"`
	Text       string   `json:"text"`
	IDs        []int    `json:"ids"`
	Tokens     []string `json:"tokens"`
	Decoded    string   `json:"decoded"`
	Match      bool     `json:"match"`
	Ratio      float64  `json:"ratio"`
	Unknown    int      `json:"unknown"`
	DurationUS int64    `json:"duration_us"`
}

type jsonStats struct {
	Cases     int     `json:"cases"`
	Matches   int     `json:"matches"`
	MinRatio  float64 `json:"min_ratio"`
	MeanRatio float64 `json:"mean_ratio"`
	MaxRatio  float64 `json:"max_ratio"`
	Overall   float64 `json:"overall_ratio"`
}

// FormatJSON writes a JSON report of results to w.
func FormatJSON(results []CaseResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Cases: make([]jsonCase, len(results)),
		Stats: jsonStats{
			Cases:     stats.Cases,
			Matches:   stats.Matches,
			MinRatio:  stats.MinRatio,
			MeanRatio: stats.MeanRatio,
			MaxRatio:  stats.MaxRatio,
			Overall:   stats.Overall,
		},
	}
	for i, r := range results {
		jr.Cases[i] = jsonCase{
			Index:      r.Index,
			Text:       r.Text,
			IDs:        r.IDs,
			Tokens:     r.Tokens,
			Decoded:    r.Decoded,
			Match:      r.Match,
			Ratio:      r.Ratio,
			Unknown:    r.Unknown,
			DurationUS: r.Duration.Microseconds(),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
