// Package doctor provides preflight checks for hindibpe: the model file loads,
// its tables are consistent, and the corpus is in place.
package doctor

import (
	"fmt"
	"io"
	"os"

	"github.com/example/go-hindi-bpe/internal/eval"
	"github.com/example/go-hindi-bpe/internal/model"
	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
	WarnMark = "!"
)

// LoadFunc loads a tokenizer model.
type LoadFunc func(path string, opts tokenizer.Options) (*tokenizer.Tokenizer, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	ModelPath string
	Options   tokenizer.Options
	// Load defaults to model.Load.
	Load LoadFunc
	// SkipModel skips every model check (before the first training run).
	SkipModel bool
	// CorpusPath is the prepared corpus to verify on disk.
	CorpusPath string
	// SkipCorpus skips the corpus check (serving-only hosts).
	SkipCorpus bool
	// RequireRoundTrip turns a failed built-in round trip into a failure
	// instead of a warning.
	RequireRoundTrip bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark, FailMark or WarnMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- model -------------------------------------------------------------
	if cfg.SkipModel {
		fmt.Fprintf(w, "%s model: skipped\n", PassMark)
	} else {
		checkModel(cfg, w, &res)
	}

	// ---- corpus ------------------------------------------------------------
	if cfg.SkipCorpus {
		fmt.Fprintf(w, "%s corpus: skipped\n", PassMark)
	} else if err := checkCorpus(cfg.CorpusPath); err != nil {
		res.fail(fmt.Sprintf("corpus %q: %v", cfg.CorpusPath, err))
		fmt.Fprintf(w, "%s corpus %s: %v\n", FailMark, cfg.CorpusPath, err)
	} else {
		fmt.Fprintf(w, "%s corpus: %s\n", PassMark, cfg.CorpusPath)
	}

	return res
}

func checkModel(cfg Config, w io.Writer, res *Result) {
	load := cfg.Load
	if load == nil {
		load = model.Load
	}

	tok, err := load(cfg.ModelPath, cfg.Options)
	if err != nil {
		res.fail(fmt.Sprintf("model %q: %v", cfg.ModelPath, err))
		fmt.Fprintf(w, "%s model %s: %v\n", FailMark, cfg.ModelPath, err)
		return
	}
	fmt.Fprintf(w, "%s model: %s (%d tokens, %d merges)\n",
		PassMark, cfg.ModelPath, tok.Vocabulary().Size(), tok.Ranks().Len())

	if err := checkDenseIDs(tok.Vocabulary()); err != nil {
		res.fail(fmt.Sprintf("vocabulary ids: %v", err))
		fmt.Fprintf(w, "%s vocabulary ids: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s vocabulary ids: dense 0..%d\n", PassMark, tok.Vocabulary().Size()-1)
	}

	if err := checkRanks(tok); err != nil {
		res.fail(fmt.Sprintf("merge ranks: %v", err))
		fmt.Fprintf(w, "%s merge ranks: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s merge ranks: every merge in vocabulary\n", PassMark)
	}

	results := eval.Run(tok, eval.DefaultCases)
	stats := eval.ComputeStats(results)
	switch err := eval.CheckRoundTrip(results); {
	case err == nil:
		fmt.Fprintf(w, "%s round trip: %d/%d (mean ratio %.2f)\n", PassMark, stats.Matches, stats.Cases, stats.MeanRatio)
	case cfg.RequireRoundTrip:
		res.fail(fmt.Sprintf("round trip: %v", err))
		fmt.Fprintf(w, "%s round trip: %v\n", FailMark, err)
	default:
		fmt.Fprintf(w, "%s round trip: %v\n", WarnMark, err)
	}
}

func checkDenseIDs(v *tokenizer.Vocabulary) error {
	if v.Size() > v.Max() {
		return fmt.Errorf("%d tokens exceed cap %d", v.Size(), v.Max())
	}
	for id := range v.Size() {
		tok, ok := v.Token(id)
		if !ok {
			return fmt.Errorf("id %d has no token", id)
		}
		if back, ok := v.ID(tok); !ok || back != id {
			return fmt.Errorf("token %q maps to id %d, not %d", tok, back, id)
		}
	}
	return nil
}

func checkRanks(tok *tokenizer.Tokenizer) error {
	for want, p := range tok.Ranks().Pairs() {
		if r, _ := tok.Ranks().Rank(p); r != want {
			return fmt.Errorf("pair (%q, %q) has rank %d, want %d", p.Left, p.Right, r, want)
		}
		if !tok.Vocabulary().Contains(p.Merged()) {
			return fmt.Errorf("merge %q of rank %d missing from vocabulary", p.Merged(), want)
		}
	}
	return nil
}

func checkCorpus(path string) error {
	if path == "" {
		return fmt.Errorf("no corpus path configured")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("is a directory")
	}
	if fi.Size() == 0 {
		return fmt.Errorf("is empty")
	}
	return nil
}
