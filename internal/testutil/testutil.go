// Package testutil provides shared skip helpers and fixture writers for tests.
//
// Each Require helper calls t.Skip with a human-readable reason when the named
// prerequisite is absent.
//
// Typical usage:
//
//	func TestTrainOnRealCorpus(t *testing.T) {
//	    path := testutil.RequireCorpus(t)
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CorpusEnv names the prepared corpus used by integration tests.
const CorpusEnv = "HINDIBPE_PATHS_CORPUS_PATH"

// ModelEnv names a trained model used by integration tests.
const ModelEnv = "HINDIBPE_PATHS_MODEL_PATH"

// SampleSentences is a small Devanagari corpus for fixtures.
var SampleSentences = []string{
	"नमस्ते भारत।",
	"मैं हिंदी सीख रहा हूं।",
	"यह एक परीक्षण वाक्य है।",
	"भारत एक विशाल देश है।",
	"मुझे हिंदी भाषा बहुत पसंद है।",
	"हम सब भारत के लोग हैं।",
}

// RequireCorpus skips the test unless CorpusEnv points at a non-empty file,
// and returns its path.
func RequireCorpus(tb testing.TB) string {
	tb.Helper()

	return requireFile(tb, CorpusEnv, "prepared corpus")
}

// RequireModel skips the test unless ModelEnv points at a non-empty file, and
// returns its path.
func RequireModel(tb testing.TB) string {
	tb.Helper()

	return requireFile(tb, ModelEnv, "trained model")
}

func requireFile(tb testing.TB, env, what string) string {
	tb.Helper()

	p := os.Getenv(env)
	if p == "" {
		tb.Skipf("%s not configured; set %s to run this test", what, env)
		return ""
	}

	fi, err := os.Stat(p)
	if err != nil || fi.IsDir() || fi.Size() == 0 {
		tb.Skipf("%s not available at %s=%q", what, env, p)
		return ""
	}

	return p
}

// WriteCorpus writes lines, one per line, to name inside a fresh temp dir and
// returns the file path.
func WriteCorpus(tb testing.TB, name string, lines ...string) string {
	tb.Helper()

	p := filepath.Join(tb.TempDir(), name)
	body := strings.Join(lines, "\n")
	if len(lines) > 0 {
		body += "\n"
	}

	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		tb.Fatalf("write fixture %s: %v", p, err)
	}

	return p
}

// RepeatLines returns lines repeated n times in order.
func RepeatLines(lines []string, n int) []string {
	out := make([]string, 0, len(lines)*n)
	for range n {
		out = append(out, lines...)
	}

	return out
}
