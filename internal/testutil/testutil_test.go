package testutil_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/example/go-hindi-bpe/internal/testutil"
)

func TestRequireCorpus_SkipsWhenUnset(t *testing.T) {
	t.Setenv(testutil.CorpusEnv, "")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireCorpus(fakeT)

	if !skipped {
		t.Error("expected RequireCorpus to skip when the env var is unset")
	}
}

func TestRequireCorpus_SkipsWhenAbsent(t *testing.T) {
	t.Setenv(testutil.CorpusEnv, "/nonexistent/hi_processed.txt")

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireCorpus(fakeT)

	if !skipped {
		t.Error("expected RequireCorpus to skip when the file is absent")
	}
}

func TestRequireModel_SkipsWhenEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(testutil.ModelEnv, p)

	skipped := false
	fakeT := &skipTracker{TB: t, onSkip: func() { skipped = true }}
	testutil.RequireModel(fakeT)

	if !skipped {
		t.Error("expected RequireModel to skip for an empty file")
	}
}

func TestRequireCorpus_ReturnsPath(t *testing.T) {
	p := testutil.WriteCorpus(t, "hi.txt", testutil.SampleSentences...)
	t.Setenv(testutil.CorpusEnv, p)

	if got := testutil.RequireCorpus(t); got != p {
		t.Errorf("RequireCorpus = %q; want %q", got, p)
	}
}

func TestWriteCorpus(t *testing.T) {
	p := testutil.WriteCorpus(t, "c.txt", "क", "ख")

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "क\nख\n" {
		t.Errorf("content = %q", data)
	}

	if empty := testutil.WriteCorpus(t, "e.txt"); fileSize(t, empty) != 0 {
		t.Error("WriteCorpus with no lines should write an empty file")
	}
}

func TestRepeatLines(t *testing.T) {
	got := testutil.RepeatLines([]string{"a", "b"}, 2)
	if want := []string{"a", "b", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("RepeatLines = %q; want %q", got, want)
	}
}

func fileSize(t *testing.T, p string) int64 {
	t.Helper()

	fi, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}

	return fi.Size()
}

// skipTracker is a minimal testing.TB implementation that intercepts Skip calls.
type skipTracker struct {
	testing.TB
	onSkip func()
}

func (s *skipTracker) Helper() {}

func (s *skipTracker) Skipf(_ string, _ ...any) {
	s.onSkip()
	// Do NOT call s.TB.Skip, that would actually skip the outer test.
}
