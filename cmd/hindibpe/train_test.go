package main

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/example/go-hindi-bpe/internal/testutil"
	"github.com/example/go-hindi-bpe/internal/tokenizer"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTrainTokenizer(t *testing.T, target float64) *tokenizer.Tokenizer {
	t.Helper()

	tok, err := tokenizer.New(tokenizer.Options{
		MaxVocabSize:      200,
		TargetCompression: target,
		Logger:            quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	return tok
}

func sampleCorpus() io.Reader {
	return strings.NewReader(strings.Join(testutil.SampleSentences, "\n") + "\n")
}

func TestRunTraining_StopsOnTarget(t *testing.T) {
	tok := newTrainTokenizer(t, 0)

	sum, err := runTraining(context.Background(), tok, sampleCorpus(),
		trainOptions{ChunkLines: 2, StopOnTarget: true}, quietLogger())
	if err != nil {
		t.Fatalf("runTraining: %v", err)
	}

	if !sum.ReachedGoal || sum.Chunks != 1 || sum.Lines != 2 {
		t.Errorf("summary = %+v; want stop after the first chunk", sum)
	}

	if sum.VocabSize != tok.Vocabulary().Size() {
		t.Errorf("VocabSize = %d; live size %d", sum.VocabSize, tok.Vocabulary().Size())
	}
}

func TestRunTraining_ReadsEverythingWithoutStop(t *testing.T) {
	tok := newTrainTokenizer(t, 0)

	sum, err := runTraining(context.Background(), tok, sampleCorpus(),
		trainOptions{ChunkLines: 2, StopOnTarget: false}, quietLogger())
	if err != nil {
		t.Fatalf("runTraining: %v", err)
	}

	if sum.ReachedGoal || sum.Chunks != 3 || sum.Lines != len(testutil.SampleSentences) {
		t.Errorf("summary = %+v; want all 3 chunks", sum)
	}
}

func TestRunTraining_MaxSentences(t *testing.T) {
	tok := newTrainTokenizer(t, 3.2)

	sum, err := runTraining(context.Background(), tok, sampleCorpus(),
		trainOptions{ChunkLines: 2, MaxSentences: 3}, quietLogger())
	if err != nil {
		t.Fatalf("runTraining: %v", err)
	}

	if sum.Lines != 3 || sum.Chunks != 2 {
		t.Errorf("summary = %+v; want 3 lines in 2 chunks", sum)
	}
}

func TestRunTraining_CancelledBeforeFirstChunk(t *testing.T) {
	tok := newTrainTokenizer(t, 3.2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := runTraining(ctx, tok, sampleCorpus(), trainOptions{ChunkLines: 2}, quietLogger())
	if err != nil {
		t.Fatalf("runTraining: %v", err)
	}

	if !sum.Interrupted || sum.Chunks != 0 {
		t.Errorf("summary = %+v; want interrupted before any chunk", sum)
	}

	if tok.Vocabulary().Size() != tokenizer.ReservedTokens {
		t.Errorf("Size() = %d; want untouched vocabulary", tok.Vocabulary().Size())
	}

	if !strings.Contains(sum.String(), "(interrupted)") {
		t.Errorf("String() = %q", sum.String())
	}
}

func TestRunTraining_EmptyCorpus(t *testing.T) {
	tok := newTrainTokenizer(t, 3.2)

	sum, err := runTraining(context.Background(), tok, strings.NewReader("\n\n"), trainOptions{}, quietLogger())
	if err != nil {
		t.Fatalf("runTraining: %v", err)
	}

	if sum.Chunks != 0 || sum.VocabSize != tokenizer.ReservedTokens {
		t.Errorf("summary = %+v", sum)
	}
}

func TestLeadingRunes(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"नमस्ते", 2, "नम"},
		{"नमस्ते", 6, "नमस्ते"},
		{"नमस्ते", 100, "नमस्ते"},
		{"abc", 0, "abc"},
		{"", 3, ""},
	}

	for _, tt := range tests {
		if got := leadingRunes(tt.in, tt.n); got != tt.want {
			t.Errorf("leadingRunes(%q, %d) = %q; want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"1 2 3", []int{1, 2, 3}, false},
		{"1,2,\t3\n", []int{1, 2, 3}, false},
		{"[5, 4, 6]", []int{5, 4, 6}, false},
		{"", []int{}, false},
		{"-1", []int{-1}, false},
		{"1 two", nil, true},
	}

	for _, tt := range tests {
		got, err := parseIDs(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseIDs(%q) = %v; want error", tt.in, got)
			}

			continue
		}

		if err != nil || !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseIDs(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestProbeAddr(t *testing.T) {
	if got := probeAddr(":8080"); got != "127.0.0.1:8080" {
		t.Errorf("probeAddr(:8080) = %q", got)
	}

	if got := probeAddr("10.0.0.1:9000"); got != "10.0.0.1:9000" {
		t.Errorf("probeAddr kept host = %q", got)
	}
}

func TestEvalCases(t *testing.T) {
	got, err := evalCases(nil, "")
	if err != nil || len(got) != 5 {
		t.Fatalf("default cases = %d, %v", len(got), err)
	}

	file := testutil.WriteCorpus(t, "cases.txt", "भारत", "", "  देश  ")

	got, err = evalCases([]string{"नमस्ते"}, file)
	if err != nil {
		t.Fatal(err)
	}

	if want := []string{"नमस्ते", "भारत", "देश"}; !reflect.DeepEqual(got, want) {
		t.Errorf("evalCases = %q; want %q", got, want)
	}

	if _, err := evalCases([]string{"  "}, ""); err == nil {
		t.Error("expected error when every given case is blank")
	}
}
