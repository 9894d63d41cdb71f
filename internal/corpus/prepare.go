package corpus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/go-hindi-bpe/internal/text"
)

type PrepareOptions struct {
	// MaxSentences stops preparation once this many sentences are kept.
	// Zero keeps everything.
	MaxSentences int
	Logger       *slog.Logger
}

type PrepareStats struct {
	Lines     int
	Sentences int
	Kept      int
	Bytes     int64
}

// logEvery is the kept-sentence interval between progress logs.
const logEvery = 100000

// Prepare splits every input line into sentences, NFC-normalizes them and
// writes the valid ones to w, one per line.
func Prepare(ctx context.Context, r io.Reader, w io.Writer, opts PrepareOptions) (PrepareStats, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	var st PrepareStats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	bw := bufio.NewWriter(w)

scan:
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Lines++

		for _, s := range text.SplitSentences(text.NormalizeLine(sc.Text())) {
			st.Sentences++
			if !text.IsValidSentence(s) {
				continue
			}
			if _, err := bw.WriteString(s + "\n"); err != nil {
				return st, fmt.Errorf("write sentence: %w", err)
			}
			st.Kept++
			st.Bytes += int64(len(s))
			if st.Kept%logEvery == 0 {
				log.Info("preparing corpus", slog.Int("kept", st.Kept), slog.Int("lines", st.Lines))
			}
			if opts.MaxSentences > 0 && st.Kept >= opts.MaxSentences {
				break scan
			}
		}
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("read corpus: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return st, fmt.Errorf("flush prepared corpus: %w", err)
	}
	return st, nil
}

// PrepareFile runs Prepare from inPath to outPath. The output only appears
// once preparation has finished.
func PrepareFile(ctx context.Context, inPath, outPath string, opts PrepareOptions) (PrepareStats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return PrepareStats{}, fmt.Errorf("open raw corpus: %w", err)
	}
	defer in.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return PrepareStats{}, fmt.Errorf("create out dir: %w", err)
		}
	}

	tmp := outPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return PrepareStats{}, fmt.Errorf("create prepared corpus: %w", err)
	}

	st, err := Prepare(ctx, in, out, opts)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close prepared corpus: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return st, err
	}
	if err := os.Rename(tmp, outPath); err != nil {
		_ = os.Remove(tmp)
		return st, fmt.Errorf("move prepared corpus into place: %w", err)
	}
	return st, nil
}
