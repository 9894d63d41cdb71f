package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/example/go-hindi-bpe/internal/config"
	"github.com/example/go-hindi-bpe/internal/corpus"
	"github.com/example/go-hindi-bpe/internal/eval"
	"github.com/example/go-hindi-bpe/internal/model"
	"github.com/example/go-hindi-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	var (
		resume     bool
		cpuProfile string
		skipEval   bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Learn merges from the prepared corpus and save the model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			tok, err := newTrainingTokenizer(cfg, resume)
			if err != nil {
				return err
			}

			f, err := os.Open(cfg.Paths.CorpusPath)
			if err != nil {
				return fmt.Errorf("open corpus: %w", err)
			}
			defer func() { _ = f.Close() }()

			if cpuProfile != "" {
				stop, err := startCPUProfile(cpuProfile)
				if err != nil {
					return err
				}
				defer stop()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sum, err := runTraining(ctx, tok, f, trainOptions{
				ChunkLines:   cfg.Train.ChunkLines,
				MaxSentences: cfg.Train.MaxSentences,
				SampleRunes:  cfg.Train.SampleRunes,
				StopOnTarget: cfg.Train.StopOnTarget,
			}, slog.Default())
			if err != nil {
				return err
			}

			if err := model.Save(cfg.Paths.ModelPath, tok); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "saved %s: %s\n", cfg.Paths.ModelPath, sum)

			if skipEval {
				return nil
			}
			results := eval.Run(tok, eval.DefaultCases)
			eval.FormatDetail(results, out)
			_, _ = fmt.Fprintf(out, "Mean compression ratio: %.2f\n", eval.ComputeStats(results).MeanRatio)
			return nil
		},
	}

	cmd.Flags().BoolVar(&resume, "resume", false, "Continue training from the existing model file")
	cmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write a CPU profile of the training run to this file")
	cmd.Flags().BoolVar(&skipEval, "skip-eval", false, "Do not evaluate the built-in test sentences after saving")

	return cmd
}

func newTrainingTokenizer(cfg config.Config, resume bool) (*tokenizer.Tokenizer, error) {
	if resume {
		return loadTokenizer(cfg)
	}
	opts, err := cfg.Tokenizer.Options(slog.Default())
	if err != nil {
		return nil, err
	}
	return tokenizer.New(opts)
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("start cpu profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

type trainOptions struct {
	ChunkLines   int
	MaxSentences int
	// SampleRunes is how many leading runes of a chunk are scored after
	// training on it.
	SampleRunes  int
	StopOnTarget bool
}

type trainSummary struct {
	Chunks      int
	Lines       int
	Merges      int
	VocabSize   int
	LastRatio   float64
	ReachedGoal bool
	Interrupted bool
	Duration    time.Duration
}

func (s trainSummary) String() string {
	msg := fmt.Sprintf("%d chunks, %d lines, %d merges, vocab %d, ratio %.2f in %s",
		s.Chunks, s.Lines, s.Merges, s.VocabSize, s.LastRatio, s.Duration.Round(time.Millisecond))
	switch {
	case s.ReachedGoal:
		msg += " (target reached)"
	case s.Interrupted:
		msg += " (interrupted)"
	}
	return msg
}

// runTraining feeds r to tok chunk by chunk. Cancelling ctx stops training
// between chunks; the tokenizer keeps everything learned so far.
func runTraining(ctx context.Context, tok *tokenizer.Tokenizer, r io.Reader, opts trainOptions, log *slog.Logger) (trainSummary, error) {
	start := time.Now()
	cr := corpus.NewChunkReader(r, opts.ChunkLines, opts.MaxSentences)
	target := tok.Options().TargetCompression
	var sum trainSummary

	for {
		if ctx.Err() != nil {
			log.Warn("training interrupted", slog.Int("chunks", sum.Chunks))
			sum.Interrupted = true
			break
		}
		chunk, ok := cr.Next()
		if !ok {
			break
		}

		var res tokenizer.TrainResult
		pprof.Do(ctx, pprof.Labels("stage", "train"), func(context.Context) {
			res = tok.TrainOnChunk(chunk)
		})
		pprof.Do(ctx, pprof.Labels("stage", "score"), func(context.Context) {
			sum.LastRatio = tok.Ratio(leadingRunes(chunk, opts.SampleRunes))
		})
		sum.Chunks = cr.Chunks()
		sum.Merges += res.Merges

		size := tok.Vocabulary().Size()
		log.Info("chunk done",
			slog.Int("chunk", sum.Chunks),
			slog.Int("lines", cr.Lines()),
			slog.Int("vocab_size", size),
			slog.Float64("ratio", sum.LastRatio),
		)

		if opts.StopOnTarget && sum.LastRatio >= target && size < tok.Vocabulary().Max() {
			sum.ReachedGoal = true
			break
		}
	}
	if err := cr.Err(); err != nil {
		return sum, fmt.Errorf("read corpus: %w", err)
	}

	sum.Lines = cr.Lines()
	sum.VocabSize = tok.Vocabulary().Size()
	sum.Duration = time.Since(start)
	log.Info("training finished",
		slog.Int("chunks", sum.Chunks),
		slog.Int("vocab_size", sum.VocabSize),
		slog.Int("merges", tok.Ranks().Len()),
		slog.Float64("ratio", sum.LastRatio),
	)
	return sum, nil
}

// leadingRunes returns the first n runes of s. n <= 0 returns s.
func leadingRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
