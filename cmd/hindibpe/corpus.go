package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/example/go-hindi-bpe/internal/corpus"
	"github.com/spf13/cobra"
)

func newCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Training corpus acquisition and preparation commands",
	}

	cmd.AddCommand(newCorpusDownloadCmd())
	cmd.AddCommand(newCorpusPrepareCmd())
	return cmd
}

func newCorpusDownloadCmd() *cobra.Command {
	var (
		out   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the raw Hindi corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.Paths.RawCorpusPath
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			res, err := corpus.Download(ctx, corpus.DownloadOptions{
				URL:     cfg.Corpus.URL,
				OutPath: out,
				SHA256:  cfg.Corpus.SHA256,
				Force:   force,
				Stdout:  cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("corpus download failed: %w", err)
			}

			if res.Skipped {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already present, skipping download\n", res.Path)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "downloaded %s (%d bytes, sha256 %s)\n", res.Path, res.Bytes, res.SHA256)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output path (defaults to paths.raw_corpus_path)")
	cmd.Flags().BoolVar(&force, "force", false, "Download even if the file already exists")

	return cmd
}

func newCorpusPrepareCmd() *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Split the raw corpus into filtered, normalized sentences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if in == "" {
				in = cfg.Paths.RawCorpusPath
			}
			if out == "" {
				out = cfg.Paths.CorpusPath
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := corpus.PrepareFile(ctx, in, out, corpus.PrepareOptions{
				MaxSentences: cfg.Train.MaxSentences,
				Logger:       slog.Default(),
			})
			if err != nil {
				return fmt.Errorf("corpus prepare failed: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: kept %d of %d sentences from %d lines\n",
				out, st.Kept, st.Sentences, st.Lines)
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "Raw corpus path (defaults to paths.raw_corpus_path)")
	cmd.Flags().StringVar(&out, "out", "", "Prepared corpus path (defaults to paths.corpus_path)")

	return cmd
}
