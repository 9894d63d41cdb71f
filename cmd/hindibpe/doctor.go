package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/go-hindi-bpe/internal/doctor"
	"github.com/example/go-hindi-bpe/internal/server"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var (
		skipModel        bool
		skipCorpus       bool
		checkServer      bool
		requireRoundTrip bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the model file and corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			opts, err := cfg.Tokenizer.Options(slog.Default())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(doctor.Config{
				ModelPath:        cfg.Paths.ModelPath,
				Options:          opts,
				SkipModel:        skipModel,
				CorpusPath:       cfg.Paths.CorpusPath,
				SkipCorpus:       skipCorpus,
				RequireRoundTrip: requireRoundTrip,
			}, out)

			if checkServer {
				addr := probeAddr(cfg.Server.ListenAddr)
				if err := server.ProbeHTTP(addr); err != nil {
					result.AddFailure(fmt.Sprintf("server %s: %v", addr, err))
					fmt.Fprintf(out, "%s server %s: %v\n", doctor.FailMark, addr, err)
				} else {
					fmt.Fprintf(out, "%s server: %s\n", doctor.PassMark, addr)
				}
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipModel, "skip-model", false, "Skip the model checks (before the first training run)")
	cmd.Flags().BoolVar(&skipCorpus, "skip-corpus", false, "Skip the prepared corpus check")
	cmd.Flags().BoolVar(&checkServer, "check-server", false, "Also probe the health endpoint at the configured listen address")
	cmd.Flags().BoolVar(&requireRoundTrip, "require-roundtrip", false, "Fail when a built-in sentence does not round-trip")

	return cmd
}
