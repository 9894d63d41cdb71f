package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/example/go-hindi-bpe/internal/eval"
	"github.com/example/go-hindi-bpe/internal/text"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var (
		texts            []string
		casesFile        string
		format           string
		minRatio         float64
		requireRoundTrip bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Check round trip and compression ratio on test sentences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if format != "table" && format != "json" && format != "detail" {
				return fmt.Errorf("--format must be 'table', 'json' or 'detail'")
			}

			cases, err := evalCases(texts, casesFile)
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			results := eval.Run(tok, cases)
			stats := eval.ComputeStats(results)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				eval.FormatJSON(results, stats, out)
			case "detail":
				eval.FormatDetail(results, out)
			default:
				eval.FormatTable(results, stats, out)
			}

			if requireRoundTrip {
				if err := eval.CheckRoundTrip(results); err != nil {
					return err
				}
			}
			return eval.CheckMinRatio(stats.MeanRatio, minRatio)
		},
	}

	cmd.Flags().StringArrayVar(&texts, "text", nil, "Text to evaluate (repeatable; defaults to the built-in sentences)")
	cmd.Flags().StringVar(&casesFile, "file", "", "File with one test sentence per line")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json|detail")
	cmd.Flags().Float64Var(&minRatio, "min-ratio", 0, "Exit non-zero if the mean ratio is below this value (0 = disabled)")
	cmd.Flags().BoolVar(&requireRoundTrip, "require-roundtrip", false, "Exit non-zero if any case does not decode to its input")

	return cmd
}

// evalCases collects NFC-normalized cases from texts and the lines of path,
// falling back to eval.DefaultCases when both are empty.
func evalCases(texts []string, path string) ([]string, error) {
	var cases []string
	for _, t := range texts {
		if s := text.NormalizeLine(t); s != "" {
			cases = append(cases, s)
		}
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open cases file: %w", err)
		}
		defer func() { _ = f.Close() }()

		sc := bufio.NewScanner(f)
		for sc.Scan() {
			if s := text.NormalizeLine(sc.Text()); s != "" {
				cases = append(cases, s)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read cases file: %w", err)
		}
	}

	if len(cases) == 0 {
		if len(texts) > 0 || path != "" {
			return nil, fmt.Errorf("no non-empty test sentences given")
		}
		return append([]string(nil), eval.DefaultCases...), nil
	}
	return cases, nil
}
