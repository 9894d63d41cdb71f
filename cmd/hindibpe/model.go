package main

import (
	"encoding/json"
	"fmt"

	"github.com/example/go-hindi-bpe/internal/model"
	"github.com/example/go-hindi-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Model file commands",
	}

	cmd.AddCommand(newModelInspectCmd())
	return cmd
}

func newModelInspectCmd() *cobra.Command {
	var (
		first  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print vocabulary size, merge count and reserved ids of the model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			s := model.Inspect(cfg.Paths.ModelPath, tok, first)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			_, _ = fmt.Fprintln(out, s)
			_, _ = fmt.Fprintf(out, "longest token: %s\n", s.LongestToken)
			for _, name := range []string{tokenizer.PadToken, tokenizer.UnknownToken, tokenizer.BeginToken, tokenizer.EndToken, tokenizer.BoundaryToken} {
				_, _ = fmt.Fprintf(out, "  %-6s %d\n", name, s.ReservedIDs[name])
			}
			for _, m := range s.FirstMerges {
				_, _ = fmt.Fprintf(out, "  rank %d: %s + %s\n", m.Rank, m.Left, m.Right)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&first, "first", 10, "Number of leading merge rules to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")

	return cmd
}
