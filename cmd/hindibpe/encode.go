package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/go-hindi-bpe/internal/text"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var (
		input  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode text to token ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if format != "ids" && format != "tokens" && format != "json" {
				return fmt.Errorf("--format must be 'ids', 'tokens' or 'json'")
			}

			raw, err := readInputText(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			s, err := text.Normalize(raw)
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			res := tok.Resolve(s)
			ids := make([]int, len(res))
			tokens := make([]string, len(res))
			for i, r := range res {
				ids[i], tokens[i] = r.ID, r.Token
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				return enc.Encode(map[string]any{"ids": ids, "tokens": tokens})
			case "tokens":
				_, err = fmt.Fprintln(out, strings.Join(tokens, " "))
			default:
				_, err = fmt.Fprintln(out, formatIDs(ids))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to encode (reads stdin when empty)")
	cmd.Flags().StringVar(&format, "format", "ids", "Output format: ids|tokens|json")

	return cmd
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [ids...]",
		Short: "Decode token ids to text",
		Long: "Decode token ids to text. Ids may be given as arguments or on stdin,\n" +
			"separated by spaces or commas; a JSON array is accepted too.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			raw, err := readInputText(strings.Join(args, " "), cmd.InOrStdin())
			if err != nil {
				return err
			}
			ids, err := parseIDs(raw)
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok.Decode(ids))
			return err
		},
	}

	return cmd
}

func newRatioCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "ratio",
		Short: "Print the compression ratio (UTF-8 bytes per token) of text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			raw, err := readInputText(input, cmd.InOrStdin())
			if err != nil {
				return err
			}
			s, err := text.Normalize(raw)
			if err != nil {
				return err
			}

			tok, err := loadTokenizer(cfg)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", tok.Ratio(s))
			return err
		},
	}

	cmd.Flags().StringVar(&input, "text", "", "Text to score (reads stdin when empty)")

	return cmd
}

func formatIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

// parseIDs reads integers separated by whitespace or commas. Surrounding
// brackets are ignored so a JSON array can be pasted as is.
func parseIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
