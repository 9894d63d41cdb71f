package text

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "passthrough clean text",
			input: "नमस्ते भारत",
			want:  "नमस्ते भारत",
		},
		{
			name:  "trims leading and trailing whitespace",
			input: "  नमस्ते भारत  ",
			want:  "नमस्ते भारत",
		},
		{
			name:  "trims tabs and newlines from edges",
			input: "\t\n है \n\t",
			want:  "है",
		},
		{
			name:  "normalizes CRLF to LF",
			input: "पहला\r\nदूसरा",
			want:  "पहला\nदूसरा",
		},
		{
			name:  "normalizes bare CR to LF",
			input: "पहला\rदूसरा",
			want:  "पहला\nदूसरा",
		},
		{
			name:  "precomposed nukta letter takes the canonical two-rune form",
			input: "\u0958",
			want:  "\u0915\u093c",
		},
		{
			name:  "canonical nukta sequence is unchanged",
			input: "\u091c\u093c\u0930\u093e",
			want:  "\u091c\u093c\u0930\u093e",
		},
		{
			name:  "orders nukta before virama",
			input: "\u0915\u094d\u093c",
			want:  "\u0915\u093c\u094d",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: ErrEmptyText,
		},
		{
			name:    "whitespace only",
			input:   " \r\n\t ",
			wantErr: ErrEmptyText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Normalize(%q) error = %v; want %v", tt.input, err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.input, err)
			}

			if got != tt.want {
				t.Errorf("Normalize(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeLine_EmptyIsNotAnError(t *testing.T) {
	if got := NormalizeLine("  \r\n "); got != "" {
		t.Errorf("NormalizeLine = %q; want empty", got)
	}
}
