package text

import (
	"reflect"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "danda",
			text: "भारत एक देश है। यह विशाल है।",
			want: []string{"भारत एक देश है।", "यह विशाल है।"},
		},
		{
			name: "mixed terminators",
			text: "क्या? हाँ! ठीक.",
			want: []string{"क्या?", "हाँ!", "ठीक."},
		},
		{
			name: "trailing text kept",
			text: "पहला। दूसरा बिना विराम",
			want: []string{"पहला।", "दूसरा बिना विराम"},
		},
		{
			name: "repeated terminators",
			text: "रुको।। चलो",
			want: []string{"रुको।", "।", "चलो"},
		},
		{
			name: "no terminator",
			text: "  केवल शब्द  ",
			want: []string{"केवल शब्द"},
		},
		{
			name: "empty",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitSentences(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q; want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsValidSentence(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"भारत एक देश है।", true},
		{"हाँ!", true},
		{"नमस्ते", false},
		{"मैं घर जा", true},
		{"दो शब्द", false},
		{"This has no Hindi at all.", false},
		{"abc १२३ def", true},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidSentence(tt.s); got != tt.want {
			t.Errorf("IsValidSentence(%q) = %v; want %v", tt.s, got, tt.want)
		}
	}
}

func TestIsTerminator(t *testing.T) {
	for _, r := range "।.!?" {
		if !IsTerminator(r) {
			t.Errorf("IsTerminator(%q) = false", r)
		}
	}

	for _, r := range "॥,;क " {
		if IsTerminator(r) {
			t.Errorf("IsTerminator(%q) = true", r)
		}
	}
}

func TestHasDevanagari(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"", false},
		{"hello world.", false},
		{"hello भारत", true},
		{"ऀ", true},
		{"ॿ", true},
		{"ঀ", false},
	}

	for _, tt := range tests {
		if got := HasDevanagari(tt.s); got != tt.want {
			t.Errorf("HasDevanagari(%q) = %v; want %v", tt.s, got, tt.want)
		}
	}
}
