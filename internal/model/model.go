// Package model persists trained tokenizer tables. A model file holds exactly
// three fields: vocab, inverse_vocab and bpe_ranks. Files ending in .yaml or
// .yml are YAML; everything else is JSON.
package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/go-hindi-bpe/internal/tokenizer"
	"gopkg.in/yaml.v3"
)

var (
	ErrModelNotFound = errors.New("model file not found")
	ErrMissingField  = errors.New("model file is missing a required field")
	ErrCorruptModel  = errors.New("model file is corrupt")
)

// FieldError names the required field a model file lacks.
type FieldError struct {
	Path  string
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("model %s: missing required field %q", e.Path, e.Field)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }

// Format is the serialization used for a model file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// RankRecord is one merge rule on disk.
type RankRecord struct {
	Left  string `json:"left" yaml:"left"`
	Right string `json:"right" yaml:"right"`
	Rank  int    `json:"rank" yaml:"rank"`
}

// File is the on-disk model record. A field that is absent or null is
// reported as missing; an empty table is valid.
type File struct {
	Vocab        map[string]int `json:"vocab" yaml:"vocab"`
	InverseVocab map[int]string `json:"inverse_vocab" yaml:"inverse_vocab"`
	BPERanks     []RankRecord   `json:"bpe_ranks" yaml:"bpe_ranks"`
}

// FromState converts exported tokenizer tables to a File.
func FromState(st tokenizer.State) File {
	f := File{
		Vocab:        st.Vocab,
		InverseVocab: st.InverseVocab,
		BPERanks:     make([]RankRecord, 0, len(st.Ranks)),
	}
	for _, r := range st.Ranks {
		f.BPERanks = append(f.BPERanks, RankRecord{Left: r.Left, Right: r.Right, Rank: r.Rank})
	}
	return f
}

// State converts the file back to tokenizer tables.
func (f File) State() tokenizer.State {
	st := tokenizer.State{
		Vocab:        f.Vocab,
		InverseVocab: f.InverseVocab,
		Ranks:        make([]tokenizer.RankEntry, 0, len(f.BPERanks)),
	}
	for _, r := range f.BPERanks {
		st.Ranks = append(st.Ranks, tokenizer.RankEntry{Left: r.Left, Right: r.Right, Rank: r.Rank})
	}
	return st
}

// Marshal encodes f in the given format.
func Marshal(f File, format Format) ([]byte, error) {
	if format == FormatYAML {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, fmt.Errorf("encode yaml model: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml model: %w", err)
		}
		return buf.Bytes(), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode json model: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data and checks that all three fields are present.
// path is only used in error messages.
func Unmarshal(data []byte, format Format, path string) (File, error) {
	var f File
	var err error
	if format == FormatYAML {
		err = yaml.Unmarshal(data, &f)
	} else {
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return File{}, fmt.Errorf("%w: %s: %v", ErrCorruptModel, path, err)
	}

	switch {
	case f.Vocab == nil:
		return File{}, &FieldError{Path: path, Field: "vocab"}
	case f.InverseVocab == nil:
		return File{}, &FieldError{Path: path, Field: "inverse_vocab"}
	case f.BPERanks == nil:
		return File{}, &FieldError{Path: path, Field: "bpe_ranks"}
	}
	return f, nil
}

// Save writes the tokenizer tables to path, replacing any existing file only
// once the new content is fully written.
func Save(path string, tok *tokenizer.Tokenizer) error {
	if path == "" {
		return errors.New("model path is required")
	}

	data, err := Marshal(FromState(tok.State()), FormatForPath(path))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp model file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("move model file into place: %w", err)
	}
	return nil
}

// Read loads and field-checks the model file at path.
func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return File{}, fmt.Errorf("read model file: %w", err)
	}
	return Unmarshal(data, FormatForPath(path), path)
}

// Load reads the model at path and rebuilds a tokenizer from it. The grapheme
// cache starts empty. Tables that disagree with each other are reported as
// ErrCorruptModel. A model larger than opts.MaxVocabSize is a configuration
// mismatch and wraps tokenizer.ErrExceedsMaxVocab instead.
func Load(path string, opts tokenizer.Options) (*tokenizer.Tokenizer, error) {
	f, err := Read(path)
	if err != nil {
		return nil, err
	}

	tok, err := tokenizer.FromState(f.State(), opts)
	if err != nil {
		switch {
		case errors.Is(err, tokenizer.ErrInvalidVocabSize):
			return nil, err
		case errors.Is(err, tokenizer.ErrExceedsMaxVocab):
			return nil, fmt.Errorf("load %s: %w; raise tokenizer.max_vocab_size (--max-vocab-size) to match the model", path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptModel, path, err)
	}
	return tok, nil
}
