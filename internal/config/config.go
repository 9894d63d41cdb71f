package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultCorpusURL = "https://objectstore.e2enetworks.net/ai4b-public-nlu-nlg/v1-indiccorp/hi.txt"

type Config struct {
	Paths     PathsConfig     `mapstructure:"paths"`
	Tokenizer TokenizerConfig `mapstructure:"tokenizer"`
	Train     TrainConfig     `mapstructure:"train"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Server    ServerConfig    `mapstructure:"server"`
	LogLevel  string          `mapstructure:"log_level"`
}

type PathsConfig struct {
	ModelPath     string `mapstructure:"model_path"`
	CorpusPath    string `mapstructure:"corpus_path"`
	RawCorpusPath string `mapstructure:"raw_corpus_path"`
}

type TokenizerConfig struct {
	MaxVocabSize      int     `mapstructure:"max_vocab_size"`
	TargetCompression float64 `mapstructure:"target_compression"`
	PairWeighting     string  `mapstructure:"pair_weighting"`
	CacheSize         int     `mapstructure:"cache_size"`
}

type TrainConfig struct {
	ChunkLines   int  `mapstructure:"chunk_lines"`
	MaxSentences int  `mapstructure:"max_sentences"`
	SampleRunes  int  `mapstructure:"sample_runes"`
	StopOnTarget bool `mapstructure:"stop_on_target"`
}

type CorpusConfig struct {
	URL    string `mapstructure:"url"`
	SHA256 string `mapstructure:"sha256"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ModelPath:     "models/hindi_bpe.json",
			CorpusPath:    "data/hi_processed.txt",
			RawCorpusPath: "data/hi_raw.txt",
		},
		Tokenizer: TokenizerConfig{
			MaxVocabSize:      5000,
			TargetCompression: 3.2,
			PairWeighting:     PairWeightingSequence,
			CacheSize:         8192,
		},
		Train: TrainConfig{
			ChunkLines:   10000,
			MaxSentences: 1_000_000,
			SampleRunes:  10000,
			StopOnTarget: true,
		},
		Corpus: CorpusConfig{
			URL: DefaultCorpusURL,
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: 30,
			MaxTextBytes:    16384,
			RequestTimeout:  30,
		},
		LogLevel: "info",
	}
}

// flagKeys maps each registered flag to the config key it sets.
var flagKeys = map[string]string{
	"paths-model-path":      "paths.model_path",
	"paths-corpus-path":     "paths.corpus_path",
	"paths-raw-corpus-path": "paths.raw_corpus_path",
	"max-vocab-size":        "tokenizer.max_vocab_size",
	"target-compression":    "tokenizer.target_compression",
	"pair-weighting":        "tokenizer.pair_weighting",
	"cache-size":            "tokenizer.cache_size",
	"chunk-lines":           "train.chunk_lines",
	"max-sentences":         "train.max_sentences",
	"sample-runes":          "train.sample_runes",
	"stop-on-target":        "train.stop_on_target",
	"corpus-url":            "corpus.url",
	"corpus-sha256":         "corpus.sha256",
	"server-listen-addr":    "server.listen_addr",
	"shutdown-timeout":      "server.shutdown_timeout",
	"max-text-bytes":        "server.max_text_bytes",
	"request-timeout":       "server.request_timeout",
	"log-level":             "log_level",
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-model-path", defaults.Paths.ModelPath, "Path to the tokenizer model (.json, .yaml or .yml)")
	fs.String("paths-corpus-path", defaults.Paths.CorpusPath, "Path to the prepared corpus, one sentence per line")
	fs.String("paths-raw-corpus-path", defaults.Paths.RawCorpusPath, "Path to the downloaded raw corpus")
	fs.Int("max-vocab-size", defaults.Tokenizer.MaxVocabSize, "Vocabulary size cap, reserved tokens included")
	fs.Float64("target-compression", defaults.Tokenizer.TargetCompression, "Compression ratio (bytes per token) training aims for")
	fs.String("pair-weighting", defaults.Tokenizer.PairWeighting, "Pair weighting policy: sequence|surface")
	fs.Int("cache-size", defaults.Tokenizer.CacheSize, "Grapheme segmentation cache entries")
	fs.Int("chunk-lines", defaults.Train.ChunkLines, "Corpus lines per training chunk")
	fs.Int("max-sentences", defaults.Train.MaxSentences, "Maximum corpus lines read for training or kept by preparation")
	fs.Int("sample-runes", defaults.Train.SampleRunes, "Leading runes of each chunk scored after training on it")
	fs.Bool("stop-on-target", defaults.Train.StopOnTarget, "Stop training once the target ratio is met below the cap")
	fs.String("corpus-url", defaults.Corpus.URL, "Raw corpus download URL")
	fs.String("corpus-sha256", defaults.Corpus.SHA256, "Expected SHA-256 of the raw corpus (optional)")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level: debug|info|warn|error")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("HINDIBPE")
	replacer := strings.NewReplacer("-", "_", ".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("hindibpe")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	weighting, err := NormalizePairWeighting(cfg.Tokenizer.PairWeighting)
	if err != nil {
		return Config{}, err
	}
	cfg.Tokenizer.PairWeighting = weighting

	return cfg, nil
}

// bindFlags binds every registered config flag to its dotted key, so a flag
// set on the command line wins over env and config file values.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("paths.corpus_path", c.Paths.CorpusPath)
	v.SetDefault("paths.raw_corpus_path", c.Paths.RawCorpusPath)
	v.SetDefault("tokenizer.max_vocab_size", c.Tokenizer.MaxVocabSize)
	v.SetDefault("tokenizer.target_compression", c.Tokenizer.TargetCompression)
	v.SetDefault("tokenizer.pair_weighting", c.Tokenizer.PairWeighting)
	v.SetDefault("tokenizer.cache_size", c.Tokenizer.CacheSize)
	v.SetDefault("train.chunk_lines", c.Train.ChunkLines)
	v.SetDefault("train.max_sentences", c.Train.MaxSentences)
	v.SetDefault("train.sample_runes", c.Train.SampleRunes)
	v.SetDefault("train.stop_on_target", c.Train.StopOnTarget)
	v.SetDefault("corpus.url", c.Corpus.URL)
	v.SetDefault("corpus.sha256", c.Corpus.SHA256)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("log_level", c.LogLevel)
}
