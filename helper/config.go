package helper

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Corpus sources understood by the loader.
const (
	CorpusSourceFiles    = "files"
	CorpusSourcePostgres = "postgres"
)

// Trace sinks a process can write to.
const (
	TraceSinkFile     = "file"
	TraceSinkPostgres = "postgres"
	TraceSinkNone     = "none"
)

// weightTolerance absorbs rounding of weights read from the environment
const weightTolerance = 1e-6

// Configuration holds all runtime settings of a threadrag process.
type Configuration struct {
	DataDir      string
	RunsDir      string
	CorpusSource string

	ModelName    string
	ModelDir     string
	EmbeddingDim int

	TopK           int
	LexicalWeight  float64
	SemanticWeight float64
	MinRelevance   float64

	HistorySize   int
	EncodeRetries int
	TraceBuffer   int
	TraceSink     string

	LogLevel slog.Level
}

// DefaultConfiguration returns the configuration used when no variable is set.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		DataDir:        "./data",
		RunsDir:        "./runs",
		CorpusSource:   CorpusSourceFiles,
		ModelName:      "sentence-transformers/all-MiniLM-L6-v2",
		ModelDir:       "./models",
		EmbeddingDim:   384,
		TopK:           8,
		LexicalWeight:  0.6,
		SemanticWeight: 0.4,
		MinRelevance:   0.2,
		HistorySize:    5,
		EncodeRetries:  2,
		TraceBuffer:    64,
		TraceSink:      TraceSinkFile,
		LogLevel:       slog.LevelInfo,
	}
}

// NewConfiguration loads a .env file if present and reads THREADRAG_* variables
// on top of DefaultConfiguration.
func NewConfiguration() (*Configuration, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, NewError("load .env", err)
	}

	config := DefaultConfiguration()

	config.DataDir = envString("THREADRAG_DATA_DIR", config.DataDir)
	config.RunsDir = envString("THREADRAG_RUNS_DIR", config.RunsDir)
	config.CorpusSource = envString("THREADRAG_CORPUS_SOURCE", config.CorpusSource)
	config.ModelName = envString("THREADRAG_MODEL", config.ModelName)
	config.ModelDir = envString("THREADRAG_MODEL_DIR", config.ModelDir)
	config.TraceSink = envString("THREADRAG_TRACE_SINK", config.TraceSink)

	var err error
	if config.TopK, err = envInt("THREADRAG_TOP_K", config.TopK); err != nil {
		return nil, err
	}
	if config.LexicalWeight, err = envFloat("THREADRAG_LEXICAL_WEIGHT", config.LexicalWeight); err != nil {
		return nil, err
	}
	if config.SemanticWeight, err = envFloat("THREADRAG_SEMANTIC_WEIGHT", config.SemanticWeight); err != nil {
		return nil, err
	}
	if config.MinRelevance, err = envFloat("THREADRAG_MIN_RELEVANCE", config.MinRelevance); err != nil {
		return nil, err
	}
	if config.HistorySize, err = envInt("THREADRAG_HISTORY_SIZE", config.HistorySize); err != nil {
		return nil, err
	}
	if config.EncodeRetries, err = envInt("THREADRAG_ENCODE_RETRIES", config.EncodeRetries); err != nil {
		return nil, err
	}
	if config.TraceBuffer, err = envInt("THREADRAG_TRACE_BUFFER", config.TraceBuffer); err != nil {
		return nil, err
	}
	if config.EmbeddingDim, err = envInt("THREADRAG_EMBEDDING_DIM", config.EmbeddingDim); err != nil {
		return nil, err
	}

	if level, ok := os.LookupEnv("THREADRAG_LOG_LEVEL"); ok {
		if err := config.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, NewError("parse THREADRAG_LOG_LEVEL", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that the configuration is usable.
func (c *Configuration) Validate() error {
	switch c.CorpusSource {
	case CorpusSourceFiles, CorpusSourcePostgres:
	default:
		return NewError("validate configuration", fmt.Errorf("unknown corpus source %q", c.CorpusSource))
	}
	switch c.TraceSink {
	case TraceSinkFile, TraceSinkPostgres, TraceSinkNone:
	default:
		return NewError("validate configuration", fmt.Errorf("unknown trace sink %q", c.TraceSink))
	}
	if c.TopK <= 0 {
		return NewError("validate configuration", fmt.Errorf("top k must be positive, got %d", c.TopK))
	}
	if c.LexicalWeight < 0 || c.SemanticWeight < 0 || math.Abs(c.LexicalWeight+c.SemanticWeight-1) > weightTolerance {
		return NewError("validate configuration", fmt.Errorf("weights must be non-negative and sum to 1, got %g/%g", c.LexicalWeight, c.SemanticWeight))
	}
	if c.MinRelevance < 0 || c.MinRelevance > 1 {
		return NewError("validate configuration", fmt.Errorf("min relevance must be in [0, 1], got %g", c.MinRelevance))
	}
	if c.HistorySize <= 0 {
		return NewError("validate configuration", fmt.Errorf("history size must be positive, got %d", c.HistorySize))
	}
	if c.EmbeddingDim <= 0 {
		return NewError("validate configuration", fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDim))
	}
	if c.EncodeRetries < 0 {
		return NewError("validate configuration", fmt.Errorf("encode retries must not be negative, got %d", c.EncodeRetries))
	}
	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, NewError("parse "+key, err)
	}
	return i, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, NewError("parse "+key, err)
	}
	return f, nil
}
