package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fraktag/internal/adapter/chunker"
	"fraktag/internal/domain"
	"fraktag/internal/tracing"
)

// Environment variables that override file values.
const (
	EnvLLMEndpoint = "FRAKTAG_LLM_ENDPOINT"
	EnvLLMModel    = "FRAKTAG_LLM_MODEL"
	EnvLogLevel    = "FRAKTAG_LOG_LEVEL"
)

const (
	dirName  = ".fraktag"
	fileName = "fraktag.yaml"
)

// Config holds all configuration for fraktag.
type Config struct {
	Chunking ChunkingConfig `yaml:"chunking"`
	LLM      LLMConfig      `yaml:"llm"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  tracing.Config `yaml:"tracing"`
}

// ChunkingConfig selects a strategy and its limits. Options are token based;
// the *_chars keys override them when present. Zero token values fall back to
// the strategy's own defaults, so fixed-1024 keeps its 1024 token window.
type ChunkingConfig struct {
	Strategy   string                   `yaml:"strategy"`
	Options    domain.ChunkingOptions   `yaml:",inline"`
	Structural chunker.StructuralConfig `yaml:"structural"`
}

type LLMConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	Model            string        `yaml:"model"`
	Temperature      float64       `yaml:"temperature"`
	ContextSize      int           `yaml:"num_ctx"`
	DefaultMaxTokens int           `yaml:"default_max_tokens"`
	Timeout          time.Duration `yaml:"timeout"`
	Concurrency      int           `yaml:"concurrency"` // parallel nugget runs
}

type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
	Workers  int      `yaml:"workers"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Strategy:   string(domain.StrategyRecursive),
			Structural: chunker.DefaultStructuralConfig(),
		},
		LLM: LLMConfig{
			Endpoint:         "http://localhost:11434",
			Model:            "llama3",
			Temperature:      0.1,
			ContextSize:      32768,
			DefaultMaxTokens: 4096,
			Timeout:          5 * time.Minute,
			Concurrency:      2,
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.md", "**/*.txt", "**/*.markdown", "**/*.rst"},
			Excludes: []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/.fraktag/**", "**/dist/**", "**/build/**"},
			Workers:  4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads fraktag.yaml or .fraktag/config.yaml from dir, falling
// back to defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, fileName)
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, dirName, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnv reads .env files into the process environment. Missing files are
// ignored; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides file values with FRAKTAG_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLLMEndpoint); v != "" {
		c.LLM.Endpoint = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the values the rest of the program assumes.
func (c *Config) Validate() error {
	if _, err := chunker.New(domain.StrategyID(c.Chunking.Strategy)); err != nil {
		return fmt.Errorf("chunking.strategy: %w", err)
	}
	if c.LLM.Endpoint == "" {
		return &domain.ValidationError{Field: "llm.endpoint", Reason: "must not be empty"}
	}
	if c.LLM.Concurrency < 1 {
		return &domain.ValidationError{Field: "llm.concurrency", Reason: "must be at least 1, got " + strconv.Itoa(c.LLM.Concurrency)}
	}
	if c.Ingest.Workers < 1 {
		return &domain.ValidationError{Field: "ingest.workers", Reason: "must be at least 1, got " + strconv.Itoa(c.Ingest.Workers)}
	}
	return nil
}

// DataDir returns the directory holding fraktag state for root.
func DataDir(root string) string {
	return filepath.Join(root, dirName)
}

// StoreDBPath returns the path to the chunk store database.
func StoreDBPath(root string) string {
	return filepath.Join(DataDir(root), "store.db")
}

// EnsureDataDir ensures the .fraktag directory exists.
func EnsureDataDir(root string) error {
	return os.MkdirAll(DataDir(root), 0755)
}
