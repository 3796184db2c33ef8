// Package config loads and validates Folio's configuration surface:
// chunking, indexing, and hybrid-search parameters, plus storage
// location. Precedence, low to high: hardcoded defaults, user config
// (~/.config/folio/config.yaml), project config (.folio.yaml),
// environment variables (FOLIO_*).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ChunkingConfig controls how ingested documents are split into chunks.
type ChunkingConfig struct {
	// MaxTokensPerChunk bounds chunk size; converted to characters at
	// ~3.6 chars/token by the default chunker.
	MaxTokensPerChunk int `yaml:"max_tokens_per_chunk"`
	// OverlapTokens is the token overlap between adjacent chunks.
	OverlapTokens int `yaml:"overlap_tokens"`
}

// IndexingConfig controls contextual-prefix augmentation at ingest time.
type IndexingConfig struct {
	// UseContextualPrefix enables prefix generation (heuristic, or via
	// a caller-supplied async PrefixFn).
	UseContextualPrefix bool `yaml:"use_contextual_prefix"`
}

// HybridConfig controls hybrid (BM25 + cosine) search.
type HybridConfig struct {
	// WBM25 weights the lexical component in rank fusion, in [0, 1].
	WBM25 float64 `yaml:"w_bm25"`
	// Limit is the default result count for search calls.
	Limit int `yaml:"limit"`
	// Expand is the default neighbor-window half-width.
	Expand int `yaml:"expand"`
	// MaxChars bounds fetchDocument output length, when set (> 0).
	MaxChars int `yaml:"max_chars"`
}

// StorageConfig controls where the engine's sqlite database lives.
type StorageConfig struct {
	// Path is the sqlite file path, ":memory:" for an in-memory
	// database, or empty to use DefaultDBPath().
	Path string `yaml:"path"`
}

// Config is Folio's complete configuration.
type Config struct {
	Chunking ChunkingConfig `yaml:"chunking"`
	Indexing IndexingConfig `yaml:"indexing"`
	Hybrid   HybridConfig   `yaml:"hybrid"`
	Storage  StorageConfig  `yaml:"storage"`
}

// New returns a Config populated with spec-mandated defaults.
func New() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxTokensPerChunk: 650,
			OverlapTokens:     80,
		},
		Indexing: IndexingConfig{
			UseContextualPrefix: true,
		},
		Hybrid: HybridConfig{
			WBM25:    0.5,
			Limit:    10,
			Expand:   2,
			MaxChars: 4000,
		},
	}
}

// Load builds a Config by merging defaults, user config, project
// config (".folio.yaml" under dir), and FOLIO_* environment overrides,
// then validates the result.
func Load(dir string) (*Config, error) {
	cfg := New()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".folio.yaml", ".folio.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Chunking.MaxTokensPerChunk != 0 {
		c.Chunking.MaxTokensPerChunk = other.Chunking.MaxTokensPerChunk
	}
	if other.Chunking.OverlapTokens != 0 {
		c.Chunking.OverlapTokens = other.Chunking.OverlapTokens
	}
	c.Indexing.UseContextualPrefix = other.Indexing.UseContextualPrefix || c.Indexing.UseContextualPrefix
	if other.Hybrid.WBM25 != 0 {
		c.Hybrid.WBM25 = other.Hybrid.WBM25
	}
	if other.Hybrid.Limit != 0 {
		c.Hybrid.Limit = other.Hybrid.Limit
	}
	if other.Hybrid.Expand != 0 {
		c.Hybrid.Expand = other.Hybrid.Expand
	}
	if other.Hybrid.MaxChars != 0 {
		c.Hybrid.MaxChars = other.Hybrid.MaxChars
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FOLIO_W_BM25"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Hybrid.WBM25 = f
		}
	}
	if v := os.Getenv("FOLIO_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Hybrid.Limit = n
		}
	}
	if v := os.Getenv("FOLIO_EXPAND"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Hybrid.Expand = n
		}
	}
	if v := os.Getenv("FOLIO_MAX_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Hybrid.MaxChars = n
		}
	}
	if v := os.Getenv("FOLIO_MAX_TOKENS_PER_CHUNK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chunking.MaxTokensPerChunk = n
		}
	}
	if v := os.Getenv("FOLIO_OVERLAP_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Chunking.OverlapTokens = n
		}
	}
	if v := os.Getenv("FOLIO_DB_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FOLIO_USE_CONTEXTUAL_PREFIX"); v != "" {
		c.Indexing.UseContextualPrefix = strings.EqualFold(v, "true") || v == "1"
	}
}

// Validate enforces the configuration surface's value constraints.
func (c *Config) Validate() error {
	if c.Hybrid.WBM25 < 0 || c.Hybrid.WBM25 > 1 {
		return fmt.Errorf("hybrid.w_bm25 must be in [0, 1], got %f", c.Hybrid.WBM25)
	}
	if c.Hybrid.Limit <= 0 {
		return fmt.Errorf("hybrid.limit must be positive, got %d", c.Hybrid.Limit)
	}
	if c.Hybrid.Expand < 0 {
		return fmt.Errorf("hybrid.expand must be non-negative, got %d", c.Hybrid.Expand)
	}
	if c.Hybrid.MaxChars < 0 {
		return fmt.Errorf("hybrid.max_chars must be non-negative, got %d", c.Hybrid.MaxChars)
	}
	if c.Chunking.MaxTokensPerChunk <= 0 {
		return fmt.Errorf("chunking.max_tokens_per_chunk must be positive, got %d", c.Chunking.MaxTokensPerChunk)
	}
	if c.Chunking.OverlapTokens < 0 {
		return fmt.Errorf("chunking.overlap_tokens must be non-negative, got %d", c.Chunking.OverlapTokens)
	}
	return nil
}

// WriteYAML marshals c and writes it to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func loadUserConfig() (*Config, error) {
	path := UserConfigPath()
	if !fileExists(path) {
		return nil, nil
	}
	cfg := New()
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UserConfigPath returns the path to the user-global config file.
func UserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "folio", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "folio", "config.yaml")
	}
	return filepath.Join(home, ".config", "folio", "config.yaml")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
