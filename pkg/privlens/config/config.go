package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/privlens/pkg/privlens/internalerr"
)

// Config is the privlens configuration file.
type Config struct {
	Scan       ScanConfig       `yaml:"scan"`
	Highlight  HighlightConfig  `yaml:"highlight"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Store      StoreConfig      `yaml:"store"`
	Log        LogConfig        `yaml:"log"`
}

// ScanConfig controls text scanning.
type ScanConfig struct {
	MaxTextLength int `yaml:"max_text_length"`
	SnippetRadius int `yaml:"snippet_radius"`
}

// HighlightConfig controls highlighting and navigation emphasis.
type HighlightConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	EmphasisDelay time.Duration `yaml:"emphasis_delay"`
	EmphasisColor string        `yaml:"emphasis_color"`
}

// VocabularyConfig selects the built-in table and adds user terms.
type VocabularyConfig struct {
	Builtin bool      `yaml:"builtin"`
	File    string    `yaml:"file,omitempty"`
	Terms   TermTable `yaml:"terms,omitempty"`
}

// StoreConfig locates the report database. An empty path keeps everything
// in memory.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Scan: ScanConfig{
			MaxTextLength: 500_000,
			SnippetRadius: 40,
		},
		Highlight: HighlightConfig{
			Debounce:      600 * time.Millisecond,
			EmphasisDelay: 800 * time.Millisecond,
			EmphasisColor: "#ffd966",
		},
		Vocabulary: VocabularyConfig{Builtin: true},
		Store:      StoreConfig{},
		Log:        LogConfig{Level: "info"},
	}
}

// Load reads a configuration file over the defaults and applies environment
// overrides. An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config %s: %w", path, internalerr.ErrNotFound)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w: %v", path, internalerr.ErrInvalidConfig, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Environment variables that override file values.
const (
	EnvMaxTextLength = "PRIVLENS_MAX_TEXT_LENGTH"
	EnvDebounce      = "PRIVLENS_DEBOUNCE"
	EnvStorePath     = "PRIVLENS_STORE_PATH"
	EnvLogLevel      = "PRIVLENS_LOG_LEVEL"
)

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvMaxTextLength); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvMaxTextLength, v, internalerr.ErrInvalidConfig)
		}
		c.Scan.MaxTextLength = n
	}
	if v, ok := lookup(EnvDebounce); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvDebounce, v, internalerr.ErrInvalidConfig)
		}
		c.Highlight.Debounce = d
	}
	if v, ok := lookup(EnvStorePath); ok {
		c.Store.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string

	if c.Scan.MaxTextLength <= 0 {
		problems = append(problems, "scan.max_text_length must be positive")
	}
	if c.Scan.SnippetRadius <= 0 {
		problems = append(problems, "scan.snippet_radius must be positive")
	}
	if c.Highlight.Debounce <= 0 {
		problems = append(problems, "highlight.debounce must be positive")
	}
	if c.Highlight.EmphasisDelay <= 0 {
		problems = append(problems, "highlight.emphasis_delay must be positive")
	}
	if strings.TrimSpace(c.Highlight.EmphasisColor) == "" {
		problems = append(problems, "highlight.emphasis_color is required")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", s)
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
