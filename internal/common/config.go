package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Pipeline    PipelineConfig  `toml:"pipeline"`
	Search      SearchConfig    `toml:"search"`
	Producers   ProducersConfig `toml:"producers"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
}

// PipelineConfig controls phase execution of analysis runs
type PipelineConfig struct {
	ProducerTimeout string `toml:"producer_timeout"` // Per-invocation timeout for research and enrichment tasks (default: "3m")
	CoreTimeout     string `toml:"core_timeout"`     // Timeout for the core analysis delegate (default: "5m")
	MaxConcurrency  int    `toml:"max_concurrency"`  // Max concurrent tasks per fan-out phase, 0 = unlimited (default: 5)
	ResearchYear    int    `toml:"research_year"`    // Year used in trend queries, 0 = current year
}

// SearchConfig configures the web research backend
type SearchConfig struct {
	Mode       string `toml:"mode"`        // "gemini" (Google Search grounding) or "disabled"
	Model      string `toml:"model"`       // Gemini model used for grounded search
	RateLimit  string `toml:"rate_limit"`  // Minimum interval between search calls (default: "4s" for 15 RPM)
	MaxResults int    `toml:"max_results"` // Max sources kept per query (default: 10)
}

// ProducersConfig configures the LLM-backed analysis producers
type ProducersConfig struct {
	Model       string  `toml:"model"`       // Model for producers, may carry a provider prefix; empty = default provider's model
	Temperature float32 `toml:"temperature"` // Generation temperature (default: 0.4)
	MaxTokens   int     `toml:"max_tokens"`  // Max response tokens (default: 8192)
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text" (logfmt)
	Output     []string `toml:"output"`      // "stdout", "file"
	Directory  string   `toml:"directory"`   // Directory for file output (default: "./logs")
	FileName   string   `toml:"file_name"`   // Log file name (default: "marketlens.log")
	MaxSizeMB  int      `toml:"max_size_mb"` // Rotate after this size (default: 100)
	MaxBackups int      `toml:"max_backups"` // Rotated files kept (default: 3)
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Default Gemini model (default: "gemini-2.5-flash")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Default Claude model
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderClaude LLMProvider = "claude"
)

type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Pipeline: PipelineConfig{
			ProducerTimeout: "3m",
			CoreTimeout:     "5m",
			MaxConcurrency:  5,
		},
		Search: SearchConfig{
			Mode:       "gemini",
			Model:      "gemini-2.5-flash",
			RateLimit:  "4s",
			MaxResults: 10,
		},
		Producers: ProducersConfig{
			Temperature: 0.4,
			MaxTokens:   8192,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/marketlens",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     []string{"stdout", "file"},
			Directory:  "./logs",
			FileName:   "marketlens.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> files (in order) -> env
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier files
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MARKETLENS_ENV"); env != "" {
		config.Environment = env
	}

	// Pipeline configuration
	if timeout := os.Getenv("MARKETLENS_PRODUCER_TIMEOUT"); timeout != "" {
		config.Pipeline.ProducerTimeout = timeout
	}
	if timeout := os.Getenv("MARKETLENS_CORE_TIMEOUT"); timeout != "" {
		config.Pipeline.CoreTimeout = timeout
	}
	if concurrency := os.Getenv("MARKETLENS_MAX_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil {
			config.Pipeline.MaxConcurrency = c
		}
	}
	if year := os.Getenv("MARKETLENS_RESEARCH_YEAR"); year != "" {
		if y, err := strconv.Atoi(year); err == nil {
			config.Pipeline.ResearchYear = y
		}
	}

	// Search configuration
	if mode := os.Getenv("MARKETLENS_SEARCH_MODE"); mode != "" {
		config.Search.Mode = mode
	}

	// Producers configuration
	if model := os.Getenv("MARKETLENS_PRODUCER_MODEL"); model != "" {
		config.Producers.Model = model
	}

	// Storage configuration
	if badgerPath := os.Getenv("MARKETLENS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("MARKETLENS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("MARKETLENS_LOG_DIR"); dir != "" {
		config.Logging.Directory = dir
	}
	if output := os.Getenv("MARKETLENS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LLM configuration
	if provider := os.Getenv("MARKETLENS_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if model := os.Getenv("MARKETLENS_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("MARKETLENS_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, logLevel string, searchMode string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if searchMode != "" {
		config.Search.Mode = searchMode
	}
}

// ResolveAPIKey resolves an API key with priority: environment -> config.
// name is "gemini_api_key" or "anthropic_api_key".
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"MARKETLENS_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"MARKETLENS_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	for _, envVarName := range keyToEnvMapping[name] {
		if envValue := os.Getenv(envVarName); envValue != "" {
			return envValue, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// ParseDuration parses a duration string, returning fallback when empty or invalid
func ParseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction reports whether the environment is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
