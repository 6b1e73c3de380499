// Package config loads text2api.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veridock/text2api/internal/spec"
)

// FileNames are searched in order in every directory
var FileNames = []string{"text2api.yaml", "text2api.yml", "text2api.json"}

// Config represents the text2api configuration file
type Config struct {
	OutputDir  string           `yaml:"output_dir"`
	Language   LanguageConfig   `yaml:"language"`
	LLM        LLMConfig        `yaml:"llm"`
	Generation GenerationConfig `yaml:"generation"`
	Dev        DevConfig        `yaml:"dev"`
	Log        LogConfig        `yaml:"log"`
}

// LanguageConfig controls language detection
type LanguageConfig struct {
	Default   string  `yaml:"default"`
	Threshold float64 `yaml:"threshold"`
}

// LLMConfig selects and tunes the model provider
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url,omitempty"`
	APIKey      string        `yaml:"api_key,omitempty"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"backoff"`
}

// GenerationConfig holds the default protocol and framework. Empty values
// leave the choice to the analysis and the protocol default.
type GenerationConfig struct {
	Protocol  string `yaml:"protocol,omitempty"`
	Framework string `yaml:"framework,omitempty"`
}

// DevConfig configures watch mode
type DevConfig struct {
	Watch    []string      `yaml:"watch"`
	Exclude  []string      `yaml:"exclude"`
	Debounce time.Duration `yaml:"debounce"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{
		OutputDir: "./generated",
		Language:  LanguageConfig{Default: "en", Threshold: 0.1},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama3.1:8b",
			BaseURL:     "http://localhost:11434",
			Temperature: 0.1,
			MaxTokens:   2048,
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
			Backoff:     500 * time.Millisecond,
		},
		Dev: DevConfig{
			Watch:    []string{"*.md", "*.txt", "**/*.md", "**/*.txt"},
			Exclude:  []string{".git/**", "generated/**", "README.md"},
			Debounce: 300 * time.Millisecond,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load finds the configuration file in the current directory or a parent
// directory, then applies the process environment. The returned string is
// the directory holding the file. ErrNoConfig is returned, together with the
// defaults and the environment applied, when there is no file.
func Load() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return LoadFromDir(dir, os.LookupEnv)
}

// LoadFromDir searches startDir and its parents for a configuration file
func LoadFromDir(startDir string, lookup func(string) (string, bool)) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFromPath(path, lookup)
				if err != nil {
					return nil, "", err
				}
				return cfg, dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, "", err
	}
	return cfg, "", fmt.Errorf("%w in %s or any parent directory", ErrNoConfig, startDir)
}

// LoadFromPath reads one configuration file. JSON files are read with the
// YAML decoder. Keys missing from the file keep their defaults.
func LoadFromPath(path string, lookup func(string) (string, bool)) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides values from the environment. lookup is usually
// os.LookupEnv; a nil lookup leaves the configuration unchanged.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("TEXT2API_OUTPUT_DIR", &c.OutputDir)
	str("TEXT2API_LANGUAGE", &c.Language.Default)
	str("TEXT2API_LLM_PROVIDER", &c.LLM.Provider)
	str("TEXT2API_LLM_MODEL", &c.LLM.Model)
	str("OLLAMA_URL", &c.LLM.BaseURL)
	str("TEXT2API_LLM_BASE_URL", &c.LLM.BaseURL)
	str("GEMINI_API_KEY", &c.LLM.APIKey)
	str("TEXT2API_LLM_API_KEY", &c.LLM.APIKey)
	str("TEXT2API_PROTOCOL", &c.Generation.Protocol)
	str("TEXT2API_FRAMEWORK", &c.Generation.Framework)
	str("TEXT2API_LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("TEXT2API_LLM_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TEXT2API_LLM_TIMEOUT: %w", err)
		}
		c.LLM.Timeout = d
	}
	if v, ok := lookup("TEXT2API_LLM_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TEXT2API_LLM_MAX_ATTEMPTS: %w", err)
		}
		c.LLM.MaxAttempts = n
	}
	return nil
}

// Validate checks value ranges and enum values
func (c *Config) Validate() error {
	var errs []error
	if c.Language.Threshold < 0 || c.Language.Threshold > 1 {
		errs = append(errs, fmt.Errorf("language.threshold must be between 0 and 1, got %v", c.Language.Threshold))
	}
	if c.LLM.Temperature < 0 {
		errs = append(errs, fmt.Errorf("llm.temperature must not be negative"))
	}
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("llm.max_attempts must be at least 1"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive"))
	}
	if p := c.Protocol(); p != "" && !p.Valid() {
		errs = append(errs, fmt.Errorf("generation.protocol %q is not one of %v", c.Generation.Protocol, spec.Protocols))
	}
	return errors.Join(errs...)
}

// Protocol returns the configured protocol in canonical form, or "" when
// unset
func (c *Config) Protocol() spec.Protocol {
	return spec.ParseProtocol(c.Generation.Protocol)
}

// Marshal encodes the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Write saves the configuration as YAML
func (c *Config) Write(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
