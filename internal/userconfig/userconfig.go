// Package userconfig provides user configuration management for ocrbatch.
// Configuration is stored in $OCRBATCH_HOME/config.toml and can be modified
// via the `ocrbatch config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tsukumogami/ocrbatch/internal/config"
)

// Config represents user-configurable settings.
type Config struct {
	// Provider selects the recognition backend: "claude" or "gemini".
	Provider string `toml:"provider"`

	// Model overrides the provider's default model. Empty means default.
	Model string `toml:"model,omitempty"`

	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`

	// Extension is the single accepted image extension, matched
	// case-insensitively.
	Extension string `toml:"extension"`

	// DelayMS is the pause between images in milliseconds.
	DelayMS int64 `toml:"delay_ms"`

	// Burst lets that many calls through back to back before pacing
	// starts. Zero pauses after every image.
	Burst int `toml:"burst,omitempty"`

	MaxTokens int `toml:"max_tokens"`

	// Pricing, in USD per 1000 tokens.
	InputPricePer1K  float64 `toml:"input_price_per_1k"`
	OutputPricePer1K float64 `toml:"output_price_per_1k"`

	ExchangeRate float64 `toml:"exchange_rate"`
	Currency     string  `toml:"currency"`

	// Compression is "", "zstd", "xz" or "lzip".
	Compression string `toml:"compression,omitempty"`

	// Secrets holds API keys. Environment variables take precedence.
	Secrets map[string]string `toml:"secrets,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Provider:         "claude",
		InputDir:         "images",
		OutputDir:        "results",
		Extension:        ".png",
		DelayMS:          config.DefaultDelay.Milliseconds(),
		MaxTokens:        300,
		InputPricePer1K:  0.003,
		OutputPricePer1K: 0.015,
		ExchangeRate:     config.DefaultExchangeRate,
		Currency:         "JPY",
	}
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return userCfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config to a specific file path (for testing).
// The file holds secrets, so it is created owner-only.
func (c *Config) saveToPath(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
func (c *Config) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "provider":
		return c.Provider, true
	case "model":
		return c.Model, true
	case "input_dir":
		return c.InputDir, true
	case "output_dir":
		return c.OutputDir, true
	case "extension":
		return c.Extension, true
	case "delay_ms":
		return strconv.FormatInt(c.DelayMS, 10), true
	case "burst":
		return strconv.Itoa(c.Burst), true
	case "max_tokens":
		return strconv.Itoa(c.MaxTokens), true
	case "input_price_per_1k":
		return strconv.FormatFloat(c.InputPricePer1K, 'f', -1, 64), true
	case "output_price_per_1k":
		return strconv.FormatFloat(c.OutputPricePer1K, 'f', -1, 64), true
	case "exchange_rate":
		return strconv.FormatFloat(c.ExchangeRate, 'f', -1, 64), true
	case "currency":
		return c.Currency, true
	case "compression":
		return c.Compression, true
	default:
		return "", false
	}
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
func (c *Config) Set(key, value string) error {
	switch strings.ToLower(key) {
	case "provider":
		v := strings.ToLower(strings.TrimSpace(value))
		if v != "claude" && v != "gemini" {
			return fmt.Errorf("invalid value for provider: must be claude or gemini")
		}
		c.Provider = v
	case "model":
		c.Model = strings.TrimSpace(value)
	case "input_dir":
		c.InputDir = value
	case "output_dir":
		c.OutputDir = value
	case "extension":
		ext := strings.TrimSpace(value)
		if ext == "" {
			return fmt.Errorf("invalid value for extension: must not be empty")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extension = ext
	case "delay_ms":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid value for delay_ms: must be a non-negative integer")
		}
		c.DelayMS = n
	case "burst":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid value for burst: must be a non-negative integer")
		}
		c.Burst = n
	case "max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 || n > config.MaxOutputTokens {
			return fmt.Errorf("invalid value for max_tokens: must be between 1 and %d", config.MaxOutputTokens)
		}
		c.MaxTokens = n
	case "input_price_per_1k":
		f, err := parseNonNegative(key, value)
		if err != nil {
			return err
		}
		c.InputPricePer1K = f
	case "output_price_per_1k":
		f, err := parseNonNegative(key, value)
		if err != nil {
			return err
		}
		c.OutputPricePer1K = f
	case "exchange_rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid value for exchange_rate: must be a positive number")
		}
		c.ExchangeRate = f
	case "currency":
		c.Currency = strings.ToUpper(strings.TrimSpace(value))
	case "compression":
		v := strings.ToLower(strings.TrimSpace(value))
		switch v {
		case "", "none", "zstd", "xz", "lzip":
		default:
			return fmt.Errorf("invalid value for compression: must be none, zstd, xz or lzip")
		}
		if v == "none" {
			v = ""
		}
		c.Compression = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func parseNonNegative(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid value for %s: must be a non-negative number", key)
	}
	return f, nil
}

// SetSecret stores an API key in the [secrets] table.
func (c *Config) SetSecret(name, value string) {
	if c.Secrets == nil {
		c.Secrets = make(map[string]string)
	}
	c.Secrets[name] = value
}

var availableKeys = map[string]string{
	"provider":            "Recognition provider (claude/gemini)",
	"model":               "Model name; empty uses the provider default",
	"input_dir":           "Directory scanned for images",
	"output_dir":          "Directory the report is written to",
	"extension":           "Accepted image extension, case-insensitive (e.g. .png)",
	"delay_ms":            "Pause between images in milliseconds",
	"burst":               "Back-to-back calls allowed before pacing (0 = pause after every image)",
	"max_tokens":          "Maximum output tokens per image",
	"input_price_per_1k":  "USD per 1000 input tokens",
	"output_price_per_1k": "USD per 1000 output tokens",
	"exchange_rate":       "Secondary currency units per USD",
	"currency":            "Secondary currency code (e.g. JPY)",
	"compression":         "Report compression (none/zstd/xz/lzip)",
}

// AvailableKeys returns a list of all configurable keys with descriptions.
func AvailableKeys() map[string]string {
	out := make(map[string]string, len(availableKeys))
	for k, v := range availableKeys {
		out[k] = v
	}
	return out
}

// SortedKeys returns the configurable key names in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(availableKeys))
	for k := range availableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
