package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// EnvHome overrides the default ocrbatch home directory.
	EnvHome = "OCRBATCH_HOME"

	// EnvAPITimeout configures the per-request timeout for the recognition API.
	EnvAPITimeout = "OCRBATCH_API_TIMEOUT"

	// EnvDelayMS configures the pause between images in milliseconds.
	EnvDelayMS = "OCRBATCH_DELAY_MS"

	// EnvExchangeRate configures the primary-to-secondary currency rate.
	EnvExchangeRate = "OCRBATCH_EXCHANGE_RATE"

	// EnvProvider selects the recognition provider ("claude" or "gemini").
	EnvProvider = "OCRBATCH_PROVIDER"

	// EnvModel overrides the provider's default model.
	EnvModel = "OCRBATCH_MODEL"

	// EnvInputDir overrides the input directory.
	EnvInputDir = "OCRBATCH_INPUT_DIR"

	// EnvOutputDir overrides the report directory.
	EnvOutputDir = "OCRBATCH_OUTPUT_DIR"

	// EnvAPIBaseURL points the provider client at another endpoint.
	// Used by the functional tests to target a local fake.
	EnvAPIBaseURL = "OCRBATCH_API_BASE_URL"

	// DefaultAPITimeout is the default per-request timeout (60 seconds)
	DefaultAPITimeout = 60 * time.Second

	// DefaultDelay is the default pause between images (1 second)
	DefaultDelay = 1000 * time.Millisecond

	// DefaultExchangeRate is the default USD to JPY rate
	DefaultExchangeRate = 150.0

	// MaxDelay caps the inter-image pause (10 minutes)
	MaxDelay = 10 * time.Minute

	// MaxOutputTokens caps the per-image response budget. Both providers
	// reject larger values and the Gemini client takes an int32.
	MaxOutputTokens = 8192
)

// Error reports a fatal configuration problem detected before any image is
// processed, such as a missing credential or an invalid setting.
type Error struct {
	Setting string
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// GetAPITimeout returns the configured API timeout from OCRBATCH_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout.
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	// Validate reasonable range (5 seconds to 10 minutes)
	if duration < 5*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 5s\n",
			EnvAPITimeout, duration)
		return 5 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvAPITimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// GetDelay returns the inter-image pause from OCRBATCH_DELAY_MS, or fallback
// when the variable is unset or invalid. Zero disables the pause.
func GetDelay(fallback time.Duration) time.Duration {
	envValue := os.Getenv(EnvDelayMS)
	if envValue == "" {
		return fallback
	}

	ms, err := strconv.ParseInt(envValue, 10, 64)
	if err != nil || ms < 0 {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using %v\n",
			EnvDelayMS, envValue, fallback)
		return fallback
	}

	return ClampDelay(time.Duration(ms) * time.Millisecond)
}

// ClampDelay limits a delay to [0, MaxDelay].
func ClampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxDelay {
		fmt.Fprintf(os.Stderr, "Warning: delay too high (%v), using maximum %v\n", d, MaxDelay)
		return MaxDelay
	}
	return d
}

// GetExchangeRate returns the exchange rate from OCRBATCH_EXCHANGE_RATE, or
// fallback when the variable is unset or not a positive number.
func GetExchangeRate(fallback float64) float64 {
	envValue := os.Getenv(EnvExchangeRate)
	if envValue == "" {
		return fallback
	}

	rate, err := strconv.ParseFloat(envValue, 64)
	if err != nil || rate <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using %v\n",
			EnvExchangeRate, envValue, fallback)
		return fallback
	}

	return rate
}

// GetString returns the value of an environment variable, or fallback when
// it is unset.
func GetString(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

// DefaultHomeOverride can be set by the binary's main package to change the
// default home directory. OCRBATCH_HOME still takes precedence.
var DefaultHomeOverride string

// Config holds the locations ocrbatch reads its own state from.
type Config struct {
	HomeDir    string // $OCRBATCH_HOME
	ConfigFile string // $OCRBATCH_HOME/config.toml
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		if DefaultHomeOverride != "" {
			home = DefaultHomeOverride
		} else {
			userHome, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			home = filepath.Join(userHome, ".ocrbatch")
		}
	}

	return &Config{
		HomeDir:    home,
		ConfigFile: filepath.Join(home, "config.toml"),
	}, nil
}
