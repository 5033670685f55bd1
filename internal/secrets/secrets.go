// Package secrets resolves the API credential used by the recognition
// provider.
//
// Secrets are resolved by checking environment variables first, then the
// [secrets] section in $OCRBATCH_HOME/config.toml. A missing credential is a
// configuration error and is reported as *config.Error so the command line
// can exit before any image is processed.
package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tsukumogami/ocrbatch/internal/config"
	"github.com/tsukumogami/ocrbatch/internal/userconfig"
)

// KeyInfo describes a registered secret for external consumers.
type KeyInfo struct {
	// Name is the canonical key name (e.g., "anthropic_api_key").
	Name string

	// EnvVars lists environment variables checked, in priority order.
	EnvVars []string

	// Desc is a human-readable description.
	Desc string
}

var (
	configOnce  sync.Once
	cachedCfg   *userconfig.Config
	configError error
)

func getConfig() (*userconfig.Config, error) {
	configOnce.Do(func() {
		cachedCfg, configError = userconfig.Load()
	})
	return cachedCfg, configError
}

// ResetConfig resets the cached config so the next call to Get()/IsSet()
// reloads from disk. This is intended for testing only.
func ResetConfig() {
	configOnce = sync.Once{}
	cachedCfg = nil
	configError = nil
}

// Get resolves a secret by name, checking environment variables first,
// then the [secrets] section in config.toml.
func Get(name string) (string, error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown secret key: %q", name)
	}

	if val, ok := lookup(name, spec); ok {
		return val, nil
	}

	envList := strings.Join(spec.EnvVars, " or ")
	return "", &config.Error{
		Setting: name,
		Reason: fmt.Sprintf("not configured. Set the %s environment variable, or add %s to [secrets] in $OCRBATCH_HOME/config.toml",
			envList, name),
	}
}

// ForProvider resolves the credential for a recognition provider.
func ForProvider(provider string) (string, error) {
	name, ok := providerKeys[strings.ToLower(provider)]
	if !ok {
		return "", &config.Error{Setting: "provider", Reason: fmt.Sprintf("unknown provider %q", provider)}
	}
	return Get(name)
}

// IsSet checks whether a secret is available without returning its value.
// Returns false for unknown keys.
func IsSet(name string) bool {
	spec, ok := knownKeys[name]
	if !ok {
		return false
	}
	_, found := lookup(name, spec)
	return found
}

func lookup(name string, spec KeySpec) (string, bool) {
	for _, env := range spec.EnvVars {
		if val := strings.TrimSpace(os.Getenv(env)); val != "" {
			return val, true
		}
	}

	cfg, err := getConfig()
	if err == nil && cfg != nil && cfg.Secrets != nil {
		if val := strings.TrimSpace(cfg.Secrets[name]); val != "" {
			return val, true
		}
	}
	return "", false
}

// KnownKeys returns metadata for all registered secrets, sorted by name.
func KnownKeys() []KeyInfo {
	keys := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		keys = append(keys, KeyInfo{
			Name:    name,
			EnvVars: spec.EnvVars,
			Desc:    spec.Desc,
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Name < keys[j].Name
	})
	return keys
}
