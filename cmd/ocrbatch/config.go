package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/ocrbatch/internal/config"
	"github.com/tsukumogami/ocrbatch/internal/secrets"
	"github.com/tsukumogami/ocrbatch/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ocrbatch configuration",
	Long: `Manage ocrbatch configuration settings.

Configuration is stored in ~/.ocrbatch/config.toml ($OCRBATCH_HOME/config.toml).
API keys can be stored there too; environment variables take precedence.

Examples:
  ocrbatch config list
  ocrbatch config get provider
  ocrbatch config set delay_ms 2000
  ocrbatch config set anthropic_api_key sk-ant-...`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])

		if isSecretKey(key) {
			fmt.Fprintln(cmd.OutOrStdout(), secretStatus(key))
			return nil
		}

		cfg, err := loadUserConfig()
		if err != nil {
			return err
		}

		value, ok := cfg.Get(key)
		if !ok {
			printAvailableKeys(cmd.ErrOrStderr())
			return &usageError{err: fmt.Errorf("unknown config key: %s", key)}
		}

		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  usageArgs(cobra.ExactArgs(2)),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := strings.ToLower(args[0]), args[1]

		cfg, err := loadUserConfig()
		if err != nil {
			return err
		}

		if isSecretKey(key) {
			cfg.SetSecret(key, value)
		} else if err := cfg.Set(key, value); err != nil {
			printAvailableKeys(cmd.ErrOrStderr())
			return &usageError{err: err}
		}

		if err := cfg.Save(); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		secrets.ResetConfig()

		if isSecretKey(key) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s saved\n", key)
			return nil
		}
		shown, _ := cfg.Get(key)
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, shown)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadUserConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, key := range userconfig.SortedKeys() {
			value, _ := cfg.Get(key)
			fmt.Fprintf(out, "%-20s = %s\n", key, value)
		}
		for _, k := range secrets.KnownKeys() {
			fmt.Fprintf(out, "%-20s = %s\n", k.Name, secretStatus(k.Name))
		}
		return nil
	},
}

func loadUserConfig() (*userconfig.Config, error) {
	cfg, err := userconfig.Load()
	if err != nil {
		return nil, &config.Error{Setting: "config.toml", Reason: err.Error()}
	}
	return cfg, nil
}

func isSecretKey(key string) bool {
	for _, k := range secrets.KnownKeys() {
		if k.Name == key {
			return true
		}
	}
	return false
}

// secretStatus never prints the secret itself.
func secretStatus(key string) string {
	if secrets.IsSet(key) {
		return "(set)"
	}
	return "(not set)"
}

func printAvailableKeys(w io.Writer) {
	keys := userconfig.AvailableKeys()
	fmt.Fprintf(w, "Available keys:\n")
	for _, k := range userconfig.SortedKeys() {
		fmt.Fprintf(w, "  %s - %s\n", k, keys[k])
	}
	for _, k := range secrets.KnownKeys() {
		fmt.Fprintf(w, "  %s - %s\n", k.Name, k.Desc)
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
