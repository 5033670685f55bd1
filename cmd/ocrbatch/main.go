package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tsukumogami/ocrbatch/internal/buildinfo"
	"github.com/tsukumogami/ocrbatch/internal/errmsg"
	"github.com/tsukumogami/ocrbatch/internal/log"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "ocrbatch",
	Short: "Extract text from a directory of images with a vision model",
	Long: `ocrbatch sends every image in a directory to a vision-capable language
model, one at a time, and writes the extracted text together with response
time, token usage and cost to a timestamped report.

Failed images are logged and skipped; the run always finishes with a report
covering the images that succeeded.`,
	Version:       buildinfo.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := determineLogLevel()
		log.SetDefault(log.New(log.NewCLIHandler(os.Stderr, level)))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log each processed image")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log request details")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// determineLogLevel resolves verbosity from flags, falling back to the
// OCRBATCH_QUIET, OCRBATCH_VERBOSE and OCRBATCH_DEBUG environment variables.
// Any flag takes precedence over every environment variable.
func determineLogLevel() slog.Level {
	if quietFlag || verboseFlag || debugFlag {
		return log.LevelFromFlags(quietFlag, verboseFlag, debugFlag)
	}
	return log.LevelFromFlags(
		isTruthy(os.Getenv("OCRBATCH_QUIET")),
		isTruthy(os.Getenv("OCRBATCH_VERBOSE")),
		isTruthy(os.Getenv("OCRBATCH_DEBUG")),
	)
}

func isTruthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// usageArgs wraps a cobra argument validator so its failures exit with
// ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

func main() {
	cmd, err := rootCmd.ExecuteC()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errmsg.Format(err))
		if exitCodeFor(err) == ExitUsage {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", cmd.CommandPath())
		}
		exitWithCode(exitCodeFor(err))
	}
}
