package main

import (
	"errors"
	"os"

	"github.com/tsukumogami/ocrbatch/internal/batch"
	"github.com/tsukumogami/ocrbatch/internal/config"
	"github.com/tsukumogami/ocrbatch/internal/report"
)

// Exit codes for different error types.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates the run completed. Individual images may
	// still have failed; they are logged and left out of the report.
	ExitSuccess = 0

	// ExitGeneral indicates an unexpected error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or flags
	ExitUsage = 2

	// ExitConfig indicates a missing credential, invalid setting or
	// unreadable input directory
	ExitConfig = 3

	// ExitNoInput indicates the input directory had no eligible images
	ExitNoInput = 4

	// ExitWriteFailed indicates the report could not be written
	ExitWriteFailed = 5

	// ExitInterrupted indicates the run was cancelled by a signal; a
	// partial report was written
	ExitInterrupted = 130
)

// errInterrupted is returned by the run command after writing a partial
// report.
var errInterrupted = errors.New("interrupted")

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// exitCodeFor maps an error returned by a command to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *usageError
	var cfgErr *config.Error
	var dirErr *batch.InputDirError
	var writeErr *report.WriteError

	switch {
	case errors.As(err, &usageErr):
		return ExitUsage
	case errors.As(err, &cfgErr), errors.As(err, &dirErr):
		return ExitConfig
	case errors.Is(err, batch.ErrNoEligibleFiles):
		return ExitNoInput
	case errors.As(err, &writeErr):
		return ExitWriteFailed
	case errors.Is(err, errInterrupted):
		return ExitInterrupted
	default:
		return ExitGeneral
	}
}

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
