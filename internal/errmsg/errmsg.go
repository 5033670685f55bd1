// Package errmsg formats fatal errors with possible causes and suggestions.
package errmsg

import (
	"errors"
	"io/fs"
	"net"
	"strings"

	"github.com/tsukumogami/ocrbatch/internal/batch"
	"github.com/tsukumogami/ocrbatch/internal/report"
)

// Format returns err's message followed by hints for the failure modes a
// user can act on. Unrecognized errors are returned unchanged.
func Format(err error) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()

	var dirErr *batch.InputDirError
	if errors.As(err, &dirErr) {
		return formatInputDirError(errMsg, dirErr)
	}

	if errors.Is(err, batch.ErrNoEligibleFiles) {
		return withHints(errMsg,
			[]string{"The directory holds no files with the configured extension"},
			[]string{"Check the extension with --ext (matching is case-insensitive)",
				"Run 'ocrbatch run --dry-run' to list eligible files"})
	}

	var writeErr *report.WriteError
	if errors.As(err, &writeErr) {
		return withHints(errMsg,
			[]string{"The output directory is not writable", "The disk is full"},
			[]string{"Choose another directory with --output"})
	}

	if isRateLimitError(errMsg) {
		return withHints(errMsg,
			[]string{"Too many requests to the recognition API"},
			[]string{"Increase the pause between images with --delay", "Wait a few minutes before retrying"})
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return formatNetworkError(errMsg, netErr.Timeout())
	}
	if isNetworkError(errMsg) {
		return formatNetworkError(errMsg, false)
	}

	return errMsg
}

func formatInputDirError(errMsg string, err *batch.InputDirError) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return withHints(errMsg,
			[]string{"The input directory does not exist"},
			[]string{"Pass the image directory with --input", "Set input_dir with 'ocrbatch config set input_dir <dir>'"})
	case errors.Is(err, fs.ErrPermission):
		return withHints(errMsg,
			[]string{"The input directory is not readable by the current user"},
			[]string{"Check permissions: ls -ld " + err.Dir})
	}
	return errMsg
}

func formatNetworkError(errMsg string, timeout bool) string {
	causes := []string{"Network connectivity issue", "Firewall or proxy blocking the connection"}
	suggestions := []string{"Check your internet connection", "Try again in a few minutes"}
	if timeout {
		causes = append([]string{"Request timed out"}, causes...)
		suggestions = append(suggestions, "Raise OCRBATCH_API_TIMEOUT")
	}
	return withHints(errMsg, causes, suggestions)
}

func withHints(errMsg string, causes, suggestions []string) string {
	var sb strings.Builder
	sb.WriteString(errMsg)
	sb.WriteString("\n")

	sb.WriteString("\nPossible causes:\n")
	for _, c := range causes {
		sb.WriteString("  - " + c + "\n")
	}

	sb.WriteString("\nSuggestions:\n")
	for _, s := range suggestions {
		sb.WriteString("  - " + s + "\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// isRateLimitError checks if the error message indicates a rate limit
func isRateLimitError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "rate_limit") ||
		strings.Contains(lower, "too many requests")
}

// isNetworkError checks if the error message indicates a network issue
func isNetworkError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "network is unreachable") ||
		strings.Contains(lower, "dial tcp")
}
