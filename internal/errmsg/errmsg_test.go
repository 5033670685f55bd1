package errmsg

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/tsukumogami/ocrbatch/internal/batch"
	"github.com/tsukumogami/ocrbatch/internal/report"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "missing input dir",
			err:      &batch.InputDirError{Dir: "images", Err: fs.ErrNotExist},
			contains: []string{"input directory images", "does not exist", "--input"},
		},
		{
			name:     "unreadable input dir",
			err:      &batch.InputDirError{Dir: "images", Err: fs.ErrPermission},
			contains: []string{"ls -ld images"},
		},
		{
			name:     "no eligible files",
			err:      fmt.Errorf("%w in images (extension .png)", batch.ErrNoEligibleFiles),
			contains: []string{"--ext", "--dry-run"},
		},
		{
			name:     "report write failure",
			err:      &report.WriteError{Path: "results/x.txt", Err: fs.ErrPermission},
			contains: []string{"not writable", "--output"},
		},
		{
			name:     "rate limit",
			err:      errors.New("429 Too Many Requests"),
			contains: []string{"--delay"},
		},
		{
			name:     "timeout",
			err:      fmt.Errorf("recognize a.png: %w", timeoutErr{}),
			contains: []string{"Request timed out", "OCRBATCH_API_TIMEOUT"},
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:443: connect: connection refused"),
			contains: []string{"Check your internet connection"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Format(tt.err)
			if !strings.HasPrefix(got, tt.err.Error()) {
				t.Errorf("Format() should start with the error message, got:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestFormatPassesThroughUnknownErrors(t *testing.T) {
	err := errors.New("something odd")
	if got := Format(err); got != "something odd" {
		t.Errorf("Format() = %q", got)
	}
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q", got)
	}
}
