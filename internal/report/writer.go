package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteError reports a failure to persist the report. Nothing is left at
// Path when it is returned.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// FileName returns the report name for a run started at start.
func FileName(start time.Time, c Compression) string {
	return "results-" + start.Format("20060102-150405") + ".txt" + c.Ext()
}

// Writer persists a run report into Dir.
type Writer struct {
	Dir         string
	Compression Compression

	// Now supplies the run start time. Defaults to time.Now.
	Now func() time.Time

	start time.Time
}

// NewWriter returns a Writer that stamps its file name with the current
// time. Call it when the run starts.
func NewWriter(dir string, c Compression) *Writer {
	w := &Writer{Dir: dir, Compression: c, Now: time.Now}
	w.start = w.Now()
	return w
}

// Path returns the path the report will be written to.
func (w *Writer) Path() string {
	if w.start.IsZero() {
		now := w.Now
		if now == nil {
			now = time.Now
		}
		w.start = now()
	}
	return filepath.Join(w.Dir, FileName(w.start, w.Compression))
}

// Write renders entries and stores them in a single file. The content goes
// to a temporary file in the same directory which is synced and renamed
// into place, so readers see either the whole report or nothing.
func (w *Writer) Write(entries []string) (string, error) {
	path := w.Path()

	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(w.Dir, ".results-*.tmp")
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	fail := func(err error) (string, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}

	enc, err := newEncoder(tmp, w.Compression)
	if err != nil {
		return fail(err)
	}
	if _, err := enc.Write([]byte(Render(entries))); err != nil {
		return fail(err)
	}
	if err := enc.Close(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: err}
	}

	return path, nil
}
