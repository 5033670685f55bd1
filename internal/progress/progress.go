// Package progress renders a live "[i/n] file" line while a batch runs.
// Nothing is drawn unless the output is a terminal, so piped and logged
// runs stay clean.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc is the function used to check if a file descriptor is a terminal.
// It can be overridden for testing.
var IsTerminalFunc = term.IsTerminal

// ShouldShowProgress reports whether w is an interactive terminal.
func ShouldShowProgress(w io.Writer) bool {
	fd := -1
	if f, ok := w.(*os.File); ok {
		fd = int(f.Fd())
	}
	return IsTerminalFunc(fd)
}

// Tracker shows the current item with an ETA derived from the average
// time per finished item.
type Tracker struct {
	mu      sync.Mutex
	spinner *Spinner
	enabled bool
	running bool
	start   time.Time
	now     func() time.Time
	failed  int
}

// NewTracker creates a tracker drawing on output, usually os.Stderr.
func NewTracker(output io.Writer) *Tracker {
	s := NewSpinner(output)
	return &Tracker{
		spinner: s,
		enabled: s.isTTY,
		now:     time.Now,
	}
}

// Start is called before item index (1-based) of total is processed.
func (t *Tracker) Start(index, total int, name string) {
	if !t.enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		t.start = t.now()
	}
	msg := t.message(index, total, name)
	if t.running {
		t.spinner.SetMessage(msg)
		return
	}
	t.running = true
	t.spinner.Start(msg)
}

// Finish is called after the item completed, successfully or not.
func (t *Tracker) Finish(index, total int, name string, err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	t.failed++
	t.mu.Unlock()
}

// Stop clears the progress line.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.spinner.Stop()
		t.running = false
	}
}

func (t *Tracker) message(index, total int, name string) string {
	msg := fmt.Sprintf("[%d/%d] %s", index, total, name)
	if t.failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", t.failed)
	}
	done := index - 1
	if done > 0 {
		perItem := t.now().Sub(t.start).Seconds() / float64(done)
		msg += " ETA " + formatDuration(perItem*float64(total-done))
	}
	return msg
}

// formatDuration formats seconds into MM:SS or HH:MM:SS format
func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
