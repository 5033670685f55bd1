package progress

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer written from the animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fakeTerminal(t *testing.T, tty bool) {
	t.Helper()
	orig := IsTerminalFunc
	IsTerminalFunc = func(int) bool { return tty }
	t.Cleanup(func() { IsTerminalFunc = orig })
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{30, "0:30"},
		{90, "1:30"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.expected {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestShouldShowProgress(t *testing.T) {
	var seen int
	orig := IsTerminalFunc
	IsTerminalFunc = func(fd int) bool { seen = fd; return fd >= 0 }
	t.Cleanup(func() { IsTerminalFunc = orig })

	if ShouldShowProgress(&bytes.Buffer{}) {
		t.Error("expected no progress for a non-file writer")
	}
	if seen != -1 {
		t.Errorf("non-file writer checked fd %d, want -1", seen)
	}

	if !ShouldShowProgress(os.Stderr) {
		t.Error("expected progress for a terminal stderr")
	}
	if seen != int(os.Stderr.Fd()) {
		t.Errorf("checked fd %d, want %d", seen, os.Stderr.Fd())
	}
}

func TestTracker_Terminal(t *testing.T) {
	fakeTerminal(t, true)

	out := &syncBuffer{}
	tr := NewTracker(out)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }

	tr.Start(1, 3, "a.png")
	if got := tr.spinner.message; got != "[1/3] a.png" {
		t.Errorf("message = %q, want %q", got, "[1/3] a.png")
	}

	tr.Finish(1, 3, "a.png", errors.New("boom"))
	clock = clock.Add(10 * time.Second)

	tr.Start(2, 3, "b.PNG")
	if got, want := tr.spinner.message, "[2/3] b.PNG (1 failed) ETA 0:20"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	time.Sleep(250 * time.Millisecond)
	tr.Stop()
	tr.Stop()

	if !strings.Contains(out.String(), "[2/3] b.PNG") {
		t.Errorf("expected output to contain the second item, got %q", out.String())
	}
}

func TestTracker_NotTerminal(t *testing.T) {
	fakeTerminal(t, false)

	out := &syncBuffer{}
	tr := NewTracker(out)
	tr.Start(1, 1, "a.png")
	tr.Finish(1, 1, "a.png", nil)
	tr.Stop()

	if out.String() != "" {
		t.Errorf("expected no output off a terminal, got %q", out.String())
	}
}

func TestSpinner_NonTTY(t *testing.T) {
	fakeTerminal(t, false)

	out := &syncBuffer{}
	s := NewSpinner(out)
	s.Start("Processing...")
	s.Stop()

	if got := out.String(); got != "Processing...\n" {
		t.Errorf("output = %q, want %q", got, "Processing...\n")
	}
}

func TestSpinner_TTYClearsLine(t *testing.T) {
	fakeTerminal(t, true)

	out := &syncBuffer{}
	s := NewSpinner(out)
	s.Start("First")
	time.Sleep(250 * time.Millisecond)
	s.SetMessage("Second")
	time.Sleep(250 * time.Millisecond)
	s.Stop()

	content := out.String()
	if !strings.Contains(content, "First") || !strings.Contains(content, "Second") {
		t.Errorf("expected both messages in output, got %q", content)
	}
	if !strings.HasSuffix(content, "\r") {
		t.Errorf("expected the line to be cleared on stop, got %q", content)
	}
}

func TestSpinner_StopBeforeStart(t *testing.T) {
	s := NewSpinner(&syncBuffer{})
	s.Stop()
}
