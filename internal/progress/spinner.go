package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const spinnerInterval = 100 * time.Millisecond

// lineWidth is the width cleared on each redraw.
const lineWidth = 80

// Spinner animates a message on a single terminal line.
// In non-TTY environments, it prints the message once without animation.
type Spinner struct {
	mu      sync.Mutex
	output  io.Writer
	message string
	done    chan struct{}
	stopped bool
	isTTY   bool
}

// NewSpinner creates a spinner writing to output, or os.Stderr if nil.
func NewSpinner(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}
	return &Spinner{
		output: output,
		isTTY:  ShouldShowProgress(output),
	}
}

// Start begins the animation with message.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.message = message
	s.stopped = false
	s.done = make(chan struct{})
	s.mu.Unlock()

	if !s.isTTY {
		fmt.Fprintf(s.output, "%s\n", message)
		return
	}

	go s.animate(s.done)
}

// SetMessage replaces the message shown on the next frame.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop halts the animation and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.done == nil {
		return
	}
	s.stopped = true
	close(s.done)

	if s.isTTY {
		fmt.Fprintf(s.output, "\r%s\r", strings.Repeat(" ", lineWidth))
	}
}

func (s *Spinner) animate(done <-chan struct{}) {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		line := fmt.Sprintf("\r%s %s", spinnerFrames[frame%len(spinnerFrames)], s.message)
		if len(line) < lineWidth {
			line += strings.Repeat(" ", lineWidth-len(line))
		}
		fmt.Fprint(s.output, line)
		s.mu.Unlock()
	}
}
