package cli

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Spinner animates a one-line status while a hosted backend is thinking.
// Start and Stop may be called more than once; only the first Start and the
// first Stop after it take effect.
type Spinner struct {
	frames   []string
	interval time.Duration
	writer   io.Writer
	label    string

	mu      sync.Mutex
	stop    chan struct{}
	done    sync.WaitGroup
	running bool
}

// NewSpinner creates a spinner writing to w.
func NewSpinner(w io.Writer) *Spinner {
	return &Spinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		interval: 80 * time.Millisecond,
		writer:   w,
	}
}

// Start begins the animation with label after the frame.
func (s *Spinner) Start(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.label = label
	s.stop = make(chan struct{})

	s.done.Add(1)
	go s.loop(s.stop)
}

func (s *Spinner) loop(stop <-chan struct{}) {
	defer s.done.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for idx := 0; ; idx++ {
		fmt.Fprintf(s.writer, "\r%s %s", s.frames[idx%len(s.frames)], s.label)
		select {
		case <-stop:
			fmt.Fprint(s.writer, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.done.Wait()
}
