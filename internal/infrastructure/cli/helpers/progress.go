package helpers

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const barWidth = 30

// ProgressBar draws local engine progress. On a TTY it redraws one line;
// otherwise it prints a line every ten percent.
type ProgressBar struct {
	mu     sync.Mutex
	out    io.Writer
	label  string
	tty    bool
	last   int
	active bool
}

// NewProgressBar creates a bar writing to out.
func NewProgressBar(out io.Writer, label string) *ProgressBar {
	return &ProgressBar{out: out, label: label, tty: IsTerminal(out), last: -1}
}

// Update implements engine.ProgressFunc. It may be called from any goroutine.
func (p *ProgressBar) Update(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if percent == 0 && p.last == 100 {
		// A new cycle (download done, load starting).
		p.last = -1
	}
	if p.tty {
		filled := percent * barWidth / 100
		fmt.Fprintf(p.out, "\r%s [%s%s] %3d%%", p.label, strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), percent)
		p.active = true
		if percent == 100 {
			fmt.Fprintln(p.out)
			p.active = false
		}
	} else if p.last < 0 || percent == 100 || percent/10 > p.last/10 {
		fmt.Fprintf(p.out, "%s %d%%\n", p.label, percent)
	}
	p.last = percent
}

// Done terminates an unfinished bar line.
func (p *ProgressBar) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		fmt.Fprintln(p.out)
		p.active = false
	}
}
