package engine

import "sync"

// progressGate forwards percentages to a sink so that the sink sees 0 first,
// strictly increasing values, and 100 exactly once. Collaborators may report
// from any goroutine.
type progressGate struct {
	mu   sync.Mutex
	sink ProgressFunc
	last int
}

func newProgressGate(sink ProgressFunc) *progressGate {
	return &progressGate{sink: sink, last: -1}
}

func (g *progressGate) start() {
	g.report(0)
}

// report clamps to [0, 99]; only finish emits 100.
func (g *progressGate) report(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 99 {
		percent = 99
	}
	g.emit(percent)
}

func (g *progressGate) finish() {
	g.emit(100)
}

func (g *progressGate) emit(percent int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if percent <= g.last {
		return
	}
	g.last = percent
	if g.sink != nil {
		g.sink(percent)
	}
}
