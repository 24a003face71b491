package clock

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Source reports monotonic wall time as an offset from an arbitrary origin.
type Source func() time.Duration

// Option configures a Clock.
type Option func(*Clock)

// WithSource replaces the wall time source.
func WithSource(source Source) Option {
	return func(clk *Clock) {
		clk.source = source
	}
}

// Clock is a pause-aware logical clock.
//
// Writers (Pause, Resume, Reset, Anchor.Mark) are serialised by a mutex.
// Readers never lock: they retry while the sequence counter is odd or
// changed during the read, so a reader never observes the pause
// accumulator and the anchors from two different moments.
type Clock struct {
	mu      sync.Mutex
	source  Source
	seq     atomic.Uint64
	base    atomic.Int64
	accum   atomic.Int64
	pauseAt atomic.Int64
	paused  atomic.Bool
	anchors []*Anchor
}

// New creates a running Clock starting at zero.
func New(options ...Option) *Clock {
	clk := &Clock{}
	for _, option := range options {
		option(clk)
	}
	if clk.source == nil {
		origin := time.Now()
		clk.source = func() time.Duration { return time.Since(origin) }
	}
	clk.base.Store(int64(clk.source()))
	return clk
}

// Now returns elapsed logical time, excluding paused intervals.
func (clk *Clock) Now() time.Duration {
	for {
		seq := clk.seq.Load()
		if seq&1 == 1 {
			runtime.Gosched()
			continue
		}
		wall := clk.wallLocked()
		elapsed := wall - time.Duration(clk.base.Load()) - time.Duration(clk.accum.Load())
		if clk.seq.Load() == seq {
			if elapsed < 0 {
				return 0
			}
			return elapsed
		}
	}
}

// Paused reports whether the clock is frozen.
func (clk *Clock) Paused() bool {
	return clk.paused.Load()
}

// Pause freezes the clock. Pausing a paused clock is a no-op.
func (clk *Clock) Pause() {
	clk.mu.Lock()
	defer clk.mu.Unlock()
	if clk.paused.Load() {
		return
	}
	clk.beginWrite()
	clk.pauseAt.Store(int64(clk.source()))
	clk.paused.Store(true)
	clk.endWrite()
}

// Resume unfreezes the clock and shifts every anchor forward by the paused
// interval. Resuming a running clock is a no-op. It returns the interval.
func (clk *Clock) Resume() time.Duration {
	clk.mu.Lock()
	defer clk.mu.Unlock()
	if !clk.paused.Load() {
		return 0
	}
	delta := clk.source() - time.Duration(clk.pauseAt.Load())
	if delta < 0 {
		delta = 0
	}
	clk.beginWrite()
	clk.accum.Add(int64(delta))
	for _, anchor := range clk.anchors {
		if anchor.set.Load() {
			anchor.wall.Add(int64(delta))
		}
	}
	clk.paused.Store(false)
	clk.endWrite()
	return delta
}

// Reset restarts the clock at zero in the running state and clears anchors.
func (clk *Clock) Reset() {
	clk.mu.Lock()
	defer clk.mu.Unlock()
	clk.beginWrite()
	clk.base.Store(int64(clk.source()))
	clk.accum.Store(0)
	clk.pauseAt.Store(0)
	clk.paused.Store(false)
	for _, anchor := range clk.anchors {
		anchor.set.Store(false)
		anchor.wall.Store(0)
	}
	clk.endWrite()
}

// Anchor registers a reference timestamp that follows pause shifts.
func (clk *Clock) Anchor() *Anchor {
	clk.mu.Lock()
	defer clk.mu.Unlock()
	anchor := &Anchor{clock: clk}
	clk.anchors = append(clk.anchors, anchor)
	return anchor
}

// Since returns logical time elapsed since the anchor was marked.
// An unmarked anchor yields zero.
func (clk *Clock) Since(anchor *Anchor) time.Duration {
	for {
		seq := clk.seq.Load()
		if seq&1 == 1 {
			runtime.Gosched()
			continue
		}
		var elapsed time.Duration
		if anchor.set.Load() {
			elapsed = clk.wallLocked() - time.Duration(anchor.wall.Load())
		}
		if clk.seq.Load() == seq {
			if elapsed < 0 {
				return 0
			}
			return elapsed
		}
	}
}

func (clk *Clock) wallLocked() time.Duration {
	if clk.paused.Load() {
		return time.Duration(clk.pauseAt.Load())
	}
	return clk.source()
}

func (clk *Clock) beginWrite() {
	clk.seq.Add(1)
}

func (clk *Clock) endWrite() {
	clk.seq.Add(1)
}

// Anchor is an externally held reference timestamp, e.g. a phase start.
type Anchor struct {
	clock *Clock
	wall  atomic.Int64
	set   atomic.Bool
}

// Mark sets the anchor to the current instant. While the clock is paused the
// instant is the moment of pausing, so the anchor reads zero until resumed.
func (anchor *Anchor) Mark() {
	clk := anchor.clock
	clk.mu.Lock()
	defer clk.mu.Unlock()
	clk.beginWrite()
	anchor.wall.Store(int64(clk.wallLocked()))
	anchor.set.Store(true)
	clk.endWrite()
}

// Clear unsets the anchor.
func (anchor *Anchor) Clear() {
	clk := anchor.clock
	clk.mu.Lock()
	defer clk.mu.Unlock()
	clk.beginWrite()
	anchor.set.Store(false)
	clk.endWrite()
}

// Since is shorthand for the owning clock's Since.
func (anchor *Anchor) Since() time.Duration {
	return anchor.clock.Since(anchor)
}
