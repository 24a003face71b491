package synth

import (
	"context"
	"sync"
)

// Gate suspends generation while paused. Waiters block on a channel that is
// closed on resume, so no goroutine polls.
type Gate struct {
	mu      sync.Mutex
	paused  bool
	resumed chan struct{}
}

// NewGate returns an open gate.
func NewGate() *Gate {
	gate := &Gate{resumed: make(chan struct{})}
	close(gate.resumed)
	return gate
}

// Pause closes the gate. It reports whether the state changed.
func (gate *Gate) Pause() bool {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	if gate.paused {
		return false
	}
	gate.paused = true
	gate.resumed = make(chan struct{})
	return true
}

// Resume opens the gate and releases waiters. It reports whether the state
// changed.
func (gate *Gate) Resume() bool {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	if !gate.paused {
		return false
	}
	gate.paused = false
	close(gate.resumed)
	return true
}

// Paused reports whether the gate is closed.
func (gate *Gate) Paused() bool {
	gate.mu.Lock()
	defer gate.mu.Unlock()
	return gate.paused
}

// Wait blocks until the gate opens or ctx is done.
func (gate *Gate) Wait(ctx context.Context) error {
	gate.mu.Lock()
	resumed := gate.resumed
	gate.mu.Unlock()

	select {
	case <-resumed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
