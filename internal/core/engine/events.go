package engine

import (
	"time"

	"fivephase/internal/core/model"
)

// State represents the current Engine mode.
type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// EventType defines the type of Engine event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventPhaseStart  EventType = "phase_start"
	EventSession     EventType = "session"
	EventError       EventType = "error"
)

// Event represents an Engine update for observers.
type Event struct {
	Type    EventType
	State   State
	Epoch   uint64
	Index   int
	Phase   model.Phase
	Active  bool
	Err     error
	Message string
	At      time.Time
}
