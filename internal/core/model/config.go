package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode indicates a mode token that does not match any known value.
var ErrUnknownMode = errors.New("unknown mode")

// SpeedMode selects the phase duration.
type SpeedMode int32

const (
	SpeedIgnite SpeedMode = iota
	SpeedBalance
	SpeedHarmony
	SpeedZen
	SpeedTranscend
)

// SpeedModes lists all speed modes in table order.
var SpeedModes = []SpeedMode{SpeedIgnite, SpeedBalance, SpeedHarmony, SpeedZen, SpeedTranscend}

// PhaseMs returns the duration of one phase in milliseconds.
func (mode SpeedMode) PhaseMs() int64 {
	switch mode {
	case SpeedBalance:
		return 4000
	case SpeedHarmony:
		return 6000
	case SpeedZen:
		return 12000
	case SpeedTranscend:
		return 24000
	default:
		return 2000
	}
}

// LoopSeconds returns the length of a full five-phase cycle in seconds.
func (mode SpeedMode) LoopSeconds() int64 {
	return mode.PhaseMs() * PhaseCount / 1000
}

func (mode SpeedMode) String() string {
	switch mode {
	case SpeedBalance:
		return "BALANCE"
	case SpeedHarmony:
		return "HARMONY"
	case SpeedZen:
		return "ZEN"
	case SpeedTranscend:
		return "TRANSCEND"
	default:
		return "IGNITE"
	}
}

// Label returns the display label including loop length.
func (mode SpeedMode) Label() string {
	return fmt.Sprintf("%s (%ds loop)", mode.String(), mode.LoopSeconds())
}

// ParseSpeedMode parses a speed mode token.
func ParseSpeedMode(value string) (SpeedMode, error) {
	for _, mode := range SpeedModes {
		if strings.EqualFold(value, mode.String()) {
			return mode, nil
		}
	}
	return SpeedIgnite, fmt.Errorf("speed %q: %w", value, ErrUnknownMode)
}

// BreathStyle selects the inhale/exhale split.
type BreathStyle int32

const (
	BreathCoherent BreathStyle = iota
	BreathRelaxed
	BreathDeepCalm
)

// BreathStyles lists all breath styles.
var BreathStyles = []BreathStyle{BreathCoherent, BreathRelaxed, BreathDeepCalm}

// InhaleFraction returns the share of a phase spent inhaling.
func (style BreathStyle) InhaleFraction() float64 {
	switch style {
	case BreathRelaxed:
		return 0.60
	case BreathDeepCalm:
		return 0.67
	default:
		return 0.50
	}
}

func (style BreathStyle) String() string {
	switch style {
	case BreathRelaxed:
		return "RELAXED"
	case BreathDeepCalm:
		return "DEEP_CALM"
	default:
		return "COHERENT"
	}
}

// Label returns the display label.
func (style BreathStyle) Label() string {
	switch style {
	case BreathRelaxed:
		return "Relaxed 60/40"
	case BreathDeepCalm:
		return "Deep Calm 67/33"
	default:
		return "Coherent 50/50"
	}
}

// ParseBreathStyle parses a breath style token.
func ParseBreathStyle(value string) (BreathStyle, error) {
	for _, style := range BreathStyles {
		if strings.EqualFold(value, style.String()) {
			return style, nil
		}
	}
	return BreathCoherent, fmt.Errorf("breath %q: %w", value, ErrUnknownMode)
}

// TransitionMode defines how phases change.
type TransitionMode int32

const (
	TransitionSoft TransitionMode = iota
	TransitionHard
)

// TransitionModes lists all transition modes.
var TransitionModes = []TransitionMode{TransitionHard, TransitionSoft}

func (mode TransitionMode) String() string {
	if mode == TransitionHard {
		return "HARD"
	}
	return "SOFT"
}

// Label returns the display label.
func (mode TransitionMode) Label() string {
	if mode == TransitionHard {
		return "Hard"
	}
	return "Soft"
}

// ParseTransitionMode parses a transition token.
func ParseTransitionMode(value string) (TransitionMode, error) {
	for _, mode := range TransitionModes {
		if strings.EqualFold(value, mode.String()) {
			return mode, nil
		}
	}
	return TransitionSoft, fmt.Errorf("transition %q: %w", value, ErrUnknownMode)
}

// RotationMode defines how the marker rotates during a phase.
type RotationMode int32

const (
	RotationContinuous RotationMode = iota
	RotationKinetic
	RotationNone
)

// RotationModes lists all rotation modes.
var RotationModes = []RotationMode{RotationContinuous, RotationKinetic, RotationNone}

func (mode RotationMode) String() string {
	switch mode {
	case RotationKinetic:
		return "KINETIC"
	case RotationNone:
		return "NONE"
	default:
		return "CONTINUOUS"
	}
}

// Label returns the display label.
func (mode RotationMode) Label() string {
	switch mode {
	case RotationKinetic:
		return "Kinetic 72°"
	case RotationNone:
		return "No motion"
	default:
		return "Continuous"
	}
}

// ParseRotationMode parses a rotation token.
func ParseRotationMode(value string) (RotationMode, error) {
	for _, mode := range RotationModes {
		if strings.EqualFold(value, mode.String()) {
			return mode, nil
		}
	}
	return RotationContinuous, fmt.Errorf("rotation %q: %w", value, ErrUnknownMode)
}

// Configuration is a snapshot of all user-selectable modes.
type Configuration struct {
	Speed      SpeedMode
	Breath     BreathStyle
	Transition TransitionMode
	Rotation   RotationMode
}

// DefaultConfiguration mirrors the startup state of the sequence.
func DefaultConfiguration() Configuration {
	return Configuration{
		Speed:      SpeedIgnite,
		Breath:     BreathCoherent,
		Transition: TransitionSoft,
		Rotation:   RotationContinuous,
	}
}
