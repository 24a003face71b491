package scheduler

import (
	"math"

	"fivephase/internal/core/model"
)

const (
	// StepDegrees is the rotation advanced per phase.
	StepDegrees = 360.0 / model.PhaseCount
	// KineticWindowMs is the length of the kinetic rotation ease.
	KineticWindowMs = 800.0
	// SoftFadeMaxMs caps the soft color tail window.
	SoftFadeMaxMs = 600
)

// Smoothstep returns t*t*(3-2t) with t clamped to [0,1].
func Smoothstep(t float64) float64 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

// LerpDegrees interpolates along the shortest arc from a to b and returns a
// value in [0,360).
func LerpDegrees(a, b, t float64) float64 {
	delta := math.Mod(math.Mod(b-a+540, 360)+360, 360) - 180
	return normalizeDegrees(a + delta*t)
}

// Blend linearly mixes two colors with t clamped to [0,1].
func Blend(a, b model.Color, t float64) model.Color {
	t = clamp01(t)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return model.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// InhaleMs splits a phase according to the inhale fraction. The result is
// always within [1, phaseMs-1] for phases longer than one millisecond.
func InhaleMs(phaseMs int64, fraction float64) int64 {
	inhale := int64(math.Round(float64(phaseMs) * fraction))
	if inhale > phaseMs-1 {
		inhale = phaseMs - 1
	}
	if inhale < 1 {
		inhale = 1
	}
	return inhale
}

// BreathAt returns the breath segment and its whole-second countdown at the
// given elapsed phase time.
func BreathAt(phaseMs, inhaleMs, elapsedMs int64) (BreathSegment, int) {
	exhaleMs := phaseMs - inhaleMs
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	if elapsedMs < inhaleMs {
		return Inhale, countdown(inhaleMs, elapsedMs)
	}
	return Exhale, countdown(exhaleMs, elapsedMs-inhaleMs)
}

func countdown(segmentMs, posMs int64) int {
	if posMs > segmentMs {
		posMs = segmentMs
	}
	if posMs < 0 {
		posMs = 0
	}
	return int(math.Ceil(float64(segmentMs-posMs) / 1000.0))
}

// RotationAt returns the marker angle for a runtime state after elapsedMs.
func RotationAt(state *Runtime, elapsedMs float64) float64 {
	switch state.Rotation {
	case model.RotationNone:
		return normalizeDegrees(state.RotStart)
	case model.RotationKinetic:
		return LerpDegrees(state.RotStart, state.RotTarget, Smoothstep(elapsedMs/KineticWindowMs))
	default:
		span := math.Max(1, float64(state.PhaseMs))
		return LerpDegrees(state.RotStart, state.RotTarget, clamp01(elapsedMs/span))
	}
}

// ColorAt returns the display color for a runtime state after elapsedMs.
func ColorAt(state *Runtime, elapsedMs float64) model.Color {
	if state.Transition == model.TransitionHard {
		return state.Phase.Color
	}
	fadeLen := state.PhaseMs / 5
	if fadeLen > SoftFadeMaxMs {
		fadeLen = SoftFadeMaxMs
	}
	fadeStart := state.PhaseMs - fadeLen
	if fadeStart < 0 {
		fadeStart = 0
	}
	if elapsedMs <= float64(fadeStart) {
		return state.Phase.Color
	}
	raw := (elapsedMs - float64(fadeStart)) / math.Max(1, float64(fadeLen))
	return Blend(state.Phase.Color, state.Next.Color, Smoothstep(raw))
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// Tiny negative inputs round up to exactly 360.
	if deg >= 360 {
		deg = 0
	}
	return deg
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
