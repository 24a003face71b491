package model

import (
	"fmt"
	"math"
)

// PhaseCount is the number of phases in one cycle.
const PhaseCount = 5

// Color is an opaque RGB triple.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// Hex returns the color formatted as #RRGGBB.
func (color Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", color.R, color.G, color.B)
}

// Phase is one step of the cycle.
type Phase struct {
	Name      string
	Color     Color
	Frequency float64
}

// Phases is the fixed cycle.
var Phases = [PhaseCount]Phase{
	{Name: "Origin", Color: Color{R: 0xFF, G: 0xFF, B: 0xFF}, Frequency: 440},
	{Name: "Growth", Color: Color{R: 0x00, G: 0xFF, B: 0xFF}, Frequency: 494},
	{Name: "Peak", Color: Color{R: 0x00, G: 0xFF, B: 0x00}, Frequency: 556},
	{Name: "Decline", Color: Color{R: 0xFF, G: 0xBF, B: 0x00}, Frequency: 624},
	{Name: "Renewal", Color: Color{R: 0xFF, G: 0x00, B: 0xFF}, Frequency: 702},
}

// PhaseAt returns the phase at index, wrapping modulo PhaseCount.
func PhaseAt(index int) Phase {
	return Phases[WrapIndex(index)]
}

// WrapIndex folds any integer into [0, PhaseCount).
func WrapIndex(index int) int {
	return ((index % PhaseCount) + PhaseCount) % PhaseCount
}

var noteNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// NoteName returns the nearest equal-tempered note for a frequency, e.g. "A4".
func NoteName(hz float64) string {
	if hz <= 0 {
		return "?"
	}
	midi := int(math.Round(69 + 12*math.Log2(hz/440.0)))
	octave := midi/12 - 1
	return fmt.Sprintf("%s%d", noteNames[((midi%12)+12)%12], octave)
}
