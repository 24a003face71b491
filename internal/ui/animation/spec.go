package animation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"fivephase/internal/core/model"
	"fivephase/internal/core/scheduler"
	"fivephase/internal/core/session"
)

// Title is the header shown while the HUD is visible.
const Title = "Five-Phase Encoder"

// HelpLine lists the keyboard controls.
const HelpLine = "[SPACE] Start / Pause   [H] HUD   [Q/W/E] Breath   [1-5] Speed   " +
	"[T/Y] Transition   [7/8/0] Rotation   [S] Stop   [Esc] Exit"

var (
	black = model.Color{}
	white = model.Color{R: 0xFF, G: 0xFF, B: 0xFF}
)

// Point is a position in presenter coordinates.
type Point struct {
	X float64
	Y float64
}

// Scene is everything a presenter draws for one refresh.
type Scene struct {
	Started       bool
	Epoch         uint64
	Background    model.Color
	Foreground    model.Color
	Rotation      float64
	ShowNeedle    bool
	ShowHUD       bool
	PhaseName     string
	Tone          string
	Breath        string
	BreathLabel   string
	Countdown     int
	Configuration model.Configuration
	Session       time.Duration
}

// SceneFor maps a scheduler frame to a scene.
func SceneFor(frame scheduler.Frame, config model.Configuration, showHUD bool) Scene {
	segment := frame.Segment.String()
	return Scene{
		Started:       frame.Started,
		Epoch:         frame.Epoch,
		Background:    frame.Color,
		Foreground:    Contrast(frame.Color),
		Rotation:      frame.Rotation,
		ShowNeedle:    frame.RotationMode != model.RotationNone,
		ShowHUD:       showHUD,
		PhaseName:     frame.Phase.Name,
		Tone:          ToneLabel(frame.Phase.Frequency),
		Breath:        segment,
		BreathLabel:   segment[:1] + strings.ToLower(segment[1:]),
		Countdown:     max(0, frame.Countdown),
		Configuration: config,
	}
}

// SettingsLines are the rows of the current session panel.
func (scene Scene) SettingsLines() []string {
	config := scene.Configuration
	return []string{
		"Breath: " + config.Breath.Label(),
		"Speed: " + config.Speed.Label(),
		"Transition: " + config.Transition.Label(),
		"Rotation: " + config.Rotation.Label(),
		"Session: " + session.FormatHMS(scene.Session),
	}
}

// Contrast picks black or white text for a background by perceived luminance.
func Contrast(background model.Color) model.Color {
	lum := (0.299*float64(background.R) + 0.587*float64(background.G) + 0.114*float64(background.B)) / 255
	if lum > 0.6 {
		return black
	}
	return white
}

// ToneLabel formats a frequency with its note name, e.g. "Tone: 440 Hz (A4)".
func ToneLabel(hz float64) string {
	return fmt.Sprintf("Tone: %d Hz (%s)", int(hz), model.NoteName(hz))
}

// Pentagon returns the five vertices of the marker rotated by degrees. Vertex
// zero points up at zero degrees.
func Pentagon(center Point, radius, degrees float64) [model.PhaseCount]Point {
	var vertices [model.PhaseCount]Point
	for i := range vertices {
		vertices[i] = polar(center, radius, degrees+float64(i)*scheduler.StepDegrees)
	}
	return vertices
}

// NeedleTip returns the end of the needle drawn from center.
func NeedleTip(center Point, radius, degrees float64) Point {
	return polar(center, radius*0.9, degrees)
}

func polar(center Point, radius, degrees float64) Point {
	rad := (degrees - 90) * math.Pi / 180
	return Point{X: center.X + radius*math.Cos(rad), Y: center.Y + radius*math.Sin(rad)}
}
