// Package control maps keys and menu items onto engine operations so every
// presenter shares one key map.
package control

import (
	"context"
	"fmt"
	"strings"

	"fivephase/internal/core/model"
	"fivephase/internal/core/session"
)

// Kind identifies a control action.
type Kind int

const (
	None Kind = iota
	TogglePause
	StopSession
	ToggleHUD
	ToggleFullscreen
	Escape
	Quit
	SetSpeed
	SetBreath
	SetTransition
	SetRotation
)

// Command is one control action with its argument, if any.
type Command struct {
	Kind       Kind
	Speed      model.SpeedMode
	Breath     model.BreathStyle
	Transition model.TransitionMode
	Rotation   model.RotationMode
}

// Controller is the engine surface commands act on.
type Controller interface {
	TogglePause() error
	StopSession(ctx context.Context) (session.Record, error)
	SetSpeed(mode model.SpeedMode)
	SetBreath(style model.BreathStyle)
	SetTransition(mode model.TransitionMode)
	SetRotation(mode model.RotationMode)
}

var keymap = map[string]Command{
	" ":      {Kind: TogglePause},
	"space":  {Kind: TogglePause},
	"s":      {Kind: StopSession},
	"h":      {Kind: ToggleHUD},
	"f11":    {Kind: ToggleFullscreen},
	"esc":    {Kind: Escape},
	"escape": {Kind: Escape},
	"ctrl+c": {Kind: Quit},
	"1":      {Kind: SetSpeed, Speed: model.SpeedIgnite},
	"2":      {Kind: SetSpeed, Speed: model.SpeedBalance},
	"3":      {Kind: SetSpeed, Speed: model.SpeedHarmony},
	"4":      {Kind: SetSpeed, Speed: model.SpeedZen},
	"5":      {Kind: SetSpeed, Speed: model.SpeedTranscend},
	"q":      {Kind: SetBreath, Breath: model.BreathCoherent},
	"w":      {Kind: SetBreath, Breath: model.BreathRelaxed},
	"e":      {Kind: SetBreath, Breath: model.BreathDeepCalm},
	"t":      {Kind: SetTransition, Transition: model.TransitionHard},
	"y":      {Kind: SetTransition, Transition: model.TransitionSoft},
	"7":      {Kind: SetRotation, Rotation: model.RotationContinuous},
	"8":      {Kind: SetRotation, Rotation: model.RotationKinetic},
	"0":      {Kind: SetRotation, Rotation: model.RotationNone},
}

// ForKey returns the command bound to a key name. Names are matched case
// insensitively, so "Q" and "q" are the same key.
func ForKey(key string) (Command, bool) {
	command, ok := keymap[strings.ToLower(key)]
	return command, ok
}

// Apply runs engine-bound commands. It reports false for commands the
// presenter handles itself (HUD, fullscreen, escape, quit).
func Apply(ctx context.Context, controller Controller, command Command) (bool, error) {
	switch command.Kind {
	case TogglePause:
		if err := controller.TogglePause(); err != nil {
			return true, fmt.Errorf("toggle pause: %w", err)
		}
	case StopSession:
		if _, err := controller.StopSession(ctx); err != nil {
			return true, fmt.Errorf("stop session: %w", err)
		}
	case SetSpeed:
		controller.SetSpeed(command.Speed)
	case SetBreath:
		controller.SetBreath(command.Breath)
	case SetTransition:
		controller.SetTransition(command.Transition)
	case SetRotation:
		controller.SetRotation(command.Rotation)
	default:
		return false, nil
	}
	return true, nil
}
