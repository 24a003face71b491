package preferences

import (
	"fmt"

	"fivephase/internal/core/model"
)

// Refresh rate bounds accepted from the settings file.
const (
	MinRefreshRate     = 10
	MaxRefreshRate     = 240
	DefaultRefreshRate = 60
)

// Settings defines editable user preferences.
type Settings struct {
	Speed      model.SpeedMode
	Breath     model.BreathStyle
	Transition model.TransitionMode
	Rotation   model.RotationMode

	RefreshRate int
	ShowHUD     bool
	Fullscreen  bool
	LogLevel    string
}

// DefaultSettings returns default settings for FivePhase.
func DefaultSettings() Settings {
	config := model.DefaultConfiguration()
	return Settings{
		Speed:       config.Speed,
		Breath:      config.Breath,
		Transition:  config.Transition,
		Rotation:    config.Rotation,
		RefreshRate: DefaultRefreshRate,
		ShowHUD:     true,
		Fullscreen:  false,
		LogLevel:    "info",
	}
}

// Configuration converts settings to the sequence configuration.
func (settings Settings) Configuration() model.Configuration {
	return model.Configuration{
		Speed:      settings.Speed,
		Breath:     settings.Breath,
		Transition: settings.Transition,
		Rotation:   settings.Rotation,
	}
}

// WithConfiguration returns a copy carrying the given modes.
func (settings Settings) WithConfiguration(config model.Configuration) Settings {
	settings.Speed = config.Speed
	settings.Breath = config.Breath
	settings.Transition = config.Transition
	settings.Rotation = config.Rotation
	return settings
}

// String describes the settings for logs.
func (settings Settings) String() string {
	return fmt.Sprintf("%s/%s/%s/%s %dHz hud=%t fullscreen=%t",
		settings.Speed, settings.Breath, settings.Transition, settings.Rotation,
		settings.RefreshRate, settings.ShowHUD, settings.Fullscreen)
}
