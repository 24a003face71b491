package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fivephase/internal/core/model"
	"fivephase/internal/ui/preferences"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	Speed       string `yaml:"speed"`
	Breath      string `yaml:"breath"`
	Transition  string `yaml:"transition"`
	Rotation    string `yaml:"rotation"`
	RefreshRate int    `yaml:"refresh_rate"`
	ShowHUD     *bool  `yaml:"show_hud,omitempty"`
	Fullscreen  bool   `yaml:"fullscreen"`
	LogLevel    string `yaml:"log_level"`
}

// LoadSettings reads user preferences from YAML.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return settings, err
	}
	return loadSettingsFile(configPath, settings)
}

func loadSettingsFile(configPath string, settings preferences.Settings) (preferences.Settings, error) {
	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML.
func SaveSettings(appName string, settings preferences.Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	showHUD := settings.ShowHUD
	fileData := yamlSettings{
		Speed:       settings.Speed.String(),
		Breath:      settings.Breath.String(),
		Transition:  settings.Transition.String(),
		Rotation:    settings.Rotation.String(),
		RefreshRate: settings.RefreshRate,
		ShowHUD:     &showHUD,
		Fullscreen:  settings.Fullscreen,
		LogLevel:    settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsPath returns where settings for appName are stored.
func SettingsPath(appName string) (string, error) {
	return resolveConfigPath(appName)
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if speed, err := model.ParseSpeedMode(fileData.Speed); err == nil {
		settings.Speed = speed
	}
	if breath, err := model.ParseBreathStyle(fileData.Breath); err == nil {
		settings.Breath = breath
	}
	if transition, err := model.ParseTransitionMode(fileData.Transition); err == nil {
		settings.Transition = transition
	}
	if rotation, err := model.ParseRotationMode(fileData.Rotation); err == nil {
		settings.Rotation = rotation
	}

	if fileData.RefreshRate >= preferences.MinRefreshRate && fileData.RefreshRate <= preferences.MaxRefreshRate {
		settings.RefreshRate = fileData.RefreshRate
	}
	if fileData.ShowHUD != nil {
		settings.ShowHUD = *fileData.ShowHUD
	}
	if level := strings.TrimSpace(fileData.LogLevel); level != "" {
		settings.LogLevel = strings.ToLower(level)
	}

	settings.Fullscreen = fileData.Fullscreen
}
