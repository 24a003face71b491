package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Service resolves the per-user directories the application writes to.
type Service interface {
	GetConfigDir() (string, error)
	GetDataDir(appName string) (string, error)
}

type platformService struct{}

// NewService returns a platform-specific implementation.
func NewService() Service {
	return &platformService{}
}

// GetConfigDir returns the OS-standard configuration directory.
func (service *platformService) GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", fmt.Errorf("get config dir: %w", err)
		}
		return "", fmt.Errorf("get config dir: %w", homeErr)
	}

	return fallbackConfigDir(homeDir), nil
}

// GetDataDir returns the directory holding appName's session database.
// XDG_DATA_HOME wins on every platform when set.
func (service *platformService) GetDataDir(appName string) (string, error) {
	name := strings.TrimSpace(appName)
	if name == "" {
		return "", fmt.Errorf("get data dir: app name is empty")
	}
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, name), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		configDir, configErr := service.GetConfigDir()
		if configErr != nil {
			return "", fmt.Errorf("get data dir: %w", configErr)
		}
		return filepath.Join(configDir, name), nil
	}
	return filepath.Join(fallbackDataDir(homeDir), name), nil
}
