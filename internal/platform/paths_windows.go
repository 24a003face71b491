//go:build windows

package platform

import (
	"os"
	"path/filepath"
)

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, "AppData", "Roaming")
}

func fallbackDataDir(homeDir string) string {
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		return local
	}
	return filepath.Join(homeDir, "AppData", "Local")
}
