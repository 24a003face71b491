//go:build !linux && !darwin && !windows

package platform

import "path/filepath"

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}

func fallbackDataDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share")
}
