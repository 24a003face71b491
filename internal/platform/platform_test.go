package platform

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSingleInstanceGuard(t *testing.T) {
	name := "fivephase-test-" + t.Name()
	guard, err := AcquireSingleInstance(name)
	if err != nil {
		t.Skipf("port unavailable: %v", err)
	}

	if _, err := AcquireSingleInstance(name); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second acquire error = %v, want ErrAlreadyRunning", err)
	}
	if err := guard.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := guard.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}

	again, err := AcquireSingleInstance(name)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	_ = again.Release()
}

func TestSingleInstanceRejectsEmptyName(t *testing.T) {
	if _, err := AcquireSingleInstance("  "); err == nil {
		t.Fatal("AcquireSingleInstance accepted an empty name")
	}
}

func TestPortFromNameRange(t *testing.T) {
	tests := []string{"fivephase", "a", "another-app"}
	for _, name := range tests {
		port := portFromName(name)
		if port < 20000 || port > 39999 {
			t.Errorf("portFromName(%q) = %d, out of range", name, port)
		}
		if port != portFromName(name) {
			t.Errorf("portFromName(%q) not deterministic", name)
		}
	}
}

func TestDataDirHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := NewService().GetDataDir("fivephase")
	if err != nil {
		t.Fatalf("GetDataDir: %v", err)
	}
	if want := filepath.Join(dir, "fivephase"); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
	if _, err := NewService().GetDataDir(""); err == nil {
		t.Error("GetDataDir accepted an empty name")
	}
}

func TestDataDirFallsBackToHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("LOCALAPPDATA", "")

	got, err := NewService().GetDataDir("fivephase")
	if err != nil {
		t.Fatalf("GetDataDir: %v", err)
	}
	if want := filepath.Join(fallbackDataDir(home), "fivephase"); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}
