package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fivephase/internal/core/model"
	"fivephase/internal/core/session"
	"fivephase/internal/ui/preferences"
)

func openHistory(t *testing.T) *History {
	t.Helper()
	history, err := OpenHistory(HistoryPath(filepath.Join(t.TempDir(), "data")))
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	t.Cleanup(func() { _ = history.Close() })
	return history
}

func sampleRecord(id string, started time.Time) session.Record {
	calm := model.DefaultConfiguration()
	calm.Breath = model.BreathDeepCalm
	calm.Speed = model.SpeedZen
	return session.Record{
		ID:        id,
		StartedAt: started,
		EndedAt:   started.Add(5 * time.Second),
		Duration:  5 * time.Second,
		Config:    calm,
		Segments: []session.Segment{
			{Start: 0, Duration: 2 * time.Second, Config: model.DefaultConfiguration()},
			{Start: 2 * time.Second, Duration: 3 * time.Second, Config: calm},
		},
	}
}

func TestHistoryEmptyLoad(t *testing.T) {
	history := openHistory(t)
	loaded, err := history.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Totals.Sessions != 0 || loaded.Totals.Total != 0 || loaded.Last != nil {
		t.Errorf("Load() = %+v, want empty", loaded)
	}
}

func TestHistorySaveAndLoad(t *testing.T) {
	history := openHistory(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

	if err := history.Save(ctx, sampleRecord("a", started)); err != nil {
		t.Fatalf("Save a: %v", err)
	}
	if err := history.Save(ctx, sampleRecord("b", started.Add(time.Hour))); err != nil {
		t.Fatalf("Save b: %v", err)
	}

	loaded, err := history.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	totals := loaded.Totals
	if totals.Sessions != 2 || totals.Total != 10*time.Second {
		t.Errorf("totals = %d sessions %v, want 2 sessions 10s", totals.Sessions, totals.Total)
	}
	if got := totals.ByBreath[model.BreathCoherent]; got != 4*time.Second {
		t.Errorf("ByBreath[COHERENT] = %v, want 4s", got)
	}
	if got := totals.ByBreath[model.BreathDeepCalm]; got != 6*time.Second {
		t.Errorf("ByBreath[DEEP_CALM] = %v, want 6s", got)
	}
	if got := totals.BySpeed[model.SpeedZen]; got != 6*time.Second {
		t.Errorf("BySpeed[ZEN] = %v, want 6s", got)
	}

	last := loaded.Last
	if last == nil || last.ID != "b" {
		t.Fatalf("Last = %+v, want record b", last)
	}
	if !last.StartedAt.Equal(started.Add(time.Hour)) {
		t.Errorf("StartedAt = %v", last.StartedAt)
	}
	if last.Config.Breath != model.BreathDeepCalm || len(last.Segments) != 2 {
		t.Errorf("last = %+v", last)
	}
	if last.Segments[1].Start != 2*time.Second || last.Segments[1].Config.Speed != model.SpeedZen {
		t.Errorf("segment = %+v", last.Segments[1])
	}
}

func TestHistoryTotalsFallBackToDuration(t *testing.T) {
	history := openHistory(t)
	ctx := context.Background()
	record := session.Record{
		ID:        "bare",
		StartedAt: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Duration:  7 * time.Second,
		Config:    model.DefaultConfiguration(),
	}
	if err := history.Save(ctx, record); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := history.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Totals.Total != 7*time.Second {
		t.Errorf("Total = %v, want 7s", loaded.Totals.Total)
	}
}

func TestHistoryDuplicateIDRollsBack(t *testing.T) {
	history := openHistory(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	if err := history.Save(ctx, sampleRecord("dup", started)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := history.Save(ctx, sampleRecord("dup", started)); err == nil {
		t.Fatal("second Save with the same id succeeded")
	}
	loaded, err := history.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Totals.Sessions != 1 || loaded.Totals.ByBreath[model.BreathDeepCalm] != 3*time.Second {
		t.Errorf("totals = %+v", loaded.Totals)
	}
}

func TestHistoryReset(t *testing.T) {
	history := openHistory(t)
	ctx := context.Background()
	if err := history.Save(ctx, sampleRecord("a", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := history.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	loaded, err := history.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Totals.Sessions != 0 || loaded.Last != nil {
		t.Errorf("Load() after Reset = %+v", loaded)
	}
}

func TestHistoryRecent(t *testing.T) {
	history := openHistory(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := history.Save(ctx, sampleRecord(id, started.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}
	records, err := history.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 || records[0].ID != "c" || records[1].ID != "b" {
		t.Errorf("Recent() ids = %v", records)
	}
}

func TestHistoryBacksAccountant(t *testing.T) {
	history := openHistory(t)
	ctx := context.Background()
	var now time.Duration
	accountant := session.New(history, func() time.Duration { return now })

	if err := accountant.Start(model.DefaultConfiguration()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	now = 3 * time.Second
	if _, err := accountant.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	restored := session.New(history, func() time.Duration { return 0 })
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := restored.Lifetime().Total; got != 3*time.Second {
		t.Errorf("Lifetime().Total = %v, want 3s", got)
	}
	if restored.Last() == nil {
		t.Error("Last() = nil after restore")
	}
}

func setConfigHome(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("AppData", dir)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	setConfigHome(t)
	settings, err := LoadSettings("fivephase-test")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings != preferences.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	setConfigHome(t)
	settings := preferences.DefaultSettings()
	settings.Speed = model.SpeedHarmony
	settings.Breath = model.BreathRelaxed
	settings.Transition = model.TransitionHard
	settings.Rotation = model.RotationNone
	settings.RefreshRate = 30
	settings.ShowHUD = false
	settings.Fullscreen = true
	settings.LogLevel = "debug"

	if err := SaveSettings("fivephase-test", settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	loaded, err := LoadSettings("fivephase-test")
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded != settings {
		t.Errorf("loaded = %+v, want %+v", loaded, settings)
	}
}

func TestApplyYamlSettingsKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	raw := "speed: WARP\nbreath: relaxed\nrotation: kinetic\nrefresh_rate: 5000\nlog_level: \" WARN \"\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	settings, err := loadSettingsFile(path, preferences.DefaultSettings())
	if err != nil {
		t.Fatalf("loadSettingsFile: %v", err)
	}
	defaults := preferences.DefaultSettings()
	if settings.Speed != defaults.Speed {
		t.Errorf("Speed = %v, want default %v", settings.Speed, defaults.Speed)
	}
	if settings.Breath != model.BreathRelaxed || settings.Rotation != model.RotationKinetic {
		t.Errorf("modes = %v %v", settings.Breath, settings.Rotation)
	}
	if settings.RefreshRate != defaults.RefreshRate {
		t.Errorf("RefreshRate = %d, want %d", settings.RefreshRate, defaults.RefreshRate)
	}
	if !settings.ShowHUD {
		t.Error("ShowHUD = false without a show_hud key")
	}
	if settings.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", settings.LogLevel)
	}
}

func TestLoadSettingsRejectsBrokenYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	if err := os.WriteFile(path, []byte("speed: [unterminated"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	settings, err := loadSettingsFile(path, preferences.DefaultSettings())
	if err == nil {
		t.Fatal("loadSettingsFile accepted broken yaml")
	}
	if settings != preferences.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults on error", settings)
	}
}
