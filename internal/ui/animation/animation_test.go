package animation

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"fivephase/internal/core/model"
	"fivephase/internal/core/scheduler"
)

type stubSource struct {
	mu    sync.Mutex
	frame scheduler.Frame
}

func (source *stubSource) Frame() scheduler.Frame {
	source.mu.Lock()
	defer source.mu.Unlock()
	return source.frame
}

func (source *stubSource) Configuration() model.Configuration {
	return model.DefaultConfiguration()
}

func (source *stubSource) SessionElapsed() time.Duration {
	return 65 * time.Second
}

func (source *stubSource) set(frame scheduler.Frame) {
	source.mu.Lock()
	source.frame = frame
	source.mu.Unlock()
}

func near(a, b Point) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestContrast(t *testing.T) {
	tests := []struct {
		phase int
		want  model.Color
	}{
		{0, black},
		{1, black},
		{2, white},
		{3, black},
		{4, white},
	}
	for _, test := range tests {
		phase := model.Phases[test.phase]
		if got := Contrast(phase.Color); got != test.want {
			t.Errorf("Contrast(%s) = %s, want %s", phase.Name, got.Hex(), test.want.Hex())
		}
	}
}

func TestToneLabel(t *testing.T) {
	if got := ToneLabel(494); got != "Tone: 494 Hz (B4)" {
		t.Errorf("ToneLabel(494) = %q", got)
	}
	if got := ToneLabel(556); got != "Tone: 556 Hz (Db5)" {
		t.Errorf("ToneLabel(556) = %q", got)
	}
}

func TestPentagonGeometry(t *testing.T) {
	center := Point{X: 100, Y: 100}
	vertices := Pentagon(center, 50, 0)
	if !near(vertices[0], Point{X: 100, Y: 50}) {
		t.Errorf("vertex 0 = %+v, want top", vertices[0])
	}
	rotated := Pentagon(center, 50, scheduler.StepDegrees)
	if !near(rotated[0], vertices[1]) {
		t.Errorf("rotating by one step moved vertex 0 to %+v, want %+v", rotated[0], vertices[1])
	}
	if tip := NeedleTip(center, 50, 90); !near(tip, Point{X: 145, Y: 100}) {
		t.Errorf("NeedleTip at 90° = %+v", tip)
	}
}

func TestSceneFor(t *testing.T) {
	frame := scheduler.Frame{
		Started:      true,
		Epoch:        3,
		Phase:        model.Phases[2],
		Segment:      scheduler.Exhale,
		Countdown:    2,
		Rotation:     144,
		Color:        model.Phases[2].Color,
		RotationMode: model.RotationNone,
	}
	scene := SceneFor(frame, model.DefaultConfiguration(), true)
	if scene.ShowNeedle {
		t.Error("needle shown with rotation NONE")
	}
	if scene.Breath != "EXHALE" || scene.BreathLabel != "Exhale" || scene.Countdown != 2 {
		t.Errorf("breath = %q %q %d", scene.Breath, scene.BreathLabel, scene.Countdown)
	}
	if scene.PhaseName != "Peak" || scene.Foreground != white || scene.Epoch != 3 {
		t.Errorf("scene = %+v", scene)
	}

	frame.RotationMode = model.RotationKinetic
	frame.Countdown = -1
	scene = SceneFor(frame, model.DefaultConfiguration(), false)
	if !scene.ShowNeedle || scene.Countdown != 0 || scene.ShowHUD {
		t.Errorf("scene = %+v", scene)
	}
}

func TestTickReportsPhaseChangeOnce(t *testing.T) {
	source := &stubSource{}
	var rendered int
	engine := New(DefaultConfig(), source, func(Scene) { rendered++ })
	var changes []uint64
	engine.SetOnPhaseChange(func(scene Scene) { changes = append(changes, scene.Epoch) })

	engine.Tick()
	source.set(scheduler.Frame{Started: true, Epoch: 1, Phase: model.Phases[0]})
	engine.Tick()
	engine.Tick()
	source.set(scheduler.Frame{Started: true, Epoch: 2, Phase: model.Phases[1]})
	engine.Tick()

	if rendered != 4 {
		t.Errorf("rendered = %d, want 4", rendered)
	}
	if len(changes) != 2 || changes[0] != 1 || changes[1] != 2 {
		t.Errorf("phase changes = %v, want [1 2]", changes)
	}
}

func TestSettingsLines(t *testing.T) {
	engine := New(DefaultConfig(), &stubSource{}, nil)
	lines := engine.Snapshot().SettingsLines()
	want := []string{
		"Breath: Coherent 50/50",
		"Speed: IGNITE (10s loop)",
		"Transition: Soft",
		"Rotation: Continuous",
		"Session: 00:01:05",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestToggleHUD(t *testing.T) {
	engine := New(DefaultConfig(), &stubSource{}, nil)
	if !engine.ShowHUD() {
		t.Fatal("HUD hidden by default")
	}
	if engine.ToggleHUD() || engine.Snapshot().ShowHUD {
		t.Error("ToggleHUD did not hide the HUD")
	}
}

func TestConfigForRate(t *testing.T) {
	if got := ConfigForRate(30).Interval; got != time.Second/30 {
		t.Errorf("ConfigForRate(30) = %v", got)
	}
	if got := ConfigForRate(0).Interval; got != DefaultConfig().Interval {
		t.Errorf("ConfigForRate(0) = %v", got)
	}
}

func TestStartRendersUntilStopped(t *testing.T) {
	frames := make(chan Scene, 64)
	engine := New(Config{Interval: time.Millisecond}, &stubSource{}, func(scene Scene) {
		select {
		case frames <- scene:
		default:
		}
	})
	engine.Start(context.Background())
	defer engine.Stop()

	for i := 0; i < 3; i++ {
		select {
		case <-frames:
		case <-time.After(2 * time.Second):
			t.Fatalf("no render after %d frames", i)
		}
	}
}
