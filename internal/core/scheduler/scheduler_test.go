package scheduler

import (
	"math"
	"sync"
	"testing"
	"time"

	"fivephase/internal/core/clock"
	"fivephase/internal/core/model"
)

type manualSource struct {
	mu  sync.Mutex
	now time.Duration
}

func (source *manualSource) read() time.Duration {
	source.mu.Lock()
	defer source.mu.Unlock()
	return source.now
}

func (source *manualSource) advance(delta time.Duration) {
	source.mu.Lock()
	source.now += delta
	source.mu.Unlock()
}

func newScheduler(config model.Configuration) (*Scheduler, *clock.Clock, *manualSource) {
	source := &manualSource{}
	clk := clock.New(clock.WithSource(source.read))
	return New(clk, config), clk, source
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestInhaleExhaleSumToPhase(t *testing.T) {
	for _, speed := range model.SpeedModes {
		for _, style := range model.BreathStyles {
			phaseMs := speed.PhaseMs()
			inhale := InhaleMs(phaseMs, style.InhaleFraction())
			exhale := phaseMs - inhale
			if inhale < 1 || exhale < 1 {
				t.Errorf("%v/%v: inhale=%d exhale=%d", speed, style, inhale, exhale)
			}
			if inhale+exhale != phaseMs {
				t.Errorf("%v/%v: %d+%d != %d", speed, style, inhale, exhale, phaseMs)
			}
		}
	}
	if got := InhaleMs(2, 0.999); got != 1 {
		t.Errorf("InhaleMs(2, 0.999) = %d, want 1", got)
	}
}

func TestIgniteCoherentScenario(t *testing.T) {
	scheduler, _, source := newScheduler(model.DefaultConfiguration())
	plan := scheduler.Plan()
	if plan.PhaseMs != 2000 || plan.InhaleMs != 1000 {
		t.Fatalf("plan = %+v, want 2000/1000", plan)
	}
	scheduler.Begin(plan)
	source.advance(1500 * time.Millisecond)

	frame := scheduler.Frame()
	if frame.Segment != Exhale {
		t.Errorf("Segment = %v, want EXHALE", frame.Segment)
	}
	if frame.Countdown != 1 {
		t.Errorf("Countdown = %d, want 1", frame.Countdown)
	}
	if frame.Phase.Name != "Origin" {
		t.Errorf("Phase = %q, want Origin", frame.Phase.Name)
	}
}

func TestBreathAtBoundaries(t *testing.T) {
	tests := []struct {
		elapsed   int64
		segment   BreathSegment
		countdown int
	}{
		{0, Inhale, 3},
		{2399, Inhale, 1},
		{2400, Exhale, 2},
		{4000, Exhale, 0},
		{9000, Exhale, 0},
	}
	for _, tt := range tests {
		segment, countdown := BreathAt(4000, 2400, tt.elapsed)
		if segment != tt.segment || countdown != tt.countdown {
			t.Errorf("BreathAt(4000, 2400, %d) = %v/%d, want %v/%d",
				tt.elapsed, segment, countdown, tt.segment, tt.countdown)
		}
	}
}

func TestSoftColorEndpoints(t *testing.T) {
	state := &Runtime{Plan: Plan{
		Phase:      model.Phases[0],
		Next:       model.Phases[1],
		PhaseMs:    2000,
		Transition: model.TransitionSoft,
	}}
	if got := ColorAt(state, 0); got != model.Phases[0].Color {
		t.Errorf("ColorAt(0) = %v, want current", got)
	}
	if got := ColorAt(state, 1600); got != model.Phases[0].Color {
		t.Errorf("ColorAt(fade start) = %v, want current", got)
	}
	mid := ColorAt(state, 1800)
	if mid == model.Phases[0].Color || mid == model.Phases[1].Color {
		t.Errorf("ColorAt(1800) = %v, want a blend", mid)
	}
	if got := ColorAt(state, 2000); got != model.Phases[1].Color {
		t.Errorf("ColorAt(phase) = %v, want next", got)
	}
}

func TestSoftFadeWindowIsCapped(t *testing.T) {
	state := &Runtime{Plan: Plan{
		Phase:      model.Phases[2],
		Next:       model.Phases[3],
		PhaseMs:    24000,
		Transition: model.TransitionSoft,
	}}
	if got := ColorAt(state, 23400); got != model.Phases[2].Color {
		t.Errorf("ColorAt(23400) = %v, want current", got)
	}
	if got := ColorAt(state, 23500); got == model.Phases[2].Color {
		t.Errorf("ColorAt(23500) still current, want fade started")
	}
}

func TestHardColorAtBoundary(t *testing.T) {
	state := &Runtime{Plan: Plan{
		Phase:      model.Phases[3],
		Next:       model.Phases[4],
		PhaseMs:    2000,
		Transition: model.TransitionHard,
	}}
	for _, elapsed := range []float64{0, 1999, 2000, 2500} {
		if got := ColorAt(state, elapsed); got != model.Phases[3].Color {
			t.Errorf("ColorAt(%v) = %v, want current", elapsed, got)
		}
	}
}

func TestRotationEndpoints(t *testing.T) {
	for _, mode := range []model.RotationMode{model.RotationContinuous, model.RotationKinetic} {
		state := &Runtime{Plan: Plan{PhaseMs: 4000, Rotation: mode, RotStart: 288, RotTarget: 0}}
		if got := RotationAt(state, 0); !almostEqual(got, 288) {
			t.Errorf("%v: RotationAt(0) = %v, want 288", mode, got)
		}
		if got := RotationAt(state, 4000); !almostEqual(got, 0) {
			t.Errorf("%v: RotationAt(phase) = %v, want 0", mode, got)
		}
	}
}

func TestKineticHoldIsContinuous(t *testing.T) {
	state := &Runtime{Plan: Plan{PhaseMs: 6000, Rotation: model.RotationKinetic, RotStart: 72, RotTarget: 144}}
	before := RotationAt(state, KineticWindowMs-0.001)
	at := RotationAt(state, KineticWindowMs)
	after := RotationAt(state, 3000)
	if math.Abs(before-at) > 1e-3 {
		t.Errorf("jump at hold: %v -> %v", before, at)
	}
	if !almostEqual(at, 144) || !almostEqual(after, 144) {
		t.Errorf("hold = %v/%v, want 144", at, after)
	}
}

func TestRotationNoneHoldsAngle(t *testing.T) {
	state := &Runtime{Plan: Plan{PhaseMs: 2000, Rotation: model.RotationNone, RotStart: 144, RotTarget: 144}}
	if got := RotationAt(state, 1000); got != 144 {
		t.Errorf("RotationAt = %v, want 144", got)
	}
}

func TestLerpDegreesShortestPath(t *testing.T) {
	tests := []struct {
		a, b, t, want float64
	}{
		{350, 10, 0.5, 0},
		{10, 350, 0.5, 0},
		{0, 72, 0.5, 36},
		{0, 72, 0, 0},
		{0, 72, 1, 72},
	}
	for _, tt := range tests {
		if got := LerpDegrees(tt.a, tt.b, tt.t); !almostEqual(got, tt.want) {
			t.Errorf("LerpDegrees(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.t, got, tt.want)
		}
	}
}

func TestNormalizeDegreesRange(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{360, 0},
		{-72, 288},
		{432, 72},
		{-1e-17, 0},
		{-720, 0},
	}
	for _, tt := range tests {
		got := normalizeDegrees(tt.in)
		if got < 0 || got >= 360 || !almostEqual(got, tt.want) {
			t.Errorf("normalizeDegrees(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPlanAdvancesAndWraps(t *testing.T) {
	scheduler, _, _ := newScheduler(model.DefaultConfiguration())
	for i := 0; i < model.PhaseCount; i++ {
		plan := scheduler.Plan()
		if plan.Index != i {
			t.Fatalf("step %d: Index = %d", i, plan.Index)
		}
		scheduler.Begin(plan)
		scheduler.Complete(plan)
	}
	plan := scheduler.Plan()
	if plan.Index != 0 {
		t.Errorf("after full cycle Index = %d, want 0", plan.Index)
	}
	if !almostEqual(plan.RotStart, 0) {
		t.Errorf("after full cycle angle = %v, want 0", plan.RotStart)
	}
	if scheduler.Epoch() != model.PhaseCount {
		t.Errorf("Epoch = %d, want %d", scheduler.Epoch(), model.PhaseCount)
	}
}

func TestRotationNoneDoesNotAdvanceAngle(t *testing.T) {
	config := model.DefaultConfiguration()
	config.Rotation = model.RotationNone
	scheduler, _, _ := newScheduler(config)
	plan := scheduler.Plan()
	if plan.RotTarget != plan.RotStart {
		t.Fatalf("target %v != start %v", plan.RotTarget, plan.RotStart)
	}
	scheduler.Complete(plan)
	if got := scheduler.Plan().RotStart; got != 0 {
		t.Errorf("angle = %v, want 0", got)
	}
}

func TestRequestResetRestartsCycle(t *testing.T) {
	scheduler, _, _ := newScheduler(model.DefaultConfiguration())
	for i := 0; i < 3; i++ {
		plan := scheduler.Plan()
		scheduler.Complete(plan)
	}
	scheduler.RequestReset()
	if frame := scheduler.Frame(); frame.Index != 0 || frame.Started {
		t.Errorf("idle frame = %+v, want index 0 not started", frame)
	}
	plan := scheduler.Plan()
	if plan.Index != 0 || plan.RotStart != 0 {
		t.Errorf("plan after reset = %+v", plan)
	}
}

func TestReconfigureKeepsPhaseInProgress(t *testing.T) {
	scheduler, _, source := newScheduler(model.DefaultConfiguration())
	plan := scheduler.Plan()
	scheduler.Begin(plan)
	scheduler.SetSpeed(model.SpeedTranscend)
	scheduler.SetTransition(model.TransitionHard)
	source.advance(500 * time.Millisecond)

	frame := scheduler.Frame()
	if frame.Transition != model.TransitionSoft {
		t.Errorf("Transition = %v, want SOFT for the running phase", frame.Transition)
	}
	if frame.Segment != Inhale || frame.Countdown != 1 {
		t.Errorf("frame = %v/%d, want INHALE/1", frame.Segment, frame.Countdown)
	}
	scheduler.Complete(plan)
	if next := scheduler.Plan(); next.PhaseMs != 24000 || !next.Hard() {
		t.Errorf("next plan = %+v, want TRANSCEND hard", next)
	}
}

func TestFrameFreezesWhilePaused(t *testing.T) {
	scheduler, clk, source := newScheduler(model.DefaultConfiguration())
	scheduler.Begin(scheduler.Plan())
	source.advance(400 * time.Millisecond)
	clk.Pause()
	source.advance(5 * time.Second)
	if got := scheduler.Frame().Elapsed; got != 400*time.Millisecond {
		t.Errorf("Elapsed while paused = %v, want 400ms", got)
	}
	clk.Resume()
	source.advance(100 * time.Millisecond)
	if got := scheduler.Frame().Elapsed; got != 500*time.Millisecond {
		t.Errorf("Elapsed after resume = %v, want 500ms", got)
	}
}
