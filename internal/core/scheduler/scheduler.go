package scheduler

import (
	"math"
	"sync/atomic"
	"time"

	"fivephase/internal/core/clock"
	"fivephase/internal/core/model"
)

// BreathSegment is the inhale or exhale part of a phase.
type BreathSegment int

const (
	Inhale BreathSegment = iota
	Exhale
)

func (segment BreathSegment) String() string {
	if segment == Exhale {
		return "EXHALE"
	}
	return "INHALE"
}

// Plan describes the next phase to synthesize.
type Plan struct {
	Index      int
	Phase      model.Phase
	Next       model.Phase
	PhaseMs    int64
	InhaleMs   int64
	Transition model.TransitionMode
	Rotation   model.RotationMode
	RotStart   float64
	RotTarget  float64
}

// Hard reports whether the plan uses hard transitions.
func (plan Plan) Hard() bool {
	return plan.Transition == model.TransitionHard
}

// InhaleFraction returns the inhale share of the phase.
func (plan Plan) InhaleFraction() float64 {
	if plan.PhaseMs <= 0 {
		return 0
	}
	return float64(plan.InhaleMs) / float64(plan.PhaseMs)
}

// Runtime is the published state of the phase in progress. It is immutable
// once published.
type Runtime struct {
	Plan
	Epoch  uint64
	anchor *clock.Anchor
}

// Frame is everything a presenter needs, computed from one runtime snapshot
// and one clock read.
type Frame struct {
	Started      bool
	Epoch        uint64
	Index        int
	Phase        model.Phase
	Next         model.Phase
	Elapsed      time.Duration
	Segment      BreathSegment
	Countdown    int
	Rotation     float64
	Color        model.Color
	Transition   model.TransitionMode
	RotationMode model.RotationMode
}

// Scheduler decides which phase comes next and derives the presentation
// state of the phase in progress.
type Scheduler struct {
	anchors    [2]*clock.Anchor
	speed      atomic.Int32
	breath     atomic.Int32
	transition atomic.Int32
	rotation   atomic.Int32
	index      atomic.Int32
	angle      atomic.Uint64
	reset      atomic.Bool
	epoch      atomic.Uint64
	runtime    atomic.Pointer[Runtime]
}

// New creates a Scheduler reading time from clk.
func New(clk *clock.Clock, config model.Configuration) *Scheduler {
	scheduler := &Scheduler{
		anchors: [2]*clock.Anchor{clk.Anchor(), clk.Anchor()},
	}
	scheduler.SetConfiguration(config)
	return scheduler
}

// SetSpeed changes the speed used from the next plan on.
func (scheduler *Scheduler) SetSpeed(mode model.SpeedMode) {
	scheduler.speed.Store(int32(mode))
}

// SetBreath changes the breath style used from the next plan on.
func (scheduler *Scheduler) SetBreath(style model.BreathStyle) {
	scheduler.breath.Store(int32(style))
}

// SetTransition changes the transition mode used from the next plan on.
func (scheduler *Scheduler) SetTransition(mode model.TransitionMode) {
	scheduler.transition.Store(int32(mode))
}

// SetRotation changes the rotation mode used from the next plan on.
func (scheduler *Scheduler) SetRotation(mode model.RotationMode) {
	scheduler.rotation.Store(int32(mode))
}

// SetConfiguration stores every axis.
func (scheduler *Scheduler) SetConfiguration(config model.Configuration) {
	scheduler.SetSpeed(config.Speed)
	scheduler.SetBreath(config.Breath)
	scheduler.SetTransition(config.Transition)
	scheduler.SetRotation(config.Rotation)
}

// Configuration returns the live configuration.
func (scheduler *Scheduler) Configuration() model.Configuration {
	return model.Configuration{
		Speed:      model.SpeedMode(scheduler.speed.Load()),
		Breath:     model.BreathStyle(scheduler.breath.Load()),
		Transition: model.TransitionMode(scheduler.transition.Load()),
		Rotation:   model.RotationMode(scheduler.rotation.Load()),
	}
}

// RequestReset makes the next plan restart at phase zero with angle zero.
func (scheduler *Scheduler) RequestReset() {
	scheduler.reset.Store(true)
}

// Plan derives the next phase from the live configuration.
func (scheduler *Scheduler) Plan() Plan {
	if scheduler.reset.Swap(false) {
		scheduler.index.Store(0)
		scheduler.storeAngle(0)
	}
	return scheduler.peek()
}

func (scheduler *Scheduler) peek() Plan {
	config := scheduler.Configuration()
	index := model.WrapIndex(int(scheduler.index.Load()))
	start := scheduler.loadAngle()
	if scheduler.reset.Load() {
		index = 0
		start = 0
	}
	phaseMs := config.Speed.PhaseMs()
	target := start
	if config.Rotation != model.RotationNone {
		target = normalizeDegrees(start + StepDegrees)
	}
	return Plan{
		Index:      index,
		Phase:      model.PhaseAt(index),
		Next:       model.PhaseAt(index + 1),
		PhaseMs:    phaseMs,
		InhaleMs:   InhaleMs(phaseMs, config.Breath.InhaleFraction()),
		Transition: config.Transition,
		Rotation:   config.Rotation,
		RotStart:   start,
		RotTarget:  target,
	}
}

// Begin publishes plan as the phase in progress. It is called when the
// first audible frame of the phase reaches the sink.
func (scheduler *Scheduler) Begin(plan Plan) uint64 {
	epoch := scheduler.epoch.Add(1)
	anchor := scheduler.anchors[epoch%2]
	anchor.Mark()
	scheduler.runtime.Store(&Runtime{Plan: plan, Epoch: epoch, anchor: anchor})
	return epoch
}

// Complete advances past plan once its audio has been fully written.
func (scheduler *Scheduler) Complete(plan Plan) {
	scheduler.index.Store(int32(model.WrapIndex(plan.Index + 1)))
	if plan.Rotation != model.RotationNone {
		scheduler.storeAngle(plan.RotTarget)
	}
}

// Clear forgets the published runtime so presenters fall back to the idle
// frame.
func (scheduler *Scheduler) Clear() {
	scheduler.runtime.Store(nil)
}

// Runtime returns the published phase state, or nil before the first phase.
func (scheduler *Scheduler) Runtime() *Runtime {
	return scheduler.runtime.Load()
}

// Epoch returns the number of phases started so far.
func (scheduler *Scheduler) Epoch() uint64 {
	return scheduler.epoch.Load()
}

// BreathSegment returns the current breath segment.
func (scheduler *Scheduler) BreathSegment() BreathSegment {
	return scheduler.Frame().Segment
}

// Countdown returns the whole seconds left in the current breath segment.
func (scheduler *Scheduler) Countdown() int {
	return scheduler.Frame().Countdown
}

// RotationDegrees returns the current marker angle in [0,360).
func (scheduler *Scheduler) RotationDegrees() float64 {
	return scheduler.Frame().Rotation
}

// DisplayColor returns the current background color.
func (scheduler *Scheduler) DisplayColor() model.Color {
	return scheduler.Frame().Color
}

// Frame computes the full presentation state at the current instant.
func (scheduler *Scheduler) Frame() Frame {
	state := scheduler.runtime.Load()
	if state == nil {
		return scheduler.idleFrame()
	}
	elapsed := state.anchor.Since()
	return FrameAt(state, elapsed)
}

// FrameAt computes the presentation state for a runtime after elapsed.
func FrameAt(state *Runtime, elapsed time.Duration) Frame {
	elapsedMs := float64(elapsed) / float64(time.Millisecond)
	segment, remaining := BreathAt(state.PhaseMs, state.InhaleMs, elapsed.Milliseconds())
	return Frame{
		Started:      true,
		Epoch:        state.Epoch,
		Index:        state.Index,
		Phase:        state.Phase,
		Next:         state.Next,
		Elapsed:      elapsed,
		Segment:      segment,
		Countdown:    remaining,
		Rotation:     RotationAt(state, elapsedMs),
		Color:        ColorAt(state, elapsedMs),
		Transition:   state.Transition,
		RotationMode: state.Rotation,
	}
}

func (scheduler *Scheduler) idleFrame() Frame {
	plan := scheduler.peek()
	segment, remaining := BreathAt(plan.PhaseMs, plan.InhaleMs, 0)
	return Frame{
		Index:        plan.Index,
		Phase:        plan.Phase,
		Next:         plan.Next,
		Segment:      segment,
		Countdown:    remaining,
		Rotation:     normalizeDegrees(plan.RotStart),
		Color:        plan.Phase.Color,
		Transition:   plan.Transition,
		RotationMode: plan.Rotation,
	}
}

func (scheduler *Scheduler) loadAngle() float64 {
	return math.Float64frombits(scheduler.angle.Load())
}

func (scheduler *Scheduler) storeAngle(deg float64) {
	scheduler.angle.Store(math.Float64bits(deg))
}
