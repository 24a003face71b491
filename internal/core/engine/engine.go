package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fivephase/internal/core/clock"
	"fivephase/internal/core/model"
	"fivephase/internal/core/scheduler"
	"fivephase/internal/core/session"
	"fivephase/internal/core/synth"
)

// ErrNotRunning indicates an operation that needs the generation loop.
var ErrNotRunning = errors.New("engine not running")

// Config contains runtime options for Engine.
type Config struct {
	Logger logrus.FieldLogger
	// StartPaused holds the loop at the first phase until Resume or
	// StartSession.
	StartPaused bool
	// MaxPhases stops the loop after that many phases. Zero runs forever.
	MaxPhases int
}

// Engine owns the generation goroutine: it plans phases, streams them through
// the synthesizer and publishes each phase when its first frame is audible.
type Engine struct {
	mu          sync.Mutex
	scheduler   *scheduler.Scheduler
	synth       *synth.Synth
	gate        *synth.Gate
	clock       *clock.Clock
	accountant  *session.Accountant
	options     Config
	logger      logrus.FieldLogger
	events      []chan Event
	parent      context.Context
	cancel      context.CancelFunc
	phaseCancel context.CancelFunc
	done        chan struct{}
	running     bool
	paused      bool
}

// New creates an Engine. accountant may be nil when sessions are not tracked.
func New(sched *scheduler.Scheduler, syn *synth.Synth, clk *clock.Clock, accountant *session.Accountant, options Config) *Engine {
	logger := options.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &Engine{
		scheduler:  sched,
		synth:      syn,
		gate:       syn.Gate(),
		clock:      clk,
		accountant: accountant,
		options:    options,
		logger:     logger,
	}
}

// Scheduler returns the phase scheduler presenters read from.
func (engine *Engine) Scheduler() *scheduler.Scheduler {
	return engine.scheduler
}

// Accountant returns the session accountant, or nil.
func (engine *Engine) Accountant() *session.Accountant {
	return engine.accountant
}

// Clock returns the logical clock.
func (engine *Engine) Clock() *clock.Clock {
	return engine.clock
}

// Subscribe registers a new observer channel.
func (engine *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	engine.mu.Lock()
	engine.events = append(engine.events, ch)
	engine.mu.Unlock()
	return ch
}

// Start launches the generation loop from the first phase.
func (engine *Engine) Start(ctx context.Context) error {
	return engine.start(ctx, engine.options.StartPaused)
}

func (engine *Engine) start(ctx context.Context, paused bool) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	engine.mu.Lock()
	if engine.running {
		engine.mu.Unlock()
		return nil
	}
	if engine.cancel != nil {
		engine.cancel()
	}
	engine.parent = ctx
	if engine.accountant == nil || !engine.accountant.Active() {
		engine.clock.Reset()
	}
	engine.synth.Reset()
	engine.scheduler.RequestReset()
	engine.scheduler.Clear()

	state := StateRunning
	if paused {
		engine.clock.Pause()
		engine.gate.Pause()
		engine.paused = true
		state = StatePaused
	} else {
		engine.clock.Resume()
		engine.gate.Resume()
		engine.paused = false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	engine.cancel = cancel
	engine.done = make(chan struct{})
	engine.running = true
	done := engine.done
	engine.emitLocked(Event{Type: EventStateChange, State: state, At: time.Now()})
	engine.mu.Unlock()

	go engine.run(loopCtx, done)
	return nil
}

// Stop terminates the loop, waits for it and closes observers.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	cancel := engine.cancel
	done := engine.done
	engine.cancel = nil
	engine.parent = nil
	engine.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	engine.mu.Lock()
	engine.running = false
	events := engine.events
	engine.events = nil
	engine.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Wait blocks until the loop exits on its own or through Stop.
func (engine *Engine) Wait() {
	engine.mu.Lock()
	done := engine.done
	engine.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Running reports whether the loop is alive.
func (engine *Engine) Running() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.running
}

// Paused reports whether generation is suspended.
func (engine *Engine) Paused() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.paused
}

// State returns the current engine state.
func (engine *Engine) State() State {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.stateLocked()
}

// Pause freezes audio and visuals together.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.paused {
		return
	}
	engine.paused = true
	engine.clock.Pause()
	engine.gate.Pause()
	engine.emitLocked(Event{Type: EventStateChange, State: StatePaused, At: time.Now()})
}

// Resume continues audio and visuals from where they were paused. A loop
// stopped by an error stays paused until TogglePause or StartSession
// restarts it.
func (engine *Engine) Resume() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if !engine.paused || !engine.running {
		return
	}
	engine.paused = false
	engine.clock.Resume()
	engine.gate.Resume()
	engine.emitLocked(Event{Type: EventStateChange, State: engine.stateLocked(), At: time.Now()})
}

// TogglePause starts a session when none is active and otherwise flips
// pause, like the play button.
func (engine *Engine) TogglePause() error {
	if engine.accountant != nil && !engine.accountant.Active() {
		return engine.StartSession()
	}
	if !engine.Running() {
		if _, err := engine.restart(); err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		return nil
	}
	if engine.Paused() {
		engine.Resume()
	} else {
		engine.Pause()
	}
	return nil
}

// StartSession restarts the cycle at the first phase, opens a session and
// resumes playback. A loop stopped by a device error is started again first.
func (engine *Engine) StartSession() error {
	restarted, err := engine.restart()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	if engine.accountant != nil {
		if err := engine.accountant.Start(engine.scheduler.Configuration()); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}
	engine.mu.Lock()
	if !restarted {
		engine.scheduler.RequestReset()
		if engine.phaseCancel != nil {
			engine.phaseCancel()
		}
	}
	engine.emitLocked(Event{Type: EventSession, Active: true, State: engine.stateLocked(), At: time.Now()})
	engine.mu.Unlock()
	engine.Resume()
	return nil
}

// StopSession closes the session, pauses playback and returns the record.
func (engine *Engine) StopSession(ctx context.Context) (session.Record, error) {
	if engine.accountant == nil {
		return session.Record{}, session.ErrNoActiveSession
	}
	if !engine.accountant.Active() {
		return session.Record{}, session.ErrNoActiveSession
	}
	engine.Pause()
	record, err := engine.accountant.Stop(ctx)
	engine.emit(Event{
		Type:    EventSession,
		State:   engine.State(),
		Message: record.Summary(),
		At:      time.Now(),
	})
	return record, err
}

// restart brings back a loop that stopped on its own, under the context of
// the last Start, playing from the first phase. It reports whether a new loop
// was launched.
func (engine *Engine) restart() (bool, error) {
	engine.mu.Lock()
	running := engine.running
	parent := engine.parent
	engine.mu.Unlock()
	if running {
		return false, nil
	}
	if parent == nil {
		return false, ErrNotRunning
	}
	if err := engine.start(parent, false); err != nil {
		return false, err
	}
	return true, nil
}

// ResetHistory clears lifetime totals.
func (engine *Engine) ResetHistory(ctx context.Context) error {
	if engine.accountant == nil {
		return nil
	}
	return engine.accountant.Reset(ctx)
}

// SetSpeed changes the speed from the next phase on.
func (engine *Engine) SetSpeed(mode model.SpeedMode) {
	engine.scheduler.SetSpeed(mode)
	engine.reconfigure()
}

// SetBreath changes the breath style from the next phase on.
func (engine *Engine) SetBreath(style model.BreathStyle) {
	engine.scheduler.SetBreath(style)
	engine.reconfigure()
}

// SetTransition changes the transition mode from the next phase on.
func (engine *Engine) SetTransition(mode model.TransitionMode) {
	engine.scheduler.SetTransition(mode)
	engine.reconfigure()
}

// SetRotation changes the rotation mode from the next phase on.
func (engine *Engine) SetRotation(mode model.RotationMode) {
	engine.scheduler.SetRotation(mode)
	engine.reconfigure()
}

func (engine *Engine) reconfigure() {
	config := engine.scheduler.Configuration()
	engine.logger.WithField("config", fmt.Sprintf("%s/%s/%s/%s",
		config.Speed, config.Breath, config.Transition, config.Rotation)).Debug("configuration changed")
	if engine.accountant != nil {
		engine.accountant.Reconfigure(config)
	}
}

func (engine *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	played := 0
	for {
		if ctx.Err() != nil {
			engine.finish(nil)
			return
		}
		if engine.options.MaxPhases > 0 && played >= engine.options.MaxPhases {
			engine.finish(nil)
			return
		}

		// phaseCancel is set before planning so a session start that lands
		// in between either sees the reset in Plan or cancels this phase.
		phaseCtx, cancel := context.WithCancel(ctx)
		engine.mu.Lock()
		engine.phaseCancel = cancel
		engine.mu.Unlock()
		plan := engine.scheduler.Plan()

		err := engine.synth.Play(phaseCtx, toneFor(plan), func() {
			epoch := engine.scheduler.Begin(plan)
			engine.logger.WithFields(logrus.Fields{
				"phase": plan.Phase.Name,
				"epoch": epoch,
			}).Debug("phase started")
			engine.emit(Event{
				Type:  EventPhaseStart,
				State: StateRunning,
				Epoch: epoch,
				Index: plan.Index,
				Phase: plan.Phase,
				At:    time.Now(),
			})
		})

		engine.mu.Lock()
		engine.phaseCancel = nil
		engine.mu.Unlock()
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				engine.finish(nil)
				return
			}
			if errors.Is(err, context.Canceled) {
				continue
			}
			engine.finish(err)
			return
		}
		engine.scheduler.Complete(plan)
		played++
	}
}

// finish marks the loop stopped. After a device error the clock and gate are
// frozen so session time stops accruing until the loop is restarted, and the
// phase that never reached the sink is withdrawn.
func (engine *Engine) finish(err error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.running = false
	if err != nil {
		engine.logger.WithError(err).Error("generation loop stopped")
		engine.clock.Pause()
		engine.gate.Pause()
		engine.scheduler.Clear()
		engine.paused = true
		engine.emitLocked(Event{Type: EventError, State: StateStopped, Err: err, Message: err.Error(), At: time.Now()})
	}
	engine.emitLocked(Event{Type: EventStateChange, State: StateStopped, At: time.Now()})
}

func (engine *Engine) stateLocked() State {
	switch {
	case !engine.running:
		return StateStopped
	case engine.paused:
		return StatePaused
	default:
		return StateRunning
	}
}

func toneFor(plan scheduler.Plan) synth.Tone {
	return synth.Tone{
		Frequency:    plan.Phase.Frequency,
		Frames:       synth.FramesFor(time.Duration(plan.PhaseMs) * time.Millisecond),
		InhaleFrames: synth.FramesFor(time.Duration(plan.InhaleMs) * time.Millisecond),
		Hard:         plan.Hard(),
	}
}

func (engine *Engine) emit(event Event) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.emitLocked(event)
}

func (engine *Engine) emitLocked(event Event) {
	events := append([]chan Event(nil), engine.events...)
	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
