package animation

import (
	"context"
	"sync"
	"time"

	"fivephase/internal/core/model"
	"fivephase/internal/core/scheduler"
)

// Config contains presentation refresh values.
type Config struct {
	Interval time.Duration
	ShowHUD  bool
}

// FrameSource is polled once per refresh. It must never block.
type FrameSource interface {
	Frame() scheduler.Frame
	Configuration() model.Configuration
	SessionElapsed() time.Duration
}

// Engine polls a FrameSource at a fixed rate and hands scenes to a renderer.
// It only reads, so a slow renderer never delays audio.
type Engine struct {
	mu        sync.Mutex
	config    Config
	source    FrameSource
	render    func(Scene)
	onPhase   func(Scene)
	cancel    context.CancelFunc
	lastEpoch uint64
}

// New creates a new refresh engine.
func New(config Config, source FrameSource, render func(Scene)) *Engine {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	return &Engine{
		config: config,
		source: source,
		render: render,
	}
}

// Start begins refreshing until ctx ends or Stop is called.
func (engine *Engine) Start(ctx context.Context) {
	engine.start(ctx, func(runCtx context.Context) {
		ticker := time.NewTicker(engine.config.Interval)
		defer ticker.Stop()
		engine.Tick()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				engine.Tick()
			}
		}
	})
}

// Stop terminates refreshing.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	if engine.cancel != nil {
		engine.cancel()
		engine.cancel = nil
	}
}

// SetOnPhaseChange sets a callback fired on the first refresh of every phase.
func (engine *Engine) SetOnPhaseChange(handler func(Scene)) {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.onPhase = handler
}

// ShowHUD reports whether the HUD is visible.
func (engine *Engine) ShowHUD() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.config.ShowHUD
}

// ToggleHUD flips HUD visibility and returns the new value.
func (engine *Engine) ToggleHUD() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.config.ShowHUD = !engine.config.ShowHUD
	return engine.config.ShowHUD
}

// Snapshot computes the current scene without rendering it.
func (engine *Engine) Snapshot() Scene {
	scene := SceneFor(engine.source.Frame(), engine.source.Configuration(), engine.ShowHUD())
	scene.Session = engine.source.SessionElapsed()
	return scene
}

// Tick renders one scene and reports a phase change when the epoch moved.
func (engine *Engine) Tick() Scene {
	scene := engine.Snapshot()

	engine.mu.Lock()
	handler := engine.onPhase
	changed := scene.Started && scene.Epoch != engine.lastEpoch
	if changed {
		engine.lastEpoch = scene.Epoch
	}
	engine.mu.Unlock()

	if changed && handler != nil {
		handler(scene)
	}
	if engine.render != nil {
		engine.render(scene)
	}
	return scene
}

func (engine *Engine) start(parent context.Context, run func(context.Context)) {
	engine.mu.Lock()
	if engine.cancel != nil {
		engine.cancel()
	}
	runCtx, cancel := context.WithCancel(parent)
	engine.cancel = cancel
	engine.mu.Unlock()

	go run(runCtx)
}
