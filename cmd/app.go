package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"fivephase/internal/audio"
	"fivephase/internal/core/clock"
	"fivephase/internal/core/engine"
	"fivephase/internal/core/model"
	"fivephase/internal/core/scheduler"
	"fivephase/internal/core/session"
	"fivephase/internal/core/synth"
	"fivephase/internal/platform"
	"fivephase/internal/storage"
	"fivephase/internal/ui/animation"
	"fivephase/internal/ui/preferences"
)

func newLogger(level string, out io.Writer) (*logrus.Logger, error) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(parsed)
	return logger, nil
}

func resolveDataDir(opts *options) (string, error) {
	if opts.dataDir != "" {
		return opts.dataDir, nil
	}
	dir, err := platform.NewService().GetDataDir(appName)
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return dir, nil
}

func openHistory(opts *options) (*storage.History, error) {
	dir, err := resolveDataDir(opts)
	if err != nil {
		return nil, err
	}
	return storage.OpenHistory(storage.HistoryPath(dir))
}

// loadSettings never fails: a broken file is logged and defaults are used.
func loadSettings(opts *options) preferences.Settings {
	settings, err := storage.LoadSettings(appName)
	if err != nil {
		opts.logger.WithError(err).Warn("using default settings")
	}
	if !opts.logLevelSet && settings.LogLevel != "" {
		if level, err := logrus.ParseLevel(settings.LogLevel); err == nil {
			opts.logger.SetLevel(level)
		} else {
			opts.logger.WithField("level", settings.LogLevel).Warn("ignoring unknown log level in settings")
		}
	}
	return settings
}

// runtime bundles what an interactive presenter needs: the engine playing to
// the audio device and the persistent history behind its accountant.
type runtime struct {
	logger   *logrus.Logger
	settings preferences.Settings
	history  *storage.History // nil when history is kept in memory
	device   *audio.Device
	engine   *engine.Engine
}

func openRuntime(ctx context.Context, opts *options) (*runtime, error) {
	settings := loadSettings(opts)
	logger := opts.logger

	// Without a usable history database sessions are still counted, in
	// memory only.
	var store session.HistoryStore
	history, err := openHistory(opts)
	if err != nil {
		logger.WithError(err).Warn("session history unavailable, keeping it in memory")
	} else {
		store = history
	}

	clk := clock.New()
	accountant := session.New(store, clk.Now, session.WithLogger(logger))
	if err := accountant.Restore(ctx); err != nil {
		logger.WithError(err).Warn("session history unavailable")
	}

	device, err := audio.OpenDevice(audio.DeviceOptions{})
	if err != nil {
		if history != nil {
			_ = history.Close()
		}
		return nil, err
	}

	sched := scheduler.New(clk, settings.Configuration())
	eng := engine.New(sched, synth.New(device, synth.NewGate()), clk, accountant, engine.Config{
		Logger:      logger,
		StartPaused: true,
	})

	logger.WithField("settings", settings.String()).Info("runtime ready")
	return &runtime{
		logger:   logger,
		settings: settings,
		history:  history,
		device:   device,
		engine:   eng,
	}, nil
}

// Close ends a running session, stops the engine, persists settings and
// releases the device and database.
func (rt *runtime) Close(ctx context.Context) {
	if rt.engine.Accountant().Active() {
		record, err := rt.engine.StopSession(ctx)
		if err != nil {
			rt.logger.WithError(err).Warn("failed to save session")
		} else {
			rt.logger.WithField("session", record.Summary()).Info("session saved")
		}
	}
	rt.engine.Stop()

	rt.settings = rt.settings.WithConfiguration(rt.engine.Scheduler().Configuration())
	if err := storage.SaveSettings(appName, rt.settings); err != nil {
		rt.logger.WithError(err).Warn("failed to save settings")
	}
	if err := rt.device.Close(); err != nil {
		rt.logger.WithError(err).Debug("close audio device")
	}
	if rt.history == nil {
		return
	}
	if err := rt.history.Close(); err != nil {
		rt.logger.WithError(err).Warn("close history")
	}
}

func (rt *runtime) animationConfig() animation.Config {
	config := animation.ConfigForRate(rt.settings.RefreshRate)
	config.ShowHUD = rt.settings.ShowHUD
	return config
}

// sceneSource exposes the engine to the animation loop.
type sceneSource struct {
	engine *engine.Engine
}

func (source sceneSource) Frame() scheduler.Frame {
	return source.engine.Scheduler().Frame()
}

func (source sceneSource) Configuration() model.Configuration {
	return source.engine.Scheduler().Configuration()
}

func (source sceneSource) SessionElapsed() time.Duration {
	if accountant := source.engine.Accountant(); accountant != nil {
		return accountant.Live()
	}
	return 0
}

func applyConfiguration(eng *engine.Engine, config model.Configuration) {
	current := eng.Scheduler().Configuration()
	if config.Speed != current.Speed {
		eng.SetSpeed(config.Speed)
	}
	if config.Breath != current.Breath {
		eng.SetBreath(config.Breath)
	}
	if config.Transition != current.Transition {
		eng.SetTransition(config.Transition)
	}
	if config.Rotation != current.Rotation {
		eng.SetRotation(config.Rotation)
	}
}
