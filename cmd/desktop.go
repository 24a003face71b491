package main

import (
	"context"
	"fmt"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/sirupsen/logrus"

	"fivephase/internal/core/engine"
	"fivephase/internal/platform"
	"fivephase/internal/storage"
	"fivephase/internal/ui/animation"
	"fivephase/internal/ui/control"
	"fivephase/internal/ui/preferences"
	"fivephase/internal/ui/stage"
	"fivephase/internal/ui/tray"
	"fivephase/resources"
)

func runDesktop(ctx context.Context, opts *options) error {
	guard, err := platform.AcquireSingleInstance(appName)
	if err != nil {
		return fmt.Errorf("single instance: %w", err)
	}
	defer func() {
		_ = guard.Release()
	}()

	rt, err := openRuntime(ctx, opts)
	if err != nil {
		return err
	}
	logger := rt.logger
	eng := rt.engine
	accountant := eng.Accountant()

	fyneApp := app.NewWithID(appID)
	fyneApp.SetIcon(resources.ActiveIcon())
	desktopApp, ok := fyneApp.(desktop.App)
	if !ok {
		logger.Info("system tray unsupported on this platform")
	}
	setTrayIcon := func(icon fyne.Resource) {
		if desktopApp != nil {
			desktopApp.SetSystemTrayIcon(icon)
		}
	}

	stageWindow := stage.New(fyneApp, stage.Config{
		Fullscreen: rt.settings.Fullscreen,
		Title:      displayName,
	})
	animationEngine := animation.New(rt.animationConfig(), sceneSource{engine: eng}, stageWindow.Render)

	var trayManager *tray.Manager
	var prefsWindow *preferences.Window

	var quitOnce sync.Once
	quit := func() {
		quitOnce.Do(func() {
			animationEngine.Stop()
			rt.settings.ShowHUD = animationEngine.ShowHUD()
			rt.settings.Fullscreen = stageWindow.Fullscreen()
			rt.Close(ctx)
			fyneApp.Quit()
		})
	}

	handleCommand := func(command control.Command) {
		switch command.Kind {
		case control.ToggleHUD:
			animationEngine.ToggleHUD()
			return
		case control.ToggleFullscreen:
			stageWindow.SetFullscreen(!stageWindow.Fullscreen())
			return
		case control.Escape, control.Quit:
			quit()
			return
		}
		if _, err := control.Apply(ctx, eng, command); err != nil {
			logger.WithError(err).Warn("command failed")
		}
		trayManager.SetConfiguration(eng.Scheduler().Configuration())
	}
	stageWindow.SetOnCommand(handleCommand)

	prefsWindow = preferences.New(fyneApp, rt.settings, func(updated preferences.Settings) {
		rt.settings = updated
		applyConfiguration(eng, updated.Configuration())
		if animationEngine.ShowHUD() != updated.ShowHUD {
			animationEngine.ToggleHUD()
		}
		stageWindow.SetFullscreen(updated.Fullscreen)
		trayManager.SetConfiguration(updated.Configuration())
		if err := storage.SaveSettings(appName, updated); err != nil {
			logger.WithError(err).Warn("failed to save settings")
		}
		logger.WithField("settings", updated.String()).Info("settings saved")
	})
	prefsWindow.SetOnReset(func() {
		if err := eng.ResetHistory(ctx); err != nil {
			logger.WithError(err).Warn("failed to reset history")
		}
		prefsWindow.UpdateHistory(accountant.Lifetime(), accountant.Last())
	})
	prefsWindow.UpdateHistory(accountant.Lifetime(), accountant.Last())

	trayManager = tray.New(desktopApp, tray.Callbacks{
		OnShowStage: func() {
			stageWindow.Show()
		},
		OnPreferences: func() {
			prefsWindow.UpdateSettings(rt.settings.WithConfiguration(eng.Scheduler().Configuration()))
			prefsWindow.Show()
		},
		OnCommand: handleCommand,
		OnQuit:    quit,
	})
	trayManager.SetConfiguration(eng.Scheduler().Configuration())
	setTrayIcon(resources.PausedIcon())

	animationEngine.SetOnPhaseChange(func(scene animation.Scene) {
		icon, err := resources.Icon(scene.Background)
		if err != nil {
			logger.WithError(err).Debug("render tray icon")
			return
		}
		fyne.Do(func() {
			setTrayIcon(icon)
		})
	})

	events := eng.Subscribe(16)
	go func() {
		for event := range events {
			handleEngineEvent(event, eng, trayManager, prefsWindow, setTrayIcon, logger)
		}
	}()

	if err := eng.Start(ctx); err != nil {
		rt.Close(ctx)
		return err
	}
	animationEngine.Start(ctx)
	stageWindow.Show()
	fyneApp.Run()
	quit()
	return nil
}

func handleEngineEvent(event engine.Event, eng *engine.Engine, trayManager *tray.Manager, prefsWindow *preferences.Window, setTrayIcon func(fyne.Resource), logger logrus.FieldLogger) {
	accountant := eng.Accountant()
	switch event.Type {
	case engine.EventPhaseStart:
		status := fmt.Sprintf("%s · %s", event.Phase.Name, eng.Scheduler().Configuration().Speed)
		fyne.Do(func() {
			trayManager.SetStatus(status)
		})
	case engine.EventStateChange, engine.EventSession:
		active := accountant.Active()
		paused := event.State != engine.StateRunning
		sessionEnded := event.Type == engine.EventSession && !event.Active
		fyne.Do(func() {
			trayManager.SetSession(active, paused)
			if paused {
				setTrayIcon(resources.PausedIcon())
			}
			if sessionEnded {
				prefsWindow.UpdateHistory(accountant.Lifetime(), accountant.Last())
			}
		})
	case engine.EventError:
		logger.WithError(event.Err).Error("audio stopped")
		message := event.Message
		fyne.Do(func() {
			trayManager.SetStatus("audio error: " + message)
		})
	}
}
