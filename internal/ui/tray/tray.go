package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"fivephase/internal/core/model"
	"fivephase/internal/ui/control"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnShowStage   func()
	OnPreferences func()
	OnCommand     func(control.Command)
	OnQuit        func()
}

// Manager handles system tray state.
type Manager struct {
	app         desktop.App
	statusItem  *fyne.MenuItem
	pauseItem   *fyne.MenuItem
	stopItem    *fyne.MenuItem
	speed       []*fyne.MenuItem
	breath      []*fyne.MenuItem
	transition  []*fyne.MenuItem
	rotation    []*fyne.MenuItem
	callbacks   Callbacks
	paused      bool
	active      bool
	config      model.Configuration
	statusLabel string
}

// New creates a tray manager with the provided callbacks. app may be nil when
// the platform has no system tray.
func New(app desktop.App, callbacks Callbacks) *Manager {
	manager := &Manager{
		app:         app,
		callbacks:   callbacks,
		statusLabel: "ready",
	}

	manager.statusItem = fyne.NewMenuItem("", nil)
	manager.statusItem.Disabled = true

	manager.pauseItem = fyne.NewMenuItem("Start session", func() {
		manager.command(control.Command{Kind: control.TogglePause})
	})
	manager.stopItem = fyne.NewMenuItem("Stop session", func() {
		manager.command(control.Command{Kind: control.StopSession})
	})
	manager.stopItem.Disabled = true

	for _, mode := range model.SpeedModes {
		manager.speed = append(manager.speed, manager.modeItem(mode.Label(),
			control.Command{Kind: control.SetSpeed, Speed: mode}))
	}
	for _, style := range model.BreathStyles {
		manager.breath = append(manager.breath, manager.modeItem(style.Label(),
			control.Command{Kind: control.SetBreath, Breath: style}))
	}
	for _, mode := range model.TransitionModes {
		manager.transition = append(manager.transition, manager.modeItem(mode.Label(),
			control.Command{Kind: control.SetTransition, Transition: mode}))
	}
	for _, mode := range model.RotationModes {
		manager.rotation = append(manager.rotation, manager.modeItem(mode.Label(),
			control.Command{Kind: control.SetRotation, Rotation: mode}))
	}

	manager.SetConfiguration(model.DefaultConfiguration())
	manager.refreshStatus()
	return manager
}

// Menu returns the current tray menu.
func (manager *Manager) Menu() *fyne.Menu {
	return fyne.NewMenu("FivePhase",
		manager.statusItem,
		fyne.NewMenuItemSeparator(),
		manager.pauseItem,
		manager.stopItem,
		fyne.NewMenuItemSeparator(),
		submenu("Speed", manager.speed),
		submenu("Breath", manager.breath),
		submenu("Transition", manager.transition),
		submenu("Rotation", manager.rotation),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show stage", func() {
			if manager.callbacks.OnShowStage != nil {
				manager.callbacks.OnShowStage()
			}
		}),
		fyne.NewMenuItem("Settings & history", func() {
			if manager.callbacks.OnPreferences != nil {
				manager.callbacks.OnPreferences()
			}
		}),
		fyne.NewMenuItem("Quit", func() {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}),
	)
}

// SetStatus updates the status label.
func (manager *Manager) SetStatus(status string) {
	manager.statusLabel = status
	manager.refreshStatus()
}

// SetSession updates the session and pause items.
func (manager *Manager) SetSession(active, paused bool) {
	manager.active = active
	manager.paused = paused
	switch {
	case !active:
		manager.pauseItem.Label = "Start session"
	case paused:
		manager.pauseItem.Label = "Resume"
	default:
		manager.pauseItem.Label = "Pause"
	}
	manager.stopItem.Disabled = !active
	manager.refreshStatus()
}

// SetConfiguration checks the menu items matching config.
func (manager *Manager) SetConfiguration(config model.Configuration) {
	manager.config = config
	for i, mode := range model.SpeedModes {
		manager.speed[i].Checked = mode == config.Speed
	}
	for i, style := range model.BreathStyles {
		manager.breath[i].Checked = style == config.Breath
	}
	for i, mode := range model.TransitionModes {
		manager.transition[i].Checked = mode == config.Transition
	}
	for i, mode := range model.RotationModes {
		manager.rotation[i].Checked = mode == config.Rotation
	}
	manager.refreshMenu()
}

func (manager *Manager) modeItem(label string, command control.Command) *fyne.MenuItem {
	return fyne.NewMenuItem(label, func() {
		manager.command(command)
	})
}

func (manager *Manager) command(command control.Command) {
	if manager.callbacks.OnCommand != nil {
		manager.callbacks.OnCommand(command)
	}
}

func (manager *Manager) refreshStatus() {
	status := manager.statusLabel
	if manager.active && manager.paused {
		status = fmt.Sprintf("%s (paused)", status)
	}
	manager.statusItem.Label = fmt.Sprintf("Status: %s", status)
	manager.refreshMenu()
}

func (manager *Manager) refreshMenu() {
	if manager.app != nil {
		manager.app.SetSystemTrayMenu(manager.Menu())
	}
}

func submenu(label string, items []*fyne.MenuItem) *fyne.MenuItem {
	item := fyne.NewMenuItem(label, nil)
	item.ChildMenu = fyne.NewMenu("", items...)
	return item
}
