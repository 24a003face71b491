package preferences

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"fivephase/internal/core/model"
	"fivephase/internal/core/session"
)

// Window handles the settings and history UI.
type Window struct {
	window     fyne.Window
	settings   Settings
	onSave     func(Settings)
	onReset    func()
	speed      *widget.Select
	breath     *widget.Select
	transition *widget.Select
	rotation   *widget.Select
	refresh    *widget.Entry
	hud        *widget.Check
	fullscreen *widget.Check
	history    *widget.Label
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("FivePhase Settings")

	speed := widget.NewSelect(labels(model.SpeedModes), nil)
	breath := widget.NewSelect(labels(model.BreathStyles), nil)
	transition := widget.NewSelect(labels(model.TransitionModes), nil)
	rotation := widget.NewSelect(labels(model.RotationModes), nil)

	refresh := widget.NewEntry()
	hud := widget.NewCheck("Show HUD", nil)
	fullscreen := widget.NewCheck("Fullscreen stage", nil)

	history := widget.NewLabel("")
	history.Wrapping = fyne.TextWrapWord

	form := container.NewVBox(
		widget.NewLabelWithStyle("Sequence", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Speed"), layout.NewSpacer(), speed),
		container.NewHBox(widget.NewLabel("Breath"), layout.NewSpacer(), breath),
		container.NewHBox(widget.NewLabel("Transition"), layout.NewSpacer(), transition),
		container.NewHBox(widget.NewLabel("Rotation"), layout.NewSpacer(), rotation),
		widget.NewLabelWithStyle("Display", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Refresh rate"), refresh, widget.NewLabel("Hz")),
		hud,
		fullscreen,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("History", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		history,
	)

	saveButton := widget.NewButton("Save", nil)
	resetButton := widget.NewButton("Reset data", nil)
	closeButton := widget.NewButton("Close", nil)
	buttons := container.NewHBox(saveButton, resetButton, layout.NewSpacer(), closeButton)

	content := container.NewBorder(nil, buttons, nil, nil, container.NewVScroll(form))
	window.SetContent(content)
	window.Resize(fyne.NewSize(460, 640))

	prefs := &Window{
		window:     window,
		onSave:     onSave,
		speed:      speed,
		breath:     breath,
		transition: transition,
		rotation:   rotation,
		refresh:    refresh,
		hud:        hud,
		fullscreen: fullscreen,
		history:    history,
	}
	prefs.UpdateSettings(settings)
	prefs.UpdateHistory(session.NewTotals(), nil)

	saveButton.OnTapped = prefs.handleSave
	resetButton.OnTapped = prefs.confirmReset
	closeButton.OnTapped = window.Hide
	window.SetCloseIntercept(window.Hide)

	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// SetOnReset sets the handler run after the user confirms a history reset.
func (prefs *Window) SetOnReset(handler func()) {
	prefs.onReset = handler
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.speed.SetSelected(settings.Speed.Label())
	prefs.breath.SetSelected(settings.Breath.Label())
	prefs.transition.SetSelected(settings.Transition.Label())
	prefs.rotation.SetSelected(settings.Rotation.Label())
	prefs.refresh.SetText(strconv.Itoa(settings.RefreshRate))
	prefs.hud.SetChecked(settings.ShowHUD)
	prefs.fullscreen.SetChecked(settings.Fullscreen)
}

// UpdateHistory replaces the history summary.
func (prefs *Window) UpdateHistory(totals session.Totals, last *session.Record) {
	prefs.history.SetText(strings.Join(session.Report(totals, last), "\n"))
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if mode, ok := selected(model.SpeedModes, prefs.speed.Selected); ok {
		settings.Speed = mode
	}
	if style, ok := selected(model.BreathStyles, prefs.breath.Selected); ok {
		settings.Breath = style
	}
	if mode, ok := selected(model.TransitionModes, prefs.transition.Selected); ok {
		settings.Transition = mode
	}
	if mode, ok := selected(model.RotationModes, prefs.rotation.Selected); ok {
		settings.Rotation = mode
	}
	if rate, ok := parseRefreshRate(prefs.refresh.Text); ok {
		settings.RefreshRate = rate
	}
	settings.ShowHUD = prefs.hud.Checked
	settings.Fullscreen = prefs.fullscreen.Checked

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func (prefs *Window) confirmReset() {
	dialog.ShowConfirm("Reset data", "Delete all session history? This cannot be undone.", func(confirmed bool) {
		if confirmed && prefs.onReset != nil {
			prefs.onReset()
		}
	}, prefs.window)
}

type labeled interface {
	comparable
	Label() string
}

func labels[T labeled](values []T) []string {
	out := make([]string, len(values))
	for i, value := range values {
		out[i] = value.Label()
	}
	return out
}

func selected[T labeled](values []T, label string) (T, bool) {
	for _, value := range values {
		if value.Label() == label {
			return value, true
		}
	}
	var zero T
	return zero, false
}

func parseRefreshRate(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < MinRefreshRate || parsed > MaxRefreshRate {
		return 0, false
	}
	return parsed, true
}
