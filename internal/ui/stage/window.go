package stage

import (
	"image/color"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"fivephase/internal/core/model"
	"fivephase/internal/ui/animation"
	"fivephase/internal/ui/control"
)

// Config defines stage window options.
type Config struct {
	Fullscreen bool
	Title      string
}

// Window draws the pentagon, needle and HUD for each scene.
type Window struct {
	app        fyne.App
	window     fyne.Window
	config     Config
	root       *fyne.Container
	background *canvas.Rectangle
	edges      [model.PhaseCount]*canvas.Line
	needle     *canvas.Line
	hub        *canvas.Circle
	title      *canvas.Text
	breath     *canvas.Text
	tone       *canvas.Text
	phase      *canvas.Text
	chipBox    *canvas.Rectangle
	chipLabel  *canvas.Text
	chipCount  *canvas.Text
	settings   []*canvas.Text
	help       *canvas.Text
	scene      animation.Scene
	onCommand  func(control.Command)
}

var (
	edgeColor   = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
	needleColor = color.NRGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
	chipColor   = color.NRGBA{A: 90}
)

// New creates the stage window.
func New(app fyne.App, config Config) *Window {
	if config.Title == "" {
		config.Title = "FivePhase"
	}
	window := app.NewWindow(config.Title)
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}
	window.SetPadded(false)

	stage := &Window{
		app:        app,
		window:     window,
		config:     config,
		background: canvas.NewRectangle(color.White),
		needle:     canvas.NewLine(needleColor),
		hub:        canvas.NewCircle(needleColor),
		title:      newText(animation.Title, 24, true),
		breath:     newText("", 48, true),
		tone:       newText("", 24, true),
		phase:      newText("", 28, true),
		chipBox:    canvas.NewRectangle(chipColor),
		chipLabel:  newText("", 16, true),
		chipCount:  newText("", 36, true),
		help:       newText(animation.HelpLine, 14, false),
	}
	stage.needle.StrokeWidth = 3.5
	stage.chipBox.CornerRadius = 16

	objects := []fyne.CanvasObject{stage.background}
	for i := range stage.edges {
		stage.edges[i] = canvas.NewLine(edgeColor)
		stage.edges[i].StrokeWidth = 6
		objects = append(objects, stage.edges[i])
	}
	objects = append(objects, stage.needle, stage.hub, stage.title, stage.breath, stage.tone, stage.phase,
		stage.chipBox, stage.chipLabel, stage.chipCount, stage.help)
	for range (animation.Scene{}).SettingsLines() {
		line := newText("", 14, false)
		stage.settings = append(stage.settings, line)
		objects = append(objects, line)
	}

	stage.root = container.New(&stageLayout{stage: stage}, objects...)
	window.SetContent(stage.root)
	window.Resize(fyne.NewSize(1024, 720))
	window.Canvas().SetOnTypedKey(stage.handleKey)
	window.SetCloseIntercept(func() {
		stage.dispatch(control.Command{Kind: control.Quit})
	})

	stage.apply(animation.Scene{Background: model.Phases[0].Color, ShowHUD: true})
	stage.applyWindowMode()
	return stage
}

// SetOnCommand sets the handler for keys the stage does not handle itself.
func (stage *Window) SetOnCommand(handler func(control.Command)) {
	stage.onCommand = handler
}

// Show displays the stage.
func (stage *Window) Show() {
	stage.window.Show()
	stage.window.RequestFocus()
}

// Hide hides the stage.
func (stage *Window) Hide() {
	stage.window.Hide()
}

// Fullscreen reports whether the stage fills the screen.
func (stage *Window) Fullscreen() bool {
	return stage.config.Fullscreen
}

// SetFullscreen switches between fullscreen and windowed mode.
func (stage *Window) SetFullscreen(enabled bool) {
	stage.config.Fullscreen = enabled
	stage.applyWindowMode()
}

// Render queues a scene for drawing on the UI thread.
func (stage *Window) Render(scene animation.Scene) {
	fyne.Do(func() {
		stage.apply(scene)
	})
}

func (stage *Window) apply(scene animation.Scene) {
	stage.scene = scene
	stage.background.FillColor = toNRGBA(scene.Background)
	foreground := toNRGBA(scene.Foreground)

	stage.needle.Hidden = !scene.ShowNeedle
	stage.hub.Hidden = !scene.ShowNeedle

	hud := []*canvas.Text{stage.title, stage.breath, stage.tone, stage.phase, stage.chipLabel, stage.chipCount, stage.help}
	for _, text := range append(hud, stage.settings...) {
		text.Hidden = !scene.ShowHUD
		text.Color = foreground
	}
	stage.chipBox.Hidden = !scene.ShowHUD
	stage.breath.Color = breathOverlay(scene.Foreground)

	stage.breath.Text = scene.Breath
	stage.tone.Text = scene.Tone
	stage.phase.Text = scene.PhaseName
	stage.chipLabel.Text = scene.BreathLabel
	stage.chipCount.Text = strconv.Itoa(scene.Countdown)
	for i, line := range scene.SettingsLines() {
		stage.settings[i].Text = line
	}

	stage.arrange(stage.root.Size())
	stage.root.Refresh()
}

func (stage *Window) arrange(size fyne.Size) {
	stage.background.Move(fyne.NewPos(0, 0))
	stage.background.Resize(size)

	center := animation.Point{X: float64(size.Width) / 2, Y: float64(size.Height) / 2}
	radius := float64(min(size.Width, size.Height)) / 4
	vertices := animation.Pentagon(center, radius, stage.scene.Rotation)
	for i, edge := range stage.edges {
		from := vertices[i]
		to := vertices[(i+1)%len(vertices)]
		edge.Position1 = fyne.NewPos(float32(from.X), float32(from.Y))
		edge.Position2 = fyne.NewPos(float32(to.X), float32(to.Y))
	}

	tip := animation.NeedleTip(center, radius, stage.scene.Rotation)
	stage.needle.Position1 = fyne.NewPos(float32(center.X), float32(center.Y))
	stage.needle.Position2 = fyne.NewPos(float32(tip.X), float32(tip.Y))
	stage.hub.Move(fyne.NewPos(float32(center.X)-3, float32(center.Y)-3))
	stage.hub.Resize(fyne.NewSize(6, 6))

	cx, cy, r := float32(center.X), float32(center.Y), float32(radius)
	stage.title.Move(fyne.NewPos(24, 16))

	stage.breath.TextSize = max(40, size.Width*0.06)
	breathSize := stage.breath.MinSize()
	stage.breath.Move(fyne.NewPos((size.Width-breathSize.Width)/2, max(60, cy-r-40)-breathSize.Height))

	toneSize := stage.tone.MinSize()
	stage.tone.Move(fyne.NewPos(max(24, cx-r-260), cy-toneSize.Height/2))

	rightX := cx + r + 40
	stage.phase.Move(fyne.NewPos(rightX, cy-10-stage.phase.MinSize().Height))
	chipY := cy + 40 - 32 + 12
	stage.chipBox.Move(fyne.NewPos(rightX, chipY))
	stage.chipBox.Resize(fyne.NewSize(160, 64))
	stage.chipLabel.Move(fyne.NewPos(rightX+16, chipY+6))
	countSize := stage.chipCount.MinSize()
	stage.chipCount.Move(fyne.NewPos(rightX+160-16-countSize.Width, chipY+64-countSize.Height))

	y := float32(90)
	for _, line := range stage.settings {
		line.Move(fyne.NewPos(24, y))
		y += line.MinSize().Height + 4
	}

	helpSize := stage.help.MinSize()
	stage.help.Move(fyne.NewPos(max(24, (size.Width-helpSize.Width)/2), size.Height-24-helpSize.Height))
}

func (stage *Window) handleKey(event *fyne.KeyEvent) {
	command, ok := control.ForKey(strings.ToLower(string(event.Name)))
	if !ok {
		return
	}
	switch command.Kind {
	case control.ToggleFullscreen:
		stage.SetFullscreen(!stage.config.Fullscreen)
	case control.Escape:
		if stage.config.Fullscreen {
			stage.SetFullscreen(false)
			return
		}
		stage.dispatch(control.Command{Kind: control.Quit})
	default:
		stage.dispatch(command)
	}
}

func (stage *Window) dispatch(command control.Command) {
	if stage.onCommand != nil {
		stage.onCommand(command)
	}
}

func (stage *Window) applyWindowMode() {
	stage.window.SetFullScreen(stage.config.Fullscreen)
	if !stage.config.Fullscreen {
		stage.window.CenterOnScreen()
	}
}

func newText(value string, size float32, bold bool) *canvas.Text {
	text := canvas.NewText(value, color.White)
	text.TextSize = size
	text.TextStyle = fyne.TextStyle{Bold: bold}
	return text
}

func toNRGBA(c model.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
}

// The breath word is drawn translucent over the background.
func breathOverlay(foreground model.Color) color.NRGBA {
	if foreground == (model.Color{}) {
		return color.NRGBA{A: 120}
	}
	return color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 160}
}

type stageLayout struct {
	stage *Window
}

func (layout *stageLayout) Layout(_ []fyne.CanvasObject, size fyne.Size) {
	layout.stage.arrange(size)
}

func (layout *stageLayout) MinSize(_ []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(640, 480)
}
