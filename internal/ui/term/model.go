// Package term provides the Bubble Tea terminal presenter.
package term

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fivephase/internal/core/session"
	"fivephase/internal/ui/animation"
	"fivephase/internal/ui/control"
)

// HistorySource reports lifetime totals and the last session.
type HistorySource interface {
	Lifetime() session.Totals
	Last() *session.Record
}

type tickMsg time.Time

// Model implements the Bubble Tea presenter.
type Model struct {
	ctx        context.Context
	animation  *animation.Engine
	controller control.Controller
	history    HistorySource
	interval   time.Duration

	width  int
	height int
	scene  animation.Scene
	status string
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	panelStyle  = lipgloss.NewStyle().Padding(1, 4)
)

var needles = [8]string{"↑", "↗", "→", "↘", "↓", "↙", "←", "↖"}

// NewModel constructs a terminal presenter. history may be nil.
func NewModel(ctx context.Context, anim *animation.Engine, controller control.Controller, history HistorySource, interval time.Duration) *Model {
	if interval <= 0 {
		interval = animation.DefaultConfig().Interval
	}
	m := &Model{
		ctx:        ctx,
		animation:  anim,
		controller: controller,
		history:    history,
		interval:   interval,
	}
	m.scene = anim.Snapshot()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.scene = m.animation.Snapshot()
		return m, m.tick()
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	scene := m.scene
	style := panelStyle.
		Background(lipgloss.Color(scene.Background.Hex())).
		Foreground(lipgloss.Color(scene.Foreground.Hex()))

	var lines []string
	if scene.ShowHUD {
		lines = append(lines, titleStyle.Render(animation.Title), "")
	}
	lines = append(lines, m.renderMarker())
	if scene.ShowHUD {
		lines = append(lines,
			"",
			fmt.Sprintf("%s   %s", titleStyle.Render(scene.PhaseName), scene.Tone),
			fmt.Sprintf("%s  %d", titleStyle.Render(scene.Breath), scene.Countdown),
			"",
		)
		lines = append(lines, scene.SettingsLines()...)
		if m.history != nil {
			lines = append(lines, "")
			lines = append(lines, session.Report(m.history.Lifetime(), m.history.Last())...)
		}
	}
	panel := style.Render(strings.Join(lines, "\n"))

	footer := footerStyle.Render(animation.HelpLine)
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "\n" + footer
	}
	if m.width == 0 || m.height == 0 {
		return panel + "\n" + footer
	}
	bodyHeight := max(1, m.height-lipgloss.Height(footer))
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, panel)
	footerLine := lipgloss.PlaceHorizontal(m.width, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderMarker() string {
	if !m.scene.ShowNeedle {
		return "⬟"
	}
	return fmt.Sprintf("⬟ %s %3.0f°", NeedleGlyph(m.scene.Rotation), m.scene.Rotation)
}

func (m *Model) handleKey(key string) tea.Cmd {
	command, ok := control.ForKey(key)
	if !ok {
		return nil
	}
	switch command.Kind {
	case control.Quit, control.Escape:
		return tea.Quit
	case control.ToggleHUD:
		m.animation.ToggleHUD()
		m.scene = m.animation.Snapshot()
		return nil
	}
	if _, err := control.Apply(m.ctx, m.controller, command); err != nil {
		m.status = err.Error()
		return nil
	}
	m.status = ""
	m.scene = m.animation.Snapshot()
	return nil
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// NeedleGlyph returns the arrow closest to a rotation in degrees.
func NeedleGlyph(degrees float64) string {
	normalized := math.Mod(degrees, 360)
	if normalized < 0 {
		normalized += 360
	}
	return needles[int(math.Round(normalized/45))%len(needles)]
}
