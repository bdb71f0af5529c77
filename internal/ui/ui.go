// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-sky/internal/engine"
	"github.com/litescript/ls-sky/internal/metrics"
	"github.com/litescript/ls-sky/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewSky ViewMode = iota
	ViewSolarSystem

	numViews
)

const (
	frameInterval = 100 * time.Millisecond
	spinnerPeriod = 80 * time.Millisecond

	// The logo is only drawn on terminals at least this tall.
	minLogoHeight = 40
)

// Msg types for Bubble Tea
type (
	// TickMsg advances the engine one frame.
	TickMsg time.Time

	// AnimTickMsg drives the footer spinner.
	AnimTickMsg time.Time

	// LocationMsg moves the observer to a location string.
	LocationMsg struct {
		Location string
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	eng *engine.Engine

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int
	lastFrame time.Time

	// Sub-models
	skyView     SkyViewModel
	solarSystem SolarSystemModel
}

// New creates a root model over an initialized engine. c may be nil.
func New(eng *engine.Engine, c *metrics.Collector) Model {
	return Model{
		eng:         eng,
		viewMode:    ViewSky,
		skyView:     NewSkyViewModel(eng, c),
		solarSystem: NewSolarSystemModel(eng),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
		m.skyView.Init(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "1", "s":
			m.viewMode = ViewSky
		case "2", "o":
			m.viewMode = ViewSolarSystem
		case "tab":
			m.viewMode = (m.viewMode + 1) % numViews
		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := msg.Height - m.headerLines() - 1
		m.skyView = m.skyView.SetSize(msg.Width, contentHeight)
		m.solarSystem = m.solarSystem.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		now := time.Time(msg)
		var dt time.Duration
		if !m.lastFrame.IsZero() {
			dt = now.Sub(m.lastFrame)
		}
		m.lastFrame = now
		m.skyView = m.skyView.Frame(dt)

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case LocationMsg:
		if err := m.eng.MoveTo(msg.Location); err != nil {
			m.statusMsg = fmt.Sprintf("Location %q rejected: %v", msg.Location, err)
		} else {
			m.statusMsg = "Moved to " + msg.Location
		}

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewSky:
		m.skyView, cmd = m.skyView.Update(msg)
	case ViewSolarSystem:
		m.solarSystem, cmd = m.solarSystem.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewSky:
		content = m.skyView.View()
	case ViewSolarSystem:
		content = m.solarSystem.View()
	}

	return m.renderHeader() + content + "\n" + m.renderFooter()
}

// headerLines returns how many lines renderHeader takes.
func (m Model) headerLines() int {
	if m.height >= minLogoHeight {
		return len(logo) + 5
	}
	return 1
}

func (m Model) renderHeader() string {
	if m.height >= minLogoHeight {
		return m.renderLogo() + m.renderTabs() + "\n"
	}
	return m.renderTabs() + "\n"
}

var logo = []string{
	`  ██╗     ███████╗      ███████╗██╗  ██╗██╗   ██╗`,
	`  ██║     ██╔════╝      ██╔════╝██║ ██╔╝╚██╗ ██╔╝`,
	`  ██║     ███████╗█████╗███████╗█████╔╝  ╚████╔╝ `,
	`  ██║     ╚════██║╚════╝╚════██║██╔═██╗   ╚██╔╝  `,
	`  ███████╗███████║      ███████║██║  ██╗   ██║   `,
	`  ╚══════╝╚══════╝      ╚══════╝╚═╝  ╚═╝   ╚═╝   `,
}

func (m Model) renderLogo() string {
	var b strings.Builder
	b.WriteString("\n")

	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			color := gradientColor(col, row, len(runes), len(logo))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
			b.WriteString(style.Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render("  Planetarium · Sky and Solar System in the Terminal"))
	b.WriteString("\n")
	b.WriteString(muted.Render(fmt.Sprintf("  (c) 2025 litescript.net | v%s", version.Version)))
	b.WriteString("\n\n")

	return b.String()
}

// Logo gradient stops, left to right: night blue, violet, dawn rose.
var logoStops = [][3]float64{
	{30, 58, 138},
	{109, 40, 217},
	{219, 39, 119},
}

// gradientColor returns the hex color of a logo cell, interpolated across
// logoStops and darkened toward the bottom row.
func gradientColor(col, row, width, height int) string {
	x := float64(col) / float64(max(width-1, 1)) * float64(len(logoStops)-1)
	i := min(int(x), len(logoStops)-2)
	t := x - float64(i)
	k := 1 - 0.4*float64(row)/float64(max(height, 1))

	var rgb [3]int
	for c := range rgb {
		v := logoStops[i][c] + t*(logoStops[i+1][c]-logoStops[i][c])
		rgb[c] = max(0, min(255, int(v*k)))
	}
	return fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2])
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Sky", "[2] Orbit"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]
	status := accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" JD %.5f | frame %d", m.eng.Core().JD(), m.eng.Frames()))

	var help string
	switch m.viewMode {
	case ViewSky:
		help = "arrows: pan | +/-: zoom | j/k: bodies | l: labels | a: atmosphere | b/B: bortle | g: milky way | p: projection | ,/.: rate | space: pause | n: now"
	case ViewSolarSystem:
		help = "j/k: focus | +/-: zoom | arrows: pan | f: find | l: labels | z: mode | t: stars"
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + dimStyle.Render(help)
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(spinnerPeriod, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// MoveTo creates a command that moves the observer.
func MoveTo(location string) tea.Cmd {
	return func() tea.Msg {
		return LocationMsg{Location: location}
	}
}
