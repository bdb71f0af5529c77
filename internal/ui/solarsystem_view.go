package ui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/engine"
)

// giantRadiusKm separates gas giants from rocky bodies for glyphs.
const giantRadiusKm = 20000

// SolarSystemModel renders a top-down view of the engine's solar system.
type SolarSystemModel struct {
	eng    *engine.Engine
	width  int
	height int

	// View state
	focusIdx   int     // Index in bodies list (-1 = Sun)
	zoomLevel  int     // Index into zoomLevels
	panX       float64 // Pan offset in display units
	panY       float64
	scaleMode  astro.ScaleMode
	labelMode  LabelMode
	userPanned bool // True if user has manually panned (disables auto-center on zoom)
	showStars  bool
}

// Discrete zoom levels for clean stepping
var zoomLevels = []float64{0.25, 0.5, 0.75, 1.0, 1.5, 2.0, 3.0, 5.0, 10.0}

const defaultZoomLevel = 3

// EclipticBody is a body's heliocentric position for the top-down view.
type EclipticBody struct {
	Name     string
	Pos      r3.Vec // AU, heliocentric ecliptic
	RadiusKm float64
}

func (b EclipticBody) giant() bool { return b.RadiusKm > giantRadiusKm }

// NewSolarSystemModel creates a new solar system view model.
func NewSolarSystemModel(eng *engine.Engine) SolarSystemModel {
	return SolarSystemModel{
		eng:       eng,
		focusIdx:  -1,
		zoomLevel: defaultZoomLevel,
		scaleMode: astro.ScaleLogR,
		labelMode: LabelPlanets,
		showStars: true,
	}
}

// scale returns the current zoom scale.
func (m SolarSystemModel) scale() float64 {
	if m.zoomLevel < 0 || m.zoomLevel >= len(zoomLevels) {
		return 1.0
	}
	return zoomLevels[m.zoomLevel]
}

// SetSize updates the viewport size.
func (m SolarSystemModel) SetSize(width, height int) SolarSystemModel {
	m.width = width
	m.height = height
	return m
}

// bodies returns every body except the Sun, in the system's order.
func (m SolarSystemModel) bodies() []EclipticBody {
	ss := m.eng.SolarSystem()
	var out []EclipticBody
	for _, h := range ss.Handles() {
		if h == ss.Sun() {
			continue
		}
		p := ss.Planet(h)
		out = append(out, EclipticBody{
			Name:     p.Name(),
			Pos:      ss.HeliocentricEclipticPos(h),
			RadiusKm: astro.AUToKm(p.Radius()),
		})
	}
	return out
}

// Update handles input messages.
func (m SolarSystemModel) Update(msg tea.Msg) (SolarSystemModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "[":
			m.focusPrev()
		case "k", "]":
			m.focusNext()

		case "up":
			m.panY -= 0.1 / m.scale()
			m.userPanned = true
		case "down":
			m.panY += 0.1 / m.scale()
			m.userPanned = true
		case "left":
			m.panX -= 0.1 / m.scale()
			m.userPanned = true
		case "right":
			m.panX += 0.1 / m.scale()
			m.userPanned = true
		case "c":
			m.panX, m.panY = 0, 0
			m.userPanned = false

		case "f":
			m.centerOnFocused()
			m.userPanned = false

		// Zoom only auto-centers if the user hasn't panned
		case "+", "=":
			if m.zoomLevel < len(zoomLevels)-1 {
				m.zoomLevel++
				if !m.userPanned {
					m.centerOnFocused()
				}
			}
		case "-":
			if m.zoomLevel > 0 {
				m.zoomLevel--
				if !m.userPanned {
					m.centerOnFocused()
				}
			}
		case "0":
			m.zoomLevel = defaultZoomLevel
			if !m.userPanned {
				m.centerOnFocused()
			}

		case "z":
			m.scaleMode = m.scaleMode.Next()
			if !m.userPanned {
				m.centerOnFocused()
			}

		case "l":
			m.labelMode = (m.labelMode + 1) % 3

		case "t":
			m.showStars = !m.showStars

		case "r":
			m.panX, m.panY = 0, 0
			m.zoomLevel = defaultZoomLevel
			m.userPanned = false
		}
	}
	return m, nil
}

func (m *SolarSystemModel) focusNext() {
	n := len(m.bodies())
	if n == 0 {
		return
	}
	m.focusIdx++
	if m.focusIdx >= n {
		m.focusIdx = -1 // Wrap to Sun
	}
	m.centerOnFocused()
	m.userPanned = false
}

func (m *SolarSystemModel) focusPrev() {
	n := len(m.bodies())
	if n == 0 {
		return
	}
	m.focusIdx--
	if m.focusIdx < -1 {
		m.focusIdx = n - 1
	}
	m.centerOnFocused()
	m.userPanned = false
}

func (m SolarSystemModel) config() astro.ProjectionConfig {
	return astro.ProjectionConfig{Scale: m.scale(), Mode: m.scaleMode}
}

// centerOnFocused pans the view to center on the currently focused body.
func (m *SolarSystemModel) centerOnFocused() {
	body, ok := m.FocusedBody()
	if !ok {
		m.panX, m.panY = 0, 0
		return
	}
	proj := astro.ProjectEclipticTopDown(body.Pos, m.config())
	m.panX = -proj.X
	m.panY = -proj.Y
}

// View renders the solar system view.
func (m SolarSystemModel) View() string {
	if m.width < 40 || m.height < 10 {
		return "Terminal too small for solar system view"
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.buildCanvas(), m.renderHUD())
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

// buildCanvas renders the solar system to a string canvas.
func (m SolarSystemModel) buildCanvas() string {
	// Reserve space for the HUD
	canvasH := max(m.height-3, 5)
	canvasW := m.width

	grid := make([][]rune, canvasH)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", canvasW))
	}

	screenCenterX := canvasW / 2
	screenCenterY := canvasH / 2

	cfg := m.config()

	// Map log(30 AU + 1) ~ 1.5 to fit in half the canvas
	maxDisplayR := float64(min(screenCenterX, screenCenterY*2)) * 0.9
	displayScale := maxDisplayR / 1.5 * cfg.Scale

	// Positive panX moves the origin right, positive panY moves it up.
	// Rows are twice as tall as columns are wide.
	originX := screenCenterX + int(m.panX*displayScale)
	originY := screenCenterY - int(m.panY*displayScale*0.5)

	if m.showStars {
		m.drawStarfield(grid, originX, originY, displayScale, cfg)
	}
	m.drawOrbitRings(grid, originX, originY, displayScale, cfg)

	var positions []bodyPos
	for i, body := range m.bodies() {
		proj := astro.ProjectEclipticTopDown(body.Pos, cfg)
		sx := originX + int(proj.X*displayScale)
		sy := originY - int(proj.Y*displayScale*0.5)
		if sx < 0 || sx >= canvasW || sy < 0 || sy >= canvasH {
			continue
		}
		grid[sy][sx] = bodyGlyph(body, i == m.focusIdx)
		positions = append(positions, bodyPos{x: sx, y: sy, name: body.Name, isFocused: i == m.focusIdx})
	}

	// Sun last so it's always visible
	if originX >= 0 && originX < canvasW && originY >= 0 && originY < canvasH {
		grid[originY][originX] = '☉'
		positions = append(positions, bodyPos{x: originX, y: originY, name: "Sun", isFocused: m.focusIdx == -1})
	}

	m.renderLabels(grid, canvasW, canvasH, positions)
	return renderGrid(grid)
}

func (m SolarSystemModel) drawOrbitRings(grid [][]rune, cx, cy int, scale float64, cfg astro.ProjectionConfig) {
	// Earth, Jupiter, Saturn, Uranus and Neptune regions
	for _, au := range []float64{1, 5, 10, 20, 30} {
		proj := astro.ProjectEclipticTopDown(r3.Vec{X: au}, cfg)
		drawCircle(grid, cx, cy, proj.X*scale)
	}
}

func drawCircle(grid [][]rune, cx, cy int, r float64) {
	if r < 1 {
		return
	}
	h := len(grid)
	w := len(grid[0])

	steps := max(8, min(360, int(2*math.Pi*r)))
	for i := 0; i < steps; i++ {
		theta := 2 * math.Pi * float64(i) / float64(steps)
		x := cx + int(r*math.Cos(theta))
		y := cy - int(r*math.Sin(theta)*0.5) // Aspect ratio correction

		if x >= 0 && x < w && y >= 0 && y < h && grid[y][x] == ' ' {
			grid[y][x] = '·'
		}
	}
}

// starShellAU is where background stars are placed at 1x zoom.
const starShellAU = 100

// drawStarfield projects the bright stars onto a shell around the Sun.
// The shell shrinks as the view zooms in so the stars stay near the
// viewport edge.
func (m SolarSystemModel) drawStarfield(grid [][]rune, cx, cy int, displayScale float64, cfg astro.ProjectionConfig) {
	h := len(grid)
	w := len(grid[0])

	toEcliptic := astro.MatJ2000ToVsop87()
	shell := starShellAU / cfg.Scale
	catalog := astro.DefaultStarCatalog()
	if stars := m.eng.Stars(); stars != nil {
		catalog = stars.Catalog()
	}
	for _, star := range catalog.Stars {
		glyph := starGlyph(star.Mag)
		if glyph == ' ' {
			continue
		}
		dir := astro.Apply(toEcliptic, star.Direction())
		proj := astro.ProjectEclipticTopDown(r3.Scale(shell, dir), cfg)

		sx := cx + int(proj.X*displayScale)
		sy := cy - int(proj.Y*displayScale*0.5)
		if sx < 0 || sx >= w || sy < 0 || sy >= h || grid[sy][sx] != ' ' {
			continue
		}
		grid[sy][sx] = glyph
	}
}

// starGlyph returns a subtle glyph based on star magnitude.
func starGlyph(mag float64) rune {
	switch {
	case mag <= 1.0:
		return '∗'
	case mag <= 2.5:
		return '·'
	case mag <= 3.5:
		return '˙'
	default:
		return ' ' // Very dim: skip to avoid clutter
	}
}

// renderLabels draws body labels on the canvas based on label mode.
func (m SolarSystemModel) renderLabels(grid [][]rune, width, height int, positions []bodyPos) {
	if m.labelMode == LabelNone {
		return
	}
	for _, pos := range positions {
		// LabelPlanets labels only the focused body here
		if m.labelMode == LabelPlanets && !pos.isFocused {
			continue
		}
		labelX := pos.x + 2
		if pos.y < 0 || pos.y >= height || labelX >= width {
			continue
		}
		text := pos.name
		if pos.isFocused {
			text = "◄ " + pos.name
		}
		for i, r := range []rune(text) {
			x := labelX + i
			if x >= width {
				break
			}
			// Only write over blanks and orbit rings
			if grid[pos.y][x] == ' ' || grid[pos.y][x] == '·' {
				grid[pos.y][x] = r
			}
		}
	}
}

func bodyGlyph(body EclipticBody, focused bool) rune {
	switch {
	case body.giant() && focused:
		return '◉'
	case body.giant():
		return '○'
	case focused:
		return '●'
	default:
		return '•'
	}
}

func renderGrid(grid [][]rune) string {
	var b strings.Builder

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	starStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	sunStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	planetStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	giantStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	focusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("249"))

	for y, row := range grid {
		for _, ch := range row {
			var style lipgloss.Style
			switch ch {
			case ' ':
				b.WriteRune(ch)
				continue
			case '·':
				style = dimStyle
			case '∗', '˙':
				style = starStyle
			case '☉':
				style = sunStyle
			case '•':
				style = planetStyle
			case '○':
				style = giantStyle
			case '●', '◉', '◄':
				style = focusStyle
			default:
				style = labelStyle
			}
			b.WriteString(style.Render(string(ch)))
		}
		if y < len(grid)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m SolarSystemModel) renderHUD() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	focused, ok := m.FocusedBody()
	if ok {
		home, homePos := m.home()
		dist := r3.Norm(r3.Sub(focused.Pos, homePos))
		b.WriteString(headerStyle.Render("◆ " + focused.Name))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Sun:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.3f AU", r3.Norm(focused.Pos))))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render(home + ":"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.3f AU", dist)))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Light Time:"))
		b.WriteString(valueStyle.Render(astro.FormatLightTime(astro.LightTimeDays(dist) * 86400)))
	} else {
		b.WriteString(headerStyle.Render("☉ Sun"))
		b.WriteString("  ")
		b.WriteString(dimStyle.Render("(center of solar system)"))
	}
	b.WriteString("\n")

	if ok {
		b.WriteString(labelStyle.Render("Ecl Lon:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", astro.EclipticLongitude(focused.Pos))))
		b.WriteString("  ")
		b.WriteString(labelStyle.Render("Ecl Lat:"))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f°", astro.EclipticLatitude(focused.Pos))))
		b.WriteString("  ")
	}

	starsName := "off"
	if m.showStars {
		starsName = "on"
	}

	b.WriteString(dimStyle.Render("Mode:"))
	b.WriteString(valueStyle.Render(m.scaleMode.String()))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Zoom:"))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%.2gx", m.scale())))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Labels:"))
	b.WriteString(valueStyle.Render(m.labelMode.String()))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render("Stars:"))
	b.WriteString(valueStyle.Render(starsName))

	return b.String()
}

// home returns the name and position of the body the observer stands on.
func (m SolarSystemModel) home() (string, r3.Vec) {
	ss := m.eng.SolarSystem()
	h := m.eng.Core().Observer().Home()
	return ss.Planet(h).Name(), ss.HeliocentricEclipticPos(h)
}

// FocusedBody returns the focused body. It reports false for the Sun.
func (m SolarSystemModel) FocusedBody() (EclipticBody, bool) {
	bodies := m.bodies()
	if m.focusIdx >= 0 && m.focusIdx < len(bodies) {
		return bodies[m.focusIdx], true
	}
	return EclipticBody{}, false
}

// ShowStars returns whether the starfield is visible.
func (m SolarSystemModel) ShowStars() bool {
	return m.showStars
}

// SetFocusByName sets focus to a body by its name.
func (m *SolarSystemModel) SetFocusByName(name string) {
	for i, body := range m.bodies() {
		if strings.EqualFold(body.Name, name) {
			m.focusIdx = i
			return
		}
	}
}
