package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/engine"
	"github.com/litescript/ls-sky/internal/layers"
	"github.com/litescript/ls-sky/internal/metrics"
	"github.com/litescript/ls-sky/internal/passes"
	"github.com/litescript/ls-sky/internal/projector"
	"github.com/litescript/ls-sky/internal/render"
)

const (
	// Animation
	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	// Zoom factor per key press
	zoomStep = 1.5

	// Time rate steps multiply by this factor
	rateStep = 10.0

	colorAccent = "#d0c8ff"
)

// projections lists the laws the view cycles through.
var projections = []string{"perspective", "stereographic", "fisheye", "orthographic"}

// LabelMode controls which objects are labeled.
type LabelMode int

const (
	LabelNone    LabelMode = iota // No labels
	LabelPlanets                  // Solar-system bodies only
	LabelAll                      // Bodies and bright stars
)

func (l LabelMode) String() string {
	switch l {
	case LabelNone:
		return "off"
	case LabelPlanets:
		return "planets"
	case LabelAll:
		return "all"
	default:
		return "unknown"
	}
}

// SkyViewModel renders the engine's sky onto a terminal canvas.
type SkyViewModel struct {
	eng     *engine.Engine
	canvas  *render.Canvas
	painter render.Painter

	width  int
	height int

	// Animation state
	animating    bool
	animStartAz  float64
	animStartAlt float64
	animTargAz   float64
	animTargAlt  float64
	animStart    time.Time

	// Focused body, -1 for none
	focusIdx int
	passes   *passes.Cache

	labelMode LabelMode
}

// NewSkyViewModel creates a sky view drawing eng. When c is non-nil every
// draw call is counted.
func NewSkyViewModel(eng *engine.Engine, c *metrics.Collector) SkyViewModel {
	canvas := render.NewCanvas(0, 0)
	m := SkyViewModel{
		eng:       eng,
		canvas:    canvas,
		painter:   c.WrapPainter(canvas),
		focusIdx:  -1,
		passes:    passes.NewCache(passes.DefaultOptions()),
		labelMode: LabelPlanets,
	}
	m.applyLabels()
	return m
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	m.canvas.Resize(width, max(height-3, 0))
	m.eng.Resize(m.canvas.Viewport())
	return m
}

// Frame advances the engine by dt and redraws the canvas.
func (m SkyViewModel) Frame(dt time.Duration) SkyViewModel {
	if !m.eng.Initialized() {
		return m
	}
	m.eng.Update(dt)
	m.canvas.Clear()
	m.eng.Draw(m.painter)
	return m
}

// animTickMsg is sent during animation
type animTickMsg time.Time

func animTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles messages.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up":
			m.pan(0, 1)
		case "down":
			m.pan(0, -1)
		case "left":
			m.pan(-1, 0)
		case "right":
			m.pan(1, 0)
		case "+", "=":
			m.zoom(1 / zoomStep)
		case "-":
			m.zoom(zoomStep)
		case "k":
			return m.focusPrev()
		case "j":
			return m.focusNext()
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
			m.applyLabels()
		case "a":
			sky := m.eng.SkyDrawer()
			sky.SetShowAtmosphere(!sky.ShowAtmosphere())
		case "b":
			sky := m.eng.SkyDrawer()
			sky.SetBortle(min(9, sky.Bortle()+1))
		case "B":
			sky := m.eng.SkyDrawer()
			sky.SetBortle(max(1, sky.Bortle()-1))
		case "g":
			if mw := m.eng.MilkyWay(); mw != nil {
				mw.SetVisible(!mw.Visible())
			}
		case "p":
			m.cycleProjection()
		case ".":
			m.scaleRate(rateStep)
		case ",":
			m.scaleRate(1 / rateStep)
		case " ":
			c := m.eng.Core()
			if c.TimeRate() == 0 {
				c.SetTimeRate(1)
			} else {
				c.SetTimeRate(0)
			}
		case "n":
			c := m.eng.Core()
			c.SetJD(astro.JDFromTime(time.Now()))
			c.SetTimeRate(1)
		}

	case animTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

func (m SkyViewModel) applyLabels() {
	if s := m.eng.Stars(); s != nil {
		s.SetLabels(m.labelMode == LabelAll)
	}
	if p := m.eng.Planets(); p != nil {
		p.SetLabels(m.labelMode != LabelNone)
	}
}

// pan moves the view by an eighth of the field of view per step.
func (m *SkyViewModel) pan(dAz, dAlt float64) {
	m.animating = false
	step := m.eng.Core().Fov() / 8
	az, alt := m.eng.ViewAltAz()
	m.eng.LookAtAltAz(az+dAz*step, alt+dAlt*step)
}

func (m *SkyViewModel) zoom(k float64) {
	c := m.eng.Core()
	c.SetFov(c.Fov() * k)
}

func (m *SkyViewModel) scaleRate(k float64) {
	c := m.eng.Core()
	rate := c.TimeRate()
	if rate == 0 {
		rate = 1
	}
	c.SetTimeRate(rate * k)
}

func (m *SkyViewModel) cycleProjection() {
	c := m.eng.Core()
	next := projections[0]
	for i, name := range projections {
		if name == c.Law().Name() {
			next = projections[(i+1)%len(projections)]
			break
		}
	}
	law, err := projector.LawByName(next)
	if err != nil {
		return
	}
	c.SetLaw(law)
}

// bodies returns the solar-system bodies seen from the observer.
func (m SkyViewModel) bodies() []layers.BodyView {
	p := m.eng.Planets()
	if p == nil {
		return nil
	}
	return p.Views(m.eng.Core())
}

func (m SkyViewModel) focusNext() (SkyViewModel, tea.Cmd) {
	n := len(m.bodies())
	if n == 0 {
		return m, nil
	}
	m.focusIdx = (m.focusIdx + 1) % n
	return m.startAnimation()
}

func (m SkyViewModel) focusPrev() (SkyViewModel, tea.Cmd) {
	n := len(m.bodies())
	if n == 0 {
		return m, nil
	}
	m.focusIdx--
	if m.focusIdx < 0 {
		m.focusIdx = n - 1
	}
	return m.startAnimation()
}

// focused returns the focused body, if any.
func (m SkyViewModel) focused() (layers.BodyView, bool) {
	bodies := m.bodies()
	if m.focusIdx < 0 || m.focusIdx >= len(bodies) {
		return layers.BodyView{}, false
	}
	return bodies[m.focusIdx], true
}

func (m SkyViewModel) startAnimation() (SkyViewModel, tea.Cmd) {
	body, ok := m.focused()
	if !ok {
		return m, nil
	}
	m.animating = true
	m.animStartAz, m.animStartAlt = m.eng.ViewAltAz()
	m.animTargAz = body.Az
	m.animTargAlt = body.Alt
	m.animStart = time.Now()

	return m, animTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	elapsed := time.Since(m.animStart)
	t := float64(elapsed) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.eng.LookAtAltAz(m.animTargAz, m.animTargAlt)
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.eng.LookAtAltAz(
		lerpAngle(m.animStartAz, m.animTargAz, t),
		lerp(m.animStartAlt, m.animTargAlt, t),
	)
	return m, animTick()
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.canvas.String())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135")) // violet
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))               // muted purple
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))     // soft purple

	c := m.eng.Core()
	sky := m.eng.SkyDrawer()

	title := titleStyle.Render("Sky View")
	when := accentStyle.Render(formatJD(c.JD()))
	rate := dimStyle.Render(formatRate(c.TimeRate()))

	atm := dimStyle.Render("Atmosphere: off")
	if sky.ShowAtmosphere() {
		atm = accentStyle.Render(fmt.Sprintf("Atmosphere: on, Bortle %d", sky.Bortle()))
	}
	labels := dimStyle.Render("Labels: " + m.labelMode.String())
	view := dimStyle.Render(fmt.Sprintf("%s %.1f°", c.Law().Name(), c.Fov()))

	return strings.Join([]string{title, when, rate, atm, labels, view}, " | ")
}

func (m SkyViewModel) renderStatus() string {
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))

	body, ok := m.focused()
	if !ok {
		az, alt := m.eng.ViewAltAz()
		return dimStyle.Render(fmt.Sprintf("Looking Az %s Alt %s | %s | %d stars",
			formatAngle(az), formatAngle(alt), m.site(), m.drawnStars()))
	}

	line := fmt.Sprintf(">>> %s | RA %s Dec %s | Az %s Alt %s | %.4f AU (%s)",
		body.Name,
		formatRA(body.RA),
		formatAngle(body.Dec),
		formatAngle(body.Az),
		formatAngle(body.Alt),
		body.DistanceAU,
		astro.FormatLightTime(astro.LightTimeDays(body.DistanceAU)*86400),
	)
	status := accentStyle.Render(line)
	if body.Alt < 0 {
		status += dimStyle.Render("  below horizon")
	}
	if summary := m.passSummary(body.Name); summary != "" {
		status += dimStyle.Render(" | " + summary)
	}
	return status
}

// passSummary describes when name rises and sets, or returns "" when no
// plan can be made for it.
func (m SkyViewModel) passSummary(name string) string {
	loc := m.eng.Location()
	plan, err := m.passes.Plan(m.eng, loc.String(), name, m.eng.Core().JD())
	if err != nil {
		return ""
	}
	tz, err := loc.TimeLocation()
	if err != nil {
		tz = time.UTC
	}
	return plan.Summary(tz)
}

// site names the observer's location.
func (m SkyViewModel) site() string {
	loc := m.eng.Location()
	if loc.Name != "" {
		return loc.Name
	}
	return fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
}

func (m SkyViewModel) drawnStars() int {
	if s := m.eng.Stars(); s != nil {
		return s.Drawn()
	}
	return 0
}

// formatRA renders degrees of right ascension as hours, minutes and
// seconds.
func formatRA(deg float64) string {
	return fmt.Sprint(sexa.FmtRA(unit.RAFromDeg(deg)))
}

// formatAngle renders degrees as degrees, minutes and seconds.
func formatAngle(deg float64) string {
	return fmt.Sprint(sexa.FmtAngle(unit.AngleFromDeg(deg)))
}

// formatJD renders a UT Julian Day as a calendar time.
func formatJD(jd float64) string {
	t, ok := astro.TimeFromJD(jd)
	if !ok {
		return fmt.Sprintf("JD %.5f", jd)
	}
	return t.Format("2006-01-02 15:04:05 UTC")
}

func formatRate(rate float64) string {
	switch rate {
	case 0:
		return "paused"
	case 1:
		return "real time"
	default:
		return fmt.Sprintf("x%g", rate)
	}
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	switch {
	case a > 180:
		a -= 360
	case a < -180:
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

// lerp linear interpolation
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Init returns nil cmd
func (m SkyViewModel) Init() tea.Cmd {
	return nil
}
