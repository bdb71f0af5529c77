package layers

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/mesh"
	"github.com/litescript/ls-sky/internal/module"
	"github.com/litescript/ls-sky/internal/render"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

// discSegments is the tessellation of body outlines.
const discSegments = 32

// minDiscPixels is the apparent radius above which bodies get an outline.
const minDiscPixels = 1.5

type bodyStyle struct {
	glyph rune
	color render.Color
}

var (
	defaultBodyStyle = bodyStyle{'●', render.RGB(0.85, 0.85, 0.85)}
	bodyStyles       = map[string]bodyStyle{
		"Sun":     {'☉', render.RGB(1, 0.9, 0.4)},
		"Moon":    {'☾', render.RGB(0.85, 0.85, 0.8)},
		"Mercury": {'●', render.RGB(0.7, 0.7, 0.7)},
		"Venus":   {'●', render.RGB(1, 1, 0.85)},
		"Mars":    {'●', render.RGB(1, 0.5, 0.3)},
		"Jupiter": {'●', render.RGB(0.95, 0.85, 0.7)},
		"Saturn":  {'●', render.RGB(0.95, 0.9, 0.6)},
		"Uranus":  {'●', render.RGB(0.6, 0.9, 0.95)},
		"Neptune": {'●', render.RGB(0.4, 0.5, 1)},
	}
)

// BodyView is where a solar-system body appears to the observer.
type BodyView struct {
	Name   string
	Handle solarsystem.Handle

	// AltAz is the vector from the observer in AU, refracted when the
	// atmosphere is shown.
	AltAz      r3.Vec
	Az, Alt    float64 // degrees
	RA, Dec    float64 // degrees, equator of date
	DistanceAU float64

	// AngularRadius is the apparent radius in degrees.
	AngularRadius float64
}

// SolarSystem draws the bodies of a solar system other than the one the
// observer stands on.
type SolarSystem struct {
	toggle
	log *logging.Logger
	ss  *solarsystem.SolarSystem

	circle []r3.Vec // unit circle in the XY plane
	labels bool
}

var _ module.Module = (*SolarSystem)(nil)

// NewSolarSystem returns a layer drawing the bodies of ss.
func NewSolarSystem(ss *solarsystem.SolarSystem, log *logging.Logger) *SolarSystem {
	if log == nil {
		log = logging.Discard()
	}
	return &SolarSystem{log: log, ss: ss, labels: true}
}

// ID implements module.Module.
func (l *SolarSystem) ID() module.ID { return module.SolarSystem }

// Init implements module.Module.
func (l *SolarSystem) Init() error {
	cs := mesh.CosSinTheta(discSegments)
	l.circle = make([]r3.Vec, discSegments)
	for i := range l.circle {
		l.circle[i] = r3.Vec{X: cs[i].X, Y: cs[i].Y}
	}
	l.log.Debug("drawing %d bodies", l.ss.Len())
	return nil
}

// Deinit implements module.Module.
func (l *SolarSystem) Deinit() { l.circle = nil }

// Update implements module.Module. Positions follow the core's clock.
func (l *SolarSystem) Update(time.Duration) {}

// CallOrder implements module.Module.
func (l *SolarSystem) CallOrder(a module.Action) float64 {
	if a == module.ActionDraw {
		return orderSolarSystem
	}
	return 0
}

// SetLabels turns body names on or off.
func (l *SolarSystem) SetLabels(v bool) { l.labels = v }

// Labels reports whether body names are drawn.
func (l *SolarSystem) Labels() bool { return l.labels }

// position returns where h is drawn in heliocentric VSOP87 coordinates.
// The Sun sits at the light-time corrected position.
func (l *SolarSystem) position(h solarsystem.Handle) r3.Vec {
	if h == l.ss.Sun() {
		return l.ss.LightTimeSunPosition()
	}
	return l.ss.HeliocentricEclipticPos(h)
}

// Views returns every body except the observer's own, in the system's
// order.
func (l *SolarSystem) Views(c *core.Core) []BodyView {
	home := c.Observer().Home()
	var out []BodyView
	for _, h := range l.ss.Handles() {
		if h == home {
			continue
		}
		out = append(out, l.View(c, h))
	}
	return out
}

// View returns where body h appears to the observer.
func (l *SolarSystem) View(c *core.Core, h solarsystem.Handle) BodyView {
	pos := l.position(h)
	altAz := c.HeliocentricEclipticToAltAz(pos, core.RefractionAuto)
	az, alt := astro.VecToHorizontal(altAz)
	ra, dec := astro.VecToEquatorial(c.HeliocentricEclipticToEquinoxEqu(pos))
	dist := r3.Norm(altAz)
	return BodyView{
		Name:          l.ss.Planet(h).Name(),
		Handle:        h,
		AltAz:         altAz,
		Az:            az,
		Alt:           alt,
		RA:            ra,
		Dec:           dec,
		DistanceAU:    dist,
		AngularRadius: astro.RadToDeg(math.Atan2(l.ss.Planet(h).Radius(), dist)),
	}
}

// disc returns an outline of body h as seen from obs, in heliocentric
// coordinates.
func (l *SolarSystem) disc(h solarsystem.Handle, pos, obs r3.Vec) []r3.Vec {
	d := r3.Unit(r3.Sub(pos, obs))
	u := r3.Cross(d, r3.Vec{Z: 1})
	if r3.Norm(u) < 1e-9 {
		u = r3.Cross(d, r3.Vec{X: 1})
	}
	u = r3.Unit(u)
	v := r3.Cross(d, u)

	radius := l.ss.Planet(h).Radius()
	out := make([]r3.Vec, len(l.circle))
	for i, cs := range l.circle {
		out[i] = r3.Add(pos, r3.Add(r3.Scale(radius*cs.X, u), r3.Scale(radius*cs.Y, v)))
	}
	return out
}

// Draw implements module.Module.
func (l *SolarSystem) Draw(c *core.Core, p render.Painter) {
	if !l.Visible() {
		return
	}
	proj := c.Projection(c.HeliocentricEclipticModelViewTransform(core.RefractionAuto))
	p.SetProjector(proj)
	obs := c.AltAzToHeliocentricEcliptic(r3.Vec{})

	views := l.Views(c)
	// Farthest first so nearer bodies cover them.
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].DistanceAU > views[j].DistanceAU
	})

	for _, v := range views {
		style, ok := bodyStyles[v.Name]
		if !ok {
			style = defaultBodyStyle
		}
		pos := l.position(v.Handle)
		if astro.DegToRad(v.AngularRadius)*proj.PixelPerRadAtCenter() >= minDiscPixels {
			p.SetColor(style.color)
			p.Draw(&render.DrawEntity{Primitive: render.LineLoop, Positions: l.disc(v.Handle, pos, obs)})
		}
		p.Draw(&render.DrawEntity{
			Primitive: render.Points,
			Positions: []r3.Vec{pos},
			Colors:    []render.Color{style.color},
			Glyph:     style.glyph,
		})
		if l.labels {
			p.SetColor(style.color.Scale(0.8))
			p.DrawText(pos, v.Name)
		}
	}
}
