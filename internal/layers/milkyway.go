package layers

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/atmosphere"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/mesh"
	"github.com/litescript/ls-sky/internal/module"
	"github.com/litescript/ls-sky/internal/render"
)

const (
	// milkyWayHalfWidth is the galactic latitude of the band edges, in
	// degrees.
	milkyWayHalfWidth = 10
	milkyWaySlices    = 45

	// Average sky luminance in cd/m² on a moonless night.
	nightSkyLuminance = 0.000616604288
)

// Band tint before scaling by sky brightness.
var colorMilkyWay = render.RGB(1, 0.3, 0.9)

// MilkyWay draws the band of the galaxy, dimmed for light pollution and
// extinction.
type MilkyWay struct {
	toggle
	log *logging.Logger

	intensity float64
	band      *render.DrawEntity
}

var _ module.Module = (*MilkyWay)(nil)

// NewMilkyWay returns a Milky Way layer at normal intensity.
func NewMilkyWay(log *logging.Logger) *MilkyWay {
	if log == nil {
		log = logging.Discard()
	}
	return &MilkyWay{log: log, intensity: 1}
}

// ID implements module.Module.
func (m *MilkyWay) ID() module.ID { return module.MilkyWay }

// Init implements module.Module. The band is built in galactic
// coordinates and turned into J2000 once.
func (m *MilkyWay) Init() error {
	half := astro.DegToRad(milkyWayHalfWidth)
	band := mesh.Sphere{
		Radius:             1,
		OneMinusOblateness: 1,
		Slices:             milkyWaySlices,
		Stacks:             1,
		OrientInside:       true,
		FlipTexture:        true,
		TopAngle:           math.Pi/2 - half,
		BottomAngle:        math.Pi/2 + half,
	}.Entity()

	toJ2000 := astro.MatGalacticToJ2000()
	for i, v := range band.Positions {
		band.Positions[i] = astro.Apply(toJ2000, v)
	}
	band.Colors = make([]render.Color, len(band.Positions))
	m.band = band
	m.log.Debug("milky way band has %d vertices", len(band.Positions))
	return nil
}

// Deinit implements module.Module.
func (m *MilkyWay) Deinit() { m.band = nil }

// Update implements module.Module.
func (m *MilkyWay) Update(time.Duration) {}

// CallOrder implements module.Module.
func (m *MilkyWay) CallOrder(a module.Action) float64 {
	if a == module.ActionDraw {
		return orderMilkyWay
	}
	return 0
}

// Intensity returns the brightness multiplier.
func (m *MilkyWay) Intensity() float64 { return m.intensity }

// SetIntensity sets the brightness multiplier; 1 is realistic.
func (m *MilkyWay) SetIntensity(v float64) { m.intensity = math.Max(0, v) }

// BaseColor returns the band color before extinction for a sky of the
// given Bortle class.
func (m *MilkyWay) BaseColor(bortle int) render.Color {
	lum := atmosphere.SurfaceBrightnessToLuminance(12 + 0.15*float64(bortle))
	lum = math.Min(0.38, lum*2)

	// Keep it visible in twilight.
	atmFactor := math.Max(0.35, 50*(0.02-nightSkyLuminance))
	c := colorMilkyWay.Scale(lum * m.intensity * atmFactor * atmFactor)
	return render.RGB(math.Max(0, c.R), math.Max(0, c.G), math.Max(0, c.B))
}

// Draw implements module.Module.
func (m *MilkyWay) Draw(c *core.Core, p render.Painter) {
	if !m.Visible() || m.band == nil {
		return
	}
	sky := c.SkyDrawer()
	base := m.BaseColor(sky.Bortle())

	ext := sky.Extinction()
	if sky.ShowAtmosphere() && ext.Coefficient() >= 0.01 {
		// Each magnitude of extinction keeps 30% of the light.
		pollution := 1.1 - 0.1*float64(sky.Bortle())
		for i, v := range m.band.Positions {
			altAz := r3.Unit(c.J2000ToAltAz(v, core.RefractionOff))
			oneMag := ext.Forward(altAz, 0)
			m.band.Colors[i] = base.Scale(math.Pow(0.3, oneMag) * pollution)
		}
	} else {
		for i := range m.band.Colors {
			m.band.Colors[i] = base
		}
	}

	p.SetProjector(c.Projection(c.J2000ModelViewTransform(core.RefractionAuto)))
	p.Draw(m.band)
}
