package layers

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/mesh"
	"github.com/litescript/ls-sky/internal/module"
	"github.com/litescript/ls-sky/internal/render"
)

// horizonSegments is the tessellation of the horizon circle.
const horizonSegments = 72

var (
	colorHorizon  = render.RGB(0.37, 0.37, 0.53) // muted purple
	colorCardinal = xterm(252)
)

var cardinals = []struct {
	glyph rune
	az    float64
}{
	{'N', 0},
	{'E', 90},
	{'S', 180},
	{'W', 270},
}

// Landscape draws the horizon and the cardinal points. It is not
// refracted.
type Landscape struct {
	toggle
	log *logging.Logger

	horizon *render.DrawEntity
}

var _ module.Module = (*Landscape)(nil)

// NewLandscape returns a horizon layer.
func NewLandscape(log *logging.Logger) *Landscape {
	if log == nil {
		log = logging.Discard()
	}
	return &Landscape{log: log}
}

// ID implements module.Module.
func (l *Landscape) ID() module.ID { return module.Landscape }

// Init implements module.Module.
func (l *Landscape) Init() error {
	cs := mesh.CosSinTheta(horizonSegments)
	l.horizon = &render.DrawEntity{Primitive: render.LineLoop}
	for _, v := range cs[:horizonSegments] {
		l.horizon.Positions = append(l.horizon.Positions, r3.Vec{X: v.X, Y: v.Y})
	}
	return nil
}

// Deinit implements module.Module.
func (l *Landscape) Deinit() { l.horizon = nil }

// Update implements module.Module.
func (l *Landscape) Update(time.Duration) {}

// CallOrder implements module.Module.
func (l *Landscape) CallOrder(a module.Action) float64 {
	if a == module.ActionDraw {
		return orderLandscape
	}
	return 0
}

// Draw implements module.Module.
func (l *Landscape) Draw(c *core.Core, p render.Painter) {
	if !l.Visible() || l.horizon == nil {
		return
	}
	p.SetProjector(c.Projection(c.AltAzModelViewTransform(core.RefractionOff)))

	p.SetColor(colorHorizon)
	p.Draw(l.horizon)
	for _, cp := range cardinals {
		p.Draw(&render.DrawEntity{
			Primitive: render.Points,
			Positions: []r3.Vec{astro.HorizontalToVec(cp.az, 0)},
			Colors:    []render.Color{colorCardinal},
			Glyph:     cp.glyph,
		})
	}
}
