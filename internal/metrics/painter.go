package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/projector"
	"github.com/litescript/ls-sky/internal/render"
)

// Painter counts what passes through to the wrapped painter.
type Painter struct {
	next render.Painter
	c    *Collector
}

var _ render.Painter = (*Painter)(nil)

// WrapPainter returns p with its draw calls counted by c. A nil c returns
// p unchanged.
func (c *Collector) WrapPainter(p render.Painter) render.Painter {
	if c == nil {
		return p
	}
	return &Painter{next: p, c: c}
}

// SetProjector implements render.Painter.
func (p *Painter) SetProjector(proj *projector.Projector) { p.next.SetProjector(proj) }

// Projector implements render.Painter.
func (p *Painter) Projector() *projector.Projector { return p.next.Projector() }

// SetColor implements render.Painter.
func (p *Painter) SetColor(col render.Color) { p.next.SetColor(col) }

// Color implements render.Painter.
func (p *Painter) Color() render.Color { return p.next.Color() }

// Draw implements render.Painter.
func (p *Painter) Draw(e *render.DrawEntity) {
	format := e.Format().String()
	p.c.DrawCalls.WithLabelValues(e.Primitive.String(), format).Inc()
	p.c.DrawVertices.WithLabelValues(format).Add(float64(len(e.Positions)))
	p.next.Draw(e)
}

// DrawText implements render.Painter.
func (p *Painter) DrawText(pos r3.Vec, text string) { p.next.DrawText(pos, text) }
