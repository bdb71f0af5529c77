package render

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/projector"
)

// Painter draws entities through the current projector. Positions are in
// the frame the projector's model-view transform expects.
type Painter interface {
	SetProjector(p *projector.Projector)
	Projector() *projector.Projector

	// SetColor sets the color for entities without per-vertex colors.
	SetColor(c Color)
	Color() Color

	Draw(e *DrawEntity)
	// DrawText writes a label next to the projection of pos.
	DrawText(pos r3.Vec, text string)
}
