// Package projector maps camera-frame directions to viewport pixels and
// back through a model-view transform and a replaceable projection law.
package projector

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
)

// Viewport is a pixel rectangle.
type Viewport struct {
	X, Y, Width, Height int
}

// Contains reports whether the pixel position p lies inside the viewport.
func (v Viewport) Contains(p r2.Vec) bool {
	return p.X >= float64(v.X) && p.X < float64(v.X+v.Width) &&
		p.Y >= float64(v.Y) && p.Y < float64(v.Y+v.Height)
}

// Params holds everything needed to build a Projector.
type Params struct {
	Viewport       Viewport
	Fov            float64 // Full field of view in degrees
	ZNear, ZFar    float64 // Depth range mapped onto [0, -1]
	ViewportCenter r2.Vec  // Center of the FOV disk in pixels
	FovDiameter    float64 // Diameter of the FOV disk in pixels
}

// DefaultParams returns a 256x256 viewport with a 60° field of view.
func DefaultParams() Params {
	return Params{
		Viewport:       Viewport{Width: 256, Height: 256},
		Fov:            60,
		ZNear:          1e-6,
		ZFar:           500,
		ViewportCenter: r2.Vec{X: 128, Y: 128},
		FovDiameter:    256,
	}
}

// Projector projects through one model-view transform and one law.
type Projector struct {
	mv     ModelViewTransform
	law    Law
	params Params

	pixelPerRad          float64
	oneOverZNearMinusFar float64
}

// New returns a projector. The projector keeps mv; callers that keep
// mutating their transform should pass a Clone.
func New(law Law, mv ModelViewTransform, p Params) *Projector {
	return &Projector{
		mv:                   mv,
		law:                  law,
		params:               p,
		pixelPerRad:          0.5 * p.FovDiameter / law.FovToVSF(astro.DegToRad(p.Fov/2)),
		oneOverZNearMinusFar: 1 / (p.ZNear - p.ZFar),
	}
}

// Law returns the projection law.
func (p *Projector) Law() Law { return p.law }

// ModelView returns the model-view transform.
func (p *Projector) ModelView() ModelViewTransform { return p.mv }

// Params returns the parameters the projector was built with.
func (p *Projector) Params() Params { return p.params }

// Viewport returns the pixel rectangle.
func (p *Projector) Viewport() Viewport { return p.params.Viewport }

// Fov returns the full field of view in degrees.
func (p *Projector) Fov() float64 { return p.params.Fov }

// ViewportCenter returns the FOV disk center relative to the viewport
// origin.
func (p *Projector) ViewportCenter() r2.Vec {
	return r2.Vec{
		X: p.params.ViewportCenter.X - float64(p.params.Viewport.X),
		Y: p.params.ViewportCenter.Y - float64(p.params.Viewport.Y),
	}
}

// PixelPerRadAtCenter returns the scale at the center of the FOV disk.
func (p *Projector) PixelPerRadAtCenter() float64 { return p.pixelPerRad }

// Project maps v into window coordinates: pixels in X and Y, and in Z a
// depth running from 0 at the near plane to -1 at the far plane. It
// reports false when the law cannot place v, for example behind a
// perspective camera.
func (p *Projector) Project(v r3.Vec) (r3.Vec, bool) {
	w, ok := p.law.Forward(p.mv.Forward(v))
	return r3.Vec{
		X: p.params.ViewportCenter.X + p.pixelPerRad*w.X,
		Y: p.params.ViewportCenter.Y + p.pixelPerRad*w.Y,
		Z: (w.Z - p.params.ZNear) * p.oneOverZNearMinusFar,
	}, ok
}

// ProjectCheck projects v and additionally requires the result to fall
// inside the viewport.
func (p *Projector) ProjectCheck(v r3.Vec) (r3.Vec, bool) {
	w, ok := p.Project(v)
	return w, ok && p.params.Viewport.Contains(r2.Vec{X: w.X, Y: w.Y})
}

// Unproject maps pixel (x, y) back to a direction in the sky frame.
func (p *Projector) Unproject(x, y float64) (r3.Vec, bool) {
	v, ok := p.law.Backward(r3.Vec{
		X: (x - p.params.ViewportCenter.X) / p.pixelPerRad,
		Y: (y - p.params.ViewportCenter.Y) / p.pixelPerRad,
	})
	return p.mv.Backward(v), ok
}

// ProjectionMatrix returns the orthographic matrix mapping viewport pixels
// to normalized device coordinates.
func (p *Projector) ProjectionMatrix() *mat.Dense {
	vp := p.params.Viewport
	w, h := float64(vp.Width), float64(vp.Height)
	return mat.NewDense(4, 4, []float64{
		2 / w, 0, 0, -(2*float64(vp.X) + w) / w,
		0, 2 / h, 0, -(2*float64(vp.Y) + h) / h,
		0, 0, -1, 0,
		0, 0, 0, 1,
	})
}

// DeltaZoom returns the zoom increment for the current field of view, in
// degrees.
func (p *Projector) DeltaZoom() float64 {
	return astro.RadToDeg(p.law.DeltaZoom(astro.DegToRad(p.params.Fov / 2)))
}

// ClampFov limits fov to what law supports.
func ClampFov(law Law, fov float64) float64 {
	return math.Max(1e-3, math.Min(law.MaxFov(), fov))
}
