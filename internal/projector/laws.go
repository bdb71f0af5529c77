package projector

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrUnknownProjection is returned by LawByName for unsupported names.
var ErrUnknownProjection = errors.New("unknown projection")

// Law is a projection from camera-frame directions to the view plane.
// Forward leaves the original vector length in Z so depth testing does not
// depend on the law. Field-of-view arguments are half-angles in radians.
type Law interface {
	Name() string
	// MaxFov returns the widest supported field of view in degrees.
	MaxFov() float64
	Forward(v r3.Vec) (r3.Vec, bool)
	Backward(v r3.Vec) (r3.Vec, bool)
	// DeltaZoom returns a small zoom increment suited to fov.
	DeltaZoom(fov float64) float64
	FovToVSF(fov float64) float64
	VSFToFov(vsf float64) float64
}

// LawByName returns the law for a config name.
func LawByName(name string) (Law, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "perspective", "":
		return Perspective{}, nil
	case "stereographic":
		return Stereographic{}, nil
	case "fisheye":
		return Fisheye{}, nil
	case "orthographic":
		return Orthographic{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProjection, name)
	}
}

// behind is returned for directions a law cannot place on the view plane.
var behind = r3.Vec{X: math.MaxFloat64, Y: math.MaxFloat64, Z: -math.MaxFloat64}

// Perspective is the gnomonic projection.
type Perspective struct{}

func (Perspective) Name() string    { return "perspective" }
func (Perspective) MaxFov() float64 { return 120 }

func (Perspective) Forward(v r3.Vec) (r3.Vec, bool) {
	r := r3.Norm(v)
	switch {
	case v.Z < 0:
		return r3.Vec{X: v.X / -v.Z, Y: v.Y / -v.Z, Z: r}, true
	case v.Z > 0:
		return r3.Vec{X: v.X / v.Z, Y: v.Y / v.Z, Z: -math.MaxFloat64}, false
	default:
		return behind, false
	}
}

func (Perspective) Backward(v r3.Vec) (r3.Vec, bool) {
	z := math.Sqrt(1 / (1 + v.X*v.X + v.Y*v.Y))
	return r3.Vec{X: v.X * z, Y: v.Y * z, Z: -z}, true
}

func (p Perspective) DeltaZoom(fov float64) float64 {
	vsf := p.FovToVSF(fov)
	return vsf / (1 + vsf*vsf)
}

func (Perspective) FovToVSF(fov float64) float64 { return math.Tan(fov) }
func (Perspective) VSFToFov(vsf float64) float64 { return math.Atan(vsf) }

// Stereographic is the conformal azimuthal projection.
type Stereographic struct{}

func (Stereographic) Name() string    { return "stereographic" }
func (Stereographic) MaxFov() float64 { return 235 }

func (Stereographic) Forward(v r3.Vec) (r3.Vec, bool) {
	r := r3.Norm(v)
	h := 0.5 * (r - v.Z)
	if h <= 0 {
		return behind, false
	}
	return r3.Vec{X: v.X / h, Y: v.Y / h, Z: r}, true
}

func (Stereographic) Backward(v r3.Vec) (r3.Vec, bool) {
	lqq := 0.25 * (v.X*v.X + v.Y*v.Y)
	f := 1 / (lqq + 1)
	return r3.Vec{X: v.X * f, Y: v.Y * f, Z: (lqq - 1) * f}, true
}

func (s Stereographic) DeltaZoom(fov float64) float64 {
	vsf := s.FovToVSF(fov)
	return 4 * vsf / (4 + vsf*vsf)
}

func (Stereographic) FovToVSF(fov float64) float64 { return 2 * math.Tan(0.5*fov) }
func (Stereographic) VSFToFov(vsf float64) float64 { return 2 * math.Atan(0.5*vsf) }

// Fisheye is the azimuthal equidistant projection.
type Fisheye struct{}

func (Fisheye) Name() string    { return "fisheye" }
func (Fisheye) MaxFov() float64 { return 360 }

func (Fisheye) Forward(v r3.Vec) (r3.Vec, bool) {
	rq1 := v.X*v.X + v.Y*v.Y
	if rq1 > 0 {
		h := math.Sqrt(rq1)
		f := math.Atan2(h, -v.Z) / h
		return r3.Vec{X: v.X * f, Y: v.Y * f, Z: math.Sqrt(rq1 + v.Z*v.Z)}, true
	}
	if v.Z < 0 {
		return r3.Vec{Z: -v.Z}, true
	}
	return behind, false
}

func (Fisheye) Backward(v r3.Vec) (r3.Vec, bool) {
	a := math.Hypot(v.X, v.Y)
	f := 1.0
	if a > 0 {
		f = math.Sin(a) / a
	}
	return r3.Vec{X: v.X * f, Y: v.Y * f, Z: -math.Cos(a)}, a < math.Pi
}

func (Fisheye) DeltaZoom(fov float64) float64 { return fov }

func (Fisheye) FovToVSF(fov float64) float64 { return fov }
func (Fisheye) VSFToFov(vsf float64) float64 { return vsf }

// Orthographic projects onto the view plane along the view axis, showing
// one hemisphere.
type Orthographic struct{}

func (Orthographic) Name() string    { return "orthographic" }
func (Orthographic) MaxFov() float64 { return 180 }

func (Orthographic) Forward(v r3.Vec) (r3.Vec, bool) {
	r := r3.Norm(v)
	if r == 0 {
		return behind, false
	}
	return r3.Vec{X: v.X / r, Y: v.Y / r, Z: r}, v.Z <= 0
}

func (Orthographic) Backward(v r3.Vec) (r3.Vec, bool) {
	dq := v.X*v.X + v.Y*v.Y
	h := 1 - dq
	if h < 0 {
		f := 1 / math.Sqrt(dq)
		return r3.Vec{X: v.X * f, Y: v.Y * f}, false
	}
	return r3.Vec{X: v.X, Y: v.Y, Z: -math.Sqrt(h)}, true
}

func (o Orthographic) DeltaZoom(fov float64) float64 {
	vsf := o.FovToVSF(fov)
	return vsf / math.Sqrt(1-vsf*vsf)
}

func (Orthographic) FovToVSF(fov float64) float64 { return math.Sin(fov) }

func (Orthographic) VSFToFov(vsf float64) float64 {
	return math.Asin(math.Max(-1, math.Min(1, vsf)))
}
