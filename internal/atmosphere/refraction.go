package atmosphere

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/projector"
)

// Altitude floors below which the empirical formulas are not used, and the
// widths of the linear fade to zero refraction beneath them, in degrees.
// With these values forward and backward are close inverses.
const (
	MinGeoAltitudeDeg      = -3.54
	MinAppAltitudeDeg      = -3.21783
	TransitionWidthGeoDeg  = 1.46
	TransitionWidthAppDeg  = 1.78217
	bennettPolynomialFloor = 0.22879
)

// Default surface conditions.
const (
	DefaultPressure    = 1013.0 // mbar
	DefaultTemperature = 10.0   // °C
)

// Refraction bends alt-az directions by atmospheric refraction. It carries
// a pre and a post transform so it can serve as a model-view transform:
// Forward applies pre, refraction, then post.
type Refraction struct {
	pressure      float64
	temperature   float64
	pressTempCorr float64

	pre, invPre   *mat.Dense
	post, invPost *mat.Dense
}

var _ projector.ModelViewTransform = (*Refraction)(nil)

// NewRefraction returns a refraction at standard conditions with identity
// pre and post transforms.
func NewRefraction() *Refraction {
	r := &Refraction{
		pressure:    DefaultPressure,
		temperature: DefaultTemperature,
		pre:         astro.Identity(),
		invPre:      astro.Identity(),
		post:        astro.Identity(),
		invPost:     astro.Identity(),
	}
	r.updatePrecomputed()
	return r
}

func (r *Refraction) updatePrecomputed() {
	r.pressTempCorr = r.pressure / 1010 * 283 / (273 + r.temperature) / 60
}

// Pressure returns the surface pressure in mbar.
func (r *Refraction) Pressure() float64 { return r.pressure }

// SetPressure sets the surface pressure in mbar.
func (r *Refraction) SetPressure(mbar float64) {
	r.pressure = mbar
	r.updatePrecomputed()
}

// Temperature returns the surface temperature in °C.
func (r *Refraction) Temperature() float64 { return r.temperature }

// SetTemperature sets the surface temperature in °C.
func (r *Refraction) SetTemperature(celsius float64) {
	r.temperature = celsius
	r.updatePrecomputed()
}

// SetPreTransformMatrix sets the transform applied before refraction.
func (r *Refraction) SetPreTransformMatrix(m mat.Matrix) {
	r.pre, r.invPre = withInverse(m)
}

// SetPostTransformMatrix sets the transform applied after refraction.
func (r *Refraction) SetPostTransformMatrix(m mat.Matrix) {
	r.post, r.invPost = withInverse(m)
}

func withInverse(m mat.Matrix) (*mat.Dense, *mat.Dense) {
	d := mat.DenseCopyOf(m)
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		// Model-view matrices are rigid; fall back to the transpose.
		return d, astro.Transpose(d)
	}
	return d, &inv
}

// saemundsson returns geometric to apparent refraction in degrees for a
// geometric altitude above MinGeoAltitudeDeg.
func (r *Refraction) saemundsson(altDeg float64) float64 {
	return r.pressTempCorr * (1.02/math.Tan(astro.DegToRad(altDeg+10.3/(altDeg+5.11))) + 0.0019279)
}

// backwardPolynomial is a fit against the inverse of saemundsson below
// the range of Bennett's formula.
func backwardPolynomial(altDeg float64) float64 {
	a := altDeg
	return (((((0.0444*a+0.7662)*a+4.9746)*a+13.599)*a+8.052)*a-11.308)*a + 34.341
}

// rescale sets v's altitude from sin(old) to sin(new), shortening or
// lengthening the horizontal part so the length stays unchanged.
func rescale(v r3.Vec, length, sinOld, sinNew float64) r3.Vec {
	xy := 1.0
	if math.Abs(sinOld) < 1 {
		xy = math.Sqrt((1 - sinNew*sinNew) / (1 - sinOld*sinOld))
	}
	return r3.Vec{X: v.X * xy, Y: v.Y * xy, Z: sinNew * length}
}

// ForwardAltAz refracts a geometric alt-az direction to its apparent
// direction. Zero vectors are returned unchanged.
func (r *Refraction) ForwardAltAz(v r3.Vec) r3.Vec {
	length := r3.Norm(v)
	if length == 0 {
		return v
	}
	sinGeo := math.Max(-1, math.Min(1, v.Z/length))
	alt := astro.RadToDeg(math.Asin(sinGeo))

	switch {
	case alt > MinGeoAltitudeDeg:
		alt += r.saemundsson(alt)
		if alt > 90 {
			alt = 90
		}
	case alt > MinGeoAltitudeDeg-TransitionWidthGeoDeg:
		floor := r.saemundsson(MinGeoAltitudeDeg)
		alt += floor * (alt - (MinGeoAltitudeDeg - TransitionWidthGeoDeg)) / TransitionWidthGeoDeg
	default:
		return v
	}
	return rescale(v, length, sinGeo, math.Sin(astro.DegToRad(alt)))
}

// BackwardAltAz removes refraction from an apparent alt-az direction. It is
// not an exact inverse of ForwardAltAz.
func (r *Refraction) BackwardAltAz(v r3.Vec) r3.Vec {
	length := r3.Norm(v)
	if length == 0 {
		return v
	}
	sinObs := math.Max(-1, math.Min(1, v.Z/length))
	alt := astro.RadToDeg(math.Asin(sinObs))

	switch {
	case alt > bennettPolynomialFloor:
		alt -= r.pressTempCorr * (1/math.Tan(astro.DegToRad(alt+7.31/(alt+4.4))) + 0.0013515)
	case alt > MinAppAltitudeDeg:
		alt -= r.pressTempCorr * backwardPolynomial(alt)
	case alt > MinAppAltitudeDeg-TransitionWidthAppDeg:
		floor := backwardPolynomial(MinAppAltitudeDeg)
		alt -= floor * r.pressTempCorr * (alt - (MinAppAltitudeDeg - TransitionWidthAppDeg)) / TransitionWidthAppDeg
	default:
		return v
	}
	return rescale(v, length, sinObs, math.Sin(astro.DegToRad(alt)))
}

// Forward applies pre, refraction and post.
func (r *Refraction) Forward(v r3.Vec) r3.Vec {
	return astro.Apply(r.post, r.ForwardAltAz(astro.Apply(r.pre, v)))
}

// Backward applies the inverse post, inverse refraction and inverse pre.
func (r *Refraction) Backward(v r3.Vec) r3.Vec {
	return astro.Apply(r.invPre, r.BackwardAltAz(astro.Apply(r.invPost, v)))
}

// Combine sets pre to pre·m.
func (r *Refraction) Combine(m mat.Matrix) {
	r.SetPreTransformMatrix(astro.Mul(r.pre, m))
}

// TransformMatrix returns post·pre, the transform without refraction.
func (r *Refraction) TransformMatrix() *mat.Dense {
	return astro.Mul(r.post, r.pre)
}

// Clone returns an independent copy.
func (r *Refraction) Clone() projector.ModelViewTransform {
	c := *r
	c.pre = mat.DenseCopyOf(r.pre)
	c.invPre = mat.DenseCopyOf(r.invPre)
	c.post = mat.DenseCopyOf(r.post)
	c.invPost = mat.DenseCopyOf(r.invPost)
	return &c
}
