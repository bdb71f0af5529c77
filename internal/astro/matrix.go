package astro

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// All frame transforms are 4x4 affine matrices acting on column vectors
// (x, y, z, 1). Rotations follow the right-hand rule.

// Identity returns a new 4x4 identity matrix.
func Identity() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// RotX returns a rotation of a radians about the x axis.
func RotX(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	})
}

// RotY returns a rotation of a radians about the y axis.
func RotY(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(4, 4, []float64{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	})
}

// RotZ returns a rotation of a radians about the z axis.
func RotZ(a float64) *mat.Dense {
	s, c := math.Sincos(a)
	return mat.NewDense(4, 4, []float64{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
}

// Translation returns a matrix that translates by v.
func Translation(v r3.Vec) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
		0, 0, 0, 1,
	})
}

// Mul returns the product m[0]·m[1]·…·m[n-1] as a new matrix.
func Mul(ms ...mat.Matrix) *mat.Dense {
	if len(ms) == 0 {
		return Identity()
	}
	acc := mat.DenseCopyOf(ms[0])
	for _, m := range ms[1:] {
		var next mat.Dense
		next.Mul(acc, m)
		acc = &next
	}
	return acc
}

// Transpose returns the full 4x4 transpose of m as a new matrix. For pure
// rotations this is the inverse.
func Transpose(m mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(m.T())
}

// Apply transforms the point v by m.
func Apply(m mat.Matrix, v r3.Vec) r3.Vec {
	return r3.Vec{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z + m.At(0, 3),
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z + m.At(1, 3),
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z + m.At(2, 3),
	}
}

// ApplyTransposed transforms v by the transpose of the rotation part of m,
// after removing the translation. For rigid transforms this is the inverse.
func ApplyTransposed(m mat.Matrix, v r3.Vec) r3.Vec {
	p := r3.Sub(v, TranslationOf(m))
	return r3.Vec{
		X: m.At(0, 0)*p.X + m.At(1, 0)*p.Y + m.At(2, 0)*p.Z,
		Y: m.At(0, 1)*p.X + m.At(1, 1)*p.Y + m.At(2, 1)*p.Z,
		Z: m.At(0, 2)*p.X + m.At(1, 2)*p.Y + m.At(2, 2)*p.Z,
	}
}

// TranslationOf returns the translation column of m.
func TranslationOf(m mat.Matrix) r3.Vec {
	return r3.Vec{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Obliquity of the VSOP87 ecliptic to the J2000 equator, and the small
// rotation of the VSOP87 frame about the pole, in degrees.
const (
	vsop87ObliquityDeg = 23.4392803055555555556
	vsop87FrameBiasDeg = 0.0000275
)

var (
	matJ2000ToVsop87 = Mul(RotX(DegToRad(-vsop87ObliquityDeg)), RotZ(DegToRad(vsop87FrameBiasDeg)))
	matVsop87ToJ2000 = Transpose(matJ2000ToVsop87)
)

// MatJ2000ToVsop87 returns the rotation from the J2000 equatorial frame to
// the heliocentric ecliptic VSOP87 frame.
func MatJ2000ToVsop87() *mat.Dense {
	return mat.DenseCopyOf(matJ2000ToVsop87)
}

// MatVsop87ToJ2000 returns the inverse of MatJ2000ToVsop87.
func MatVsop87ToJ2000() *mat.Dense {
	return mat.DenseCopyOf(matVsop87ToJ2000)
}

// North galactic pole and galactic center in J2000 equatorial degrees.
const (
	galacticPoleRA    = 192.85948
	galacticPoleDec   = 27.12825
	galacticCenterRA  = 266.40510
	galacticCenterDec = -28.936175
)

var matGalacticToJ2000 = func() *mat.Dense {
	z := EquatorialToVec(galacticPoleRA, galacticPoleDec)
	x := EquatorialToVec(galacticCenterRA, galacticCenterDec)
	x = r3.Unit(r3.Sub(x, r3.Scale(r3.Dot(x, z), z)))
	y := r3.Cross(z, x)
	return mat.NewDense(4, 4, []float64{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		0, 0, 0, 1,
	})
}()

// MatGalacticToJ2000 returns the rotation from galactic coordinates (x
// toward the galactic center, z toward the north galactic pole) to the
// J2000 equatorial frame.
func MatGalacticToJ2000() *mat.Dense {
	return mat.DenseCopyOf(matGalacticToJ2000)
}
