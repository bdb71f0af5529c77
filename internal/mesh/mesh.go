// Package mesh builds the cos/sin tables used to tessellate circles,
// spheres and rings. Every call returns a fresh slice owned by the caller.
package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/litescript/ls-sky/internal/invariant"
)

// rotate turns v counterclockwise by the angle whose cosine and sine are
// c and s.
func rotate(v r2.Vec, c, s float64) r2.Vec {
	return r2.Vec{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// CosSinTheta returns slices+1 (cos θ, sin θ) pairs for θ stepping through
// a full turn in slices equal parts. Entry slices-k mirrors entry k with
// the sine negated, so the first and last entries are both (1, 0).
func CosSinTheta(slices int) []r2.Vec {
	invariant.Check(slices > 0, "CosSinTheta: slices = %d", slices)
	if slices <= 0 {
		return nil
	}
	s, c := math.Sincos(2 * math.Pi / float64(slices))

	out := make([]r2.Vec, slices+1)
	v := r2.Vec{X: 1}
	for i := 0; i <= slices-i; i++ {
		out[i] = v
		if slices-i != i {
			out[slices-i] = r2.Vec{X: v.X, Y: -v.Y}
		}
		v = rotate(v, c, s)
	}
	return out
}

// CosSinRho returns segments+1 (cos ρ, sin ρ) pairs for ρ stepping from 0
// to π. Entry segments-k mirrors entry k with the cosine negated.
func CosSinRho(segments int) []r2.Vec {
	invariant.Check(segments > 0, "CosSinRho: segments = %d", segments)
	if segments <= 0 {
		return nil
	}
	s, c := math.Sincos(math.Pi / float64(segments))

	out := make([]r2.Vec, segments+1)
	v := r2.Vec{X: 1}
	for i := 0; i <= segments-i; i++ {
		out[i] = v
		if segments-i != i {
			out[segments-i] = r2.Vec{X: -v.X, Y: v.Y}
		}
		v = rotate(v, c, s)
	}
	return out
}

// CosSinRhoZone returns segments+1 (cos ρ, sin ρ) pairs for ρ starting at
// minAngle and growing by dRho, all in radians.
func CosSinRhoZone(dRho float64, segments int, minAngle float64) []r2.Vec {
	invariant.Check(segments > 0, "CosSinRhoZone: segments = %d", segments)
	if segments <= 0 {
		return nil
	}
	s, c := math.Sincos(dRho)

	out := make([]r2.Vec, segments+1)
	sinMin, cosMin := math.Sincos(minAngle)
	out[0] = r2.Vec{X: cosMin, Y: sinMin}
	for i := 1; i <= segments; i++ {
		out[i] = rotate(out[i-1], c, s)
	}
	return out
}
