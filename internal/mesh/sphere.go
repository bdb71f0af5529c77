package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/invariant"
	"github.com/litescript/ls-sky/internal/render"
)

// Sphere describes an unlit, textured sphere cut into Slices meridian
// zones and Stacks latitude zones.
type Sphere struct {
	Radius             float64
	OneMinusOblateness float64
	Slices, Stacks     int

	// OrientInside faces the triangles inward, for backgrounds seen from
	// the center.
	OrientInside bool
	// FlipTexture mirrors the texture horizontally.
	FlipTexture bool

	// TopAngle and BottomAngle are opening angles from the top pole in
	// radians. Zero and π give the whole sphere; anything else leaves the
	// pole caps empty.
	TopAngle, BottomAngle float64
}

// FullSphere returns a whole sphere of the given size and tessellation.
func FullSphere(radius float64, slices, stacks int) Sphere {
	return Sphere{
		Radius:             radius,
		OneMinusOblateness: 1,
		Slices:             slices,
		Stacks:             stacks,
		BottomAngle:        math.Pi,
	}
}

// Entity tessellates s into indexed triangles with texture coordinates.
func (s Sphere) Entity() *render.DrawEntity {
	invariant.Check(s.TopAngle < s.BottomAngle, "sphere opening angles %v >= %v", s.TopAngle, s.BottomAngle)
	invariant.Check((s.Slices+1)*s.Stacks*2 <= math.MaxUint16+1, "sphere %dx%d exceeds 16-bit indices", s.Slices, s.Stacks)

	e := &render.DrawEntity{Primitive: render.Triangles}
	if s.Slices <= 0 || s.Stacks <= 0 {
		return e
	}

	nsign, t := 1.0, 1.0
	if s.OrientInside {
		// The texture is reversed when seen from inside.
		nsign, t = -1, 0
	}

	var rho []r2.Vec
	if s.BottomAngle > math.Pi-0.0001 && s.TopAngle < 0.0001 {
		rho = CosSinRho(s.Stacks)
	} else {
		dRho := (s.BottomAngle - s.TopAngle) / float64(s.Stacks)
		rho = CosSinRhoZone(dRho, s.Stacks, math.Pi-s.BottomAngle)
	}
	theta := CosSinTheta(s.Slices)

	ds := 1 / float64(s.Slices)
	if s.FlipTexture {
		ds = -ds
	}
	dt := nsign / float64(s.Stacks)

	vertex := func(th, rh r2.Vec) r3.Vec {
		return r3.Vec{
			X: -th.Y * rh.Y * s.Radius,
			Y: th.X * rh.Y * s.Radius,
			Z: nsign * rh.X * s.OneMinusOblateness * s.Radius,
		}
	}

	// Quad strips, two triangles per quad.
	for i := 0; i < s.Stacks; i++ {
		u := 0.0
		if s.FlipTexture {
			u = 1
		}
		for j := 0; j <= s.Slices; j++ {
			e.Positions = append(e.Positions, vertex(theta[j], rho[i]), vertex(theta[j], rho[i+1]))
			e.TexCoords = append(e.TexCoords, r2.Vec{X: u, Y: t}, r2.Vec{X: u, Y: t - dt})
			u += ds
		}
		offset := i * (s.Slices + 1) * 2
		for j := 2; j < s.Slices*2+2; j += 2 {
			e.Indices = append(e.Indices,
				uint16(offset+j-2), uint16(offset+j-1), uint16(offset+j),
				uint16(offset+j), uint16(offset+j-1), uint16(offset+j+1),
			)
		}
		t -= dt
	}
	return e
}
