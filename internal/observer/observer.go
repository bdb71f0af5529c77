// Package observer binds a surface location to a home body and derives the
// observer's geometry: distance from the body's center, the topocentric
// offset and the rotations between the alt-az and equatorial frames.
package observer

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/invariant"
	"github.com/litescript/ls-sky/internal/location"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

// ErrNoHomePlanet is returned when the home handle is not in the solar
// system.
var ErrNoHomePlanet = errors.New("observer has no home planet")

// poleLatitude is where the spheroid formulas switch to their polar limit.
const poleLatitude = 89.9

// Observer stands at a fixed Location on a home body. Moving the observer
// means building a new one.
type Observer struct {
	loc  location.Location
	ss   *solarsystem.SolarSystem
	home solarsystem.Handle
}

// New returns an observer at loc on the body home of ss.
func New(loc location.Location, ss *solarsystem.SolarSystem, home solarsystem.Handle) (*Observer, error) {
	if ss == nil || home < 0 || int(home) >= ss.Len() {
		return nil, fmt.Errorf("observer at %s: %w", loc, ErrNoHomePlanet)
	}
	return &Observer{loc: loc, ss: ss, home: home}, nil
}

// Location returns the observer's site.
func (o *Observer) Location() location.Location { return o.loc }

// Home returns the handle of the home body.
func (o *Observer) Home() solarsystem.Handle { return o.home }

// HomePlanet returns the home body.
func (o *Observer) HomePlanet() *solarsystem.Planet { return o.ss.Planet(o.home) }

// CenterVsop87Pos returns the home body's center in the heliocentric VSOP87
// frame, in AU.
func (o *Observer) CenterVsop87Pos() r3.Vec {
	return o.ss.HeliocentricEclipticPos(o.home)
}

// geocentric evaluates ρ·sin φ' and ρ·cos φ' on the home spheroid
// (Meeus, Astronomical Algorithms, ch. 11), in units of the equatorial
// radius.
func (o *Observer) geocentric() (rhoSin, rhoCos float64) {
	p := o.HomePlanet()
	a := p.Radius()
	bByA := p.OneMinusOblateness()

	lat := astro.DegToRad(o.loc.Latitude)
	u := math.Atan(bByA * math.Tan(lat))
	invariant.Check(math.Abs(u) <= math.Abs(lat), "reduced latitude %v exceeds latitude %v", u, lat)
	altFix := o.loc.Altitude / (1000 * astro.AU * a)

	rhoSin = bByA*math.Sin(u) + altFix*math.Sin(lat)
	rhoCos = math.Cos(u) + altFix*math.Cos(lat)
	return rhoSin, rhoCos
}

// DistanceFromCenter returns the distance ρ between the observer and the
// home body's center, in AU.
func (o *Observer) DistanceFromCenter() float64 {
	p := o.HomePlanet()
	a := p.Radius()
	if math.Abs(o.loc.Latitude) >= poleLatitude {
		return a * p.OneMinusOblateness()
	}
	rhoSin, rhoCos := o.geocentric()
	return math.Hypot(rhoSin, rhoCos) * a
}

// TopographicOffset returns ρ·cos φ' and ρ·sin φ' in AU and the geocentric
// latitude φ' in radians, packed as X, Y and Z.
func (o *Observer) TopographicOffset() r3.Vec {
	p := o.HomePlanet()
	a := p.Radius()
	if math.Abs(o.loc.Latitude) >= poleLatitude {
		v := a * p.OneMinusOblateness()
		return r3.Vec{X: v, Y: v, Z: v}
	}
	rhoSin, rhoCos := o.geocentric()
	rho := math.Hypot(rhoSin, rhoCos)
	return r3.Vec{X: rhoCos * a, Y: rhoSin * a, Z: math.Asin(rhoSin / rho)}
}

// RotAltAzToEquatorial returns the rotation from the observer's alt-az
// frame to the home body's equatorial frame. Earth needs UT day jd; other
// bodies rotate on ephemeris day jde.
func (o *Observer) RotAltAzToEquatorial(jd, jde float64) *mat.Dense {
	lat := o.loc.Latitude
	invariant.Check(lat >= -90 && lat <= 90, "observer latitude %v out of range", lat)
	lat = math.Max(-90, math.Min(90, lat))

	st := o.HomePlanet().SiderealTime(jd, jde, o.ss.UseNutation())
	return astro.Mul(
		astro.RotZ(astro.DegToRad(st+o.loc.Longitude)),
		astro.RotY(astro.DegToRad(90-lat)),
	)
}

// RotEquatorialToVsop87 returns the rotation from the home body's
// equatorial frame to the VSOP87 frame.
func (o *Observer) RotEquatorialToVsop87() *mat.Dense {
	return o.ss.RotEquatorialToVsop87(o.home)
}
