// Package solarsystem models the tree of bodies whose positions and
// orientations feed the sky transform pipeline.
package solarsystem

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
)

// PosFunc returns a body's ecliptic position (AU) and velocity (AU/day)
// relative to its parent, in the VSOP87 frame, at ephemeris day jde.
type PosFunc func(jde float64) (pos, vel r3.Vec, err error)

// Handle identifies a planet within its SolarSystem.
type Handle int

// NoParent marks the root of the tree.
const NoParent Handle = -1

// orbitSegments is the number of samples per orbit used for orbit drawing.
const orbitSegments = 360

// RotationModel selects how a body's axial rotation angle is computed.
type RotationModel int

const (
	// RotationUniform turns the body at a constant rate given by the
	// rotation elements.
	RotationUniform RotationModel = iota
	// RotationEarth uses Greenwich mean or apparent sidereal time and the
	// precession-nutation frame.
	RotationEarth
	// RotationJupiter uses System II central meridian longitude corrected
	// for the drift of the Great Red Spot.
	RotationJupiter
)

// RotationElements describe a body's spin axis and rotation.
type RotationElements struct {
	Period         float64 // Sidereal rotation period, days
	Offset         float64 // Rotation at epoch, degrees
	Epoch          float64 // JDE of these elements
	Obliquity      float64 // Tilt of the rotation axis to the parent's frame, radians
	AscendingNode  float64 // Longitude of the ascending node of the equator, radians
	PrecessionRate float64 // Precession of the rotation axis, radians per day
	SiderealPeriod float64 // Orbital period, days
}

// DefaultRotationElements returns one-day rotation at the J2000 epoch.
func DefaultRotationElements() RotationElements {
	return RotationElements{Period: 1, Epoch: astro.J2000}
}

// Config describes a body to add to a SolarSystem.
type Config struct {
	Name       string
	RadiusKm   float64 // Equatorial radius
	Oblateness float64 // Flattening, (a-b)/a
	Rotation   RotationElements
	Model      RotationModel
	Pos        PosFunc
	Parent     Handle
}

// Planet is one body in the tree. Its position and orientation are valid
// only for the ephemeris day they were last computed at.
type Planet struct {
	name               string
	radius             float64 // AU
	oneMinusOblateness float64
	re                 RotationElements
	model              RotationModel
	parent             Handle

	eclipticPos      r3.Vec
	eclipticVelocity r3.Vec
	rotLocalToParent *mat.Dense
	axisRotation     float64

	pos           PosFunc
	lastJDE       float64
	computed      bool
	failing       bool
	deltaJDE      float64
	deltaOrbitJDE float64
}

func newPlanet(cfg Config) *Planet {
	p := &Planet{
		name:               cfg.Name,
		radius:             astro.KmToAU(cfg.RadiusKm),
		oneMinusOblateness: 1 - cfg.Oblateness,
		model:              cfg.Model,
		parent:             cfg.Parent,
		rotLocalToParent:   astro.Identity(),
		pos:                cfg.Pos,
		lastJDE:            astro.J2000,
		deltaJDE:           astro.JDSecond,
	}
	p.SetRotationElements(cfg.Rotation)
	return p
}

// Name returns the body's English name.
func (p *Planet) Name() string { return p.name }

// Radius returns the equatorial radius in AU.
func (p *Planet) Radius() float64 { return p.radius }

// OneMinusOblateness returns the ratio of polar to equatorial radius.
func (p *Planet) OneMinusOblateness() float64 { return p.oneMinusOblateness }

// Parent returns the parent handle, or NoParent for the root.
func (p *Planet) Parent() Handle { return p.parent }

// RotationElements returns the body's rotation elements.
func (p *Planet) RotationElements() RotationElements { return p.re }

// SetRotationElements replaces the rotation elements.
func (p *Planet) SetRotationElements(re RotationElements) {
	p.re = re
	p.deltaOrbitJDE = re.SiderealPeriod / orbitSegments
}

// OrbitStep returns the sampling interval, in days, for drawing the orbit.
func (p *Planet) OrbitStep() float64 { return p.deltaOrbitJDE }

// EclipticPos returns the position relative to the parent, in AU.
func (p *Planet) EclipticPos() r3.Vec { return p.eclipticPos }

// EclipticVelocity returns the velocity relative to the parent, in AU/day.
func (p *Planet) EclipticVelocity() r3.Vec { return p.eclipticVelocity }

// AxisRotation returns the rotation angle about the axis, in degrees, from
// the last ComputeTransMatrix.
func (p *Planet) AxisRotation() float64 { return p.axisRotation }

// RotLocalToParent returns a copy of the local to parent frame rotation.
func (p *Planet) RotLocalToParent() *mat.Dense { return mat.DenseCopyOf(p.rotLocalToParent) }

// LastJDE returns the ephemeris day the position was last computed at.
func (p *Planet) LastJDE() float64 { return p.lastJDE }

// SiderealTime returns the rotation angle in degrees at UT day jd and
// ephemeris day jde.
func (p *Planet) SiderealTime(jd, jde float64, useNutation bool) float64 {
	if p.model == RotationEarth {
		return astro.EarthSiderealTime(jd, jde, useNutation)
	}

	t := jde - p.re.Epoch
	// Chaotically rotating moons have no period.
	rotations := 1.0
	if p.re.Period != 0 {
		rotations = t / p.re.Period
	}
	remainder := rotations - math.Floor(rotations)

	if p.model == RotationJupiter {
		return jupiterCentralMeridian(jde)
	}
	return remainder*360 + p.re.Offset
}

// jupiterCentralMeridian returns the System II central meridian longitude,
// shifted so that the Great Red Spot sits at its observed longitude.
func jupiterCentralMeridian(jde float64) float64 {
	jupMean := (jde - 2455636.938) * 360 / 4332.89709
	eqnCenter := 5.55 * math.Sin(astro.DegToRad(jupMean))
	angle := (jde-2451870.628)*360/398.884 - eqnCenter
	correction := 25.8 + 11*math.Sin(astro.DegToRad(angle)) - 2.5*math.Cos(astro.DegToRad(jupMean)) - eqnCenter
	cm2 := 181.62 + 870.1869147*jde + correction
	cm2 -= 360 * math.Trunc(cm2/360)
	grs := 216 + 1.25*(jde-2456908)/30
	return cm2 - grs + 50
}

// stale reports whether the cached position must be recomputed for jde.
func (p *Planet) stale(jde float64) bool {
	return !p.computed || math.Abs(p.lastJDE-jde) > p.deltaJDE
}
