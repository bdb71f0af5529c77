package astro

import (
	"math"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"gonum.org/v1/gonum/spatial/r3"
)

const arcsecToRad = math.Pi / (180 * 3600)

// eps0 is the J2000 obliquity of the ecliptic, in arcseconds.
const eps0 = 84381.406

// PrecessionAngles holds the canonical precession angles of date, in
// radians: nodal rotation PsiA, the angle OmegaA between the J2000 ecliptic
// pole and the pole of date, equinox rotation ChiA, and obliquity EpsA.
type PrecessionAngles struct {
	PsiA, OmegaA, ChiA, EpsA float64
}

// Periodic terms of the long-term precession model of Vondrák, Capitaine
// and Wallace (2011), A&A 534, A22. Each row holds the period in Julian
// centuries, the two cosine amplitudes, then the two sine amplitudes, in
// arcseconds.
var (
	// Ecliptic pole, PA and QA.
	eclipticPoleTerms = [...][5]float64{
		{708.15, -5486.751211, -684.661560, 667.666730, -5523.863691},
		{2309.00, -17.127623, 2446.283880, -2354.886252, -549.747450},
		{1620.00, -617.517403, 399.671049, -428.152441, -310.998056},
		{492.20, 413.442940, -356.652376, 376.202861, 421.535876},
		{1183.00, 78.614193, -186.387003, 184.778874, -36.776172},
		{622.00, -180.732815, -316.800070, 335.321713, -145.278396},
		{882.00, -87.676083, 198.296701, -185.138669, -34.744450},
		{547.00, 46.140315, 101.135679, -120.972830, 22.885731},
	}

	// Equator pole, XA and YA.
	equatorPoleTerms = [...][5]float64{
		{256.75, -819.940624, 75004.344875, 81491.287984, 1558.515853},
		{708.15, -8444.676815, 624.033993, 787.163481, 7774.939698},
		{274.20, 2600.009459, 1251.136893, 1251.296102, -2219.534038},
		{241.45, 2755.175630, -1102.212834, -1257.950837, -2523.969396},
		{2309.00, -167.659835, -2660.664980, -2966.799730, 247.850422},
		{492.20, 871.855056, 699.291817, 639.744522, -846.485643},
		{396.10, 44.769698, 153.167220, 131.600209, -1393.124055},
		{288.90, -512.313065, -950.865637, -445.040117, 368.526116},
		{231.10, -819.415595, 499.754645, 584.522874, 749.045012},
		{1610.00, -538.071099, -145.188210, -89.756563, 444.704518},
		{620.00, -189.793622, 558.116553, 524.429630, 235.934465},
		{157.87, -402.922932, -23.923029, -13.549067, 374.049623},
		{220.30, 179.516345, -165.405086, -210.157124, -171.330180},
		{1200.00, -9.814756, 9.344131, -44.919798, -22.899655},
	}
)

// poleSeries sums the polynomial parts a and b with the periodic terms at
// t Julian centuries from J2000, returning both components in radians.
func poleSeries(t float64, a, b [4]float64, terms [][5]float64) (float64, float64) {
	u := horner(t, a[:]...)
	v := horner(t, b[:]...)
	for _, term := range terms {
		s, c := math.Sincos(2 * math.Pi * t / term[0])
		u += c*term[1] + s*term[3]
		v += c*term[2] + s*term[4]
	}
	return u * arcsecToRad, v * arcsecToRad
}

// eclipticPole returns the pole of the ecliptic of date in J2000 ecliptic
// coordinates.
func eclipticPole(t float64) r3.Vec {
	p, q := poleSeries(t,
		[4]float64{5851.607687, -0.1189000, -0.00028913, 0.000000101},
		[4]float64{-1600.886300, 1.1689818, -0.00000020, -0.000000437},
		eclipticPoleTerms[:])
	return r3.Vec{X: p, Y: -q, Z: math.Sqrt(math.Max(0, 1-p*p-q*q))}
}

// equatorPole returns the pole of the mean equator of date in J2000
// ecliptic coordinates.
func equatorPole(t float64) r3.Vec {
	x, y := poleSeries(t,
		[4]float64{5453.282155, 0.4252841, -0.00037173, -0.000000152},
		[4]float64{-73750.930350, -0.7675452, -0.00018725, 0.000000231},
		equatorPoleTerms[:])
	z := math.Sqrt(math.Max(0, 1-x*x-y*y))

	s, c := math.Sincos(eps0 * arcsecToRad)
	return r3.Vec{X: x, Y: c*y + s*z, Z: -s*y + c*z}
}

// Precession returns the long-term precession angles at ephemeris day jde,
// derived from the Vondrák et al. (2011) ecliptic and equator poles. The
// model holds for ±200 000 years around J2000; within a few centuries it
// agrees with IAU 2006 to milliarcseconds. PsiA is reduced into (−π, π].
func Precession(jde float64) PrecessionAngles {
	t := base.J2000Century(jde)
	ecl := eclipticPole(t)
	equ := equatorPole(t)

	// Node of the equator of date on the J2000 ecliptic, and the equinox
	// of date.
	node := r3.Unit(r3.Cross(equ, r3.Vec{Z: 1}))
	equinox := r3.Unit(r3.Cross(equ, ecl))

	return PrecessionAngles{
		PsiA:   math.Atan2(equ.X, equ.Y),
		OmegaA: math.Atan2(math.Hypot(equ.X, equ.Y), equ.Z),
		ChiA:   math.Atan2(r3.Dot(equinox, r3.Cross(equ, node)), r3.Dot(equinox, node)),
		EpsA:   math.Atan2(r3.Norm(r3.Cross(ecl, equ)), r3.Dot(ecl, equ)),
	}
}

// Nutation returns nutation in longitude and obliquity, in radians.
func Nutation(jde float64) (deltaPsi, deltaEps float64) {
	dpsi, deps := nutation.Nutation(jde)
	return dpsi.Rad(), deps.Rad()
}

// EarthSiderealTime returns Greenwich sidereal time in degrees. The mean
// part follows UT day jd; apparent sidereal time adds the equation of the
// equinoxes, evaluated at ephemeris day jde.
func EarthSiderealTime(jd, jde float64, apparent bool) float64 {
	st := sidereal.Mean(jd)
	if apparent {
		st = (st + nutation.NutationInRA(jde).Time()).Mod1()
	}
	return RadToDeg(st.Rad())
}

// horner evaluates c[0] + c[1]t + c[2]t² + … .
func horner(t float64, c ...float64) float64 {
	r := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		r = r*t + c[i]
	}
	return r
}
