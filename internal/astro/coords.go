// Package astro provides time scales, reference frame matrices and sky math.
package astro

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// SkyCoord represents celestial coordinates with both equatorial (RA/Dec)
// and horizontal (Az/El) components.
type SkyCoord struct {
	// Equatorial coordinates (J2000)
	RAdeg  float64 // Right Ascension in degrees (0-360)
	DecDeg float64 // Declination in degrees (-90 to +90)

	// Horizontal coordinates (observer-relative)
	AzDeg float64 // Azimuth in degrees (0=N, 90=E, 180=S, 270=W)
	ElDeg float64 // Elevation/Altitude in degrees (0=horizon, 90=zenith)

	// Distance from the observer, zero when unknown
	DistanceAU float64
}

// EquatorialToVec returns the unit J2000 direction for right ascension
// and declination in degrees.
func EquatorialToVec(raDeg, decDeg float64) r3.Vec {
	sinRA, cosRA := math.Sincos(DegToRad(raDeg))
	sinDec, cosDec := math.Sincos(DegToRad(decDeg))
	return r3.Vec{X: cosDec * cosRA, Y: cosDec * sinRA, Z: sinDec}
}

// VecToEquatorial returns right ascension (0-360) and declination in
// degrees for a direction of any non-zero length.
func VecToEquatorial(v r3.Vec) (raDeg, decDeg float64) {
	ra := RadToDeg(math.Atan2(v.Y, v.X))
	dec := RadToDeg(math.Atan2(v.Z, math.Hypot(v.X, v.Y)))
	return normalizeAngle360(ra), dec
}

// The alt-azimuthal frame has x toward the south point, y toward the east
// point and z toward the zenith.

// HorizontalToVec returns the unit alt-az direction for an azimuth
// (0=N, 90=E) and altitude in degrees.
func HorizontalToVec(azDeg, altDeg float64) r3.Vec {
	sinAz, cosAz := math.Sincos(DegToRad(azDeg))
	sinAlt, cosAlt := math.Sincos(DegToRad(altDeg))
	return r3.Vec{X: -cosAlt * cosAz, Y: cosAlt * sinAz, Z: sinAlt}
}

// VecToHorizontal returns azimuth (0-360, 0=N, 90=E) and altitude in
// degrees for an alt-az direction of any non-zero length.
func VecToHorizontal(v r3.Vec) (azDeg, altDeg float64) {
	az := RadToDeg(math.Atan2(v.Y, -v.X))
	alt := RadToDeg(math.Atan2(v.Z, math.Hypot(v.X, v.Y)))
	return normalizeAngle360(az), alt
}

// AngularSeparation returns the angle in degrees between two directions.
// Uses atan2 of the cross and dot products, which stays accurate for both
// tiny and near-antipodal separations.
func AngularSeparation(a, b r3.Vec) float64 {
	cross := r3.Norm(r3.Cross(a, b))
	dot := r3.Dot(a, b)
	return RadToDeg(math.Atan2(cross, dot))
}

// normalizeAngle360 normalizes an angle to [0, 360).
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
