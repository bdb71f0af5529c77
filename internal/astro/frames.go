package astro

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// AU is the astronomical unit in kilometers, as used by the ephemerides.
	AU = 149597870.691

	// SpeedOfLight is in km/s.
	SpeedOfLight = 299792.458
)

// ScaleMode maps heliocentric distance to radius on a top-down map.
type ScaleMode int

const (
	ScaleLogR  ScaleMode = iota // log10(r+1), everything out to Neptune
	ScaleInner                  // linear, clamped at 5 AU
	ScaleOuter                  // linear to 5 AU, then logarithmic
	numScaleModes
)

func (m ScaleMode) String() string {
	switch m {
	case ScaleLogR:
		return "log"
	case ScaleInner:
		return "inner"
	case ScaleOuter:
		return "outer"
	default:
		return "unknown"
	}
}

// Next cycles through the modes.
func (m ScaleMode) Next() ScaleMode {
	return (m + 1) % numScaleModes
}

// Radius returns the map radius for a distance of rAU.
func (m ScaleMode) Radius(rAU float64) float64 {
	switch m {
	case ScaleInner:
		return math.Min(rAU, 5)
	case ScaleOuter:
		if rAU <= 5 {
			return rAU / 10
		}
		return 0.5 + math.Log10(rAU/5+1)/2
	default:
		return math.Log10(rAU + 1)
	}
}

// ProjectionConfig configures the top-down ecliptic map.
type ProjectionConfig struct {
	Scale float64
	Mode  ScaleMode
}

// ProjectEclipticTopDown maps a heliocentric ecliptic position (AU) onto the
// ecliptic plane seen from the north ecliptic pole, with X toward the vernal
// equinox. Ecliptic latitude is dropped.
func ProjectEclipticTopDown(v r3.Vec, cfg ProjectionConfig) r2.Vec {
	r := math.Hypot(v.X, v.Y)
	if r == 0 {
		return r2.Vec{}
	}
	return r2.Scale(cfg.Mode.Radius(r)*cfg.Scale/r, r2.Vec{X: v.X, Y: v.Y})
}

func KmToAU(km float64) float64 { return km / AU }

func AUToKm(au float64) float64 { return au * AU }

// LightTimeDays returns the one-way light travel time, in days, over a
// distance in AU.
func LightTimeDays(distanceAU float64) float64 {
	return distanceAU * AU / (SpeedOfLight * 86400)
}

// EclipticLatitude returns the latitude of v in degrees, 0 for the zero
// vector.
func EclipticLatitude(v r3.Vec) float64 {
	r := r3.Norm(v)
	if r == 0 {
		return 0
	}
	return RadToDeg(math.Asin(v.Z / r))
}

// EclipticLongitude returns the longitude of v in degrees, in [0, 360).
func EclipticLongitude(v r3.Vec) float64 {
	return normalizeAngle360(RadToDeg(math.Atan2(v.Y, v.X)))
}

// FormatLightTime renders a light time in seconds as "8.3s", "8m 19s" or
// "1h 05m".
func FormatLightTime(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm %02ds", int(seconds/60), int(seconds)%60)
	default:
		return fmt.Sprintf("%dh %02dm", int(seconds/3600), (int(seconds)%3600)/60)
	}
}
