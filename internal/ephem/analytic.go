package ephem

import (
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/solar"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

// velocityStep is the half-width in days of the central difference used
// for providers that only yield positions.
const velocityStep = 0.01

// AnalyticProvider computes the Sun, Earth and Moon from the Meeus series.
// Accuracy is about 0.01° for the Earth and 0.003° for the Moon, with the
// ecliptic of date treated as the J2000 ecliptic.
type AnalyticProvider struct{}

// NewAnalyticProvider returns the Meeus provider.
func NewAnalyticProvider() *AnalyticProvider { return &AnalyticProvider{} }

// Name implements Provider.
func (*AnalyticProvider) Name() string { return "Meeus" }

// Available implements Provider.
func (*AnalyticProvider) Available(target TargetID) bool {
	switch target {
	case NAIFSun, NAIFEarth, NAIFMoon:
		return true
	}
	return false
}

// PosFunc implements Provider.
func (*AnalyticProvider) PosFunc(target TargetID) (solarsystem.PosFunc, error) {
	switch target {
	case NAIFSun:
		return sunPos, nil
	case NAIFEarth:
		return withVelocity(earthHeliocentric), nil
	case NAIFMoon:
		return withVelocity(moonGeocentric), nil
	}
	return nil, fmt.Errorf("analytic %d: %w", target, ErrUnknownBody)
}

// sunPos is the root of every tree.
func sunPos(float64) (r3.Vec, r3.Vec, error) {
	return r3.Vec{}, r3.Vec{}, nil
}

// withVelocity wraps a position-only function with a central-difference
// velocity.
func withVelocity(pos func(jde float64) r3.Vec) solarsystem.PosFunc {
	return func(jde float64) (r3.Vec, r3.Vec, error) {
		ahead := pos(jde + velocityStep)
		behind := pos(jde - velocityStep)
		return pos(jde), r3.Scale(1/(2*velocityStep), r3.Sub(ahead, behind)), nil
	}
}

// precessionInLongitude returns the general precession from J2000 to the
// date, in radians, for T Julian centuries.
func precessionInLongitude(t float64) float64 {
	arcsec := (5029.0966 + (1.11113-0.000006*t)*t) * t
	return astro.DegToRad(arcsec / 3600)
}

// earthHeliocentric is the Sun's geometric position reversed.
func earthHeliocentric(jde float64) r3.Vec {
	t := base.J2000Century(jde)
	s, _ := solar.True(t)
	r := solar.Radius(t)
	l := s.Rad() + math.Pi - precessionInLongitude(t)
	sinL, cosL := math.Sincos(l)
	return r3.Vec{X: r * cosL, Y: r * sinL}
}

// moonGeocentric converts the ELP-based series to AU.
func moonGeocentric(jde float64) r3.Vec {
	lambda, beta, distKm := moonposition.Position(jde)
	l := lambda.Rad() - precessionInLongitude(base.J2000Century(jde))
	sinL, cosL := math.Sincos(l)
	sinB, cosB := math.Sincos(beta.Rad())
	d := astro.KmToAU(distKm)
	return r3.Vec{X: d * cosB * cosL, Y: d * cosB * sinL, Z: d * sinB}
}
