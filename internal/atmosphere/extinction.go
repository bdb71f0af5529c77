// Package atmosphere models atmospheric refraction and extinction on
// alt-az directions, and bundles them with the sky brightness settings.
package atmosphere

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/invariant"
)

// ErrInvalidUndergroundMode is returned for an unknown underground mode name.
var ErrInvalidUndergroundMode = errors.New("invalid underground extinction mode")

// UndergroundMode selects the extinction applied to objects more than
// about 2° below the horizon.
type UndergroundMode int

const (
	// UndergroundZero applies no extinction.
	UndergroundZero UndergroundMode = iota
	// UndergroundMax applies airmass 42, making objects practically invisible.
	UndergroundMax
	// UndergroundMirror uses the airmass of the altitude mirrored about -2°.
	UndergroundMirror
)

func (m UndergroundMode) String() string {
	switch m {
	case UndergroundZero:
		return "zero"
	case UndergroundMax:
		return "max"
	case UndergroundMirror:
		return "mirror"
	default:
		return fmt.Sprintf("UndergroundMode(%d)", int(m))
	}
}

// ParseUndergroundMode parses "zero", "max" or "mirror".
func ParseUndergroundMode(s string) (UndergroundMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zero":
		return UndergroundZero, nil
	case "max":
		return UndergroundMax, nil
	case "mirror":
		return UndergroundMirror, nil
	default:
		return UndergroundMirror, fmt.Errorf("%w: %q", ErrInvalidUndergroundMode, s)
	}
}

const (
	// DefaultExtinctionCoefficient is in magnitudes per airmass.
	DefaultExtinctionCoefficient = 0.13

	undergroundCosZ = -0.035
	maxAirmass      = 42
)

// Extinction dims magnitudes by the airmass along a direction.
type Extinction struct {
	coefficient float64
	underground UndergroundMode
}

// NewExtinction returns an extinction with k = 0.13 and mirrored
// underground handling.
func NewExtinction() *Extinction {
	return &Extinction{coefficient: DefaultExtinctionCoefficient, underground: UndergroundMirror}
}

// Coefficient returns the extinction coefficient in mag/airmass.
func (e *Extinction) Coefficient() float64 { return e.coefficient }

// SetCoefficient sets the extinction coefficient in mag/airmass.
func (e *Extinction) SetCoefficient(k float64) { e.coefficient = k }

// UndergroundMode returns the underground policy.
func (e *Extinction) UndergroundMode() UndergroundMode { return e.underground }

// SetUndergroundMode sets the underground policy.
func (e *Extinction) SetUndergroundMode(m UndergroundMode) { e.underground = m }

// Forward returns mag dimmed for the normalized geometric alt-az
// direction v. Apply it before refraction.
func (e *Extinction) Forward(v r3.Vec, mag float64) float64 {
	invariant.Check(math.Abs(r3.Norm(v)-1) < 0.001, "extinction direction %v not normalized", v)
	return mag + e.Airmass(v.Z, false)*e.coefficient
}

// Backward undoes Forward for the normalized direction v.
func (e *Extinction) Backward(v r3.Vec, mag float64) float64 {
	return mag - e.Airmass(v.Z, false)*e.coefficient
}

// Airmass returns the airmass for the cosine of the zenith distance. With
// apparent set it uses Rozenberg (1966), suited to apparent zenith
// distances; otherwise Young (1994) for geometric ones.
func (e *Extinction) Airmass(cosZ float64, apparent bool) float64 {
	if cosZ <= undergroundCosZ {
		switch e.underground {
		case UndergroundZero:
			return 0
		case UndergroundMax:
			return maxAirmass
		case UndergroundMirror:
			cosZ = math.Min(1, undergroundCosZ-(cosZ-undergroundCosZ))
		default:
			invariant.Unreachable("underground mode %d", int(e.underground))
		}
	}

	if apparent {
		return 1 / (cosZ + 0.025*math.Exp(-11*cosZ))
	}
	nom := (1.002432*cosZ+0.148386)*cosZ + 0.0096467
	denom := ((cosZ+0.149864)*cosZ+0.0102963)*cosZ + 0.000303978
	return nom / denom
}
