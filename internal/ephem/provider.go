// Package ephem provides position functions for solar-system bodies.
package ephem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/litescript/ls-sky/internal/solarsystem"
)

var (
	// ErrUnknownBody is returned for a body the provider cannot serve.
	ErrUnknownBody = errors.New("unknown body")

	// ErrNoData is returned when a provider has no data for the requested
	// time.
	ErrNoData = errors.New("no ephemeris data")

	// ErrInvalidMode is returned for an unknown ephemeris source name.
	ErrInvalidMode = errors.New("invalid ephemeris source")
)

// Provider defines the interface for ephemeris data sources.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// Available returns true if this provider can supply positions for
	// the target.
	Available(target TargetID) bool

	// PosFunc returns the position function for target, relative to the
	// target's parent in the VSOP87 frame.
	PosFunc(target TargetID) (solarsystem.PosFunc, error)
}

// Mode represents which ephemeris source to use.
type Mode int

const (
	ModeAnalytic Mode = iota // Meeus series for the Sun, Earth and Moon (default)
	ModeVSOP87               // VSOP87 data files for the major planets
	ModeHorizons             // JPL Horizons vector tables
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAnalytic:
		return "analytic"
	case ModeVSOP87:
		return "vsop87"
	case ModeHorizons:
		return "horizons"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode string. The empty string selects ModeAnalytic.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "analytic", "":
		return ModeAnalytic, nil
	case "vsop87":
		return ModeVSOP87, nil
	case "horizons":
		return ModeHorizons, nil
	default:
		return ModeAnalytic, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Populate adds the Sun, Earth and Moon to ss, then every other body in
// Targets that p can serve, in table order. It returns the names of the
// bodies added.
func Populate(ss *solarsystem.SolarSystem, p Provider) ([]string, error) {
	std := make([]solarsystem.PosFunc, 0, 3)
	for _, id := range []TargetID{NAIFSun, NAIFEarth, NAIFMoon} {
		fn, err := p.PosFunc(id)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name(), err)
		}
		std = append(std, fn)
	}
	if err := ss.InitStandard(std[0], std[1], std[2]); err != nil {
		return nil, err
	}
	for _, h := range []solarsystem.Handle{ss.Sun(), ss.Earth(), ss.Moon()} {
		pl := ss.Planet(h)
		if info, ok := GetTargetByName(pl.Name()); ok {
			pl.SetRotationElements(info.Rotation)
		}
	}

	names := []string{"Sun", "Earth", "Moon"}
	for _, info := range Targets {
		if info.standard() || !p.Available(info.NAIFID) {
			continue
		}
		parent, ok := ss.Lookup(info.Parent)
		if !ok {
			return names, fmt.Errorf("%s: parent %q: %w", info.Name, info.Parent, ErrUnknownBody)
		}
		fn, err := p.PosFunc(info.NAIFID)
		if err != nil {
			return names, fmt.Errorf("%s: %s: %w", p.Name(), info.Name, err)
		}
		if _, err := ss.Add(solarsystem.Config{
			Name:       info.Name,
			RadiusKm:   info.RadiusKm,
			Oblateness: info.Oblateness,
			Rotation:   info.Rotation,
			Model:      info.Model,
			Pos:        fn,
			Parent:     parent,
		}); err != nil {
			return names, err
		}
		names = append(names, info.Name)
	}
	return names, nil
}
