package ephem

import (
	"strings"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

// TargetID is a NAIF SPICE ID for a body.
type TargetID int

// TargetInfo contains the physical and rotational data for a body.
type TargetInfo struct {
	Name       string   // English name, as used in the solar system
	NAIFID     TargetID // NAIF SPICE ID, also the Horizons COMMAND
	Parent     string   // Name of the body positions are relative to
	RadiusKm   float64  // Equatorial radius
	Oblateness float64  // Flattening, (a-b)/a
	Rotation   solarsystem.RotationElements
	Model      solarsystem.RotationModel
	VSOP87     int      // planetposition body index, -1 if none
	Aliases    []string // Alternative names
}

// NAIF SPICE IDs of the bodies the sky knows about. Planets use their
// body-center IDs, not barycenters.
// Sourced from https://naif.jpl.nasa.gov/pub/naif/toolkit_docs/C/req/naif_ids.html
const (
	NAIFSun     TargetID = 10
	NAIFMercury TargetID = 199
	NAIFVenus   TargetID = 299
	NAIFEarth   TargetID = 399
	NAIFMoon    TargetID = 301
	NAIFMars    TargetID = 499
	NAIFJupiter TargetID = 599
	NAIFSaturn  TargetID = 699
	NAIFUranus  TargetID = 799
	NAIFNeptune TargetID = 899
)

// rotation builds elements from degrees and days.
func rotation(period, offset, obliquity, node, siderealPeriod float64) solarsystem.RotationElements {
	return solarsystem.RotationElements{
		Period:         period,
		Offset:         offset,
		Epoch:          astro.J2000,
		Obliquity:      astro.DegToRad(obliquity),
		AscendingNode:  astro.DegToRad(node),
		SiderealPeriod: siderealPeriod,
	}
}

// Targets is the canonical list of bodies, parents first. Rotation
// elements are approximate, referred to the J2000 ecliptic.
var Targets = []TargetInfo{
	{Name: "Sun", NAIFID: NAIFSun, RadiusKm: solarsystem.SunRadiusKm,
		Rotation: rotation(25.38, 84.176, 7.25, 75.76, 0), VSOP87: -1, Aliases: []string{"Sol"}},
	{Name: "Mercury", NAIFID: NAIFMercury, Parent: "Sun", RadiusKm: 2439.7,
		Rotation: rotation(58.6462, 329.548, 7.01, 48.33, 87.9691), VSOP87: 0},
	{Name: "Venus", NAIFID: NAIFVenus, Parent: "Sun", RadiusKm: 6051.8,
		Rotation: rotation(-243.0185, 160.2, 177.36, 76.68, 224.70069), VSOP87: 1},
	{Name: "Earth", NAIFID: NAIFEarth, Parent: "Sun", RadiusKm: solarsystem.EarthRadiusKm, Oblateness: solarsystem.EarthOblateness,
		Rotation: rotation(0.99726968, 280.147, 23.4392803, 0, 365.256363004), Model: solarsystem.RotationEarth, VSOP87: 2,
		Aliases: []string{"Terra"}},
	{Name: "Moon", NAIFID: NAIFMoon, Parent: "Earth", RadiusKm: solarsystem.MoonRadiusKm,
		Rotation: rotation(27.321661, 38.3213, 1.5424, 125.045, 27.321661), VSOP87: -1, Aliases: []string{"Luna"}},
	{Name: "Mars", NAIFID: NAIFMars, Parent: "Sun", RadiusKm: 3396.19, Oblateness: 0.00589,
		Rotation: rotation(1.02595676, 176.63, 26.72, 82.91, 686.97), VSOP87: 3},
	{Name: "Jupiter", NAIFID: NAIFJupiter, Parent: "Sun", RadiusKm: 71492, Oblateness: 0.06487,
		Rotation: rotation(0.41354, 0, 2.22, 338.24, 4332.59), Model: solarsystem.RotationJupiter, VSOP87: 4},
	{Name: "Saturn", NAIFID: NAIFSaturn, Parent: "Sun", RadiusKm: 60268, Oblateness: 0.09796,
		Rotation: rotation(0.44401, 38.9, 28.05, 169.53, 10759.22), VSOP87: 5},
	{Name: "Uranus", NAIFID: NAIFUranus, Parent: "Sun", RadiusKm: 25559, Oblateness: 0.02293,
		Rotation: rotation(-0.71833, 203.81, 97.86, 167.76, 30688.5), VSOP87: 6},
	{Name: "Neptune", NAIFID: NAIFNeptune, Parent: "Sun", RadiusKm: 24764, Oblateness: 0.0171,
		Rotation: rotation(0.67125, 253.18, 29.56, 49.44, 60182), VSOP87: 7},
}

// standard reports whether the body is one of those every solar system
// starts with.
func (t TargetInfo) standard() bool {
	return t.NAIFID == NAIFSun || t.NAIFID == NAIFEarth || t.NAIFID == NAIFMoon
}

// TargetsByNAIF maps NAIF IDs to target info for quick lookup.
var TargetsByNAIF = func() map[TargetID]TargetInfo {
	m := make(map[TargetID]TargetInfo, len(Targets))
	for _, t := range Targets {
		m[t.NAIFID] = t
	}
	return m
}()

// TargetsByName maps lowercase names and aliases to target info.
var TargetsByName = func() map[string]TargetInfo {
	m := make(map[string]TargetInfo, len(Targets)*2)
	for _, t := range Targets {
		m[normalizeName(t.Name)] = t
		for _, alias := range t.Aliases {
			m[normalizeName(alias)] = t
		}
	}
	return m
}()

// normalizeName converts a body name to lowercase for matching.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetTargetByNAIF returns target info for a NAIF ID.
func GetTargetByNAIF(id TargetID) (TargetInfo, bool) {
	t, ok := TargetsByNAIF[id]
	return t, ok
}

// GetTargetByName returns target info for a body name (case-insensitive).
func GetTargetByName(name string) (TargetInfo, bool) {
	t, ok := TargetsByName[normalizeName(name)]
	return t, ok
}

// GetNAIFIDByName returns the NAIF ID for a body name, or 0 if unknown.
func GetNAIFIDByName(name string) TargetID {
	if t, ok := GetTargetByName(name); ok {
		return t.NAIFID
	}
	return 0
}
