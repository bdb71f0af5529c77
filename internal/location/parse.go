package location

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// "lat,lon" or "name lat,lon"; the name may contain spaces.
	coordPattern = regexp.MustCompile(`^(?:(.+)\s+)?(.+),(.+)$`)

	// Sexagesimal angle such as +121°33'38.28"
	sexaPattern = regexp.MustCompile(`^([+-]?)([\d.]+)°(?:([\d.]+)')?(?:([\d.]+)")?$`)
)

// Parse converts s into a Location. Unparseable input yields a Location with
// Valid cleared; it never fails loudly.
func Parse(s string) Location {
	loc, err := ParseLocation(s)
	if err != nil {
		return Location{}
	}
	return loc
}

// ParseLocation is Parse with the reason for rejection reported as an error
// wrapping ErrInvalidLocation.
func ParseLocation(s string) (Location, error) {
	m := coordPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Location{}, fmt.Errorf("%w: %q is not \"lat,lon\" or \"name lat,lon\"", ErrInvalidLocation, s)
	}

	lat, err := ParseAngle(strings.TrimSpace(m[2]))
	if err != nil {
		return Location{}, fmt.Errorf("%w: latitude: %v", ErrInvalidLocation, err)
	}
	lon, err := ParseAngle(strings.TrimSpace(m[3]))
	if err != nil {
		return Location{}, fmt.Errorf("%w: longitude: %v", ErrInvalidLocation, err)
	}
	if lat < -90 || lat > 90 {
		return Location{}, fmt.Errorf("%w: latitude %v outside [-90, 90]", ErrInvalidLocation, lat)
	}
	if lon < -180 || lon > 180 {
		return Location{}, fmt.Errorf("%w: longitude %v outside [-180, 180]", ErrInvalidLocation, lon)
	}

	loc := New(lat, lon)
	loc.Name = strings.TrimSpace(m[1])
	return loc, nil
}

// ParseAngle parses an angle in degrees written either as a decimal number
// or as a sexagesimal token ±DDD°MM'SS.ss". The sign applies to the whole
// angle.
func ParseAngle(s string) (float64, error) {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("angle %q is not finite", s)
		}
		return v, nil
	}

	m := sexaPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("angle %q is neither decimal nor sexagesimal", s)
	}

	deg, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, fmt.Errorf("degrees in %q: %w", s, err)
	}
	var minutes, seconds float64
	if m[3] != "" {
		if minutes, err = strconv.ParseFloat(m[3], 64); err != nil {
			return 0, fmt.Errorf("minutes in %q: %w", s, err)
		}
	}
	if m[4] != "" {
		if seconds, err = strconv.ParseFloat(m[4], 64); err != nil {
			return 0, fmt.Errorf("seconds in %q: %w", s, err)
		}
	}

	v := deg + minutes/60 + seconds/3600
	if m[1] == "-" {
		v = -v
	}
	return v, nil
}
