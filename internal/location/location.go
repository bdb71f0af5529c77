// Package location describes observer sites and parses them from strings.
package location

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidLocation is returned when a location string cannot be parsed.
var ErrInvalidLocation = errors.New("invalid location")

// Location is a site on a planet's surface. It is a plain value: copying
// it copies the site.
type Location struct {
	Name      string  // Optional site name
	Longitude float64 // Degrees, east positive
	Latitude  float64 // Degrees, north positive
	Altitude  float64 // Meters above the reference surface
	TimeZone  string  // IANA time zone id, empty for UTC
	Valid     bool    // False when the location came from unparseable input
}

// New returns a valid location at the given latitude and longitude.
func New(latDeg, lonDeg float64) Location {
	return Location{Latitude: latDeg, Longitude: lonDeg, Valid: true}
}

// WithAltitude returns a copy of l at altitude meters.
func (l Location) WithAltitude(meters float64) Location {
	l.Altitude = meters
	return l
}

// WithTimeZone returns a copy of l using the IANA zone tz.
func (l Location) WithTimeZone(tz string) Location {
	l.TimeZone = tz
	return l
}

// TimeLocation resolves the IANA time zone. An empty zone resolves to UTC.
func (l Location) TimeLocation() (*time.Location, error) {
	if l.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(l.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", l.TimeZone, err)
	}
	return loc, nil
}

// String formats the location as "name lat,lon" with four decimals.
func (l Location) String() string {
	if !l.Valid {
		return "invalid location"
	}
	coords := fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
	if l.Name != "" {
		return l.Name + " " + coords
	}
	return coords
}
