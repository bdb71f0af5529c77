// Package config loads ls-sky settings from defaults and an optional TOML
// file.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/naoina/toml"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/atmosphere"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/ephem"
	"github.com/litescript/ls-sky/internal/location"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/projector"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config holds every setting of a sky session.
type Config struct {
	Location string `toml:"location"`
	LogLevel string `toml:"log_level"`

	Time       Time       `toml:"time"`
	Atmosphere Atmosphere `toml:"atmosphere"`
	View       View       `toml:"view"`
	Ephemeris  Ephemeris  `toml:"ephemeris"`
	Metrics    Metrics    `toml:"metrics"`
}

// Time sets the simulated clock.
type Time struct {
	// JD is the starting Julian Day (UT). Zero starts at the wall clock.
	JD   float64 `toml:"jd"`
	Rate float64 `toml:"rate"`
}

// Atmosphere sets refraction, extinction and sky brightness.
type Atmosphere struct {
	Pressure              float64 `toml:"pressure"`    // mbar
	Temperature           float64 `toml:"temperature"` // °C
	ExtinctionCoefficient float64 `toml:"extinction_coefficient"`
	Underground           string  `toml:"underground"`
	Show                  bool    `toml:"show"`
	Bortle                int     `toml:"bortle"`
}

// View sets the camera.
type View struct {
	Fov         float64 `toml:"fov"` // degrees
	Projection  string  `toml:"projection"`
	Refraction  string  `toml:"refraction"`
	Topocentric bool    `toml:"topocentric"`
	Nutation    bool    `toml:"nutation"`
}

// Ephemeris selects where planet positions come from.
type Ephemeris struct {
	Source           string  `toml:"source"`
	VSOP87Dir        string  `toml:"vsop87_dir"`
	HorizonsSpanDays float64 `toml:"horizons_span_days"`
}

// Metrics configures the Prometheus endpoint. An empty Addr disables it.
type Metrics struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Location: location.DefaultSite,
		LogLevel: "info",
		Time:     Time{Rate: 1},
		Atmosphere: Atmosphere{
			Pressure:              atmosphere.DefaultPressure,
			Temperature:           atmosphere.DefaultTemperature,
			ExtinctionCoefficient: atmosphere.DefaultExtinctionCoefficient,
			Underground:           "mirror",
			Show:                  true,
			Bortle:                atmosphere.DefaultBortle,
		},
		View: View{
			Fov:         60,
			Projection:  "perspective",
			Refraction:  "auto",
			Topocentric: true,
			Nutation:    true,
		},
		Ephemeris: Ephemeris{
			Source:           "analytic",
			HorizonsSpanDays: ephem.DefaultSpanDays,
		},
	}
}

// Load reads the TOML file at path over DefaultConfig and validates the
// result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over DefaultConfig and validates the result. Keys
// absent from data keep their defaults.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field that has a restricted range or vocabulary.
func (c Config) Validate() error {
	if _, err := location.ParseLocation(c.Location); err != nil {
		return fmt.Errorf("%w: location: %w", ErrInvalid, err)
	}
	if _, err := c.RefractionMode(); err != nil {
		return fmt.Errorf("%w: view.refraction: %w", ErrInvalid, err)
	}
	if _, err := c.Law(); err != nil {
		return fmt.Errorf("%w: view.projection: %w", ErrInvalid, err)
	}
	if c.View.Fov <= 0 {
		return fmt.Errorf("%w: view.fov %v must be positive", ErrInvalid, c.View.Fov)
	}
	if _, err := c.UndergroundMode(); err != nil {
		return fmt.Errorf("%w: atmosphere.underground: %w", ErrInvalid, err)
	}
	if c.Atmosphere.Bortle < 1 || c.Atmosphere.Bortle > 9 {
		return fmt.Errorf("%w: atmosphere.bortle %d outside [1, 9]", ErrInvalid, c.Atmosphere.Bortle)
	}
	if c.Atmosphere.ExtinctionCoefficient < 0 {
		return fmt.Errorf("%w: atmosphere.extinction_coefficient %v is negative", ErrInvalid, c.Atmosphere.ExtinctionCoefficient)
	}
	if c.Atmosphere.Temperature <= -273 {
		return fmt.Errorf("%w: atmosphere.temperature %v below absolute zero", ErrInvalid, c.Atmosphere.Temperature)
	}
	if _, err := c.EphemerisMode(); err != nil {
		return fmt.Errorf("%w: ephemeris.source: %w", ErrInvalid, err)
	}
	if c.Time.JD != 0 && c.Time.JD != astro.ClampJD(c.Time.JD) {
		return fmt.Errorf("%w: time.jd %v outside the supported range", ErrInvalid, c.Time.JD)
	}
	return nil
}

// RefractionMode returns the parsed view.refraction.
func (c Config) RefractionMode() (core.RefractionMode, error) {
	return core.ParseRefractionMode(c.View.Refraction)
}

// Law returns the parsed view.projection.
func (c Config) Law() (projector.Law, error) {
	return projector.LawByName(c.View.Projection)
}

// UndergroundMode returns the parsed atmosphere.underground.
func (c Config) UndergroundMode() (atmosphere.UndergroundMode, error) {
	return atmosphere.ParseUndergroundMode(c.Atmosphere.Underground)
}

// EphemerisMode returns the parsed ephemeris.source.
func (c Config) EphemerisMode() (ephem.Mode, error) {
	return ephem.ParseMode(c.Ephemeris.Source)
}

// Level returns the parsed log_level.
func (c Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}
