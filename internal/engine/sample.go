package engine

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/passes"
)

// ErrUnknownObject is returned when a name matches no body or star.
var ErrUnknownObject = errors.New("unknown object")

var _ passes.Sampler = (*Engine)(nil)

// SampleAt positions the body or star name at each UT Julian Day. The clock
// is moved for every sample and then put back where it was; simulated time
// spent sampling is lost.
func (e *Engine) SampleAt(name string, jds []float64) ([]passes.Sample, error) {
	pos, err := e.resolve(name)
	if err != nil {
		return nil, err
	}

	c := e.core
	saved := c.JD()
	defer func() {
		c.SetJD(saved)
		c.Update(0)
	}()

	out := make([]passes.Sample, len(jds))
	for i, jd := range jds {
		c.SetJD(jd)
		c.Update(0)
		altAz := pos()
		az, alt := astro.VecToHorizontal(altAz)
		out[i] = passes.Sample{
			JD:     c.JD(),
			Az:     az,
			Alt:    alt,
			SunSep: astro.AngularSeparation(altAz, e.sunAltAz()),
		}
	}
	return out, nil
}

// resolve returns a function giving the current alt-az direction of name.
func (e *Engine) resolve(name string) (func() r3.Vec, error) {
	if h, ok := e.ss.Lookup(name); ok {
		if h == e.core.Observer().Home() {
			return nil, fmt.Errorf("%s: %w: the observer stands on it", name, ErrUnknownObject)
		}
		planets := e.Planets()
		if planets == nil {
			return nil, fmt.Errorf("%s: %w", name, ErrNotInitialized)
		}
		return func() r3.Vec { return planets.View(e.core, h).AltAz }, nil
	}
	if stars := e.Stars(); stars != nil {
		if s, ok := stars.Catalog().Find(name); ok {
			dir := s.Direction()
			return func() r3.Vec { return e.core.J2000ToAltAz(dir, core.RefractionAuto) }, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownObject)
}

func (e *Engine) sunAltAz() r3.Vec {
	return e.core.HeliocentricEclipticToAltAz(e.ss.LightTimeSunPosition(), core.RefractionOff)
}
