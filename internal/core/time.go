package core

import (
	"math"

	"github.com/litescript/ls-sky/internal/astro"
)

// JD returns the current Julian day in UT.
func (c *Core) JD() float64 { return c.jd }

// JDE returns the current Julian ephemeris day.
func (c *Core) JDE() float64 { return c.jde }

// DeltaT returns TT - UT in seconds at the current time.
func (c *Core) DeltaT() float64 { return c.deltaT }

// SetJD sets the date in UT and restarts the wall-clock sync.
func (c *Core) SetJD(jd float64) {
	c.jd = astro.ClampJD(jd)
	c.deltaT = astro.ComputeDeltaT(c.jd)
	c.jde = c.jd + c.deltaT/86400
	c.resetSync()
}

// SetJDE sets the date in ephemeris time and restarts the wall-clock sync.
// Delta-T is evaluated at jde, which is off by at most a few
// milliseconds. A date whose UT falls outside the clock range is pinned to
// the nearest bound and JDE derived from there.
func (c *Core) SetJDE(jde float64) {
	jde = astro.ClampJD(jde)
	deltaT := astro.ComputeDeltaT(jde)
	jd := jde - deltaT/86400
	if clamped := astro.ClampJD(jd); clamped != jd {
		c.SetJD(clamped)
		return
	}
	c.jd, c.jde, c.deltaT = jd, jde, deltaT
	c.resetSync()
}

// TimeRate returns the simulated seconds per wall-clock second.
func (c *Core) TimeRate() float64 { return c.rate }

// SetTimeRate changes how fast simulated time flows. Time keeps running
// from the current JD.
func (c *Core) SetTimeRate(rate float64) {
	c.UpdateTime()
	c.rate = rate
	c.resetSync()
}

func (c *Core) resetSync() {
	c.anchorJD = c.jd
	c.anchorTime = c.now()
}

// UpdateTime advances JD by the wall-clock time elapsed since the last
// sync, then brings the solar system to the new JDE.
func (c *Core) UpdateTime() {
	elapsedMs := float64(c.now().Sub(c.anchorTime).Milliseconds())
	c.jd = c.anchorJD + elapsedMs/1000*c.rate*astro.JDSecond
	if math.IsNaN(c.jd) {
		c.jd = c.anchorJD
	}
	c.jd = astro.ClampJD(c.jd)
	c.deltaT = astro.ComputeDeltaT(c.jd)
	c.jde = c.jd + c.deltaT/86400

	c.ss.ComputePositions(c.jde, c.obs.Home())
}
