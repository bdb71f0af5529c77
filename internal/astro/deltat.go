package astro

import "math"

// LunarNDot is the secular acceleration of the Moon, in arcsec/century²,
// assumed by the Delta-T fit.
const LunarNDot = -25.858

// ComputeDeltaT returns TT - UT in seconds for a UT Julian Day, using the
// Espenak & Meeus (2006) polynomials corrected for lunar secular acceleration.
func ComputeDeltaT(jd float64) float64 {
	return DeltaTEspenakMeeus(jd) + MoonSecularAcceleration(jd, LunarNDot, false)
}

// DeltaTEspenakMeeus evaluates the Espenak & Meeus (2006) piecewise fit at
// the calendar date containing jd.
func DeltaTEspenakMeeus(jd float64) float64 {
	y := DecimalYear(DateFromJD(jd))
	return deltaTPolynomial(y)
}

// deltaTPolynomial evaluates the fit at decimal year y. The [2050, 2150)
// segment carries a linear patch term so that it joins the long-term
// parabola at 2150.
func deltaTPolynomial(y float64) float64 {
	u := (y - 1820) / 100
	r := -20 + 32*u*u

	switch {
	case y < -500:
		// long-term parabola
	case y < 500:
		u = y / 100
		r = (((((0.0090316521*u+0.022174192)*u-0.1798452)*u-5.952053)*u+33.78311)*u-1014.41)*u + 10583.6
	case y < 1600:
		u = (y - 1000) / 100
		r = (((((0.0083572073*u-0.005050998)*u-0.8503463)*u+0.319781)*u+71.23472)*u-556.01)*u + 1574.2
	case y < 1700:
		t := y - 1600
		r = ((t/7129-0.01532)*t-0.9808)*t + 120
	case y < 1800:
		t := y - 1700
		r = (((-t/1174000+0.00013336)*t-0.0059285)*t+0.1603)*t + 8.83
	case y < 1860:
		t := y - 1800
		r = ((((((0.000000000875*t-0.0000001699)*t+0.0000121272)*t-0.00037436)*t+0.0041116)*t+0.0068612)*t-0.332447)*t + 13.72
	case y < 1900:
		t := y - 1860
		r = ((((t/233174-0.0004473624)*t+0.01680668)*t-0.251754)*t+0.5737)*t + 7.62
	case y < 1920:
		t := y - 1900
		r = (((-0.000197*t+0.0061966)*t-0.0598939)*t+1.494119)*t - 2.79
	case y < 1941:
		t := y - 1920
		r = ((0.0020936*t-0.0761)*t+0.84493)*t + 21.20
	case y < 1961:
		t := y - 1950
		r = ((t/2547-1.0/233)*t+0.407)*t + 29.07
	case y < 1986:
		t := y - 1975
		r = ((-t/718-1.0/260)*t+1.067)*t + 45.45
	case y < 2005:
		t := y - 2000
		r = ((((0.00002373599*t+0.000651814)*t+0.0017275)*t-0.060374)*t+0.3345)*t + 63.86
	case y < 2050:
		t := y - 2000
		r = (0.005589*t+0.32217)*t + 62.92
	case y < 2150:
		r -= 0.5628 * (2150 - y)
	}
	return r
}

// MoonSecularAcceleration returns the Delta-T correction, in seconds, for a
// lunar secular acceleration nDot (arcsec/century²) differing from the one
// built into the ephemeris (ELP2000-82B, or DE43x when useDE43x is set).
func MoonSecularAcceleration(jd, nDot float64, useDE43x bool) float64 {
	t := (DecimalYear(DateFromJD(jd)) - 1955.5) / 100
	ephND := -23.8946
	if useDE43x {
		ephND = -25.8
	}
	return -0.91072 * (ephND + math.Abs(nDot)) * t * t
}
