package astro

import (
	"math"
	"testing"

	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
)

// iau2006 evaluates the Capitaine et al. (2003) precession polynomials, in
// arcseconds, at t Julian centuries from J2000.
func iau2006(t float64) (psi, omega, chi, eps float64) {
	psi = horner(t, 0, 5038.481507, -1.0790069, -0.00114045, 0.000132851, -0.0000000951)
	omega = horner(t, eps0, -0.025754, 0.0512623, -0.00772503, -0.000000467, 0.0000003337)
	chi = horner(t, 0, 10.556403, -2.3814292, -0.00121197, 0.000170663, -0.0000000560)
	eps = horner(t, eps0, -46.836769, -0.0001831, 0.00200340, -0.000000576, -0.0000000434)
	return
}

func TestPrecessionNearJ2000MatchesIAU2006(t *testing.T) {
	for _, cy := range []float64{-2, -1, -0.5, 0, 0.5, 1, 2} {
		p := Precession(J2000 + cy*36525)
		psi, omega, chi, eps := iau2006(cy)

		tests := []struct {
			name      string
			got, want float64
		}{
			{"psiA", p.PsiA / arcsecToRad, psi},
			{"omegaA", p.OmegaA / arcsecToRad, omega},
			{"chiA", p.ChiA / arcsecToRad, chi},
			{"epsA", p.EpsA / arcsecToRad, eps},
		}
		for _, tt := range tests {
			if math.Abs(tt.got-tt.want) > 0.5 {
				t.Errorf("T=%v: %s = %.4f arcsec, want %.4f", cy, tt.name, tt.got, tt.want)
			}
		}
	}
}

func TestPrecessionRate(t *testing.T) {
	// General precession in longitude is about 50.3"/yr.
	p := Precession(J2000 + 36525)
	got := p.PsiA / arcsecToRad
	if math.Abs(got-5037.4) > 1 {
		t.Errorf("psiA after one century = %v arcsec, want ~5037.4", got)
	}
}

func TestPrecessionLongTermStaysBounded(t *testing.T) {
	const n = 400
	for i := 0; i <= n; i++ {
		jde := MinJD + (MaxJD-MinJD)*float64(i)/n
		p := Precession(jde)
		for _, a := range []float64{p.PsiA, p.OmegaA, p.ChiA, p.EpsA} {
			if math.IsNaN(a) || math.IsInf(a, 0) {
				t.Fatalf("Precession(%v) = %+v", jde, p)
			}
		}
		if eps := RadToDeg(p.EpsA); eps < 22 || eps > 25 {
			t.Errorf("obliquity at JDE %v = %v°, want within [22°, 25°]", jde, eps)
		}
		// The mean equator never strays far from the J2000 ecliptic tilt.
		if omega := RadToDeg(p.OmegaA); omega < 15 || omega > 32 {
			t.Errorf("omegaA at JDE %v = %v°", jde, omega)
		}
	}
}

func TestNutationAtJ2000(t *testing.T) {
	dpsi, deps := Nutation(J2000)
	if got := dpsi / arcsecToRad; math.Abs(got-(-13.92)) > 0.5 {
		t.Errorf("delta psi = %v arcsec, want ~-13.92", got)
	}
	if got := deps / arcsecToRad; math.Abs(got-(-5.77)) > 0.5 {
		t.Errorf("delta eps = %v arcsec, want ~-5.77", got)
	}
}

func TestEarthSiderealTime(t *testing.T) {
	mean := EarthSiderealTime(J2000, J2000, false)
	if math.Abs(mean-280.46061837) > 1e-4 {
		t.Errorf("mean sidereal time at J2000 = %v, want 280.46061837", mean)
	}
	apparent := EarthSiderealTime(J2000, J2000, true)
	// equation of the equinoxes is under a second of time (0.004 deg)
	if d := math.Abs(apparent - mean); d > 0.005 || d == 0 {
		t.Errorf("apparent - mean = %v deg", d)
	}
	if want := RadToDeg(sidereal.Apparent(J2000).Rad()); math.Abs(apparent-want) > 1e-9 {
		t.Errorf("apparent sidereal time = %v, want %v", apparent, want)
	}
}

func TestEarthSiderealTimeSplitsUTAndTT(t *testing.T) {
	jd := J2000 + 3000.25
	jde := jd + 20

	// The mean part ignores jde.
	if a, b := EarthSiderealTime(jd, jd, false), EarthSiderealTime(jd, jde, false); a != b {
		t.Errorf("mean sidereal time moved with jde: %v vs %v", a, b)
	}

	// The equation of the equinoxes follows jde.
	eqEq := EarthSiderealTime(jd, jde, true) - EarthSiderealTime(jd, jde, false)
	want := RadToDeg(nutation.NutationInRA(jde).Rad())
	if math.Abs(eqEq-want) > 1e-9 {
		t.Errorf("equation of the equinoxes = %v°, want %v° at jde", eqEq, want)
	}
	if other := RadToDeg(nutation.NutationInRA(jd).Rad()); math.Abs(want-other) < 1e-7 {
		t.Fatalf("nutation barely changes over 20 days: %v vs %v", want, other)
	}
}
