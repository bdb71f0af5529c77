package solarsystem

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/logging"
)

func fixed(pos r3.Vec) PosFunc {
	return func(float64) (r3.Vec, r3.Vec, error) { return pos, r3.Vec{}, nil }
}

type countingRecorder struct {
	evaluated map[string]int
	failed    map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{evaluated: map[string]int{}, failed: map[string]int{}}
}

func (r *countingRecorder) EphemerisEvaluated(body string) { r.evaluated[body]++ }
func (r *countingRecorder) EphemerisFailed(body string)    { r.failed[body]++ }

func sunEarth(t *testing.T, earth PosFunc) (*SolarSystem, Handle, Handle) {
	t.Helper()
	s := New(nil)
	sun, err := s.Add(Config{Name: "Sun", RadiusKm: SunRadiusKm, Rotation: DefaultRotationElements(), Pos: fixed(r3.Vec{}), Parent: NoParent})
	if err != nil {
		t.Fatalf("add sun: %v", err)
	}
	e, err := s.Add(Config{
		Name: "Earth", RadiusKm: EarthRadiusKm, Oblateness: EarthOblateness,
		Rotation: DefaultRotationElements(), Model: RotationEarth, Pos: earth, Parent: sun,
	})
	if err != nil {
		t.Fatalf("add earth: %v", err)
	}
	return s, sun, e
}

func TestComputePositionsSunEarthAtJ2000(t *testing.T) {
	s, sun, earth := sunEarth(t, fixed(r3.Vec{X: 1}))

	s.ComputePositions(astro.J2000, sun)

	got := s.HeliocentricEclipticPos(earth)
	if got != (r3.Vec{X: 1}) {
		t.Errorf("Earth heliocentric position = %v, want (1,0,0)", got)
	}
	if r := s.Planet(earth).Radius(); r != astro.KmToAU(EarthRadiusKm) {
		t.Errorf("Earth radius = %v AU, want %v", r, astro.KmToAU(EarthRadiusKm))
	}
}

func TestFirstComputeAlwaysEvaluates(t *testing.T) {
	s, _, earth := sunEarth(t, fixed(r3.Vec{X: 1}))
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	// lastJDE starts at J2000, so only the computed flag forces this call.
	s.ComputePositionWithoutOrbits(earth, astro.J2000)
	if rec.evaluated["Earth"] != 1 {
		t.Fatalf("Earth evaluated %d times, want 1", rec.evaluated["Earth"])
	}

	// Within one second: cached.
	s.ComputePositionWithoutOrbits(earth, astro.J2000+0.5*astro.JDSecond)
	if rec.evaluated["Earth"] != 1 {
		t.Errorf("cached position re-evaluated")
	}

	// Beyond one second: recomputed.
	s.ComputePositionWithoutOrbits(earth, astro.J2000+2*astro.JDSecond)
	if rec.evaluated["Earth"] != 2 {
		t.Errorf("stale position not re-evaluated")
	}
}

func TestComputePositionUpdatesParentFirst(t *testing.T) {
	s := New(nil)
	var order []string
	track := func(name string, pos r3.Vec) PosFunc {
		return func(float64) (r3.Vec, r3.Vec, error) {
			order = append(order, name)
			return pos, r3.Vec{}, nil
		}
	}
	if err := s.InitStandard(track("Sun", r3.Vec{}), track("Earth", r3.Vec{X: 1}), track("Moon", r3.Vec{Y: 0.00257})); err != nil {
		t.Fatal(err)
	}

	s.ComputePosition(s.Moon(), astro.J2000)
	if strings.Join(order, ",") != "Earth,Moon" {
		t.Errorf("evaluation order = %v, want Earth,Moon", order)
	}

	want := r3.Vec{X: 1, Y: 0.00257}
	if got := s.HeliocentricEclipticPos(s.Moon()); got != want {
		t.Errorf("Moon heliocentric = %v, want %v", got, want)
	}
}

func TestSetHeliocentricEclipticPosInverts(t *testing.T) {
	s := New(nil)
	if err := s.InitStandard(fixed(r3.Vec{}), fixed(r3.Vec{X: 1, Y: 0.2}), fixed(r3.Vec{})); err != nil {
		t.Fatal(err)
	}
	s.ComputePositions(astro.J2000, s.Earth())

	target := r3.Vec{X: 1.001, Y: 0.2, Z: -0.0003}
	s.SetHeliocentricEclipticPos(s.Moon(), target)
	got := s.HeliocentricEclipticPos(s.Moon())
	if r3.Norm(r3.Sub(got, target)) > 1e-15 {
		t.Errorf("heliocentric after set = %v, want %v", got, target)
	}
}

func TestRotEquatorialToVsop87ChainsParents(t *testing.T) {
	s := New(nil)
	if err := s.InitStandard(fixed(r3.Vec{}), fixed(r3.Vec{X: 1}), fixed(r3.Vec{X: 0.0025})); err != nil {
		t.Fatal(err)
	}
	moon := s.Planet(s.Moon())
	moon.SetRotationElements(RotationElements{Period: 27.32, Epoch: astro.J2000, Obliquity: 0.1, AscendingNode: 0.3})
	s.ComputeTransMatrix(s.Earth(), astro.J2000, astro.J2000)
	s.ComputeTransMatrix(s.Moon(), astro.J2000, astro.J2000)

	want := astro.Mul(s.Planet(s.Earth()).RotLocalToParent(), moon.RotLocalToParent())
	if got := s.RotEquatorialToVsop87(s.Moon()); !mat.EqualApprox(got, want, 1e-15) {
		t.Errorf("RotEquatorialToVsop87(Moon) =\n%v\nwant\n%v", mat.Formatted(got), mat.Formatted(want))
	}

	// Earth's chain stops below the root.
	if got := s.RotEquatorialToVsop87(s.Earth()); !mat.Equal(got, s.Planet(s.Earth()).RotLocalToParent()) {
		t.Error("Earth rotation includes the root")
	}

	target := astro.RotZ(0.5)
	s.SetRotEquatorialToVsop87(s.Moon(), target)
	if got := s.RotEquatorialToVsop87(s.Moon()); !mat.EqualApprox(got, target, 1e-12) {
		t.Errorf("after SetRotEquatorialToVsop87 got\n%v", mat.Formatted(got))
	}
}

func TestEarthFrameAtJ2000(t *testing.T) {
	s, _, earth := sunEarth(t, fixed(r3.Vec{X: 1}))
	s.SetUseNutation(false)
	s.ComputeTransMatrix(earth, astro.J2000, astro.J2000)

	// Without nutation, Earth's frame at J2000 is the obliquity rotation.
	if got := s.Planet(earth).RotLocalToParent(); !mat.EqualApprox(got, astro.MatJ2000ToVsop87(), 1e-6) {
		t.Errorf("Earth frame at J2000 =\n%v", mat.Formatted(got))
	}

	s.SetUseNutation(true)
	s.ComputeTransMatrix(earth, astro.J2000, astro.J2000)
	if got := s.Planet(earth).RotLocalToParent(); mat.EqualApprox(got, astro.MatJ2000ToVsop87(), 1e-6) {
		t.Error("nutation had no effect on Earth's frame")
	}
}

func TestUniformBodyFrame(t *testing.T) {
	s, _, _ := sunEarth(t, fixed(r3.Vec{X: 1}))
	mars, err := s.Add(Config{
		Name: "Mars", RadiusKm: 3396.19, Parent: s.Sun(), Pos: fixed(r3.Vec{X: 1.5}),
		Rotation: RotationElements{Period: 1.025957, Epoch: astro.J2000, Obliquity: 0.4, AscendingNode: 0.6, PrecessionRate: 0.001},
	})
	if err != nil {
		t.Fatal(err)
	}
	jde := astro.J2000 + 100
	s.ComputeTransMatrix(mars, jde, jde)
	want := astro.Mul(astro.RotZ(0.6-0.001*100), astro.RotX(0.4))
	if got := s.Planet(mars).RotLocalToParent(); !mat.EqualApprox(got, want, 1e-12) {
		t.Errorf("Mars frame =\n%v\nwant\n%v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestSiderealTime(t *testing.T) {
	tests := []struct {
		name string
		re   RotationElements
		jde  float64
		want float64
	}{
		{"quarter turn", RotationElements{Period: 2, Epoch: astro.J2000}, astro.J2000 + 0.5, 90},
		{"offset", RotationElements{Period: 1, Offset: 12.5, Epoch: astro.J2000}, astro.J2000 + 3, 12.5},
		{"before epoch", RotationElements{Period: 4, Epoch: astro.J2000}, astro.J2000 - 1, 270},
		{"zero period", RotationElements{Period: 0, Offset: 7, Epoch: astro.J2000}, astro.J2000 + 123.456, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPlanet(Config{Name: "Body", Rotation: tt.re, Pos: fixed(r3.Vec{})})
			got := p.SiderealTime(tt.jde, tt.jde, false)
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("SiderealTime = %v", got)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SiderealTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJupiterCentralMeridian(t *testing.T) {
	p := newPlanet(Config{Name: "Jupiter", Model: RotationJupiter, Rotation: DefaultRotationElements(), Pos: fixed(r3.Vec{})})
	a := p.SiderealTime(0, 2460000.5, false)
	// System II turns 870.27 deg/day; over 1/24 day the meridian moves ~36 deg.
	b := p.SiderealTime(0, 2460000.5+1.0/24, false)
	d := math.Mod(b-a+720, 360)
	if math.Abs(d-36.26) > 0.5 {
		t.Errorf("central meridian moved %v deg in one hour, want ~36.26", d)
	}
}

func TestEarthSiderealTimeUsesUT(t *testing.T) {
	p := newPlanet(Config{Name: "Earth", Model: RotationEarth, Rotation: DefaultRotationElements(), Pos: fixed(r3.Vec{})})
	got := p.SiderealTime(astro.J2000, astro.J2000+1, false)
	if math.Abs(got-280.46061837) > 1e-4 {
		t.Errorf("Earth sidereal time = %v, want 280.4606", got)
	}
}

func TestLightTimeSunPosition(t *testing.T) {
	const speed = 0.0172 // AU/day along +y
	moving := func(jde float64) (r3.Vec, r3.Vec, error) {
		return r3.Vec{X: 1, Y: speed * (jde - astro.J2000)}, r3.Vec{Y: speed}, nil
	}
	s, _, earth := sunEarth(t, moving)

	jde := astro.J2000 + 10
	s.ComputePositions(jde, earth)

	obs := r3.Vec{X: 1, Y: speed * 10}
	lt := astro.LightTimeDays(r3.Norm(obs))
	got := s.LightTimeSunPosition()
	if math.Abs(got.Y-speed*lt) > 1e-10 || got.X != 0 {
		t.Errorf("LightTimeSunPosition = %v, want (0, %v, 0)", got, speed*lt)
	}
	// The observer itself ends at the uncorrected epoch.
	if p := s.HeliocentricEclipticPos(earth); r3.Norm(r3.Sub(p, obs)) > 1e-12 {
		t.Errorf("observer position = %v, want %v", p, obs)
	}
}

func TestEphemerisFailureKeepsLastPosition(t *testing.T) {
	fail := false
	earth := func(jde float64) (r3.Vec, r3.Vec, error) {
		if fail {
			return r3.Vec{}, r3.Vec{}, errors.New("no data")
		}
		return r3.Vec{X: 1}, r3.Vec{}, nil
	}
	s, sun, h := sunEarth(t, earth)
	var buf bytes.Buffer
	log := logging.New(logging.LevelDebug)
	log.SetOutput(&buf)
	s.log = log
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	s.ComputePositions(astro.J2000, sun)
	fail = true
	s.ComputePositions(astro.J2000+1, sun)
	s.ComputePositions(astro.J2000+2, sun)

	if got := s.HeliocentricEclipticPos(h); got != (r3.Vec{X: 1}) {
		t.Errorf("position after failure = %v, want last good (1,0,0)", got)
	}
	if rec.failed["Earth"] == 0 {
		t.Error("failure not recorded")
	}
	if n := strings.Count(buf.String(), "ephemeris for Earth"); n != 1 {
		t.Errorf("failure logged %d times, want once:\n%s", n, buf.String())
	}
}

func TestAddErrors(t *testing.T) {
	s, sun, _ := sunEarth(t, fixed(r3.Vec{X: 1}))

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no pos func", Config{Name: "Mars", Parent: sun}, ErrNoPosFunc},
		{"duplicate", Config{Name: "Earth", Parent: sun, Pos: fixed(r3.Vec{})}, ErrDuplicateBody},
		{"unknown parent", Config{Name: "Phobos", Parent: 42, Pos: fixed(r3.Vec{})}, ErrUnknownParent},
		{"second root", Config{Name: "Sun2", Parent: NoParent, Pos: fixed(r3.Vec{})}, ErrSecondRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Add(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("Add() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLookupAndHandles(t *testing.T) {
	s := New(nil)
	if err := s.InitStandard(fixed(r3.Vec{}), fixed(r3.Vec{X: 1}), fixed(r3.Vec{})); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Sun", "Earth", "Moon"} {
		h, ok := s.Lookup(name)
		if !ok || s.Planet(h).Name() != name {
			t.Errorf("Lookup(%q) = %v, %v", name, h, ok)
		}
	}
	if got := s.Planet(s.Moon()).Parent(); got != s.Earth() {
		t.Errorf("Moon parent = %v, want Earth", got)
	}
	if len(s.Handles()) != 3 || s.Len() != 3 {
		t.Errorf("Handles() = %v", s.Handles())
	}
	if got := s.Planet(s.Earth()).OneMinusOblateness(); math.Abs(got-(1-EarthOblateness)) > 1e-15 {
		t.Errorf("OneMinusOblateness = %v", got)
	}
}
