package atmosphere

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/logging"
)

func altOf(v r3.Vec) float64 {
	_, alt := astro.VecToHorizontal(v)
	return alt
}

func TestRefractionZeroVector(t *testing.T) {
	r := NewRefraction()
	r.SetPreTransformMatrix(astro.RotZ(0.4))
	var zero r3.Vec
	if got := r.ForwardAltAz(zero); got != zero {
		t.Errorf("ForwardAltAz(0) = %v", got)
	}
	if got := r.BackwardAltAz(zero); got != zero {
		t.Errorf("BackwardAltAz(0) = %v", got)
	}
	if got := r.Forward(zero); r3.Norm(got) != 0 {
		t.Errorf("Forward(0) = %v", got)
	}
	if got := r.Backward(zero); r3.Norm(got) > 1e-300 {
		t.Errorf("Backward(0) = %v", got)
	}
}

func TestRefractionAtHorizon(t *testing.T) {
	r := NewRefraction()
	got := altOf(r.ForwardAltAz(astro.HorizontalToVec(120, 0)))
	// Saemundsson at 0°: about 29 arcminutes at 1013 mbar and 10 °C.
	if math.Abs(got-0.4845) > 1e-3 {
		t.Errorf("apparent altitude of horizon = %v°, want ~0.4845°", got)
	}
}

func TestRefractionPreservesLengthAndAzimuth(t *testing.T) {
	r := NewRefraction()
	for _, alt := range []float64{-4.5, -3, -1, 0, 0.2, 1, 10, 45, 89} {
		v := r3.Scale(2.5, astro.HorizontalToVec(33, alt))
		for name, got := range map[string]r3.Vec{"forward": r.ForwardAltAz(v), "backward": r.BackwardAltAz(v)} {
			if math.Abs(r3.Norm(got)-2.5) > 1e-12 {
				t.Errorf("%s at %v°: length = %v, want 2.5", name, alt, r3.Norm(got))
			}
			az, _ := astro.VecToHorizontal(got)
			if math.Abs(az-33) > 1e-9 {
				t.Errorf("%s at %v°: azimuth = %v, want 33", name, alt, az)
			}
		}
	}
}

func TestRefractionBelowTransitionIsIdentity(t *testing.T) {
	r := NewRefraction()
	v := astro.HorizontalToVec(200, -10)
	if got := r.ForwardAltAz(v); got != v {
		t.Errorf("ForwardAltAz at -10° = %v, want unchanged", got)
	}
	if got := r.BackwardAltAz(v); got != v {
		t.Errorf("BackwardAltAz at -10° = %v, want unchanged", got)
	}
}

func TestRefractionContinuousAtFloors(t *testing.T) {
	r := NewRefraction()
	const eps = 1e-7

	fwd := func(alt float64) float64 { return altOf(r.ForwardAltAz(astro.HorizontalToVec(0, alt))) }
	bwd := func(alt float64) float64 { return altOf(r.BackwardAltAz(astro.HorizontalToVec(0, alt))) }

	tests := []struct {
		name string
		f    func(float64) float64
		at   float64
	}{
		{"forward floor", fwd, MinGeoAltitudeDeg},
		{"forward transition bottom", fwd, MinGeoAltitudeDeg - TransitionWidthGeoDeg},
		{"backward floor", bwd, MinAppAltitudeDeg},
		{"backward transition bottom", bwd, MinAppAltitudeDeg - TransitionWidthAppDeg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if jump := math.Abs(tt.f(tt.at+eps) - tt.f(tt.at-eps)); jump > 1e-5 {
				t.Errorf("jump of %v° at %v°", jump, tt.at)
			}
		})
	}
}

func TestRefractionNearlyInverse(t *testing.T) {
	r := NewRefraction()
	for _, alt := range []float64{-4, -3.5, -3, -2, -1, 0, 0.5, 1, 5, 10, 45, 80} {
		got := altOf(r.BackwardAltAz(r.ForwardAltAz(astro.HorizontalToVec(90, alt))))
		if math.Abs(got-alt) > 0.005 {
			t.Errorf("Backward(Forward(%v°)) = %v°", alt, got)
		}
	}
}

func TestRefractionZenithCapped(t *testing.T) {
	r := NewRefraction()
	got := r.ForwardAltAz(r3.Vec{Z: 1})
	if math.Abs(got.Z-1) > 1e-12 || math.Hypot(got.X, got.Y) > 1e-6 {
		t.Errorf("ForwardAltAz(zenith) = %v", got)
	}
}

func TestRefractionPressureTemperature(t *testing.T) {
	r := NewRefraction()
	v := astro.HorizontalToVec(0, 5)
	base := altOf(r.ForwardAltAz(v)) - 5

	r.SetPressure(0)
	if got := altOf(r.ForwardAltAz(v)); math.Abs(got-5) > 1e-12 {
		t.Errorf("refraction without air = %v°", got-5)
	}

	r.SetPressure(DefaultPressure)
	r.SetTemperature(40)
	warm := altOf(r.ForwardAltAz(v)) - 5
	want := base * (273 + DefaultTemperature) / (273 + 40)
	if math.Abs(warm-want) > 1e-9 {
		t.Errorf("refraction at 40 °C = %v°, want %v°", warm, want)
	}
	if r.Pressure() != DefaultPressure || r.Temperature() != 40 {
		t.Errorf("Pressure/Temperature = %v/%v", r.Pressure(), r.Temperature())
	}
}

func TestRefractionAsModelView(t *testing.T) {
	r := NewRefraction()
	pre := astro.Mul(astro.RotY(0.2), astro.RotZ(1.3))
	post := astro.RotX(-0.5)
	r.SetPreTransformMatrix(pre)
	r.SetPostTransformMatrix(post)

	if !mat.EqualApprox(r.TransformMatrix(), astro.Mul(post, pre), 1e-15) {
		t.Error("TransformMatrix() != post·pre")
	}

	v := astro.EquatorialToVec(40, 30)
	back := r.Backward(r.Forward(v))
	if sep := astro.AngularSeparation(back, v); sep > 0.02 {
		t.Errorf("Backward(Forward(v)) off by %v°", sep)
	}

	clone := r.Clone()
	r.Combine(astro.RotZ(0.1))
	if !mat.EqualApprox(r.TransformMatrix(), astro.Mul(post, pre, astro.RotZ(0.1)), 1e-15) {
		t.Error("Combine did not right-multiply pre")
	}
	if !mat.EqualApprox(clone.TransformMatrix(), astro.Mul(post, pre), 1e-15) {
		t.Error("Clone shares state with the original")
	}
}

func TestAirmass(t *testing.T) {
	e := NewExtinction()
	if got := e.Airmass(1, false); math.Abs(got-1) > 1e-6 {
		t.Errorf("Young airmass at zenith = %v, want ~1", got)
	}
	if got := e.Airmass(1, true); math.Abs(got-1) > 1e-6 {
		t.Errorf("Rozenberg airmass at zenith = %v, want ~1", got)
	}
	// 60° zenith distance: close to sec z = 2.
	if got := e.Airmass(0.5, false); math.Abs(got-2) > 0.01 {
		t.Errorf("Young airmass at z=60° = %v, want ~2", got)
	}
	if low, high := e.Airmass(0.1, false), e.Airmass(0.3, false); low <= high {
		t.Errorf("airmass not decreasing with altitude: %v <= %v", low, high)
	}
}

func TestAirmassUnderground(t *testing.T) {
	young := NewExtinction()

	tests := []struct {
		mode UndergroundMode
		cosZ float64
		want float64
	}{
		{UndergroundZero, -0.05, 0},
		{UndergroundZero, -0.035, 0},
		{UndergroundMax, -0.05, 42},
		{UndergroundMax, -0.035, 42},
		{UndergroundMirror, -0.05, young.Airmass(-0.02, false)},
		{UndergroundMirror, -0.035, young.Airmass(-0.035, false)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v_%v", tt.mode, tt.cosZ), func(t *testing.T) {
			e := NewExtinction()
			e.SetUndergroundMode(tt.mode)
			if got := e.Airmass(tt.cosZ, false); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Airmass(%v) = %v, want %v", tt.cosZ, got, tt.want)
			}
		})
	}

	// Just above the threshold every mode uses Young's formula.
	for _, m := range []UndergroundMode{UndergroundZero, UndergroundMax} {
		e := NewExtinction()
		e.SetUndergroundMode(m)
		if got, want := e.Airmass(-0.034, false), young.Airmass(-0.034, false); got != want {
			t.Errorf("%v: Airmass(-0.034) = %v, want %v", m, got, want)
		}
	}
}

func TestExtinctionForwardBackward(t *testing.T) {
	e := NewExtinction()
	e.SetCoefficient(0.2)
	v := astro.HorizontalToVec(10, 30)

	dimmed := e.Forward(v, 1.5)
	want := 1.5 + 0.2*e.Airmass(v.Z, false)
	if math.Abs(dimmed-want) > 1e-12 {
		t.Errorf("Forward = %v, want %v", dimmed, want)
	}
	if got := e.Backward(v, dimmed); math.Abs(got-1.5) > 1e-12 {
		t.Errorf("Backward(Forward(1.5)) = %v", got)
	}
}

func TestParseUndergroundMode(t *testing.T) {
	for _, m := range []UndergroundMode{UndergroundZero, UndergroundMax, UndergroundMirror} {
		got, err := ParseUndergroundMode(strings.ToUpper(m.String()))
		if err != nil || got != m {
			t.Errorf("ParseUndergroundMode(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseUndergroundMode("sideways"); !errors.Is(err, ErrInvalidUndergroundMode) {
		t.Errorf("ParseUndergroundMode(sideways) error = %v", err)
	}
}

func TestSkyDrawerBortle(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.LevelWarn)
	log.SetOutput(&buf)
	d := NewSkyDrawer(log)

	if d.Bortle() != DefaultBortle || d.NELM() != 7.3 {
		t.Errorf("default Bortle %d NELM %v", d.Bortle(), d.NELM())
	}

	tests := []struct {
		in, want int
		nelm     float64
		warn     bool
	}{
		{1, 1, 7.8, false},
		{5, 5, 5.8, false},
		{9, 9, 4.0, false},
		{0, 1, 7.8, true},
		{12, 9, 4.0, true},
	}
	for _, tt := range tests {
		buf.Reset()
		d.SetBortle(tt.in)
		if d.Bortle() != tt.want || d.NELM() != tt.nelm {
			t.Errorf("SetBortle(%d): Bortle %d NELM %v, want %d %v", tt.in, d.Bortle(), d.NELM(), tt.want, tt.nelm)
		}
		if warned := strings.Contains(buf.String(), "[WARN]"); warned != tt.warn {
			t.Errorf("SetBortle(%d) warned = %v, want %v", tt.in, warned, tt.warn)
		}
	}
}

func TestSkyDrawerSetters(t *testing.T) {
	d := NewSkyDrawer(nil)
	if !d.ShowAtmosphere() {
		t.Error("atmosphere hidden by default")
	}
	d.SetShowAtmosphere(false)
	d.SetPressure(900)
	d.SetTemperature(-5)
	d.SetExtinctionCoefficient(0.3)
	if d.ShowAtmosphere() || d.Refraction().Pressure() != 900 ||
		d.Refraction().Temperature() != -5 || d.Extinction().Coefficient() != 0.3 {
		t.Error("setters not applied")
	}
}

func TestLuminanceRoundTrip(t *testing.T) {
	for _, sb := range []float64{15, 18.5, 21.7, 22} {
		lum := SurfaceBrightnessToLuminance(sb)
		if got := LuminanceToSurfaceBrightness(lum); math.Abs(got-sb) > 1e-9 {
			t.Errorf("LuminanceToSurfaceBrightness(SurfaceBrightnessToLuminance(%v)) = %v", sb, got)
		}
	}
	if SurfaceBrightnessToLuminance(18) <= SurfaceBrightnessToLuminance(22) {
		t.Error("brighter surface brightness gave lower luminance")
	}
}
