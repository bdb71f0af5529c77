package astro

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestProjectEclipticTopDown(t *testing.T) {
	cfg := ProjectionConfig{Scale: 2, Mode: ScaleInner}

	tests := []struct {
		name string
		v    r3.Vec
		want r2.Vec
	}{
		{"origin", r3.Vec{}, r2.Vec{}},
		{"equinox", r3.Vec{X: 1}, r2.Vec{X: 2}},
		{"quadrature", r3.Vec{Y: -1.5}, r2.Vec{Y: -3}},
		{"latitude dropped", r3.Vec{X: 3, Y: 4, Z: 7}, r2.Vec{X: 6, Y: 8}},
		{"clamped", r3.Vec{X: -30}, r2.Vec{X: -10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectEclipticTopDown(tt.v, cfg)
			if r2.Norm(r2.Sub(got, tt.want)) > 1e-12 {
				t.Errorf("ProjectEclipticTopDown(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestScaleModeRadius(t *testing.T) {
	tests := []struct {
		mode ScaleMode
		rAU  float64
		want float64
	}{
		{ScaleLogR, 0, 0},
		{ScaleLogR, 9, 1},
		{ScaleInner, 1.5, 1.5},
		{ScaleInner, 30, 5},
		{ScaleOuter, 5, 0.5},
		{ScaleOuter, 45, 1},
	}
	for _, tt := range tests {
		if got := tt.mode.Radius(tt.rAU); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%v.Radius(%v) = %v, want %v", tt.mode, tt.rAU, got, tt.want)
		}
	}

	// Every mode keeps the order of distances.
	for m := ScaleLogR; m < numScaleModes; m++ {
		prev := -1.0
		for _, r := range []float64{0, 0.4, 1, 5, 5.2, 30} {
			got := m.Radius(r)
			if got < prev {
				t.Errorf("%v: radius falls to %v at %v AU", m, got, r)
			}
			prev = got
		}
	}
}

func TestScaleModeNext(t *testing.T) {
	m := ScaleLogR
	for _, want := range []string{"inner", "outer", "log"} {
		m = m.Next()
		if m.String() != want {
			t.Errorf("Next = %v, want %s", m, want)
		}
	}
	if ScaleMode(7).String() != "unknown" {
		t.Errorf("ScaleMode(7) = %v", ScaleMode(7))
	}
}

func TestDistanceConversions(t *testing.T) {
	if got := KmToAU(AU * 5.2); math.Abs(got-5.2) > 1e-12 {
		t.Errorf("KmToAU = %v, want 5.2", got)
	}
	if got := AUToKm(KmToAU(6378.1366)); math.Abs(got-6378.1366) > 1e-9 {
		t.Errorf("round trip = %v km", got)
	}

	tests := []struct {
		au, wantSecs, tol float64
	}{
		{0, 0, 0},
		{1, 499.00478, 0.001},
		{5.2, 5.2 * 499.00478, 0.01},
	}
	for _, tt := range tests {
		if got := LightTimeDays(tt.au) * 86400; math.Abs(got-tt.wantSecs) > tt.tol {
			t.Errorf("LightTimeDays(%v) = %v s, want %v s", tt.au, got, tt.wantSecs)
		}
	}
}

func TestFormatLightTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{1.28, "1.3s"},
		{499, "8m 19s"},
		{3660, "1h 01m"},
		{86400, "24h 00m"},
	}
	for _, tt := range tests {
		if got := FormatLightTime(tt.seconds); got != tt.want {
			t.Errorf("FormatLightTime(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestEclipticAngles(t *testing.T) {
	tests := []struct {
		v        r3.Vec
		lon, lat float64
	}{
		{r3.Vec{X: 1}, 0, 0},
		{r3.Vec{X: -1}, 180, 0},
		{r3.Vec{Y: -1}, 270, 0},
		{r3.Vec{X: 1, Y: 1}, 45, 0},
		{r3.Vec{X: 1, Z: 1}, 0, 45},
		{r3.Vec{Z: -1}, 0, -90},
		{r3.Vec{}, 0, 0},
	}
	for _, tt := range tests {
		lon, lat := EclipticLongitude(tt.v), EclipticLatitude(tt.v)
		if math.Abs(lon-tt.lon) > 1e-9 || math.Abs(lat-tt.lat) > 1e-9 {
			t.Errorf("%v: lon %v lat %v, want %v %v", tt.v, lon, lat, tt.lon, tt.lat)
		}
	}
}
