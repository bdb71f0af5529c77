package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/atmosphere"
	"github.com/litescript/ls-sky/internal/config"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/ephem"
	"github.com/litescript/ls-sky/internal/location"
	"github.com/litescript/ls-sky/internal/module"
	"github.com/litescript/ls-sky/internal/passes"
	"github.com/litescript/ls-sky/internal/render"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

var j2000Noon = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// stubProvider places the Earth at 1 AU on the X axis and the Moon just
// beyond it.
type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Available(id ephem.TargetID) bool {
	return id == ephem.NAIFSun || id == ephem.NAIFEarth || id == ephem.NAIFMoon
}

func (stubProvider) PosFunc(id ephem.TargetID) (solarsystem.PosFunc, error) {
	var pos r3.Vec
	switch id {
	case ephem.NAIFSun:
	case ephem.NAIFEarth:
		pos = r3.Vec{X: 1}
	case ephem.NAIFMoon:
		pos = r3.Vec{X: 0.00257}
	default:
		return nil, ephem.ErrUnknownBody
	}
	return func(float64) (r3.Vec, r3.Vec, error) { return pos, r3.Vec{}, nil }, nil
}

type countingRecorder struct{ updates, draws int }

func (r *countingRecorder) ObserveUpdate(time.Duration) { r.updates++ }
func (r *countingRecorder) ObserveDraw(time.Duration)   { r.draws++ }

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Time.JD = 2451545.0
	return cfg
}

func newEngine(t *testing.T, cfg config.Config, opts Options) *Engine {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return j2000Noon }
	}
	e, err := New(nil, cfg, stubProvider{}, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func marked(c *render.Canvas) int {
	cols, rows := c.Size()
	n := 0
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if c.Cell(x, y) != ' ' {
				n++
			}
		}
	}
	return n
}

func TestLifecycle(t *testing.T) {
	rec := &countingRecorder{}
	e := newEngine(t, testConfig(), Options{Recorder: rec})

	if n := e.Modules().Len(); n != 4 {
		t.Fatalf("%d modules registered, want 4", n)
	}
	if got := e.Bodies(); len(got) != 3 || got[0] != "Sun" || got[2] != "Moon" {
		t.Errorf("Bodies() = %v", got)
	}
	if e.Initialized() {
		t.Fatal("initialized before Init")
	}

	canvas := render.NewCanvas(81, 41)
	if err := e.Init(canvas.Viewport()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := e.Core().ProjectorParams().FovDiameter; got != 81 {
		t.Errorf("FovDiameter = %v, want 81", got)
	}

	e.Update(time.Second)
	e.Draw(canvas)
	if e.Frames() != 1 {
		t.Errorf("Frames() = %d", e.Frames())
	}
	if rec.updates != 1 || rec.draws != 1 {
		t.Errorf("recorded %d updates and %d draws", rec.updates, rec.draws)
	}
	// Looking south along the horizon.
	if got := canvas.Cell(40, 20); got != 'S' {
		t.Errorf("center cell = %q, want S\n%s", got, canvas.String())
	}

	e.Deinit()
	if e.Initialized() {
		t.Error("still initialized after Deinit")
	}
	canvas.Clear()
	e.Landscape().Draw(e.Core(), canvas)
	if n := marked(canvas); n != 0 {
		t.Errorf("deinitialized landscape marked %d cells", n)
	}
}

// failingModule refuses to initialize.
type failingModule struct{ deinits int }

func (f *failingModule) ID() module.ID                   { return module.ID(99) }
func (f *failingModule) Init() error                     { return errors.New("no texture") }
func (f *failingModule) Deinit()                         { f.deinits++ }
func (f *failingModule) Update(time.Duration)            {}
func (f *failingModule) Draw(*core.Core, render.Painter) {}
func (f *failingModule) CallOrder(module.Action) float64 { return 0 }

func TestInitFailureRollsBack(t *testing.T) {
	e := newEngine(t, testConfig(), Options{})
	bad := &failingModule{}
	if err := e.Modules().Register(bad); err != nil {
		t.Fatal(err)
	}

	canvas := render.NewCanvas(81, 41)
	if err := e.Init(canvas.Viewport()); err == nil {
		t.Fatal("Init succeeded with a failing module")
	}
	if e.Initialized() {
		t.Error("engine initialized after a failed Init")
	}
	if bad.deinits != 0 {
		t.Errorf("failed module deinitialized %d times", bad.deinits)
	}

	e.Core().PreDraw()
	e.Landscape().Draw(e.Core(), canvas)
	if n := marked(canvas); n != 0 {
		t.Errorf("rolled-back landscape marked %d cells", n)
	}
}

func TestConfigApplied(t *testing.T) {
	cfg := testConfig()
	cfg.Atmosphere.Bortle = 5
	cfg.Atmosphere.Show = false
	cfg.Atmosphere.Pressure = 900
	cfg.Atmosphere.Underground = "zero"
	cfg.View.Fov = 90
	cfg.View.Projection = "fisheye"
	cfg.View.Topocentric = false
	cfg.View.Nutation = false
	cfg.Time.Rate = 3600
	e := newEngine(t, cfg, Options{})

	sky := e.SkyDrawer()
	if sky.Bortle() != 5 || sky.ShowAtmosphere() {
		t.Errorf("sky: Bortle %d, show %v", sky.Bortle(), sky.ShowAtmosphere())
	}
	if sky.Refraction().Pressure() != 900 {
		t.Errorf("pressure = %v", sky.Refraction().Pressure())
	}
	if sky.Extinction().UndergroundMode() != atmosphere.UndergroundZero {
		t.Errorf("underground = %v", sky.Extinction().UndergroundMode())
	}

	c := e.Core()
	if c.Fov() != 90 || c.Law().Name() != "fisheye" {
		t.Errorf("view: fov %v, law %s", c.Fov(), c.Law().Name())
	}
	if c.Topocentric() || e.SolarSystem().UseNutation() {
		t.Errorf("topocentric %v, nutation %v", c.Topocentric(), e.SolarSystem().UseNutation())
	}
	if c.JD() != 2451545.0 {
		t.Errorf("JD = %v", c.JD())
	}
	if c.TimeRate() != 3600 {
		t.Errorf("TimeRate = %v", c.TimeRate())
	}
}

func TestTimeFlowsWithClock(t *testing.T) {
	now := j2000Noon
	cfg := testConfig()
	cfg.Time.Rate = 60
	e := newEngine(t, cfg, Options{Clock: func() time.Time { return now }})
	if err := e.Init(render.NewCanvas(10, 5).Viewport()); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Minute)
	e.Update(time.Minute)
	if got, want := e.Core().JD(), 2451545.0+1.0/24; math.Abs(got-want) > 1e-9 {
		t.Errorf("JD after one minute at 60x = %v, want %v", got, want)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.View.Projection = "mercator"
	if _, err := New(nil, cfg, stubProvider{}, Options{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New() = %v, want ErrInvalid", err)
	}
}

func TestMoveTo(t *testing.T) {
	e := newEngine(t, testConfig(), Options{})
	if err := e.MoveTo("Paranal -24.6272,-70.4042"); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	loc := e.Location()
	if loc.Name != "Paranal" || loc.Latitude != -24.6272 || loc.Longitude != -70.4042 {
		t.Errorf("Location() = %+v", loc)
	}
	if got := e.Core().Observer().Location(); got.Latitude != -24.6272 {
		t.Errorf("observer latitude = %v", got.Latitude)
	}

	if err := e.MoveTo("garbage"); !errors.Is(err, location.ErrInvalidLocation) {
		t.Errorf("MoveTo(garbage) = %v, want ErrInvalidLocation", err)
	}
	if e.Location().Name != "Paranal" {
		t.Errorf("invalid move changed the location to %+v", e.Location())
	}
}

func TestLookAtAltAz(t *testing.T) {
	e := newEngine(t, testConfig(), Options{})
	if az, alt := e.ViewAltAz(); math.Abs(az-180) > 1e-6 || math.Abs(alt) > 1e-6 {
		t.Errorf("initial view = (%v, %v), want due south", az, alt)
	}

	tests := []struct{ az, alt float64 }{
		{90, 30},
		{270, -10},
		{10, 60},
	}
	for _, tc := range tests {
		e.LookAtAltAz(tc.az, tc.alt)
		az, alt := e.ViewAltAz()
		if math.Abs(az-tc.az) > 1e-6 || math.Abs(alt-tc.alt) > 1e-6 {
			t.Errorf("LookAtAltAz(%v, %v) looks at (%v, %v)", tc.az, tc.alt, az, alt)
		}
	}
}

func TestTypedModuleAccess(t *testing.T) {
	e := newEngine(t, testConfig(), Options{})
	if e.Stars() == nil || e.Planets() == nil || e.Landscape() == nil || e.MilkyWay() == nil {
		t.Fatal("missing a built-in layer")
	}
	if err := e.Modules().Unload(module.Stars); err != nil {
		t.Fatal(err)
	}
	if e.Stars() != nil {
		t.Error("Stars() after unload is not nil")
	}
}

func TestAnalyticSunAtJ2000(t *testing.T) {
	e, err := New(nil, testConfig(), ephem.NewAnalyticProvider(), Options{
		Clock: func() time.Time { return j2000Noon },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sun, moon := -1.0, -1.0
	for _, v := range e.Planets().Views(e.Core()) {
		switch v.Name {
		case "Sun":
			sun = v.DistanceAU
			if math.Abs(v.RA-281.29) > 0.2 || math.Abs(v.Dec+23.03) > 0.2 {
				t.Errorf("Sun at RA %v, Dec %v", v.RA, v.Dec)
			}
		case "Moon":
			moon = v.DistanceAU
		}
	}
	if math.Abs(sun-0.9833) > 0.001 {
		t.Errorf("Sun distance = %v AU", sun)
	}
	// Perigee to apogee.
	if moon < 0.00235 || moon > 0.0028 {
		t.Errorf("Moon distance = %v AU", moon)
	}
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, nil, config.DefaultConfig(), j2000Noon)
	if err != nil || p.Name() != "Meeus" {
		t.Errorf("default provider = %v, %v", p, err)
	}

	cfg := config.DefaultConfig()
	cfg.Ephemeris.Source = "vsop87"
	if _, err := NewProvider(ctx, nil, cfg, j2000Noon); !errors.Is(err, ephem.ErrNoData) {
		t.Errorf("vsop87 without a directory = %v, want ErrNoData", err)
	}
	cfg.Ephemeris.VSOP87Dir = t.TempDir()
	if p, err := NewProvider(ctx, nil, cfg, j2000Noon); err != nil || p.Name() != "VSOP87" {
		t.Errorf("vsop87 provider = %v, %v", p, err)
	}

	cfg.Ephemeris.Source = "de440"
	if _, err := NewProvider(ctx, nil, cfg, j2000Noon); !errors.Is(err, ephem.ErrInvalidMode) {
		t.Errorf("unknown source = %v, want ErrInvalidMode", err)
	}
}

func TestSampleAtFindsSunrise(t *testing.T) {
	e, err := New(nil, testConfig(), ephem.NewAnalyticProvider(), Options{
		Clock: func() time.Time { return j2000Noon },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Init(render.NewCanvas(80, 40).Viewport()); err != nil {
		t.Fatal(err)
	}
	defer e.Deinit()

	// 04:00 local time in Redmond.
	plan, err := passes.Compute(e, "Sun", 2451545.0, passes.DefaultOptions())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if e.Core().JD() != 2451545.0 {
		t.Errorf("JD after sampling = %v, want it restored", e.Core().JD())
	}
	if plan.CurrentPass() != nil {
		t.Error("the Sun is up before dawn")
	}
	next := plan.NextPass()
	if next == nil {
		t.Fatal("no sunrise in the window")
	}
	// Sunrise near 07:55 PST, 15:55 UTC.
	if d := next.Rise - 2451545.0; d < 0.15 || d > 0.18 {
		t.Errorf("sunrise %v days after noon UTC", d)
	}
	if d := next.Set - next.Rise; d < 0.33 || d > 0.37 {
		t.Errorf("day length = %v days", d)
	}
	if next.MaxAlt < 18 || next.MaxAlt > 21 {
		t.Errorf("noon altitude = %v", next.MaxAlt)
	}
	if next.SunMinSep > 1 {
		t.Errorf("the Sun is %v° from itself", next.SunMinSep)
	}
}

func TestSampleAtStarsAndErrors(t *testing.T) {
	e := newEngine(t, testConfig(), Options{})
	if err := e.Init(render.NewCanvas(80, 40).Viewport()); err != nil {
		t.Fatal(err)
	}
	defer e.Deinit()

	samples, err := e.SampleAt("sirius", []float64{2451545.0, 2451545.25})
	if err != nil {
		t.Fatalf("SampleAt(sirius): %v", err)
	}
	if len(samples) != 2 || samples[1].JD != 2451545.25 {
		t.Errorf("samples = %+v", samples)
	}
	// A star moves with the sky: six hours later it is elsewhere.
	if samples[0].Az == samples[1].Az {
		t.Error("Sirius did not move in six hours")
	}

	for _, name := range []string{"Earth", "Vulcan"} {
		if _, err := e.SampleAt(name, []float64{2451545.0}); !errors.Is(err, ErrUnknownObject) {
			t.Errorf("SampleAt(%s) = %v, want ErrUnknownObject", name, err)
		}
	}
}
