// Package engine owns one sky session: the solar system, the atmosphere,
// the frame-conversion core and the feature modules, with an explicit
// New, Init, Update/Draw, Deinit lifecycle.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/atmosphere"
	"github.com/litescript/ls-sky/internal/config"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/ephem"
	"github.com/litescript/ls-sky/internal/invariant"
	"github.com/litescript/ls-sky/internal/layers"
	"github.com/litescript/ls-sky/internal/location"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/module"
	"github.com/litescript/ls-sky/internal/projector"
	"github.com/litescript/ls-sky/internal/render"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

var (
	// ErrNotInitialized is returned by operations that need Init first.
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrAlreadyInitialized = errors.New("engine already initialized")
)

// Recorder receives frame timings.
type Recorder interface {
	ObserveUpdate(d time.Duration)
	ObserveDraw(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpdate(time.Duration) {}
func (nopRecorder) ObserveDraw(time.Duration)   {}

// Options carries the collaborators that do not come from the config.
type Options struct {
	// Clock returns wall-clock time. Nil uses time.Now.
	Clock func() time.Time
	// Recorder receives frame timings. Nil records nothing.
	Recorder Recorder
	// Ephemeris receives ephemeris evaluation events. Nil records nothing.
	Ephemeris solarsystem.Recorder
	// Catalog is the star catalog. Nil uses astro.DefaultStarCatalog.
	Catalog *astro.StarCatalog
}

// Engine is the context every component is reached through. It is not
// safe for concurrent use.
type Engine struct {
	log *logging.Logger
	cfg config.Config

	ss        *solarsystem.SolarSystem
	sky       *atmosphere.SkyDrawer
	core      *core.Core
	modules   *module.Manager
	locations *location.Manager
	recorder  Recorder

	bodies      []string
	initialized bool
	frames      uint64
}

// New builds an engine from cfg with bodies from provider. Modules are
// registered but not initialized.
func New(log *logging.Logger, cfg config.Config, provider ephem.Provider, opts Options) (*Engine, error) {
	if log == nil {
		log = logging.Discard()
	}
	invariant.SetLogger(log.Named("invariant"))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	catalog := astro.DefaultStarCatalog()
	if opts.Catalog != nil {
		catalog = *opts.Catalog
	}

	e := &Engine{
		log:       log,
		cfg:       cfg,
		locations: location.NewManager(log.Named("location")),
		recorder:  opts.Recorder,
	}

	e.ss = solarsystem.New(log.Named("solarsystem"))
	e.ss.SetUseNutation(cfg.View.Nutation)
	if opts.Ephemeris != nil {
		e.ss.SetRecorder(opts.Ephemeris)
	}
	bodies, err := ephem.Populate(e.ss, provider)
	if err != nil {
		return nil, fmt.Errorf("engine: populate solar system: %w", err)
	}
	e.bodies = bodies
	log.Info("solar system from %s: %s", provider.Name(), strings.Join(bodies, ", "))

	e.sky = atmosphere.NewSkyDrawer(log.Named("atmosphere"))
	e.applyAtmosphere(cfg.Atmosphere)

	loc := e.locations.LocationForString(cfg.Location)
	e.locations.SetCurrent(loc)

	law, _ := cfg.Law()
	coreOpts := core.Options{
		Clock:       opts.Clock,
		Topocentric: cfg.View.Topocentric,
		Law:         law,
		TimeRate:    cfg.Time.Rate,
	}
	if e.core, err = core.New(log.Named("core"), e.ss, e.sky, loc, coreOpts); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if cfg.Time.JD != 0 {
		e.core.SetJD(cfg.Time.JD)
		e.core.Update(0)
	}
	e.core.SetFov(cfg.View.Fov)
	e.LookAtAltAz(180, 0)

	e.modules = module.NewManager(log.Named("module"))
	for _, m := range []module.Module{
		layers.NewMilkyWay(log.Named("milkyway")),
		layers.NewStars(catalog, log.Named("stars")),
		layers.NewSolarSystem(e.ss, log.Named("planets")),
		layers.NewLandscape(log.Named("landscape")),
	} {
		if err := e.modules.Register(m); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) applyAtmosphere(a config.Atmosphere) {
	e.sky.SetPressure(a.Pressure)
	e.sky.SetTemperature(a.Temperature)
	e.sky.SetExtinctionCoefficient(a.ExtinctionCoefficient)
	mode, _ := atmosphere.ParseUndergroundMode(a.Underground)
	e.sky.Extinction().SetUndergroundMode(mode)
	e.sky.SetShowAtmosphere(a.Show)
	e.sky.SetBortle(a.Bortle)
}

// Init initializes every module and sizes the view. If a module fails, the
// ones already initialized are torn down again.
func (e *Engine) Init(vp projector.Viewport) error {
	invariant.Check(!e.initialized, "engine initialized twice")
	if e.initialized {
		return ErrAlreadyInitialized
	}
	var done []module.Module
	for _, m := range e.modules.All() {
		if err := m.Init(); err != nil {
			for i := len(done) - 1; i >= 0; i-- {
				done[i].Deinit()
			}
			return fmt.Errorf("engine: init %s: %w", m.ID(), err)
		}
		done = append(done, m)
	}
	e.Resize(vp)
	e.initialized = true
	e.log.Debug("initialized %d modules", len(done))
	return nil
}

// Resize tells the core about a new viewport.
func (e *Engine) Resize(vp projector.Viewport) {
	e.core.WindowHasBeenResized(float64(vp.X), float64(vp.Y), float64(vp.Width), float64(vp.Height))
}

// Update advances time and every module by dt.
func (e *Engine) Update(dt time.Duration) {
	if !e.initialized {
		invariant.Unreachable("Update before Init")
		return
	}
	start := time.Now()
	e.core.Update(dt)
	e.modules.Update()
	for _, m := range e.modules.CallOrder(module.ActionUpdate) {
		m.Update(dt)
	}
	e.recorder.ObserveUpdate(time.Since(start))
}

// Draw draws every module onto p in draw order.
func (e *Engine) Draw(p render.Painter) {
	if !e.initialized {
		invariant.Unreachable("Draw before Init")
		return
	}
	start := time.Now()
	e.core.PreDraw()
	for _, m := range e.modules.CallOrder(module.ActionDraw) {
		m.Draw(e.core, p)
	}
	e.frames++
	e.recorder.ObserveDraw(time.Since(start))
}

// Deinit tears the modules down in reverse registration order.
func (e *Engine) Deinit() {
	if !e.initialized {
		return
	}
	all := e.modules.All()
	for i := len(all) - 1; i >= 0; i-- {
		all[i].Deinit()
	}
	e.initialized = false
	e.log.Debug("deinitialized after %d frames", e.frames)
}

// Initialized reports whether Init has run without a matching Deinit.
func (e *Engine) Initialized() bool { return e.initialized }

// Frames returns the number of completed draws.
func (e *Engine) Frames() uint64 { return e.frames }

func (e *Engine) Core() *core.Core                      { return e.core }
func (e *Engine) SolarSystem() *solarsystem.SolarSystem { return e.ss }
func (e *Engine) SkyDrawer() *atmosphere.SkyDrawer      { return e.sky }
func (e *Engine) Modules() *module.Manager              { return e.modules }
func (e *Engine) Config() config.Config                 { return e.cfg }

// Bodies returns the names of the bodies in the solar system.
func (e *Engine) Bodies() []string { return append([]string(nil), e.bodies...) }

// Location returns the observer's location.
func (e *Engine) Location() location.Location { return e.locations.Current() }

// MoveTo parses s and moves the observer there.
func (e *Engine) MoveTo(s string) error {
	loc, err := location.ParseLocation(s)
	if err != nil {
		return err
	}
	if err := e.core.MoveObserverTo(loc); err != nil {
		return err
	}
	e.locations.SetCurrent(loc)
	e.core.UpdateTransformMatrices()
	return nil
}

// Stars returns the star layer.
func (e *Engine) Stars() *layers.Stars {
	s, _ := module.Get[*layers.Stars](e.modules, module.Stars)
	return s
}

// Planets returns the solar-system layer.
func (e *Engine) Planets() *layers.SolarSystem {
	s, _ := module.Get[*layers.SolarSystem](e.modules, module.SolarSystem)
	return s
}

// Landscape returns the horizon layer.
func (e *Engine) Landscape() *layers.Landscape {
	l, _ := module.Get[*layers.Landscape](e.modules, module.Landscape)
	return l
}

// MilkyWay returns the Milky Way layer.
func (e *Engine) MilkyWay() *layers.MilkyWay {
	m, _ := module.Get[*layers.MilkyWay](e.modules, module.MilkyWay)
	return m
}

// LookAtAltAz points the camera at azimuth az and altitude alt, in
// degrees, with the zenith up.
func (e *Engine) LookAtAltAz(az, alt float64) {
	alt = max(-89.9, min(89.9, alt))
	view := e.core.AltAzToJ2000(astro.HorizontalToVec(az, alt), core.RefractionOff)
	up := e.core.AltAzToJ2000(r3.Vec{Z: 1}, core.RefractionOff)
	e.core.LookAtJ2000(view, up)
}

// ViewAltAz returns where the camera points, in degrees.
func (e *Engine) ViewAltAz() (az, alt float64) {
	return astro.VecToHorizontal(e.core.J2000ToAltAz(e.core.ViewDirectionJ2000(), core.RefractionOff))
}
