package solarsystem

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/invariant"
	"github.com/litescript/ls-sky/internal/logging"
)

var (
	// ErrUnknownParent is returned when a body names a parent that is not
	// in the system.
	ErrUnknownParent = errors.New("unknown parent body")

	// ErrDuplicateBody is returned when a body name is already taken.
	ErrDuplicateBody = errors.New("duplicate body")

	// ErrNoPosFunc is returned when a body has no position function.
	ErrNoPosFunc = errors.New("body has no position function")

	// ErrSecondRoot is returned when a parentless body is added to a system
	// that already has a root.
	ErrSecondRoot = errors.New("solar system already has a root body")
)

// Recorder receives ephemeris evaluation events. Implementations must be
// cheap; they are called from the update loop.
type Recorder interface {
	EphemerisEvaluated(body string)
	EphemerisFailed(body string)
}

type nopRecorder struct{}

func (nopRecorder) EphemerisEvaluated(string) {}
func (nopRecorder) EphemerisFailed(string)    {}

// Radii and flattening of the built-in bodies.
const (
	SunRadiusKm     = 696000
	EarthRadiusKm   = 6378.1366
	EarthOblateness = 0.003352810664747481
	MoonRadiusKm    = 1737.4
)

// SolarSystem owns every Planet. Parent links are handles into the same
// arena, so the tree has a single owner.
type SolarSystem struct {
	log      *logging.Logger
	recorder Recorder

	planets []*Planet
	byName  map[string]Handle

	sun, earth, moon Handle

	useNutation          bool
	lightTimeSunPosition r3.Vec
}

// New returns an empty solar system.
func New(log *logging.Logger) *SolarSystem {
	if log == nil {
		log = logging.Discard()
	}
	return &SolarSystem{
		log:         log,
		recorder:    nopRecorder{},
		byName:      make(map[string]Handle),
		sun:         NoParent,
		earth:       NoParent,
		moon:        NoParent,
		useNutation: true,
	}
}

// SetRecorder installs an ephemeris event recorder. Nil restores the no-op.
func (s *SolarSystem) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	s.recorder = r
}

// SetUseNutation selects apparent (true) or mean sidereal time and
// toggles nutation in Earth's frame.
func (s *SolarSystem) SetUseNutation(v bool) { s.useNutation = v }

// UseNutation reports whether nutation is applied.
func (s *SolarSystem) UseNutation() bool { return s.useNutation }

// Add inserts a body and returns its handle. Bodies must be added after
// their parent.
func (s *SolarSystem) Add(cfg Config) (Handle, error) {
	if cfg.Pos == nil {
		return NoParent, fmt.Errorf("add %q: %w", cfg.Name, ErrNoPosFunc)
	}
	if _, ok := s.byName[cfg.Name]; ok {
		return NoParent, fmt.Errorf("add %q: %w", cfg.Name, ErrDuplicateBody)
	}
	if cfg.Parent == NoParent {
		if s.sun != NoParent {
			return NoParent, fmt.Errorf("add %q: %w", cfg.Name, ErrSecondRoot)
		}
	} else if !s.valid(cfg.Parent) {
		return NoParent, fmt.Errorf("add %q: %w (handle %d)", cfg.Name, ErrUnknownParent, cfg.Parent)
	}

	h := Handle(len(s.planets))
	s.planets = append(s.planets, newPlanet(cfg))
	s.byName[cfg.Name] = h
	if cfg.Parent == NoParent {
		s.sun = h
	}
	s.log.Debug("added %s (handle %d, parent %d)", cfg.Name, h, cfg.Parent)
	return h, nil
}

// InitStandard adds the Sun, Earth and Moon with the given position
// functions. The Moon's position is relative to the Earth.
func (s *SolarSystem) InitStandard(sun, earth, moon PosFunc) error {
	var err error
	if s.sun, err = s.Add(Config{
		Name:     "Sun",
		RadiusKm: SunRadiusKm,
		Rotation: DefaultRotationElements(),
		Pos:      sun,
		Parent:   NoParent,
	}); err != nil {
		return err
	}
	if s.earth, err = s.Add(Config{
		Name:       "Earth",
		RadiusKm:   EarthRadiusKm,
		Oblateness: EarthOblateness,
		Rotation:   DefaultRotationElements(),
		Model:      RotationEarth,
		Pos:        earth,
		Parent:     s.sun,
	}); err != nil {
		return err
	}
	if s.moon, err = s.Add(Config{
		Name:     "Moon",
		RadiusKm: MoonRadiusKm,
		Rotation: DefaultRotationElements(),
		Pos:      moon,
		Parent:   s.earth,
	}); err != nil {
		return err
	}
	return nil
}

// Sun returns the root body handle, NoParent before InitStandard or the
// first parentless Add.
func (s *SolarSystem) Sun() Handle { return s.sun }

// Earth returns the Earth handle set by InitStandard.
func (s *SolarSystem) Earth() Handle { return s.earth }

// Moon returns the Moon handle set by InitStandard.
func (s *SolarSystem) Moon() Handle { return s.moon }

// Lookup finds a body by name.
func (s *SolarSystem) Lookup(name string) (Handle, bool) {
	h, ok := s.byName[name]
	return h, ok
}

// Planet returns the body for h. It panics on an invalid handle, which is a
// programming error.
func (s *SolarSystem) Planet(h Handle) *Planet {
	return s.planets[h]
}

// Handles returns every body handle in insertion order, parents first.
func (s *SolarSystem) Handles() []Handle {
	hs := make([]Handle, len(s.planets))
	for i := range s.planets {
		hs[i] = Handle(i)
	}
	return hs
}

// Len returns the number of bodies.
func (s *SolarSystem) Len() int { return len(s.planets) }

// LightTimeSunPosition returns the shift of the observer's heliocentric
// position over the light travel time from the Sun.
func (s *SolarSystem) LightTimeSunPosition() r3.Vec { return s.lightTimeSunPosition }

func (s *SolarSystem) valid(h Handle) bool {
	return h >= 0 && int(h) < len(s.planets)
}

// ancestors calls fn for each ancestor of h, nearest first, excluding the
// root.
func (s *SolarSystem) ancestors(h Handle, fn func(*Planet)) {
	for a := s.planets[h].parent; a != NoParent; a = s.planets[a].parent {
		if s.planets[a].parent == NoParent {
			return
		}
		fn(s.planets[a])
	}
}

// HeliocentricPos converts pos, given relative to h's parent, into the
// root's frame.
func (s *SolarSystem) HeliocentricPos(h Handle, pos r3.Vec) r3.Vec {
	s.ancestors(h, func(a *Planet) {
		pos = r3.Add(pos, a.eclipticPos)
	})
	return pos
}

// HeliocentricEclipticPos returns h's position in the root's frame.
func (s *SolarSystem) HeliocentricEclipticPos(h Handle) r3.Vec {
	return s.HeliocentricPos(h, s.planets[h].eclipticPos)
}

// HeliocentricEclipticVelocity returns h's velocity in the root's frame.
func (s *SolarSystem) HeliocentricEclipticVelocity(h Handle) r3.Vec {
	vel := s.planets[h].eclipticVelocity
	s.ancestors(h, func(a *Planet) {
		vel = r3.Add(vel, a.eclipticVelocity)
	})
	return vel
}

// SetHeliocentricEclipticPos sets h's parent-relative position so that its
// heliocentric position becomes pos.
func (s *SolarSystem) SetHeliocentricEclipticPos(h Handle, pos r3.Vec) {
	s.ancestors(h, func(a *Planet) {
		pos = r3.Sub(pos, a.eclipticPos)
	})
	s.planets[h].eclipticPos = pos
}

// RotEquatorialToVsop87 returns the rotation from h's equatorial frame to
// the VSOP87 frame, accumulated up the parent chain excluding the root.
func (s *SolarSystem) RotEquatorialToVsop87(h Handle) *mat.Dense {
	ret := mat.DenseCopyOf(s.planets[h].rotLocalToParent)
	s.ancestors(h, func(a *Planet) {
		ret = astro.Mul(a.rotLocalToParent, ret)
	})
	return ret
}

// SetRotEquatorialToVsop87 sets h's local rotation so that
// RotEquatorialToVsop87(h) returns m.
func (s *SolarSystem) SetRotEquatorialToVsop87(h Handle, m mat.Matrix) {
	accu := astro.Identity()
	s.ancestors(h, func(a *Planet) {
		accu = astro.Mul(a.rotLocalToParent, accu)
	})
	s.planets[h].rotLocalToParent = astro.Mul(astro.Transpose(accu), m)
}

// evaluate calls h's position function. On failure the previous state is
// kept and the next call retries.
func (s *SolarSystem) evaluate(h Handle, jde float64) {
	p := s.planets[h]
	pos, vel, err := p.pos(jde)
	if err != nil {
		s.recorder.EphemerisFailed(p.name)
		if !p.failing {
			s.log.Error("ephemeris for %s at JDE %.5f: %v", p.name, jde, err)
			p.failing = true
		}
		return
	}
	if p.failing {
		s.log.Info("ephemeris for %s recovered", p.name)
		p.failing = false
	}
	s.recorder.EphemerisEvaluated(p.name)
	p.eclipticPos = pos
	p.eclipticVelocity = vel
	p.lastJDE = jde
	p.computed = true
}

// ComputePositionWithoutOrbits updates h's position for jde unless the
// cached one is within a second of it.
func (s *SolarSystem) ComputePositionWithoutOrbits(h Handle, jde float64) {
	if s.planets[h].stale(jde) {
		s.evaluate(h, jde)
	}
}

// ComputePosition updates h's parent and then h for jde.
func (s *SolarSystem) ComputePosition(h Handle, jde float64) {
	if parent := s.planets[h].parent; parent != NoParent {
		s.ComputePositionWithoutOrbits(parent, jde)
	}
	if s.planets[h].stale(jde) {
		s.evaluate(h, jde)
	}
}

// ComputeTransMatrix updates h's axis rotation and local to parent frame
// for UT day jd and ephemeris day jde.
func (s *SolarSystem) ComputeTransMatrix(h Handle, jd, jde float64) {
	p := s.planets[h]
	p.axisRotation = p.SiderealTime(jd, jde, s.useNutation)

	if p.parent == NoParent {
		return
	}

	if p.model == RotationEarth {
		pa := astro.Precession(jde)
		rot := astro.Mul(astro.RotZ(-pa.PsiA), astro.RotX(-pa.OmegaA), astro.RotZ(pa.ChiA))
		if s.useNutation {
			dpsi, deps := astro.Nutation(jde)
			rot = astro.Mul(rot, astro.RotX(pa.EpsA), astro.RotZ(dpsi), astro.RotX(-pa.EpsA-deps))
		}
		p.rotLocalToParent = rot
		return
	}

	p.rotLocalToParent = astro.Mul(
		astro.RotZ(p.re.AscendingNode-p.re.PrecessionRate*(jde-p.re.Epoch)),
		astro.RotX(p.re.Obliquity),
	)
}

// ComputePositions brings every body to ephemeris day jde as seen from
// observer, applying light-time correction per body.
func (s *SolarSystem) ComputePositions(jde float64, observer Handle) {
	invariant.Check(s.valid(observer), "observer handle %d not in solar system", observer)
	if !s.valid(observer) {
		return
	}

	for i := range s.planets {
		s.ComputePositionWithoutOrbits(Handle(i), jde)
	}

	obsPos := s.HeliocentricEclipticPos(observer)
	lt := astro.LightTimeDays(r3.Norm(obsPos))

	// The observer's own light-time shift is kept only to place the Sun.
	s.ComputePosition(observer, jde-lt)
	s.lightTimeSunPosition = r3.Sub(obsPos, s.HeliocentricEclipticPos(observer))
	s.ComputePosition(observer, jde)

	for i := range s.planets {
		h := Handle(i)
		lsc := astro.LightTimeDays(r3.Norm(r3.Sub(s.HeliocentricEclipticPos(h), obsPos)))
		s.ComputePosition(h, jde-lsc)
	}

	s.ComputeTransMatrices(jde, s.HeliocentricEclipticPos(observer))
}

// ComputeTransMatrices updates every body's frame at its own light-time
// corrected epoch.
func (s *SolarSystem) ComputeTransMatrices(jde float64, observerPos r3.Vec) {
	jd := jde - astro.ComputeDeltaT(jde)/86400

	for i := range s.planets {
		h := Handle(i)
		lsc := astro.LightTimeDays(r3.Norm(r3.Sub(s.HeliocentricEclipticPos(h), observerPos)))
		s.ComputeTransMatrix(h, jd-lsc, jde-lsc)
	}
}
