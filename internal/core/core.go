// Package core owns simulated time, the current observer and the cache of
// reference-frame matrices, and converts directions between frames.
package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/atmosphere"
	"github.com/litescript/ls-sky/internal/location"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/observer"
	"github.com/litescript/ls-sky/internal/projector"
	"github.com/litescript/ls-sky/internal/solarsystem"
)

// ErrInvalidRefractionMode is returned for an unknown refraction mode name.
var ErrInvalidRefractionMode = errors.New("invalid refraction mode")

// RefractionMode selects whether frame conversions apply refraction.
type RefractionMode int

const (
	// RefractionAuto applies refraction when the atmosphere is shown.
	RefractionAuto RefractionMode = iota
	RefractionOn
	RefractionOff
)

func (m RefractionMode) String() string {
	switch m {
	case RefractionAuto:
		return "auto"
	case RefractionOn:
		return "on"
	case RefractionOff:
		return "off"
	default:
		return fmt.Sprintf("RefractionMode(%d)", int(m))
	}
}

// ParseRefractionMode parses "auto", "on" or "off".
func ParseRefractionMode(s string) (RefractionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "auto", "":
		return RefractionAuto, nil
	case "on":
		return RefractionOn, nil
	case "off":
		return RefractionOff, nil
	default:
		return RefractionAuto, fmt.Errorf("%w: %q", ErrInvalidRefractionMode, s)
	}
}

// Depth range set by PreDraw.
const (
	drawZNear = 1e-6
	drawZFar  = 500
)

// Options configures a Core.
type Options struct {
	// Clock returns wall-clock time. Nil uses time.Now.
	Clock func() time.Time
	// Topocentric places the observer on the body's surface rather than
	// at its center.
	Topocentric bool
	// Law is the projection law used by Projection. Nil is perspective.
	Law projector.Law
	// TimeRate multiplies the flow of simulated time. Zero means 1.
	TimeRate float64
}

// DefaultOptions returns real-time topocentric perspective options.
func DefaultOptions() Options {
	return Options{Topocentric: true, Law: projector.Perspective{}, TimeRate: 1}
}

// Core is the frame-conversion context. It is not safe for concurrent use;
// the update and draw loop drive it from one goroutine.
type Core struct {
	log *logging.Logger
	ss  *solarsystem.SolarSystem
	sky *atmosphere.SkyDrawer
	obs *observer.Observer

	now         func() time.Time
	topocentric bool
	law         projector.Law
	params      projector.Params

	jd, jde, deltaT float64
	anchorJD        float64
	anchorTime      time.Time
	rate            float64

	matAltAzToEquinoxEqu           *mat.Dense
	matEquinoxEquToAltAz           *mat.Dense
	matEquinoxEquToJ2000           *mat.Dense
	matJ2000ToEquinoxEqu           *mat.Dense
	matJ2000ToAltAz                *mat.Dense
	matAltAzToJ2000                *mat.Dense
	matHeliocentricEclipticToEqu   *mat.Dense
	matAltAzToHeliocentricEcliptic *mat.Dense
	matHeliocentricEclipticToAltAz *mat.Dense
	matAltAzModelView              *mat.Dense
	invMatAltAzModelView           *mat.Dense
}

// New builds a core observing from loc on the Earth of ss. Time starts at
// the clock's current instant and the view looks south.
func New(log *logging.Logger, ss *solarsystem.SolarSystem, sky *atmosphere.SkyDrawer, loc location.Location, opts Options) (*Core, error) {
	if log == nil {
		log = logging.Discard()
	}
	obs, err := observer.New(loc, ss, ss.Earth())
	if err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Law == nil {
		opts.Law = projector.Perspective{}
	}
	if opts.TimeRate == 0 {
		opts.TimeRate = 1
	}

	c := &Core{
		log:               log,
		ss:                ss,
		sky:               sky,
		obs:               obs,
		now:               opts.Clock,
		topocentric:       opts.Topocentric,
		law:               opts.Law,
		params:            projector.DefaultParams(),
		rate:              opts.TimeRate,
		matAltAzModelView: astro.Identity(),
	}
	c.invMatAltAzModelView = astro.Identity()

	c.SetJD(astro.JDFromUnixMillis(c.now().UnixMilli()))
	c.ss.ComputePositions(c.jde, c.obs.Home())
	c.UpdateTransformMatrices()

	view := c.AltAzToJ2000(r3.Vec{X: 1}, RefractionOff)
	up := c.AltAzToJ2000(r3.Vec{Z: 1}, RefractionOff)
	c.LookAtJ2000(view, up)

	log.Debug("core initialized at JD %.5f for %s", c.jd, loc)
	return c, nil
}

// SolarSystem returns the solar system the core observes.
func (c *Core) SolarSystem() *solarsystem.SolarSystem { return c.ss }

// SkyDrawer returns the atmosphere settings, nil if none were given.
func (c *Core) SkyDrawer() *atmosphere.SkyDrawer { return c.sky }

// Observer returns the current observer.
func (c *Core) Observer() *observer.Observer { return c.obs }

// MoveObserverTo replaces the observer with one at target on the same
// home body. The matrices follow on the next update.
func (c *Core) MoveObserverTo(target location.Location) error {
	obs, err := observer.New(target, c.ss, c.obs.Home())
	if err != nil {
		return fmt.Errorf("move observer: %w", err)
	}
	c.obs = obs
	c.log.Debug("observer moved to %s", target)
	return nil
}

// Topocentric reports whether the observer sits on the body's surface.
func (c *Core) Topocentric() bool { return c.topocentric }

// SetTopocentric toggles the topocentric correction.
func (c *Core) SetTopocentric(v bool) { c.topocentric = v }

// Update advances time from the clock and recomputes positions and
// matrices. dt is unused; simulated time follows the wall clock.
func (c *Core) Update(dt time.Duration) {
	c.UpdateTime()
	c.UpdateTransformMatrices()
}

// useRefraction resolves mode against the atmosphere setting.
func (c *Core) useRefraction(mode RefractionMode) bool {
	if c.sky == nil {
		return false
	}
	switch mode {
	case RefractionOff:
		return false
	case RefractionAuto:
		return c.sky.ShowAtmosphere()
	default:
		return true
	}
}

// UpdateTransformMatrices recomputes every cached frame matrix from the
// observer and the current JD and JDE.
func (c *Core) UpdateTransformMatrices() {
	c.matAltAzToEquinoxEqu = c.obs.RotAltAzToEquatorial(c.jd, c.jde)
	c.matEquinoxEquToAltAz = astro.Transpose(c.matAltAzToEquinoxEqu)

	c.matEquinoxEquToJ2000 = astro.Mul(astro.MatVsop87ToJ2000(), c.obs.RotEquatorialToVsop87())
	c.matJ2000ToEquinoxEqu = astro.Transpose(c.matEquinoxEquToJ2000)
	c.matJ2000ToAltAz = astro.Mul(c.matEquinoxEquToAltAz, c.matJ2000ToEquinoxEqu)
	c.matAltAzToJ2000 = astro.Transpose(c.matJ2000ToAltAz)

	center := c.obs.CenterVsop87Pos()
	c.matHeliocentricEclipticToEqu = astro.Mul(
		c.matJ2000ToEquinoxEqu,
		astro.MatVsop87ToJ2000(),
		astro.Translation(r3.Scale(-1, center)),
	)

	altAzToVsop87 := astro.Mul(astro.MatJ2000ToVsop87(), c.matEquinoxEquToJ2000, c.matAltAzToEquinoxEqu)

	if !c.topocentric {
		c.matAltAzToHeliocentricEcliptic = astro.Mul(astro.Translation(center), altAzToVsop87)
		c.matHeliocentricEclipticToAltAz = astro.Mul(astro.Transpose(altAzToVsop87), astro.Translation(r3.Scale(-1, center)))
		return
	}

	// The offset's Y is ρ·sin φ', so sigma is only approximately the
	// difference between geographic and geocentric latitude.
	offset := c.obs.TopographicOffset()
	sigma := astro.DegToRad(c.obs.Location().Latitude) - offset.Y
	rho := c.obs.DistanceFromCenter()
	sinSigma, cosSigma := math.Sincos(sigma)
	surface := r3.Vec{X: rho * sinSigma, Z: rho * cosSigma}

	c.matAltAzToHeliocentricEcliptic = astro.Mul(
		astro.Translation(center),
		altAzToVsop87,
		astro.Translation(surface),
	)
	c.matHeliocentricEclipticToAltAz = astro.Mul(
		astro.Translation(r3.Scale(-1, surface)),
		astro.Transpose(altAzToVsop87),
		astro.Translation(r3.Scale(-1, center)),
	)
}

// AltAzToJ2000 converts an alt-az direction to J2000 equatorial. With
// refraction the input is taken as apparent.
func (c *Core) AltAzToJ2000(v r3.Vec, mode RefractionMode) r3.Vec {
	if c.useRefraction(mode) {
		v = c.sky.Refraction().Backward(v)
	}
	return astro.Apply(astro.Mul(c.matEquinoxEquToJ2000, c.matAltAzToEquinoxEqu), v)
}

// J2000ToAltAz converts a J2000 equatorial direction to alt-az. With
// refraction the output is apparent.
func (c *Core) J2000ToAltAz(v r3.Vec, mode RefractionMode) r3.Vec {
	r := astro.Apply(c.matJ2000ToAltAz, v)
	if c.useRefraction(mode) {
		r = c.sky.Refraction().Forward(r)
	}
	return r
}

// J2000ToEquinoxEqu converts J2000 equatorial to the equator of date.
func (c *Core) J2000ToEquinoxEqu(v r3.Vec) r3.Vec {
	return astro.Apply(c.matJ2000ToEquinoxEqu, v)
}

// EquinoxEquToJ2000 converts the equator of date to J2000 equatorial.
func (c *Core) EquinoxEquToJ2000(v r3.Vec) r3.Vec {
	return astro.Apply(c.matEquinoxEquToJ2000, v)
}

// HeliocentricEclipticToAltAz converts a heliocentric VSOP87 position in
// AU to an alt-az vector from the observer.
func (c *Core) HeliocentricEclipticToAltAz(v r3.Vec, mode RefractionMode) r3.Vec {
	r := astro.Apply(c.matHeliocentricEclipticToAltAz, v)
	if c.useRefraction(mode) {
		r = c.sky.Refraction().Forward(r)
	}
	return r
}

// HeliocentricEclipticToEquinoxEqu converts a heliocentric VSOP87 position
// in AU to the equator of date, centered on the home body.
func (c *Core) HeliocentricEclipticToEquinoxEqu(v r3.Vec) r3.Vec {
	return astro.Apply(c.matHeliocentricEclipticToEqu, v)
}

// AltAzToHeliocentricEcliptic converts an alt-az vector from the observer
// to a heliocentric VSOP87 position.
func (c *Core) AltAzToHeliocentricEcliptic(v r3.Vec) r3.Vec {
	return astro.Apply(c.matAltAzToHeliocentricEcliptic, v)
}

// MatJ2000ToAltAz returns a copy of the J2000 to alt-az rotation.
func (c *Core) MatJ2000ToAltAz() *mat.Dense { return mat.DenseCopyOf(c.matJ2000ToAltAz) }

// MatAltAzToJ2000 returns a copy of the alt-az to J2000 rotation.
func (c *Core) MatAltAzToJ2000() *mat.Dense { return mat.DenseCopyOf(c.matAltAzToJ2000) }

// MatHeliocentricEclipticToAltAz returns a copy of the heliocentric to
// alt-az transform.
func (c *Core) MatHeliocentricEclipticToAltAz() *mat.Dense {
	return mat.DenseCopyOf(c.matHeliocentricEclipticToAltAz)
}

// MatAltAzModelView returns a copy of the camera matrix set by LookAtJ2000.
func (c *Core) MatAltAzModelView() *mat.Dense { return mat.DenseCopyOf(c.matAltAzModelView) }

func (c *Core) modelView(pre *mat.Dense, mode RefractionMode) projector.ModelViewTransform {
	if !c.useRefraction(mode) {
		return projector.NewMat4Transform(astro.Mul(c.matAltAzModelView, pre))
	}
	refr := c.sky.Refraction().Clone().(*atmosphere.Refraction)
	refr.SetPreTransformMatrix(pre)
	refr.SetPostTransformMatrix(c.matAltAzModelView)
	return refr
}

// J2000ModelViewTransform returns the transform from J2000 equatorial into
// the camera frame.
func (c *Core) J2000ModelViewTransform(mode RefractionMode) projector.ModelViewTransform {
	return c.modelView(astro.Mul(c.matEquinoxEquToAltAz, c.matJ2000ToEquinoxEqu), mode)
}

// AltAzModelViewTransform returns the transform from alt-az into the
// camera frame.
func (c *Core) AltAzModelViewTransform(mode RefractionMode) projector.ModelViewTransform {
	return c.modelView(astro.Identity(), mode)
}

// HeliocentricEclipticModelViewTransform returns the transform from
// heliocentric VSOP87 positions into the camera frame.
func (c *Core) HeliocentricEclipticModelViewTransform(mode RefractionMode) projector.ModelViewTransform {
	return c.modelView(c.matHeliocentricEclipticToAltAz, mode)
}

// LookAtJ2000 points the camera at the J2000 direction pos with up
// toward the J2000 direction up.
func (c *Core) LookAtJ2000(pos, up r3.Vec) {
	f := r3.Unit(c.J2000ToAltAz(pos, RefractionOff))
	u := r3.Unit(c.J2000ToAltAz(up, RefractionOff))

	right := r3.Unit(r3.Cross(f, u))
	u = r3.Unit(r3.Cross(right, f))

	c.matAltAzModelView = mat.NewDense(4, 4, []float64{
		right.X, right.Y, right.Z, 0,
		u.X, u.Y, u.Z, 0,
		-f.X, -f.Y, -f.Z, 0,
		0, 0, 0, 1,
	})
	c.invMatAltAzModelView = astro.Transpose(c.matAltAzModelView)
}

// ViewDirectionJ2000 returns the J2000 direction the camera looks along.
func (c *Core) ViewDirectionJ2000() r3.Vec {
	f := astro.Apply(c.invMatAltAzModelView, r3.Vec{Z: -1})
	return astro.Apply(c.matAltAzToJ2000, f)
}

// WindowHasBeenResized sets the viewport for later projectors. The field
// of view disk fills the smaller dimension.
func (c *Core) WindowHasBeenResized(x, y, width, height float64) {
	c.params.Viewport = projector.Viewport{X: int(x), Y: int(y), Width: int(width), Height: int(height)}
	c.params.ViewportCenter.X = x + width*0.5
	c.params.ViewportCenter.Y = y + height*0.5
	c.params.FovDiameter = min(width, height)
}

// PreDraw sets the clip planes for the coming frame.
func (c *Core) PreDraw() {
	c.params.ZNear = drawZNear
	c.params.ZFar = drawZFar
}

// ProjectorParams returns the parameters for new projectors.
func (c *Core) ProjectorParams() projector.Params { return c.params }

// SetProjectorParams replaces the parameters for new projectors.
func (c *Core) SetProjectorParams(p projector.Params) { c.params = p }

// Law returns the projection law.
func (c *Core) Law() projector.Law { return c.law }

// SetLaw changes the projection law and clamps the field of view to it.
func (c *Core) SetLaw(law projector.Law) {
	c.law = law
	c.params.Fov = projector.ClampFov(law, c.params.Fov)
}

// Fov returns the field of view in degrees.
func (c *Core) Fov() float64 { return c.params.Fov }

// SetFov sets the field of view in degrees, clamped to the law's range.
func (c *Core) SetFov(deg float64) { c.params.Fov = projector.ClampFov(c.law, deg) }

// Projection returns a projector through mv with the current parameters.
func (c *Core) Projection(mv projector.ModelViewTransform) *projector.Projector {
	return projector.New(c.law, mv, c.params)
}
