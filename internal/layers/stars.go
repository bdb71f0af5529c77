package layers

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/module"
	"github.com/litescript/ls-sky/internal/render"
)

// Star glyphs and colors by magnitude, grayscale so planets stand out.
var starClasses = []struct {
	below float64
	glyph rune
	color render.Color
}{
	{1.5, '✶', xterm(255)},
	{3.0, '✸', xterm(250)},
	{4.0, '·', xterm(244)},
	{99, '·', xterm(240)},
}

// DefaultLabelMag is the magnitude below which stars are named.
const DefaultLabelMag = 1.0

// Stars draws a bright-star catalog. With the atmosphere shown, stars are
// dimmed by extinction, hidden below the horizon and cut at the sky's
// naked-eye limit.
type Stars struct {
	toggle
	log *logging.Logger

	catalog  astro.StarCatalog
	dirs     []r3.Vec
	labelMag float64
	labels   bool

	drawn int
}

var _ module.Module = (*Stars)(nil)

// NewStars returns a star layer over catalog.
func NewStars(catalog astro.StarCatalog, log *logging.Logger) *Stars {
	if log == nil {
		log = logging.Discard()
	}
	return &Stars{log: log, catalog: catalog, labelMag: DefaultLabelMag, labels: true}
}

// ID implements module.Module.
func (s *Stars) ID() module.ID { return module.Stars }

// Init implements module.Module.
func (s *Stars) Init() error {
	s.dirs = make([]r3.Vec, len(s.catalog.Stars))
	for i, star := range s.catalog.Stars {
		s.dirs[i] = star.Direction()
	}
	s.log.Debug("loaded %d stars", len(s.dirs))
	return nil
}

// Deinit implements module.Module.
func (s *Stars) Deinit() { s.dirs = nil }

// Update implements module.Module.
func (s *Stars) Update(time.Duration) {}

// CallOrder implements module.Module.
func (s *Stars) CallOrder(a module.Action) float64 {
	if a == module.ActionDraw {
		return orderStars
	}
	return 0
}

// SetLabels turns star names on or off.
func (s *Stars) SetLabels(v bool) { s.labels = v }

// Labels reports whether star names are drawn.
func (s *Stars) Labels() bool { return s.labels }

// Catalog returns the catalog the layer draws.
func (s *Stars) Catalog() astro.StarCatalog { return s.catalog }

// Drawn returns how many stars the last Draw placed.
func (s *Stars) Drawn() int { return s.drawn }

// ApparentMag returns the magnitude of star i as seen through the
// atmosphere, and whether it is above the horizon.
func (s *Stars) ApparentMag(c *core.Core, i int) (float64, bool) {
	mag := s.catalog.Stars[i].Mag
	sky := c.SkyDrawer()
	if !sky.ShowAtmosphere() {
		return mag, true
	}
	altAz := r3.Unit(c.J2000ToAltAz(s.dirs[i], core.RefractionOff))
	if altAz.Z < 0 {
		return mag, false
	}
	return sky.Extinction().Forward(altAz, mag), true
}

// Draw implements module.Module.
func (s *Stars) Draw(c *core.Core, p render.Painter) {
	s.drawn = 0
	if !s.Visible() {
		return
	}
	p.SetProjector(c.Projection(c.J2000ModelViewTransform(core.RefractionAuto)))

	limit := c.SkyDrawer().NELM()
	groups := make([]render.DrawEntity, len(starClasses))
	for k, class := range starClasses {
		groups[k] = render.DrawEntity{Primitive: render.Points, Glyph: class.glyph}
	}
	var named []int
	for i := range s.dirs {
		mag, up := s.ApparentMag(c, i)
		if !up || mag > limit {
			continue
		}
		for k, class := range starClasses {
			if mag < class.below {
				groups[k].Positions = append(groups[k].Positions, s.dirs[i])
				groups[k].Colors = append(groups[k].Colors, class.color)
				break
			}
		}
		if s.labels && s.catalog.Stars[i].Mag < s.labelMag {
			named = append(named, i)
		}
		s.drawn++
	}

	// Dim classes first so brighter glyphs win shared cells.
	for k := len(groups) - 1; k >= 0; k-- {
		if len(groups[k].Positions) > 0 {
			p.Draw(&groups[k])
		}
	}
	p.SetColor(xterm(250))
	for _, i := range named {
		p.DrawText(s.dirs[i], s.catalog.Stars[i].Name)
	}
}
