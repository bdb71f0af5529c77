package atmosphere

import (
	"math"

	"github.com/litescript/ls-sky/internal/logging"
)

// DefaultBortle is the Bortle dark-sky class of a typical rural site.
const DefaultBortle = 2

// nelmByBortle holds the average naked-eye limiting magnitude per class.
var nelmByBortle = [...]float64{7.8, 7.3, 6.8, 6.3, 5.8, 5.3, 4.8, 4.3, 4.0}

// SkyDrawer owns the atmosphere settings shared by everything that draws.
type SkyDrawer struct {
	log *logging.Logger

	extinction     *Extinction
	refraction     *Refraction
	showAtmosphere bool
	bortle         int
}

// NewSkyDrawer returns a drawer with the atmosphere shown, standard
// refraction and extinction, and Bortle class 2.
func NewSkyDrawer(log *logging.Logger) *SkyDrawer {
	if log == nil {
		log = logging.Discard()
	}
	return &SkyDrawer{
		log:            log,
		extinction:     NewExtinction(),
		refraction:     NewRefraction(),
		showAtmosphere: true,
		bortle:         DefaultBortle,
	}
}

// Extinction returns the shared extinction model.
func (d *SkyDrawer) Extinction() *Extinction { return d.extinction }

// Refraction returns the shared refraction model.
func (d *SkyDrawer) Refraction() *Refraction { return d.refraction }

// ShowAtmosphere reports whether atmospheric effects are drawn.
func (d *SkyDrawer) ShowAtmosphere() bool { return d.showAtmosphere }

// SetShowAtmosphere toggles atmospheric effects.
func (d *SkyDrawer) SetShowAtmosphere(v bool) { d.showAtmosphere = v }

// Bortle returns the Bortle dark-sky class.
func (d *SkyDrawer) Bortle() int { return d.bortle }

// SetBortle sets the Bortle class, clamping it to 1..9.
func (d *SkyDrawer) SetBortle(index int) {
	if index < 1 || index > 9 {
		d.log.Warn("Bortle scale index range is [1;9], given %d", index)
		index = max(1, min(9, index))
	}
	d.bortle = index
}

// NELM returns the naked-eye limiting magnitude for the Bortle class.
func (d *SkyDrawer) NELM() float64 {
	return nelmByBortle[d.bortle-1]
}

// SetPressure sets the surface pressure in mbar.
func (d *SkyDrawer) SetPressure(mbar float64) { d.refraction.SetPressure(mbar) }

// SetTemperature sets the surface temperature in °C.
func (d *SkyDrawer) SetTemperature(celsius float64) { d.refraction.SetTemperature(celsius) }

// SetExtinctionCoefficient sets the extinction in mag/airmass.
func (d *SkyDrawer) SetExtinctionCoefficient(k float64) { d.extinction.SetCoefficient(k) }

// SurfaceBrightnessToLuminance converts mag/arcsec² to cd/m².
func SurfaceBrightnessToLuminance(sb float64) float64 {
	return 2 * 2025000 * math.Exp(-0.92103*(sb+12.12331)) * 3600
}

// LuminanceToSurfaceBrightness converts cd/m² to mag/arcsec².
func LuminanceToSurfaceBrightness(lum float64) float64 {
	return math.Log(lum/3600/(2*2025000))/-0.92103 - 12.12331
}
