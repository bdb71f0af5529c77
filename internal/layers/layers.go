// Package layers holds the feature modules drawn on the sky.
package layers

import (
	"github.com/litescript/ls-sky/internal/render"
)

// Draw call orders; lower draws first.
const (
	orderMilkyWay    = 1
	orderStars       = 5
	orderSolarSystem = 10
	orderLandscape   = 20
)

// xterm returns the color of a grayscale xterm-256 index from 232 to 255.
func xterm(index int) render.Color {
	v := float64(8+10*(index-232)) / 255
	return render.RGB(v, v, v)
}

// toggle is the shown/hidden switch every layer has.
type toggle struct {
	hidden bool
}

// Visible reports whether the layer draws.
func (t *toggle) Visible() bool { return !t.hidden }

// SetVisible shows or hides the layer.
func (t *toggle) SetVisible(v bool) { t.hidden = !v }
