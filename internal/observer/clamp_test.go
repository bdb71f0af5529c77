//go:build !skydebug

package observer

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/location"
)

func TestRotAltAzToEquatorialClampsLatitude(t *testing.T) {
	ss, ball := newSystem(t)
	loc := location.Location{Latitude: 95, Valid: true}
	obs, _ := New(loc, ss, ball)

	got := obs.RotAltAzToEquatorial(astro.J2000, astro.J2000)
	want := astro.RotZ(0)
	if !mat.EqualApprox(got, want, 1e-12) {
		t.Errorf("clamped rotation =\n%v", mat.Formatted(got))
	}
}
