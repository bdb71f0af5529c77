package astro

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestStarCatalogFind(t *testing.T) {
	cat := DefaultStarCatalog()

	tests := []struct {
		name           string
		minRA, maxRA   float64
		minDec, maxDec float64
		maxMag         float64
	}{
		{"Sirius", 100, 103, -18, -15, 0},
		{"vega", 278, 281, 37, 40, 0.5},
		{"POLARIS", 35, 40, 88, 90, 2.5},
		{"Canopus", 94, 98, -54, -51, 0},
		{"Betelgeuse", 87, 90, 6, 9, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := cat.Find(tt.name)
			if !ok {
				t.Fatalf("Find(%q) missed", tt.name)
			}
			if s.RAdeg < tt.minRA || s.RAdeg > tt.maxRA || s.DecDeg < tt.minDec || s.DecDeg > tt.maxDec {
				t.Errorf("%s at RA %v Dec %v", s.Name, s.RAdeg, s.DecDeg)
			}
			if s.Mag > tt.maxMag {
				t.Errorf("%s mag %v, want at most %v", s.Name, s.Mag, tt.maxMag)
			}
		})
	}

	if _, ok := cat.Find("Vulcan"); ok {
		t.Error("Find(Vulcan) matched")
	}
}

func TestDefaultStarCatalogEntries(t *testing.T) {
	cat := DefaultStarCatalog()
	if len(cat.Stars) < 50 {
		t.Fatalf("%d stars, want at least 50", len(cat.Stars))
	}
	if cat.Stars[0].Name != "Sirius" {
		t.Errorf("first star = %s, want Sirius", cat.Stars[0].Name)
	}

	seen := make(map[string]bool)
	for _, s := range cat.Stars {
		switch {
		case s.Name == "":
			t.Error("star without a name")
		case seen[s.Name]:
			t.Errorf("%s listed twice", s.Name)
		case s.RAdeg < 0 || s.RAdeg >= 360, s.DecDeg < -90 || s.DecDeg > 90:
			t.Errorf("%s at RA %v Dec %v", s.Name, s.RAdeg, s.DecDeg)
		case s.Mag < -2 || s.Mag > 5:
			t.Errorf("%s mag %v", s.Name, s.Mag)
		}
		seen[s.Name] = true

		if n := r3.Norm(s.Direction()); math.Abs(n-1) > 1e-12 {
			t.Errorf("%s direction norm = %v", s.Name, n)
		}
	}
}

func TestStarDirection(t *testing.T) {
	polaris, _ := DefaultStarCatalog().Find("Polaris")
	if d := polaris.Direction(); d.Z < 0.999 {
		t.Errorf("Polaris direction %v is not near the pole", d)
	}

	s := Star{RAdeg: 90}
	if d := s.Direction(); math.Abs(d.Y-1) > 1e-12 {
		t.Errorf("RA 6h direction = %v, want +Y", d)
	}
}

func TestBrighterThan(t *testing.T) {
	cat := DefaultStarCatalog()
	tests := []struct {
		limit float64
		want  func(n int) bool
	}{
		{-5, func(n int) bool { return n == 0 }},
		{1, func(n int) bool { return n > 0 && n < len(cat.Stars) }},
		{10, func(n int) bool { return n == len(cat.Stars) }},
	}
	for _, tt := range tests {
		got := cat.BrighterThan(tt.limit)
		if !tt.want(len(got)) {
			t.Errorf("BrighterThan(%v) returned %d of %d stars", tt.limit, len(got), len(cat.Stars))
		}
		for _, s := range got {
			if s.Mag > tt.limit {
				t.Errorf("%s mag %v exceeds %v", s.Name, s.Mag, tt.limit)
			}
		}
	}
}
