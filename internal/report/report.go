// Package report renders a one-shot description of the sky an engine shows,
// as JSON or as a text table, for headless use.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/core"
	"github.com/litescript/ls-sky/internal/engine"
	"github.com/litescript/ls-sky/internal/passes"
)

// Snapshot is the JSON-serializable state of one engine frame.
type Snapshot struct {
	Timestamp  time.Time    `json:"timestamp,omitzero"`
	JD         float64      `json:"jd"`
	JDE        float64      `json:"jde"`
	DeltaT     float64      `json:"delta_t_seconds"`
	TimeRate   float64      `json:"time_rate"`
	Location   LocationInfo `json:"location"`
	Projection string       `json:"projection"`
	Fov        float64      `json:"fov"`
	ViewAz     float64      `json:"view_azimuth"`
	ViewAlt    float64      `json:"view_altitude"`
	Atmosphere bool         `json:"atmosphere"`
	Bortle     int          `json:"bortle"`
	NELM       float64      `json:"limiting_magnitude"`
	Bodies     []BodyInfo   `json:"bodies"`
	Stars      []StarInfo   `json:"stars"`
	Passes     []PassInfo   `json:"passes,omitempty"`
}

// LocationInfo is the observer's site.
type LocationInfo struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude_m"`
	Home      string  `json:"home"`
}

// Pixel is a position in the viewport.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BodyInfo is where a solar-system body appears.
type BodyInfo struct {
	Name          string  `json:"name"`
	Azimuth       float64 `json:"azimuth"`
	Altitude      float64 `json:"altitude"`
	RA            float64 `json:"ra"`
	Dec           float64 `json:"dec"`
	DistanceAU    float64 `json:"distance_au"`
	LightTimeSec  float64 `json:"light_time_seconds"`
	AngularRadius float64 `json:"angular_radius"`
	AboveHorizon  bool    `json:"above_horizon"`
	Pixel         *Pixel  `json:"pixel,omitempty"`
}

// StarInfo is a cataloged star as the observer sees it.
type StarInfo struct {
	Name         string  `json:"name"`
	Mag          float64 `json:"mag"`
	ApparentMag  float64 `json:"apparent_mag"`
	Azimuth      float64 `json:"azimuth"`
	Altitude     float64 `json:"altitude"`
	AboveHorizon bool    `json:"above_horizon"`
	Visible      bool    `json:"visible"`
	Pixel        *Pixel  `json:"pixel,omitempty"`
}

// PassInfo is the current or next pass of one object.
type PassInfo struct {
	Object  string    `json:"object"`
	Status  string    `json:"status"`
	Rise    time.Time `json:"rise,omitzero"`
	Transit time.Time `json:"transit,omitzero"`
	Set     time.Time `json:"set,omitzero"`
	MaxAlt  float64   `json:"max_altitude"`
	Summary string    `json:"summary"`
}

// BuildSnapshot describes the sky eng currently shows. The engine must be
// initialized so the viewport is known.
func BuildSnapshot(eng *engine.Engine) *Snapshot {
	c := eng.Core()
	sky := eng.SkyDrawer()
	loc := eng.Location()
	az, alt := eng.ViewAltAz()

	snap := &Snapshot{
		JD:       c.JD(),
		JDE:      c.JDE(),
		DeltaT:   c.DeltaT(),
		TimeRate: c.TimeRate(),
		Location: LocationInfo{
			Name:      loc.Name,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Altitude:  loc.Altitude,
			Home:      eng.SolarSystem().Planet(c.Observer().Home()).Name(),
		},
		Projection: c.Law().Name(),
		Fov:        c.Fov(),
		ViewAz:     az,
		ViewAlt:    alt,
		Atmosphere: sky.ShowAtmosphere(),
		Bortle:     sky.Bortle(),
		NELM:       sky.NELM(),
	}
	if t, ok := astro.TimeFromJD(c.JD()); ok {
		snap.Timestamp = t
	}

	altAzProj := c.Projection(c.AltAzModelViewTransform(core.RefractionOff))
	pixel := func(v r3.Vec) *Pixel {
		w, ok := altAzProj.ProjectCheck(v)
		if !ok {
			return nil
		}
		return &Pixel{X: w.X, Y: w.Y}
	}

	if planets := eng.Planets(); planets != nil {
		for _, b := range planets.Views(c) {
			snap.Bodies = append(snap.Bodies, BodyInfo{
				Name:          b.Name,
				Azimuth:       b.Az,
				Altitude:      b.Alt,
				RA:            b.RA,
				Dec:           b.Dec,
				DistanceAU:    b.DistanceAU,
				LightTimeSec:  astro.LightTimeDays(b.DistanceAU) * 86400,
				AngularRadius: b.AngularRadius,
				AboveHorizon:  b.Alt >= 0,
				Pixel:         pixel(b.AltAz),
			})
		}
	}

	if stars := eng.Stars(); stars != nil {
		limit := sky.NELM()
		for i, s := range stars.Catalog().Stars {
			altAz := c.J2000ToAltAz(s.Direction(), core.RefractionAuto)
			saz, salt := astro.VecToHorizontal(altAz)
			mag, up := stars.ApparentMag(c, i)
			info := StarInfo{
				Name:         s.Name,
				Mag:          s.Mag,
				ApparentMag:  mag,
				Azimuth:      saz,
				Altitude:     salt,
				AboveHorizon: up,
				Visible:      up && mag <= limit,
			}
			if info.Visible {
				info.Pixel = pixel(altAz)
			}
			snap.Stars = append(snap.Stars, info)
		}
	}
	return snap
}

// AddPasses plans the current or next pass of every body in the snapshot.
func (s *Snapshot) AddPasses(eng *engine.Engine, opts passes.Options) error {
	tz, err := eng.Location().TimeLocation()
	if err != nil {
		tz = time.UTC
	}
	for _, b := range s.Bodies {
		plan, err := passes.Compute(eng, b.Name, s.JD, opts)
		if err != nil {
			return err
		}
		info := PassInfo{Object: b.Name, Summary: plan.Summary(tz)}
		p := plan.CurrentPass()
		if p == nil {
			p = plan.NextPass()
		}
		if p != nil {
			info.Status = p.Status.String()
			info.MaxAlt = p.MaxAlt
			info.Rise, _ = astro.TimeFromJD(p.Rise)
			info.Transit, _ = astro.TimeFromJD(p.Transit)
			info.Set, _ = astro.TimeFromJD(p.Set)
		}
		s.Passes = append(s.Passes, info)
	}
	return nil
}

// WriteJSON writes the snapshot as indented JSON.
func (s *Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// VisibleStars returns the stars that are up and bright enough to see.
func (s *Snapshot) VisibleStars() []StarInfo {
	var out []StarInfo
	for _, st := range s.Stars {
		if st.Visible {
			out = append(out, st)
		}
	}
	return out
}

const ruleWidth = 86

// WriteSummaryTable writes a text table of the bodies and the visible
// stars.
func WriteSummaryTable(w io.Writer, s *Snapshot) {
	when := fmt.Sprintf("JD %.5f", s.JD)
	if !s.Timestamp.IsZero() {
		when = s.Timestamp.Format(time.RFC3339)
	}
	site := fmt.Sprintf("%.4f, %.4f", s.Location.Latitude, s.Location.Longitude)
	if s.Location.Name != "" {
		site = s.Location.Name + " (" + site + ")"
	}
	fmt.Fprintf(w, "Sky @ %s from %s on %s\n", when, site, s.Location.Home)
	fmt.Fprintf(w, "Delta-T %.1fs | %s %.1f° | atmosphere %s | limiting mag %.1f\n",
		s.DeltaT, s.Projection, s.Fov, onOff(s.Atmosphere, s.Bortle), s.NELM)
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))

	if len(s.Bodies) == 0 {
		fmt.Fprintln(w, "No bodies")
	} else {
		fmt.Fprintf(w, "%-10s %-14s %-14s %-8s %-7s %-12s %-10s %s\n",
			"Body", "RA", "Dec", "Az", "Alt", "Distance", "Light", "")
		fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
		for _, b := range s.Bodies {
			flag := ""
			if !b.AboveHorizon {
				flag = "below"
			}
			fmt.Fprintf(w, "%-10s %-14s %-14s %7.2f° %6.2f° %9.4f AU %-10s %s\n",
				truncateStr(b.Name, 10),
				formatRA(b.RA),
				formatDec(b.Dec),
				b.Azimuth,
				b.Altitude,
				b.DistanceAU,
				astro.FormatLightTime(b.LightTimeSec),
				flag,
			)
		}
	}

	visible := s.VisibleStars()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-14s %-6s %-6s %-8s %s\n", "Star", "Mag", "App", "Az", "Alt")
	fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
	for _, st := range visible {
		fmt.Fprintf(w, "%-14s %6.2f %6.2f %7.2f° %6.2f°\n",
			truncateStr(st.Name, 14), st.Mag, st.ApparentMag, st.Azimuth, st.Altitude)
	}
	if len(s.Passes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-10s %-6s %-8s %-8s %-8s %s\n", "Pass", "Status", "Rise", "Transit", "Set", "Summary")
		fmt.Fprintln(w, strings.Repeat("─", ruleWidth))
		for _, p := range s.Passes {
			fmt.Fprintf(w, "%-10s %-6s %-8s %-8s %-8s %s\n",
				truncateStr(p.Object, 10), p.Status, clock(p.Rise), clock(p.Transit), clock(p.Set), p.Summary)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d bodies, %d of %d stars visible\n", len(s.Bodies), len(visible), len(s.Stars))
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("15:04Z")
}

func onOff(on bool, bortle int) string {
	if !on {
		return "off"
	}
	return fmt.Sprintf("on, Bortle %d", bortle)
}

func formatRA(deg float64) string {
	return fmt.Sprint(sexa.FmtRA(unit.RAFromDeg(deg)))
}

func formatDec(deg float64) string {
	return fmt.Sprint(sexa.FmtAngle(unit.AngleFromDeg(deg)))
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
