// Package passes finds when a sky object is above the observer's horizon:
// rise, transit and set over a window of simulated time.
package passes

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/litescript/ls-sky/internal/astro"
)

// ErrInsufficientSamples is returned when a window holds too few samples
// to find crossings.
var ErrInsufficientSamples = errors.New("insufficient samples")

// Status classifies a pass relative to the current time.
type Status int

const (
	Past   Status = iota // Pass has ended
	Now                  // Currently in progress
	Next                 // Next upcoming pass
	Future               // Future pass (not next)
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Past:
		return "PAST"
	case Now:
		return "NOW"
	case Next:
		return "NEXT"
	case Future:
		return "FUTURE"
	default:
		return "?"
	}
}

// Sample is where an object stands at one instant.
type Sample struct {
	JD     float64 // UT
	Az     float64 // degrees
	Alt    float64 // degrees, refracted when the atmosphere is shown
	SunSep float64 // degrees from the Sun
}

// Sampler positions a named object at arbitrary UT Julian Days.
type Sampler interface {
	SampleAt(name string, jds []float64) ([]Sample, error)
}

// Pass is one interval the object spends above the horizon. Rise and Set
// are clipped to the window when the pass runs past its edges.
type Pass struct {
	Rise      float64
	Transit   float64
	Set       float64
	MaxAlt    float64
	SunMinSep float64
	Status    Status

	RiseClipped bool
	SetClipped  bool
}

// Contains reports whether jd falls inside the pass.
func (p Pass) Contains(jd float64) bool { return jd >= p.Rise && jd <= p.Set }

// Plan holds the passes of one object across a window.
type Plan struct {
	Object      string
	GeneratedAt float64 // JD the plan was computed for
	WindowStart float64
	WindowEnd   float64
	MinAlt      float64
	Samples     []Sample
	Passes      []Pass
}

const (
	// DefaultWindow is the forecast window. It starts a third of the way
	// into the past so a pass in progress has its rise.
	DefaultWindow = 36 * time.Hour

	// DefaultStep is the time between altitude samples.
	DefaultStep = 10 * time.Minute
)

// Options tunes Compute.
type Options struct {
	Window time.Duration
	Step   time.Duration
	// MinAlt is the altitude threshold for rise and set in degrees.
	MinAlt float64
}

// DefaultOptions returns a 36 hour window in 10 minute steps with rise and
// set at the horizon.
func DefaultOptions() Options {
	return Options{Window: DefaultWindow, Step: DefaultStep}
}

func days(d time.Duration) float64 { return d.Seconds() * astro.JDSecond }

// Compute samples name across a window around jd and finds its passes.
func Compute(s Sampler, name string, jd float64, opts Options) (*Plan, error) {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.Step <= 0 {
		opts.Step = DefaultStep
	}
	step := days(opts.Step)
	start := jd - days(opts.Window)/3
	n := int(days(opts.Window)/step+1e-9) + 1
	if n < 3 {
		return nil, fmt.Errorf("%s: %d samples: %w", name, n, ErrInsufficientSamples)
	}

	jds := make([]float64, n)
	for i := range jds {
		jds[i] = start + float64(i)*step
	}
	samples, err := s.SampleAt(name, jds)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", name, err)
	}

	passes := FindPasses(samples, opts.MinAlt)
	Classify(passes, jd)
	return &Plan{
		Object:      name,
		GeneratedAt: jd,
		WindowStart: jds[0],
		WindowEnd:   jds[n-1],
		MinAlt:      opts.MinAlt,
		Samples:     samples,
		Passes:      passes,
	}, nil
}

// FindPasses returns the contiguous runs of samples at or above minAlt,
// with rise and set interpolated between the samples that straddle the
// threshold.
func FindPasses(samples []Sample, minAlt float64) []Pass {
	if len(samples) < 3 {
		return nil
	}

	var passes []Pass
	inPass := false
	var cur Pass

	for i, s := range samples {
		above := s.Alt >= minAlt

		if !inPass && above {
			inPass = true
			cur = Pass{Rise: s.JD, Transit: s.JD, MaxAlt: s.Alt, SunMinSep: 360}
			if i > 0 {
				prev := samples[i-1]
				cur.Rise = interpolateCrossing(prev.JD, s.JD, prev.Alt, s.Alt, minAlt)
			} else {
				cur.RiseClipped = true
			}
		}

		if !inPass {
			continue
		}
		if !above {
			prev := samples[i-1]
			cur.Set = interpolateCrossing(prev.JD, s.JD, prev.Alt, s.Alt, minAlt)
			passes = append(passes, cur)
			inPass = false
			continue
		}
		if s.Alt > cur.MaxAlt {
			cur.MaxAlt = s.Alt
			cur.Transit = s.JD
		}
		cur.SunMinSep = math.Min(cur.SunMinSep, s.SunSep)
	}

	// Pass that extends to end of window
	if inPass {
		cur.Set = samples[len(samples)-1].JD
		cur.SetClipped = true
		passes = append(passes, cur)
	}

	sort.SliceStable(passes, func(i, j int) bool { return passes[i].Rise < passes[j].Rise })
	return passes
}

// interpolateCrossing finds the JD at which altitude crosses threshold.
func interpolateCrossing(jd1, jd2, alt1, alt2, threshold float64) float64 {
	if alt2 == alt1 {
		return jd1
	}
	fraction := (threshold - alt1) / (alt2 - alt1)
	fraction = math.Max(0, math.Min(1, fraction))
	return jd1 + (jd2-jd1)*fraction
}

// Classify assigns each pass its status relative to jd. Passes must be
// sorted by rise.
func Classify(passes []Pass, jd float64) {
	foundNext := false
	for i := range passes {
		p := &passes[i]
		switch {
		case jd > p.Set:
			p.Status = Past
		case p.Contains(jd):
			p.Status = Now
		case !foundNext:
			p.Status = Next
			foundNext = true
		default:
			p.Status = Future
		}
	}
}

// CurrentPass returns the pass in progress, or nil.
func (p *Plan) CurrentPass() *Pass { return p.find(Now) }

// NextPass returns the next upcoming pass, or nil.
func (p *Plan) NextPass() *Pass { return p.find(Next) }

func (p *Plan) find(s Status) *Pass {
	for i := range p.Passes {
		if p.Passes[i].Status == s {
			return &p.Passes[i]
		}
	}
	return nil
}

// AlwaysUp reports whether the object never dropped below the threshold
// in the window.
func (p *Plan) AlwaysUp() bool {
	return len(p.Passes) == 1 && p.Passes[0].RiseClipped && p.Passes[0].SetClipped
}

// NeverUp reports whether the object stayed below the threshold for the
// whole window.
func (p *Plan) NeverUp() bool { return len(p.Samples) > 0 && len(p.Passes) == 0 }

// At returns the sample closest to jd, or nil if there are none.
func (p *Plan) At(jd float64) *Sample {
	var closest *Sample
	minDelta := math.Inf(1)
	for i := range p.Samples {
		if d := math.Abs(p.Samples[i].JD - jd); d < minDelta {
			minDelta = d
			closest = &p.Samples[i]
		}
	}
	return closest
}

// Summary describes the object's current or next pass in a few words,
// with times in loc.
func (p *Plan) Summary(loc *time.Location) string {
	switch {
	case p.AlwaysUp():
		return "up all day"
	case p.NeverUp():
		return "below horizon all day"
	}
	if cur := p.CurrentPass(); cur != nil {
		if cur.SetClipped {
			return "up, transit " + clock(cur.Transit, loc)
		}
		return "up, sets " + clock(cur.Set, loc)
	}
	if next := p.NextPass(); next != nil {
		return fmt.Sprintf("rises %s, max %.0f°", clock(next.Rise, loc), next.MaxAlt)
	}
	return "no pass ahead"
}

func clock(jd float64, loc *time.Location) string {
	t, ok := astro.TimeFromJD(jd)
	if !ok {
		return fmt.Sprintf("JD %.4f", jd)
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("15:04")
}

// FormatTime formats jd as a wall-clock time in loc for tables.
func FormatTime(jd float64, loc *time.Location) string {
	t, ok := astro.TimeFromJD(jd)
	if !ok {
		return fmt.Sprintf("JD %.4f", jd)
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("01-02 15:04")
}
