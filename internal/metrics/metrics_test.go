package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-sky/internal/render"
)

func newCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return c, reg
}

func TestEphemerisCounters(t *testing.T) {
	c, _ := newCollector(t)
	c.EphemerisEvaluated("Mars")
	c.EphemerisEvaluated("Mars")
	c.EphemerisFailed("Jupiter")

	if got := testutil.ToFloat64(c.EphemerisEvaluations.WithLabelValues("Mars")); got != 2 {
		t.Errorf("evaluations{Mars} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.EphemerisFailures.WithLabelValues("Jupiter")); got != 1 {
		t.Errorf("failures{Jupiter} = %v, want 1", got)
	}
}

func TestFrameDurations(t *testing.T) {
	c, reg := newCollector(t)
	c.ObserveUpdate(2 * time.Millisecond)
	c.ObserveUpdate(3 * time.Millisecond)
	c.ObserveDraw(time.Millisecond)

	want := `
# HELP sky_draw_duration_seconds Time spent drawing all modules per frame.
# TYPE sky_draw_duration_seconds histogram
sky_draw_duration_seconds_bucket{le="0.0001"} 0
sky_draw_duration_seconds_bucket{le="0.00025"} 0
sky_draw_duration_seconds_bucket{le="0.0005"} 0
sky_draw_duration_seconds_bucket{le="0.001"} 1
sky_draw_duration_seconds_bucket{le="0.0025"} 1
sky_draw_duration_seconds_bucket{le="0.005"} 1
sky_draw_duration_seconds_bucket{le="0.01"} 1
sky_draw_duration_seconds_bucket{le="0.016"} 1
sky_draw_duration_seconds_bucket{le="0.033"} 1
sky_draw_duration_seconds_bucket{le="0.1"} 1
sky_draw_duration_seconds_bucket{le="+Inf"} 1
sky_draw_duration_seconds_sum 0.001
sky_draw_duration_seconds_count 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "sky_draw_duration_seconds"); err != nil {
		t.Error(err)
	}
	if n := testutil.CollectAndCount(c.UpdateDuration); n != 1 {
		t.Errorf("update histogram has %d series, want 1", n)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveUpdate(time.Second)
	c.ObserveDraw(time.Second)
	c.EphemerisEvaluated("Sun")
	c.EphemerisFailed("Sun")

	canvas := render.NewCanvas(4, 4)
	if p := c.WrapPainter(canvas); p != render.Painter(canvas) {
		t.Errorf("nil collector wrapped the painter: %T", p)
	}
}

func TestRegisterTwiceReuses(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	a.EphemerisEvaluated("Moon")
	if got := testutil.ToFloat64(b.EphemerisEvaluations.WithLabelValues("Moon")); got != 1 {
		t.Errorf("second collector sees %v evaluations, want 1", got)
	}
}

// recordingPainter counts the entities it receives.
type recordingPainter struct {
	render.Painter
	drawn int
}

func (r *recordingPainter) Draw(*render.DrawEntity) { r.drawn++ }

func TestPainterCountsDraws(t *testing.T) {
	c, _ := newCollector(t)
	canvas := render.NewCanvas(8, 4)
	next := &recordingPainter{Painter: canvas}
	p := c.WrapPainter(next)

	p.SetColor(render.RGB(1, 0, 0))
	if canvas.Color() != render.RGB(1, 0, 0) {
		t.Error("SetColor not forwarded")
	}

	pos := []r3.Vec{{Z: -1}, {X: 0.1, Z: -1}, {Y: 0.1, Z: -1}}
	p.Draw(&render.DrawEntity{Primitive: render.Points, Positions: pos[:1]})
	for i := 0; i < 2; i++ {
		p.Draw(&render.DrawEntity{Primitive: render.LineLoop, Positions: pos, Colors: make([]render.Color, 3)})
	}

	if next.drawn != 3 {
		t.Errorf("wrapped painter drew %d entities, want 3", next.drawn)
	}
	if got := testutil.ToFloat64(c.DrawCalls.WithLabelValues("points", "position")); got != 1 {
		t.Errorf("draw calls{points,position} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.DrawCalls.WithLabelValues("line-loop", "position_color")); got != 2 {
		t.Errorf("draw calls{line-loop,position_color} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.DrawVertices.WithLabelValues("position_color")); got != 6 {
		t.Errorf("vertices{position_color} = %v, want 6", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c, _ := newCollector(t)
	c.EphemerisEvaluated("Venus")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), `sky_ephemeris_evaluations_total{body="Venus"} 1`) {
		t.Errorf("metrics output lacks the Venus counter:\n%s", body)
	}
}
