// Package metrics exposes Prometheus collectors for the sky engine.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/litescript/ls-sky/internal/solarsystem"
)

// Collector bundles the engine's metrics. A nil *Collector records
// nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	UpdateDuration prometheus.Histogram
	DrawDuration   prometheus.Histogram

	EphemerisEvaluations *prometheus.CounterVec
	EphemerisFailures    *prometheus.CounterVec

	DrawCalls    *prometheus.CounterVec
	DrawVertices *prometheus.CounterVec
}

var _ solarsystem.Recorder = (*Collector)(nil)

// frameBuckets span a 60 Hz frame budget in seconds.
var frameBuckets = []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.033, 0.1}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice against one registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	update, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sky_update_duration_seconds",
		Help:    "Time spent advancing the clock, planets and modules per frame.",
		Buckets: frameBuckets,
	}))
	if err != nil {
		return nil, err
	}
	draw, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sky_draw_duration_seconds",
		Help:    "Time spent drawing all modules per frame.",
		Buckets: frameBuckets,
	}))
	if err != nil {
		return nil, err
	}
	evaluations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sky_ephemeris_evaluations_total",
		Help: "Ephemeris position evaluations, labeled by body.",
	}, []string{"body"}))
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sky_ephemeris_failures_total",
		Help: "Failed ephemeris position evaluations, labeled by body.",
	}, []string{"body"}))
	if err != nil {
		return nil, err
	}
	calls, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sky_draw_calls_total",
		Help: "Entities handed to the painter, labeled by primitive and vertex format.",
	}, []string{"primitive", "format"}))
	if err != nil {
		return nil, err
	}
	vertices, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sky_draw_vertices_total",
		Help: "Vertices handed to the painter, labeled by vertex format.",
	}, []string{"format"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:             gatherer,
		UpdateDuration:       update,
		DrawDuration:         draw,
		EphemerisEvaluations: evaluations,
		EphemerisFailures:    failures,
		DrawCalls:            calls,
		DrawVertices:         vertices,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveUpdate records one engine update.
func (c *Collector) ObserveUpdate(d time.Duration) {
	if c == nil {
		return
	}
	c.UpdateDuration.Observe(d.Seconds())
}

// ObserveDraw records one engine draw.
func (c *Collector) ObserveDraw(d time.Duration) {
	if c == nil {
		return
	}
	c.DrawDuration.Observe(d.Seconds())
}

// EphemerisEvaluated implements solarsystem.Recorder.
func (c *Collector) EphemerisEvaluated(body string) {
	if c == nil {
		return
	}
	c.EphemerisEvaluations.WithLabelValues(body).Inc()
}

// EphemerisFailed implements solarsystem.Recorder.
func (c *Collector) EphemerisFailed(body string) {
	if c == nil {
		return
	}
	c.EphemerisFailures.WithLabelValues(body).Inc()
}

// register adds col to reg, returning the collector already registered
// under the same descriptor if there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, col C) (C, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %T already registered with incompatible type", col)
		}
		var zero C
		return zero, err
	}
	return col, nil
}
