// Package metrics exports render and launch counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docrender/internal/render"
)

var _ render.Observer = (*Observer)(nil)

// Observer records render lifecycle events on its own registry.
type Observer struct {
	registry       *prometheus.Registry
	launchAttempts *prometheus.CounterVec
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
}

func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		launchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docrender_launch_attempts_total",
				Help: "Browser launch attempts by outcome",
			},
			[]string{"outcome"},
		),
		renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docrender_renders_total",
				Help: "Finished renders by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		renderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docrender_render_duration_seconds",
				Help:    "End-to-end render duration",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"source"},
		),
	}
	o.registry.MustRegister(
		o.launchAttempts,
		o.renders,
		o.renderDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return o
}

func (o *Observer) LaunchAttempt(_ int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	o.launchAttempts.WithLabelValues(outcome).Inc()
}

func (o *Observer) RenderFinished(src render.Source, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(render.KindOf(err))
	}
	o.renders.WithLabelValues(string(src), outcome).Inc()
	o.renderDuration.WithLabelValues(string(src)).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (o *Observer) Registry() *prometheus.Registry { return o.registry }

// Handler serves the registry in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
